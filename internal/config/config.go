package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "LPSCOPE"

// Mainnet deployments of the Uniswap V3 contracts.
const (
	DefaultPositionManager = "0xC36442b4a4522E871399CD717aBDD847Ab11FE88"
	DefaultFactory         = "0x1F98431c8aD98523631AE4a59f267346ea31F984"
	// DefaultFactoryBlock is the block the V3 factory was deployed at.
	DefaultFactoryBlock uint64 = 12369621
)

// Registry sources for pool lookups.
const (
	RegistryContract = "contract"
	RegistryPostgres = "postgres"
)

// ServeConfig holds configuration for the serve and calc commands.
type ServeConfig struct {
	RPCURL           string
	RegistryRPCURL   string
	RegistryAddress  string
	RegistrySource   string
	PositionManager  string
	PGDSN            string
	Listen           string
	RateLimit        int
	RateWindow       time.Duration
	RequestTimeout   time.Duration
	CORSOrigins      []string
	TrustedProxies   []string
	FetchConcurrency int
	TokenCache       bool
	LogLevel         string
}

// LoadDotEnv reads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load merges config file, environment variables, and flags into ServeConfig.
func Load(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v := viper.New()
	v.SetDefault("registry-source", RegistryContract)
	v.SetDefault("position-manager", DefaultPositionManager)
	v.SetDefault("listen", ":3000")
	v.SetDefault("rate-limit", 100)
	v.SetDefault("rate-window", 15*time.Minute)
	v.SetDefault("request-timeout", 30*time.Second)
	v.SetDefault("cors-origins", "*")
	v.SetDefault("fetch-concurrency", 8)
	v.SetDefault("log-level", "info")

	if err := read(v, cfgFile, flags); err != nil {
		return ServeConfig{}, err
	}

	cfg := ServeConfig{
		RPCURL:           v.GetString("rpc"),
		RegistryRPCURL:   v.GetString("registry-rpc"),
		RegistryAddress:  v.GetString("registry-address"),
		RegistrySource:   strings.ToLower(v.GetString("registry-source")),
		PositionManager:  v.GetString("position-manager"),
		PGDSN:            v.GetString("pg-dsn"),
		Listen:           v.GetString("listen"),
		RateLimit:        v.GetInt("rate-limit"),
		RateWindow:       v.GetDuration("rate-window"),
		RequestTimeout:   v.GetDuration("request-timeout"),
		CORSOrigins:      getStringSlice(v, "cors-origins"),
		TrustedProxies:   getStringSlice(v, "trusted-proxies"),
		FetchConcurrency: v.GetInt("fetch-concurrency"),
		TokenCache:       v.GetBool("token-cache"),
		LogLevel:         v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks the settings needed to value positions.
func (c ServeConfig) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	switch c.RegistrySource {
	case RegistryContract:
		if c.RegistryAddress == "" {
			return fmt.Errorf("registry address is required for the contract registry source")
		}
	case RegistryPostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg dsn is required for the postgres registry source")
		}
	default:
		return fmt.Errorf("unknown registry source %q", c.RegistrySource)
	}
	if c.PositionManager == "" {
		return fmt.Errorf("position manager address is required")
	}
	return nil
}

func read(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
