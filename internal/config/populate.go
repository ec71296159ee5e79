package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Sinks the populate job can write to.
const (
	SinkPostgres = "postgres"
	SinkJSONL    = "jsonl"
)

// PopulateConfig holds configuration for the populate command.
type PopulateConfig struct {
	RPCURL            string
	Factory           string
	FromBlock         uint64
	ToBlock           uint64
	FinalityMargin    uint64
	BatchSize         uint64
	BatchPause        time.Duration
	Sink              string
	Out               string
	PGDSN             string
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	MetricsListen     string
	LogLevel          string
}

// LoadPopulate merges config file, environment variables, and flags into PopulateConfig.
func LoadPopulate(cfgFile string, flags *pflag.FlagSet) (PopulateConfig, error) {
	v := viper.New()
	v.SetDefault("factory", DefaultFactory)
	v.SetDefault("from", DefaultFactoryBlock)
	v.SetDefault("finality-margin", uint64(10))
	v.SetDefault("batch-size", uint64(5000))
	v.SetDefault("batch-pause", 2*time.Second)
	v.SetDefault("sink", SinkJSONL)
	v.SetDefault("out", "./data/pools.jsonl")
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if err := read(v, cfgFile, flags); err != nil {
		return PopulateConfig{}, err
	}

	cfg := PopulateConfig{
		RPCURL:            v.GetString("rpc"),
		Factory:           v.GetString("factory"),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		FinalityMargin:    v.GetUint64("finality-margin"),
		BatchSize:         v.GetUint64("batch-size"),
		BatchPause:        v.GetDuration("batch-pause"),
		Sink:              strings.ToLower(v.GetString("sink")),
		Out:               v.GetString("out"),
		PGDSN:             v.GetString("pg-dsn"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		MetricsListen:     v.GetString("metrics-listen"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks the settings needed to run the populate job.
func (c PopulateConfig) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if c.Factory == "" {
		return fmt.Errorf("factory address is required")
	}
	if c.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if c.ToBlock != 0 && c.ToBlock < c.FromBlock {
		return fmt.Errorf("to block must be >= from block")
	}
	switch c.Sink {
	case SinkPostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg dsn is required for the postgres sink")
		}
	case SinkJSONL:
		if c.Out == "" {
			return fmt.Errorf("output path is required for the jsonl sink")
		}
	default:
		return fmt.Errorf("unknown sink %q", c.Sink)
	}
	return nil
}
