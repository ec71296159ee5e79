package dex

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"lpScope/internal/model"
)

const defaultFetchConcurrency = 8

var errEmptyResponse = errors.New("empty response, address has no contract code")

// Caller executes read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Backend is a Caller that can also report the chain head.
type Backend interface {
	Caller
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// CallObserver receives the outcome of every contract call.
type CallObserver func(method string, elapsed time.Duration, err error)

// ReaderConfig holds contract addresses and tuning for a Reader.
type ReaderConfig struct {
	Registry        common.Address
	PositionManager common.Address
	// RegistryCaller reads the registry when it is deployed on a different chain.
	// Registry reads through it are never block-pinned.
	RegistryCaller   Caller
	FetchConcurrency int
	Observer         CallObserver
	// Tokens, when set, serves TokenInfo from memory after the first read.
	Tokens *TokenCache
	Logger *zap.Logger
}

// Reader decodes read-only calls to tokens, the pool registry and the position manager.
type Reader struct {
	chain           Backend
	registry        Caller
	registryPinned  bool
	registryAddr    common.Address
	positionManager common.Address
	concurrency     int
	observer        CallObserver
	tokens          *TokenCache
	logger          *zap.Logger
}

// NewReader builds a Reader on top of the main chain backend.
func NewReader(backend Backend, cfg ReaderConfig) (*Reader, error) {
	if backend == nil {
		return nil, fmt.Errorf("chain backend is nil")
	}
	if cfg.PositionManager == (common.Address{}) {
		return nil, fmt.Errorf("position manager address is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := cfg.FetchConcurrency
	if concurrency <= 0 {
		concurrency = defaultFetchConcurrency
	}

	r := &Reader{
		chain:           backend,
		registry:        backend,
		registryPinned:  true,
		registryAddr:    cfg.Registry,
		positionManager: cfg.PositionManager,
		concurrency:     concurrency,
		observer:        cfg.Observer,
		tokens:          cfg.Tokens,
		logger:          logger,
	}
	if cfg.RegistryCaller != nil {
		r.registry = cfg.RegistryCaller
		r.registryPinned = false
	}
	return r, nil
}

// PositionManager returns the position manager address the reader queries.
func (r *Reader) PositionManager() common.Address {
	return r.positionManager
}

// LatestBlock returns the current head of the main chain as a pin for subsequent reads.
func (r *Reader) LatestBlock(ctx context.Context) (*big.Int, error) {
	start := time.Now()
	number, err := r.chain.LatestBlockNumber(ctx)
	r.observe("eth_blockNumber", time.Since(start), err)
	if err != nil {
		return nil, &model.ChainCallError{Method: "eth_blockNumber", Err: err}
	}
	return new(big.Int).SetUint64(number), nil
}

func (r *Reader) callRaw(
	ctx context.Context,
	caller Caller,
	contract common.Address,
	parsed abi.ABI,
	method string,
	from common.Address,
	block *big.Int,
	args ...interface{},
) ([]byte, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	msg := ethereum.CallMsg{From: from, To: &contract, Data: data}
	start := time.Now()
	resp, err := caller.CallContract(ctx, msg, block)
	r.observe(method, time.Since(start), err)
	if err != nil {
		return nil, &model.ChainCallError{Contract: contract, Method: method, Err: err}
	}
	if len(resp) == 0 {
		return nil, &model.ChainCallError{Contract: contract, Method: method, Err: errEmptyResponse}
	}
	return resp, nil
}

func (r *Reader) call(
	ctx context.Context,
	caller Caller,
	contract common.Address,
	parsed abi.ABI,
	method string,
	from common.Address,
	block *big.Int,
	args ...interface{},
) ([]interface{}, error) {
	resp, err := r.callRaw(ctx, caller, contract, parsed, method, from, block, args...)
	if err != nil {
		return nil, err
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, &model.ChainCallError{Contract: contract, Method: method, Err: fmt.Errorf("unpack: %w", err)}
	}
	if len(values) == 0 {
		return nil, &model.ChainCallError{Contract: contract, Method: method, Err: fmt.Errorf("no return values")}
	}
	return values, nil
}

func (r *Reader) observe(method string, elapsed time.Duration, err error) {
	if r.observer != nil {
		r.observer(method, elapsed, err)
	}
	if err != nil {
		r.logger.Debug("contract call failed", zap.String("method", method), zap.Duration("elapsed", elapsed), zap.Error(err))
	}
}

// isRevert reports whether a call failed because the contract reverted,
// as opposed to a transport or node failure.
func isRevert(err error) bool {
	if err == nil {
		return false
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == 3 {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}
