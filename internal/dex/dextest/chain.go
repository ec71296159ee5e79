// Package dextest provides an in-memory contract backend for exercising dex.Reader.
package dextest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Call is a recorded eth_call.
type Call struct {
	To     common.Address
	From   common.Address
	Method string
	Args   []interface{}
	Block  *big.Int
}

// Handler answers a decoded call with return values to be ABI-packed.
type Handler func(call Call) ([]interface{}, error)

type route struct {
	parsed abi.ABI
	method string
	fn     Handler
}

// Chain is a fake Backend. Handlers are keyed by contract address and selector.
type Chain struct {
	mu     sync.Mutex
	latest uint64
	routes map[common.Address]map[[4]byte]route
	raw    map[common.Address]map[[4]byte][]byte
	calls  []Call
}

// NewChain returns a fake chain whose head is at the given block.
func NewChain(latest uint64) *Chain {
	return &Chain{
		latest: latest,
		routes: make(map[common.Address]map[[4]byte]route),
		raw:    make(map[common.Address]map[[4]byte][]byte),
	}
}

// Handle registers fn for method of parsed at contract.
func (c *Chain) Handle(contract common.Address, parsed abi.ABI, method string, fn Handler) {
	m, ok := parsed.Methods[method]
	if !ok {
		panic(fmt.Sprintf("dextest: unknown method %s", method))
	}
	var selector [4]byte
	copy(selector[:], m.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.routes[contract] == nil {
		c.routes[contract] = make(map[[4]byte]route)
	}
	c.routes[contract][selector] = route{parsed: parsed, method: method, fn: fn}
}

// Return registers a handler that always answers with the given values.
func (c *Chain) Return(contract common.Address, parsed abi.ABI, method string, values ...interface{}) {
	c.Handle(contract, parsed, method, func(Call) ([]interface{}, error) {
		return values, nil
	})
}

// Fail registers a handler that always fails with err.
func (c *Chain) Fail(contract common.Address, parsed abi.ABI, method string, err error) {
	c.Handle(contract, parsed, method, func(Call) ([]interface{}, error) {
		return nil, err
	})
}

// ReturnRaw answers a selector with pre-encoded bytes, bypassing output packing.
func (c *Chain) ReturnRaw(contract common.Address, selector []byte, data []byte) {
	var key [4]byte
	copy(key[:], selector)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.raw[contract] == nil {
		c.raw[contract] = make(map[[4]byte][]byte)
	}
	c.raw[contract][key] = data
}

// LatestBlockNumber implements dex.Backend.
func (c *Chain) LatestBlockNumber(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest, nil
}

// SetLatest moves the chain head.
func (c *Chain) SetLatest(number uint64) {
	c.mu.Lock()
	c.latest = number
	c.mu.Unlock()
}

// CallContract implements dex.Caller.
func (c *Chain) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if msg.To == nil {
		return nil, fmt.Errorf("dextest: call without target")
	}
	if len(msg.Data) < 4 {
		return nil, fmt.Errorf("dextest: short calldata")
	}
	var selector [4]byte
	copy(selector[:], msg.Data[:4])

	var block *big.Int
	if blockNumber != nil {
		block = new(big.Int).Set(blockNumber)
	}

	c.mu.Lock()
	data, isRaw := c.raw[*msg.To][selector]
	r, ok := c.routes[*msg.To][selector]
	c.mu.Unlock()

	if isRaw {
		c.record(Call{To: *msg.To, From: msg.From, Block: block})
		return data, nil
	}
	if !ok {
		// Calls to addresses without code succeed with empty output.
		c.record(Call{To: *msg.To, From: msg.From, Block: block})
		return nil, nil
	}

	method := r.parsed.Methods[r.method]
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, fmt.Errorf("dextest: unpack %s input: %w", r.method, err)
	}

	call := Call{To: *msg.To, From: msg.From, Method: r.method, Args: args, Block: block}
	c.record(call)

	values, err := r.fn(call)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(values...)
}

func (c *Chain) record(call Call) {
	c.mu.Lock()
	c.calls = append(c.calls, call)
	c.mu.Unlock()
}

// Calls returns a copy of every recorded call.
func (c *Chain) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// RevertError mimics the JSON-RPC error a node returns for a reverted eth_call.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.Reason
}

// ErrorCode matches go-ethereum's rpc.Error.
func (e *RevertError) ErrorCode() int {
	return 3
}
