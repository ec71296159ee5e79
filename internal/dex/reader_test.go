package dex_test

import (
	"context"
	"errors"
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"lpScope/internal/dex"
	"lpScope/internal/dex/dextest"
	"lpScope/internal/model"
)

var (
	registryAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")
	managerAddr  = common.HexToAddress("0xC36442b4a4522E871399CD717aBDD847Ab11FE88")
	poolAddr     = common.HexToAddress("0x7b1E5D984A43eE732de195628d20d05CFaBc3cC7")
	ownerAddr    = common.HexToAddress("0xe403043A0F9C7B9F315Cf145166EB747D9790E77")
	weth         = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	ondo         = common.HexToAddress("0xfAbA6f8e4a5E8Ab82F62fe7C39859FA577269BE3")
)

func mustABI(t *testing.T, fn func() (abi.ABI, error)) abi.ABI {
	t.Helper()
	parsed, err := fn()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	return parsed
}

func newReader(t *testing.T, chain *dextest.Chain, cfg dex.ReaderConfig) *dex.Reader {
	t.Helper()
	if cfg.Registry == (common.Address{}) {
		cfg.Registry = registryAddr
	}
	if cfg.PositionManager == (common.Address{}) {
		cfg.PositionManager = managerAddr
	}
	reader, err := dex.NewReader(chain, cfg)
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	return reader
}

func TestNewReaderRequiresPositionManager(t *testing.T) {
	if _, err := dex.NewReader(dextest.NewChain(1), dex.ReaderConfig{Registry: registryAddr}); err == nil {
		t.Fatalf("expected error without position manager")
	}
	if _, err := dex.NewReader(nil, dex.ReaderConfig{PositionManager: managerAddr}); err == nil {
		t.Fatalf("expected error without backend")
	}
}

func TestReaderGetPool(t *testing.T) {
	registry := mustABI(t, dex.RegistryABI)
	chain := dextest.NewChain(100)
	chain.Handle(registryAddr, registry, "get_liquidity_pool", func(call dextest.Call) ([]interface{}, error) {
		if call.Args[0].(common.Address) != poolAddr {
			return []interface{}{common.Address{}, common.Address{}, big.NewInt(0)}, nil
		}
		return []interface{}{weth, ondo, big.NewInt(3000)}, nil
	})

	reader := newReader(t, chain, dex.ReaderConfig{})
	record, err := reader.GetPool(context.Background(), poolAddr, big.NewInt(100))
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if record.Token0 != weth || record.Token1 != ondo || record.FeeTier != 3000 {
		t.Fatalf("record mismatch: %+v", record)
	}

	calls := chain.Calls()
	if len(calls) != 1 || calls[0].Block == nil || calls[0].Block.Uint64() != 100 {
		t.Fatalf("registry read should be pinned to block 100: %+v", calls)
	}

	if _, err := reader.GetPool(context.Background(), ownerAddr, nil); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("zero record should be not found, got %v", err)
	}
}

func TestReaderGetPoolRevertIsNotFound(t *testing.T) {
	registry := mustABI(t, dex.RegistryABI)
	chain := dextest.NewChain(100)
	chain.Fail(registryAddr, registry, "get_liquidity_pool", &dextest.RevertError{Reason: "Liquidity pool does not exist!"})

	reader := newReader(t, chain, dex.ReaderConfig{})
	_, err := reader.GetPool(context.Background(), poolAddr, nil)
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReaderGetPoolTransportFailure(t *testing.T) {
	registry := mustABI(t, dex.RegistryABI)
	chain := dextest.NewChain(100)
	chain.Fail(registryAddr, registry, "get_liquidity_pool", errors.New("connection refused"))

	reader := newReader(t, chain, dex.ReaderConfig{})
	_, err := reader.GetPool(context.Background(), poolAddr, nil)
	if errors.Is(err, model.ErrNotFound) {
		t.Fatalf("transport failure must not be reported as not found")
	}
	var callErr *model.ChainCallError
	if !errors.As(err, &callErr) || callErr.Method != "get_liquidity_pool" {
		t.Fatalf("expected chain call error, got %v", err)
	}
}

func TestReaderRegistryOnSeparateChainIsNotPinned(t *testing.T) {
	registry := mustABI(t, dex.RegistryABI)
	main := dextest.NewChain(100)
	registryChain := dextest.NewChain(5)
	registryChain.Return(registryAddr, registry, "get_liquidity_pool", weth, ondo, big.NewInt(500))

	reader := newReader(t, main, dex.ReaderConfig{RegistryCaller: registryChain})
	record, err := reader.GetPool(context.Background(), poolAddr, big.NewInt(100))
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if record.FeeTier != 500 {
		t.Fatalf("fee mismatch: %d", record.FeeTier)
	}
	if len(main.Calls()) != 0 {
		t.Fatalf("registry read leaked to main chain")
	}
	calls := registryChain.Calls()
	if len(calls) != 1 || calls[0].Block != nil {
		t.Fatalf("registry read on another chain must use latest: %+v", calls)
	}
}

func TestReaderTokenReads(t *testing.T) {
	erc20 := mustABI(t, dex.ERC20ABI)
	chain := dextest.NewChain(100)
	chain.Return(weth, erc20, "symbol", "WETH")
	chain.Return(weth, erc20, "decimals", uint8(18))
	chain.Handle(weth, erc20, "balanceOf", func(call dextest.Call) ([]interface{}, error) {
		if call.Args[0].(common.Address) != poolAddr {
			return []interface{}{big.NewInt(0)}, nil
		}
		return []interface{}{big.NewInt(12345)}, nil
	})

	reader := newReader(t, chain, dex.ReaderConfig{})
	ctx := context.Background()

	info, err := reader.TokenInfo(ctx, weth, nil)
	if err != nil {
		t.Fatalf("token info: %v", err)
	}
	if info.Symbol != "WETH" || info.Decimals != 18 || info.Address != weth {
		t.Fatalf("token info mismatch: %+v", info)
	}

	balance, err := reader.TokenBalance(ctx, weth, poolAddr, nil)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Int64() != 12345 {
		t.Fatalf("balance mismatch: %s", balance)
	}
}

func TestReaderTokenSymbolBytes32(t *testing.T) {
	erc20 := mustABI(t, dex.ERC20ABI)
	mkr := common.HexToAddress("0x9f8F72aA9304c8B593d555F12eF6589cC3A579A2")

	var symbol [32]byte
	copy(symbol[:], "MKR")
	bytes32Type, err := abi.NewType("bytes32", "", nil)
	if err != nil {
		t.Fatalf("bytes32 type: %v", err)
	}
	data, err := abi.Arguments{{Type: bytes32Type}}.Pack(symbol)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	chain := dextest.NewChain(100)
	chain.ReturnRaw(mkr, erc20.Methods["symbol"].ID, data)

	reader := newReader(t, chain, dex.ReaderConfig{})
	got, err := reader.TokenSymbol(context.Background(), mkr, nil)
	if err != nil {
		t.Fatalf("symbol: %v", err)
	}
	if got != "MKR" {
		t.Fatalf("symbol mismatch: %q", got)
	}
}

func TestReaderTokenInfoCache(t *testing.T) {
	erc20 := mustABI(t, dex.ERC20ABI)
	chain := dextest.NewChain(100)
	chain.Return(weth, erc20, "symbol", "WETH")
	chain.Return(weth, erc20, "decimals", uint8(18))

	cache := dex.NewTokenCache()
	reader := newReader(t, chain, dex.ReaderConfig{Tokens: cache})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		info, err := reader.TokenInfo(ctx, weth, big.NewInt(100))
		if err != nil {
			t.Fatalf("token info: %v", err)
		}
		if info.Symbol != "WETH" || info.Decimals != 18 {
			t.Fatalf("info mismatch: %+v", info)
		}
	}
	if got := len(chain.Calls()); got != 2 {
		t.Fatalf("expected one decimals and one symbol call, got %d", got)
	}
	if cache.Len() != 1 {
		t.Fatalf("cache size mismatch: %d", cache.Len())
	}
}

func TestReaderTokenInfoFailureIsNotCached(t *testing.T) {
	erc20 := mustABI(t, dex.ERC20ABI)
	chain := dextest.NewChain(100)
	chain.Fail(weth, erc20, "decimals", errors.New("upstream down"))

	cache := dex.NewTokenCache()
	reader := newReader(t, chain, dex.ReaderConfig{Tokens: cache})

	if _, err := reader.TokenInfo(context.Background(), weth, nil); err == nil {
		t.Fatalf("expected error")
	}
	if cache.Len() != 0 {
		t.Fatalf("failed read must not be cached")
	}
}

func TestReaderNonContractAddress(t *testing.T) {
	reader := newReader(t, dextest.NewChain(100), dex.ReaderConfig{})
	_, err := reader.TokenDecimals(context.Background(), ownerAddr, nil)
	var callErr *model.ChainCallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected chain call error, got %v", err)
	}
	if callErr.Contract != ownerAddr || callErr.Method != "decimals" {
		t.Fatalf("error context mismatch: %+v", callErr)
	}
}

func TestReaderOwnedPositionIDsReverseOrder(t *testing.T) {
	manager := mustABI(t, dex.PositionManagerABI)
	enumerated := []int64{619539, 654853, 664870, 734427, 734999}

	chain := dextest.NewChain(100)
	chain.Return(managerAddr, manager, "balanceOf", big.NewInt(int64(len(enumerated))))
	chain.Handle(managerAddr, manager, "tokenOfOwnerByIndex", func(call dextest.Call) ([]interface{}, error) {
		if call.Args[0].(common.Address) != ownerAddr {
			t.Errorf("unexpected owner %s", call.Args[0])
		}
		index := call.Args[1].(*big.Int).Int64()
		return []interface{}{big.NewInt(enumerated[index])}, nil
	})

	reader := newReader(t, chain, dex.ReaderConfig{FetchConcurrency: 2})
	ids, err := reader.OwnedPositionIDs(context.Background(), ownerAddr, big.NewInt(100))
	if err != nil {
		t.Fatalf("owned ids: %v", err)
	}

	got := make([]int64, 0, len(ids))
	for _, id := range ids {
		got = append(got, id.Int64())
	}
	want := []int64{734999, 734427, 664870, 654853, 619539}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ids mismatch: %v != %v", got, want)
	}
}

func TestReaderOwnedPositionIDsEmpty(t *testing.T) {
	manager := mustABI(t, dex.PositionManagerABI)
	chain := dextest.NewChain(100)
	chain.Return(managerAddr, manager, "balanceOf", big.NewInt(0))

	reader := newReader(t, chain, dex.ReaderConfig{})
	ids, err := reader.OwnedPositionIDs(context.Background(), poolAddr, nil)
	if err != nil {
		t.Fatalf("owned ids: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no ids, got %v", ids)
	}
}

func TestReaderPosition(t *testing.T) {
	manager := mustABI(t, dex.PositionManagerABI)
	chain := dextest.NewChain(100)
	chain.Handle(managerAddr, manager, "positions", func(call dextest.Call) ([]interface{}, error) {
		if call.Args[0].(*big.Int).Int64() != 734999 {
			return nil, &dextest.RevertError{Reason: "Invalid token ID"}
		}
		return []interface{}{
			big.NewInt(0),
			common.Address{},
			weth,
			ondo,
			big.NewInt(3000),
			big.NewInt(-74340),
			big.NewInt(82020),
			big.NewInt(1000),
			big.NewInt(0),
			big.NewInt(0),
			big.NewInt(0),
			big.NewInt(0),
		}, nil
	})

	reader := newReader(t, chain, dex.ReaderConfig{})
	pos, err := reader.Position(context.Background(), big.NewInt(734999), nil)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if pos.ID.Int64() != 734999 || pos.Token0 != weth || pos.Token1 != ondo || pos.FeeTier != 3000 {
		t.Fatalf("position mismatch: %+v", pos)
	}
	if pos.TickLower != -74340 || pos.TickUpper != 82020 {
		t.Fatalf("ticks mismatch: %d %d", pos.TickLower, pos.TickUpper)
	}

	if _, err := reader.Position(context.Background(), big.NewInt(1), nil); err == nil {
		t.Fatalf("expected error for unknown token id")
	}
}

func TestReaderPositionRejectsTruncatedOutput(t *testing.T) {
	manager := mustABI(t, dex.PositionManagerABI)
	chain := dextest.NewChain(100)
	// Seven words instead of the twelve positions() returns.
	chain.ReturnRaw(managerAddr, manager.Methods["positions"].ID, make([]byte, 7*32))

	reader := newReader(t, chain, dex.ReaderConfig{})
	_, err := reader.Position(context.Background(), big.NewInt(734999), nil)

	var callErr *model.ChainCallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected ChainCallError, got %v", err)
	}
	if callErr.Method != "positions" || callErr.Contract != managerAddr {
		t.Fatalf("error context mismatch: %+v", callErr)
	}
}

func TestReaderUnclaimedFeesIsSimulatedFromRecipient(t *testing.T) {
	manager := mustABI(t, dex.PositionManagerABI)
	maxUint128 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

	chain := dextest.NewChain(100)
	chain.Handle(managerAddr, manager, "collect", func(call dextest.Call) ([]interface{}, error) {
		params := reflect.ValueOf(call.Args[0])
		if params.FieldByName("TokenId").Interface().(*big.Int).Int64() != 734999 {
			t.Errorf("token id mismatch")
		}
		if params.FieldByName("Recipient").Interface().(common.Address) != ownerAddr {
			t.Errorf("recipient mismatch")
		}
		if params.FieldByName("Amount0Max").Interface().(*big.Int).Cmp(maxUint128) != 0 {
			t.Errorf("amount0Max should be max uint128")
		}
		if params.FieldByName("Amount1Max").Interface().(*big.Int).Cmp(maxUint128) != 0 {
			t.Errorf("amount1Max should be max uint128")
		}
		return []interface{}{big.NewInt(11000000000000000), big.NewInt(1100000000000)}, nil
	})

	reader := newReader(t, chain, dex.ReaderConfig{})
	fee0, fee1, err := reader.UnclaimedFees(context.Background(), big.NewInt(734999), ownerAddr, big.NewInt(100))
	if err != nil {
		t.Fatalf("unclaimed fees: %v", err)
	}
	if fee0.Int64() != 11000000000000000 || fee1.Int64() != 1100000000000 {
		t.Fatalf("fees mismatch: %s %s", fee0, fee1)
	}

	calls := chain.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	if calls[0].From != ownerAddr {
		t.Fatalf("collect must be simulated from the recipient, got %s", calls[0].From.Hex())
	}
	if calls[0].Block.Uint64() != 100 {
		t.Fatalf("collect must be pinned")
	}
}

func TestReaderLatestBlockAndObserver(t *testing.T) {
	var methods []string
	chain := dextest.NewChain(4242)
	reader := newReader(t, chain, dex.ReaderConfig{
		Observer: func(method string, _ time.Duration, _ error) {
			methods = append(methods, method)
		},
	})

	block, err := reader.LatestBlock(context.Background())
	if err != nil {
		t.Fatalf("latest block: %v", err)
	}
	if block.Uint64() != 4242 {
		t.Fatalf("block mismatch: %s", block)
	}
	if len(methods) != 1 || methods[0] != "eth_blockNumber" {
		t.Fatalf("observer not called: %v", methods)
	}
}
