package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"lpScope/internal/model"
)

// TokenSymbol reads symbol(), accepting both string and bytes32 encodings.
func (r *Reader) TokenSymbol(ctx context.Context, token common.Address, block *big.Int) (string, error) {
	stringABI, err := ERC20ABI()
	if err != nil {
		return "", fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return "", fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	resp, err := r.callRaw(ctx, r.chain, token, stringABI, "symbol", common.Address{}, block)
	if err != nil {
		return "", err
	}

	if values, err := stringABI.Unpack("symbol", resp); err == nil && len(values) > 0 {
		if symbol, ok := values[0].(string); ok {
			return symbol, nil
		}
	}
	if values, err := bytes32ABI.Unpack("symbol", resp); err == nil && len(values) > 0 {
		if symbol, ok := bytes32ToString(values[0]); ok {
			return symbol, nil
		}
	}
	return "", &model.ChainCallError{Contract: token, Method: "symbol", Err: fmt.Errorf("undecodable symbol")}
}

// TokenDecimals reads decimals().
func (r *Reader) TokenDecimals(ctx context.Context, token common.Address, block *big.Int) (uint8, error) {
	parsed, err := ERC20ABI()
	if err != nil {
		return 0, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := r.call(ctx, r.chain, token, parsed, "decimals", common.Address{}, block)
	if err != nil {
		return 0, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return 0, &model.ChainCallError{Contract: token, Method: "decimals", Err: err}
	}
	return decimals, nil
}

// TokenBalance reads balanceOf(holder).
func (r *Reader) TokenBalance(ctx context.Context, token common.Address, holder common.Address, block *big.Int) (*big.Int, error) {
	parsed, err := ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := r.call(ctx, r.chain, token, parsed, "balanceOf", common.Address{}, block, holder)
	if err != nil {
		return nil, err
	}
	balance, err := asBigInt(values[0])
	if err != nil {
		return nil, &model.ChainCallError{Contract: token, Method: "balanceOf", Err: err}
	}
	return balance, nil
}

// TokenInfo loads symbol and decimals for a token.
func (r *Reader) TokenInfo(ctx context.Context, token common.Address, block *big.Int) (model.TokenInfo, error) {
	if r.tokens != nil {
		if info, ok := r.tokens.Get(token); ok {
			return info, nil
		}
	}
	info := model.TokenInfo{Address: token}

	decimals, err := r.TokenDecimals(ctx, token, block)
	if err != nil {
		return info, err
	}
	info.Decimals = decimals

	symbol, err := r.TokenSymbol(ctx, token, block)
	if err != nil {
		return info, err
	}
	info.Symbol = symbol

	if r.tokens != nil {
		r.tokens.Set(info)
	}
	return info, nil
}
