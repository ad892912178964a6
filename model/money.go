package model

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

// weiDecimals は 1 ETH = 10^18 Wei
const weiDecimals = 18

// FormatETH は Wei を "0.05 ETH" 形式の表示用文字列に変換する
func FormatETH(wei *big.Int) string {
	if wei == nil {
		return "0 ETH"
	}
	return decimal.NewFromBigInt(wei, -weiDecimals).String() + " ETH"
}

// ParseETH は "0.05" のような ETH 表記を Wei に変換する
func ParseETH(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.New("invalid ETH amount")
	}
	if d.IsNegative() {
		return nil, errors.New("ETH amount must not be negative")
	}
	wei := d.Shift(weiDecimals)
	if !wei.IsInteger() {
		return nil, errors.New("ETH amount has more than 18 decimal places")
	}
	return wei.BigInt(), nil
}

// ETHToWei は整数 ETH を Wei に変換する (価格フィルター用)
func ETHToWei(eth int64) *big.Int {
	return decimal.NewFromInt(eth).Shift(weiDecimals).BigInt()
}

// MustParseETH は ParseETH と同じだが、失敗した場合は panic する
func MustParseETH(s string) *big.Int {
	wei, err := ParseETH(s)
	if err != nil {
		panic(err)
	}
	return wei
}
