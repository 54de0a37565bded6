package model

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrMalformedQuote = errors.New("malformed quote")

// PriceQuote 单个币种的行情摘要，数值保持交易所原始字符串
type PriceQuote struct {
	Symbol             string `json:"symbol"`
	Price              string `json:"price"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
}

// SearchResult has the same shape as a quote.
type SearchResult = PriceQuote

// NewPriceQuote 校验并构造行情；任一字段缺失或无法解析为十进制数时返回 ErrMalformedQuote
func NewPriceQuote(symbol, price, change, changePct string) (PriceQuote, error) {
	q := PriceQuote{
		Symbol:             strings.TrimSpace(symbol),
		Price:              strings.TrimSpace(price),
		PriceChange:        strings.TrimSpace(change),
		PriceChangePercent: strings.TrimSpace(changePct),
	}
	if q.Symbol == "" {
		return PriceQuote{}, ErrMalformedQuote
	}
	for _, v := range []string{q.Price, q.PriceChange, q.PriceChangePercent} {
		if _, err := decimal.NewFromString(v); err != nil {
			return PriceQuote{}, ErrMalformedQuote
		}
	}
	return q, nil
}

// Up reports whether the percent change is zero or positive.
func (q PriceQuote) Up() bool {
	d, err := decimal.NewFromString(q.PriceChangePercent)
	if err != nil {
		return true
	}
	return !d.IsNegative()
}

// FormatPrice 显示用价格，保留两位小数
func (q PriceQuote) FormatPrice() string {
	return fixed2(q.Price)
}

// FormatPercent 显示用涨跌幅，保留两位小数，带 % 后缀
func (q PriceQuote) FormatPercent() string {
	return fixed2(q.PriceChangePercent) + "%"
}

func fixed2(s string) string {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "--"
	}
	return d.StringFixed(2)
}
