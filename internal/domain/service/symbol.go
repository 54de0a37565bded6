package service

import "strings"

// SymbolConverter 交易对与币种之间的转换
type SymbolConverter interface {
	// Symbol2Coin 将交易对转换为币种
	// 例: BTCUSDT -> BTC
	Symbol2Coin(symbol string) string

	// Coin2Symbol 将币种转换为交易对
	// 例: BTC -> BTCUSDT
	Coin2Symbol(coin string) string

	// HasQuote 交易对是否以计价货币结尾
	HasQuote(symbol string) bool

	// Quote 返回计价货币，例: USDT
	Quote() string
}

// QuoteConverter 以固定计价货币后缀做转换（现货交易对无分隔符）
type QuoteConverter struct {
	quote string
}

func NewQuoteConverter(quote string) *QuoteConverter {
	return &QuoteConverter{quote: strings.ToUpper(strings.TrimSpace(quote))}
}

func (c *QuoteConverter) Quote() string { return c.quote }

func (c *QuoteConverter) HasQuote(symbol string) bool {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	return c.quote != "" && len(sym) > len(c.quote) && strings.HasSuffix(sym, c.quote)
}

// Symbol2Coin 只去掉末尾的计价货币，BTCUSDT -> BTC，USDTTRY 保持不变
func (c *QuoteConverter) Symbol2Coin(symbol string) string {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == "" {
		return ""
	}
	if c.HasQuote(sym) {
		return strings.TrimSuffix(sym, c.quote)
	}
	return sym
}

// Coin2Symbol 例: BTC -> BTCUSDT, BTCUSDT -> BTCUSDT
func (c *QuoteConverter) Coin2Symbol(coin string) string {
	coin = strings.ToUpper(strings.TrimSpace(coin))
	if coin == "" {
		return ""
	}
	if c.HasQuote(coin) {
		return coin
	}
	return coin + c.quote
}

// StreamName 订阅频道名，例: BTC -> btcusdt@ticker
func StreamName(c SymbolConverter, coin, channel string) string {
	return strings.ToLower(c.Coin2Symbol(coin)) + "@" + channel
}
