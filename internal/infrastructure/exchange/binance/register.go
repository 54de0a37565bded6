package binance

import (
	"cwatch/internal/application/port"
	dsvc "cwatch/internal/domain/service"
	"cwatch/internal/infrastructure/pricefeed"
)

// init() 向 pricefeed 注册表注册 Binance 行情源，避免在 svc 中硬编码
func init() {
	pricefeed.Register(ExchangeName, func(cfg pricefeed.Endpoints, converter dsvc.SymbolConverter) (port.PriceFeed, port.TickerSource) {
		return NewTickerFeed(cfg.WsURL, converter), NewTickerClient(cfg.RestURL)
	})
}
