package pricefeed

import (
	"cwatch/internal/application/port"
	dsvc "cwatch/internal/domain/service"

	"github.com/rs/zerolog/log"
)

// Endpoints 交易所的 REST / WebSocket 地址
type Endpoints struct {
	RestURL string
	WsURL   string
}

// Factory 创建一个交易所的推送源和快照源
type Factory func(cfg Endpoints, converter dsvc.SymbolConverter) (port.PriceFeed, port.TickerSource)

// registry maps exchange names to their respective factories
var registry = make(map[string]Factory)

// Register 由各交易所包的 init() 调用
func Register(exchangeName string, factory Factory) {
	if factory == nil {
		log.Warn().Str("exchange", exchangeName).Msg("invalid price feed factory")
		return
	}
	if _, exists := registry[exchangeName]; exists {
		log.Warn().Str("exchange", exchangeName).Msg("price feed factory already registered, overwriting")
	}
	registry[exchangeName] = factory
	log.Debug().Str("exchange", exchangeName).Msg("price feed factory registered")
}

// Get 获取已注册的工厂
func Get(exchangeName string) (Factory, bool) {
	factory, ok := registry[exchangeName]
	return factory, ok
}
