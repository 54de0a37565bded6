package pricefeed

import (
	"testing"

	"cwatch/internal/application/port"
	dsvc "cwatch/internal/domain/service"
)

func TestRegisterAndGet(t *testing.T) {
	called := false
	Register("TEST", func(cfg Endpoints, converter dsvc.SymbolConverter) (port.PriceFeed, port.TickerSource) {
		called = true
		return nil, nil
	})
	Register("NIL", nil)

	f, ok := Get("TEST")
	if !ok {
		t.Fatalf("factory not registered")
	}
	f(Endpoints{}, dsvc.NewQuoteConverter("USDT"))
	if !called {
		t.Errorf("factory not invoked")
	}
	if _, ok := Get("NIL"); ok {
		t.Errorf("nil factory must be ignored")
	}
}
