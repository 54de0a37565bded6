package model

import (
	"fmt"
	"math/rand"
	"testing"
)

func checkSelection(t *testing.T, c *Collection) {
	t.Helper()
	if c.Selected == "" {
		return
	}
	if _, ok := c.Get(c.Selected); !ok {
		t.Fatalf("selected id %q not present in collection", c.Selected)
	}
}

func TestCollectionDeleteSelectedFallsBackToFirst(t *testing.T) {
	var c Collection
	c.Append(Watchlist{ID: "a", Name: "A"})
	c.Append(Watchlist{ID: "b", Name: "B"})
	c.Append(Watchlist{ID: "c", Name: "C"})

	if out := c.Select("a"); out != OutcomeOK {
		t.Fatalf("select a: %v", out)
	}
	if out := c.Remove("a"); out != OutcomeOK {
		t.Fatalf("remove a: %v", out)
	}
	if c.Selected != "b" {
		t.Errorf("expected selection b, got %q", c.Selected)
	}

	c.Remove("b")
	c.Remove("c")
	if c.Selected != "" {
		t.Errorf("expected empty selection, got %q", c.Selected)
	}
}

func TestCollectionDeleteUnselectedKeepsSelection(t *testing.T) {
	var c Collection
	c.Append(Watchlist{ID: "a"})
	c.Append(Watchlist{ID: "b"})
	// Append 选中最后一个
	if c.Selected != "b" {
		t.Fatalf("expected b selected after append, got %q", c.Selected)
	}
	c.Remove("a")
	if c.Selected != "b" {
		t.Errorf("expected b to stay selected, got %q", c.Selected)
	}
}

func TestCollectionRemoveUnknown(t *testing.T) {
	var c Collection
	if out := c.Remove("missing"); out != OutcomeNoSuchList {
		t.Errorf("expected no_such_list, got %v", out)
	}
}

func TestCollectionSelectionInvariantRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var c Collection
	next := 0
	for i := 0; i < 2000; i++ {
		switch rng.Intn(3) {
		case 0:
			c.Append(Watchlist{ID: fmt.Sprintf("w%d", next)})
			next++
		case 1:
			if len(c.Lists) > 0 {
				c.Remove(c.Lists[rng.Intn(len(c.Lists))].ID)
			} else {
				c.Remove("nope")
			}
		case 2:
			if len(c.Lists) > 0 {
				c.Select(c.Lists[rng.Intn(len(c.Lists))].ID)
			}
		}
		checkSelection(t, &c)
	}
}

func TestCollectionAddSymbolIdempotent(t *testing.T) {
	var c Collection
	c.Append(Watchlist{ID: "a"})

	if out := c.AddSymbol("a", "btc"); out != OutcomeOK {
		t.Fatalf("first add: %v", out)
	}
	if out := c.AddSymbol("a", "BTC"); out != OutcomeAlreadyPresent {
		t.Fatalf("second add: expected already_present, got %v", out)
	}
	w, _ := c.Get("a")
	if len(w.Symbols) != 1 || w.Symbols[0] != "BTC" {
		t.Errorf("unexpected symbols %v", w.Symbols)
	}

	if out := c.AddSymbol("zzz", "ETH"); out != OutcomeNoSuchList {
		t.Errorf("expected no_such_list, got %v", out)
	}
	if out := c.AddSymbol("a", "  "); out != OutcomeInvalidSymbol {
		t.Errorf("expected invalid_symbol, got %v", out)
	}
}

func TestCollectionRemoveSymbol(t *testing.T) {
	var c Collection
	c.Append(Watchlist{ID: "a"})
	c.AddSymbol("a", "BTC")
	c.AddSymbol("a", "ETH")

	if out := c.RemoveSymbol("a", "btc"); out != OutcomeOK {
		t.Fatalf("remove: %v", out)
	}
	if out := c.RemoveSymbol("a", "DOGE"); out != OutcomeOK {
		t.Fatalf("remove absent: %v", out)
	}
	w, _ := c.Get("a")
	if len(w.Symbols) != 1 || w.Symbols[0] != "ETH" {
		t.Errorf("unexpected symbols %v", w.Symbols)
	}
}

func TestCollectionSymbolsUnion(t *testing.T) {
	var c Collection
	c.Append(Watchlist{ID: "a"})
	c.Append(Watchlist{ID: "b"})
	c.AddSymbol("a", "BTC")
	c.AddSymbol("a", "ETH")
	c.AddSymbol("b", "ETH")
	c.AddSymbol("b", "SOL")

	got := c.Symbols()
	want := []string{"BTC", "ETH", "SOL"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCollectionCloneIsDeep(t *testing.T) {
	var c Collection
	c.Append(Watchlist{ID: "a"})
	c.AddSymbol("a", "BTC")

	cp := c.Clone()
	c.AddSymbol("a", "ETH")
	if len(cp.Lists[0].Symbols) != 1 {
		t.Errorf("clone shares symbol slice: %v", cp.Lists[0].Symbols)
	}
}

func TestCollectionRepair(t *testing.T) {
	c := Collection{Lists: []Watchlist{{ID: "a"}, {ID: "b"}}, Selected: "gone"}
	c.Repair()
	if c.Selected != "a" {
		t.Errorf("expected a, got %q", c.Selected)
	}

	empty := Collection{Selected: "gone"}
	empty.Repair()
	if empty.Selected != "" {
		t.Errorf("expected empty selection, got %q", empty.Selected)
	}
}

func TestNewPriceQuote(t *testing.T) {
	q, err := NewPriceQuote("BTC", "50000.00", "-120.5", "-0.24")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Price != "50000.00" {
		t.Errorf("price must keep exchange formatting, got %q", q.Price)
	}
	if q.Up() {
		t.Errorf("expected down quote")
	}
	if q.FormatPercent() != "-0.24%" {
		t.Errorf("unexpected percent %q", q.FormatPercent())
	}

	if _, err := NewPriceQuote("BTC", "", "1", "1"); err != ErrMalformedQuote {
		t.Errorf("expected ErrMalformedQuote for missing price, got %v", err)
	}
	if _, err := NewPriceQuote("BTC", "abc", "1", "1"); err != ErrMalformedQuote {
		t.Errorf("expected ErrMalformedQuote for bad price, got %v", err)
	}
}

func TestPriceQuoteFormatPrice(t *testing.T) {
	q := PriceQuote{Price: "0.00001234", PriceChangePercent: "3.456"}
	if got := q.FormatPrice(); got != "0.00" {
		t.Errorf("expected 0.00, got %q", got)
	}
	if got := q.FormatPercent(); got != "3.46%" {
		t.Errorf("expected 3.46%%, got %q", got)
	}
}
