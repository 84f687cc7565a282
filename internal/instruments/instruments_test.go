package instruments

import "testing"

func TestClassifyAssetClass(t *testing.T) {
	cases := []struct {
		pair string
		want AssetClass
	}{
		{"EURUSD", Forex},
		{"XAUUSD", Forex},
		{"XAGUSD", Forex},
		{"BTCUSD", Crypto},
		{"SOLUSD", Crypto},
		{"AAPL", Stocks},
		{"USDJPY", Forex},
	}
	for _, c := range cases {
		if got := ClassifyAssetClass(c.pair); got != c.want {
			t.Errorf("ClassifyAssetClass(%q) = %v, want %v", c.pair, got, c.want)
		}
	}
}

func TestCacheUpdatePriceInstallsOnce(t *testing.T) {
	c := NewCache()

	if !c.UpdatePrice("EURUSD", 1.1) {
		t.Fatalf("expected first UpdatePrice to install config")
	}
	if c.UpdatePrice("EURUSD", 150.0) {
		t.Fatalf("expected second UpdatePrice for same pair to be a no-op")
	}

	cfg := c.Get("EURUSD")
	if cfg.Point != 1e-5 {
		t.Fatalf("expected point derived from the first price (1.1 < 10 => 1e-5), got %v", cfg.Point)
	}
}

func TestCacheGetFallsBackToDefaultWithoutUpdatePrice(t *testing.T) {
	c := NewCache()

	cfg := c.Get("USDJPY")
	if cfg.Point != 1e-3 {
		t.Fatalf("expected JPY cross default point 1e-3, got %v", cfg.Point)
	}

	cfg = c.Get("BTCUSD")
	if cfg.Point != 10 {
		t.Fatalf("expected BTCUSD legacy fixed point 10, got %v", cfg.Point)
	}

	cfg = c.Get("AAPL")
	if cfg.Point != 0.01 {
		t.Fatalf("expected stock default point 0.01, got %v", cfg.Point)
	}
}

func TestCacheGetIsIdempotentAfterFallback(t *testing.T) {
	c := NewCache()
	first := c.Get("ETHUSD")
	second := c.Get("ETHUSD")
	if first != second {
		t.Fatalf("expected fallback config to stick after first Get, got %v then %v", first, second)
	}
}
