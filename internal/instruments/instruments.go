// Package instruments maintains the process-wide instrument config
// cache: the mapping from instrument identifier to (point, digits)
// used to convert real-valued box sizes into the integer domain the
// pattern graph operates on. The cache is populated lazily, on first
// sight of an instrument, and never evicted.
package instruments

import (
	"strings"
	"sync"
)

// AssetClass is the coarse classification used to pick a point table.
type AssetClass int

const (
	Stocks AssetClass = iota
	Forex
	Crypto
)

var cryptoPrefixes = []string{
	"ADA", "APT", "ASM", "BIGTIME", "BTC", "CLV", "ETH", "FET",
	"FIDA", "JTO", "LTC", "MEW", "PLU", "RARI", "SAND", "SEAM",
	"SOL", "TAO", "TOKEN", "UNI", "USDC", "USDG", "USDT", "XLM",
	"XMR", "XRP", "ZEC",
}

var forexQuotes = map[string]bool{
	"USD": true, "JPY": true, "EUR": true, "GBP": true,
	"AUD": true, "CAD": true, "CHF": true, "NZD": true,
}

// ClassifyAssetClass applies the string rules from the spec: the
// precious-metal pair maps to Forex, six-letter pairs with a major
// quote currency map to Forex, USD-suffixed identifiers matching a
// crypto prefix map to Crypto, else Stocks.
func ClassifyAssetClass(pair string) AssetClass {
	if pair == "XAUUSD" || pair == "XAGUSD" {
		return Forex
	}

	if strings.HasSuffix(pair, "USD") && len(pair) >= 6 {
		for _, prefix := range cryptoPrefixes {
			if len(pair) >= len(prefix) && strings.HasPrefix(pair, prefix) {
				return Crypto
			}
		}
	}

	if len(pair) == 6 && isAllAlpha(pair) {
		if forexQuotes[pair[3:]] {
			return Forex
		}
	}

	return Stocks
}

func isAllAlpha(s string) bool {
	for _, c := range s {
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

// Config is the derived, cached configuration for one instrument.
type Config struct {
	Point  float64
	Digits int
}

func digitsFromPoint(point float64) int {
	if point >= 1.0 {
		return 0
	}
	p := point
	digits := 0
	for p < 1.0 && digits < 10 {
		p *= 10
		digits++
	}
	return digits
}

func pointFromPrice(price float64, class AssetClass) float64 {
	abs := price
	if abs < 0 {
		abs = -abs
	}

	switch class {
	case Forex:
		if abs < 10 {
			return 1e-5
		}
		return 1e-3
	case Crypto:
		switch {
		case abs >= 1e4:
			return 10
		case abs >= 1e3:
			return 1
		case abs >= 1e2:
			return 0.1
		case abs >= 1e1:
			return 0.01
		case abs >= 1:
			return 0.001
		case abs >= 0.1:
			return 0.0001
		case abs >= 0.01:
			return 0.00001
		default:
			return 0.000001
		}
	default: // Stocks
		if abs >= 1000 {
			return 1
		}
		return 0.01
	}
}

// defaultPoint mirrors the original signal engine's lazy fallback
// table, used when a pair is observed by the detector before any
// price has installed a config via UpdatePrice. Forex defaults to the
// JPY-cross point when the pair name contains JPY, else the standard
// 5-decimal forex point; a handful of crypto pairs keep their legacy
// fixed points, everything else crypto falls back to 0.1; stocks
// always default to 0.01.
func defaultPoint(pair string, class AssetClass) float64 {
	switch class {
	case Forex:
		if strings.Contains(pair, "JPY") {
			return 1e-3
		}
		return 1e-5
	case Crypto:
		switch pair {
		case "BTCUSD", "YFIUSD":
			return 10
		case "MKRUSD":
			return 1
		default:
			return 0.1
		}
	default:
		return 0.01
	}
}

// Cache is a read-heavy, write-once-per-instrument store of
// InstrumentConfig, guarded by a single reader-writer lock.
type Cache struct {
	mu       sync.RWMutex
	configs  map[string]Config
	seenPair map[string]bool
}

// NewCache returns an empty, ready-to-use instrument config cache.
func NewCache() *Cache {
	return &Cache{
		configs:  make(map[string]Config, 2000),
		seenPair: make(map[string]bool, 2000),
	}
}

// UpdatePrice installs a config for pair from its latest observed
// price, the first time pair is seen. Later prices for the same pair
// never recompute the config. Returns true if this call installed the config.
func (c *Cache) UpdatePrice(pair string, price float64) bool {
	c.mu.RLock()
	seen := c.seenPair[pair]
	c.mu.RUnlock()
	if seen {
		return false
	}

	class := ClassifyAssetClass(pair)
	point := pointFromPrice(price, class)
	cfg := Config{Point: point, Digits: digitsFromPoint(point)}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seenPair[pair] {
		return false
	}
	c.seenPair[pair] = true
	c.configs[pair] = cfg
	return true
}

// Get returns the cached config for pair, lazily installing the
// asset-class-only default fallback config if none exists yet.
func (c *Cache) Get(pair string) Config {
	c.mu.RLock()
	cfg, ok := c.configs[pair]
	c.mu.RUnlock()
	if ok {
		return cfg
	}

	class := ClassifyAssetClass(pair)
	point := defaultPoint(pair, class)
	cfg = Config{Point: point, Digits: digitsFromPoint(point)}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.configs[pair]; ok {
		return existing
	}
	c.configs[pair] = cfg
	c.seenPair[pair] = true
	return cfg
}
