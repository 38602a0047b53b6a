package risk

import (
	"strings"

	"wallet-analytics/internal/domain"
)

// sectorMembers is the static symbol taxonomy. Unlisted symbols are SectorOther.
var sectorMembers = map[domain.Sector][]string{
	domain.SectorLayer1: {
		"BTC", "WBTC", "ETH", "WETH", "SOL", "WSOL", "AVAX", "ADA", "DOT",
		"NEAR", "ATOM", "SUI", "APT", "BNB", "TRX", "TON", "MATIC", "POL",
	},
	domain.SectorDeFi: {
		"UNI", "AAVE", "MKR", "CRV", "COMP", "SUSHI", "LDO", "RAY", "ORCA",
		"JUP", "DRIFT", "MNDE", "KMNO", "JLP", "MSOL", "JITOSOL", "BSOL",
	},
	domain.SectorStablecoin: {
		"USDC", "USDT", "DAI", "PYUSD", "USDE", "FDUSD", "TUSD", "USDS", "UXD",
	},
	domain.SectorMeme: {
		"DOGE", "SHIB", "PEPE", "FLOKI", "BONK", "WIF", "POPCAT", "MEW", "BOME",
	},
	domain.SectorInfrastructure: {
		"LINK", "PYTH", "RENDER", "RNDR", "HNT", "GRT", "FIL", "AR", "JTO", "W",
	},
}

var symbolSector = func() map[string]domain.Sector {
	m := make(map[string]domain.Sector)
	for sector, symbols := range sectorMembers {
		for _, s := range symbols {
			m[s] = sector
		}
	}
	return m
}()

// SectorOf maps a symbol to its sector.
func SectorOf(symbol string) domain.Sector {
	if s, ok := symbolSector[strings.ToUpper(strings.TrimSpace(symbol))]; ok {
		return s
	}
	return domain.SectorOther
}

// IsStablecoin reports whether the symbol is in the stablecoin sector.
func IsStablecoin(symbol string) bool {
	return SectorOf(symbol) == domain.SectorStablecoin
}

// SectorAllocation returns the percentage of total USD value held per sector.
// Sectors with no holdings are omitted. Empty or zero-value input yields an empty map.
func SectorAllocation(holdings []domain.Holding) map[domain.Sector]float64 {
	alloc := make(map[domain.Sector]float64)
	total := domain.TotalValue(holdings)
	if total <= 0 {
		return alloc
	}
	for _, h := range holdings {
		if h.ValueUSD <= 0 {
			continue
		}
		alloc[SectorOf(h.Symbol)] += h.ValueUSD / total * 100
	}
	return alloc
}
