package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/IvanHuYY/Stockbot/internal/utils"
)

// DataGenerator generates daily bars for tests and offline backtests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how daily bars are generated.
type GeneratorConfig struct {
	// Symbol is the ticker (e.g., "AAPL", "SPY")
	Symbol string
	// StartDate is the first trading day. Weekend dates roll forward to Monday.
	StartDate time.Time
	// Count is the number of trading days to generate
	Count int
	// InitialPrice is the first open
	InitialPrice float64
	// Volatility is the daily standard deviation of returns (0.02 = 2%)
	Volatility float64
	// Drift is the mean daily return (0.0005 is roughly 13% a year)
	Drift float64
	// VolumeBase is the average daily volume
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultConfig returns one trading year starting 2024-01-01.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "TEST",
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Count:          252,
		InitialPrice:   100.0,
		Volatility:     0.02,
		Drift:          0.0003,
		VolumeBase:     1_000_000,
		VolumeVariance: 0.3,
	}
}

// Generate creates Count daily bars on consecutive weekdays.
// Closes follow a geometric Brownian motion.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Bar {
	bars := make([]types.Bar, config.Count)
	price := config.InitialPrice
	date := nextTradingDay(config.StartDate.UTC().Truncate(24 * time.Hour))

	for i := 0; i < config.Count; i++ {
		open := price

		// Box-Muller transform
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		price = open * math.Exp(config.Drift-0.5*config.Volatility*config.Volatility+config.Volatility*z)

		highExtension := g.rng.Float64() * config.Volatility * open * 0.5
		lowExtension := g.rng.Float64() * config.Volatility * open * 0.5

		high := math.Max(open, price) + highExtension
		low := math.Min(open, price) - lowExtension
		if low <= 0 {
			low = math.Min(open, price) * 0.99
		}

		volume := config.VolumeBase * (1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance)
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		bars[i] = types.Bar{
			Symbol: config.Symbol,
			Time:   date,
			Open:   utils.Round(open, 4),
			High:   utils.Round(high, 4),
			Low:    utils.Round(low, 4),
			Close:  utils.Round(price, 4),
			Volume: math.Round(volume),
		}

		date = nextTradingDay(date.AddDate(0, 0, 1))
	}

	return bars
}

// GenerateBySymbol generates one series per symbol, keyed by symbol.
// Initial price and volatility vary slightly per symbol.
func (g *DataGenerator) GenerateBySymbol(symbols []string, baseConfig GeneratorConfig) map[string][]types.Bar {
	data := make(map[string][]types.Bar, len(symbols))

	for _, symbol := range symbols {
		config := baseConfig
		config.Symbol = symbol
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		data[symbol] = g.Generate(config)
	}

	return data
}

// GenerateYear generates one default trading year per symbol with a fixed seed.
func GenerateYear(symbols ...string) map[string][]types.Bar {
	return NewDataGenerator(42).GenerateBySymbol(symbols, DefaultConfig())
}

func nextTradingDay(date time.Time) time.Time {
	for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		date = date.AddDate(0, 0, 1)
	}

	return date
}
