package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// DataGenerator generates realistic bar series for testing and benchmarking.
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

// GeneratorConfig configures how bars are generated.
type GeneratorConfig struct {
	// Symbol is the trading symbol (e.g., "AAPL", "SPY")
	Symbol string
	// StartTime is the beginning of the data series
	StartTime time.Time
	// Interval is the duration between each bar
	Interval time.Duration
	// Count is the number of bars to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% typical daily volatility)
	Volatility float64
	// Trend is the drift factor (-0.01 to 0.01 for bearish to bullish)
	Trend float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultConfig returns a sensible default configuration of daily bars.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "TEST",
		StartTime:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:       24 * time.Hour,
		Count:          500,
		InitialPrice:   100.0,
		Volatility:     0.015,
		Trend:          0.0,
		VolumeBase:     10000,
		VolumeVariance: 0.3,
	}
}

func (g *DataGenerator) normal() float64 {
	// Box-Muller transform
	u1 := g.rng.Float64()
	for u1 == 0 {
		u1 = g.rng.Float64()
	}

	u2 := g.rng.Float64()

	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// bar builds a consistent OHLCV bar around an open and close.
func (g *DataGenerator) bar(config GeneratorConfig, t time.Time, open, close float64) types.Bar {
	highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
	lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

	high := math.Max(open, close) + highExtension

	low := math.Min(open, close) - lowExtension
	if low <= 0 {
		low = math.Min(open, close) * 0.99
	}

	volume := config.VolumeBase * (1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance)
	if volume < 0 {
		volume = config.VolumeBase * 0.1
	}

	return types.Bar{
		Symbol: config.Symbol,
		Time:   t,
		Open:   roundToDecimals(open, 4),
		High:   roundToDecimals(high, 4),
		Low:    roundToDecimals(low, 4),
		Close:  roundToDecimals(close, 4),
		Volume: roundToDecimals(volume, 2),
	}
}

// Generate creates a bar series following geometric Brownian motion.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Bar {
	bars := make([]types.Bar, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		drift := config.Trend / float64(config.Count)

		close := open * (1 + config.Volatility*g.normal() + drift)
		if close <= 0 {
			close = open * 0.99
		}

		bars[i] = g.bar(config, currentTime, open, close)

		currentPrice = bars[i].Close
		currentTime = currentTime.Add(config.Interval)
	}

	return bars
}

// GeneratePair creates two cointegrated series. B follows geometric Brownian motion
// and A tracks hedgeRatio*B plus a mean-reverting (Ornstein-Uhlenbeck) residual,
// so the spread A - hedgeRatio*B oscillates around offset.
func (g *DataGenerator) GeneratePair(symbolA, symbolB string, config GeneratorConfig, hedgeRatio, offset float64) ([]types.Bar, []types.Bar) {
	configB := config
	configB.Symbol = symbolB
	barsB := g.Generate(configB)

	configA := config
	configA.Symbol = symbolA

	barsA := make([]types.Bar, len(barsB))
	residual := 0.0
	prevClose := hedgeRatio*config.InitialPrice + offset
	sigma := config.Volatility * config.InitialPrice

	for i, b := range barsB {
		// theta 0.2 pulls the residual back towards zero
		residual += -0.2*residual + sigma*g.normal()

		close := hedgeRatio*b.Close + offset + residual
		if close <= 0 {
			close = prevClose * 0.99
		}

		barsA[i] = g.bar(configA, b.Time, prevClose, close)
		prevClose = barsA[i].Close
	}

	return barsA, barsB
}

// GenerateMultiSymbol generates independent series for several symbols on the same timestamps.
func (g *DataGenerator) GenerateMultiSymbol(symbols []string, baseConfig GeneratorConfig) map[string][]types.Bar {
	all := make(map[string][]types.Bar, len(symbols))

	for _, symbol := range symbols {
		config := baseConfig
		config.Symbol = symbol
		// Vary initial price and volatility slightly per symbol
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		all[symbol] = g.Generate(config)
	}

	return all
}

// Signals returns n random signals. activity is the probability that a row is not hold.
func (g *DataGenerator) Signals(n int, activity float64) []types.Signal {
	signals := make([]types.Signal, n)

	for i := range signals {
		if g.rng.Float64() >= activity {
			continue
		}

		if g.rng.Intn(2) == 0 {
			signals[i] = types.SignalBuy
		} else {
			signals[i] = types.SignalSell
		}
	}

	return signals
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
