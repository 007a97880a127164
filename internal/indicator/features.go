package indicator

import (
	"fmt"

	"github.com/IvanHuYY/Stockbot/internal/types"
)

// NewDefaultRegistry returns a registry with every feature column the strategies and engine consume.
func NewDefaultRegistry() IndicatorRegistry {
	registry := NewIndicatorRegistry()

	defaults := []Indicator{
		NewMA(20),
		NewMA(50),
		NewMA(200),
		NewEMA(9),
		NewEMA(21),
		NewRSI(14),
		NewRSI(7),
		NewMACD(),
		NewBollingerBands(),
		NewATR(14),
		NewOBV(),
		NewPriceChange(1),
		NewPriceChange(5),
		NewPriceChange(20),
		NewVolumeRatio(20),
		NewIntradayRange(),
	}

	for _, indicator := range defaults {
		// columns are distinct by construction
		_ = registry.RegisterIndicator(indicator)
	}

	return registry
}

// FeatureEngineer appends indicator columns onto bar series.
type FeatureEngineer struct {
	registry IndicatorRegistry
}

// NewFeatureEngineer creates a feature engineer backed by the given registry.
// A nil registry means NewDefaultRegistry().
func NewFeatureEngineer(registry IndicatorRegistry) *FeatureEngineer {
	if registry == nil {
		registry = NewDefaultRegistry()
	}

	return &FeatureEngineer{registry: registry}
}

// ComputeAll returns a copy of the bars with every registered indicator column written.
// The input must be a single symbol's series in ascending time order.
// Series with fewer than 2 bars are returned unchanged.
func (f *FeatureEngineer) ComputeAll(bars []types.Bar) ([]types.Bar, error) {
	out := make([]types.Bar, len(bars))
	for i, bar := range bars {
		out[i] = bar.Clone()
	}

	if len(out) < 2 {
		return out, nil
	}

	for _, indicator := range f.registry.ListIndicators() {
		if err := indicator.Compute(out); err != nil {
			return nil, fmt.Errorf("failed to compute %s: %w", indicator.Name(), err)
		}
	}

	return out, nil
}

// ComputeBySymbol runs ComputeAll over every symbol's series.
func (f *FeatureEngineer) ComputeBySymbol(data map[string][]types.Bar) (map[string][]types.Bar, error) {
	result := make(map[string][]types.Bar, len(data))

	for symbol, bars := range data {
		enriched, err := f.ComputeAll(bars)
		if err != nil {
			return nil, fmt.Errorf("failed to compute features for %s: %w", symbol, err)
		}

		result[symbol] = enriched
	}

	return result, nil
}
