package indicator

import "github.com/IvanHuYY/Stockbot/internal/types"

// Indicator interface defines methods that any technical indicator must implement
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Columns returns the feature columns written by Compute
	Columns() []string
	// Compute writes the indicator columns onto every bar of the series in place.
	// Bars inside the warm-up window receive NaN.
	Compute(bars []types.Bar) error
	// Config configures the indicator parameters
	Config(params ...any) error
}
