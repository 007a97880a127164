// Package strategy implements the rule-based signal generators used by the backtest engine.
//
// Every strategy reads the last bar of each symbol's lookback window (plus the
// indicator columns written by the feature engineer) and returns exactly one
// signal per symbol. Strategies are pure: they never see the portfolio.
package strategy

import (
	"encoding/json"
	"sort"

	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/IvanHuYY/Stockbot/pkg/errors"
	"github.com/invopop/jsonschema"
)

// Strategy turns per-symbol bar windows into trading signals.
type Strategy interface {
	// Name returns the unique identifier of the strategy.
	Name() string
	// GenerateSignals returns one signal per symbol in data, sorted by symbol.
	// Each series must be in ascending time order.
	GenerateSignals(data map[string][]types.Bar) []types.Signal
}

const (
	NameMomentum      = "momentum"
	NameMeanReversion = "mean_reversion"
	NameComposite     = "composite"
)

var (
	_ Strategy = (*Momentum)(nil)
	_ Strategy = (*MeanReversion)(nil)
	_ Strategy = (*Composite)(nil)
)

// Params groups the tunable parameters of every strategy.
type Params struct {
	Momentum      MomentumConfig      `yaml:"momentum" json:"momentum" jsonschema:"title=Momentum,description=Momentum strategy parameters"`
	MeanReversion MeanReversionConfig `yaml:"mean_reversion" json:"mean_reversion" jsonschema:"title=Mean Reversion,description=Mean reversion strategy parameters"`
	Composite     CompositeConfig     `yaml:"composite" json:"composite" jsonschema:"title=Composite,description=Composite strategy weights"`
}

// DefaultParams returns the default parameters of every strategy.
func DefaultParams() Params {
	return Params{
		Momentum:      DefaultMomentumConfig(),
		MeanReversion: DefaultMeanReversionConfig(),
		Composite:     DefaultCompositeConfig(),
	}
}

// New creates a strategy by name with default parameters.
func New(name string) (Strategy, error) {
	return NewWithParams(name, DefaultParams())
}

// NewWithParams creates a strategy by name.
func NewWithParams(name string, params Params) (Strategy, error) {
	switch name {
	case NameMomentum:
		return NewMomentum(params.Momentum), nil
	case NameMeanReversion:
		return NewMeanReversion(params.MeanReversion), nil
	case NameComposite:
		return NewComposite(params.Composite, params.Momentum, params.MeanReversion), nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unknown strategy: %s (available: %v)", name, List())
	}
}

// List returns the sorted names of all available strategies.
func List() []string {
	names := []string{NameMomentum, NameMeanReversion, NameComposite}
	sort.Strings(names)

	return names
}

// ToJSONSchema converts a struct to a JSON schema
func ToJSONSchema[T any](t T) (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	schema := r.Reflect(t)

	jsonSchemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}
