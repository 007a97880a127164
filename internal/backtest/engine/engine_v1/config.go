package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/IvanHuYY/Stockbot/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/IvanHuYY/Stockbot/internal/strategy"
	"github.com/IvanHuYY/Stockbot/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"
)

// DefaultRiskFreeRate is the annual risk-free rate used by the metrics when none is configured.
const DefaultRiskFreeRate = 0.05

// BacktestConfig configures a single backtest run.
type BacktestConfig struct {
	Symbols         []string                   `yaml:"symbols" json:"symbols" jsonschema:"title=Symbols,description=Symbols the strategy may trade,minItems=1" validate:"required,min=1,dive,required"`
	StartDate       optional.Option[time.Time] `yaml:"start_date" json:"start_date" jsonschema:"title=Start Date,description=Optional first date of the backtest period" validate:"-"`
	EndDate         optional.Option[time.Time] `yaml:"end_date" json:"end_date" jsonschema:"title=End Date,description=Optional last date of the backtest period" validate:"-"`
	InitialCapital  float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting cash in USD,minimum=0" validate:"gt=0"`
	StrategyName    string                     `yaml:"strategy" json:"strategy" jsonschema:"title=Strategy,description=Name of the strategy to run,enum=momentum,enum=mean_reversion,enum=composite" validate:"required"`
	Commission      float64                    `yaml:"commission" json:"commission" jsonschema:"title=Commission,description=Flat commission charged per fill in USD,minimum=0" validate:"gte=0"`
	SlippageBps     float64                    `yaml:"slippage_bps" json:"slippage_bps" jsonschema:"title=Slippage (bps),description=Expected slippage in basis points of the open price,minimum=0" validate:"gte=0"`
	RiskPerTrade    float64                    `yaml:"risk_per_trade" json:"risk_per_trade" jsonschema:"title=Risk Per Trade,description=Fraction of cash risked on each entry,minimum=0,maximum=1" validate:"gt=0,lte=1"`
	MaxPositionPct  float64                    `yaml:"max_position_pct" json:"max_position_pct" jsonschema:"title=Max Position,description=Maximum fraction of cash allocated to one entry,minimum=0,maximum=1" validate:"gt=0,lte=1"`
	Broker          commission_fee.Broker      `yaml:"broker" json:"broker" jsonschema:"title=Broker,description=The broker to use for commission calculations" validate:"omitempty,oneof=flat interactive_broker zero_commission"`
	Seed            int64                      `yaml:"seed" json:"seed" jsonschema:"title=Seed,description=Seed of the slippage jitter random stream"`
	Deterministic   bool                       `yaml:"deterministic" json:"deterministic" jsonschema:"title=Deterministic,description=Disable slippage jitter"`
	RiskFreeRate    float64                    `yaml:"risk_free_rate" json:"risk_free_rate" jsonschema:"title=Risk Free Rate,description=Annual risk-free rate used by Sharpe and Sortino,minimum=0" validate:"gte=0"`
	BenchmarkSymbol string                     `yaml:"benchmark_symbol" json:"benchmark_symbol" jsonschema:"title=Benchmark Symbol,description=Symbol whose closes are used for alpha and beta"`
	EngineVersion   string                     `yaml:"engine_version" json:"engine_version" jsonschema:"title=Engine Version,description=Semver constraint the running engine must satisfy"`
	LogLevel        string                     `yaml:"log_level" json:"log_level" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error" validate:"omitempty,oneof=debug info warn error"`
	StrategyParams  strategy.Params            `yaml:"strategy_params" json:"strategy_params" jsonschema:"title=Strategy Parameters"`
}

// configDate is a calendar date written as YYYY-MM-DD.
type configDate struct {
	time.Time
}

func (d configDate) MarshalYAML() (interface{}, error) {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!timestamp",
		Value: d.Format(time.DateOnly),
	}, nil
}

func (d *configDate) UnmarshalYAML(value *yaml.Node) error {
	return value.Decode(&d.Time)
}

// backtestConfigYAML is the YAML form of BacktestConfig with pointer dates.
type backtestConfigYAML struct {
	Symbols         []string              `yaml:"symbols"`
	StartDate       *configDate           `yaml:"start_date,omitempty"`
	EndDate         *configDate           `yaml:"end_date,omitempty"`
	InitialCapital  float64               `yaml:"initial_capital"`
	StrategyName    string                `yaml:"strategy"`
	Commission      float64               `yaml:"commission"`
	SlippageBps     float64               `yaml:"slippage_bps"`
	RiskPerTrade    float64               `yaml:"risk_per_trade"`
	MaxPositionPct  float64               `yaml:"max_position_pct"`
	Broker          commission_fee.Broker `yaml:"broker"`
	Seed            int64                 `yaml:"seed"`
	Deterministic   bool                  `yaml:"deterministic"`
	RiskFreeRate    float64               `yaml:"risk_free_rate"`
	BenchmarkSymbol string                `yaml:"benchmark_symbol,omitempty"`
	EngineVersion   string                `yaml:"engine_version,omitempty"`
	LogLevel        string                `yaml:"log_level,omitempty"`
	StrategyParams  strategy.Params       `yaml:"strategy_params"`
}

// UnmarshalYAML fills the config from YAML, keeping the current values for absent keys.
func (c *BacktestConfig) UnmarshalYAML(value *yaml.Node) error {
	config := c.toYAML()

	if err := value.Decode(&config); err != nil {
		return err
	}

	c.Symbols = config.Symbols
	c.InitialCapital = config.InitialCapital
	c.StrategyName = config.StrategyName
	c.Commission = config.Commission
	c.SlippageBps = config.SlippageBps
	c.RiskPerTrade = config.RiskPerTrade
	c.MaxPositionPct = config.MaxPositionPct
	c.Broker = config.Broker
	c.Seed = config.Seed
	c.Deterministic = config.Deterministic
	c.RiskFreeRate = config.RiskFreeRate
	c.BenchmarkSymbol = config.BenchmarkSymbol
	c.EngineVersion = config.EngineVersion
	c.LogLevel = config.LogLevel
	c.StrategyParams = config.StrategyParams

	if config.StartDate != nil {
		c.StartDate = optional.Some(config.StartDate.UTC())
	}

	if config.EndDate != nil {
		c.EndDate = optional.Some(config.EndDate.UTC())
	}

	return nil
}

// MarshalYAML writes unset dates as absent keys.
func (c BacktestConfig) MarshalYAML() (interface{}, error) {
	return c.toYAML(), nil
}

func (c BacktestConfig) toYAML() backtestConfigYAML {
	config := backtestConfigYAML{
		Symbols:         c.Symbols,
		StartDate:       nil,
		EndDate:         nil,
		InitialCapital:  c.InitialCapital,
		StrategyName:    c.StrategyName,
		Commission:      c.Commission,
		SlippageBps:     c.SlippageBps,
		RiskPerTrade:    c.RiskPerTrade,
		MaxPositionPct:  c.MaxPositionPct,
		Broker:          c.Broker,
		Seed:            c.Seed,
		Deterministic:   c.Deterministic,
		RiskFreeRate:    c.RiskFreeRate,
		BenchmarkSymbol: c.BenchmarkSymbol,
		EngineVersion:   c.EngineVersion,
		LogLevel:        c.LogLevel,
		StrategyParams:  c.StrategyParams,
	}

	if c.StartDate.IsSome() {
		config.StartDate = &configDate{Time: c.StartDate.Unwrap()}
	}

	if c.EndDate.IsSome() {
		config.EndDate = &configDate{Time: c.EndDate.Unwrap()}
	}

	return config
}

// Validate checks field constraints and the date range.
func (c BacktestConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest config", err)
	}

	if c.StartDate.IsSome() && c.EndDate.IsSome() && c.EndDate.Unwrap().Before(c.StartDate.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "end date %s is before start date %s",
			c.EndDate.Unwrap().Format(time.DateOnly), c.StartDate.Unwrap().Format(time.DateOnly))
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestConfig
func (c *BacktestConfig) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date",
				}
			}

			if strings.Contains(t.String(), "commission_fee.Broker") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllBrokers,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestConfig
func (c *BacktestConfig) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// EmptyConfig returns a BacktestConfig with every numeric field zeroed.
func EmptyConfig() BacktestConfig {
	return BacktestConfig{
		Symbols:        []string{},
		InitialCapital: 0,
		Broker:         commission_fee.BrokerFlat,
		StartDate:      optional.None[time.Time](),
		EndDate:        optional.None[time.Time](),
		StrategyParams: strategy.DefaultParams(),
	}
}

// DefaultConfig returns the configuration used when no overrides are given.
func DefaultConfig() BacktestConfig {
	return BacktestConfig{
		Symbols:        []string{"AAPL", "MSFT", "GOOGL"},
		StartDate:      optional.Some(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		EndDate:        optional.Some(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)),
		InitialCapital: 100000,
		StrategyName:   strategy.NameMomentum,
		Commission:     0,
		SlippageBps:    5,
		RiskPerTrade:   0.02,
		MaxPositionPct: 0.10,
		Broker:         commission_fee.BrokerFlat,
		Seed:           42,
		RiskFreeRate:   DefaultRiskFreeRate,
		LogLevel:       "info",
		StrategyParams: strategy.DefaultParams(),
	}
}

// TestConfig returns a small deterministic configuration for tests.
func TestConfig(symbols []string, strategyName string) BacktestConfig {
	config := DefaultConfig()
	config.Symbols = symbols
	config.StrategyName = strategyName
	config.StartDate = optional.None[time.Time]()
	config.EndDate = optional.None[time.Time]()
	config.InitialCapital = 10000
	config.Deterministic = true

	return config
}
