package strategy

import (
	"github.com/IvanHuYY/Stockbot/internal/types"
)

// CompositeConfig holds the blend weights of the composite strategy.
type CompositeConfig struct {
	MomentumWeight      float64 `yaml:"momentum_weight" json:"momentum_weight" jsonschema:"title=Momentum Weight,default=0.6"`
	MeanReversionWeight float64 `yaml:"mean_reversion_weight" json:"mean_reversion_weight" jsonschema:"title=Mean Reversion Weight,default=0.4"`
}

func DefaultCompositeConfig() CompositeConfig {
	return CompositeConfig{
		MomentumWeight:      0.6,
		MeanReversionWeight: 0.4,
	}
}

// Composite blends the signed scores of a Momentum and a MeanReversion strategy.
type Composite struct {
	config        CompositeConfig
	momentum      *Momentum
	meanReversion *MeanReversion
}

func NewComposite(config CompositeConfig, momentum MomentumConfig, meanReversion MeanReversionConfig) *Composite {
	return &Composite{
		config:        config,
		momentum:      NewMomentum(momentum),
		meanReversion: NewMeanReversion(meanReversion),
	}
}

func (c *Composite) Name() string {
	return NameComposite
}

func (c *Composite) GenerateSignals(data map[string][]types.Bar) []types.Signal {
	momentumSignals := bySymbol(c.momentum.GenerateSignals(data))
	meanReversionSignals := bySymbol(c.meanReversion.GenerateSignals(data))

	signals := make([]types.Signal, 0, len(data))

	for _, symbol := range sortedSymbols(data) {
		mom, hasMomentum := momentumSignals[symbol]
		mr, hasMeanReversion := meanReversionSignals[symbol]

		if !hasMomentum && !hasMeanReversion {
			signals = append(signals, types.NewHoldSignal(symbol, "No data"))

			continue
		}

		reasons := []string{}

		var momentumScore, meanReversionScore float64

		if hasMomentum {
			momentumScore = mom.Score()
			if mom.Action != types.SignalActionHold {
				reasons = append(reasons, "Momentum: "+mom.Reason)
			}
		}

		if hasMeanReversion {
			meanReversionScore = mr.Score()
			if mr.Action != types.SignalActionHold {
				reasons = append(reasons, "MeanRev: "+mr.Reason)
			}
		}

		combined := momentumScore*c.config.MomentumWeight + meanReversionScore*c.config.MeanReversionWeight
		signals = append(signals, scoreToSignal(symbol, combined, actionThreshold, reasons, "Signals balanced, holding"))
	}

	return signals
}

func bySymbol(signals []types.Signal) map[string]types.Signal {
	indexed := make(map[string]types.Signal, len(signals))
	for _, signal := range signals {
		indexed[signal.Symbol] = signal
	}

	return indexed
}
