package strategy

import (
	"fmt"

	"github.com/IvanHuYY/Stockbot/internal/types"
)

// MomentumConfig holds the trend-following thresholds.
type MomentumConfig struct {
	RSIOversold     float64 `yaml:"rsi_oversold" json:"rsi_oversold" jsonschema:"title=RSI Oversold,default=30"`
	RSIOverbought   float64 `yaml:"rsi_overbought" json:"rsi_overbought" jsonschema:"title=RSI Overbought,default=70"`
	SMAShort        int     `yaml:"sma_short" json:"sma_short" jsonschema:"title=Short SMA Period,default=20"`
	SMALong         int     `yaml:"sma_long" json:"sma_long" jsonschema:"title=Long SMA Period,default=50"`
	VolumeThreshold float64 `yaml:"volume_threshold" json:"volume_threshold" jsonschema:"title=Volume Ratio Threshold,default=1.5"`
}

func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		RSIOversold:     30,
		RSIOverbought:   70,
		SMAShort:        20,
		SMALong:         50,
		VolumeThreshold: 1.5,
	}
}

// Momentum is a trend-following strategy scoring RSI levels, MACD histogram
// zero-crosses, the short/long SMA relationship and volume confirmation.
type Momentum struct {
	config MomentumConfig
}

func NewMomentum(config MomentumConfig) *Momentum {
	return &Momentum{config: config}
}

func (m *Momentum) Name() string {
	return NameMomentum
}

func (m *Momentum) GenerateSignals(data map[string][]types.Bar) []types.Signal {
	signals := make([]types.Signal, 0, len(data))

	for _, symbol := range sortedSymbols(data) {
		signals = append(signals, m.evaluate(symbol, data[symbol]))
	}

	return signals
}

func (m *Momentum) evaluate(symbol string, bars []types.Bar) types.Signal {
	if len(bars) == 0 || len(bars) < m.config.SMALong {
		return types.NewHoldSignal(symbol, reasonInsufficientData)
	}

	bars = ensureIndicators(bars)
	last := bars[len(bars)-1]

	score := 0.0
	reasons := []string{}

	if rsi := last.Indicator(types.ColumnRSI14); rsi.IsSome() {
		value := rsi.Unwrap()
		if value < m.config.RSIOversold {
			score += 0.3
			reasons = append(reasons, fmt.Sprintf("RSI oversold (%.0f)", value))
		} else if value > m.config.RSIOverbought {
			score -= 0.3
			reasons = append(reasons, fmt.Sprintf("RSI overbought (%.0f)", value))
		}
	}

	if histogram := last.Indicator(types.ColumnMACDHistogram); histogram.IsSome() && len(bars) > 1 {
		prev := bars[len(bars)-2].Indicator(types.ColumnMACDHistogram)
		if prev.IsSome() {
			current, previous := histogram.Unwrap(), prev.Unwrap()
			if current > 0 && previous <= 0 {
				score += 0.3
				reasons = append(reasons, "MACD bullish crossover")
			} else if current < 0 && previous >= 0 {
				score -= 0.3
				reasons = append(reasons, "MACD bearish crossover")
			}
		}
	}

	smaShort := last.Indicator(types.SMAColumn(m.config.SMAShort))
	smaLong := last.Indicator(types.SMAColumn(m.config.SMALong))

	if smaShort.IsSome() && smaLong.IsSome() {
		if smaShort.Unwrap() > smaLong.Unwrap() {
			score += 0.2
			reasons = append(reasons, fmt.Sprintf("SMA%d > SMA%d", m.config.SMAShort, m.config.SMALong))
		} else {
			score -= 0.2
			reasons = append(reasons, fmt.Sprintf("SMA%d < SMA%d", m.config.SMAShort, m.config.SMALong))
		}
	}

	if ratio := last.Indicator(types.ColumnVolumeSMARatio); ratio.IsSome() && ratio.Unwrap() > m.config.VolumeThreshold {
		score *= 1.2
		reasons = append(reasons, fmt.Sprintf("High volume (%.1fx avg)", ratio.Unwrap()))
	}

	return scoreToSignal(symbol, score, actionThreshold, reasons, "No strong signals")
}
