package strategy

import (
	"fmt"

	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/IvanHuYY/Stockbot/internal/utils"
)

// MeanReversionConfig holds the band and extreme thresholds.
type MeanReversionConfig struct {
	BBPeriod     int     `yaml:"bb_period" json:"bb_period" jsonschema:"title=Bollinger Period,default=20"`
	BBStd        float64 `yaml:"bb_std" json:"bb_std" jsonschema:"title=Bollinger Std Dev,default=2.0"`
	RSIEntryLow  float64 `yaml:"rsi_entry_low" json:"rsi_entry_low" jsonschema:"title=RSI Extreme Low,default=25"`
	RSIEntryHigh float64 `yaml:"rsi_entry_high" json:"rsi_entry_high" jsonschema:"title=RSI Extreme High,default=75"`
	ZScoreEntry  float64 `yaml:"z_score_entry" json:"z_score_entry" jsonschema:"title=Z-Score Entry,default=2.0"`
}

func DefaultMeanReversionConfig() MeanReversionConfig {
	return MeanReversionConfig{
		BBPeriod:     20,
		BBStd:        2.0,
		RSIEntryLow:  25,
		RSIEntryHigh: 75,
		ZScoreEntry:  2.0,
	}
}

// MeanReversion scores Bollinger Band breaches, RSI extremes and the
// z-score of the close against its moving average.
type MeanReversion struct {
	config MeanReversionConfig
}

func NewMeanReversion(config MeanReversionConfig) *MeanReversion {
	return &MeanReversion{config: config}
}

func (m *MeanReversion) Name() string {
	return NameMeanReversion
}

func (m *MeanReversion) GenerateSignals(data map[string][]types.Bar) []types.Signal {
	signals := make([]types.Signal, 0, len(data))

	for _, symbol := range sortedSymbols(data) {
		signals = append(signals, m.evaluate(symbol, data[symbol]))
	}

	return signals
}

func (m *MeanReversion) evaluate(symbol string, bars []types.Bar) types.Signal {
	if len(bars) == 0 || len(bars) < m.config.BBPeriod+5 {
		return types.NewHoldSignal(symbol, reasonInsufficientData)
	}

	bars = ensureIndicators(bars)
	last := bars[len(bars)-1]
	price := last.Close

	score := 0.0
	reasons := []string{}

	lowerColumn, _, upperColumn := types.BollingerColumns(m.config.BBPeriod, m.config.BBStd)
	lower := last.Indicator(lowerColumn)
	upper := last.Indicator(upperColumn)

	if lower.IsSome() && upper.IsSome() {
		if price < lower.Unwrap() {
			score += 0.4
			reasons = append(reasons, "Price below lower Bollinger Band (oversold)")
		} else if price > upper.Unwrap() {
			score -= 0.4
			reasons = append(reasons, "Price above upper Bollinger Band (overbought)")
		}
	}

	if rsi := last.Indicator(types.ColumnRSI14); rsi.IsSome() {
		value := rsi.Unwrap()
		if value < m.config.RSIEntryLow {
			score += 0.3
			reasons = append(reasons, fmt.Sprintf("RSI extreme low (%.0f)", value))
		} else if value > m.config.RSIEntryHigh {
			score -= 0.3
			reasons = append(reasons, fmt.Sprintf("RSI extreme high (%.0f)", value))
		}
	}

	if sma := last.Indicator(types.SMAColumn(m.config.BBPeriod)); sma.IsSome() && price > 0 {
		std := utils.SampleStd(tailCloses(bars, m.config.BBPeriod))
		if std > 0 {
			z := (price - sma.Unwrap()) / std
			if z < -m.config.ZScoreEntry {
				score += 0.3
				reasons = append(reasons, fmt.Sprintf("Z-score extremely low (%.1f)", z))
			} else if z > m.config.ZScoreEntry {
				score -= 0.3
				reasons = append(reasons, fmt.Sprintf("Z-score extremely high (%.1f)", z))
			}
		}
	}

	return scoreToSignal(symbol, score, actionThreshold, reasons, "Price near mean, no reversion signal")
}

func tailCloses(bars []types.Bar, n int) []float64 {
	start := max(0, len(bars)-n)
	values := make([]float64, 0, len(bars)-start)

	for _, bar := range bars[start:] {
		values = append(values, bar.Close)
	}

	return values
}
