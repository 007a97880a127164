package types

import (
	"fmt"
	"strconv"
)

type IndicatorType string

const (
	IndicatorTypeMA             IndicatorType = "ma"
	IndicatorTypeEMA            IndicatorType = "ema"
	IndicatorTypeRSI            IndicatorType = "rsi"
	IndicatorTypeMACD           IndicatorType = "macd"
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"
	IndicatorTypeATR            IndicatorType = "atr"
	IndicatorTypeOBV            IndicatorType = "obv"
	IndicatorTypeVolumeRatio    IndicatorType = "volume_ratio"
	IndicatorTypePriceChange    IndicatorType = "price_change"
	IndicatorTypeIntradayRange  IndicatorType = "intraday_range"
)

// Well-known indicator columns consumed by the strategies.
const (
	ColumnRSI14          = "rsi_14"
	ColumnATR14          = "atr_14"
	ColumnMACDHistogram  = "MACDh_12_26_9"
	ColumnVolumeSMARatio = "volume_sma_ratio"
	ColumnOBV            = "obv"
	ColumnIntradayRange  = "intraday_range"
)

// SMAColumn returns the column name of a simple moving average, e.g. "sma_20".
func SMAColumn(period int) string {
	return fmt.Sprintf("sma_%d", period)
}

// EMAColumn returns the column name of an exponential moving average, e.g. "ema_9".
func EMAColumn(period int) string {
	return fmt.Sprintf("ema_%d", period)
}

// RSIColumn returns the column name of an RSI series, e.g. "rsi_14".
func RSIColumn(period int) string {
	return fmt.Sprintf("rsi_%d", period)
}

// ATRColumn returns the column name of an ATR series, e.g. "atr_14".
func ATRColumn(period int) string {
	return fmt.Sprintf("atr_%d", period)
}

// MACDColumns returns the MACD line, histogram and signal column names.
func MACDColumns(fast, slow, signal int) (line, histogram, signalLine string) {
	suffix := fmt.Sprintf("%d_%d_%d", fast, slow, signal)

	return "MACD_" + suffix, "MACDh_" + suffix, "MACDs_" + suffix
}

// BollingerColumns returns the lower, middle and upper band column names, e.g. "BBL_20_2.0".
func BollingerColumns(period int, stdDev float64) (lower, middle, upper string) {
	suffix := fmt.Sprintf("%d_%s", period, strconv.FormatFloat(stdDev, 'f', 1, 64))

	return "BBL_" + suffix, "BBM_" + suffix, "BBU_" + suffix
}

// PriceChangeColumn returns the column name of an n-day percentage change, e.g. "price_change_5d".
func PriceChangeColumn(days int) string {
	return fmt.Sprintf("price_change_%dd", days)
}
