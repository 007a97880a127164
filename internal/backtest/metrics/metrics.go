// Package metrics computes the performance metrics table of a backtest run.
package metrics

import (
	"math"
	"time"

	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/IvanHuYY/Stockbot/internal/utils"
	"github.com/moznion/go-optional"
)

const (
	// TradingDaysPerYear annualizes daily figures.
	TradingDaysPerYear = 252
	// DisplayCap bounds ratios that are infinite when there is nothing to divide by.
	DisplayCap = 999
	// MinBenchmarkOverlap is the number of common return dates alpha and beta need, exclusive.
	MinBenchmarkOverlap = 10
	// exposure is approximated as five holding days per exit
	daysPerTrade = 5
)

// Compute derives the metrics table from the equity curve and trade log.
// The benchmark is an optional price or equity curve used for alpha, beta and the information ratio.
// An equity curve with fewer than two points yields zero metrics.
func Compute(equity []types.EquityPoint, trades []types.TradeRecord, benchmark optional.Option[[]types.EquityPoint], riskFreeRate float64) types.Metrics {
	if len(equity) < 2 {
		return types.Metrics{}
	}

	dates, returns := dailyReturns(equity)
	dailyRiskFree := riskFreeRate / TradingDaysPerYear
	sqrtYear := math.Sqrt(TradingDaysPerYear)

	first := equity[0].Equity
	last := equity[len(equity)-1].Equity

	totalReturn := 0.0
	if first != 0 {
		totalReturn = last/first - 1
	}

	tradingDays := len(returns)
	annualizedReturn := annualize(totalReturn, tradingDays)

	dailyVol := utils.SampleStd(returns)
	annualizedVol := dailyVol * sqrtYear

	excessMean := utils.Mean(returns) - dailyRiskFree

	sharpe := 0.0
	if dailyVol > 0 {
		sharpe = excessMean / dailyVol * sqrtYear
	}

	downsideStd := downsideDeviation(returns, dailyRiskFree, dailyVol)

	sortino := 0.0
	if downsideStd > 0 {
		sortino = excessMean / downsideStd * sqrtYear
	}

	drawdown := drawdownSeries(returns)
	maxDrawdown := 0.0

	for _, dd := range drawdown {
		maxDrawdown = math.Min(maxDrawdown, dd)
	}

	calmar := 0.0
	if maxDrawdown != 0 {
		calmar = annualizedReturn / math.Abs(maxDrawdown)
	}

	tradeStats := computeTradeStats(trades)

	exposure := 0.0
	if tradingDays > 0 {
		exposure = math.Min(1.0, float64(tradeStats.count*daysPerTrade)/float64(tradingDays))
	}

	relative := benchmarkStats{}
	if benchmark.IsSome() {
		relative = computeBenchmarkStats(dates, returns, benchmark.Unwrap())
	}

	return types.Metrics{
		TotalReturn:             utils.Round(totalReturn, 6),
		AnnualizedReturn:        utils.Round(annualizedReturn, 6),
		AnnualizedVolatility:    utils.Round(annualizedVol, 6),
		SharpeRatio:             utils.Round(sharpe, 4),
		SortinoRatio:            utils.Round(sortino, 4),
		MaxDrawdown:             utils.Round(maxDrawdown, 6),
		MaxDrawdownDurationDays: maxDrawdownDuration(drawdown),
		CalmarRatio:             utils.Round(calmar, 4),
		WinRate:                 utils.Round(tradeStats.winRate, 4),
		ProfitFactor:            utils.Round(math.Min(tradeStats.profitFactor, DisplayCap), 4),
		AvgWin:                  utils.Round(tradeStats.avgWin, 2),
		AvgLoss:                 utils.Round(tradeStats.avgLoss, 2),
		AvgWinLossRatio:         utils.Round(math.Min(tradeStats.avgWinLossRatio, DisplayCap), 4),
		NumTrades:               tradeStats.count,
		ExposureTime:            utils.Round(exposure, 4),
		Alpha:                   utils.Round(relative.alpha, 6),
		Beta:                    utils.Round(relative.beta, 4),
		InformationRatio:        utils.Round(relative.informationRatio, 4),
		ProfitFactorRaw:         tradeStats.profitFactor,
		AvgWinLossRatioRaw:      tradeStats.avgWinLossRatio,
	}
}

// dailyReturns returns the simple return of every point against its predecessor, keyed by the later date.
func dailyReturns(curve []types.EquityPoint) ([]time.Time, []float64) {
	if len(curve) < 2 {
		return nil, nil
	}

	dates := make([]time.Time, 0, len(curve)-1)
	returns := make([]float64, 0, len(curve)-1)

	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity

		r := 0.0
		if prev != 0 {
			r = curve[i].Equity/prev - 1
		}

		dates = append(dates, curve[i].Date.UTC().Truncate(24*time.Hour))
		returns = append(returns, r)
	}

	return dates, returns
}

// annualize compounds the total return over tradingDays to a yearly rate.
// A total loss of the whole capital or more annualizes to -1.
func annualize(totalReturn float64, tradingDays int) float64 {
	if tradingDays <= 0 {
		return 0
	}

	growth := 1 + totalReturn
	if growth <= 0 {
		return -1
	}

	return math.Pow(growth, TradingDaysPerYear/float64(tradingDays)) - 1
}

// downsideDeviation is the sample stdev of the returns below the threshold,
// falling back to fallback when fewer than two returns qualify.
func downsideDeviation(returns []float64, threshold float64, fallback float64) float64 {
	downside := []float64{}

	for _, r := range returns {
		if r < threshold {
			downside = append(downside, r)
		}
	}

	if len(downside) < 2 {
		return fallback
	}

	return utils.SampleStd(downside)
}

// drawdownSeries compounds the returns and measures each point against the running peak.
func drawdownSeries(returns []float64) []float64 {
	drawdown := make([]float64, len(returns))
	cumulative := 1.0
	peak := math.Inf(-1)

	for i, r := range returns {
		cumulative *= 1 + r
		peak = math.Max(peak, cumulative)

		if peak != 0 {
			drawdown[i] = (cumulative - peak) / peak
		}
	}

	return drawdown
}

// maxDrawdownDuration is the longest run of consecutive negative drawdowns.
func maxDrawdownDuration(drawdown []float64) int {
	longest, current := 0, 0

	for _, dd := range drawdown {
		if dd < 0 {
			current++
			longest = max(longest, current)
		} else {
			current = 0
		}
	}

	return longest
}

type tradeStats struct {
	count           int
	winRate         float64
	avgWin          float64
	avgLoss         float64
	profitFactor    float64
	avgWinLossRatio float64
}

// computeTradeStats summarizes realized exits. Entries carry no pnl and are ignored.
func computeTradeStats(trades []types.TradeRecord) tradeStats {
	wins := []float64{}
	losses := []float64{}

	for _, trade := range trades {
		if !trade.IsExit() {
			continue
		}

		if trade.PnL > 0 {
			wins = append(wins, trade.PnL)
		} else {
			losses = append(losses, trade.PnL)
		}
	}

	stats := tradeStats{count: len(wins) + len(losses)}
	if stats.count > 0 {
		stats.winRate = float64(len(wins)) / float64(stats.count)
	}

	stats.avgWin = utils.Mean(wins)
	stats.avgLoss = utils.Mean(losses)

	stats.avgWinLossRatio = math.Inf(1)
	if stats.avgLoss != 0 {
		stats.avgWinLossRatio = math.Abs(stats.avgWin / stats.avgLoss)
	}

	grossProfit := 0.0
	for _, pnl := range wins {
		grossProfit += pnl
	}

	grossLoss := 0.0
	for _, pnl := range losses {
		grossLoss += pnl
	}

	grossLoss = math.Abs(grossLoss)

	stats.profitFactor = math.Inf(1)
	if grossLoss > 0 {
		stats.profitFactor = grossProfit / grossLoss
	}

	return stats
}

type benchmarkStats struct {
	alpha            float64
	beta             float64
	informationRatio float64
}

// computeBenchmarkStats aligns the strategy returns with the benchmark returns by date.
// Fewer than MinBenchmarkOverlap+1 common dates leave every figure at zero.
func computeBenchmarkStats(dates []time.Time, returns []float64, benchmark []types.EquityPoint) benchmarkStats {
	benchDates, benchReturns := dailyReturns(benchmark)

	byDate := make(map[time.Time]float64, len(benchDates))
	for i, date := range benchDates {
		byDate[date] = benchReturns[i]
	}

	r := []float64{}
	b := []float64{}

	for i, date := range dates {
		if bench, ok := byDate[date]; ok {
			r = append(r, returns[i])
			b = append(b, bench)
		}
	}

	if len(r) <= MinBenchmarkOverlap {
		return benchmarkStats{}
	}

	stats := benchmarkStats{}

	benchStd := utils.SampleStd(b)
	if benchVar := benchStd * benchStd; benchVar > 0 {
		stats.beta = utils.SampleCovariance(r, b) / benchVar
	}

	meanR := utils.Mean(r)
	meanB := utils.Mean(b)
	stats.alpha = (meanR - stats.beta*meanB) * TradingDaysPerYear

	active := make([]float64, len(r))
	for i := range r {
		active[i] = r[i] - b[i]
	}

	trackingError := utils.SampleStd(active) * math.Sqrt(TradingDaysPerYear)
	if trackingError > 0 {
		stats.informationRatio = (meanR - meanB) * TradingDaysPerYear / trackingError
	}

	return stats
}
