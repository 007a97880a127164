package comparison

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	engine "github.com/IvanHuYY/Stockbot/internal/backtest/engine/engine_v1"
	"github.com/IvanHuYY/Stockbot/internal/backtest/engine/engine_v1/datasource"
	"github.com/IvanHuYY/Stockbot/internal/logger"
	"github.com/IvanHuYY/Stockbot/internal/strategy"
	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/IvanHuYY/Stockbot/mocks"
	"github.com/IvanHuYY/Stockbot/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ComparisonTestSuite struct {
	suite.Suite
	comparator *StrategyComparator
}

func TestComparisonSuite(t *testing.T) {
	suite.Run(t, new(ComparisonTestSuite))
}

func (suite *ComparisonTestSuite) SetupTest() {
	suite.comparator = NewStrategyComparator()
}

func resultWithSharpe(sharpe float64, equity ...float64) engine.BacktestResult {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	curve := make([]types.EquityPoint, len(equity))

	for i, value := range equity {
		curve[i] = types.EquityPoint{Date: start.AddDate(0, 0, i), Equity: value}
	}

	return engine.BacktestResult{
		EquityCurve: curve,
		Metrics:     types.Metrics{SharpeRatio: sharpe},
	}
}

func (suite *ComparisonTestSuite) TestCompareRanksBySharpe() {
	report := suite.comparator.Compare(map[string]engine.BacktestResult{
		"momentum":       resultWithSharpe(0.8),
		"mean_reversion": resultWithSharpe(1.4),
		"composite":      resultWithSharpe(-0.2),
	})

	suite.Equal([]string{"composite", "mean_reversion", "momentum"}, report.StrategyNames)
	suite.Equal([]string{"mean_reversion", "momentum", "composite"}, report.Ranking)
	suite.Equal(1.4, report.MetricsTable["mean_reversion"].SharpeRatio)
	suite.Equal("mean_reversion", report.Best())
}

func (suite *ComparisonTestSuite) TestCompareTiesKeepNameOrder() {
	report := suite.comparator.Compare(map[string]engine.BacktestResult{
		"b": resultWithSharpe(1),
		"c": resultWithSharpe(1),
		"a": resultWithSharpe(1),
	})

	suite.Equal([]string{"a", "b", "c"}, report.Ranking)
}

func (suite *ComparisonTestSuite) TestCompareEmpty() {
	report := suite.comparator.Compare(map[string]engine.BacktestResult{})

	suite.Empty(report.StrategyNames)
	suite.Empty(report.Ranking)
	suite.Equal("", report.Best())
}

func (suite *ComparisonTestSuite) TestNormalizedCurves() {
	curves := suite.comparator.NormalizedCurves(map[string]engine.BacktestResult{
		"momentum": resultWithSharpe(1, 10000, 11000, 9000),
		"empty":    resultWithSharpe(1),
	})

	suite.Require().Contains(curves, "momentum")
	suite.NotContains(curves, "empty")
	suite.InDelta(1.0, curves["momentum"][0].Equity, 1e-12)
	suite.InDelta(1.1, curves["momentum"][1].Equity, 1e-12)
	suite.InDelta(0.9, curves["momentum"][2].Equity, 1e-12)
}

type RunnerTestSuite struct {
	suite.Suite
	data map[string][]types.Bar
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}

func (suite *RunnerTestSuite) SetupSuite() {
	suite.data = mocks.GenerateYear("AAPL", "MSFT")
}

func (suite *RunnerTestSuite) baseConfig() engine.BacktestConfig {
	config := engine.TestConfig([]string{"AAPL", "MSFT"}, strategy.NameMomentum)
	config.Deterministic = false

	return config
}

func (suite *RunnerTestSuite) TestRunAllStrategies() {
	runner := NewRunner(datasource.NewInMemoryDataSource(suite.data), logger.NewNopLogger())

	var (
		mu   sync.Mutex
		done []string
	)

	runner.OnStrategyDone(func(name string, _ engine.BacktestResult) {
		mu.Lock()
		defer mu.Unlock()
		done = append(done, name)
	})

	results, err := runner.RunAll(context.Background(), suite.baseConfig(), nil)
	suite.Require().NoError(err)

	suite.Len(results, len(strategy.List()))
	suite.ElementsMatch(strategy.List(), done)

	for _, name := range strategy.List() {
		suite.Require().Contains(results, name)
		suite.Equal(name, results[name].Config.StrategyName)
		suite.Len(results[name].EquityCurve, 252)
	}

	report := NewStrategyComparator().Compare(results)
	suite.Len(report.Ranking, 3)
}

func (suite *RunnerTestSuite) TestRunAllMatchesSequentialRuns() {
	runner := NewRunner(datasource.NewInMemoryDataSource(suite.data), logger.NewNopLogger())
	base := suite.baseConfig()
	names := []string{strategy.NameMomentum, strategy.NameMeanReversion}

	parallel, err := runner.RunAll(context.Background(), base, names)
	suite.Require().NoError(err)

	for i, name := range names {
		config := base
		config.StrategyName = name
		config.Seed = base.Seed + int64(i)

		backtestEngine := engine.NewBacktestEngineV1WithLogger(logger.NewNopLogger())
		suite.Require().NoError(backtestEngine.InitializeWithConfig(config))

		sequential, err := backtestEngine.RunOnData(context.Background(), suite.data)
		suite.Require().NoError(err)
		backtestEngine.Close()

		suite.Equal(sequential.EquityCurve, parallel[name].EquityCurve, name)
		suite.Equal(sequential.Trades, parallel[name].Trades, name)
	}
}

func (suite *RunnerTestSuite) TestRunAllDeduplicatesNames() {
	runner := NewRunner(datasource.NewInMemoryDataSource(suite.data), logger.NewNopLogger())
	runner.SetConcurrency(1)

	results, err := runner.RunAll(context.Background(), suite.baseConfig(), []string{strategy.NameComposite, strategy.NameComposite})
	suite.Require().NoError(err)
	suite.Len(results, 1)
}

func (suite *RunnerTestSuite) TestRunAllUnknownStrategy() {
	runner := NewRunner(datasource.NewInMemoryDataSource(suite.data), logger.NewNopLogger())

	_, err := runner.RunAll(context.Background(), suite.baseConfig(), []string{strategy.NameMomentum, "buy_and_hold"})
	suite.Error(err)
	suite.Equal(errors.ErrCodeUnsupportedStrategy, errors.GetCode(err))
}

func (suite *RunnerTestSuite) TestRunAllDatasourceError() {
	ctrl := gomock.NewController(suite.T())
	mockDatasource := mocks.NewMockDataSource(ctrl)
	mockDatasource.EXPECT().LoadBars(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, stderrors.New("disk error"))

	runner := NewRunner(mockDatasource, logger.NewNopLogger())

	_, err := runner.RunAll(context.Background(), suite.baseConfig(), nil)
	suite.Error(err)
	suite.Equal(errors.ErrCodeDataSourceUnavailable, errors.GetCode(err))
}

func (suite *RunnerTestSuite) TestRunAllCancelled() {
	runner := NewRunner(datasource.NewInMemoryDataSource(suite.data), logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.RunAll(ctx, suite.baseConfig(), nil)
	suite.ErrorIs(err, context.Canceled)
}

func (suite *RunnerTestSuite) TestRunAllWithoutDatasource() {
	runner := NewRunner(nil, logger.NewNopLogger())

	_, err := runner.RunAll(context.Background(), suite.baseConfig(), nil)
	suite.Equal(errors.ErrCodeBacktestNoDatasource, errors.GetCode(err))
}
