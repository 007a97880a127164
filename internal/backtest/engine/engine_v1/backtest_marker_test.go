package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/IvanHuYY/Stockbot/internal/logger"
	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/stretchr/testify/suite"
)

// BacktestMarkerTestSuite is a test suite for BacktestMarker
type BacktestMarkerTestSuite struct {
	suite.Suite
	marker  *BacktestMarker
	logger  *logger.Logger
	tempDir string
}

// SetupSuite runs once before all tests in the suite
func (suite *BacktestMarkerTestSuite) SetupSuite() {
	suite.logger = logger.NewNopLogger()

	tempDir, err := os.MkdirTemp("", "backtest-marker-test")
	suite.Require().NoError(err)
	suite.tempDir = tempDir
}

// TearDownSuite runs once after all tests in the suite
func (suite *BacktestMarkerTestSuite) TearDownSuite() {
	os.RemoveAll(suite.tempDir)
}

// SetupTest runs before each test
func (suite *BacktestMarkerTestSuite) SetupTest() {
	marker, err := NewBacktestMarker(suite.logger)
	suite.Require().NoError(err)
	suite.marker = marker
}

// TearDownTest runs after each test
func (suite *BacktestMarkerTestSuite) TearDownTest() {
	if suite.marker != nil {
		suite.marker.Close()
	}
}

func TestBacktestMarkerSuite(t *testing.T) {
	suite.Run(t, new(BacktestMarkerTestSuite))
}

func (suite *BacktestMarkerTestSuite) TestMarkAndGetMarks() {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	signal := types.Signal{
		Symbol:   "AAPL",
		Action:   types.SignalActionBuy,
		Strength: 0.6,
		Reason:   "RSI oversold (28)",
	}

	suite.Require().NoError(suite.marker.Mark(date, signal))

	marks, err := suite.marker.GetMarks()
	suite.Require().NoError(err)
	suite.Require().Len(marks, 1)

	suite.Equal(types.SignalLogEntry{
		Date:     date,
		Symbol:   "AAPL",
		Action:   types.SignalActionBuy,
		Strength: 0.6,
		Reason:   "RSI oversold (28)",
	}, marks[0])
}

func (suite *BacktestMarkerTestSuite) TestMarksKeepInsertionOrder() {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	suite.Require().NoError(suite.marker.Mark(date.AddDate(0, 0, 5), types.NewHoldSignal("MSFT", "No strong signals")))
	suite.Require().NoError(suite.marker.Mark(date, types.NewHoldSignal("AAPL", "Insufficient data")))

	marks, err := suite.marker.GetMarks()
	suite.Require().NoError(err)
	suite.Require().Len(marks, 2)
	suite.Equal("MSFT", marks[0].Symbol)
	suite.Equal("AAPL", marks[1].Symbol)
	suite.Equal(types.SignalActionHold, marks[1].Action)
}

func (suite *BacktestMarkerTestSuite) TestCleanup() {
	suite.Require().NoError(suite.marker.Mark(time.Now(), types.NewHoldSignal("AAPL", "No data")))
	suite.Require().NoError(suite.marker.Cleanup())

	marks, err := suite.marker.GetMarks()
	suite.Require().NoError(err)
	suite.Empty(marks)
}

func (suite *BacktestMarkerTestSuite) TestWrite() {
	suite.Require().NoError(suite.marker.Mark(time.Now(), types.NewHoldSignal("AAPL", "No data")))

	outputPath := filepath.Join(suite.tempDir, "test-signals")
	suite.Require().NoError(suite.marker.Write(outputPath))

	_, err := os.Stat(filepath.Join(outputPath, SignalsFileName))
	suite.NoError(err)
}

func (suite *BacktestMarkerTestSuite) TestNilMarker() {
	var marker *BacktestMarker

	suite.Error(marker.Mark(time.Now(), types.Signal{}))
	suite.NoError(marker.Close())

	_, err := marker.GetMarks()
	suite.Error(err)
}
