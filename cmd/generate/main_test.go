package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	engine "github.com/IvanHuYY/Stockbot/internal/backtest/engine/engine_v1"
	"github.com/IvanHuYY/Stockbot/internal/backtest/engine/engine_v1/datasource"
	"github.com/IvanHuYY/Stockbot/internal/logger"
	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type GenerateCmdTestSuite struct {
	suite.Suite
	tempDir string
}

func TestGenerateCmdSuite(t *testing.T) {
	suite.Run(t, new(GenerateCmdTestSuite))
}

func (suite *GenerateCmdTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

func (suite *GenerateCmdTestSuite) run(args ...string) (string, error) {
	var out bytes.Buffer

	cmd := newCommand()
	cmd.Writer = &out

	err := cmd.Run(context.Background(), append([]string{"generate"}, args...))

	return out.String(), err
}

func (suite *GenerateCmdTestSuite) TestSchemaGeneration() {
	configDir := filepath.Join(suite.tempDir, "config")

	out, err := suite.run("config", "--dir", configDir)
	suite.Require().NoError(err)
	suite.Contains(out, "Schema written to")

	suite.True(dirExists(configDir), "Config directory should exist")

	schemaPath := filepath.Join(configDir, schemaFileName)
	suite.True(fileExists(schemaPath), "Schema file should exist")

	schemaContent, err := os.ReadFile(schemaPath)
	suite.Require().NoError(err)
	suite.Contains(string(schemaContent), "initial_capital")
}

func (suite *GenerateCmdTestSuite) TestSampleConfigGeneration() {
	configDir := filepath.Join(suite.tempDir, "config")

	_, err := suite.run("config", "--dir", configDir)
	suite.Require().NoError(err)

	samplePath := filepath.Join(configDir, sampleConfigFileName)
	content, err := os.ReadFile(samplePath)
	suite.Require().NoError(err)
	suite.Contains(string(content), "# yaml-language-server: $schema="+schemaFileName)

	// the sample parses back into a valid config
	config := engine.EmptyConfig()
	suite.Require().NoError(yaml.Unmarshal(content, &config))
	suite.NoError(config.Validate())
	suite.Equal(engine.DefaultConfig().Symbols, config.Symbols)
}

func (suite *GenerateCmdTestSuite) TestSampleConfigNotOverwritten() {
	configDir := filepath.Join(suite.tempDir, "config")

	_, err := suite.run("config", "--dir", configDir)
	suite.Require().NoError(err)

	samplePath := filepath.Join(configDir, sampleConfigFileName)
	suite.Require().NoError(os.WriteFile(samplePath, []byte("symbols: [TSLA]\n"), 0644))

	_, err = suite.run("config", "--dir", configDir)
	suite.Require().NoError(err)

	content, err := os.ReadFile(samplePath)
	suite.Require().NoError(err)
	suite.Equal("symbols: [TSLA]\n", string(content))
}

func (suite *GenerateCmdTestSuite) TestGenerateSchemaFileInvalidPath() {
	err := generateSchemaFile(engine.DefaultConfig(), filepath.Join(suite.tempDir, "missing", "schema.json"))
	suite.Error(err)
	suite.Contains(err.Error(), "failed to")
}

func (suite *GenerateCmdTestSuite) TestValidatePaths() {
	tests := []struct {
		name       string
		schemaPath string
		samplePath string
		errMsg     string
	}{
		{"valid", "schema.json", "sample.yaml", ""},
		{"empty schema", "", "sample.yaml", "schema path cannot be empty"},
		{"empty sample", "schema.json", "", "sample config path cannot be empty"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			err := validatePaths(tt.schemaPath, tt.samplePath)
			if tt.errMsg == "" {
				suite.NoError(err)
				return
			}

			suite.EqualError(err, tt.errMsg)
		})
	}
}

func (suite *GenerateCmdTestSuite) TestValidateSchemaName() {
	suite.NoError(validateSchemaName(schemaFileName))

	err := validateSchemaName("")
	suite.EqualError(err, "schema name cannot be empty")

	err = validateSchemaName("schema.yaml")
	suite.Error(err)
	suite.Contains(err.Error(), "must have .json extension")
}

func (suite *GenerateCmdTestSuite) TestGetSchemaReference() {
	suite.Equal("# yaml-language-server: $schema=test.json\n", getSchemaReference("test.json"))
}

func (suite *GenerateCmdTestSuite) TestBarsParquet() {
	output := filepath.Join(suite.tempDir, "data", "bars.parquet")

	out, err := suite.run("bars",
		"--symbols", "msft,aapl",
		"--count", "30",
		"--start", "2024-03-01",
		"--output", output,
	)
	suite.Require().NoError(err)
	suite.Contains(out, "Wrote 60 bars for AAPL, MSFT")

	ds := datasource.NewParquetDataSource(logger.NewNopLogger())
	suite.Require().NoError(ds.Initialize(output))
	defer ds.Close()

	symbols, err := ds.GetAllSymbols()
	suite.Require().NoError(err)
	suite.Equal([]string{"AAPL", "MSFT"}, symbols)

	bars, err := ds.LoadBars([]string{"AAPL"}, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(bars["AAPL"], 30)
	suite.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), bars["AAPL"][0].Date())
}

func (suite *GenerateCmdTestSuite) TestBarsDuckDB() {
	output := filepath.Join(suite.tempDir, "bars.duckdb")

	_, err := suite.run("bars", "--symbols", "SPY", "--count", "10", "--output", output)
	suite.Require().NoError(err)

	store, err := datasource.NewBarStore(output, logger.NewNopLogger())
	suite.Require().NoError(err)
	defer store.Close()

	bars, err := store.LoadBars("SPY", datasource.TimeframeDaily, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Len(bars, 10)
}

func (suite *GenerateCmdTestSuite) TestBarsSameSeedSameData() {
	first := filepath.Join(suite.tempDir, "first.parquet")
	second := filepath.Join(suite.tempDir, "second.parquet")

	_, err := suite.run("bars", "--symbols", "AAPL", "--count", "20", "--seed", "7", "--output", first)
	suite.Require().NoError(err)
	_, err = suite.run("bars", "--symbols", "AAPL", "--count", "20", "--seed", "7", "--output", second)
	suite.Require().NoError(err)

	suite.Equal(suite.loadBars(first), suite.loadBars(second))
}

func (suite *GenerateCmdTestSuite) loadBars(path string) map[string][]types.Bar {
	ds := datasource.NewParquetDataSource(logger.NewNopLogger())
	suite.Require().NoError(ds.Initialize(path))
	defer ds.Close()

	bars, err := ds.LoadBars([]string{"AAPL"}, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)

	return bars
}

func (suite *GenerateCmdTestSuite) TestBarsInvalidInput() {
	_, err := suite.run("bars", "--symbols", "AAPL", "--output", filepath.Join(suite.tempDir, "bars.csv"))
	suite.Error(err)
	suite.Contains(err.Error(), "unsupported output format")

	_, err = suite.run("bars", "--symbols", "AAPL", "--count", "0", "--output", filepath.Join(suite.tempDir, "bars.parquet"))
	suite.Error(err)
}

func (suite *GenerateCmdTestSuite) TestSplitSymbols() {
	suite.Equal([]string{"AAPL", "MSFT"}, splitSymbols([]string{"msft, aapl", "AAPL", ""}))
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return !info.IsDir()
}
