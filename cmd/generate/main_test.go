package main

import (
	"os"
	"path/filepath"
	"testing"

	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type GenerateCmdTestSuite struct {
	suite.Suite
	tempDir string
	prevDir string
}

func (suite *GenerateCmdTestSuite) SetupTest() {
	prevDir, err := os.Getwd()
	suite.Require().NoError(err)
	suite.prevDir = prevDir

	tempDir, err := os.MkdirTemp("", "generate-cmd-test")
	suite.Require().NoError(err)
	suite.tempDir = tempDir

	suite.Require().NoError(os.Chdir(tempDir))
}

func (suite *GenerateCmdTestSuite) TearDownTest() {
	suite.Require().NoError(os.Chdir(suite.prevDir))
	suite.Require().NoError(os.RemoveAll(suite.tempDir))
}

func (suite *GenerateCmdTestSuite) TestMainGeneratesAllFiles() {
	main()

	configDir := filepath.Join(suite.tempDir, "config")
	suite.True(dirExists(configDir))
	suite.True(fileExists(filepath.Join(configDir, schemaName)))
	suite.True(fileExists(filepath.Join(configDir, sampleConfigName)))

	for _, def := range strategy.NewDefaultRegistry().List() {
		suite.True(fileExists(filepath.Join(configDir, strategiesDir, def.ID+".json")), def.ID)
		suite.True(fileExists(filepath.Join(configDir, strategiesDir, def.ID+".yaml")), def.ID)
	}
}

func (suite *GenerateCmdTestSuite) TestSampleConfigRoundTripsThroughEngine() {
	samplePath := filepath.Join(suite.tempDir, "sample.yaml")
	suite.Require().NoError(generateSampleConfig(engine.EmptyConfig(), samplePath, "schema.json"))

	content, err := os.ReadFile(samplePath)
	suite.Require().NoError(err)
	suite.Contains(string(content), "# yaml-language-server: $schema=schema.json")
	suite.Contains(string(content), "initial_capital: 10000")

	var cfg engine.BacktestEngineV1Config
	suite.Require().NoError(yaml.Unmarshal(content, &cfg))
	suite.NoError(cfg.Validate())
	suite.Equal(engine.EmptyConfig().CommissionRate, cfg.CommissionRate)
}

func (suite *GenerateCmdTestSuite) TestSampleConfigNotOverwritten() {
	samplePath := filepath.Join(suite.tempDir, "existing-config.yaml")
	suite.Require().NoError(os.WriteFile(samplePath, []byte("existing content"), 0644))

	suite.Require().NoError(generateSampleConfig(engine.EmptyConfig(), samplePath, "schema.json"))

	content, err := os.ReadFile(samplePath)
	suite.Require().NoError(err)
	suite.Equal("existing content", string(content))
}

func (suite *GenerateCmdTestSuite) TestStrategyDefaultsFile() {
	dir := filepath.Join(suite.tempDir, "strategies")
	suite.Require().NoError(generateStrategyFiles(strategy.NewDefaultRegistry(), dir))

	content, err := os.ReadFile(filepath.Join(dir, strategy.PairTradingID+".yaml"))
	suite.Require().NoError(err)
	suite.Contains(string(content), "$schema=pair_trading.json")

	var params map[string]any
	suite.Require().NoError(yaml.Unmarshal(content, &params))
	suite.Equal(20, params["window"])
	suite.Equal(0.5, params["exit_threshold"])

	schema, err := os.ReadFile(filepath.Join(dir, strategy.PairTradingID+".json"))
	suite.Require().NoError(err)
	suite.Contains(string(schema), "entry_threshold")
}

func (suite *GenerateCmdTestSuite) TestGenerateSchemaFileUnwritableDir() {
	blocker := filepath.Join(suite.tempDir, "blocker")
	suite.Require().NoError(os.WriteFile(blocker, []byte("x"), 0644))

	err := generateSchemaFile(engine.EmptyConfig(), filepath.Join(blocker, "schema.json"))
	suite.Error(err)
	suite.Contains(err.Error(), "failed to")
}

func (suite *GenerateCmdTestSuite) TestValidatePaths() {
	suite.NoError(validatePaths("/some/path/schema.json", "/some/path/config.yaml"))

	err := validatePaths("", "/some/path/config.yaml")
	suite.ErrorContains(err, "schema path cannot be empty")

	err = validatePaths("/some/path/schema.json", "")
	suite.ErrorContains(err, "sample config path cannot be empty")
}

func (suite *GenerateCmdTestSuite) TestValidateSchemaName() {
	suite.NoError(validateSchemaName("my-schema-file.json"))
	suite.ErrorContains(validateSchemaName(""), "schema name cannot be empty")
	suite.ErrorContains(validateSchemaName("schema.txt"), "must have .json extension")
	suite.Error(validateSchemaName("schema"))
}

func (suite *GenerateCmdTestSuite) TestGetSchemaReference() {
	suite.Equal("# yaml-language-server: $schema=test-schema.json\n", getSchemaReference("test-schema.json"))
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func TestGenerateCmdSuite(t *testing.T) {
	suite.Run(t, new(GenerateCmdTestSuite))
}
