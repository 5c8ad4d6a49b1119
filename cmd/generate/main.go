package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/pkg/utils"
	"gopkg.in/yaml.v3"
)

const (
	configDir        = "./config"
	schemaName       = "backtest-engine-v1-config.json"
	sampleConfigName = "backtest-engine-v1-config.yaml"
	strategiesDir    = "strategies"
)

// sampleConfig mirrors the YAML keys of the engine config without the optional time window.
type sampleConfig struct {
	InitialCapital float64 `yaml:"initial_capital"`
	Broker         string  `yaml:"broker"`
	CommissionRate float64 `yaml:"commission_rate"`
	SlippageRate   float64 `yaml:"slippage_rate"`
	PeriodsPerYear int     `yaml:"periods_per_year"`
}

func main() {
	config := engine.EmptyConfig()

	schemaPath := filepath.Join(configDir, schemaName)
	sampleConfigPath := filepath.Join(configDir, sampleConfigName)

	if err := validatePaths(schemaPath, sampleConfigPath); err != nil {
		log.Fatalf("Invalid paths: %v", err)
	}

	if err := generateSchemaFile(config, schemaPath); err != nil {
		log.Fatalf("Failed to generate schema: %v", err)
	}

	if err := generateSampleConfig(config, sampleConfigPath, schemaName); err != nil {
		log.Fatalf("Failed to generate sample config: %v", err)
	}

	if err := generateStrategyFiles(strategy.NewDefaultRegistry(), filepath.Join(configDir, strategiesDir)); err != nil {
		log.Fatalf("Failed to generate strategy files: %v", err)
	}

	log.Printf("Schema successfully generated at %s", schemaPath)
}

func validatePaths(schemaPath, sampleConfigPath string) error {
	if schemaPath == "" {
		return errors.New("schema path cannot be empty")
	}

	if sampleConfigPath == "" {
		return errors.New("sample config path cannot be empty")
	}

	return nil
}

func validateSchemaName(name string) error {
	if name == "" {
		return errors.New("schema name cannot be empty")
	}

	if filepath.Ext(name) != ".json" {
		return fmt.Errorf("schema name %s must have .json extension", name)
	}

	return nil
}

func getSchemaReference(name string) string {
	return "# yaml-language-server: $schema=" + name + "\n"
}

func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func generateSchemaFile(config engine.BacktestEngineV1Config, schemaPath string) error {
	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	return writeFile(schemaPath, []byte(schemaJSON))
}

// generateSampleConfig writes the default config with a schema reference. An existing
// file is left untouched.
func generateSampleConfig(config engine.BacktestEngineV1Config, samplePath, schemaName string) error {
	if err := validateSchemaName(schemaName); err != nil {
		return err
	}

	if _, err := os.Stat(samplePath); err == nil {
		return nil
	}

	yamlBytes, err := yaml.Marshal(sampleConfig{
		InitialCapital: config.InitialCapital,
		Broker:         string(config.Broker),
		CommissionRate: config.CommissionRate,
		SlippageRate:   config.SlippageRate,
		PeriodsPerYear: config.PeriodsPerYear,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	if err := writeFile(samplePath, append([]byte(getSchemaReference(schemaName)), yamlBytes...)); err != nil {
		return err
	}

	log.Printf("Sample config successfully generated at %s", samplePath)

	return nil
}

// generateStrategyFiles writes <id>.json (parameter schema) and <id>.yaml (defaults)
// for every registered strategy. Existing YAML files are kept.
func generateStrategyFiles(registry strategy.Registry, dir string) error {
	for _, def := range registry.List() {
		schema, err := registry.Schema(def.ID)
		if err != nil {
			return fmt.Errorf("failed to generate %s schema: %w", def.ID, err)
		}

		name := strings.ToLower(def.ID) + ".json"
		if err := writeFile(filepath.Join(dir, name), []byte(schema)); err != nil {
			return err
		}

		paramsPath := filepath.Join(dir, strings.ToLower(def.ID)+".yaml")
		if _, err := os.Stat(paramsPath); err == nil {
			continue
		}

		params, err := utils.ToParamMap(def.DefaultParams())
		if err != nil {
			return fmt.Errorf("failed to encode %s defaults: %w", def.ID, err)
		}

		yamlBytes, err := yaml.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to marshal %s defaults: %w", def.ID, err)
		}

		if err := writeFile(paramsPath, append([]byte(getSchemaReference(name)), yamlBytes...)); err != nil {
			return err
		}
	}

	return nil
}
