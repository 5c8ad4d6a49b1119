package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultInitialCapital = 10000.0
	DefaultCommissionRate = 0.001
	DefaultSlippageRate   = 0.0005
	DefaultPeriodsPerYear = 252
)

type BacktestEngineV1Config struct {
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" validate:"gt=0" jsonschema:"title=Initial Capital,description=Starting capital for the backtest in USD,minimum=0,default=10000"`
	Broker         commission_fee.Broker      `yaml:"broker" json:"broker" validate:"oneof=flat_rate zero_commission" jsonschema:"title=Broker,description=The commission model used for fills"`
	CommissionRate float64                    `yaml:"commission_rate" json:"commission_rate" validate:"gte=0,lt=1" jsonschema:"title=Commission Rate,description=Commission as a fraction of notional,minimum=0,default=0.001"`
	SlippageRate   float64                    `yaml:"slippage_rate" json:"slippage_rate" validate:"gte=0,lt=1" jsonschema:"title=Slippage Rate,description=Slippage as a fraction of notional,minimum=0,default=0.0005"`
	PeriodsPerYear int                        `yaml:"periods_per_year" json:"periods_per_year" validate:"gt=0" jsonschema:"title=Periods Per Year,description=Bars per year used to annualize the Sharpe ratio,default=252"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config.
// Missing keys keep the defaults from EmptyConfig.
func (c *BacktestEngineV1Config) UnmarshalYAML(value *yaml.Node) error {
	type Config struct {
		InitialCapital *float64               `yaml:"initial_capital"`
		Broker         *commission_fee.Broker `yaml:"broker"`
		CommissionRate *float64               `yaml:"commission_rate"`
		SlippageRate   *float64               `yaml:"slippage_rate"`
		PeriodsPerYear *int                   `yaml:"periods_per_year"`
		StartTime      *time.Time             `yaml:"start_time"`
		EndTime        *time.Time             `yaml:"end_time"`
	}

	var config Config
	if err := value.Decode(&config); err != nil {
		return err
	}

	defaults := EmptyConfig()
	*c = defaults

	if config.InitialCapital != nil {
		c.InitialCapital = *config.InitialCapital
	}

	if config.Broker != nil {
		c.Broker = *config.Broker
	}

	if config.CommissionRate != nil {
		c.CommissionRate = *config.CommissionRate
	}

	if config.SlippageRate != nil {
		c.SlippageRate = *config.SlippageRate
	}

	if config.PeriodsPerYear != nil {
		c.PeriodsPerYear = *config.PeriodsPerYear
	}

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// Validate checks the field ranges and that the time window is not inverted.
func (c BacktestEngineV1Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest configuration", err)
	}

	if c.CommissionRate+c.SlippageRate >= 1 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "commission_rate %v plus slippage_rate %v must be below 1",
			c.CommissionRate, c.SlippageRate)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "end_time %s is before start_time %s",
			c.EndTime.Unwrap().Format(time.RFC3339), c.StartTime.Unwrap().Format(time.RFC3339))
	}

	return nil
}

// SimulationParams derives the simulator parameters from the configuration.
func (c BacktestEngineV1Config) SimulationParams() SimulationParams {
	return SimulationParams{
		InitialCapital: c.InitialCapital,
		CommissionRate: c.CommissionRate,
		SlippageRate:   c.SlippageRate,
		Broker:         c.Broker,
	}
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.Contains(t.String(), "commission_fee.Broker") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllBrokers,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

func TestConfig(startTime time.Time, endTime time.Time, broker commission_fee.Broker) BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital: DefaultInitialCapital,
		Broker:         broker,
		CommissionRate: DefaultCommissionRate,
		SlippageRate:   DefaultSlippageRate,
		PeriodsPerYear: DefaultPeriodsPerYear,
		StartTime:      optional.Some(startTime),
		EndTime:        optional.Some(endTime),
	}
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital: DefaultInitialCapital,
		Broker:         commission_fee.BrokerFlatRate,
		CommissionRate: DefaultCommissionRate,
		SlippageRate:   DefaultSlippageRate,
		PeriodsPerYear: DefaultPeriodsPerYear,
		StartTime:      optional.None[time.Time](),
		EndTime:        optional.None[time.Time](),
	}
}
