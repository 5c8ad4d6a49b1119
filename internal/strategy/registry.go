// Package strategy holds the built-in signal providers and the registry that
// resolves a strategy id plus user parameters into an engine signal source.
package strategy

import (
	"sort"
	"sync"

	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/utils"
)

// Kind tells whether a strategy trades one symbol or a group of symbols.
type Kind string

const (
	KindSingle Kind = "single"
	KindMulti  Kind = "multi"
)

// Params is a strategy parameter struct. Validate runs the tag and cross-field checks.
type Params interface {
	Validate() error
}

// Definition describes a registered strategy.
type Definition struct {
	ID          string
	Name        string
	Description string
	Kind        Kind
	// Symbols is the exact number of symbols a multi-symbol strategy trades.
	Symbols int
	// EngineConstraint is an optional semver range checked by the engine before a run.
	EngineConstraint string
	// DefaultParams returns a fresh pointer to the parameter struct filled with defaults.
	DefaultParams func() Params
	// NewSingle builds the provider of a KindSingle strategy.
	NewSingle func(params Params, info types.StrategyInfo) engine.SingleSymbolStrategy
	// NewMulti builds the provider of a KindMulti strategy.
	NewMulti func(params Params, info types.StrategyInfo) engine.MultiSymbolStrategy
}

// Registry manages the available strategies.
type Registry interface {
	Register(def Definition) error
	Get(id string) (Definition, error)
	// List returns the definitions sorted by id.
	List() []Definition
	Remove(id string) error
	// Build merges params over the strategy defaults, validates them and wraps the
	// provider in the signal source matching its kind.
	Build(id string, params map[string]any, symbols []string) (engine.SignalSource, error)
	// Schema returns the JSON schema of the strategy parameters.
	Schema(id string) (string, error)
}

// RegistryV1 is a concurrency-safe in-memory registry.
type RegistryV1 struct {
	definitions map[string]Definition
	mu          sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() Registry {
	return &RegistryV1{
		definitions: make(map[string]Definition),
		mu:          sync.RWMutex{},
	}
}

// NewDefaultRegistry creates a registry holding every built-in strategy.
func NewDefaultRegistry() Registry {
	r := NewRegistry()

	for _, def := range []Definition{
		MACrossoverDefinition(),
		RSIDefinition(),
		MACDDefinition(),
		BollingerBandsDefinition(),
		MeanReversionDefinition(),
		MultiIndicatorDefinition(),
		PairTradingDefinition(),
	} {
		// ids are distinct constants
		_ = r.Register(def)
	}

	return r
}

// Register adds a strategy to the registry.
func (r *RegistryV1) Register(def Definition) error {
	if def.ID == "" {
		return errors.New(errors.ErrCodeStrategyConfigError, "strategy id must not be empty")
	}

	if def.DefaultParams == nil {
		return errors.Newf(errors.ErrCodeStrategyConfigError, "strategy %s has no default parameters", def.ID)
	}

	switch def.Kind {
	case KindSingle:
		if def.NewSingle == nil {
			return errors.Newf(errors.ErrCodeStrategyConfigError, "single-symbol strategy %s has no constructor", def.ID)
		}
	case KindMulti:
		if def.NewMulti == nil {
			return errors.Newf(errors.ErrCodeStrategyConfigError, "multi-symbol strategy %s has no constructor", def.ID)
		}
	default:
		return errors.Newf(errors.ErrCodeStrategyConfigError, "strategy %s has unknown kind %q", def.ID, def.Kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[def.ID]; exists {
		return errors.Newf(errors.ErrCodeStrategyAlreadyExists, "strategy with id %s already registered", def.ID)
	}

	r.definitions[def.ID] = def

	return nil
}

// Get retrieves a strategy by id.
func (r *RegistryV1) Get(id string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, exists := r.definitions[id]
	if !exists {
		return Definition{}, errors.Newf(errors.ErrCodeStrategyNotFound, "strategy with id %s not found", id)
	}

	return def, nil
}

func (r *RegistryV1) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.definitions))
	for _, def := range r.definitions {
		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })

	return defs
}

// Remove removes a strategy from the registry.
func (r *RegistryV1) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[id]; !exists {
		return errors.Newf(errors.ErrCodeStrategyNotFound, "strategy with id %s not found", id)
	}

	delete(r.definitions, id)

	return nil
}

func (r *RegistryV1) Build(id string, params map[string]any, symbols []string) (engine.SignalSource, error) {
	def, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	merged, err := ResolveParams(def, params)
	if err != nil {
		return nil, err
	}

	paramMap, err := utils.ToParamMap(merged)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "failed to encode %s parameters", id)
	}

	info := types.StrategyInfo{
		ID:               def.ID,
		Name:             def.Name,
		Params:           paramMap,
		EngineConstraint: def.EngineConstraint,
	}

	switch def.Kind {
	case KindSingle:
		if len(symbols) != 1 || symbols[0] == "" {
			return nil, errors.Newf(errors.ErrCodeInvalidSymbols, "strategy %s trades exactly one symbol, got %v", id, symbols)
		}

		return engine.SingleSource{Symbol: symbols[0], Strategy: def.NewSingle(merged, info)}, nil
	default:
		if err := checkSymbols(id, symbols, def.Symbols); err != nil {
			return nil, err
		}

		return engine.PairedSource{Symbols: append([]string(nil), symbols...), Strategy: def.NewMulti(merged, info)}, nil
	}
}

func (r *RegistryV1) Schema(id string) (string, error) {
	def, err := r.Get(id)
	if err != nil {
		return "", err
	}

	return utils.GetSchemaFromConfig(def.DefaultParams())
}

// ResolveParams overlays params on the defaults of def and validates the result.
func ResolveParams(def Definition, params map[string]any) (Params, error) {
	merged := def.DefaultParams()

	if err := utils.DecodeParams(params, merged); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "failed to decode %s parameters", def.ID)
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}

	return merged, nil
}

func checkSymbols(id string, symbols []string, want int) error {
	if want > 0 && len(symbols) != want {
		return errors.Newf(errors.ErrCodeInvalidSymbols, "strategy %s trades exactly %d symbols, got %d", id, want, len(symbols))
	}

	seen := make(map[string]struct{}, len(symbols))

	for _, s := range symbols {
		if s == "" {
			return errors.Newf(errors.ErrCodeInvalidSymbols, "strategy %s got an empty symbol", id)
		}

		if _, dup := seen[s]; dup {
			return errors.Newf(errors.ErrCodeInvalidSymbols, "strategy %s got duplicate symbol %s", id, s)
		}

		seen[s] = struct{}{}
	}

	return nil
}
