package datasource

import (
	"sort"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// InMemoryDataSource holds bars in memory, indexed by symbol and sorted by time.
// It is used to snapshot a slower source before a run so that the simulators never
// touch I/O, and directly in tests.
type InMemoryDataSource struct {
	data map[string][]types.Bar
	mu   sync.RWMutex
}

// NewInMemoryDataSource creates a data source from the given bars.
func NewInMemoryDataSource(bars []types.Bar) *InMemoryDataSource {
	ds := &InMemoryDataSource{
		data: make(map[string][]types.Bar),
		mu:   sync.RWMutex{},
	}

	for _, bar := range bars {
		ds.data[bar.Symbol] = append(ds.data[bar.Symbol], bar)
	}

	for symbol := range ds.data {
		series := ds.data[symbol]
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].Time.Before(series[j].Time)
		})
	}

	return ds
}

// Preload reads every symbol of the underlying source in the time range into memory.
func Preload(underlying DataSource, start optional.Option[time.Time], end optional.Option[time.Time]) (*InMemoryDataSource, error) {
	symbols, err := underlying.Symbols()
	if err != nil {
		return nil, err
	}

	var all []types.Bar

	for _, symbol := range symbols {
		bars, err := underlying.ReadBars(symbol, start, end)
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeDataNotFound) {
				continue
			}

			return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to preload %s", symbol)
		}

		all = append(all, bars...)
	}

	return NewInMemoryDataSource(all), nil
}

// Initialize implements DataSource. The in-memory source is populated at construction.
func (ds *InMemoryDataSource) Initialize(path string) error {
	return nil
}

// Symbols implements DataSource.
func (ds *InMemoryDataSource) Symbols() ([]string, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	symbols := make([]string, 0, len(ds.data))
	for symbol := range ds.data {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols, nil
}

// ReadBars implements DataSource.
func (ds *InMemoryDataSource) ReadBars(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	series, ok := ds.data[symbol]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no data found for symbol: %s", symbol)
	}

	result := make([]types.Bar, 0, len(series))

	for _, bar := range series {
		if inRange(bar.Time, start, end) {
			result = append(result, bar)
		}
	}

	if len(result) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no data found for symbol %s in the requested range", symbol)
	}

	return result, nil
}

// Count implements DataSource.
func (ds *InMemoryDataSource) Count(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	count := 0

	for _, bar := range ds.data[symbol] {
		if inRange(bar.Time, start, end) {
			count++
		}
	}

	return count, nil
}

// Close implements DataSource.
func (ds *InMemoryDataSource) Close() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.data = make(map[string][]types.Bar)

	return nil
}
