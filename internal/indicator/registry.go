package indicator

import (
	"sync"

	"github.com/IvanHuYY/Stockbot/pkg/errors"
)

// IndicatorRegistry manages all available indicators.
type IndicatorRegistry interface {
	RegisterIndicator(indicator Indicator) error
	GetIndicator(column string) (Indicator, error)
	ListIndicators() []Indicator
	RemoveIndicator(column string) error
}

// IndicatorRegistryV1 manages all available indicators keyed by the columns they produce.
// Indicators are listed in registration order so feature columns are computed deterministically.
type IndicatorRegistryV1 struct {
	indicators map[string]Indicator
	order      []Indicator
	mu         sync.RWMutex
}

// NewIndicatorRegistry creates a new indicator registry.
func NewIndicatorRegistry() IndicatorRegistry {
	return &IndicatorRegistryV1{
		indicators: make(map[string]Indicator),
		order:      []Indicator{},
		mu:         sync.RWMutex{},
	}
}

// RegisterIndicator adds an indicator to the registry.
func (r *IndicatorRegistryV1) RegisterIndicator(indicator Indicator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, column := range indicator.Columns() {
		if _, exists := r.indicators[column]; exists {
			return errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "indicator producing column %s already registered", column)
		}
	}

	for _, column := range indicator.Columns() {
		r.indicators[column] = indicator
	}

	r.order = append(r.order, indicator)

	return nil
}

// GetIndicator retrieves the indicator that produces the given column.
func (r *IndicatorRegistryV1) GetIndicator(column string) (Indicator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indicator, exists := r.indicators[column]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator producing column %s not found", column)
	}

	return indicator, nil
}

// ListIndicators returns all registered indicators in registration order.
func (r *IndicatorRegistryV1) ListIndicators() []Indicator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indicators := make([]Indicator, len(r.order))
	copy(indicators, r.order)

	return indicators
}

// RemoveIndicator removes the indicator that produces the given column, along with all of its columns.
func (r *IndicatorRegistryV1) RemoveIndicator(column string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	indicator, exists := r.indicators[column]
	if !exists {
		return errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator producing column %s not found", column)
	}

	for _, c := range indicator.Columns() {
		delete(r.indicators, c)
	}

	for i, registered := range r.order {
		if registered == indicator {
			r.order = append(r.order[:i], r.order[i+1:]...)

			break
		}
	}

	return nil
}
