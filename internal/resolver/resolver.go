package resolver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/micaelgg/buutech/internal/catalog"
	"github.com/micaelgg/buutech/internal/repository"
)

// ErrUnknownSensorTag the tag is not in the catalog
var ErrUnknownSensorTag = errors.New("unknown sensor tag")

// Lookup catalog store query used on an index miss
type Lookup interface {
	SensorIDByTag(ctx context.Context, tag string) (int64, error)
}

// Resolver maps sensor tags to catalog ids.
// The index is read-only; a miss is answered by the catalog store and the
// answer is not written back, so ingestion never changes the catalog view.
type Resolver struct {
	index    *catalog.Index
	fallback Lookup
	logger   *zap.Logger
}

// New creates a resolver. fallback may be nil.
func New(index *catalog.Index, fallback Lookup, logger *zap.Logger) *Resolver {
	if index == nil {
		index = catalog.NewIndex(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{index: index, fallback: fallback, logger: logger}
}

// Resolve returns the sensor id for tag or ErrUnknownSensorTag
func (r *Resolver) Resolve(ctx context.Context, tag string) (int64, error) {
	if id, ok := r.index.Lookup(tag); ok {
		return id, nil
	}
	if r.fallback == nil {
		return 0, fmt.Errorf("resolve %q: %w", tag, ErrUnknownSensorTag)
	}

	id, err := r.fallback.SensorIDByTag(ctx, tag)
	switch {
	case err == nil:
		r.logger.Debug("sensor tag resolved from catalog store",
			zap.String("sensor_tag", tag),
			zap.Int64("sensor_id", id),
		)
		return id, nil
	case errors.Is(err, repository.ErrNotFound):
		return 0, fmt.Errorf("resolve %q: %w", tag, ErrUnknownSensorTag)
	default:
		return 0, fmt.Errorf("resolve %q: %w", tag, err)
	}
}

// Index exposes the startup snapshot
func (r *Resolver) Index() *catalog.Index { return r.index }
