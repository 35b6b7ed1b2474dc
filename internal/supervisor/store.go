package supervisor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/micaelgg/buutech/internal/metrics"
)

// ErrStoreUnreachable the store did not become ready within the store policy
var ErrStoreUnreachable = errors.New("store unreachable")

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// StoreReadiness checks connectivity and applies the schema
type StoreReadiness struct {
	DB     Pinger
	Schema func(ctx context.Context) error
	Policy RetryPolicy
	Logger *zap.Logger
}

// EnsureStoreReady blocks until the store answers and the schema exists.
// Exhausting the policy yields ErrStoreUnreachable.
func (s StoreReadiness) EnsureStoreReady(ctx context.Context) error {
	err := s.Policy.Retry(ctx, s.Logger, "store", func(ctx context.Context) error {
		err := s.attempt(ctx)
		metrics.IncStoreAttempt(err)
		return err
	})
	if errors.Is(err, ErrRetriesExhausted) {
		return fmt.Errorf("%w: %w", ErrStoreUnreachable, err)
	}
	return err
}

func (s StoreReadiness) attempt(ctx context.Context) error {
	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if s.Schema != nil {
		if err := s.Schema(ctx); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}
