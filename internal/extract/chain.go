// Package extract pulls a best-effort ExtractedProfile out of a resolved profile scope.
// Every field is read by an ordered chain of strategies; the first result that
// passes the field's validator wins and failing strategies are skipped.
package extract

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// errNoMatch is returned by strategies that found nothing to read.
var errNoMatch = errors.New("extract: no match")

// Strategy is one named way of reading a field.
type Strategy[T any] struct {
	Name string
	Read func(ctx context.Context) (T, error)
}

// Chain tries strategies in order and returns the first valid result.
type Chain[T any] struct {
	Field      string
	Strategies []Strategy[T]
	// Valid decides whether a strategy's result is acceptable. A nil Valid accepts
	// any result returned without error.
	Valid func(T) bool
}

// Run evaluates the chain. ok is false when every strategy failed or was rejected.
func (c Chain[T]) Run(ctx context.Context, logger *zap.Logger) (result T, ok bool) {
	for _, s := range c.Strategies {
		if ctx.Err() != nil {
			return result, false
		}
		v, err := attempt(ctx, s)
		if err != nil {
			if !errors.Is(err, errNoMatch) {
				logger.Debug("Extraction strategy failed.",
					zap.String("field", c.Field), zap.String("strategy", s.Name), zap.Error(err))
			}
			continue
		}
		if c.Valid != nil && !c.Valid(v) {
			continue
		}
		return v, true
	}
	return result, false
}

// attempt runs one strategy, converting a panic into an error.
func attempt[T any](ctx context.Context, s Strategy[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy %s panicked: %v", s.Name, r)
		}
	}()
	return s.Read(ctx)
}

func nonEmpty(s string) bool { return s != "" }

func nonEmptyList(s []string) bool { return len(s) > 0 }
