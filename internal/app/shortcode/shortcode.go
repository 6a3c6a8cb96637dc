// Package shortcode generates short codes and allocates unique ones against a store.
package shortcode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/achufistov/shortypanel/internal/app/models"
)

// Alphabet is the set short codes are drawn from.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	// DefaultLength is the length of a freshly allocated code.
	DefaultLength = 5
	// MaxLength is the longest code the allocator falls back to.
	MaxLength = 8
	// AttemptsPerLength bounds the insert retries before the code grows by one character.
	AttemptsPerLength = 5
)

// ErrExhausted is returned when no free code was found at any allowed length.
var ErrExhausted = errors.New("short code space exhausted")

// Generator produces random codes of a given length.
type Generator interface {
	Generate(length int) (string, error)
}

// RandomGenerator draws characters uniformly with replacement from Alphabet using crypto/rand.
type RandomGenerator struct{}

// Generate returns a random code of the given length.
func (RandomGenerator) Generate(length int) (string, error) {
	b := make([]byte, length)
	n62 := big.NewInt(int64(len(Alphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, n62)
		if err != nil {
			return "", fmt.Errorf("failed to read random: %w", err)
		}
		b[i] = Alphabet[n.Int64()]
	}
	return string(b), nil
}

// InsertFunc persists a candidate code. It must return models.ErrConflict when the code is taken.
type InsertFunc func(ctx context.Context, code string) error

// Allocator hands candidate codes to an insert and retries on conflict.
type Allocator struct {
	gen        Generator
	onConflict func()
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithGenerator replaces the random generator.
func WithGenerator(g Generator) Option {
	return func(a *Allocator) { a.gen = g }
}

// WithConflictHook registers a callback invoked on every retried conflict.
func WithConflictHook(fn func()) Option {
	return func(a *Allocator) { a.onConflict = fn }
}

// NewAllocator creates an Allocator backed by RandomGenerator unless overridden.
func NewAllocator(opts ...Option) *Allocator {
	a := &Allocator{gen: RandomGenerator{}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate generates codes starting at DefaultLength and passes each one to insert.
// On models.ErrConflict it regenerates; after AttemptsPerLength conflicts the code grows by
// one character, up to MaxLength. Any other insert error is returned as is.
func (a *Allocator) Allocate(ctx context.Context, insert InsertFunc) (string, error) {
	for length := DefaultLength; length <= MaxLength; length++ {
		for attempt := 0; attempt < AttemptsPerLength; attempt++ {
			if err := ctx.Err(); err != nil {
				return "", err
			}

			code, err := a.gen.Generate(length)
			if err != nil {
				return "", err
			}

			err = insert(ctx, code)
			if err == nil {
				return code, nil
			}
			if !errors.Is(err, models.ErrConflict) {
				return "", err
			}
			if a.onConflict != nil {
				a.onConflict()
			}
		}
	}
	return "", ErrExhausted
}
