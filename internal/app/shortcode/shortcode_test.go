package shortcode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/achufistov/shortypanel/internal/app/models"
)

// sequenceGenerator returns the queued codes in order, then falls back to a counter.
type sequenceGenerator struct {
	codes   []string
	lengths []int
	n       int
}

func (g *sequenceGenerator) Generate(length int) (string, error) {
	g.lengths = append(g.lengths, length)
	if len(g.codes) > 0 {
		c := g.codes[0]
		g.codes = g.codes[1:]
		return c, nil
	}
	g.n++
	return fmt.Sprintf("%0*d", length, g.n), nil
}

func TestRandomGenerator_Generate(t *testing.T) {
	gen := RandomGenerator{}
	for _, length := range []int{5, 6, 8} {
		code, err := gen.Generate(length)
		if err != nil {
			t.Fatalf("Generate(%d) error: %v", length, err)
		}
		if len(code) != length {
			t.Errorf("len(code) = %d, want %d", len(code), length)
		}
		for _, c := range code {
			if !strings.ContainsRune(Alphabet, c) {
				t.Errorf("code %q contains %q outside the alphabet", code, c)
			}
		}
	}
}

func TestRandomGenerator_Spread(t *testing.T) {
	gen := RandomGenerator{}
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		code, err := gen.Generate(DefaultLength)
		if err != nil {
			t.Fatal(err)
		}
		seen[code] = struct{}{}
	}
	// 62^5 codes, 1000 draws: a handful of collisions at most
	if len(seen) < 990 {
		t.Errorf("only %d distinct codes out of 1000", len(seen))
	}
}

func TestAllocator_RetriesOnConflict(t *testing.T) {
	taken := map[string]bool{"ab12c": true, "xy9Z1": true}
	gen := &sequenceGenerator{codes: []string{"ab12c", "xy9Z1", "fresh"}}

	conflicts := 0
	a := NewAllocator(WithGenerator(gen), WithConflictHook(func() { conflicts++ }))

	code, err := a.Allocate(context.Background(), func(_ context.Context, code string) error {
		if taken[code] {
			return models.ErrConflict
		}
		taken[code] = true
		return nil
	})
	if err != nil {
		t.Fatalf("Allocate error: %v", err)
	}
	if code != "fresh" {
		t.Errorf("code = %q, want fresh", code)
	}
	if conflicts != 2 {
		t.Errorf("conflicts = %d, want 2", conflicts)
	}
}

func TestAllocator_GrowsLengthAfterAttempts(t *testing.T) {
	gen := &sequenceGenerator{}
	a := NewAllocator(WithGenerator(gen))

	calls := 0
	code, err := a.Allocate(context.Background(), func(_ context.Context, code string) error {
		calls++
		if len(code) == DefaultLength {
			return models.ErrConflict
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Allocate error: %v", err)
	}
	if len(code) != DefaultLength+1 {
		t.Errorf("len(code) = %d, want %d", len(code), DefaultLength+1)
	}
	if calls != AttemptsPerLength+1 {
		t.Errorf("insert calls = %d, want %d", calls, AttemptsPerLength+1)
	}
}

func TestAllocator_Exhausted(t *testing.T) {
	gen := &sequenceGenerator{}
	a := NewAllocator(WithGenerator(gen))

	_, err := a.Allocate(context.Background(), func(context.Context, string) error {
		return models.ErrConflict
	})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}

	want := (MaxLength - DefaultLength + 1) * AttemptsPerLength
	if len(gen.lengths) != want {
		t.Fatalf("generated %d codes, want %d", len(gen.lengths), want)
	}
	if gen.lengths[len(gen.lengths)-1] != MaxLength {
		t.Errorf("last length = %d, want %d", gen.lengths[len(gen.lengths)-1], MaxLength)
	}
}

func TestAllocator_OtherErrorsStop(t *testing.T) {
	storeErr := errors.New("connection refused")
	a := NewAllocator(WithGenerator(&sequenceGenerator{}))

	calls := 0
	_, err := a.Allocate(context.Background(), func(context.Context, string) error {
		calls++
		return storeErr
	})
	if !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want %v", err, storeErr)
	}
	if calls != 1 {
		t.Errorf("insert calls = %d, want 1", calls)
	}
}

func TestAllocator_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAllocator()
	_, err := a.Allocate(ctx, func(context.Context, string) error {
		t.Fatal("insert must not be called")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestAllocator_NeverReturnsTakenCode(t *testing.T) {
	taken := make(map[string]bool)
	a := NewAllocator()

	for i := 0; i < 500; i++ {
		code, err := a.Allocate(context.Background(), func(_ context.Context, code string) error {
			if taken[code] {
				return models.ErrConflict
			}
			taken[code] = true
			return nil
		})
		if err != nil {
			t.Fatalf("Allocate error: %v", err)
		}
		if !taken[code] {
			t.Fatalf("code %q was not inserted", code)
		}
	}
	if len(taken) != 500 {
		t.Errorf("distinct codes = %d, want 500", len(taken))
	}
}

func BenchmarkRandomGenerator_Generate(b *testing.B) {
	gen := RandomGenerator{}
	for i := 0; i < b.N; i++ {
		if _, err := gen.Generate(DefaultLength); err != nil {
			b.Fatal(err)
		}
	}
}
