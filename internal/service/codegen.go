package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
)

const (
	codePrefix   = "SALE"
	codeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// CodeChecker reports whether a coupon code is already taken.
type CodeChecker interface {
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// CodeGenerator produces coupon codes of the form SALE + 6 symbols from [A-Z0-9].
// It owns its random source; a single instance is safe for concurrent use.
type CodeGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewCodeGenerator creates a CodeGenerator seeded with seed.
// Equal seeds yield equal code sequences.
func NewCodeGenerator(seed uint64) *CodeGenerator {
	return &CodeGenerator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Next returns a candidate code without consulting the store.
func (g *CodeGenerator) Next() string {
	var b strings.Builder
	b.Grow(len(codePrefix) + codeLength)
	b.WriteString(codePrefix)

	g.mu.Lock()
	for i := 0; i < codeLength; i++ {
		b.WriteByte(codeAlphabet[g.rnd.IntN(len(codeAlphabet))])
	}
	g.mu.Unlock()

	return b.String()
}

// Generate returns a code that the checker reports as unused.
// Candidates are re-rolled until one is free; the store's unique constraint
// still decides races between concurrent creators.
func (g *CodeGenerator) Generate(ctx context.Context, checker CodeChecker) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		code := g.Next()
		exists, err := checker.ExistsByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check code %s: %w", code, err)
		}
		if !exists {
			return code, nil
		}
	}
}
