package fuzz

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwality/kwality/pkg/types"
)

func TestNewGeneratorSelectsByStrategy(t *testing.T) {
	cases := map[types.FuzzStrategy]types.FuzzStrategy{
		types.FuzzStrategyRandom:     types.FuzzStrategyRandom,
		types.FuzzStrategyStructured: types.FuzzStrategyStructured,
		types.FuzzStrategyGrammar:    types.FuzzStrategyGrammar,
		types.FuzzStrategyMutation:   types.FuzzStrategyMutation,
		types.FuzzStrategy("bogus"):  types.FuzzStrategyRandom,
	}
	for strategy, want := range cases {
		g := NewGenerator(strategy)
		assert.Equal(t, want, g.Strategy())
	}
}

func TestRandomGeneratorRespectsMaxLength(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := NewRandomGenerator(16)
	for i := 0; i < 50; i++ {
		input := g.Generate(rng)
		assert.LessOrEqual(t, len(input), 16)
		assert.NotEmpty(t, input)
	}
}

func TestRandomGeneratorMutateChangesOneByte(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	g := NewRandomGenerator(16)
	original := []byte("abcdefgh")
	mutated := g.Mutate(rng, original)
	require.Len(t, mutated, len(original))
	assert.Equal(t, "abcdefgh", string(original), "original must not be mutated in place")
	diff := 0
	for i := range original {
		if original[i] != mutated[i] {
			diff++
		}
	}
	assert.LessOrEqual(t, diff, 1, "at most one byte may differ")
}

func TestStructuredGeneratorProducesValidTemplate(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := NewStructuredGenerator()
	for i := 0; i < 20; i++ {
		out := string(g.Generate(rng))
		assert.NotEmpty(t, out)
		assert.True(t, json.Valid([]byte(out)), "not valid JSON: %s", out)
	}
}

func TestStructuredGeneratorMutateReplacesNumbers(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	g := NewStructuredGenerator()
	mutated := g.Mutate(rng, []byte(`{"number": 7}`))
	assert.Contains(t, string(mutated), `"number":`)
}

func TestGrammarGeneratorTerminatesWithinDepth(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	g := NewGrammarGenerator()
	for i := 0; i < 30; i++ {
		out := g.Generate(rng)
		assert.NotEmpty(t, out)
	}
}

func TestGrammarGeneratorMutateRegenerates(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	g := NewGrammarGenerator()
	out := g.Mutate(rng, []byte("irrelevant"))
	assert.NotEmpty(t, out)
}

func TestMutationGeneratorGenerateFromSeed(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := NewMutationGenerator()
	for i := 0; i < 20; i++ {
		out := g.Generate(rng)
		assert.NotEmpty(t, out)
	}
}

func TestMutationGeneratorMutateEmptyInputIsNoop(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	g := NewMutationGenerator()
	assert.Equal(t, []byte{}, g.Mutate(rng, []byte{}))
}
