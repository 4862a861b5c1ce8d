package fuzz

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"github.com/kwality/kwality/pkg/types"
)

// Generator produces and mutates fuzz inputs. Every generator is pure given
// its random source: no generator consults wall-clock time or global state.
type Generator interface {
	Generate(rng *rand.Rand) []byte
	Mutate(rng *rand.Rand, input []byte) []byte
	Strategy() types.FuzzStrategy
}

// NewGenerator returns the generator for the given strategy, defaulting to
// the random generator for an unrecognized value.
func NewGenerator(strategy types.FuzzStrategy) Generator {
	switch strategy {
	case types.FuzzStrategyStructured:
		return NewStructuredGenerator()
	case types.FuzzStrategyGrammar:
		return NewGrammarGenerator()
	case types.FuzzStrategyMutation:
		return NewMutationGenerator()
	default:
		return NewRandomGenerator(1024)
	}
}

// RandomGenerator emits arbitrary bytes up to maxLength, the fallback
// strategy when no structure is assumed about the target's input.
type RandomGenerator struct {
	maxLength int
}

func NewRandomGenerator(maxLength int) *RandomGenerator {
	return &RandomGenerator{maxLength: maxLength}
}

func (g *RandomGenerator) Strategy() types.FuzzStrategy { return types.FuzzStrategyRandom }

func (g *RandomGenerator) Generate(rng *rand.Rand) []byte {
	length := 1 + rng.Intn(g.maxLength)
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = byte(rng.Intn(256))
	}
	return buf
}

func (g *RandomGenerator) Mutate(rng *rand.Rand, input []byte) []byte {
	if len(input) == 0 {
		return input
	}
	out := make([]byte, len(input))
	copy(out, input)
	out[rng.Intn(len(out))] = byte(rng.Intn(256))
	return out
}

// StructuredGenerator fills a small set of JSON-shaped templates with a
// random integer, exercising targets that expect structured input.
type StructuredGenerator struct {
	templates []string
	numberRe  *regexp.Regexp
}

func NewStructuredGenerator() *StructuredGenerator {
	return &StructuredGenerator{
		templates: []string{
			`{"key": "value"}`,
			`{"number": %d}`,
			`{"array": [1, 2, 3]}`,
			`{"nested": {"inner": "value"}}`,
		},
		numberRe: regexp.MustCompile(`\d+`),
	}
}

func (g *StructuredGenerator) Strategy() types.FuzzStrategy { return types.FuzzStrategyStructured }

func (g *StructuredGenerator) Generate(rng *rand.Rand) []byte {
	template := g.templates[rng.Intn(len(g.templates))]
	value := 1 + rng.Intn(999)
	if strings.Contains(template, "%d") {
		return []byte(fmt.Sprintf(template, value))
	}
	return []byte(template)
}

func (g *StructuredGenerator) Mutate(rng *rand.Rand, input []byte) []byte {
	value := strconv.Itoa(1 + rng.Intn(999))
	return g.numberRe.ReplaceAll(input, []byte(value))
}

// GrammarGenerator expands a tiny fixed arithmetic grammar, exercising
// targets that parse nested expressions.
type GrammarGenerator struct {
	rules map[string][]string
}

func NewGrammarGenerator() *GrammarGenerator {
	return &GrammarGenerator{
		rules: map[string][]string{
			"start": {"expr"},
			"expr":  {"num", "expr + expr", "expr - expr", "(expr)"},
			"num":   {"1", "2", "3"},
		},
	}
}

func (g *GrammarGenerator) Strategy() types.FuzzStrategy { return types.FuzzStrategyGrammar }

func (g *GrammarGenerator) Generate(rng *rand.Rand) []byte {
	return []byte(g.expand(rng, "start", 0))
}

// Mutate regenerates from the grammar rather than editing the prior input:
// a grammar-derived string mutated byte-wise would usually fall outside the
// grammar entirely.
func (g *GrammarGenerator) Mutate(rng *rand.Rand, _ []byte) []byte {
	return g.Generate(rng)
}

const grammarMaxDepth = 10

func (g *GrammarGenerator) expand(rng *rand.Rand, symbol string, depth int) string {
	if depth > grammarMaxDepth {
		return "1"
	}

	productions, ok := g.rules[symbol]
	if !ok {
		return symbol
	}
	production := productions[rng.Intn(len(productions))]

	if !strings.Contains(production, " ") {
		if _, isSymbol := g.rules[production]; isSymbol {
			return g.expand(rng, production, depth+1)
		}
		return production
	}

	var out strings.Builder
	for _, part := range strings.Split(production, " ") {
		if _, isSymbol := g.rules[part]; isSymbol {
			out.WriteString(g.expand(rng, part, depth+1))
		} else {
			out.WriteString(part)
		}
	}
	return out.String()
}

// MutationGenerator mutates one of a handful of fixed seed inputs, the
// strategy best suited to shaking out edge cases around a known-valid shape.
type MutationGenerator struct {
	seeds [][]byte
}

func NewMutationGenerator() *MutationGenerator {
	return &MutationGenerator{
		seeds: [][]byte{
			[]byte("hello world"),
			[]byte("123456"),
			[]byte(`{"test": true}`),
			[]byte("function test() { return 42; }"),
		},
	}
}

func (g *MutationGenerator) Strategy() types.FuzzStrategy { return types.FuzzStrategyMutation }

func (g *MutationGenerator) Generate(rng *rand.Rand) []byte {
	seed := g.seeds[rng.Intn(len(g.seeds))]
	return g.Mutate(rng, seed)
}

func (g *MutationGenerator) Mutate(rng *rand.Rand, input []byte) []byte {
	if len(input) == 0 {
		return input
	}
	out := make([]byte, len(input))
	copy(out, input)

	switch rng.Intn(4) {
	case 0: // bit flip
		out[rng.Intn(len(out))] ^= 1 << uint(rng.Intn(8))
	case 1: // byte replacement
		out[rng.Intn(len(out))] = byte(rng.Intn(256))
	case 2: // insert
		idx := rng.Intn(len(out) + 1)
		b := byte(rng.Intn(256))
		out = append(out[:idx], append([]byte{b}, out[idx:]...)...)
	case 3: // delete
		idx := rng.Intn(len(out))
		out = append(out[:idx], out[idx+1:]...)
	}
	return out
}
