package fuzz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinIdenticalIsZero(t *testing.T) {
	assert.Equal(t, 0, levenshtein([]byte("abc"), []byte("abc")))
}

func TestLevenshteinEmptyIsLengthOfOther(t *testing.T) {
	assert.Equal(t, 3, levenshtein([]byte(""), []byte("abc")))
	assert.Equal(t, 3, levenshtein([]byte("abc"), []byte("")))
}

func TestLevenshteinKnownDistance(t *testing.T) {
	assert.Equal(t, 3, levenshtein([]byte("kitten"), []byte("sitting")))
}

func TestInputDistanceNormalizesByLongerLength(t *testing.T) {
	d := inputDistance([]byte("abc"), []byte("abd"))
	assert.InDelta(t, 1.0/3.0, d, 0.0001)
}

func TestInputDistanceBothEmptyIsZero(t *testing.T) {
	assert.Equal(t, 0.0, inputDistance(nil, nil))
}

func TestUniquenessScoreEmptyCorpusIsOne(t *testing.T) {
	assert.Equal(t, 1.0, uniquenessScore([]byte("anything"), nil))
}

func TestUniquenessScoreDecreasesForNearDuplicate(t *testing.T) {
	corpus := [][]byte{[]byte("hello world")}
	dup := uniquenessScore([]byte("hello world"), corpus)
	distinct := uniquenessScore([]byte("completely different text"), corpus)
	assert.Less(t, dup, distinct)
}
