package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kwality/kwality/pkg/types"
)

func point(v float64) *types.RingPoint {
	return &types.RingPoint{Timestamp: time.Now(), Value: v}
}

func TestRingSnapshotBeforeFull(t *testing.T) {
	r := newRing(4)
	r.push(point(1))
	r.push(point(2))

	out := r.snapshot()
	want := []float64{1, 2}
	assert.Len(t, out, 2)
	for i, v := range want {
		assert.Equal(t, v, out[i].Value)
	}
}

func TestRingDropsOldestWhenFull(t *testing.T) {
	r := newRing(3)
	r.push(point(1))
	r.push(point(2))
	r.push(point(3))
	r.push(point(4)) // drops 1

	out := r.snapshot()
	assert.Len(t, out, 3)
	assert.Equal(t, []float64{2, 3, 4}, []float64{out[0].Value, out[1].Value, out[2].Value})
}

func TestRingZeroCapacityFallsBackToDefault(t *testing.T) {
	r := newRing(0)
	assert.Equal(t, defaultRingCapacity, r.capacity)
}

func TestRingEmptySnapshot(t *testing.T) {
	r := newRing(5)
	assert.Empty(t, r.snapshot())
}
