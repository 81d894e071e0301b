package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPool_Bounds(t *testing.T) {
	p := New[*int](2)
	a, b, c := new(int), new(int), new(int)

	require.True(t, p.TryReturn(a))
	require.True(t, p.TryReturn(b))
	require.False(t, p.TryReturn(c), "third return must be rejected")
	require.Equal(t, 2, p.Count())
	require.True(t, p.Any())

	got, ok := p.TryPull()
	require.True(t, ok)
	assert.Same(t, b, got)

	got, ok = p.TryPull()
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = p.TryPull()
	require.False(t, ok)
	require.Equal(t, 0, p.Count())
	require.False(t, p.Any())
}

func TestPool_ZeroCapacity(t *testing.T) {
	p := New[string](0)
	require.False(t, p.TryReturn("x"))
	require.Equal(t, 0, p.Count())

	neg := New[string](-3)
	require.Equal(t, 0, neg.Cap())
	require.False(t, neg.TryReturn("x"))
}

func TestPool_Drain(t *testing.T) {
	p := New[int](3)
	p.TryReturn(1)
	p.TryReturn(2)
	p.TryReturn(3)

	require.Equal(t, []int{3, 2, 1}, p.Drain())
	require.False(t, p.Any())
	require.Empty(t, p.Drain())
}

// TestPool_MatchesStackModel checks the pool against a bounded slice model.
func TestPool_MatchesStackModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(0, 8).Draw(t, "capacity")
		p := New[int](capacity)
		var model []int

		ops := rapid.SliceOfN(rapid.IntRange(-1, 100), 1, 50).Draw(t, "ops")
		for _, op := range ops {
			if op < 0 {
				got, ok := p.TryPull()
				if len(model) == 0 {
					if ok {
						t.Fatalf("pulled %d from empty pool", got)
					}
					continue
				}
				want := model[len(model)-1]
				model = model[:len(model)-1]
				if !ok || got != want {
					t.Fatalf("TryPull() = (%d, %v), want (%d, true)", got, ok, want)
				}
				continue
			}

			accepted := p.TryReturn(op)
			if accepted != (len(model) < capacity) {
				t.Fatalf("TryReturn accepted=%v with %d/%d items", accepted, len(model), capacity)
			}
			if accepted {
				model = append(model, op)
			}
			if p.Count() != len(model) {
				t.Fatalf("Count() = %d, want %d", p.Count(), len(model))
			}
		}
	})
}
