package safeconv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMustIntToUint32(t *testing.T) {
	t.Parallel()

	t.Run("normal_value", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, uint32(42), MustIntToUint32(42))
	})

	t.Run("max", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, MaxUint32, MustIntToUint32(math.MaxUint32))
	})

	t.Run("negative_panics", func(t *testing.T) {
		t.Parallel()

		assert.PanicsWithValue(t, "safeconv: int to uint32 out of bounds", func() {
			MustIntToUint32(-1)
		})
	})

	t.Run("overflow_panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			MustIntToUint32(math.MaxUint32 + 1)
		})
	})
}

func TestAddUint32(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(5), AddUint32(2, 3))
	assert.Equal(t, MaxUint32, AddUint32(MaxUint32-1, 1))
	assert.Equal(t, MaxUint32, AddUint32(MaxUint32, MaxUint32))
}
