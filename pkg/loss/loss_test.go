package loss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMSE(t *testing.T) {
	l, grad := MSE([]float64{1, 2}, []float64{2, 4})
	assert.InDelta(t, 2.5, l, 1e-12)
	assert.InDeltaSlice(t, []float64{1, 2}, grad, 1e-12)
}

func TestHuber(t *testing.T) {
	h := Huber(1)

	l, grad := h([]float64{0, 0}, []float64{0.5, -3})
	// 0.5*0.25 = 0.125 and 1*(3-0.5) = 2.5
	assert.InDelta(t, (0.125+2.5)/2, l, 1e-12)
	assert.InDeltaSlice(t, []float64{0.25, -0.5}, grad, 1e-12)

	small, _ := h([]float64{1}, []float64{1.2})
	sq, _ := MSE([]float64{1}, []float64{1.2})
	assert.InDelta(t, sq/2, small, 1e-12)
}

func TestParse(t *testing.T) {
	for _, name := range []string{"", "mse", "MSE"} {
		f, err := Parse(name, 0)
		require.NoError(t, err, name)
		l, _ := f([]float64{0}, []float64{2})
		assert.InDelta(t, 4, l, 1e-12, name)
	}

	f, err := Parse("huber", 0.5)
	require.NoError(t, err)
	l, _ := f([]float64{0}, []float64{2})
	assert.InDelta(t, 0.5*(2-0.25), l, 1e-12)

	_, err = Parse("huber", 0)
	assert.Error(t, err)
	_, err = Parse("hinge", 1)
	assert.Error(t, err)
}
