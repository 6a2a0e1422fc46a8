package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}

	sma := CalculateSMA(closes, 5)
	require.NotNil(t, sma)
	assert.InDelta(t, 3.0, *sma, 1e-9)

	sma = CalculateSMA(closes, 2)
	require.NotNil(t, sma)
	assert.InDelta(t, 4.5, *sma, 1e-9)
}

func TestCalculateSMA_InsufficientData(t *testing.T) {
	assert.Nil(t, CalculateSMA([]float64{1, 2, 3}, 5))
	assert.Nil(t, CalculateSMA(nil, 1))
	assert.Nil(t, CalculateSMA([]float64{1, 2, 3}, 0))
}

func TestTrendSignal(t *testing.T) {
	rising := make([]float64, 100)
	falling := make([]float64, 100)
	for i := range rising {
		rising[i] = 100 + float64(i)
		falling[i] = 200 - float64(i)
	}

	assert.Equal(t, "up", TrendSignal(rising))
	assert.Equal(t, "down", TrendSignal(falling))
	assert.Equal(t, "flat", TrendSignal(rising[:30]), "short history yields no signal")
}
