package chart

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
)

func TestRenderBreakdownPie(t *testing.T) {
	b := core.Breakdown{
		{Name: "Food", Amount: core.MustAmount("150.50")},
		{Name: "Bills", Amount: core.MustAmount("75")},
	}

	out, err := RenderBreakdownPie("Expenses by Category", b)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, width, img.Bounds().Dx())
	assert.Equal(t, height, img.Bounds().Dy())
}

func TestRenderBreakdownPieSingleCategory(t *testing.T) {
	out, err := RenderBreakdownPie("", core.Breakdown{{Name: "Food", Amount: core.MustAmount("12")}})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("\x89PNG")))
}

func TestRenderBreakdownPieEmpty(t *testing.T) {
	_, err := RenderBreakdownPie("Expenses by Category", nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRenderTotalsPie(t *testing.T) {
	tests := []struct {
		name   string
		totals core.Totals
	}{
		{"both sides", core.Totals{Income: core.MustAmount("1000"), Expense: core.MustAmount("150.50")}},
		{"income only", core.Totals{Income: core.MustAmount("1000")}},
		{"expense only", core.Totals{Expense: core.MustAmount("75")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := RenderTotalsPie("Income vs Expense", tt.totals)
			require.NoError(t, err)
			_, err = png.Decode(bytes.NewReader(out))
			assert.NoError(t, err)
		})
	}
}

func TestRenderTotalsPieEmpty(t *testing.T) {
	_, err := RenderTotalsPie("Income vs Expense", core.Totals{})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSliceLabel(t *testing.T) {
	assert.Equal(t, "Food 66.7%", sliceLabel("Food", core.Money{Cents: 200}, core.Money{Cents: 300}))
	assert.Equal(t, "Bills 100.0%", sliceLabel("Bills", core.Money{Cents: 75}, core.Money{Cents: 75}))
}
