package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaloriesFromMacros(t *testing.T) {
	tests := []struct {
		name     string
		protein  float64
		carbs    float64
		fat      float64
		expected float64
	}{
		{"default macros", 10, 20, 5, 165},
		{"zero everything", 0, 0, 0, 0},
		{"grilled chicken macros", 31, 0, 3.6, 156.4},
		{"rounds to one decimal", 8.33, 25.17, 1.11, 144},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CaloriesFromMacros(tt.protein, tt.carbs, tt.fat), 0.05)
		})
	}
}

func TestReconcileCalories(t *testing.T) {
	// 10/20/5 per 100g computes to 165 kcal via Atwater.
	t.Run("close reported value passes through", func(t *testing.T) {
		assert.Equal(t, 170.0, ReconcileCalories(170, 10, 20, 5))
	})

	t.Run("deviation at the edge of tolerance passes", func(t *testing.T) {
		// 196.4 is within 20% of 165.
		assert.Equal(t, 196.4, ReconcileCalories(196.4, 10, 20, 5))
	})

	t.Run("large deviation is replaced by the computed value", func(t *testing.T) {
		assert.Equal(t, 165.0, ReconcileCalories(206.3, 10, 20, 5))
		assert.Equal(t, 165.0, ReconcileCalories(50, 10, 20, 5))
	})

	t.Run("zero macros keeps the reported value", func(t *testing.T) {
		assert.Equal(t, 250.0, ReconcileCalories(250, 0, 0, 0))
	})
}

func TestNutritionRecordHasNutrients(t *testing.T) {
	assert.False(t, NutritionRecord{FoodName: "mystery"}.HasNutrients())
	assert.True(t, NutritionRecord{CaloriesPer100g: 1}.HasNutrients())
	assert.True(t, NutritionRecord{FatPer100g: 0.1}.HasNutrients())
}

func TestNutritionRecordTotalsFor(t *testing.T) {
	rec := NutritionRecord{
		CaloriesPer100g: 165,
		ProteinPer100g:  10,
		CarbsPer100g:    20,
		FatPer100g:      5,
	}

	totals := rec.TotalsFor(250)
	assert.Equal(t, 412.5, totals.Calories)
	assert.Equal(t, 25.0, totals.Protein)
	assert.Equal(t, 50.0, totals.Carbs)
	assert.Equal(t, 12.5, totals.Fat)

	zero := rec.TotalsFor(0)
	assert.Equal(t, Totals{}, zero)
}

func TestReconcileKeepsMacros(t *testing.T) {
	rec := NutritionRecord{
		CaloriesPer100g: 500, // inconsistent with macros below
		ProteinPer100g:  10,
		CarbsPer100g:    20,
		FatPer100g:      5,
	}
	fixed := rec.Reconcile()
	assert.Equal(t, 165.0, fixed.CaloriesPer100g)
	assert.Equal(t, rec.ProteinPer100g, fixed.ProteinPer100g)
	assert.Equal(t, rec.CarbsPer100g, fixed.CarbsPer100g)
	assert.Equal(t, rec.FatPer100g, fixed.FatPer100g)
}
