package services

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestResolution(interp FoodInterpreter, lookup *ProductLookupService) *ResolutionService {
	if lookup == nil {
		lookup = NewProductLookupService(nil, nil, nil, testLogger())
	}
	return NewResolutionService(NewBarcodeDetectorService(testLogger()), lookup, interp, nil, testLogger())
}

func TestResolveTextLogsEstimatedPortions(t *testing.T) {
	// "Desayuno: 2 huevos" style interpretation: the model estimated
	// 120g with total macros, normalized per-100g by the interpreter.
	interp := &fakeInterpreter{textEntries: []ResolvedFoodEntry{
		{
			FoodName:      "Huevos fritos",
			QuantityGrams: 120,
			Nutrition: NutritionRecord{
				FoodName:        "Huevos fritos",
				CaloriesPer100g: CaloriesFromMacros(13, 1, 11),
				ProteinPer100g:  13,
				CarbsPer100g:    1,
				FatPer100g:      11,
				Source:          SourceLLMText,
			},
		},
	}}

	res, err := newTestResolution(interp, nil).ResolveText(context.Background(), "Desayuno: 2 huevos", nil)
	assert.NoError(t, err)
	assert.False(t, res.NeedsClarification)
	assert.Len(t, res.Entries, 1)

	entry := res.Entries[0]
	assert.Equal(t, 120.0, entry.QuantityGrams)
	// Calories always agree with Atwater over the macros.
	assert.Equal(t,
		CaloriesFromMacros(entry.Nutrition.ProteinPer100g, entry.Nutrition.CarbsPer100g, entry.Nutrition.FatPer100g),
		entry.Nutrition.CaloriesPer100g)
}

func TestResolveTextDispatchesBarcodeShapedInput(t *testing.T) {
	provider := &fakeBarcodeProvider{rec: fullRecord("Galletas", SourceOpenFoodFacts)}
	lookup := NewProductLookupService([]BarcodeProvider{provider}, nil, nil, testLogger())
	svc := newTestResolution(&fakeInterpreter{}, lookup)

	res, err := svc.ResolveText(context.Background(), " 8412345678905 ", nil)
	assert.NoError(t, err)
	assert.NotNil(t, res.Pending, "a pure barcode message takes the barcode path")
	assert.Equal(t, 1, provider.calls)
}

func TestResolveTextClarifiesWhenNothingIdentified(t *testing.T) {
	res, err := newTestResolution(&fakeInterpreter{}, nil).ResolveText(context.Background(), "asdfgh", nil)
	assert.NoError(t, err)
	assert.True(t, res.NeedsClarification)
	assert.Empty(t, res.Entries)
	assert.NotEmpty(t, res.Reason)
}

func TestEnrichAppliesDefaultsAsLastResort(t *testing.T) {
	svc := newTestResolution(&fakeInterpreter{}, nil)

	rec := svc.Enrich(context.Background(), NutritionRecord{FoodName: "Cosa rara"})
	assert.Equal(t, float64(DefaultProteinPer100g), rec.ProteinPer100g)
	assert.Equal(t, float64(DefaultCarbsPer100g), rec.CarbsPer100g)
	assert.Equal(t, float64(DefaultFatPer100g), rec.FatPer100g)
	assert.Equal(t, 165.0, rec.CaloriesPer100g)
	assert.Equal(t, SourceDefault, rec.Source)
}

func TestEnrichPrefersNameChainOverDefaults(t *testing.T) {
	byName := &fakeNameProvider{rec: fullRecord("White rice", SourceUSDA)}
	lookup := NewProductLookupService(nil, []NameProvider{byName}, nil, testLogger())
	svc := newTestResolution(&fakeInterpreter{}, lookup)

	rec := svc.Enrich(context.Background(), NutritionRecord{FoodName: "Arroz blanco"})
	assert.Equal(t, "Arroz blanco", rec.FoodName)
	assert.Equal(t, SourceUSDA, rec.Source)
	assert.Equal(t, 10.0, rec.ProteinPer100g)
}

func TestEnrichLeavesCompleteRecordsAlone(t *testing.T) {
	svc := newTestResolution(&fakeInterpreter{}, nil)
	full := *fullRecord("Pasta", SourceOpenFoodFacts)

	rec := svc.Enrich(context.Background(), full)
	assert.Equal(t, full, rec)
}

func TestResolveImageFallsBackToLabelReading(t *testing.T) {
	// A photo with no barcode and no identifiable plate may still be a
	// nutrition-facts panel; the label reader gets a turn before the
	// photo is given up on.
	interp := &fakeInterpreter{label: fullRecord("Cereales integrales", SourceLLMLabel)}
	svc := newTestResolution(interp, nil)

	photo := pngBytes(t, image.NewGray(image.Rect(0, 0, 32, 32)))
	res, err := svc.ResolveImage(context.Background(), photo)
	assert.NoError(t, err)
	assert.False(t, res.NeedsClarification)
	if assert.NotNil(t, res.Pending) {
		assert.Equal(t, "Cereales integrales", res.Pending.FoodName)
		assert.Equal(t, SourceLLMLabel, res.Pending.Source)
	}
	assert.Equal(t, 1, interp.labelCalls)
}

func TestResolveImagePlateWinsOverLabel(t *testing.T) {
	interp := &fakeInterpreter{
		plate: fullRecord("Paella", SourceLLMPlate),
		label: fullRecord("Cereales", SourceLLMLabel),
	}
	svc := newTestResolution(interp, nil)

	photo := pngBytes(t, image.NewGray(image.Rect(0, 0, 32, 32)))
	res, err := svc.ResolveImage(context.Background(), photo)
	assert.NoError(t, err)
	if assert.NotNil(t, res.Pending) {
		assert.Equal(t, SourceLLMPlate, res.Pending.Source)
	}
	assert.Equal(t, 0, interp.labelCalls, "an identified plate ends the pipeline")
}

func TestResolveBarcodeOperation(t *testing.T) {
	t.Run("invalid barcode is an input error", func(t *testing.T) {
		svc := newTestResolution(&fakeInterpreter{}, nil)
		_, err := svc.ResolveBarcode(context.Background(), "ABC")
		assert.Error(t, err)
	})

	t.Run("resolved barcode is pending a quantity", func(t *testing.T) {
		provider := &fakeBarcodeProvider{rec: fullRecord("Galletas", SourceOpenFoodFacts)}
		lookup := NewProductLookupService([]BarcodeProvider{provider}, nil, nil, testLogger())
		svc := newTestResolution(&fakeInterpreter{}, lookup)

		res, err := svc.ResolveBarcode(context.Background(), "8412345678905")
		assert.NoError(t, err)
		assert.NotNil(t, res.Pending)
		assert.False(t, res.NeedsClarification)
		assert.Empty(t, res.Entries)
	})

	t.Run("unknown barcode asks for clarification", func(t *testing.T) {
		svc := newTestResolution(&fakeInterpreter{}, nil)
		res, err := svc.ResolveBarcode(context.Background(), "8412345678905")
		assert.NoError(t, err)
		assert.True(t, res.NeedsClarification)
	})
}

func TestCompleteWithQuantity(t *testing.T) {
	svc := newTestResolution(&fakeInterpreter{}, nil)
	rec := *fullRecord("Galletas", SourceOpenFoodFacts)

	entry, err := svc.CompleteWithQuantity(context.Background(), rec, 40)
	assert.NoError(t, err)
	assert.Equal(t, 40.0, entry.QuantityGrams)
	assert.Equal(t, "Galletas", entry.FoodName)

	totals := entry.Nutrition.TotalsFor(entry.QuantityGrams)
	assert.Equal(t, 66.0, totals.Calories)

	_, err = svc.CompleteWithQuantity(context.Background(), rec, 0)
	assert.Error(t, err)
}

func TestCompleteWithQuantityKeepsCalorieOnlyRecords(t *testing.T) {
	// Some registries report calories without a macro breakdown. That
	// figure is real data; completion must not throw it away in favor
	// of a name lookup or the default macros.
	byName := &fakeNameProvider{rec: fullRecord("Cola", SourceUSDA)}
	lookup := NewProductLookupService(nil, []NameProvider{byName}, nil, testLogger())
	svc := newTestResolution(&fakeInterpreter{}, lookup)

	rec := NutritionRecord{FoodName: "Refresco de cola", CaloriesPer100g: 42, Source: SourceOpenFoodFacts}
	entry, err := svc.CompleteWithQuantity(context.Background(), rec, 330)
	assert.NoError(t, err)
	assert.Equal(t, 42.0, entry.Nutrition.CaloriesPer100g)
	assert.Equal(t, SourceOpenFoodFacts, entry.Nutrition.Source)
	assert.Zero(t, entry.Nutrition.ProteinPer100g)
	assert.Equal(t, 0, byName.calls, "resolved records are not re-resolved by name")
}
