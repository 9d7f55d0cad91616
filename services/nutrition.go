package services

import (
	"math"
)

// Provenance tags for NutritionRecord.Source.
const (
	SourceOpenFoodFacts = "open_food_facts"
	SourceUSDA          = "usda"
	SourceEANSearch     = "ean_search"
	SourceBarcodeLookup = "barcode_lookup"
	SourceUPCDatabase   = "upc_database"
	SourceBarcodeDB     = "barcode_database"
	SourceBarcodeMonstr = "barcode_monster"
	SourceLLMText       = "llm_text"
	SourceLLMPlate      = "llm_plate"
	SourceLLMLabel      = "llm_label"
	SourceImageLabels   = "image_labels"
	SourceDefault       = "default"
)

// NutritionRecord holds per-100g nutrition values plus the strategy
// that produced them. It is an immutable-after-construction value:
// every resolution builds fresh records.
type NutritionRecord struct {
	FoodName        string  `json:"food_name"`
	CaloriesPer100g float64 `json:"calories_per_100g"`
	ProteinPer100g  float64 `json:"protein_per_100g"`
	CarbsPer100g    float64 `json:"carbs_per_100g"`
	FatPer100g      float64 `json:"fat_per_100g"`
	Source          string  `json:"source"`
}

// ResolvedFoodEntry is one food ready for persistence: a name, the
// consumed quantity and the per-100g record it scales from.
type ResolvedFoodEntry struct {
	FoodName      string          `json:"food_name"`
	QuantityGrams float64         `json:"quantity_grams"`
	Nutrition     NutritionRecord `json:"nutrition"`
}

// Totals are the scaled values for a concrete quantity.
type Totals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// CaloriesFromMacros applies the Atwater factors (4/4/9 kcal per gram)
// and rounds to one decimal. Calories are always derived here, never
// trusted from a model.
func CaloriesFromMacros(proteinG, carbsG, fatG float64) float64 {
	return round1(proteinG*4 + carbsG*4 + fatG*9)
}

// ReconcileCalories checks a reported calorie figure against the
// Atwater computation. Deviations above 20% are replaced by the
// computed value; smaller deviations (label rounding) pass through.
// A zero Atwater result returns the reported value unchanged so that
// literal zero-macro entries are not turned into division noise.
func ReconcileCalories(reported, proteinG, carbsG, fatG float64) float64 {
	atwater := CaloriesFromMacros(proteinG, carbsG, fatG)
	if atwater == 0 {
		return reported
	}
	deviation := math.Abs(reported-atwater) / atwater
	if deviation > 0.20 {
		return atwater
	}
	return reported
}

// Reconcile returns a copy of the record with its calorie field passed
// through ReconcileCalories.
func (n NutritionRecord) Reconcile() NutritionRecord {
	n.CaloriesPer100g = ReconcileCalories(n.CaloriesPer100g, n.ProteinPer100g, n.CarbsPer100g, n.FatPer100g)
	return n
}

// HasNutrients reports whether at least one nutrient value is non-zero.
// An all-zero parse from a provider means "no data", not "zero calories".
func (n NutritionRecord) HasNutrients() bool {
	return n.CaloriesPer100g > 0 || n.ProteinPer100g > 0 || n.CarbsPer100g > 0 || n.FatPer100g > 0
}

// HasMacros reports whether at least one macro field is present.
func (n NutritionRecord) HasMacros() bool {
	return n.ProteinPer100g > 0 || n.CarbsPer100g > 0 || n.FatPer100g > 0
}

// TotalsFor scales the per-100g record to a consumed quantity.
func (n NutritionRecord) TotalsFor(grams float64) Totals {
	f := grams / 100.0
	return Totals{
		Calories: round1(n.CaloriesPer100g * f),
		Protein:  round1(n.ProteinPer100g * f),
		Carbs:    round1(n.CarbsPer100g * f),
		Fat:      round1(n.FatPer100g * f),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
