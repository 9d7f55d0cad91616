package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Fallback macros applied when a food resolves to a name but no
// provider knows its composition. Every logged entry is guaranteed
// at least these per-100g values.
const (
	DefaultProteinPer100g = 10
	DefaultCarbsPer100g   = 20
	DefaultFatPer100g     = 5
)

// PlateRecognizer is the last-chance image labeler used when the
// vision model cannot identify a plate.
type PlateRecognizer interface {
	RecognizeFood(ctx context.Context, imageBytes []byte) ([]string, error)
}

// Resolution is the outcome of interpreting one user intake. Exactly
// one of three shapes:
//   - Entries set: foods with quantities, ready to persist.
//   - Pending set: a per-100g record awaiting the consumed quantity.
//   - NeedsClarification: nothing usable; Reason says what to ask.
//
// Total resolution failure is a value here, never an error; errors are
// reserved for broken inputs.
type Resolution struct {
	Entries            []ResolvedFoodEntry `json:"entries,omitempty"`
	Pending            *NutritionRecord    `json:"pending,omitempty"`
	NeedsClarification bool                `json:"needs_clarification"`
	Reason             string              `json:"reason,omitempty"`
}

func clarification(reason string) Resolution {
	return Resolution{NeedsClarification: true, Reason: reason}
}

// ResolutionService orchestrates the intake paths: text descriptions,
// photos (barcode, plate or label) and explicit barcodes.
type ResolutionService struct {
	detector    *BarcodeDetectorService
	lookup      *ProductLookupService
	interpreter FoodInterpreter
	recognizer  PlateRecognizer
	logger      *zap.Logger
}

func NewResolutionService(
	detector *BarcodeDetectorService,
	lookup *ProductLookupService,
	interpreter FoodInterpreter,
	recognizer PlateRecognizer,
	logger *zap.Logger,
) *ResolutionService {
	return &ResolutionService{
		detector:    detector,
		lookup:      lookup,
		interpreter: interpreter,
		recognizer:  recognizer,
		logger:      logger,
	}
}

// ResolveText interprets a free-form meal description. Portions the
// user did not specify arrive already estimated by the interpreter, so
// the result is always loggable entries or a clarification.
func (s *ResolutionService) ResolveText(ctx context.Context, description string, imageBytes []byte) (Resolution, error) {
	// A message that is nothing but a barcode goes down the barcode
	// path, not through the language model.
	if code := strings.TrimSpace(description); IsValidBarcode(code) {
		return s.ResolveBarcode(ctx, code)
	}

	entries, err := s.interpreter.InterpretText(ctx, description, imageBytes)
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to interpret description: %w", err)
	}
	if len(entries) == 0 {
		return clarification("could not identify any food in the description"), nil
	}
	for i := range entries {
		entries[i].Nutrition = s.Enrich(ctx, entries[i].Nutrition)
	}
	return Resolution{Entries: entries}, nil
}

// ResolveImage works a photo through four stages: barcode detection,
// plate identification, label reading, and generic image labeling.
func (s *ResolutionService) ResolveImage(ctx context.Context, imageBytes []byte) (Resolution, error) {
	code, found, err := s.detector.Detect(imageBytes)
	if err != nil {
		return Resolution{}, err
	}
	if found {
		if rec := s.lookup.ResolveBarcode(ctx, code, imageBytes); rec != nil {
			return Resolution{Pending: rec}, nil
		}
		return clarification(fmt.Sprintf("barcode %s is not in any product database", code)), nil
	}

	rec, err := s.interpreter.AnalyzePlate(ctx, imageBytes)
	if err != nil {
		s.logger.Warn("plate analysis failed", zap.Error(err))
	}
	if rec != nil && rec.HasNutrients() {
		return Resolution{Pending: rec}, nil
	}

	// Not a recognizable plate; the photo may be a nutrition-facts
	// panel without a decodable barcode.
	label, err := s.interpreter.ReadLabel(ctx, imageBytes)
	if err != nil {
		s.logger.Warn("label read failed", zap.Error(err))
	}
	if label != nil && label.HasNutrients() {
		return Resolution{Pending: label}, nil
	}

	if s.recognizer != nil {
		labels, err := s.recognizer.RecognizeFood(ctx, imageBytes)
		if err != nil {
			s.logger.Warn("image labeling failed", zap.Error(err))
		}
		for _, label := range labels {
			if found := s.lookup.ResolveName(ctx, label); found != nil {
				found.Source = SourceImageLabels
				return Resolution{Pending: found}, nil
			}
		}
	}

	return clarification("could not identify the food in the photo"), nil
}

// ResolveBarcode handles a barcode the user typed in directly.
func (s *ResolutionService) ResolveBarcode(ctx context.Context, code string) (Resolution, error) {
	normalized, ok := ExtractBarcode(code)
	if !ok {
		return Resolution{}, fmt.Errorf("%q is not a valid barcode", code)
	}
	if rec := s.lookup.ResolveBarcode(ctx, normalized, nil); rec != nil {
		return Resolution{Pending: rec}, nil
	}
	return clarification(fmt.Sprintf("barcode %s is not in any product database", normalized)), nil
}

// CompleteWithQuantity turns a pending record plus the consumed grams
// into a loggable entry.
func (s *ResolutionService) CompleteWithQuantity(ctx context.Context, rec NutritionRecord, grams float64) (ResolvedFoodEntry, error) {
	if grams <= 0 {
		return ResolvedFoodEntry{}, fmt.Errorf("quantity must be positive")
	}
	// Provider and label records may legitimately carry calories
	// without macros; their data is kept as-is. The enrichment ladder
	// is for records that resolved to a name and nothing else.
	enriched := rec.Reconcile()
	if !rec.HasNutrients() {
		enriched = s.Enrich(ctx, rec)
	}
	return ResolvedFoodEntry{
		FoodName:      enriched.FoodName,
		QuantityGrams: grams,
		Nutrition:     enriched,
	}, nil
}

// Enrich guarantees a record has macros before it is logged: a record
// that only carries a name is searched in the name chain, and when
// that also misses it gets conservative default macros so totals never
// silently undercount.
func (s *ResolutionService) Enrich(ctx context.Context, rec NutritionRecord) NutritionRecord {
	if rec.HasMacros() {
		return rec.Reconcile()
	}
	if rec.FoodName != "" && s.lookup != nil {
		if found := s.lookup.ResolveName(ctx, rec.FoodName); found != nil && found.HasMacros() {
			found.FoodName = rec.FoodName
			return *found
		}
	}
	s.logger.Info("applying default macros", zap.String("food", rec.FoodName))
	rec.ProteinPer100g = DefaultProteinPer100g
	rec.CarbsPer100g = DefaultCarbsPer100g
	rec.FatPer100g = DefaultFatPer100g
	rec.CaloriesPer100g = CaloriesFromMacros(DefaultProteinPer100g, DefaultCarbsPer100g, DefaultFatPer100g)
	rec.Source = SourceDefault
	return rec
}
