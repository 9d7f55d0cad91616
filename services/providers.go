package services

import (
	"context"

	"go.uber.org/zap"
)

// BarcodeProvider resolves a product barcode to nutrition data.
type BarcodeProvider interface {
	LookupBarcode(ctx context.Context, barcode string) (*NutritionRecord, error)
}

// NameProvider resolves a free-text food name to nutrition data.
type NameProvider interface {
	LookupName(ctx context.Context, query string) (*NutritionRecord, error)
}

// ProductLookupService walks ordered provider chains until one yields
// usable nutrition. Provider failures are logged and swallowed; the
// next provider is always tried. Exhausting the chain is a normal
// outcome and surfaces as a nil record, never as an error.
type ProductLookupService struct {
	barcodeProviders []BarcodeProvider
	nameProviders    []NameProvider
	interpreter      FoodInterpreter
	logger           *zap.Logger
}

func NewProductLookupService(
	barcodeProviders []BarcodeProvider,
	nameProviders []NameProvider,
	interpreter FoodInterpreter,
	logger *zap.Logger,
) *ProductLookupService {
	return &ProductLookupService{
		barcodeProviders: barcodeProviders,
		nameProviders:    nameProviders,
		interpreter:      interpreter,
		logger:           logger,
	}
}

// ResolveBarcode tries each barcode provider in order. A record with
// at least one non-zero nutrient wins immediately. Registries that
// only know the product name contribute that name to a follow-up
// search of the name chain. When everything misses and the original
// photo is available, the nutrition label on it is read as a last
// resort.
func (s *ProductLookupService) ResolveBarcode(ctx context.Context, barcode string, imageBytes []byte) *NutritionRecord {
	var fallbackName string

	for _, p := range s.barcodeProviders {
		rec, err := p.LookupBarcode(ctx, barcode)
		if err != nil {
			s.logger.Warn("barcode provider failed",
				zap.String("barcode", barcode),
				zap.Error(err))
			continue
		}
		if rec == nil {
			continue
		}
		if rec.HasNutrients() {
			resolved := rec.Reconcile()
			s.logger.Info("barcode resolved",
				zap.String("barcode", barcode),
				zap.String("food", resolved.FoodName),
				zap.String("source", resolved.Source))
			return &resolved
		}
		// All-zero means the registry knows the product but not its
		// nutrition. Keep the first name seen for a name search.
		if fallbackName == "" && rec.FoodName != "" {
			fallbackName = rec.FoodName
		}
	}

	if fallbackName != "" {
		if rec := s.ResolveName(ctx, fallbackName); rec != nil {
			// Prefer the registry's product name over the search hit's.
			rec.FoodName = fallbackName
			return rec
		}
	}

	if len(imageBytes) > 0 && s.interpreter != nil {
		rec, err := s.interpreter.ReadLabel(ctx, imageBytes)
		if err != nil {
			s.logger.Warn("label read fallback failed",
				zap.String("barcode", barcode),
				zap.Error(err))
			return nil
		}
		if rec != nil && rec.HasNutrients() {
			resolved := rec.Reconcile()
			s.logger.Info("barcode resolved from label photo",
				zap.String("barcode", barcode),
				zap.String("food", resolved.FoodName))
			return &resolved
		}
	}

	s.logger.Info("barcode not found in any provider", zap.String("barcode", barcode))
	return nil
}

// ResolveName tries each name provider in order with the same
// acceptance rule as ResolveBarcode.
func (s *ProductLookupService) ResolveName(ctx context.Context, query string) *NutritionRecord {
	for _, p := range s.nameProviders {
		rec, err := p.LookupName(ctx, query)
		if err != nil {
			s.logger.Warn("name provider failed",
				zap.String("query", query),
				zap.Error(err))
			continue
		}
		if rec == nil || !rec.HasNutrients() {
			continue
		}
		resolved := rec.Reconcile()
		s.logger.Info("name resolved",
			zap.String("query", query),
			zap.String("food", resolved.FoodName),
			zap.String("source", resolved.Source))
		return &resolved
	}
	return nil
}
