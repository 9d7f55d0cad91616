package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	openFoodFactsProductURL = "https://world.openfoodfacts.org/api/v3/product"
	openFoodFactsSearchURL  = "https://world.openfoodfacts.org/cgi/search.pl"
)

// OpenFoodFactsService resolves products in the Open Food Facts
// database, both by barcode and by free-text name.
type OpenFoodFactsService struct {
	productURL string
	searchURL  string
	client     *http.Client
}

func NewOpenFoodFactsService() *OpenFoodFactsService {
	return &OpenFoodFactsService{
		productURL: openFoodFactsProductURL,
		searchURL:  openFoodFactsSearchURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Nutriment values arrive as numbers or as strings depending on the
// contributor, so the map stays untyped and numeric reads go through
// nutrimentValue.
type offProduct struct {
	ProductName string                 `json:"product_name"`
	Nutriments  map[string]interface{} `json:"nutriments"`
}

type offProductResponse struct {
	Product *offProduct `json:"product"`
}

type offSearchResponse struct {
	Products []offProduct `json:"products"`
}

// LookupBarcode fetches a single product by its barcode.
func (s *OpenFoodFactsService) LookupBarcode(ctx context.Context, barcode string) (*NutritionRecord, error) {
	u := fmt.Sprintf("%s/%s.json", s.productURL, url.PathEscape(barcode))

	body, err := s.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var pr offProductResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("failed to parse Open Food Facts product JSON: %w", err)
	}
	if pr.Product == nil {
		return nil, fmt.Errorf("product %s not found in Open Food Facts", barcode)
	}
	return recordFromOFFProduct(*pr.Product), nil
}

// LookupName runs a free-text search and takes the first hit.
func (s *OpenFoodFactsService) LookupName(ctx context.Context, query string) (*NutritionRecord, error) {
	q := url.Values{}
	q.Set("search_terms", query)
	q.Set("search_simple", "1")
	q.Set("action", "process")
	q.Set("json", "1")
	q.Set("page_size", "1")

	body, err := s.get(ctx, s.searchURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var sr offSearchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("failed to parse Open Food Facts search JSON: %w", err)
	}
	if len(sr.Products) == 0 {
		return nil, fmt.Errorf("no Open Food Facts results for %q", query)
	}
	rec := recordFromOFFProduct(sr.Products[0])
	if rec.FoodName == "" {
		rec.FoodName = query
	}
	return rec, nil
}

func (s *OpenFoodFactsService) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Open Food Facts request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Open Food Facts: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Open Food Facts response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open food facts API error %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func recordFromOFFProduct(p offProduct) *NutritionRecord {
	rec := &NutritionRecord{
		FoodName: strings.TrimSpace(p.ProductName),
		Source:   SourceOpenFoodFacts,
	}
	if p.Nutriments == nil {
		return rec
	}

	rec.CaloriesPer100g = nutrimentValue(p.Nutriments, "energy-kcal_100g")
	if rec.CaloriesPer100g == 0 {
		// energy_100g is kilojoules.
		rec.CaloriesPer100g = round1(nutrimentValue(p.Nutriments, "energy_100g") / 4.184)
	}
	rec.ProteinPer100g = nutrimentValue(p.Nutriments, "proteins_100g")
	rec.CarbsPer100g = nutrimentValue(p.Nutriments, "carbohydrates_100g")
	rec.FatPer100g = nutrimentValue(p.Nutriments, "fat_100g")
	return rec
}

// nutrimentValue tolerates numeric and string-encoded numbers.
func nutrimentValue(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", "."), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
