package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const usdaSearchURL = "https://fdc.nal.usda.gov/api/v1/foods/search"

// USDAService queries the USDA FoodData Central search API. It needs
// an API key; without one every lookup fails and the caller moves on.
type USDAService struct {
	apiKey    string
	searchURL string
	client    *http.Client
}

func NewUSDAService(apiKey string) *USDAService {
	return &USDAService{
		apiKey:    apiKey,
		searchURL: usdaSearchURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type usdaSearchResponse struct {
	Foods []struct {
		Description   string `json:"description"`
		FoodNutrients []struct {
			NutrientName string  `json:"nutrientName"`
			UnitName     string  `json:"unitName"`
			Value        float64 `json:"value"`
		} `json:"foodNutrients"`
	} `json:"foods"`
}

// LookupName searches FoodData Central and maps the first result's
// nutrient list onto a per-100g record. Search results report values
// per 100 g already.
func (s *USDAService) LookupName(ctx context.Context, query string) (*NutritionRecord, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("usda api key not configured")
	}

	q := url.Values{}
	q.Set("api_key", s.apiKey)
	q.Set("query", query)
	q.Set("pageSize", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.searchURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create USDA request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call USDA: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read USDA response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("usda API error %d: %s", resp.StatusCode, string(body))
	}

	var sr usdaSearchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("failed to parse USDA JSON: %w", err)
	}
	if len(sr.Foods) == 0 {
		return nil, fmt.Errorf("no USDA results for %q", query)
	}

	food := sr.Foods[0]
	rec := &NutritionRecord{
		FoodName: strings.TrimSpace(food.Description),
		Source:   SourceUSDA,
	}
	if rec.FoodName == "" {
		rec.FoodName = query
	}
	for _, n := range food.FoodNutrients {
		name := strings.ToLower(n.NutrientName)
		switch {
		case strings.Contains(name, "energy") && strings.EqualFold(n.UnitName, "kcal"):
			rec.CaloriesPer100g = n.Value
		case strings.Contains(name, "protein"):
			rec.ProteinPer100g = n.Value
		case strings.Contains(name, "carbohydrate"):
			rec.CarbsPer100g = n.Value
		case strings.Contains(name, "total lipid") || name == "fat":
			rec.FatPer100g = n.Value
		}
	}
	return rec, nil
}
