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

// Secondary barcode registries. They mostly know product names, not
// nutrition, so their records usually carry a name and zero macros;
// the fallback chain decides what a name alone is worth.
const (
	eanSearchAPIURL       = "https://api.ean-search.org/api"
	barcodeLookupAPIURL   = "https://api.barcodebins.com/api/lookup"
	upcDatabaseAPIURL     = "https://api.upcitemdb.com/prod/trial/lookup"
	barcodeDatabaseAPIURL = "https://api.barcodes.online/api/barcodes"
	barcodeMonsterAPIURL  = "https://api.barcode.monster/search"
)

// EANSearchService queries the European EAN registry.
type EANSearchService struct {
	apiURL string
	client *http.Client
}

func NewEANSearchService() *EANSearchService {
	return &EANSearchService{
		apiURL: eanSearchAPIURL,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

type eanSearchResponse struct {
	Barcode string `json:"barcode"`
	Name    string `json:"name"`
	Title   string `json:"title"`
}

func (s *EANSearchService) LookupBarcode(ctx context.Context, barcode string) (*NutritionRecord, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("barcode", barcode)

	body, err := getJSON(ctx, s.client, s.apiURL+"?"+q.Encode(), "EAN Search")
	if err != nil {
		return nil, err
	}

	var er eanSearchResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return nil, fmt.Errorf("failed to parse EAN Search JSON: %w", err)
	}
	if er.Barcode == "" {
		return nil, fmt.Errorf("barcode %s not found in EAN Search", barcode)
	}
	name := firstNonEmpty(er.Name, er.Title)
	if name == "" {
		return nil, fmt.Errorf("EAN Search result for %s has no product name", barcode)
	}
	return &NutritionRecord{FoodName: name, Source: SourceEANSearch}, nil
}

// BarcodeLookupService sometimes carries nutrition fields alongside
// the product name; when present they are passed through as-is.
type BarcodeLookupService struct {
	apiURL string
	client *http.Client
}

func NewBarcodeLookupService() *BarcodeLookupService {
	return &BarcodeLookupService{
		apiURL: barcodeLookupAPIURL,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

type barcodeLookupResponse struct {
	Success  bool                     `json:"success"`
	Products []map[string]interface{} `json:"products"`
}

func (s *BarcodeLookupService) LookupBarcode(ctx context.Context, barcode string) (*NutritionRecord, error) {
	q := url.Values{}
	q.Set("barcode", barcode)
	q.Set("formatted", "json")

	body, err := getJSON(ctx, s.client, s.apiURL+"?"+q.Encode(), "Barcode Lookup")
	if err != nil {
		return nil, err
	}

	var br barcodeLookupResponse
	if err := json.Unmarshal(body, &br); err != nil {
		return nil, fmt.Errorf("failed to parse Barcode Lookup JSON: %w", err)
	}
	if !br.Success || len(br.Products) == 0 {
		return nil, fmt.Errorf("barcode %s not found in Barcode Lookup", barcode)
	}

	p := br.Products[0]
	name := firstNonEmpty(stringField(p, "name"), stringField(p, "title"))
	if name == "" {
		return nil, fmt.Errorf("barcode lookup result for %s has no product name", barcode)
	}
	// Nutrition fields are optional and loosely typed in this API.
	return &NutritionRecord{
		FoodName:        name,
		CaloriesPer100g: nutrimentValue(p, "calories"),
		ProteinPer100g:  nutrimentValue(p, "protein"),
		CarbsPer100g:    nutrimentValue(p, "carbohydrates"),
		FatPer100g:      nutrimentValue(p, "fat"),
		Source:          SourceBarcodeLookup,
	}, nil
}

// UPCDatabaseService hits the upcitemdb trial endpoint. Coverage is
// US-centric and name-only.
type UPCDatabaseService struct {
	apiURL string
	client *http.Client
}

func NewUPCDatabaseService() *UPCDatabaseService {
	return &UPCDatabaseService{
		apiURL: upcDatabaseAPIURL,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

type upcDatabaseResponse struct {
	Code  string `json:"code"`
	Items []struct {
		Title string `json:"title"`
	} `json:"items"`
}

func (s *UPCDatabaseService) LookupBarcode(ctx context.Context, barcode string) (*NutritionRecord, error) {
	q := url.Values{}
	q.Set("upc", barcode)

	body, err := getJSON(ctx, s.client, s.apiURL+"?"+q.Encode(), "UPC Database")
	if err != nil {
		return nil, err
	}

	var ur upcDatabaseResponse
	if err := json.Unmarshal(body, &ur); err != nil {
		return nil, fmt.Errorf("failed to parse UPC Database JSON: %w", err)
	}
	if ur.Code != "OK" || len(ur.Items) == 0 || strings.TrimSpace(ur.Items[0].Title) == "" {
		return nil, fmt.Errorf("barcode %s not found in UPC Database", barcode)
	}
	return &NutritionRecord{FoodName: ur.Items[0].Title, Source: SourceUPCDatabase}, nil
}

// BarcodeDatabaseService tries barcodes.online first and falls through
// to Barcode Monster when it misses; the two share a slot at the tail
// of the chain.
type BarcodeDatabaseService struct {
	apiURL     string
	monsterURL string
	client     *http.Client
}

func NewBarcodeDatabaseService() *BarcodeDatabaseService {
	return &BarcodeDatabaseService{
		apiURL:     barcodeDatabaseAPIURL,
		monsterURL: barcodeMonsterAPIURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

type barcodeDatabaseResponse struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

func (s *BarcodeDatabaseService) LookupBarcode(ctx context.Context, barcode string) (*NutritionRecord, error) {
	body, err := getJSON(ctx, s.client, s.apiURL+"/"+url.PathEscape(barcode), "Barcode Database")
	if err != nil {
		return s.lookupMonster(ctx, barcode)
	}

	var br barcodeDatabaseResponse
	if err := json.Unmarshal(body, &br); err != nil {
		return s.lookupMonster(ctx, barcode)
	}
	name := firstNonEmpty(br.Name, br.Title)
	if name == "" {
		return s.lookupMonster(ctx, barcode)
	}
	return &NutritionRecord{FoodName: name, Source: SourceBarcodeDB}, nil
}

func (s *BarcodeDatabaseService) lookupMonster(ctx context.Context, barcode string) (*NutritionRecord, error) {
	q := url.Values{}
	q.Set("q", barcode)

	body, err := getJSON(ctx, s.client, s.monsterURL+"?"+q.Encode(), "Barcode Monster")
	if err != nil {
		return nil, err
	}

	var results []barcodeDatabaseResponse
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to parse Barcode Monster JSON: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("barcode %s not found in Barcode Monster", barcode)
	}
	name := firstNonEmpty(results[0].Name, results[0].Title)
	if name == "" {
		return nil, fmt.Errorf("barcode monster result for %s has no product name", barcode)
	}
	return &NutritionRecord{FoodName: name, Source: SourceBarcodeMonstr}, nil
}

func getJSON(ctx context.Context, client *http.Client, u, api string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", api, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", api, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", api, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%s API error %d: %s", api, resp.StatusCode, string(body))
	}
	return body, nil
}

func stringField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
