package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEANSearchLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "8412345678905", r.URL.Query().Get("barcode"))
		w.Write([]byte(`{"barcode": "8412345678905", "name": "Tortitas de arroz"}`))
	}))
	defer srv.Close()

	svc := NewEANSearchService()
	svc.apiURL = srv.URL

	rec, err := svc.LookupBarcode(context.Background(), "8412345678905")
	require.NoError(t, err)
	assert.Equal(t, "Tortitas de arroz", rec.FoodName)
	assert.Equal(t, SourceEANSearch, rec.Source)
	assert.False(t, rec.HasNutrients(), "registry results carry no nutrition")
}

func TestEANSearchMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	svc := NewEANSearchService()
	svc.apiURL = srv.URL

	_, err := svc.LookupBarcode(context.Background(), "8412345678905")
	assert.Error(t, err)
}

func TestBarcodeLookupWithNutrition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "products": [{
			"name": "Barrita energética",
			"calories": "380",
			"protein": 9,
			"carbohydrates": 55,
			"fat": 12
		}]}`))
	}))
	defer srv.Close()

	svc := NewBarcodeLookupService()
	svc.apiURL = srv.URL

	rec, err := svc.LookupBarcode(context.Background(), "8412345678905")
	require.NoError(t, err)
	assert.Equal(t, "Barrita energética", rec.FoodName)
	assert.Equal(t, 380.0, rec.CaloriesPer100g, "string-encoded numbers are accepted")
	assert.Equal(t, 9.0, rec.ProteinPer100g)
}

func TestUPCDatabaseLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": "OK", "items": [{"title": "Peanut Butter Cups"}]}`))
	}))
	defer srv.Close()

	svc := NewUPCDatabaseService()
	svc.apiURL = srv.URL

	rec, err := svc.LookupBarcode(context.Background(), "012345678905")
	require.NoError(t, err)
	assert.Equal(t, "Peanut Butter Cups", rec.FoodName)
	assert.Equal(t, SourceUPCDatabase, rec.Source)
}

func TestBarcodeDatabaseFallsThroughToMonster(t *testing.T) {
	monster := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "8412345678905", r.URL.Query().Get("q"))
		w.Write([]byte(`[{"name": "Chocolate con leche"}]`))
	}))
	defer monster.Close()

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer primary.Close()

	svc := NewBarcodeDatabaseService()
	svc.apiURL = primary.URL
	svc.monsterURL = monster.URL

	rec, err := svc.LookupBarcode(context.Background(), "8412345678905")
	require.NoError(t, err)
	assert.Equal(t, "Chocolate con leche", rec.FoodName)
	assert.Equal(t, SourceBarcodeMonstr, rec.Source)
}

func TestUSDALookupName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "rice", r.URL.Query().Get("query"))
		w.Write([]byte(`{"foods": [{
			"description": "Rice, white, cooked",
			"foodNutrients": [
				{"nutrientName": "Energy", "unitName": "KCAL", "value": 130},
				{"nutrientName": "Energy", "unitName": "kJ", "value": 544},
				{"nutrientName": "Protein", "unitName": "G", "value": 2.7},
				{"nutrientName": "Carbohydrate, by difference", "unitName": "G", "value": 28},
				{"nutrientName": "Total lipid (fat)", "unitName": "G", "value": 0.3}
			]}]}`))
	}))
	defer srv.Close()

	svc := NewUSDAService("test-key")
	svc.searchURL = srv.URL

	rec, err := svc.LookupName(context.Background(), "rice")
	require.NoError(t, err)
	assert.Equal(t, "Rice, white, cooked", rec.FoodName)
	assert.Equal(t, 130.0, rec.CaloriesPer100g, "the kJ energy row must not win")
	assert.Equal(t, 2.7, rec.ProteinPer100g)
	assert.Equal(t, 28.0, rec.CarbsPer100g)
	assert.Equal(t, 0.3, rec.FatPer100g)
	assert.Equal(t, SourceUSDA, rec.Source)
}

func TestUSDARequiresAPIKey(t *testing.T) {
	_, err := NewUSDAService("").LookupName(context.Background(), "rice")
	assert.Error(t, err)
}
