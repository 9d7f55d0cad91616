package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONObject(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		obj, ok := ExtractJSONObject(`{"foods": []}`)
		assert.True(t, ok)
		assert.Contains(t, obj, "foods")
	})

	t.Run("fenced JSON", func(t *testing.T) {
		obj, ok := ExtractJSONObject("```json\n{\"foods\": [{\"alimento\": \"arroz\"}]}\n```")
		assert.True(t, ok)
		assert.Contains(t, obj, "foods")
	})

	t.Run("JSON buried in prose", func(t *testing.T) {
		obj, ok := ExtractJSONObject(`Claro, aquí tienes: {"foods": [{"alimento": "pasta"}]} ¡Que aproveche!`)
		assert.True(t, ok)
		assert.Contains(t, obj, "foods")
	})

	t.Run("no JSON at all", func(t *testing.T) {
		_, ok := ExtractJSONObject("no he podido identificar la comida")
		assert.False(t, ok)
	})
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"12.5", 12.5},
		{"12,5", 12.5},
		{" aprox 30 g ", 30},
		{"NO ENCONTRADO", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseNumber(tt.input))
		})
	}
}

func TestParseLabelFields(t *testing.T) {
	t.Run("spanish label", func(t *testing.T) {
		f := parseLabelFields(`Nombre: Galletas María
Calorias: 450
Proteinas: 7.5
Carbohidratos: 72
Grasas: 14`)
		assert.Equal(t, "Galletas María", f.Name)
		assert.Equal(t, 450.0, f.Calories)
		assert.Equal(t, 7.5, f.Protein)
		assert.Equal(t, 72.0, f.Carbs)
		assert.Equal(t, 14.0, f.Fat)
	})

	t.Run("english synonyms", func(t *testing.T) {
		f := parseLabelFields(`Name: Peanut butter
Energy: 588 kcal
Protein: 25
Carbs: 20
Fat: 50`)
		assert.Equal(t, "Peanut butter", f.Name)
		assert.Equal(t, 588.0, f.Calories)
		assert.Equal(t, 25.0, f.Protein)
		assert.Equal(t, 20.0, f.Carbs)
		assert.Equal(t, 50.0, f.Fat)
	})

	t.Run("kJ converts to kcal", func(t *testing.T) {
		f := parseLabelFields("Nombre: Bebida\nEnergía: 837 kJ\nProteinas: 1")
		assert.InDelta(t, 200.0, f.Calories, 0.1)
	})

	t.Run("saturated fat does not overwrite total fat", func(t *testing.T) {
		f := parseLabelFields(`Nombre: Queso
Grasas: 33
Grasas saturadas: 21`)
		assert.Equal(t, 33.0, f.Fat)
	})

	t.Run("markdown noise is skipped", func(t *testing.T) {
		f := parseLabelFields(`**Análisis:**
# Resultado
Nombre: Pizza
Proteinas: 11`)
		assert.Equal(t, "Pizza", f.Name)
		assert.Equal(t, 11.0, f.Protein)
	})

	t.Run("ingredients line", func(t *testing.T) {
		f := parseLabelFields("Nombre: Ensalada\nIngredientes: lechuga, tomate, atún")
		assert.Equal(t, "lechuga, tomate, atún", f.Ingredients)
	})

	t.Run("missing values stay zero", func(t *testing.T) {
		f := parseLabelFields("Nombre: Agua\nCalorias: NO ENCONTRADO")
		assert.Equal(t, "Agua", f.Name)
		assert.Zero(t, f.Calories)
	})
}

func TestUnreadableName(t *testing.T) {
	// Placeholder answers the prompts mandate for unreadable photos must
	// not be mistaken for product names.
	assert.True(t, unreadableName(""))
	assert.True(t, unreadableName("NO ENCONTRADO"))
	assert.True(t, unreadableName("  No Encontrado "))
	assert.True(t, unreadableName("No identificado"))
	assert.False(t, unreadableName("Galletas María"))
}

func TestNumberField(t *testing.T) {
	m := map[string]interface{}{
		"cantidad_g": 250.0,
		"proteinas":  "8,5",
	}
	assert.Equal(t, 250.0, numberField(m, "cantidad_g", "estimated_grams"))
	assert.Equal(t, 8.5, numberField(m, "proteinas"))
	assert.Zero(t, numberField(m, "ausente"))
}
