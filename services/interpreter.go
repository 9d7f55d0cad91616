package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// FoodInterpreter turns free-form meal descriptions and photos into
// structured nutrition. Implementations never report model-authored
// calories: macros come from the model, kilocalories from the Atwater
// factors.
type FoodInterpreter interface {
	// InterpretText parses a meal description (optionally with a photo
	// for context) into ready-to-log entries with estimated portions.
	InterpretText(ctx context.Context, description string, imageBytes []byte) ([]ResolvedFoodEntry, error)
	// AnalyzePlate identifies a plate photo and estimates per-100g
	// macros. A nil record means the plate was not identifiable.
	AnalyzePlate(ctx context.Context, imageBytes []byte) (*NutritionRecord, error)
	// ReadLabel transcribes a nutrition label photo into a per-100g
	// record. A nil record means no label could be read.
	ReadLabel(ctx context.Context, imageBytes []byte) (*NutritionRecord, error)
}

const defaultGeminiModel = "gemini-2.0-flash"

// The model is addressed in Spanish because the user base is; replies
// mixing English keys are still accepted by the parsers.

const interpreterSystemPrompt = `Eres un nutricionista clínico experto. Tu única base de datos de referencia es el USDA FoodData Central.

REGLAS INQUEBRANTABLES:
1. NUNCA calcules calorías ni kcal. Ese campo NO existe en tu respuesta.
2. Solo reporta proteínas, carbohidratos y grasas en gramos TOTALES para la porción.
3. Si el usuario NO especifica gramos, estima una RACIÓN ESTÁNDAR REALISTA de adulto:
   - Plato de pasta cocida: 250g
   - Plato de arroz cocido: 200g
   - Pechuga de pollo: 200g
   - Filete de ternera/cerdo: 200g
   - Ensalada mixta: 200g
   - Tostada de pan: 30g
   - Huevo: 60g
   - Café con leche: 200ml
   - Vaso de zumo: 250ml
   - Yogur: 125g
   - Pizza (porción): 200g
   - Hamburguesa completa: 250g
   - Plato de legumbres: 300g
4. Los macros deben ser para la CANTIDAD TOTAL estimada, no por 100g.
5. Usa valores realistas del USDA. Ejemplo: 250g pasta cocida = ~8g prot, ~78g carbs, ~3g grasa.
6. Responde ÚNICAMENTE con JSON válido. Sin explicaciones, sin markdown.`

const interpreterUserPromptFmt = `El usuario ha comido: "%s"

Devuelve un JSON con esta estructura EXACTA (sin campo de calorías):
{"foods": [{
  "alimento": "nombre descriptivo del plato",
  "cantidad_g": 250,
  "proteinas_g": 8.0,
  "carbohidratos_g": 30.0,
  "grasas_g": 6.0
}]}

Si hay varios alimentos, pon un objeto por cada uno en el array.
PROHIBIDO incluir "calorias", "kcal", "energy" o cualquier campo de calorías.
Responde SOLO con el JSON.`

const platePrompt = `Eres un nutricionista clínico experto usando la base de datos USDA FoodData Central.

Analiza esta foto de comida. Identifica el plato y sus ingredientes principales.

REGLAS ESTRICTAS:
1. PROHIBIDO reportar calorías o kcal. NO incluyas ese campo.
2. Reporta SOLO proteínas, carbohidratos y grasas POR 100g del plato.
3. Usa valores realistas del USDA como referencia.
4. Si no puedes identificar la comida, responde "Nombre: No identificado".

Formato EXACTO (sin explicaciones, sin campo de calorías):
Nombre: [nombre descriptivo del plato]
Ingredientes: [lista separada por coma]
Proteinas: [valor numerico por 100g]
Carbohidratos: [valor numerico por 100g]
Grasas: [valor numerico por 100g]`

const labelPrompt = `Eres un nutricionista clínico. Analiza la etiqueta nutricional visible en esta imagen.

EXTRAE SOLO lo que puedas LEER en la etiqueta. Valores POR 100g:
- Nombre del producto
- Proteínas (g)
- Carbohidratos/Hidratos (g)
- Grasas (g)

Si ves calorías/energía en la etiqueta, inclúyelas también (en kcal).
Si está en kJ, convierte: 1 kcal = 4.184 kJ.
Si NO encuentras un valor, escribe "NO ENCONTRADO".
NO inventes números. Solo lo que se lee claramente.

Formato EXACTO:
Nombre: [nombre_producto]
Calorias: [valor o NO ENCONTRADO]
Proteinas: [valor]
Carbohidratos: [valor]
Grasas: [valor]`

// GeminiInterpreter implements FoodInterpreter against the Gemini API.
type GeminiInterpreter struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

func NewGeminiInterpreter(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiInterpreter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiInterpreter{client: client, model: model, logger: logger}, nil
}

func (g *GeminiInterpreter) generate(ctx context.Context, system, prompt string, imageBytes []byte, temperature float32) (string, error) {
	parts := []*genai.Part{}
	if len(imageBytes) > 0 {
		parts = append(parts, genai.NewPartFromBytes(imageBytes, "image/jpeg"))
	}
	parts = append(parts, genai.NewPartFromText(prompt))

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](temperature),
		MaxOutputTokens: 512,
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		config,
	)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	return resp.Text(), nil
}

// InterpretText asks for total-portion macros per food, then derives
// calories via Atwater and normalizes everything to per-100g records.
func (g *GeminiInterpreter) InterpretText(ctx context.Context, description string, imageBytes []byte) ([]ResolvedFoodEntry, error) {
	prompt := fmt.Sprintf(interpreterUserPromptFmt, description)
	text, err := g.generate(ctx, interpreterSystemPrompt, prompt, imageBytes, 0.1)
	if err != nil {
		return nil, err
	}

	obj, ok := ExtractJSONObject(text)
	if !ok {
		g.logger.Warn("model did not return parseable JSON", zap.String("response", truncate(text, 200)))
		return nil, nil
	}
	rawFoods, ok := obj["foods"].([]interface{})
	if !ok || len(rawFoods) == 0 {
		return nil, nil
	}

	entries := make([]ResolvedFoodEntry, 0, len(rawFoods))
	for _, raw := range rawFoods {
		food, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		name := textField(food, "alimento", "name")
		if name == "" {
			name = "Alimento desconocido"
		}
		grams := numberField(food, "cantidad_g", "estimated_grams")
		if grams < 1 {
			grams = 100
		}
		proteinTotal := numberField(food, "proteinas_g", "protein_g", "protein")
		carbsTotal := numberField(food, "carbohidratos_g", "carbs_g", "carbs")
		fatTotal := numberField(food, "grasas_g", "fat_g", "fat")

		factor := 100.0 / grams
		rec := NutritionRecord{
			FoodName:        name,
			CaloriesPer100g: round1(CaloriesFromMacros(proteinTotal, carbsTotal, fatTotal) * factor),
			ProteinPer100g:  round1(proteinTotal * factor),
			CarbsPer100g:    round1(carbsTotal * factor),
			FatPer100g:      round1(fatTotal * factor),
			Source:          SourceLLMText,
		}
		entries = append(entries, ResolvedFoodEntry{
			FoodName:      name,
			QuantityGrams: grams,
			Nutrition:     rec,
		})
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries, nil
}

// AnalyzePlate identifies a plate photo. Calories are always computed
// from the reported macros.
func (g *GeminiInterpreter) AnalyzePlate(ctx context.Context, imageBytes []byte) (*NutritionRecord, error) {
	text, err := g.generate(ctx, "", platePrompt, imageBytes, 0.2)
	if err != nil {
		return nil, err
	}

	f := parseLabelFields(text)
	unidentified := unreadableName(f.Name)
	if unidentified && f.Protein == 0 && f.Carbs == 0 && f.Fat == 0 {
		return nil, nil
	}

	name := f.Name
	if unidentified {
		name = "Plato no identificado"
	}
	if f.Ingredients != "" {
		name = fmt.Sprintf("%s (%s)", name, truncate(f.Ingredients, 80))
	}
	return &NutritionRecord{
		FoodName:        name,
		CaloriesPer100g: CaloriesFromMacros(f.Protein, f.Carbs, f.Fat),
		ProteinPer100g:  f.Protein,
		CarbsPer100g:    f.Carbs,
		FatPer100g:      f.Fat,
		Source:          SourceLLMPlate,
	}, nil
}

// ReadLabel transcribes a nutrition label. A calorie figure read off
// the label is kept only when it agrees with the Atwater computation.
func (g *GeminiInterpreter) ReadLabel(ctx context.Context, imageBytes []byte) (*NutritionRecord, error) {
	text, err := g.generate(ctx, "", labelPrompt, imageBytes, 0.1)
	if err != nil {
		return nil, err
	}

	f := parseLabelFields(text)
	// The label prompt answers "NO ENCONTRADO" for anything it cannot
	// read, including the product name.
	if unreadableName(f.Name) {
		return nil, nil
	}

	calories := f.Calories
	hasMacros := f.Protein > 0 || f.Carbs > 0 || f.Fat > 0
	switch {
	case calories > 0 && hasMacros:
		calories = ReconcileCalories(calories, f.Protein, f.Carbs, f.Fat)
	case hasMacros:
		calories = CaloriesFromMacros(f.Protein, f.Carbs, f.Fat)
	}

	return &NutritionRecord{
		FoodName:        f.Name,
		CaloriesPer100g: calories,
		ProteinPer100g:  f.Protein,
		CarbsPer100g:    f.Carbs,
		FatPer100g:      f.Fat,
		Source:          SourceLLMLabel,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
