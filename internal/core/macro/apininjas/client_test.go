package apininjas

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-ingestor/internal/core/macro"
	"recipe-ingestor/internal/infrastructure/config"
)

const premiumChicken = `[{"name":"chicken breast","calories":165.0,"serving_size_g":100.0,"fat_total_g":3.6,"fat_saturated_g":1.0,"protein_g":31.0,"sodium_mg":74,"potassium_mg":256,"cholesterol_mg":85,"carbohydrates_total_g":0.0,"fiber_g":0.0,"sugar_g":0.0}]`

const freeRecipe = `[
 {"name":"rice","calories":"Only available for premium subscribers.","serving_size_g":"Only available for premium subscribers.","fat_total_g":0.6,"fat_saturated_g":0.2,"protein_g":"Only available for premium subscribers.","sodium_mg":2,"potassium_mg":58,"cholesterol_mg":0,"carbohydrates_total_g":56.4,"fiber_g":0.8,"sugar_g":0.1},
 {"name":"black beans","calories":"Only available for premium subscribers.","serving_size_g":"Only available for premium subscribers.","fat_total_g":0.9,"fat_saturated_g":0.2,"protein_g":"Only available for premium subscribers.","sodium_mg":1,"potassium_mg":355,"cholesterol_mg":0,"carbohydrates_total_g":23.6,"fiber_g":8.6,"sugar_g":0.3}
]`

func newTestClient(t *testing.T, key string, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.APINinjasConfig{APIKey: key, BaseURL: srv.URL, Timeout: 5 * time.Second})
}

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestAnalyzeIngredient_Premium(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "ninja-key", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/nutrition", r.URL.Path)
		assert.Equal(t, "ninja-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "150g chicken breast", r.URL.Query().Get("query"))
		respond(premiumChicken)(w, r)
	})

	res, err := c.AnalyzeIngredient(context.Background(), "chicken breast", 150)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "API Ninja", res.Source)
	assert.Equal(t, 0.8, res.Confidence)
	assert.Equal(t, macro.AnalysisIngredient, res.AnalysisType)
	assert.Equal(t, 165.0, res.MacroNutrients.Calories)
	assert.Equal(t, 31.0, res.MacroNutrients.Protein)
	require.NotNil(t, res.MacroNutrients.Sodium)
	assert.Equal(t, 74.0, *res.MacroNutrients.Sodium)
	require.NotNil(t, res.MacroNutrients.SaturatedFat)
	assert.Equal(t, 1.0, *res.MacroNutrients.SaturatedFat)
}

func TestAnalyzeIngredient_NotFound(t *testing.T) {
	t.Parallel()

	empty := newTestClient(t, "k", respond(`[]`))
	res, err := empty.AnalyzeIngredient(context.Background(), "unobtainium", 100)
	require.NoError(t, err)
	assert.Equal(t, macro.StatusNotFound, res.Status)
	assert.Equal(t, "No nutrition data found for 'unobtainium'", res.ErrorMessage)

	missing := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	res, err = missing.AnalyzeIngredient(context.Background(), "unobtainium", 100)
	require.NoError(t, err)
	assert.Equal(t, macro.StatusNotFound, res.Status)
}

func TestAnalyzeIngredient_Errors(t *testing.T) {
	t.Parallel()

	noKey := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent without a key")
	})
	_, err := noKey.AnalyzeIngredient(context.Background(), "salt", 1)
	assert.ErrorIs(t, err, macro.ErrUnavailable)

	badKey := newTestClient(t, "bad", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err = badKey.AnalyzeIngredient(context.Background(), "salt", 1)
	assert.ErrorIs(t, err, macro.ErrUnavailable)

	broken := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err = broken.AnalyzeIngredient(context.Background(), "salt", 1)
	require.Error(t, err)
	assert.False(t, errors.Is(err, macro.ErrUnavailable))
}

func TestAnalyzeRecipe_FreeTier(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "k", respond(freeRecipe))

	res, err := c.AnalyzeRecipe(context.Background(), "1 cup rice and 1 cup black beans", nil)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "API Ninja (Free)", res.Source)
	assert.Equal(t, 0.5, res.Confidence)
	assert.Equal(t, macro.AnalysisRecipe, res.AnalysisType)
	require.Len(t, res.RecipeIngredients, 2)
	assert.Equal(t, "black beans", res.RecipeIngredients[1].Name)
	assert.Nil(t, res.RecipeIngredients[0].Quantity)
	assert.Nil(t, res.TotalWeight)

	m := res.MacroNutrients
	assert.Zero(t, m.Protein)
	assert.InDelta(t, 80.0, m.Carbohydrates, 1e-9)
	assert.InDelta(t, 1.5, m.Fat, 1e-9)
	assert.InDelta(t, macro.EstimateCalories(0, 80, 1.5), m.Calories, 1e-9)
	require.NotNil(t, m.Fiber)
	assert.InDelta(t, 9.4, *m.Fiber, 1e-9)
}

func TestAnalyzeRecipe_PremiumSumsWeight(t *testing.T) {
	t.Parallel()

	body := `[{"name":"egg","calories":72,"protein_g":6.3,"serving_size_g":50,"fat_total_g":4.8,"carbohydrates_total_g":0.4},
	          {"name":"toast","calories":80,"protein_g":3,"serving_size_g":30,"fat_total_g":1,"carbohydrates_total_g":15}]`
	c := newTestClient(t, "k", respond(body))

	servings := 2
	res, err := c.AnalyzeRecipe(context.Background(), "2 eggs and 1 slice toast", &servings)
	require.NoError(t, err)
	assert.Equal(t, "API Ninja", res.Source)
	assert.Equal(t, 152.0, res.MacroNutrients.Calories)
	assert.InDelta(t, 9.3, res.MacroNutrients.Protein, 1e-9)
	require.NotNil(t, res.TotalWeight)
	assert.Equal(t, 80.0, *res.TotalWeight)
	assert.Equal(t, &servings, res.Servings)
	require.NotNil(t, res.RecipeIngredients[0].Unit)
	assert.Equal(t, "g", *res.RecipeIngredients[0].Unit)
}

func TestSearchFoodsAndAvailability(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "k", respond(premiumChicken))
	foods, err := c.SearchFoods(context.Background(), "chicken breast", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"chicken breast"}, foods)
	assert.True(t, c.IsAvailable(context.Background()))

	missing := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	foods, err = missing.SearchFoods(context.Background(), "unobtainium", 10)
	require.NoError(t, err)
	assert.Empty(t, foods)
	assert.True(t, missing.IsAvailable(context.Background()))

	assert.False(t, NewClient(config.APINinjasConfig{}).IsAvailable(context.Background()))
}

func TestDetailedNutrients(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "k", respond(premiumChicken))
	nutrients, err := c.DetailedNutrients(context.Background(), "chicken breast")
	require.NoError(t, err)
	require.Len(t, nutrients, 2)
	assert.Equal(t, "Potassium", nutrients[0].Name)
	assert.Equal(t, 256.0, nutrients[0].Value)
	assert.Equal(t, macro.UnitMilligrams, nutrients[0].Unit)
	assert.Equal(t, "Serving Size", nutrients[1].Name)
	assert.True(t, nutrients[1].Per100g)

	free := newTestClient(t, "k", respond(`[{"name":"rice","potassium_mg":58,"serving_size_g":"Only available for premium subscribers.","carbohydrates_total_g":28}]`))
	nutrients, err = free.DetailedNutrients(context.Background(), "rice")
	require.NoError(t, err)
	require.Len(t, nutrients, 1)
	assert.Equal(t, "Potassium", nutrients[0].Name)
}
