package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-ingestor/internal/core/cuisine"
	"recipe-ingestor/internal/core/fallback"
	"recipe-ingestor/internal/core/macro"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type classifierStub struct{}

func (classifierStub) Name() string { return "stub" }

func (classifierStub) ClassifyRecipe(_ context.Context, text string) (*cuisine.Classification, error) {
	if strings.Contains(strings.ToLower(text), "taco") {
		return cuisine.NewClassification("Mexican", 0.9, nil, ""), nil
	}
	return cuisine.NewClassification("Italian", 0.7, nil, ""), nil
}

func (c classifierStub) ClassifyBatch(ctx context.Context, texts []string) ([]cuisine.Classification, error) {
	return cuisine.ClassifyEach(ctx, c, texts)
}

func (classifierStub) IsReady(context.Context) bool { return true }

type analyzerStub struct{}

func (analyzerStub) Name() string { return "stub" }

func (analyzerStub) AnalyzeIngredient(_ context.Context, name string, grams float64) (*macro.MacroAnalysisResult, error) {
	if name == "unobtainium" {
		return nil, errors.New("no data")
	}
	return &macro.MacroAnalysisResult{
		FoodName:       name,
		Status:         macro.StatusSuccess,
		AnalysisType:   macro.AnalysisIngredient,
		MacroNutrients: &macro.MacroNutrients{Calories: grams, Protein: 1},
		Source:         "stub",
	}, nil
}

func (analyzerStub) AnalyzeRecipe(_ context.Context, text string, servings *int) (*macro.MacroAnalysisResult, error) {
	return &macro.MacroAnalysisResult{
		FoodName:       macro.TruncateName(text),
		Status:         macro.StatusSuccess,
		AnalysisType:   macro.AnalysisRecipe,
		MacroNutrients: &macro.MacroNutrients{Calories: 600, Protein: 20},
		Servings:       servings,
		Source:         "stub",
	}, nil
}

func (analyzerStub) SearchFoods(_ context.Context, query string, limit int) ([]string, error) {
	return []string{query + " raw", query + " cooked"}[:min(limit, 2)], nil
}

func (analyzerStub) IsAvailable(context.Context) bool { return true }

func newEnrichRouter(h *EnrichmentHandler) *gin.Engine {
	r := gin.New()
	r.POST("/cuisine/classify", h.ClassifyCuisine)
	r.POST("/macros/ingredient", h.AnalyzeIngredient)
	r.POST("/macros/recipe", h.AnalyzeRecipe)
	r.GET("/macros/search", h.SearchFoods)
	return r
}

func newStubHandler() *EnrichmentHandler {
	return NewEnrichmentHandler(cuisine.NewManager(classifierStub{}), macro.NewManager(analyzerStub{}))
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestClassifyCuisine(t *testing.T) {
	t.Parallel()

	r := newEnrichRouter(newStubHandler())

	w := post(r, "/cuisine/classify", `{"text":"beef tacos with salsa"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var res cuisine.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, fallback.StatusSuccess, res.Status)
	assert.Equal(t, "Mexican", res.Classification.PrimaryCuisine)

	w = post(r, "/cuisine/classify", `{"title":"Pasta","ingredients":["basil","tomato"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "Italian", res.Classification.PrimaryCuisine)

	// 無效文字以 FAILED 佔位，長度不變
	w = post(r, "/cuisine/classify", `{"texts":["fish tacos","ab","lasagna"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var batch struct {
		Results []cuisine.Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &batch))
	require.Len(t, batch.Results, 3)
	assert.Equal(t, fallback.StatusSuccess, batch.Results[0].Status)
	assert.Equal(t, fallback.StatusFailed, batch.Results[1].Status)
	assert.Equal(t, "Italian", batch.Results[2].Classification.PrimaryCuisine)

	assert.Equal(t, http.StatusBadRequest, post(r, "/cuisine/classify", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(r, "/cuisine/classify", `not json`).Code)
}

func TestAnalyzeIngredient(t *testing.T) {
	t.Parallel()

	r := newEnrichRouter(newStubHandler())

	w := post(r, "/macros/ingredient", `{"name":"rice","grams":150}`)
	require.Equal(t, http.StatusOK, w.Code)
	var res macro.MacroAnalysisResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, macro.StatusSuccess, res.Status)
	assert.Equal(t, 150.0, res.MacroNutrients.Calories)

	// grams 省略時以 100g 計
	w = post(r, "/macros/ingredient", `{"name":"rice"}`)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, macro.DefaultIngredientGrams, res.MacroNutrients.Calories)

	w = post(r, "/macros/ingredient", `{"names":["rice","unobtainium"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var batch struct {
		Results []macro.MacroAnalysisResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &batch))
	require.Len(t, batch.Results, 2)
	assert.Equal(t, macro.StatusSuccess, batch.Results[0].Status)
	assert.NotEqual(t, macro.StatusSuccess, batch.Results[1].Status)
	assert.Equal(t, "unobtainium", batch.Results[1].FoodName)

	assert.Equal(t, http.StatusBadRequest, post(r, "/macros/ingredient", `{"grams":10}`).Code)
}

func TestAnalyzeRecipe(t *testing.T) {
	t.Parallel()

	r := newEnrichRouter(newStubHandler())

	w := post(r, "/macros/recipe", `{"text":"2 cups rice\n1 onion","servings":2}`)
	require.Equal(t, http.StatusOK, w.Code)
	var res macro.MacroAnalysisResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, macro.AnalysisRecipe, res.AnalysisType)
	require.NotNil(t, res.Servings)
	assert.Equal(t, 2, *res.Servings)

	w = post(r, "/macros/recipe", `{"texts":["1 egg","2 eggs"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"results"`)

	assert.Equal(t, http.StatusBadRequest, post(r, "/macros/recipe", `{"text":"  "}`).Code)
}

func TestSearchFoods(t *testing.T) {
	t.Parallel()

	r := newEnrichRouter(newStubHandler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/macros/search?q=rice&limit=1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Foods []string `json:"foods"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"rice raw"}, resp.Foods)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/macros/search", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrichment_Disabled(t *testing.T) {
	t.Parallel()

	r := newEnrichRouter(NewEnrichmentHandler(nil, nil))

	assert.Equal(t, http.StatusServiceUnavailable, post(r, "/cuisine/classify", `{"text":"tacos"}`).Code)
	assert.Equal(t, http.StatusServiceUnavailable, post(r, "/macros/ingredient", `{"name":"rice"}`).Code)
	assert.Equal(t, http.StatusServiceUnavailable, post(r, "/macros/recipe", `{"text":"rice"}`).Code)
}
