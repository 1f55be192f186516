package macro

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-ingestor/internal/core/cache"
	"recipe-ingestor/internal/infrastructure/config"
	"recipe-ingestor/internal/pkg/common"
)

type stubAnalyzer struct {
	name      string
	available bool
	calls     atomic.Int32
	result    *MacroAnalysisResult
	err       error
	foods     []string
}

func (s *stubAnalyzer) Name() string { return s.name }

func (s *stubAnalyzer) AnalyzeIngredient(_ context.Context, name string, grams float64) (*MacroAnalysisResult, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	r := *s.result
	r.FoodName = name
	r.AnalysisType = AnalysisIngredient
	return &r, nil
}

func (s *stubAnalyzer) AnalyzeRecipe(_ context.Context, text string, servings *int) (*MacroAnalysisResult, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	r := *s.result
	r.FoodName = TruncateName(text)
	r.AnalysisType = AnalysisRecipe
	r.Servings = servings
	return &r, nil
}

func (s *stubAnalyzer) SearchFoods(context.Context, string, int) ([]string, error) {
	return s.foods, s.err
}

func (s *stubAnalyzer) IsAvailable(context.Context) bool { return s.available }

func success(source string, calories float64) *MacroAnalysisResult {
	return &MacroAnalysisResult{
		Status:         StatusSuccess,
		Source:         source,
		Confidence:     0.8,
		MacroNutrients: &MacroNutrients{Calories: calories, Protein: 10, Carbohydrates: 20, Fat: 5},
	}
}

func TestEstimateCalories(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 4*10+4*20+9*5.0, EstimateCalories(10, 20, 5), 1e-9)

	m := &MacroNutrients{Carbohydrates: 10, Fat: 2}
	assert.True(t, m.FillCalories())
	assert.InDelta(t, 58.0, m.Calories, 1e-9)
	assert.False(t, m.FillCalories())

	assert.False(t, (&MacroNutrients{}).FillCalories())
	var nilMacros *MacroNutrients
	assert.False(t, nilMacros.FillCalories())
}

func TestMacroNutrients_AddAndScale(t *testing.T) {
	t.Parallel()

	total := &MacroNutrients{}
	total.Add(&MacroNutrients{Calories: 100, Protein: 5, Fiber: common.Ptr(2.0)})
	total.Add(&MacroNutrients{Calories: 50, Fat: 3, Sodium: common.Ptr(100.0)})
	total.Add(nil)

	assert.Equal(t, 150.0, total.Calories)
	assert.Equal(t, 5.0, total.Protein)
	assert.Equal(t, 3.0, total.Fat)
	require.NotNil(t, total.Fiber)
	assert.Equal(t, 2.0, *total.Fiber)
	require.NotNil(t, total.Sodium)
	assert.Equal(t, 100.0, *total.Sodium)
	assert.Nil(t, total.Sugar)

	half := total.Scale(0.5)
	assert.Equal(t, 75.0, half.Calories)
	assert.Equal(t, 1.0, *half.Fiber)
	assert.Nil(t, half.Sugar)
}

func TestToMacroNutrition(t *testing.T) {
	t.Parallel()

	m := &MacroNutrients{Calories: 800, Protein: 40, Carbohydrates: 80, Fat: 20, Sugar: common.Ptr(8.0)}

	per := m.ToMacroNutrition(common.Ptr(4))
	assert.Equal(t, 200.0, *per.Calories)
	assert.Equal(t, 10.0, *per.Protein)
	assert.Equal(t, 2.0, *per.Sugar)
	assert.Nil(t, per.Fiber)

	whole := m.ToMacroNutrition(nil)
	assert.Equal(t, 800.0, *whole.Calories)

	var nilMacros *MacroNutrients
	assert.Nil(t, nilMacros.ToMacroNutrition(nil))
}

func TestTruncateName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", TruncateName("short"))
	long := strings.Repeat("a", 60)
	assert.Equal(t, strings.Repeat("a", 50)+"...", TruncateName(long))
}

func TestManager_AnalyzeIngredient(t *testing.T) {
	t.Parallel()

	notFound := &stubAnalyzer{name: "first", result: &MacroAnalysisResult{Status: StatusNotFound, ErrorMessage: "nope"}}
	broken := &stubAnalyzer{name: "second", err: errors.New("connection reset")}
	good := &stubAnalyzer{name: "third", result: success("good", 120)}
	m := NewManager(notFound, broken, good)

	res := m.AnalyzeIngredient(context.Background(), "chicken breast", 0)
	require.True(t, res.OK())
	assert.Equal(t, "good", res.Source)
	assert.Equal(t, "chicken breast", res.FoodName)
	assert.Equal(t, int32(1), notFound.calls.Load())
	assert.Equal(t, int32(1), broken.calls.Load())
	assert.Equal(t, int32(1), good.calls.Load())
}

func TestManager_AllFail(t *testing.T) {
	t.Parallel()

	m := NewManager(
		&stubAnalyzer{name: "a", err: fmt.Errorf("%w: no key", ErrUnavailable)},
		&stubAnalyzer{name: "b", result: &MacroAnalysisResult{Status: StatusFailed, ErrorMessage: "recipe analysis is not supported"}},
	)

	res := m.AnalyzeRecipe(context.Background(), "2 cups rice, 1 lb chicken", common.Ptr(4))
	require.NotNil(t, res)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, AnalysisRecipe, res.AnalysisType)
	assert.Equal(t, "2 cups rice, 1 lb chicken", res.FoodName)
	assert.Contains(t, res.ErrorMessage, "a: macro analyzer unavailable: no key")
	assert.Contains(t, res.ErrorMessage, "b: recipe analysis is not supported")
}

func TestManager_SearchFoods(t *testing.T) {
	t.Parallel()

	m := NewManager(
		&stubAnalyzer{name: "empty", foods: []string{}},
		&stubAnalyzer{name: "full", foods: []string{"Apples, raw", "Apple juice"}},
	)
	assert.Equal(t, []string{"Apples, raw", "Apple juice"}, m.SearchFoods(context.Background(), "apple", 5))

	none := NewManager(&stubAnalyzer{name: "err", err: errors.New("down")})
	assert.Equal(t, []string{}, none.SearchFoods(context.Background(), "apple", 5))
}

func TestManager_Batch(t *testing.T) {
	t.Parallel()

	good := &stubAnalyzer{name: "good", available: true, result: success("good", 100)}
	m := NewManager(&stubAnalyzer{name: "down", err: errors.New("down")}, good)
	assert.True(t, m.IsAvailable(context.Background()))
	assert.Equal(t, map[string]bool{"down": false, "good": true}, m.ProviderStatus(context.Background()))

	names := make([]string, MaxBatchSize+2)
	for i := range names {
		names[i] = fmt.Sprintf("food %d", i)
	}
	results := m.AnalyzeMultipleIngredients(context.Background(), names)
	require.Len(t, results, len(names))
	assert.True(t, results[0].OK())
	assert.True(t, results[MaxBatchSize-1].OK())
	assert.Equal(t, StatusFailed, results[MaxBatchSize].Status)

	recipes := m.AnalyzeMultipleRecipes(context.Background(), []string{"soup", "salad"})
	require.Len(t, recipes, 2)
	assert.Equal(t, "salad", recipes[1].FoodName)
}

func TestCachedAnalyzer(t *testing.T) {
	t.Parallel()

	store := cache.NewMemoryStore(config.CacheConfig{MaxSize: 10, TTL: time.Hour})
	t.Cleanup(func() { _ = store.Close() })

	inner := &stubAnalyzer{name: "inner", result: success("inner", 200)}
	a := NewCachedAnalyzer(inner, store, time.Hour)

	first, err := a.AnalyzeIngredient(context.Background(), "Rice", 150)
	require.NoError(t, err)
	second, err := a.AnalyzeIngredient(context.Background(), " rice ", 150)
	require.NoError(t, err)
	assert.Equal(t, int32(1), inner.calls.Load())
	assert.Equal(t, first.MacroNutrients, second.MacroNutrients)

	_, err = a.AnalyzeIngredient(context.Background(), "rice", 200)
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.calls.Load())

	_, err = a.AnalyzeRecipe(context.Background(), "rice and beans", nil)
	require.NoError(t, err)
	_, err = a.AnalyzeRecipe(context.Background(), "rice and beans", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestCachedAnalyzer_SkipsFailures(t *testing.T) {
	t.Parallel()

	store := cache.NewMemoryStore(config.CacheConfig{MaxSize: 10, TTL: time.Hour})
	t.Cleanup(func() { _ = store.Close() })

	inner := &stubAnalyzer{name: "inner", result: &MacroAnalysisResult{Status: StatusNotFound}}
	a := NewCachedAnalyzer(inner, store, time.Hour)

	for i := 0; i < 2; i++ {
		res, err := a.AnalyzeIngredient(context.Background(), "unobtainium", 100)
		require.NoError(t, err)
		assert.Equal(t, StatusNotFound, res.Status)
	}
	assert.Equal(t, int32(2), inner.calls.Load())
}
