package ingredient

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func TestParser_Parse(t *testing.T) {
	t.Parallel()

	p := NewParser(Config{Strict: true})

	tests := []struct {
		name     string
		line     string
		quantity *float64
		unit     *string
		ingName  string
		notes    *string
	}{
		{name: "quantity unit name", line: "2 cups flour", quantity: f(2), unit: strPtr("cups"), ingName: "flour"},
		{name: "notes in parens", line: "1 tsp salt (fine grain)", quantity: f(1), unit: strPtr("tsp"), ingName: "salt", notes: strPtr("fine grain")},
		{name: "unit with period", line: "1 tbsp. olive oil", quantity: f(1), unit: strPtr("tbsp"), ingName: "olive oil"},
		{name: "plural matched before singular", line: "3 tablespoons butter", quantity: f(3), unit: strPtr("tablespoons"), ingName: "butter"},
		{name: "unit case folded", line: "2 Cups sugar", quantity: f(2), unit: strPtr("cups"), ingName: "sugar"},
		{name: "quantity no unit", line: "3 eggs", quantity: f(3), ingName: "eggs"},
		{name: "no quantity", line: "salt and pepper to taste", ingName: "salt and pepper to taste"},
		{name: "mixed fraction", line: "1 1/2 cups milk", quantity: f(1.5), unit: strPtr("cups"), ingName: "milk"},
		{name: "unicode glyph", line: "½ cup water", quantity: f(0.5), unit: strPtr("cup"), ingName: "water"},
		{name: "digit and glyph", line: "1¼ cups broth", quantity: f(1.25), unit: strPtr("cups"), ingName: "broth"},
		{name: "simple fraction", line: "3/4 tsp cumin", quantity: f(0.75), unit: strPtr("tsp"), ingName: "cumin"},
		{name: "attached metric unit", line: "500g pasta", quantity: f(500), unit: strPtr("g"), ingName: "pasta"},
		{name: "single letter unit needs boundary", line: "2 large eggs", quantity: f(2), ingName: "large eggs"},
		{name: "unit prefix of word not matched", line: "2 candy canes", quantity: f(2), ingName: "candy canes"},
		{name: "cost stripped before parsing", line: "2 tomatoes (vine ripe, $1.28)", quantity: f(2), ingName: "tomatoes", notes: strPtr("vine ripe")},
		{name: "can with size note", line: "1 can (15 oz.) black beans ($0.89)", quantity: f(1), unit: strPtr("can"), ingName: "black beans", notes: strPtr("15 oz.")},
		{name: "pinch", line: "1 pinch red pepper flakes", quantity: f(1), unit: strPtr("pinch"), ingName: "red pepper flakes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.line)
			require.NoError(t, err)
			require.NotNil(t, got)

			assert.Equal(t, tt.ingName, got.Name)
			assert.Equal(t, tt.line, got.OriginalText)
			assert.Equal(t, tt.unit, got.Unit)
			assert.Equal(t, tt.notes, got.Notes)
			if tt.quantity == nil {
				assert.Nil(t, got.Quantity)
			} else {
				require.NotNil(t, got.Quantity)
				assert.InDelta(t, *tt.quantity, *got.Quantity, 1e-9)
			}
		})
	}
}

func TestParser_StrictRejectsMissingName(t *testing.T) {
	t.Parallel()

	p := NewParser(Config{Strict: true})
	for _, line := range []string{"2 cups", "($1.00)", "3 (divided)"} {
		_, err := p.Parse(line)
		require.Error(t, err, line)
		assert.ErrorIs(t, err, ErrUnparseableIngredient)

		var ue *UnparseableIngredientError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, line, ue.Line)
	}
}

func TestParser_LenientFallsBackToCleanedLine(t *testing.T) {
	t.Parallel()

	p := NewParser(Config{})
	assert.False(t, p.Strict())

	got, err := p.Parse("2 cups ($0.50)")
	require.NoError(t, err)
	assert.Equal(t, "2 cups", got.Name)
	assert.Nil(t, got.Quantity)
	assert.Nil(t, got.Unit)
	assert.Nil(t, got.Notes)
	assert.Equal(t, "2 cups ($0.50)", got.OriginalText)

	got, err = p.Parse("($1.00)")
	require.NoError(t, err)
	assert.Equal(t, "($1.00)", got.Name)
}

func TestParser_EmptyLine(t *testing.T) {
	t.Parallel()

	for _, strict := range []bool{true, false} {
		p := NewParser(Config{Strict: strict})
		_, err := p.Parse("   ")
		assert.ErrorIs(t, err, ErrEmptyIngredient)
	}
}

func TestParser_ExtraUnits(t *testing.T) {
	t.Parallel()

	p := NewParser(Config{ExtraUnits: []string{"handfuls", "handful"}})
	got, err := p.Parse("2 handfuls spinach")
	require.NoError(t, err)
	assert.Equal(t, strPtr("handfuls"), got.Unit)
	assert.Equal(t, "spinach", got.Name)
}

func TestParser_ParseAll(t *testing.T) {
	t.Parallel()

	lines := []string{"2 cups flour", "", "1 tsp salt", "2 cups"}

	lenient := NewParser(Config{})
	got, err := lenient.ParseAll(lines)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "flour", got[0].Name)
	assert.Equal(t, "salt", got[1].Name)
	assert.Equal(t, "2 cups", got[2].Name)

	strict := NewParser(Config{Strict: true})
	_, err = strict.ParseAll(lines)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyIngredient)

	_, err = strict.ParseAll([]string{"2 cups flour", "2 cups"})
	assert.ErrorIs(t, err, ErrUnparseableIngredient)
}

func TestExtractNameAndNotes(t *testing.T) {
	t.Parallel()

	name, notes := ExtractNameAndNotes("  chicken breast (boneless) (skinless) ")
	assert.Equal(t, "chicken breast", name)
	require.NotNil(t, notes)
	assert.Equal(t, "boneless", *notes)

	name, notes = ExtractNameAndNotes("onion")
	assert.Equal(t, "onion", name)
	assert.Nil(t, notes)

	name, notes = ExtractNameAndNotes("carrot ( )")
	assert.Equal(t, "carrot", name)
	assert.Nil(t, notes)
}

func TestCompileUnitPattern_LongestFirst(t *testing.T) {
	t.Parallel()

	re := compileUnitPattern([]string{"c", "cup", "cups", "CUP"})
	m := re.FindStringSubmatch("cups of tea")
	require.NotNil(t, m)
	assert.Equal(t, "cups", m[1])
	assert.Len(t, CommonUnits, 60)
}
