//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"recipe-ingestor/internal/infrastructure/config"
	"recipe-ingestor/internal/pkg/common"
)

func setupRepo(t *testing.T) *RecipeRepo {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	require.NoError(t, Migrate(ctx, dsn))

	pool, err := NewPool(ctx, config.DatabaseConfig{URL: dsn, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewRecipeRepo(pool)
}

func TestRecipeRepo_Integration(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	data := &common.RecipeData{
		Title:        "Crème Brûlée",
		SourceURL:    "https://www.budgetbytes.com/creme-brulee/",
		Description:  "Classic custard.",
		Instructions: []string{"Bake.", "Torch."},
		Ingredients: []common.IngredientData{
			{Name: "cream", Quantity: common.Ptr(2.0), Unit: common.Ptr("cups"), OriginalText: "2 cups cream"},
			{Name: "sugar", Notes: common.Ptr("divided"), OriginalText: "sugar (divided)"},
		},
		Servings:            common.Ptr(4),
		Rating:              common.Ptr(4.5),
		Nutrition:           map[string]any{"calories": "320 kcal"},
		Macros:              &common.MacroNutrition{Calories: common.Ptr(320.0)},
		Tags:                []string{"Dessert"},
		DietaryRestrictions: []string{"vegetarian"},
		Provider:            "budgetbytes.com",
	}

	exists, err := repo.ExistsBySourceURL(ctx, data.SourceURL)
	require.NoError(t, err)
	assert.False(t, exists)

	id, err := repo.Save(ctx, data)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	exists, err = repo.ExistsBySourceURL(ctx, data.SourceURL)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := repo.GetBySourceURL(ctx, data.SourceURL)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "creme-brulee", got.Slug)
	assert.Equal(t, data.Instructions, got.Instructions)
	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, "cream", got.Ingredients[0].Name)
	assert.Equal(t, 2.0, *got.Ingredients[0].Quantity)
	assert.Nil(t, got.Ingredients[1].Quantity)
	assert.Equal(t, "divided", *got.Ingredients[1].Notes)
	assert.Equal(t, 4, *got.Servings)
	assert.Nil(t, got.PrepTime)
	assert.Equal(t, "320 kcal", got.Nutrition["calories"])
	assert.Equal(t, 320.0, *got.Macros.Calories)
	assert.Equal(t, []string{"Dessert"}, got.Tags)

	_, err = repo.Save(ctx, data)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = repo.GetBySourceURL(ctx, "https://www.budgetbytes.com/missing/")
	assert.ErrorIs(t, err, ErrNotFound)
}
