package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"recipe-ingestor/internal/pkg/common"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	recipesTable     = "recipes"
	ingredientsTable = "recipe_ingredients"
)

var recipeColumns = []string{
	"id", "title", "slug", "source_url", "description", "instructions",
	"prep_time", "cook_time", "servings", "cuisine_type", "image_url", "author",
	"rating", "nutrition", "macros", "tags", "dietary_restrictions", "provider",
	"created_at",
}

// StoredRecipe 已儲存的食譜
type StoredRecipe struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	common.RecipeData
}

// DB *pgxpool.Pool 即符合
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RecipeRepo 食譜與食材的 PostgreSQL 儲存
type RecipeRepo struct {
	db DB
}

// NewRecipeRepo 創建儲存庫
func NewRecipeRepo(db DB) *RecipeRepo {
	return &RecipeRepo{db: db}
}

// Save 在同一個交易中寫入食譜與食材；來源網址重複時回傳 ErrAlreadyExists
func (r *RecipeRepo) Save(ctx context.Context, data *common.RecipeData) (uuid.UUID, error) {
	if data == nil {
		return uuid.Nil, fmt.Errorf("save recipe: nil data")
	}
	nutrition, err := jsonValue(data.Nutrition, len(data.Nutrition) == 0)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode nutrition: %w", err)
	}
	macros, err := jsonValue(data.Macros, data.Macros == nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode macros: %w", err)
	}

	id := uuid.New()
	insertRecipe := psql.Insert(recipesTable).
		Columns(recipeColumns[:len(recipeColumns)-1]...).
		Values(
			id, data.Title, slugify(data.Title), data.SourceURL, data.Description, data.Instructions,
			data.PrepTime, data.CookTime, data.Servings, data.CuisineType, data.ImageURL, data.Author,
			data.Rating, nutrition, macros, nonNil(data.Tags), nonNil(data.DietaryRestrictions), data.Provider,
		)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := exec(ctx, tx, insertRecipe); err != nil {
		return uuid.Nil, mapError(err, "insert recipe", data.SourceURL)
	}

	if len(data.Ingredients) > 0 {
		insertIngredients := psql.Insert(ingredientsTable).
			Columns("recipe_id", "position", "name", "quantity", "unit", "notes", "original_text")
		for i, ing := range data.Ingredients {
			insertIngredients = insertIngredients.Values(id, i, ing.Name, ing.Quantity, ing.Unit, ing.Notes, ing.OriginalText)
		}
		if err := exec(ctx, tx, insertIngredients); err != nil {
			return uuid.Nil, mapError(err, "insert ingredients", data.SourceURL)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit: %w", err)
	}

	common.LogDebug("食譜已儲存",
		zap.String("recipe_id", id.String()),
		zap.String("source_url", data.SourceURL),
		zap.Int("ingredients", len(data.Ingredients)),
	)
	return id, nil
}

// ExistsBySourceURL 來源網址是否已儲存
func (r *RecipeRepo) ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error) {
	query, args, err := psql.Select("1").
		Prefix("SELECT EXISTS (").
		From(recipesTable).
		Where(sq.Eq{"source_url": sourceURL}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, err
	}

	var exists bool
	if err := r.db.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, mapError(err, "exists recipe", sourceURL)
	}
	return exists, nil
}

// GetBySourceURL 讀取食譜與依序排列的食材；不存在時回傳 ErrNotFound
func (r *RecipeRepo) GetBySourceURL(ctx context.Context, sourceURL string) (*StoredRecipe, error) {
	query, args, err := psql.Select(recipeColumns...).
		From(recipesTable).
		Where(sq.Eq{"source_url": sourceURL}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var (
		rec       StoredRecipe
		nutrition []byte
		macros    []byte
	)
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&rec.ID, &rec.Title, &rec.Slug, &rec.SourceURL, &rec.Description, &rec.Instructions,
		&rec.PrepTime, &rec.CookTime, &rec.Servings, &rec.CuisineType, &rec.ImageURL, &rec.Author,
		&rec.Rating, &nutrition, &macros, &rec.Tags, &rec.DietaryRestrictions, &rec.Provider,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err, "get recipe", sourceURL)
	}
	if len(nutrition) > 0 {
		if err := json.Unmarshal(nutrition, &rec.Nutrition); err != nil {
			return nil, fmt.Errorf("decode nutrition: %w", err)
		}
	}
	if len(macros) > 0 {
		rec.Macros = &common.MacroNutrition{}
		if err := json.Unmarshal(macros, rec.Macros); err != nil {
			return nil, fmt.Errorf("decode macros: %w", err)
		}
	}

	rec.Ingredients, err = r.ingredients(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *RecipeRepo) ingredients(ctx context.Context, recipeID uuid.UUID) ([]common.IngredientData, error) {
	query, args, err := psql.Select("name", "quantity", "unit", "notes", "original_text").
		From(ingredientsTable).
		Where(sq.Eq{"recipe_id": recipeID}).
		OrderBy("position ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	out := []common.IngredientData{}
	if err := pgxscan.Select(ctx, r.db, &out, query, args...); err != nil {
		return nil, mapError(err, "list ingredients", recipeID.String())
	}
	return out, nil
}

func exec(ctx context.Context, tx pgx.Tx, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, query, args...)
	return err
}

// jsonValue empty 時寫入 NULL
func jsonValue(v any, empty bool) (any, error) {
	if empty {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
