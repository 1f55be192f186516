// Package handlers 菜系分類與營養分析的 HTTP 處理程序
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-ingestor/internal/core/cuisine"
	"recipe-ingestor/internal/core/macro"
	"recipe-ingestor/internal/pkg/common"
)

// ClassifyRequest 三選一：texts 批次、text 單筆、title 加 ingredients
type ClassifyRequest struct {
	Text        string   `json:"text,omitempty"`
	Texts       []string `json:"texts,omitempty"`
	Title       string   `json:"title,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
}

// IngredientMacroRequest names 為批次
type IngredientMacroRequest struct {
	Name  string   `json:"name,omitempty"`
	Names []string `json:"names,omitempty"`
	Grams float64  `json:"grams,omitempty"`
}

// RecipeMacroRequest texts 為批次
type RecipeMacroRequest struct {
	Text     string   `json:"text,omitempty"`
	Texts    []string `json:"texts,omitempty"`
	Servings *int     `json:"servings,omitempty"`
}

// EnrichmentHandler 菜系與營養處理器；任一 manager 為 nil 時對應路由回傳 503
type EnrichmentHandler struct {
	cuisine *cuisine.Manager
	macros  *macro.Manager
}

// NewEnrichmentHandler 創建處理器
func NewEnrichmentHandler(cuisineManager *cuisine.Manager, macroManager *macro.Manager) *EnrichmentHandler {
	return &EnrichmentHandler{
		cuisine: cuisineManager,
		macros:  macroManager,
	}
}

// ClassifyCuisine 菜系分類
func (h *EnrichmentHandler) ClassifyCuisine(c *gin.Context) {
	if h.cuisine == nil {
		common.WriteError(c, common.ErrServiceUnavailable)
		return
	}
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}
	ctx := c.Request.Context()

	switch {
	case len(req.Texts) > 0:
		c.JSON(http.StatusOK, gin.H{"results": h.cuisine.ClassifyBatch(ctx, req.Texts)})
	case strings.TrimSpace(req.Text) != "":
		c.JSON(http.StatusOK, h.cuisine.ClassifyRecipe(ctx, req.Text))
	case strings.TrimSpace(req.Title) != "" || len(req.Ingredients) > 0:
		c.JSON(http.StatusOK, h.cuisine.ClassifyRecipeFromData(ctx, req.Title, req.Ingredients))
	default:
		common.WriteError(c, common.NewValidationError("text, texts or title is required"))
	}
}

// AnalyzeIngredient 單一或批次食材營養分析
func (h *EnrichmentHandler) AnalyzeIngredient(c *gin.Context) {
	if h.macros == nil {
		common.WriteError(c, common.ErrServiceUnavailable)
		return
	}
	var req IngredientMacroRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}
	ctx := c.Request.Context()

	switch {
	case len(req.Names) > 0:
		c.JSON(http.StatusOK, gin.H{"results": h.macros.AnalyzeMultipleIngredients(ctx, req.Names)})
	case strings.TrimSpace(req.Name) != "":
		res := h.macros.AnalyzeIngredient(ctx, strings.TrimSpace(req.Name), req.Grams)
		common.LogInfo("食材營養分析完成",
			zap.String("food", req.Name),
			zap.String("status", string(res.Status)),
			zap.String("source", res.Source),
			zap.String("request_id", requestid.Get(c)),
		)
		c.JSON(http.StatusOK, res)
	default:
		common.WriteError(c, common.NewValidationError("name or names is required"))
	}
}

// AnalyzeRecipe 單一或批次食譜營養分析
func (h *EnrichmentHandler) AnalyzeRecipe(c *gin.Context) {
	if h.macros == nil {
		common.WriteError(c, common.ErrServiceUnavailable)
		return
	}
	var req RecipeMacroRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}
	ctx := c.Request.Context()

	switch {
	case len(req.Texts) > 0:
		c.JSON(http.StatusOK, gin.H{"results": h.macros.AnalyzeMultipleRecipes(ctx, req.Texts)})
	case strings.TrimSpace(req.Text) != "":
		c.JSON(http.StatusOK, h.macros.AnalyzeRecipe(ctx, req.Text, req.Servings))
	default:
		common.WriteError(c, common.NewValidationError("text or texts is required"))
	}
}

// SearchFoods 食物名稱搜尋
func (h *EnrichmentHandler) SearchFoods(c *gin.Context) {
	if h.macros == nil {
		common.WriteError(c, common.ErrServiceUnavailable)
		return
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		common.WriteError(c, common.NewValidationError("q is required"))
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	c.JSON(http.StatusOK, gin.H{"foods": h.macros.SearchFoods(c.Request.Context(), q, limit)})
}
