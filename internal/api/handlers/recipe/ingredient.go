package recipe

import (
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-ingestor/internal/core/ingredient"
	"recipe-ingestor/internal/pkg/common"
)

// maxIngredientLines 單次請求可解析的行數
const maxIngredientLines = 200

// ParseIngredientsRequest 食材行解析請求
type ParseIngredientsRequest struct {
	Lines  []string `json:"lines" binding:"required"`
	Strict *bool    `json:"strict,omitempty"` // 覆寫伺服器預設的嚴格模式
}

// LineError 單行解析失敗
type LineError struct {
	Index int    `json:"index"`
	Line  string `json:"line"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// ParseIngredientsResponse 依輸入順序的解析結果，失敗行列於 errors
type ParseIngredientsResponse struct {
	Ingredients []*common.IngredientData `json:"ingredients"`
	Errors      []LineError              `json:"errors"`
}

// IngredientHandler 食材解析處理程序
type IngredientHandler struct {
	parser  *ingredient.Parser
	lenient *ingredient.Parser
	strict  *ingredient.Parser
}

// NewIngredientHandler parser 為伺服器預設模式
func NewIngredientHandler(parser *ingredient.Parser) *IngredientHandler {
	if parser == nil {
		parser = ingredient.NewParser(ingredient.Config{})
	}
	return &IngredientHandler{
		parser:  parser,
		lenient: ingredient.NewParser(ingredient.Config{}),
		strict:  ingredient.NewParser(ingredient.Config{Strict: true}),
	}
}

// HandleParse 解析食材行；個別行失敗不影響其他行
func (h *IngredientHandler) HandleParse(c *gin.Context) {
	var req ParseIngredientsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效", zap.Error(err), zap.String("request_id", requestid.Get(c)))
		common.WriteError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}
	if len(req.Lines) > maxIngredientLines {
		common.WriteError(c, common.NewValidationError("too many lines"))
		return
	}

	parser := h.parser
	if req.Strict != nil {
		parser = h.lenient
		if *req.Strict {
			parser = h.strict
		}
	}

	resp := ParseIngredientsResponse{
		Ingredients: make([]*common.IngredientData, len(req.Lines)),
		Errors:      []LineError{},
	}
	for i, line := range req.Lines {
		data, err := parser.Parse(line)
		if err != nil {
			ce := common.AsCustomError(toAPIError(err))
			resp.Errors = append(resp.Errors, LineError{Index: i, Line: line, Code: ce.Code, Error: err.Error()})
			continue
		}
		resp.Ingredients[i] = data
	}

	common.LogInfo("食材解析請求完成",
		zap.Int("lines", len(req.Lines)),
		zap.Int("errors", len(resp.Errors)),
		zap.Bool("strict", parser.Strict()),
		zap.String("request_id", requestid.Get(c)),
	)
	c.JSON(http.StatusOK, resp)
}
