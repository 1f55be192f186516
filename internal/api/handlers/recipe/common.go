package recipe

import (
	"context"
	"errors"

	"recipe-ingestor/internal/core/ingredient"
	"recipe-ingestor/internal/core/pipeline"
	coreRecipe "recipe-ingestor/internal/core/recipe"
	"recipe-ingestor/internal/core/scraper"
	"recipe-ingestor/internal/pkg/common"
)

// toAPIError 將核心錯誤對應到 API 錯誤代碼
func toAPIError(err error) error {
	switch {
	case errors.Is(err, coreRecipe.ErrMissingRequiredField):
		return common.ErrMissingField.Wrap(err)
	case errors.Is(err, ingredient.ErrUnparseableIngredient), errors.Is(err, ingredient.ErrEmptyIngredient):
		return common.ErrUnparseable.Wrap(err)
	case errors.Is(err, scraper.ErrHostNotAllowed):
		return common.ErrHostNotAllowed.Wrap(err)
	case errors.Is(err, scraper.ErrFetchFailed), errors.Is(err, scraper.ErrNoRecipe):
		return common.ErrScrapeFailed.Wrap(err)
	case errors.Is(err, pipeline.ErrQueueFull):
		return common.ErrQueueFull.Wrap(err)
	case errors.Is(err, pipeline.ErrQueueClosed):
		return common.ErrServiceUnavailable.Wrap(err)
	case errors.Is(err, context.DeadlineExceeded):
		return common.ErrGatewayTimeout.Wrap(err)
	}
	return err
}
