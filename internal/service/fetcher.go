package service

import (
	"context"

	"insightsfetch/internal/model"
	"insightsfetch/internal/query"
)

type ExceptionFetcher interface {
	FetchRecentExceptions(ctx context.Context, params query.Params) ([]model.ExceptionRecord, error)
}
