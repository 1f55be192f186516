package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound 查無資料
	ErrNotFound = errors.New("recipe not found")
	// ErrAlreadyExists 來源網址重複
	ErrAlreadyExists = errors.New("recipe already exists")
)

// mapError 將 pgx 錯誤轉為套件錯誤；context 錯誤原樣包裝
func mapError(err error, op, key string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", op, key, err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", op, key, ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s %s: %w", op, key, ErrAlreadyExists)
	}
	return fmt.Errorf("%s %s: %w", op, key, err)
}
