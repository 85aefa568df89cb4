package repository

import (
	"context"
	"time"
)

// IdempotencyRow mirrors one row of idempotency_keys.
type IdempotencyRow struct {
	IdempotencyKey string
	RequestHash    string
	Method         string
	Path           string
	ResponseStatus int32
	ResponseBody   []byte
	ContentType    string
	InProgress     bool
	CreatedAt      time.Time
}

func (r *Repository) GetIdempotencyKey(ctx context.Context, key string) (IdempotencyRow, error) {
	var row IdempotencyRow
	query := `SELECT idempotency_key, request_hash, method, path, response_status, response_body, content_type, in_progress, created_at
		FROM idempotency_keys WHERE idempotency_key = $1`
	err := r.db.QueryRow(ctx, query, key).Scan(
		&row.IdempotencyKey, &row.RequestHash, &row.Method, &row.Path,
		&row.ResponseStatus, &row.ResponseBody, &row.ContentType, &row.InProgress, &row.CreatedAt,
	)
	return row, err
}

// ReserveIdempotencyKey claims a key for an in-flight request. The insert is
// skipped when the key already exists, which pgx reports as ErrNoRows.
func (r *Repository) ReserveIdempotencyKey(ctx context.Context, key, requestHash, method, path string) (IdempotencyRow, error) {
	var row IdempotencyRow
	query := `INSERT INTO idempotency_keys (idempotency_key, request_hash, method, path, in_progress, created_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW())
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING idempotency_key, request_hash, method, path, response_status, response_body, content_type, in_progress, created_at`
	err := r.db.QueryRow(ctx, query, key, requestHash, method, path).Scan(
		&row.IdempotencyKey, &row.RequestHash, &row.Method, &row.Path,
		&row.ResponseStatus, &row.ResponseBody, &row.ContentType, &row.InProgress, &row.CreatedAt,
	)
	return row, err
}

func (r *Repository) FinalizeIdempotencyKey(ctx context.Context, key, requestHash string, status int32, body []byte, contentType string) (IdempotencyRow, error) {
	var row IdempotencyRow
	query := `UPDATE idempotency_keys
		SET response_status = $1, response_body = $2, content_type = $3, in_progress = FALSE
		WHERE idempotency_key = $4 AND request_hash = $5
		RETURNING idempotency_key, request_hash, method, path, response_status, response_body, content_type, in_progress, created_at`
	err := r.db.QueryRow(ctx, query, status, body, contentType, key, requestHash).Scan(
		&row.IdempotencyKey, &row.RequestHash, &row.Method, &row.Path,
		&row.ResponseStatus, &row.ResponseBody, &row.ContentType, &row.InProgress, &row.CreatedAt,
	)
	return row, err
}
