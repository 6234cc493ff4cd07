package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/m-mizutani/goerr/v2"

	"ptoinfo/internal/platform/querier"
)

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

// IdempotencyKey identifies one replayable submission. Hash is the digest of
// the request body; a blank Key disables replay.
type IdempotencyKey struct {
	TenantID string
	UserID   string
	Endpoint string
	Key      string
	Hash     string
}

func (k IdempotencyKey) values() []any {
	return []any{k.TenantID, k.UserID, k.Key, k.Endpoint}
}

// IdempotencyStore keeps the first response of each leave request
// submission so client retries replay it.
type IdempotencyStore struct {
	db querier.Querier
}

func NewIdempotencyStore(db querier.Querier) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *IdempotencyStore) disabled(k IdempotencyKey) bool {
	return s == nil || s.db == nil || k.Key == ""
}

// Lookup returns the stored response for k. Reusing a key with another body
// yields ErrIdempotencyConflict.
func (s *IdempotencyStore) Lookup(ctx context.Context, k IdempotencyKey) (json.RawMessage, bool, error) {
	if s.disabled(k) {
		return nil, false, nil
	}

	var (
		hash     string
		response json.RawMessage
	)
	err := s.db.QueryRow(ctx, `
    SELECT request_hash, response_json FROM idempotency_keys
    WHERE tenant_id = $1 AND user_id = $2 AND key = $3 AND endpoint = $4
  `, k.values()...).Scan(&hash, &response)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, goerr.Wrap(err, "failed to read idempotency key", goerr.V("endpoint", k.Endpoint))
	case hash != k.Hash:
		return nil, false, ErrIdempotencyConflict
	}
	return response, true, nil
}

func (s *IdempotencyStore) Remember(ctx context.Context, k IdempotencyKey, response json.RawMessage) error {
	if s.disabled(k) {
		return nil
	}
	args := append(k.values(), k.Hash, response)
	tag, err := s.db.Exec(ctx, `
    INSERT INTO idempotency_keys (tenant_id, user_id, key, endpoint, request_hash, response_json)
    VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (tenant_id, user_id, key, endpoint) DO UPDATE
      SET response_json = EXCLUDED.response_json
      WHERE idempotency_keys.request_hash = EXCLUDED.request_hash
  `, args...)
	if err != nil {
		return goerr.Wrap(err, "failed to save idempotency key", goerr.V("endpoint", k.Endpoint))
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}
