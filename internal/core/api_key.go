package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/bgpvpn/internal/model"
	"github.com/edvin/bgpvpn/internal/platform"
)

// KeyPrefix starts every generated API key.
const KeyPrefix = "bgp_"

// ErrUnauthenticated is returned by Authenticate for unknown or revoked keys.
var ErrUnauthenticated = errors.New("invalid API key")

// APIKeyService manages API key operations against the database.
type APIKeyService struct {
	db DB
}

// NewAPIKeyService creates a new APIKeyService.
func NewAPIKeyService(db DB) *APIKeyService {
	return &APIKeyService{db: db}
}

// Create generates a new API key for tenantID, stores the hash, and returns
// the model along with the raw key string. The raw key must be shown to the
// user exactly once.
func (s *APIKeyService) Create(ctx context.Context, name, tenantID string, isAdmin bool) (*model.APIKey, string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return nil, "", fmt.Errorf("generate api key: %w", err)
	}
	rawKey := KeyPrefix + hex.EncodeToString(rawBytes)

	key, err := s.CreateWithRawKey(ctx, name, rawKey, tenantID, isAdmin)
	if err != nil {
		return nil, "", err
	}
	return key, rawKey, nil
}

// CreateWithRawKey stores an API key with a caller-provided raw key value.
// Used for well-known dev/test keys where the raw value must be deterministic.
func (s *APIKeyService) CreateWithRawKey(ctx context.Context, name, rawKey, tenantID string, isAdmin bool) (*model.APIKey, error) {
	if tenantID == "" {
		return nil, invalid("tenant_id", "must not be empty")
	}
	if err := checkText("tenant_id", tenantID); err != nil {
		return nil, err
	}
	if err := checkText("name", name); err != nil {
		return nil, err
	}
	if len(rawKey) < 12 {
		return nil, invalid("key", "must be at least 12 characters")
	}

	key := &model.APIKey{
		ID:        platform.NewID(),
		Name:      name,
		KeyHash:   HashKey(rawKey),
		KeyPrefix: rawKey[:12],
		TenantID:  tenantID,
		IsAdmin:   isAdmin,
	}

	err := s.db.QueryRow(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, tenant_id, is_admin, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now()) RETURNING created_at`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.TenantID, key.IsAdmin,
	).Scan(&key.CreatedAt)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("api key %s: %w", key.KeyPrefix, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("insert api key: %w", err)
	}
	return key, nil
}

// Authenticate resolves a raw key to the identity it acts as.
func (s *APIKeyService) Authenticate(ctx context.Context, rawKey string) (*model.Identity, error) {
	var identity model.Identity
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, is_admin FROM api_keys WHERE key_hash = $1 AND revoked_at IS NULL`,
		HashKey(rawKey),
	).Scan(&identity.KeyID, &identity.TenantID, &identity.IsAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate api key: %w", err)
	}
	return &identity, nil
}

// List returns all API keys, newest first.
func (s *APIKeyService) List(ctx context.Context) ([]model.APIKey, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, key_prefix, tenant_id, is_admin, created_at, revoked_at FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []model.APIKey
	for rows.Next() {
		var k model.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyPrefix, &k.TenantID, &k.IsAdmin, &k.CreatedAt, &k.RevokedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api keys: %w", err)
	}
	return keys, nil
}

// Revoke soft-deletes an API key by setting revoked_at.
func (s *APIKeyService) Revoke(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE api_keys SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL", id,
	)
	if err != nil {
		return fmt.Errorf("revoke api key %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("api key %s not found or already revoked: %w", id, ErrNotFound)
	}
	return nil
}

// HashKey returns the stored form of a raw API key.
func HashKey(rawKey string) string {
	hash := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(hash[:])
}
