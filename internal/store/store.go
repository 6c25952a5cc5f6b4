package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// Store wraps access to the database via a shared *sql.DB.
type Store struct {
	DB *sql.DB
}

// New creates a Store on a shared *sql.DB with pooling.
func New(database *sql.DB) *Store {
	return &Store{DB: database}
}

// Open connects to Postgres using the pgx stdlib driver and applies the
// service's pool settings.
func Open(dsn string) (*Store, error) {
	database, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	database.SetMaxOpenConns(20)
	database.SetMaxIdleConns(10)
	database.SetConnMaxLifetime(30 * time.Minute)
	return New(database), nil
}

// Ping verifies the connection, used by the deep health check.
func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// hashAPIKey hashes a raw API key string using SHA-256 and returns a hex string.
func hashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// APIKey is one row of the api_keys table. The raw key is never stored.
type APIKey struct {
	ID         uuid.UUID
	Label      string
	KeyHash    string
	IsAdmin    bool
	CreatedAt  time.Time
	LastUsedAt sql.NullTime
}

// GetAPIKeyByRawKey looks up an API key by its raw value and records the
// use.
func (s *Store) GetAPIKeyByRawKey(ctx context.Context, rawKey string) (APIKey, error) {
	hash := hashAPIKey(rawKey)

	var key APIKey
	row := s.DB.QueryRowContext(ctx,
		`UPDATE api_keys SET last_used_at = now() WHERE key_hash = $1
		 RETURNING id, label, key_hash, is_admin, created_at, last_used_at`, hash)
	if err := row.Scan(&key.ID, &key.Label, &key.KeyHash, &key.IsAdmin, &key.CreatedAt, &key.LastUsedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return APIKey{}, ErrNotFound
		}
		return APIKey{}, err
	}
	return key, nil
}

// EnsureAdminAPIKey makes sure an admin key with the given raw value
// exists, creating it on first boot. Idempotent across restarts.
func (s *Store) EnsureAdminAPIKey(ctx context.Context, rawKey, label string) (APIKey, error) {
	hash := hashAPIKey(rawKey)

	var key APIKey
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, label, key_hash, is_admin, created_at, last_used_at
		 FROM api_keys WHERE key_hash = $1`, hash)
	err := row.Scan(&key.ID, &key.Label, &key.KeyHash, &key.IsAdmin, &key.CreatedAt, &key.LastUsedAt)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return APIKey{}, err
	}

	key = APIKey{ID: uuid.New(), Label: label, KeyHash: hash, IsAdmin: true}
	row = s.DB.QueryRowContext(ctx,
		`INSERT INTO api_keys (id, label, key_hash, is_admin)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`, key.ID, key.Label, key.KeyHash, key.IsAdmin)
	if err := row.Scan(&key.CreatedAt); err != nil {
		return APIKey{}, err
	}
	return key, nil
}

// CreateRandomAPIKey creates a new random API key (with yomu_ prefix) and
// returns the raw value exactly once; only the hash is persisted.
func (s *Store) CreateRandomAPIKey(ctx context.Context, label string, isAdmin bool) (string, APIKey, error) {
	raw := "yomu_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	key := APIKey{ID: uuid.New(), Label: label, KeyHash: hashAPIKey(raw), IsAdmin: isAdmin}

	row := s.DB.QueryRowContext(ctx,
		`INSERT INTO api_keys (id, label, key_hash, is_admin)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`, key.ID, key.Label, key.KeyHash, key.IsAdmin)
	if err := row.Scan(&key.CreatedAt); err != nil {
		return "", APIKey{}, err
	}
	return raw, key, nil
}

// ParseAudit is one recorded parse outcome. Only envelope fields are
// stored; content is never persisted.
type ParseAudit struct {
	URL         string
	FinalURL    string
	ClientID    string
	Strategy    string
	FetchMethod string
	ErrorCode   string
	Confidence  float64
	Paywalled   bool
	Protected   bool
	DurationMs  int64
}

// InsertParseAudit appends one audit row.
func (s *Store) InsertParseAudit(ctx context.Context, a ParseAudit) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO parse_audit
		 (id, url, final_url, client_id, strategy, fetch_method, error_code, confidence, paywalled, protected, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.New(), a.URL, a.FinalURL, a.ClientID, a.Strategy, a.FetchMethod,
		a.ErrorCode, a.Confidence, a.Paywalled, a.Protected, a.DurationMs)
	return err
}
