// Package cache stores remote API responses in SQLite so repeated queries
// inside the TTL skip the network.
package cache

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/ziadkadry99/repolens/internal/db"
	"github.com/ziadkadry99/repolens/internal/metrics"
)

// DefaultTTL is used when the store is created with a non-positive TTL.
const DefaultTTL = 10 * time.Minute

// Encoder and decoder are safe for concurrent use.
var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("cache: zstd encoder initialization failed: " + err.Error())
	}
	decoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("cache: zstd decoder initialization failed: " + err.Error())
	}
}

// Key derives a cache key from its parts.
func Key(parts ...string) string {
	h := blake3.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Store is a TTL response cache backed by the response_cache table.
type Store struct {
	db     *db.DB
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewStore creates a cache store.
func NewStore(d *db.DB, ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: d, ttl: ttl, now: time.Now, logger: logger}
}

// TTL returns how long entries stay valid.
func (s *Store) TTL() time.Duration { return s.ttl }

// Get returns the body stored under key if it has not expired. Failures are
// logged and reported as a miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	var (
		body    []byte
		size    int
		expires time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT body, size, expires_at FROM response_cache WHERE key = ?`, key,
	).Scan(&body, &size, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordCacheLookup("miss")
		return nil, false
	}
	if err != nil {
		s.logger.Warn("cache lookup failed", "error", err)
		metrics.RecordCacheLookup("error")
		return nil, false
	}
	if !s.now().Before(expires) {
		metrics.RecordCacheLookup("expired")
		return nil, false
	}

	out, err := decoder.DecodeAll(body, make([]byte, 0, size))
	if err != nil {
		s.logger.Warn("cache entry corrupt", "error", err)
		metrics.RecordCacheLookup("error")
		return nil, false
	}
	metrics.RecordCacheLookup("hit")
	return out, true
}

// Put stores body under key for the store's TTL.
func (s *Store) Put(ctx context.Context, key string, body []byte) error {
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO response_cache (key, body, size, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET body = excluded.body, size = excluded.size,
		   created_at = excluded.created_at, expires_at = excluded.expires_at`,
		key, encoder.EncodeAll(body, nil), len(body), now, now.Add(s.ttl),
	)
	if err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}

// Purge deletes expired entries and returns how many were removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM response_cache WHERE expires_at <= ?`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	return res.RowsAffected()
}
