package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is not found in cache
var ErrCacheMiss = errors.New("cache miss")

// Cache defines the cache interface
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NoteKey derives the cache key for a generated note draft. The
// transcript is hashed so clinical text never appears in key space.
func NoteKey(visitType, transcript string) string {
	sum := sha256.Sum256([]byte(visitType + "\x00" + transcript))
	return "note:" + hex.EncodeToString(sum[:])
}
