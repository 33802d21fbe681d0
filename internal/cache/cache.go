// Package cache define un cache de bytes con TTL. El verifier lo usa para
// el documento JWKS remoto.
package cache

import "time"

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Delete(key string)
}
