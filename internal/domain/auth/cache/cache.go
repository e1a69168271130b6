// Package cache defines the key/value contract the user directory relies on
// and the tagged encoding every adapter writes.
//
// Each stored payload starts with a tag: "s:" for a raw string and "j:" for a
// JSON-encoded structured value. Untagged payloads (entries written before the
// tag existed) are read as structured when they hold valid JSON and as raw
// strings otherwise.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/user-service/internal/domain/auth/errors"
)

var (
	// ErrMiss is returned by Get when the key is absent or expired.
	ErrMiss = errors.New("cache miss")
	// ErrUnavailable wraps transport failures talking to the cache.
	ErrUnavailable = customErrors.ErrCacheUnavailable
	// ErrNotStructured is returned by Value.Decode for raw string values.
	ErrNotStructured = errors.New("cache value is not structured")
)

const (
	rawTag        = "s:"
	structuredTag = "j:"
)

type Kind uint8

const (
	KindRaw Kind = iota + 1
	KindStructured
)

func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindStructured:
		return "structured"
	default:
		return "unknown"
	}
}

// Cache is a key/value store with per-key expiration. A ttl of zero stores
// the value without expiry.
type Cache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (Value, error)
	Delete(ctx context.Context, key string) (int64, error)
	Ping(ctx context.Context) error
}

// Value is a decoded cache payload.
type Value struct {
	kind Kind
	data string
}

func RawValue(s string) Value {
	return Value{kind: KindRaw, data: s}
}

func (v Value) Kind() Kind { return v.kind }

// String returns the payload text: the raw string or the JSON document.
func (v Value) String() string { return v.data }

// Decode unmarshals a structured value into dst.
func (v Value) Decode(dst any) error {
	if v.kind != KindStructured {
		return ErrNotStructured
	}
	if err := json.Unmarshal([]byte(v.data), dst); err != nil {
		return fmt.Errorf("decode cached value: %w", err)
	}
	return nil
}

// Encode renders value in its tagged wire form.
func Encode(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return rawTag + v, nil
	case []byte:
		return rawTag + string(v), nil
	case Value:
		if v.kind == KindStructured {
			return structuredTag + v.data, nil
		}
		return rawTag + v.data, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode cache value: %w", err)
	}
	return structuredTag + string(b), nil
}

// Decode classifies a stored payload exactly once.
func Decode(payload string) Value {
	switch {
	case strings.HasPrefix(payload, structuredTag):
		return Value{kind: KindStructured, data: payload[len(structuredTag):]}
	case strings.HasPrefix(payload, rawTag):
		return Value{kind: KindRaw, data: payload[len(rawTag):]}
	case json.Valid([]byte(payload)):
		return Value{kind: KindStructured, data: payload}
	default:
		return Value{kind: KindRaw, data: payload}
	}
}
