// Package password hashes and verifies user passwords.
//
// New hashes use the configured algorithm. Verify picks the algorithm from
// the stored hash, so bcrypt and argon2id hashes stay verifiable after the
// configured algorithm changes.
package password

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

const (
	Bcrypt   = "bcrypt"
	Argon2id = "argon2id"

	DefaultBcryptCost = 10

	// bcrypt ignores or rejects input past this many bytes.
	maxBcryptInput = 72
)

var (
	ErrEmptyPassword = errors.New("password is empty")
	ErrUnknownHash   = errors.New("unrecognised password hash format")
	ErrUnknownHasher = errors.New("unknown password hasher")
)

var DefaultArgon2Params = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

type Config struct {
	Algorithm  string
	BcryptCost int
	Argon2     *argon2id.Params
	// Pepper is appended to the plaintext before hashing.
	Pepper string
	// Concurrency caps simultaneous hash operations; zero means GOMAXPROCS.
	Concurrency int
}

type Hasher struct {
	algorithm  string
	bcryptCost int
	argon2     *argon2id.Params
	pepper     string
	sem        *semaphore.Weighted
	dummyHash  string
}

func New(cfg Config) (*Hasher, error) {
	h := &Hasher{
		algorithm:  strings.ToLower(cfg.Algorithm),
		bcryptCost: cfg.BcryptCost,
		argon2:     cfg.Argon2,
		pepper:     cfg.Pepper,
	}
	if h.algorithm == "" {
		h.algorithm = Bcrypt
	}
	if h.algorithm != Bcrypt && h.algorithm != Argon2id {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHasher, cfg.Algorithm)
	}
	if h.bcryptCost == 0 {
		h.bcryptCost = DefaultBcryptCost
	}
	if h.bcryptCost < bcrypt.MinCost || h.bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", h.bcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if h.argon2 == nil {
		h.argon2 = DefaultArgon2Params
	}

	n := cfg.Concurrency
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	h.sem = semaphore.NewWeighted(int64(n))

	dummy, err := h.hash("unused-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	h.dummyHash = dummy
	return h, nil
}

// Hash returns a one-way hash of plaintext in the configured algorithm.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	return h.hash(plaintext)
}

// Verify reports whether plaintext matches hash. A mismatch is (false, nil);
// an error means the hash could not be checked at all.
func (h *Hasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	return h.verify(plaintext, hash)
}

// DummyVerify does the work of a failed Verify against a fixed hash. Call it
// when there is no stored hash to compare with.
func (h *Hasher) DummyVerify(ctx context.Context, plaintext string) {
	_, _ = h.Verify(ctx, plaintext, h.dummyHash)
}

func (h *Hasher) hash(plaintext string) (string, error) {
	peppered := plaintext + h.pepper
	switch h.algorithm {
	case Argon2id:
		return argon2id.CreateHash(peppered, h.argon2)
	default:
		b, err := bcrypt.GenerateFromPassword(h.bcryptInput(peppered), h.bcryptCost)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func (h *Hasher) verify(plaintext, hash string) (bool, error) {
	peppered := plaintext + h.pepper
	switch {
	case isBcrypt(hash):
		ok, err := compareBcrypt(hash, h.bcryptInput(peppered))
		if ok || err != nil || h.pepper != "" || len(peppered) <= maxBcryptInput {
			return ok, err
		}
		// Unpeppered hashes written by earlier versions of the service were
		// made from the first 72 bytes of long passwords.
		return compareBcrypt(hash, []byte(peppered)[:maxBcryptInput])
	case strings.HasPrefix(hash, "$argon2id$"):
		return argon2id.ComparePasswordAndHash(peppered, hash)
	default:
		return false, ErrUnknownHash
	}
}

// bcryptInput returns peppered unchanged when bcrypt can take all of it, and
// otherwise an HMAC-SHA256 digest of it keyed by the pepper, base64 encoded.
func (h *Hasher) bcryptInput(peppered string) []byte {
	if len(peppered) <= maxBcryptInput {
		return []byte(peppered)
	}
	mac := hmac.New(sha256.New, []byte(h.pepper))
	mac.Write([]byte(peppered))
	out := make([]byte, base64.RawStdEncoding.EncodedLen(sha256.Size))
	base64.RawStdEncoding.Encode(out, mac.Sum(nil))
	return out
}

func compareBcrypt(hash string, input []byte) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), input)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, err
	}
}

func isBcrypt(hash string) bool {
	for _, p := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(hash, p) {
			return true
		}
	}
	return false
}
