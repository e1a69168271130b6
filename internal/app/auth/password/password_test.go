package password_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Miraines/MoonyAndStarry/user-service/internal/app/auth/password"
	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fastArgon = &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newHasher(t *testing.T, cfg password.Config) *password.Hasher {
	t.Helper()
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.MinCost
	}
	if cfg.Argon2 == nil {
		cfg.Argon2 = fastArgon
	}
	h, err := password.New(cfg)
	require.NoError(t, err)
	return h
}

func TestBcryptRoundTrip(t *testing.T) {
	h := newHasher(t, password.Config{Algorithm: password.Bcrypt})
	ctx := context.Background()

	hash, err := h.Hash(ctx, "s3cret!")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$2a$"))
	require.NotContains(t, hash, "s3cret!")

	ok, err := h.Verify(ctx, "s3cret!", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = h.Verify(ctx, "wrong", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestArgon2idRoundTrip(t *testing.T) {
	h := newHasher(t, password.Config{Algorithm: password.Argon2id})
	ctx := context.Background()

	hash, err := h.Hash(ctx, "s3cret!")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := h.Verify(ctx, "s3cret!", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = h.Verify(ctx, "wrong", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyDispatchesOnHashFormat(t *testing.T) {
	ctx := context.Background()
	bc := newHasher(t, password.Config{Algorithm: password.Bcrypt})
	ag := newHasher(t, password.Config{Algorithm: password.Argon2id})

	bcHash, err := bc.Hash(ctx, "pw")
	require.NoError(t, err)
	agHash, err := ag.Hash(ctx, "pw")
	require.NoError(t, err)

	ok, err := ag.Verify(ctx, "pw", bcHash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = bc.Verify(ctx, "pw", agHash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyLegacyBcryptPrefixes(t *testing.T) {
	h := newHasher(t, password.Config{})
	raw, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	legacy := "$2b$" + string(raw)[4:]

	ok, err := h.Verify(context.Background(), "pw", legacy)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSaltedHashesDiffer(t *testing.T) {
	h := newHasher(t, password.Config{})
	a, err := h.Hash(context.Background(), "same")
	require.NoError(t, err)
	b, err := h.Hash(context.Background(), "same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestPepper(t *testing.T) {
	ctx := context.Background()
	peppered := newHasher(t, password.Config{Pepper: "pepper"})
	plain := newHasher(t, password.Config{})

	hash, err := peppered.Hash(ctx, "pw")
	require.NoError(t, err)

	ok, err := plain.Verify(ctx, "pw", hash)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = peppered.Verify(ctx, "pw", hash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEmptyPasswordRejected(t *testing.T) {
	h := newHasher(t, password.Config{})
	_, err := h.Hash(context.Background(), "")
	require.ErrorIs(t, err, password.ErrEmptyPassword)
}

func TestUnknownHashFormat(t *testing.T) {
	h := newHasher(t, password.Config{})
	ok, err := h.Verify(context.Background(), "pw", "plaintext-in-db")
	require.ErrorIs(t, err, password.ErrUnknownHash)
	require.False(t, ok)
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := password.New(password.Config{Algorithm: "md5"})
	require.ErrorIs(t, err, password.ErrUnknownHasher)

	_, err = password.New(password.Config{BcryptCost: 99})
	require.Error(t, err)
}

func TestDummyVerifyReturns(t *testing.T) {
	h := newHasher(t, password.Config{})
	h.DummyVerify(context.Background(), "anything")
}

func TestConcurrencyBoundHonoursContext(t *testing.T) {
	h := newHasher(t, password.Config{Concurrency: 1})
	hash, err := h.Hash(context.Background(), "pw")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			ok, err := h.Verify(ctx, "pw", hash)
			if err != nil || !ok {
				t.Errorf("verify: %v %v", ok, err)
			}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	_, err = h.Verify(cancelled, "pw", hash)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBcryptLongPasswords(t *testing.T) {
	ctx := context.Background()
	cyrillic := strings.Repeat("я", 72) // 144 bytes

	tests := []struct {
		name     string
		pepper   string
		password string
	}{
		{name: "multibyte", password: cyrillic},
		{name: "pepper pushes past limit", pepper: strings.Repeat("p", 32), password: strings.Repeat("a", 50)},
		{name: "multibyte with pepper", pepper: strings.Repeat("p", 32), password: cyrillic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHasher(t, password.Config{Algorithm: password.Bcrypt, Pepper: tt.pepper})

			hash, err := h.Hash(ctx, tt.password)
			require.NoError(t, err)

			ok, err := h.Verify(ctx, tt.password, hash)
			require.NoError(t, err)
			require.True(t, ok)

			// Same first 72 bytes, different tail.
			ok, err = h.Verify(ctx, tt.password+"x", hash)
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestBcryptTruncatedLegacyHash(t *testing.T) {
	ctx := context.Background()
	long := strings.Repeat("я", 50) // 100 bytes
	legacy, err := bcrypt.GenerateFromPassword([]byte(long)[:72], bcrypt.MinCost)
	require.NoError(t, err)

	h := newHasher(t, password.Config{Algorithm: password.Bcrypt})
	ok, err := h.Verify(ctx, long, string(legacy))
	require.NoError(t, err)
	require.True(t, ok)

	peppered := newHasher(t, password.Config{Algorithm: password.Bcrypt, Pepper: "pepper"})
	ok, err = peppered.Verify(ctx, long, string(legacy))
	require.NoError(t, err)
	require.False(t, ok)
}
