package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/user-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/user-service/internal/domain/auth/model"
	"github.com/Miraines/MoonyAndStarry/user-service/internal/infra/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	minSecretLen = 32
	leeway       = 2 * time.Minute
)

// SessionClaims is the payload of a session token.
type SessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type JwtUtilImpl struct {
	secret   []byte
	ttl      time.Duration
	issuer   string
	audience string
	now      func() time.Time
}

func NewJWTUtil(cfg *config.Config) (*JwtUtilImpl, error) {
	if len(cfg.JWTSecret) < minSecretLen {
		return nil, customErrors.WrapInternal(
			fmt.Errorf("secret is %d bytes, need at least %d", len(cfg.JWTSecret), minSecretLen), "NewJWTUtil")
	}
	return &JwtUtilImpl{
		secret:   []byte(cfg.JWTSecret),
		ttl:      cfg.JWTTTL,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		now:      time.Now,
	}, nil
}

// Issue signs a session token for c. exp is zero when tokens do not expire.
func (j *JwtUtilImpl) Issue(c model.Claims) (token string, exp time.Time, err error) {
	now := j.now()
	claims := SessionClaims{
		Username: c.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatInt(c.UserID, 10),
			Issuer:   j.issuer,
			IssuedAt: jwt.NewNumericDate(now),
			ID:       uuid.NewString(),
		},
	}
	if j.audience != "" {
		claims.Audience = jwt.ClaimStrings{j.audience}
	}
	if j.ttl > 0 {
		exp = now.Add(j.ttl)
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign session token")
	}
	return signed, exp, nil
}

// Verify checks the signature and time claims of raw and returns its
// payload. Every rejection is ErrInvalidToken.
func (j *JwtUtilImpl) Verify(raw string) (model.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(leeway),
		jwt.WithTimeFunc(j.now),
	}
	if j.ttl > 0 {
		opts = append(opts, jwt.WithExpirationRequired())
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}
	if j.audience != "" {
		opts = append(opts, jwt.WithAudience(j.audience))
	}

	token, err := jwt.ParseWithClaims(raw, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return model.Claims{}, customErrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return model.Claims{}, customErrors.WrapInternal(
			errors.New("claims not SessionClaims"), "Verify")
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || claims.Username == "" {
		return model.Claims{}, customErrors.ErrInvalidToken
	}
	return model.Claims{UserID: id, Username: claims.Username}, nil
}
