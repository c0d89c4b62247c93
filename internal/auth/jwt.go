package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const RoleOperator = "operator"

var (
	ErrNotConfigured      = errors.New("operator access is not configured")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type OperatorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Issuer signs and checks operator tokens with one HS256 key.
type Issuer struct {
	passwordHash string
	key          []byte
	ttl          time.Duration
	now          func() time.Time
}

func NewIssuer(passwordHash, secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		passwordHash: passwordHash,
		key:          []byte(secret),
		ttl:          ttl,
		now:          time.Now,
	}
}

func (i *Issuer) configured() bool {
	return i.passwordHash != "" && len(i.key) > 0
}

// Login checks the operator password and returns a signed token.
func (i *Issuer) Login(password string) (string, time.Time, error) {
	if !i.configured() {
		return "", time.Time{}, ErrNotConfigured
	}
	if !CheckPasswordHash(password, i.passwordHash) {
		return "", time.Time{}, ErrInvalidCredentials
	}

	expires := i.now().Add(i.ttl)
	claims := OperatorClaims{
		Role: RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   RoleOperator,
			IssuedAt:  jwt.NewNumericDate(i.now()),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

func (i *Issuer) Parse(tokenStr string) (*OperatorClaims, error) {
	if !i.configured() {
		return nil, ErrNotConfigured
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&OperatorClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return i.key, nil
		},
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid || claims.Role != RoleOperator {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
