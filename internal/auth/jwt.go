package auth

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles understood by the asset API. Viewers read, editors create and update,
// admins may also delete.
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

var knownRoles = []string{RoleViewer, RoleEditor, RoleAdmin}

var errUnexpectedSigningMethod = errors.New("unexpected signing method")

// Claims is the token payload.
type Claims struct {
	UserID int64    `json:"uid"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claims carry any of roles.
func (c *Claims) HasRole(roles ...string) bool {
	return slices.ContainsFunc(c.Roles, func(r string) bool {
		return slices.Contains(roles, r)
	})
}

// JWTManager signs and verifies HS256 asset API tokens.
type JWTManager struct {
	key      []byte
	issuer   string
	audience string
	expiry   time.Duration
	parser   *jwt.Parser
	now      func() time.Time
}

func NewJWTManager(secret, issuer, audience string, expiry time.Duration) *JWTManager {
	return &JWTManager{
		key:      []byte(secret),
		issuer:   issuer,
		audience: audience,
		expiry:   expiry,
		parser: jwt.NewParser(
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
		),
		now: time.Now,
	}
}

// ValidateConfig rejects settings that cannot produce verifiable tokens.
func (j *JWTManager) ValidateConfig() error {
	switch {
	case len(j.key) < 32:
		return errors.New("JWT secret must be at least 32 characters")
	case j.issuer == "":
		return errors.New("JWT issuer is required")
	case j.audience == "":
		return errors.New("JWT audience is required")
	case j.expiry <= 0:
		return errors.New("JWT expiry must be positive")
	}
	return nil
}

// GenerateToken issues a token for userID valid for the configured expiry.
func (j *JWTManager) GenerateToken(userID int64, roles []string) (string, error) {
	now := j.now()
	claims := &Claims{
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    j.issuer,
			Audience:  jwt.ClaimStrings{j.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.expiry)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature, issuer, audience and expiry.
func (j *JWTManager) ValidateToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := j.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", errUnexpectedSigningMethod, t.Header["alg"])
		}
		return j.key, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRoles splits a comma-separated role list and rejects unknown roles.
func ParseRoles(csv string) ([]string, error) {
	var roles []string
	for _, r := range strings.Split(csv, ",") {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if !slices.Contains(knownRoles, r) {
			return nil, fmt.Errorf("unknown role %q (want one of %s)", r, strings.Join(knownRoles, ", "))
		}
		if !slices.Contains(roles, r) {
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		return nil, errors.New("at least one role is required")
	}
	return roles, nil
}
