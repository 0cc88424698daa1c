package auth

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/joho/godotenv"
)

// RoleCustomer is the role claim carried by storefront customers
const RoleCustomer = "ROLE_USER"

var (
	secretMu  sync.RWMutex
	secretKey []byte
)

func init() {
	_ = godotenv.Load()
	SetSecret(os.Getenv("JWT_SECRET"))
}

// SetSecret replaces the HMAC secret. An empty secret switches to unverified decoding,
// which is what a client holding a token issued elsewhere can do.
func SetSecret(secret string) {
	secret = strings.TrimSpace(secret)
	secretMu.Lock()
	defer secretMu.Unlock()
	if secret == "" {
		secretKey = nil
		return
	}
	secretKey = []byte(secret)
}

// Claims is the subset of token claims the storefront uses
type Claims struct {
	UserID    string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// IsCustomer reports whether the token belongs to a storefront customer rather than an admin
func (c Claims) IsCustomer() bool {
	return c.Role == RoleCustomer
}

// Expired reports whether the token has an expiry in the past relative to now
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ParseAndValidateToken parses a JWT token string and returns its claims.
// With a configured secret the signature is verified; otherwise the token is only decoded.
// Expired tokens are rejected in both modes.
func ParseAndValidateToken(tokenStr string) (*Claims, error) {
	tokenStr = strings.TrimSpace(strings.TrimPrefix(tokenStr, "Bearer "))
	if tokenStr == "" {
		return nil, fmt.Errorf("missing token")
	}

	secretMu.RLock()
	key := secretKey
	secretMu.RUnlock()

	var mapClaims jwt.MapClaims
	if key != nil {
		token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		})
		if err != nil || token == nil || !token.Valid {
			return nil, fmt.Errorf("invalid or expired token")
		}
		mc, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return nil, fmt.Errorf("invalid token claims")
		}
		mapClaims = mc
	} else {
		token, _, err := jwt.NewParser().ParseUnverified(tokenStr, jwt.MapClaims{})
		if err != nil {
			return nil, fmt.Errorf("malformed token: %w", err)
		}
		mc, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return nil, fmt.Errorf("invalid token claims")
		}
		mapClaims = mc
	}

	claims := claimsFrom(mapClaims)
	if claims.Expired(time.Now()) {
		return nil, fmt.Errorf("invalid or expired token")
	}
	return claims, nil
}

func claimsFrom(mc jwt.MapClaims) *Claims {
	c := &Claims{}
	for _, k := range []string{"sub", "userId", "user_id", "id"} {
		if v, ok := mc[k]; ok {
			c.UserID = fmt.Sprint(v)
			break
		}
	}
	if v, ok := mc["email"].(string); ok {
		c.Email = v
	}
	if v, ok := mc["role"].(string); ok {
		c.Role = v
	}
	if exp, ok := mc["exp"].(float64); ok {
		c.ExpiresAt = time.Unix(int64(exp), 0)
	}
	if c.UserID == "" {
		c.UserID = c.Email
	}
	return c
}
