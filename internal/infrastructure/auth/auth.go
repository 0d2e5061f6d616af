package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: bad signature, expired,
// malformed, wrong algorithm. Callers refuse the connection; there is no
// retry without a new token.
var ErrInvalidToken = errors.New("auth: invalid token")

// Identity is what a verified handshake token resolves to.
type Identity struct {
	UserID      string
	DisplayName string
}

// Verifier validates handshake tokens. The gateway consumes this interface;
// session issuance lives with the platform's auth service.
type Verifier interface {
	Verify(token string) (Identity, error)
}

type Claims struct {
	DisplayName string `json:"name"`
	jwt.RegisteredClaims
}

// JWTVerifier verifies HS256 access tokens minted by the platform.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

var _ Verifier = (*JWTVerifier)(nil)

func (v *JWTVerifier) Verify(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: claims.Subject, DisplayName: claims.DisplayName}, nil
}

// GenerateAccessToken mints an HS256 token. Used by the platform's session
// service and by tests.
func GenerateAccessToken(userID, displayName, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// BearerToken extracts the token from the Authorization header or, for
// websocket handshakes where headers are awkward, the token query param.
func BearerToken(c *gin.Context) string {
	if authz := c.GetHeader("Authorization"); len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return c.Query("token")
}

// Middleware guards REST endpoints; it stores the verified identity in the
// gin context under "identity".
func Middleware(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		id, err := v.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("identity", id)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by Middleware.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get("identity")
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
