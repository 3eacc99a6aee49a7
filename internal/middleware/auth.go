package middleware

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/cuetable/internal/admin"
	"github.com/playmatatu/cuetable/internal/config"
)

var ErrInvalidSessionToken = errors.New("invalid session token")

// IssueSessionToken signs a JWT granting control of one practice session.
func IssueSessionToken(cfg *config.Config, sessionToken string) (string, time.Time, error) {
	ttl := time.Duration(cfg.SessionTimeoutMin) * time.Minute
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	exp := time.Now().Add(ttl)
	claims := jwt.MapClaims{"session": sessionToken, "exp": exp.Unix()}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseSessionToken verifies a session JWT and returns the session it grants.
func ParseSessionToken(cfg *config.Config, raw string) (string, error) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidSessionToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidSessionToken
	}
	session, ok := claims["session"].(string)
	if !ok || session == "" {
		return "", ErrInvalidSessionToken
	}
	return session, nil
}

// SessionAuth validates the bearer JWT and checks it was issued for the :token in the path
func SessionAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		session, err := ParseSessionToken(cfg, strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if session != c.Param("token") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token not valid for this session"})
			return
		}

		c.Set("session_token", session)
		c.Next()
	}
}

// AdminAuth checks X-Admin-Phone / X-Admin-Token against admin_accounts.
// Sets admin_phone in the context.
func AdminAuth(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "admin API requires a database"})
			return
		}

		phone := strings.TrimSpace(c.GetHeader("X-Admin-Phone"))
		token := strings.TrimSpace(c.GetHeader("X-Admin-Token"))
		if phone == "" || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin credentials required"})
			return
		}

		acc, err := admin.ValidateAdminPhoneAndToken(db, phone, token, c.ClientIP())
		if err != nil {
			log.Printf("[ADMIN] Rejected admin request from %s: %v", c.ClientIP(), err)
			admin.LogAdminAction(db, phone, c.ClientIP(), c.FullPath(), "auth", map[string]interface{}{"reason": err.Error()}, false)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin credentials"})
			return
		}

		c.Set("admin_phone", acc.Phone)
		c.Next()
	}
}
