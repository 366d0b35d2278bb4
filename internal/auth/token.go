package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"adreset/internal/ad"
	"adreset/internal/config"
	"adreset/internal/database"
)

type ctxKey int

const claimsKey ctxKey = 0

// Claims carries the token identity. The subject is the user's AD GUID:
// it is unique across the forest and survives account renames.
type Claims struct {
	GUID     string `json:"guid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates access tokens and enforces the role
// middleware. Revocation is database-backed: a logged-out token's jti is
// blacklisted until the token would have expired on its own.
type TokenManager struct {
	secret   []byte
	lifetime time.Duration
	db       *database.DB
	adCfg    config.ADConfig
}

func NewTokenManager(cfg config.TokenConfig, adCfg config.ADConfig, db *database.DB) *TokenManager {
	return &TokenManager{
		secret:   []byte(cfg.Secret),
		lifetime: time.Duration(cfg.LifetimeMinutes) * time.Minute,
		db:       db,
		adCfg:    adCfg,
	}
}

// Issue creates a signed token for the user.
func (tm *TokenManager) Issue(guid, username string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		GUID:     guid,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   guid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.lifetime)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Parse validates the token's signature, expiry, and revocation status.
func (tm *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}
	revoked, err := tm.db.IsTokenBlacklisted(claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("the token has been revoked")
	}
	return claims, nil
}

// Revoke blacklists the token until its natural expiry.
func (tm *TokenManager) Revoke(claims *Claims, userID int64) error {
	return tm.db.BlacklistToken(claims.ID, userID, claims.ExpiresAt.Time)
}

// FromRequest extracts and validates the bearer token.
func (tm *TokenManager) FromRequest(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, fmt.Errorf("missing bearer token")
	}
	return tm.Parse(strings.TrimPrefix(header, "Bearer "))
}

// ClaimsFromContext returns the claims a Require* middleware stored.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// RequireUser admits only tokens whose account is currently in one of the
// configured end-user groups. Membership is re-checked against the
// directory on every request, so a group removal takes effect before the
// token expires.
func (tm *TokenManager) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return tm.requireGroup(next, func(engine *ad.Engine, guid string) (bool, error) {
		return engine.CheckUserGroupMembership(guid)
	})
}

// RequireAdmin admits only tokens whose account is currently in one of
// the configured administrator groups.
func (tm *TokenManager) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return tm.requireGroup(next, func(engine *ad.Engine, guid string) (bool, error) {
		return engine.CheckAdminGroupMembership(guid)
	})
}

func (tm *TokenManager) requireGroup(next http.HandlerFunc, member func(*ad.Engine, string) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := tm.FromRequest(r)
		if err != nil {
			jsonError(w, http.StatusUnauthorized, "A valid token is required")
			return
		}

		session := ad.NewSession(tm.adCfg)
		defer session.Close()
		if err := session.ServiceLogin(); err != nil {
			log.Printf("auth: the service login for the group check failed: %v", err)
			jsonError(w, http.StatusInternalServerError, "An unknown issue was encountered. Please contact the administrator for help.")
			return
		}
		engine := ad.NewEngine(session, tm.adCfg)

		ok, err := member(engine, claims.GUID)
		if err != nil {
			log.Printf("auth: the group check for %q failed: %v", claims.Username, err)
			jsonError(w, http.StatusInternalServerError, "An unknown issue was encountered. Please contact the administrator for help.")
			return
		}
		if !ok {
			jsonError(w, http.StatusForbidden, "You are not authorized to use this resource")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	}
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  status,
		"message": message,
	})
}
