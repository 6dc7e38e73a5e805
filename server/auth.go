package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	jwtExpiry       = 24 * time.Hour
	jwtIssuer       = "tankarena"
	secretKey       = "jwt_secret"
	minNameLen      = 2
	tokenRateWindow = 60 * time.Second
	maxTokenIssues  = 10
)

// Auth issues and verifies the tokens that authorize a command connection.
// Accounts live elsewhere; a token only binds a display name.
type Auth struct {
	secret   []byte
	required bool

	// Rate limiting for token issues (IP -> attempts)
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth creates the token handler. An empty secret is loaded from (or
// generated into) the settings table.
func NewAuth(db *DB, secret string, required bool) (*Auth, error) {
	key := []byte(secret)
	if secret == "" {
		var err error
		if key, err = loadOrCreateSecret(db); err != nil {
			return nil, err
		}
	}
	return &Auth{
		secret:   key,
		required: required,
		rateMap:  make(map[string]*rateEntry),
	}, nil
}

// Required reports whether joining needs a valid token
func (a *Auth) Required() bool {
	return a.required
}

// loadOrCreateSecret loads the signing secret from the database, or
// generates and persists a new one if none exists
func loadOrCreateSecret(db *DB) ([]byte, error) {
	if db != nil {
		h, err := db.GetSetting(secretKey)
		if err != nil {
			return nil, fmt.Errorf("load jwt secret: %w", err)
		}
		if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
			return b, nil
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate jwt secret: %w", err)
	}
	if db != nil {
		if err := db.SetSetting(secretKey, hex.EncodeToString(secret)); err != nil {
			Logger.Warn().Err(err).Msg("could not persist jwt secret")
		}
	}
	return secret, nil
}

// IssueToken signs a token for the given display name
func (a *Auth) IssueToken(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) < minNameLen || len(name) > maxNameLen {
		return "", fmt.Errorf("name must be %d-%d characters", minNameLen, maxNameLen)
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    jwtIssuer,
		Subject:   name,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(jwtExpiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateToken verifies a token and returns the name it was issued for
func (a *Auth) ValidateToken(tokenStr string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(jwtIssuer))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid token")
	}
	return claims.Subject, nil
}

// CheckRate limits token issues per IP
func (a *Auth) CheckRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(tokenRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxTokenIssues
}

// GenerateGuestName creates a unique guest name like "Guest_a3f2"
func GenerateGuestName() string {
	b := make([]byte, 3)
	rand.Read(b)
	return "Guest_" + hex.EncodeToString(b)
}
