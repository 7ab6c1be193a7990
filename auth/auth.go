// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrInvalidToken    = errors.New("invalid voter token")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// MintVoterToken creates a new signed voter identity token: a random
// 256-bit value wrapped in an HS256 JWT. The signature lets the server
// reject forged or truncated cookies without a database lookup.
func MintVoterToken(secret string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate voter identity: %w", err)
	}

	claims := jwt.MapClaims{
		"t":   base64.RawURLEncoding.EncodeToString(b),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign voter token: %w", err)
	}
	return signed, nil
}

// VerifyVoterToken checks the signature on a presented voter token and
// returns the embedded identity value. Any parse or signature failure comes
// back as ErrInvalidToken; callers mint a fresh identity in that case.
func VerifyVoterToken(secret, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	value, ok := claims["t"].(string)
	if !ok || value == "" {
		return "", ErrInvalidToken
	}

	return value, nil
}

// HashString returns the full SHA-256 hex digest. Voter tokens, IPs, and
// user agents are stored only in this form.
func HashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// GenerateAdminKey derives the operational admin key from the service
// secret. Deterministic and verifiable, so it never needs to be stored.
func GenerateAdminKey(secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte("admin-key"))
	sum := h.Sum(nil)
	return base64.RawURLEncoding.EncodeToString(sum)
}

// ValidateAdminKey checks a presented admin key against the service secret
// in constant time.
func ValidateAdminKey(secret, adminKey string) error {
	expected := GenerateAdminKey(secret)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}
