// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides voter identity tokens, admin keys, and hashing.

# Voter Tokens

A voter identity is a random 256-bit value wrapped in an HS256 JWT:

	token, err := auth.MintVoterToken(secret)
	value, err := auth.VerifyVoterToken(secret, token)

The token travels in the vt cookie. The signature lets the vote path reject
forged or truncated cookies without touching the database; a failed
verification just mints a fresh identity. Only the SHA-256 hash of the
embedded identity value is ever persisted.

# Admin Keys

The operational endpoints are gated by a single admin key derived from the
service secret with HMAC-SHA256:

	adminKey := auth.GenerateAdminKey(secret)
	err := auth.ValidateAdminKey(secret, presentedKey)

The key is URL-safe base64 without padding. Since it's deterministic, the
same secret always produces the same key, and nothing needs to be stored in
the database. Validation compares in constant time.

# Hashing

HashString is the one hash used for stored identifiers:

	hash := auth.HashString(token)  // 64 hex chars

Voter tokens, client IPs, and user agents are stored only as SHA-256 hex.

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
