// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	tests := []struct {
		name    string
		byteLen int
		wantLen int // hex encoded length = byteLen * 2
	}{
		{"8 bytes", 8, 16},
		{"16 bytes", 16, 32},
		{"24 bytes", 24, 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := GenerateID(tt.byteLen)
			if err != nil {
				t.Fatalf("GenerateID() error = %v", err)
			}
			if len(id) != tt.wantLen {
				t.Errorf("GenerateID() length = %d, want %d", len(id), tt.wantLen)
			}
			// Verify it's valid hex
			for _, c := range id {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("GenerateID() contains invalid hex char: %c", c)
				}
			}
		})
	}

	// Test randomness - two IDs should be different
	id1, _ := GenerateID(16)
	id2, _ := GenerateID(16)
	if id1 == id2 {
		t.Error("GenerateID() produced duplicate IDs (extremely unlikely)")
	}
}

func TestMintAndVerifyVoterToken(t *testing.T) {
	secret := "test-secret"

	token, err := MintVoterToken(secret)
	if err != nil {
		t.Fatalf("MintVoterToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("MintVoterToken() returned empty token")
	}

	// A compact JWT has three dot-separated segments
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Errorf("MintVoterToken() segments = %d, want 3", len(parts))
	}

	value, err := VerifyVoterToken(secret, token)
	if err != nil {
		t.Fatalf("VerifyVoterToken() error = %v", err)
	}
	if value == "" {
		t.Error("VerifyVoterToken() returned empty identity value")
	}

	// Verification is stable
	value2, err := VerifyVoterToken(secret, token)
	if err != nil {
		t.Fatalf("VerifyVoterToken() second call error = %v", err)
	}
	if value != value2 {
		t.Errorf("VerifyVoterToken() = %q then %q, want identical", value, value2)
	}

	// Each mint carries a fresh identity
	token2, err := MintVoterToken(secret)
	if err != nil {
		t.Fatalf("MintVoterToken() error = %v", err)
	}
	value3, err := VerifyVoterToken(secret, token2)
	if err != nil {
		t.Fatalf("VerifyVoterToken() error = %v", err)
	}
	if value == value3 {
		t.Error("MintVoterToken() produced duplicate identity values")
	}
}

func TestVerifyVoterTokenRejects(t *testing.T) {
	secret := "test-secret"
	token, err := MintVoterToken(secret)
	if err != nil {
		t.Fatalf("MintVoterToken() error = %v", err)
	}

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", "other-secret", token},
		{"empty token", secret, ""},
		{"garbage", secret, "not-a-token"},
		{"tampered payload", secret, tamper(token)},
		{"truncated", secret, token[:len(token)-5]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := VerifyVoterToken(tt.secret, tt.token); err != ErrInvalidToken {
				t.Errorf("VerifyVoterToken() error = %v, want %v", err, ErrInvalidToken)
			}
		})
	}
}

// tamper flips a character in the middle segment so the signature no longer
// matches.
func tamper(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || len(parts[1]) == 0 {
		return token + "x"
	}
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	parts[1] = string(payload)
	return strings.Join(parts, ".")
}

func TestHashString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// Standard SHA-256 vectors
		{"empty", "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"abc", "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HashString(tt.input); got != tt.want {
				t.Errorf("HashString() = %s, want %s", got, tt.want)
			}
		})
	}

	// 64 hex chars regardless of input length
	if got := HashString("some-voter-token-value"); len(got) != 64 {
		t.Errorf("HashString() length = %d, want 64", len(got))
	}

	// Different inputs should produce different hashes
	if HashString("10.0.0.1") == HashString("10.0.0.2") {
		t.Error("HashString() produced same hash for different inputs")
	}
}

func TestGenerateAdminKey(t *testing.T) {
	key := GenerateAdminKey("secret-1")

	if key == "" {
		t.Error("GenerateAdminKey() returned empty string")
	}

	// Should be deterministic
	if key != GenerateAdminKey("secret-1") {
		t.Error("GenerateAdminKey() is not deterministic")
	}

	// Different secrets should produce different keys
	if key == GenerateAdminKey("secret-2") {
		t.Error("GenerateAdminKey() produced same key for different secrets")
	}

	// Should be URL-safe (no padding)
	if strings.Contains(key, "=") {
		t.Error("GenerateAdminKey() contains padding characters")
	}
}

func TestValidateAdminKey(t *testing.T) {
	secret := "test-secret"
	validKey := GenerateAdminKey(secret)

	tests := []struct {
		name     string
		secret   string
		adminKey string
		wantErr  bool
	}{
		{"valid key", secret, validKey, false},
		{"wrong key", secret, "wrong-key", true},
		{"wrong secret", "different-secret", validKey, true},
		{"empty key", secret, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAdminKey(tt.secret, tt.adminKey)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAdminKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != ErrInvalidAdminKey {
				t.Errorf("ValidateAdminKey() error = %v, want %v", err, ErrInvalidAdminKey)
			}
		})
	}
}

// Benchmark tests
func BenchmarkMintVoterToken(b *testing.B) {
	for i := 0; i < b.N; i++ {
		MintVoterToken("bench-secret")
	}
}

func BenchmarkVerifyVoterToken(b *testing.B) {
	token, _ := MintVoterToken("bench-secret")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		VerifyVoterToken("bench-secret", token)
	}
}

func BenchmarkHashString(b *testing.B) {
	for i := 0; i < b.N; i++ {
		HashString("203.0.113.7")
	}
}
