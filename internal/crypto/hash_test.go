package crypto

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T, algorithm string) *Hasher {
	t.Helper()
	h, err := NewHasher(algorithm, DefaultHashParams(), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewHasher() unexpected error: %v", err)
	}
	return h
}

func TestNewHasher(t *testing.T) {
	tests := []struct {
		name      string
		algorithm string
		params    HashParams
		cost      int
		wantErr   error
	}{
		{name: "argon2id defaults", algorithm: AlgorithmArgon2id, params: DefaultHashParams()},
		{name: "bcrypt default cost", algorithm: AlgorithmBcrypt, cost: DefaultBcryptCost},
		{name: "bcrypt cost too low", algorithm: AlgorithmBcrypt, cost: bcrypt.MinCost - 1, wantErr: ErrInvalidCost},
		{name: "bcrypt cost too high", algorithm: AlgorithmBcrypt, cost: bcrypt.MaxCost + 1, wantErr: ErrInvalidCost},
		{name: "argon2id zero params", algorithm: AlgorithmArgon2id, wantErr: ErrInvalidHashFormat},
		{name: "unknown algorithm", algorithm: "md5", wantErr: ErrUnknownAlgorithm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHasher(tt.algorithm, tt.params, tt.cost)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NewHasher() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewHasher() unexpected error: %v", err)
			}
			if h.Algorithm() != tt.algorithm {
				t.Errorf("Algorithm() = %q, want %q", h.Algorithm(), tt.algorithm)
			}
		})
	}
}

func TestHashArgon2idFormat(t *testing.T) {
	hash, err := newTestHasher(t, AlgorithmArgon2id).Hash("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}

	// $argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>
	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		t.Fatalf("Hash() expected 6 parts, got %d: %q", len(parts), hash)
	}
	if parts[1] != "argon2id" {
		t.Errorf("Hash() algorithm = %q, want %q", parts[1], "argon2id")
	}
	if parts[2] != "v=19" {
		t.Errorf("Hash() version = %q, want %q", parts[2], "v=19")
	}
	if parts[3] != "m=65536,t=3,p=2" {
		t.Errorf("Hash() params = %q, want %q", parts[3], "m=65536,t=3,p=2")
	}
}

func TestHashBcryptFormat(t *testing.T) {
	hash, err := newTestHasher(t, AlgorithmBcrypt).Hash("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("bcrypt.Cost() unexpected error: %v", err)
	}
	if cost != bcrypt.MinCost {
		t.Errorf("Hash() cost = %d, want %d", cost, bcrypt.MinCost)
	}
}

func TestVerify(t *testing.T) {
	for _, algorithm := range []string{AlgorithmArgon2id, AlgorithmBcrypt} {
		t.Run(algorithm, func(t *testing.T) {
			h := newTestHasher(t, algorithm)
			hash, err := h.Hash("my-secure-password")
			if err != nil {
				t.Fatalf("Hash() unexpected error: %v", err)
			}
			if hash == "my-secure-password" {
				t.Fatal("Hash() returned the plaintext")
			}

			match, err := h.Verify("my-secure-password", hash)
			if err != nil {
				t.Fatalf("Verify() unexpected error: %v", err)
			}
			if !match {
				t.Error("Verify() returned false for correct password")
			}

			match, err = h.Verify("wrong-password", hash)
			if err != nil {
				t.Fatalf("Verify() unexpected error: %v", err)
			}
			if match {
				t.Error("Verify() returned true for wrong password")
			}
		})
	}
}

func TestVerifyAcrossAlgorithms(t *testing.T) {
	bcryptHash, err := newTestHasher(t, AlgorithmBcrypt).Hash("password")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}

	match, err := newTestHasher(t, AlgorithmArgon2id).Verify("password", bcryptHash)
	if err != nil {
		t.Fatalf("Verify() unexpected error: %v", err)
	}
	if !match {
		t.Error("argon2id hasher should still verify bcrypt hashes")
	}
}

func TestHashProducesDifferentHashes(t *testing.T) {
	h := newTestHasher(t, AlgorithmArgon2id)

	hash1, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}
	hash2, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}

	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for same password (salt should differ)")
	}
}

func TestVerifyInvalidHash(t *testing.T) {
	h := newTestHasher(t, AlgorithmArgon2id)
	for _, encoded := range []string{
		"invalid-hash-format",
		"$argon2id$v=19$m=65536,t=3,p=2$only-five",
		"$argon2id$v=18$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$2a$04$short",
	} {
		if _, err := h.Verify("password", encoded); err == nil {
			t.Errorf("Verify(%q) expected error for invalid hash format", encoded)
		}
	}
}

func TestHashBcryptPasswordTooLong(t *testing.T) {
	h := newTestHasher(t, AlgorithmBcrypt)

	if _, err := h.Hash(strings.Repeat("a", 72)); err != nil {
		t.Fatalf("Hash() unexpected error at 72 bytes: %v", err)
	}
	if _, err := h.Hash(strings.Repeat("a", 73)); err != ErrPasswordTooLong {
		t.Errorf("Hash() error = %v, want %v", err, ErrPasswordTooLong)
	}
}
