package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"

	// DefaultBcryptCost keeps a single hash in the hundreds of milliseconds.
	DefaultBcryptCost = 12
)

var (
	ErrInvalidHashFormat   = errors.New("invalid encoded hash format")
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
	ErrUnknownAlgorithm    = errors.New("unknown password hash algorithm")
	ErrInvalidCost         = errors.New("bcrypt cost out of range")
	ErrPasswordTooLong     = errors.New("password exceeds 72 bytes")
)

// bcryptMaxPassword is the longest input bcrypt accepts.
const bcryptMaxPassword = 72

// HashParams configures the Argon2id hashing parameters.
type HashParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHashParams returns recommended Argon2id parameters for password hashing.
func DefaultHashParams() HashParams {
	return HashParams{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher produces salted password hashes with the configured algorithm and
// verifies hashes produced by any supported algorithm.
type Hasher struct {
	algorithm  string
	params     HashParams
	bcryptCost int
}

// NewHasher returns a Hasher for algorithm. params is only used by argon2id,
// bcryptCost only by bcrypt.
func NewHasher(algorithm string, params HashParams, bcryptCost int) (*Hasher, error) {
	switch algorithm {
	case AlgorithmArgon2id:
		if params.Memory == 0 || params.Iterations == 0 || params.Parallelism == 0 ||
			params.SaltLength == 0 || params.KeyLength == 0 {
			return nil, fmt.Errorf("argon2id params: %+v: %w", params, ErrInvalidHashFormat)
		}
	case AlgorithmBcrypt:
		if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
			return nil, ErrInvalidCost
		}
	default:
		return nil, fmt.Errorf("%q: %w", algorithm, ErrUnknownAlgorithm)
	}
	return &Hasher{algorithm: algorithm, params: params, bcryptCost: bcryptCost}, nil
}

// Algorithm reports which algorithm new hashes are produced with.
func (h *Hasher) Algorithm() string {
	return h.algorithm
}

// Hash returns the encoded hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	if h.algorithm == AlgorithmBcrypt {
		if len(password) > bcryptMaxPassword {
			return "", ErrPasswordTooLong
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt: %w", err)
		}
		return string(hashed), nil
	}
	return hashArgon2id(password, h.params)
}

// Verify checks whether password matches encodedHash. The algorithm is taken
// from the encoding itself, so hashes made under a previous configuration
// keep verifying. A mismatch is reported as false with a nil error.
func (h *Hasher) Verify(password, encodedHash string) (bool, error) {
	switch {
	case strings.HasPrefix(encodedHash, "$argon2id$"):
		return verifyArgon2id(password, encodedHash)
	case strings.HasPrefix(encodedHash, "$2"):
		err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, ErrInvalidHashFormat
		}
		return true, nil
	default:
		return false, ErrInvalidHashFormat
	}
}

func hashArgon2id(password string, params HashParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	// PHC format: $argon2id$v=19$m=65536,t=3,p=2$<base64-salt>$<base64-hash>
	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		params.Memory,
		params.Iterations,
		params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	return encoded, nil
}

func verifyArgon2id(password, encodedHash string) (bool, error) {
	params, salt, hash, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	return subtle.ConstantTimeCompare(hash, candidate) == 1, nil
}

// decodeHash parses a PHC-formatted Argon2id hash string.
func decodeHash(encodedHash string) (HashParams, []byte, []byte, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return HashParams{}, nil, nil, ErrInvalidHashFormat
	}

	if parts[1] != AlgorithmArgon2id {
		return HashParams{}, nil, nil, ErrInvalidHashFormat
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return HashParams{}, nil, nil, ErrInvalidHashFormat
	}
	if version != argon2.Version {
		return HashParams{}, nil, nil, ErrIncompatibleVersion
	}

	var params HashParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return HashParams{}, nil, nil, ErrInvalidHashFormat
	}
	if params.Iterations == 0 || params.Parallelism == 0 {
		return HashParams{}, nil, nil, ErrInvalidHashFormat
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return HashParams{}, nil, nil, ErrInvalidHashFormat
	}
	params.SaltLength = uint32(len(salt))

	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return HashParams{}, nil, nil, ErrInvalidHashFormat
	}
	params.KeyLength = uint32(len(hash))

	return params, salt, hash, nil
}
