package transforms

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/zoobzio/mold"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Hasher performs one-way hashing of a field value.
type Hasher interface {
	// Hash returns the digest of plaintext.
	// Password hashers (argon2, bcrypt) embed salt and parameters in the result.
	// Digest hashers (sha256, sha512) return hex.
	Hash(plaintext []byte) (string, error)
}

// HasherFunc adapts a function to Hasher.
type HasherFunc func(plaintext []byte) (string, error)

// Hash calls f.
func (f HasherFunc) Hash(plaintext []byte) (string, error) {
	return f(plaintext)
}

// Hash replaces a field value with its digest. Nil and empty values are
// left alone so defaults still apply.
func Hash(h Hasher) mold.FieldTransform {
	return func(value any, _ map[string]any) (any, error) {
		if value == nil {
			return nil, nil
		}
		s := mold.ToString(value)
		if s == "" {
			return s, nil
		}
		return h.Hash([]byte(s))
	}
}

// Argon2Params configures Argon2id hashing.
type Argon2Params struct {
	Time    uint32 // Number of iterations
	Memory  uint32 // Memory usage in KiB
	Threads uint8  // Parallelism factor
	KeyLen  uint32 // Output key length
	SaltLen uint32 // Salt length
}

// DefaultArgon2Params returns OWASP-recommended Argon2id parameters.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:    1,
		Memory:  64 * 1024,
		Threads: 4,
		KeyLen:  32,
		SaltLen: 16,
	}
}

// Argon2 returns an Argon2id hasher with default parameters.
func Argon2() Hasher {
	return Argon2WithParams(DefaultArgon2Params())
}

// Argon2WithParams returns an Argon2id hasher producing PHC-formatted
// strings: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>.
func Argon2WithParams(p Argon2Params) Hasher {
	return HasherFunc(func(plaintext []byte) (string, error) {
		salt := make([]byte, p.SaltLen)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return "", fmt.Errorf("failed to generate salt: %w", err)
		}

		key := argon2.IDKey(plaintext, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
		return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
			argon2.Version, p.Memory, p.Time, p.Threads,
			base64.RawStdEncoding.EncodeToString(salt),
			base64.RawStdEncoding.EncodeToString(key),
		), nil
	})
}

// Bcrypt returns a bcrypt hasher. A cost of 0 uses bcrypt.DefaultCost.
func Bcrypt(cost int) Hasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return HasherFunc(func(plaintext []byte) (string, error) {
		out, err := bcrypt.GenerateFromPassword(plaintext, cost)
		if err != nil {
			return "", fmt.Errorf("bcrypt hash failed: %w", err)
		}
		return string(out), nil
	})
}

// SHA256 returns a hex SHA-256 hasher for fingerprints, not passwords.
func SHA256() Hasher {
	return HasherFunc(func(plaintext []byte) (string, error) {
		sum := sha256.Sum256(plaintext)
		return hex.EncodeToString(sum[:]), nil
	})
}

// SHA512 returns a hex SHA-512 hasher for fingerprints, not passwords.
func SHA512() Hasher {
	return HasherFunc(func(plaintext []byte) (string, error) {
		sum := sha512.Sum512(plaintext)
		return hex.EncodeToString(sum[:]), nil
	})
}
