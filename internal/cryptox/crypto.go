// Package cryptox holds the password verifier and payload digest helpers
// shared by the client and mediasrv.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/blake2b"
)

const SaltSize = 16

func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// NewSalt returns SaltSize random bytes.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// CheckPassword derives the verifier for password and compares it with
// the stored one in constant time.
func CheckPassword(password, salt, verifier []byte) bool {
	got := MakeVerifier(DeriveMasterKey(password, salt))
	return subtle.ConstantTimeCompare(got, verifier) == 1
}

// Digest returns the hex BLAKE2b-256 sum of data. It is sent alongside
// proxied uploads so the backend can detect truncated payloads.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func VerifyDigest(data []byte, digest string) error {
	want, err := hex.DecodeString(digest)
	if err != nil {
		return fmt.Errorf("malformed digest: %w", err)
	}
	sum := blake2b.Sum256(data)
	if subtle.ConstantTimeCompare(sum[:], want) != 1 {
		return fmt.Errorf("digest mismatch")
	}
	return nil
}
