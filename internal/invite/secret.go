// Package invite generates household invite secrets and verifies them
// against their stored argon2id digest.
package invite

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	secretSize = 16
	saltSize   = 16
	keySize    = 32
	argonTime  = 2
	argonMem   = 19 * 1024
	argonPar   = 1
)

var b64 = base64.RawStdEncoding

// Secret is a freshly generated invite secret. Only Digest is persisted;
// Secret is shown to the inviter once.
type Secret struct {
	Secret string
	Digest string
}

// Generate returns a URL-safe secret and its PHC-encoded argon2id digest.
func Generate() (Secret, error) {
	raw := make([]byte, secretSize)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return Secret{}, fmt.Errorf("generate secret: %w", err)
	}
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return Secret{}, fmt.Errorf("generate salt: %w", err)
	}
	return Secret{
		Secret: base64.RawURLEncoding.EncodeToString(raw),
		Digest: encode(salt, deriveKey(raw, salt, argonTime, argonMem, argonPar, keySize)),
	}, nil
}

// Verify reports whether secret matches digest. Malformed input never matches.
func Verify(secret, digest string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(secret)
	if err != nil {
		return false
	}
	p, err := decode(digest)
	if err != nil {
		return false
	}
	key := deriveKey(raw, p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(key, p.key) == 1
}

func deriveKey(secret, salt []byte, time, memory uint32, threads uint8, size uint32) []byte {
	return argon2.IDKey(secret, salt, time, memory, threads, size)
}

// encode writes the PHC string format:
// $argon2id$v=19$m=<mem>,t=<time>,p=<par>$<salt>$<key>
func encode(salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMem, argonTime, argonPar, b64.EncodeToString(salt), b64.EncodeToString(key))
}

type params struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

var errMalformed = errors.New("malformed argon2id digest")

func decode(digest string) (params, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return params{}, errMalformed
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return params{}, errMalformed
	}

	var p params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return params{}, errMalformed
	}
	if p.memory == 0 || p.time == 0 || p.threads == 0 {
		return params{}, errMalformed
	}

	var err error
	if p.salt, err = b64.DecodeString(parts[4]); err != nil {
		return params{}, errMalformed
	}
	if p.key, err = b64.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return params{}, errMalformed
	}
	return p, nil
}
