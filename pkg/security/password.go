package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/propscout/propscout-backend/pkg/config"
)

const MinPasswordLength = 8

var ErrInvalidHash = errors.New("security: malformed argon2id hash")

// Stored hashes use the PHC string layout:
//
//	$argon2id$v=19$m=<KiB>,t=<passes>,p=<lanes>$<salt>$<key>
//
// Cost parameters travel with the hash, so changing the configuration only
// affects new hashes.
type argonCost struct {
	memory  uint32
	passes  uint32
	lanes   uint8
	saltLen int
	keyLen  uint32
}

var b64 = base64.RawStdEncoding

func costFrom(cfg config.PasswordConfig) argonCost {
	return argonCost{
		memory:  uint32(bounded(cfg.ArgonMemoryKB, 8, 512*1024)),
		passes:  uint32(bounded(cfg.ArgonTime, 1, 10)),
		lanes:   uint8(bounded(cfg.ArgonParallelism, 1, 255)),
		saltLen: bounded(cfg.ArgonSaltLen, 8, 64),
		keyLen:  uint32(bounded(cfg.ArgonKeyLen, 16, 64)),
	}
}

func bounded(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// HashPassword derives a salted argon2id hash of password.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if len(password) < MinPasswordLength {
		return "", fmt.Errorf("security: password shorter than %d characters", MinPasswordLength)
	}
	c := costFrom(cfg)
	salt := make([]byte, c.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("security: salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, c.passes, c.memory, c.lanes, c.keyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, c.memory, c.passes, c.lanes, b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// VerifyPassword reports whether password produces encoded. A malformed
// hash is an error, a mismatch is not.
func VerifyPassword(password, encoded string) (bool, error) {
	c, salt, key, err := parseHash(encoded)
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), salt, c.passes, c.memory, c.lanes, c.keyLen)
	return subtle.ConstantTimeCompare(key, got) == 1, nil
}

func parseHash(encoded string) (argonCost, []byte, []byte, error) {
	var c argonCost
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return c, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return c, nil, nil, ErrInvalidHash
	}
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &c.memory, &c.passes, &c.lanes); err != nil {
		return c, nil, nil, ErrInvalidHash
	}
	if c.memory == 0 || c.passes == 0 || c.lanes == 0 {
		return c, nil, nil, ErrInvalidHash
	}

	salt, err := b64.DecodeString(fields[4])
	if err != nil || len(salt) == 0 {
		return c, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(fields[5])
	if err != nil || len(key) == 0 {
		return c, nil, nil, ErrInvalidHash
	}
	c.saltLen = len(salt)
	c.keyLen = uint32(len(key))
	return c, salt, key, nil
}
