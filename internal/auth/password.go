package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argonMemory      = 64 * 1024 // 64 MB
	argonIterations  = 3
	argonParallelism = 4
	argonSaltLen     = 16
	argonKeyLen      = 32

	argonPrefix = "$argon2id$"
)

// HashPassword produit un hash Argon2id encodé au format PHC.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: empty password", ErrInvalidInput)
	}
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey(
		[]byte(password), salt,
		argonIterations, argonMemory, argonParallelism, argonKeyLen,
	)
	encoded := fmt.Sprintf(
		argonPrefix+"v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory, argonIterations, argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
	return encoded, nil
}

// IsHashedPassword indique si la valeur stockée est un hash Argon2id.
func IsHashedPassword(stored string) bool {
	return strings.HasPrefix(stored, argonPrefix)
}

// ComparePassword compare un mot de passe à la valeur stockée.
// Les comptes historiques stockent le mot de passe en clair : la comparaison
// est alors directe (temps constant). Les valeurs "$argon2id$..." sont vérifiées
// par hash.
func ComparePassword(password, stored string) (bool, error) {
	if IsHashedPassword(stored) {
		return verifyArgon2(password, stored)
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1, nil
}

func verifyArgon2(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false, errors.New("invalid hash format")
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("invalid hash version: %w", err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("unsupported argon2 version %d", version)
	}
	var memory, iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		return false, err
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, err
	}
	storedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, err
	}
	computedHash := argon2.IDKey(
		[]byte(password), salt,
		iterations, memory, parallelism, uint32(len(storedHash)),
	)
	return subtle.ConstantTimeCompare(storedHash, computedHash) == 1, nil
}
