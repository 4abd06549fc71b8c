package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Sel partagé avec le frontend : ne pas modifier,
	// sinon les blobs existants deviennent illisibles.
	keySalt       = "valorant-static-salt"
	keyIterations = 100_000
	keyLen        = 32
	nonceLen      = 12
)

// Cipher chiffre des chaînes opaques en AES-256-GCM avec une clé dérivée
// par PBKDF2-HMAC-SHA256 d'une passphrase. Sans état après construction.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher dérive la clé une seule fois. Deux instances construites avec la
// même passphrase sont interchangeables.
func NewCipher(passphrase string) (*Cipher, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("%w: empty passphrase", ErrInvalidInput)
	}
	key := pbkdf2.Key([]byte(passphrase), []byte(keySalt), keyIterations, keyLen, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt retourne base64(IV || ciphertext || tag), IV aléatoire à chaque appel.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" || !utf8.ValidString(plaintext) {
		return "", fmt.Errorf("%w: plaintext must be a non-empty UTF-8 string", ErrInvalidInput)
	}

	nonce := make([]byte, nonceLen, nonceLen+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *Cipher) Decrypt(blob string) (string, error) {
	if blob == "" {
		return "", fmt.Errorf("%w: empty blob", ErrInvalidInput)
	}

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: malformed base64: %v", ErrCrypto, err)
	}
	if len(raw) <= nonceLen {
		return "", fmt.Errorf("%w: blob too short", ErrCrypto)
	}

	plain, err := c.aead.Open(nil, raw[:nonceLen], raw[nonceLen:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrCrypto)
	}
	if !utf8.Valid(plain) {
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", ErrCrypto)
	}
	return string(plain), nil
}
