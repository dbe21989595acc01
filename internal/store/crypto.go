package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/pbkdf2"
)

// Keyring coordinates for the store encryption secret.
const (
	keyringService = "warmjar"
	keyringUser    = "store-key"
)

// kdf parameters for deriving the AES key from the keyring secret.
const (
	kdfIterations = 4096
	kdfSalt       = "warmjar-store-v1"
	keyLen        = 32
)

// LoadOrCreateKey fetches the store encryption secret from the OS keyring,
// generating and saving a fresh random one on first use. The returned key
// is the PBKDF2-derived AES-256 key, never the raw secret.
func LoadOrCreateKey() ([]byte, error) {
	secret, err := keyring.Get(keyringService, keyringUser)
	if err != nil {
		raw := make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, raw); err != nil {
			return nil, fmt.Errorf("store: cannot generate key: %w", err)
		}
		secret = hex.EncodeToString(raw)
		if err := keyring.Set(keyringService, keyringUser, secret); err != nil {
			return nil, fmt.Errorf("store: cannot save key to keyring: %w", err)
		}
	}
	return pbkdf2.Key([]byte(secret), []byte(kdfSalt), kdfIterations, keyLen, sha256.New), nil
}

// gcmPrefix versions the encrypted-value encoding.
const gcmPrefix = "gcm1:"

// valueCipher encrypts individual cookie values with AES-256-GCM.
// Encrypted values are stored as gcm1:<base64(nonce||ciphertext)> so a
// structured file mixing encrypted and plaintext values (e.g. after
// toggling encryption on) still loads.
type valueCipher struct {
	key []byte
}

func newValueCipher(key []byte) *valueCipher {
	return &valueCipher{key: key}
}

func (v *valueCipher) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (v *valueCipher) encrypt(plaintext string) (string, error) {
	gcm, err := v.gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return gcmPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

func (v *valueCipher) decrypt(value string) (string, error) {
	if len(value) < len(gcmPrefix) || value[:len(gcmPrefix)] != gcmPrefix {
		// Plaintext value from before encryption was enabled.
		return value, nil
	}
	sealed, err := base64.StdEncoding.DecodeString(value[len(gcmPrefix):])
	if err != nil {
		return "", fmt.Errorf("store: malformed encrypted value: %w", err)
	}
	gcm, err := v.gcm()
	if err != nil {
		return "", err
	}
	if len(sealed) < gcm.NonceSize() {
		return "", fmt.Errorf("store: encrypted value too short")
	}
	nonce, data := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, data, nil)
	if err != nil {
		return "", fmt.Errorf("store: cannot decrypt value: %w", err)
	}
	return string(plain), nil
}
