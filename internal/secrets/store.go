package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// Per-user session token store (file, 0600) with AES-GCM obfuscation.
// Not a replacement for OS keychains but keeps access tokens out of plain text.

const fileName = "sessions.json"

// ErrNotFound is returned by Fetch when no token is stored for the slot.
var ErrNotFound = errors.New("secrets: no token stored")

type secretFile struct {
	Tokens map[string]string `json:"tokens"` // slot -> base64(ciphertext)
}

// Store persists one token per slot (a backend identity such as "local").
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore stores tokens under dir, or the user config dir when dir is empty.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "jaskprofile")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil { // restrict directory
		return nil, err
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Store(slot, token string) error {
	if slot = norm(slot); slot == "" {
		return fmt.Errorf("slot required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sf, err := load(s.path())
	if err != nil {
		return err
	}
	if sf.Tokens == nil {
		sf.Tokens = map[string]string{}
	}
	ct, err := encrypt([]byte(token))
	if err != nil {
		return err
	}
	sf.Tokens[slot] = base64.StdEncoding.EncodeToString(ct)
	return save(s.path(), sf)
}

func (s *Store) Fetch(slot string) (string, error) {
	if slot = norm(slot); slot == "" {
		return "", fmt.Errorf("slot required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sf, err := load(s.path())
	if err != nil {
		return "", err
	}
	enc, ok := sf.Tokens[slot]
	if !ok {
		return "", ErrNotFound
	}
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	pt, err := decrypt(raw)
	if err != nil {
		return "", fmt.Errorf("decrypt token: %w", err)
	}
	return string(pt), nil
}

// Delete removes the slot. Deleting a missing slot is not an error.
func (s *Store) Delete(slot string) error {
	if slot = norm(slot); slot == "" {
		return fmt.Errorf("slot required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sf, err := load(s.path())
	if err != nil {
		return err
	}
	if _, ok := sf.Tokens[slot]; !ok {
		return nil
	}
	delete(sf.Tokens, slot)
	return save(s.path(), sf)
}

func (s *Store) path() string {
	return filepath.Join(s.dir, fileName)
}

func load(path string) (secretFile, error) {
	var sf secretFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return secretFile{}, nil
		}
		return sf, err
	}
	if err := json.Unmarshal(data, &sf); err != nil {
		return sf, fmt.Errorf("parse %s: %w", path, err)
	}
	return sf, nil
}

func save(path string, sf secretFile) error {
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func norm(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

func masterKey() []byte {
	base := fmt.Sprintf("jaskprofile-%s-%s", runtime.GOOS, os.Getenv("USER"))
	hash := sha256.Sum256([]byte(base))
	return hash[:]
}

func newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(masterKey())
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func encrypt(plain []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

func decrypt(ciphertext []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce := ciphertext[:gcm.NonceSize()]
	body := ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}
