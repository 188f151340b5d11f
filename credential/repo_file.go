package credential

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	oaerrors "github.com/jrsteele09/oa-client/internal/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sealedPrefix = "sealed:"
	saltLength   = 16
	nonceLength  = 24
)

// FileStore keeps the credential in a small JSON document on disk, the Go
// counterpart of the browser's local storage. When a passphrase is supplied
// the token is sealed with NaCl secretbox under an Argon2id derived key.
type FileStore struct {
	mu         sync.Mutex
	path       string
	passphrase []byte
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path, passphrase string) *FileStore {
	s := &FileStore{path: path}
	if passphrase != "" {
		s.passphrase = []byte(passphrase)
	}
	return s
}

func (s *FileStore) Get(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return "", err
	}
	value, ok := entries[Key]
	if !ok || value == "" {
		return "", oaerrors.ErrNoCredential
	}
	if !strings.HasPrefix(value, sealedPrefix) {
		return value, nil
	}
	return s.open(strings.TrimPrefix(value, sealedPrefix))
}

func (s *FileStore) Set(_ context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return oaerrors.Wrapf(oaerrors.ErrInvalidInput, "empty token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	value := token
	if s.passphrase != nil {
		sealed, err := s.seal(token)
		if err != nil {
			return err
		}
		value = sealedPrefix + sealed
	}
	entries[Key] = value
	return s.write(entries)
}

func (s *FileStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := entries[Key]; !ok {
		return nil
	}
	delete(entries, Key)
	return s.write(entries)
}

func (s *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("[FileStore read] %w", err)
	}

	entries := make(map[string]string)
	if len(strings.TrimSpace(string(data))) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("[FileStore read] corrupt credential file %s: %w", s.path, err)
	}
	return entries, nil
}

// write replaces the file atomically so a crash never leaves half a token behind.
func (s *FileStore) write(entries map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("[FileStore write] %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("[FileStore write] %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("[FileStore write] %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileStore write] %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileStore write] %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[FileStore write] %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) key(salt []byte) *[32]byte {
	var key [32]byte
	copy(key[:], argon2.IDKey(s.passphrase, salt, 1, 64*1024, 4, 32))
	return &key
}

func (s *FileStore) seal(token string) (string, error) {
	buf := make([]byte, saltLength+nonceLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("[FileStore seal] %w", err)
	}
	var nonce [nonceLength]byte
	copy(nonce[:], buf[saltLength:])

	sealed := secretbox.Seal(buf, []byte(token), &nonce, s.key(buf[:saltLength]))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (s *FileStore) open(encoded string) (string, error) {
	if s.passphrase == nil {
		return "", oaerrors.Wrapf(oaerrors.ErrInvalidToken, "credential is sealed and no passphrase is configured")
	}
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(data) < saltLength+nonceLength+secretbox.Overhead {
		return "", oaerrors.Wrapf(oaerrors.ErrInvalidToken, "corrupt sealed credential")
	}

	var nonce [nonceLength]byte
	copy(nonce[:], data[saltLength:saltLength+nonceLength])
	opened, ok := secretbox.Open(nil, data[saltLength+nonceLength:], &nonce, s.key(data[:saltLength]))
	if !ok {
		return "", oaerrors.Wrapf(oaerrors.ErrInvalidToken, "wrong passphrase")
	}
	return string(opened), nil
}
