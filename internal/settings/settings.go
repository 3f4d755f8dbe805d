// Package settings persists the Google export settings as a flat JSON object.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Veraticus/crm-sheets/internal/config"
)

// Allow-listed keys. Anything else found in the file is kept as is.
const (
	KeyFolderID         = "folder_id"
	KeyCredentialsPath  = "credentials_path"
	KeyClientSecretPath = "client_secret_path"
)

var allowedKeys = []string{KeyFolderID, KeyCredentialsPath, KeyClientSecretPath}

var (
	// ErrMalformed means the settings file exists but is not a JSON object of the expected shape.
	ErrMalformed = errors.New("malformed settings file")
	// ErrInvalidValue means an allow-listed key was given a non-string value.
	ErrInvalidValue = errors.New("invalid settings value")
	// ErrUnknownTarget means an upload named something other than credentials or client_secret.
	ErrUnknownTarget = errors.New("target must be credentials or client_secret")
	// ErrNotJSON means an uploaded credential is not valid JSON.
	ErrNotJSON = errors.New("uploaded file is not valid JSON")
)

// Settings is the typed view of the allow-listed keys.
type Settings struct {
	FolderID         string `json:"folder_id,omitempty"`
	CredentialsPath  string `json:"credentials_path,omitempty"`
	ClientSecretPath string `json:"client_secret_path,omitempty"`
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	FolderID         *string
	CredentialsPath  *string
	ClientSecretPath *string
}

func (p Patch) values() map[string]*string {
	return map[string]*string{
		KeyFolderID:         p.FolderID,
		KeyCredentialsPath:  p.CredentialsPath,
		KeyClientSecretPath: p.ClientSecretPath,
	}
}

// CredentialTarget names an uploadable credential slot.
type CredentialTarget string

// Upload targets and the file names they are stored under.
const (
	TargetCredentials  CredentialTarget = "credentials"
	TargetClientSecret CredentialTarget = "client_secret"
)

var credentialFileNames = map[CredentialTarget]string{
	TargetCredentials:  "service_account.json",
	TargetClientSecret: "client_secret.json",
}

// Store reads and writes the settings file. Writers are last-writer-wins across
// processes; within one process they are serialized.
type Store struct {
	logger *slog.Logger
	path   string
	mu     sync.Mutex
}

// NewStore creates a store backed by the file at path.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:   config.ExpandPath(path),
		logger: logger,
	}
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Dir returns the directory holding the settings file and uploaded credentials.
func (s *Store) Dir() string {
	return filepath.Dir(s.path)
}

// Raw returns the whole JSON object, unknown keys included. A missing file is an empty object.
func (s *Store) Raw() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// Load returns the settings exactly as stored.
func (s *Store) Load() (Settings, error) {
	raw, err := s.Raw()
	if err != nil {
		return Settings{}, err
	}
	return fromRaw(raw)
}

// Current returns the settings with relative credential paths resolved against the
// settings directory, ready for credential loading.
func (s *Store) Current() (Settings, error) {
	st, err := s.Load()
	if err != nil {
		return Settings{}, err
	}
	st.CredentialsPath = s.resolve(st.CredentialsPath)
	st.ClientSecretPath = s.resolve(st.ClientSecretPath)
	return st, nil
}

func (s *Store) resolve(path string) string {
	return config.ResolvePath(s.Dir(), path)
}

// Update applies the non-nil fields of patch and writes the file.
func (s *Store) Update(patch Patch) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.Raw()
	if err != nil {
		return Settings{}, err
	}
	for key, value := range patch.values() {
		if value != nil {
			raw[key] = *value
		}
	}
	if err := s.write(raw); err != nil {
		return Settings{}, err
	}
	return fromRaw(raw)
}

// UpdateMap merges the allow-listed, non-null entries of values into the file and
// returns the full stored object.
func (s *Store) UpdateMap(values map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.Raw()
	if err != nil {
		return nil, err
	}
	for _, key := range allowedKeys {
		value, ok := values[key]
		if !ok || value == nil {
			continue
		}
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidValue, key)
		}
		raw[key] = str
	}
	if err := s.write(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// SaveCredential stores an uploaded credential file in the settings directory and
// returns its name, which resolves back to the stored file when written into the settings.
func (s *Store) SaveCredential(target CredentialTarget, content []byte) (string, error) {
	name, ok := credentialFileNames[target]
	if !ok {
		return "", ErrUnknownTarget
	}
	if !json.Valid(content) {
		return "", ErrNotJSON
	}
	if err := writeFileAtomic(filepath.Join(s.Dir(), name), content, 0o600); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", target, err)
	}
	s.logger.Info("stored credential file", "target", target, "file", name)
	return name, nil
}

func (s *Store) write(raw map[string]any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(raw); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := writeFileAtomic(s.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	s.logger.Debug("settings saved", "path", s.path)
	return nil
}

func fromRaw(raw map[string]any) (Settings, error) {
	var st Settings
	fields := map[string]*string{
		KeyFolderID:         &st.FolderID,
		KeyCredentialsPath:  &st.CredentialsPath,
		KeyClientSecretPath: &st.ClientSecretPath,
	}
	for key, dst := range fields {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		str, ok := value.(string)
		if !ok {
			return Settings{}, fmt.Errorf("%w: %s is not a string", ErrMalformed, key)
		}
		*dst = str
	}
	return st, nil
}

// writeFileAtomic writes through a temp file in the same directory and renames it
// over path, so readers never observe a half-written file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
