// Package session persists the client's small on-disk state: a stable
// identity, the backend last used, and the pending authorization return
// between the browser redirect and the exchange. The pending return carries
// the authorization code, so it is encrypted at rest whenever a state key is
// configured.
package session

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"reelist/internal/domain"
	"reelist/internal/infra/config"
)

// Store reads and writes the session file. One file, one session: the client
// is a per-user tool, not a multi-tenant service.
type Store struct {
	path   string
	logger *slog.Logger
}

// fileSession is the on-disk shape of a session.
type fileSession struct {
	ID            string    `yaml:"id"`
	BackendURL    string    `yaml:"backend_url,omitempty"`
	PendingReturn string    `yaml:"pending_return,omitempty"`
	UpdatedAt     time.Time `yaml:"updated_at"`
}

// NewStore creates a store for the session file at path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the session file location.
func (s *Store) Path() string { return s.path }

// LoadOrCreate returns the persisted session, or a fresh one with a newly
// minted ID when no file exists yet. A pending return that cannot be
// decrypted (state key changed or unset) is dropped with a warning; the
// session identity survives.
func (s *Store) LoadOrCreate() (domain.Session, error) {
	const op = "session.LoadOrCreate"

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Session{ID: generateULID(time.Now())}, nil
		}
		return domain.Session{}, domain.NewDomainError(op, domain.ErrSessionStore, err.Error())
	}

	var fs fileSession
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return domain.Session{}, domain.NewDomainError(op, domain.ErrSessionStore, "parse session file: "+err.Error())
	}
	if fs.ID == "" {
		fs.ID = generateULID(time.Now())
	}

	sess := domain.Session{
		ID:         fs.ID,
		BackendURL: fs.BackendURL,
	}

	pending := fs.PendingReturn
	if strings.HasPrefix(pending, config.EncryptedPrefix) {
		plain, err := config.DecryptValue(strings.TrimPrefix(pending, config.EncryptedPrefix), config.StateKey())
		if err != nil {
			s.logger.Warn("pending return could not be decrypted, dropping it",
				"path", s.path, "error", err)
			pending = ""
		} else {
			pending = plain
		}
	}
	sess.PendingReturn = domain.Location(pending)

	return sess, nil
}

// Save writes the session to disk with owner-only permissions. The pending
// return is encrypted when a state key is set.
func (s *Store) Save(sess domain.Session) error {
	const op = "session.Save"

	fs := fileSession{
		ID:         sess.ID,
		BackendURL: sess.BackendURL,
		UpdatedAt:  time.Now(),
	}

	pending := string(sess.PendingReturn)
	if pending != "" {
		if key := config.StateKey(); key != "" {
			enc, err := config.EncryptValue(pending, key)
			if err != nil {
				return domain.NewDomainError(op, domain.ErrEncryption, err.Error())
			}
			pending = config.EncryptedPrefix + enc
		}
	}
	fs.PendingReturn = pending

	data, err := yaml.Marshal(fs)
	if err != nil {
		return domain.NewDomainError(op, domain.ErrSessionStore, "marshal session: "+err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return domain.NewDomainError(op, domain.ErrSessionStore, fmt.Sprintf("create state dir: %v", err))
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return domain.NewDomainError(op, domain.ErrSessionStore, err.Error())
	}
	return nil
}

// Clear removes the session file. Missing files are fine.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return domain.NewDomainError("session.Clear", domain.ErrSessionStore, err.Error())
	}
	return nil
}

func generateULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
