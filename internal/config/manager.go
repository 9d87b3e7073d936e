package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/thoreinstein/miuitask/internal/auth"
	"github.com/thoreinstein/miuitask/internal/errors"
	"github.com/thoreinstein/miuitask/internal/logging"
	"github.com/thoreinstein/miuitask/internal/paths"
	"github.com/thoreinstein/miuitask/internal/platform"
	"github.com/thoreinstein/miuitask/pkg/fileutil"
)

// Manager owns the resident configuration of the process and the file it
// is persisted to.
//
// The pointer returned by Config stays the same for the Manager's lifetime;
// Load overwrites the value it points to, so every holder observes reloads.
type Manager struct {
	mu       sync.RWMutex
	cfg      *Config
	loc      paths.Location
	platform string
	logger   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for load and write diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithPlatform overrides the detected platform identifier.
func WithPlatform(id string) Option {
	return func(m *Manager) {
		m.platform = id
	}
}

// NewManager returns a Manager for loc holding the default configuration.
// It does not touch the filesystem.
func NewManager(loc paths.Location, opts ...Option) *Manager {
	m := &Manager{
		cfg:    Default(),
		loc:    loc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.platform == "" {
		m.platform = platform.Current()
	}
	return m
}

// Open resolves the file location below root, then loads it.
// A missing file is created with defaults.
func Open(root string, opts ...Option) (*Manager, error) {
	loc, err := paths.Resolve(root)
	if err != nil {
		return nil, errors.Mark(err, errors.ErrCreate)
	}

	m := NewManager(loc, opts...)
	if err := m.Load(); err != nil {
		return nil, err
	}
	return m, nil
}

// Load reads the configuration file into the resident Config.
//
// If the file exists it is parsed and validated; on success the resident
// Config is overwritten and the file is rewritten in canonical form. A file
// that fails to parse or validate is left untouched and the error is
// returned. If the file does not exist the resident Config is written to it.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.loc.Path
	log := m.logger.With("path", path, "format", string(m.loc.Format))

	if !fileutil.IsRegularFile(path) {
		return m.createLocked(log)
	}

	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		err = errors.Mark(errors.Wrapf(err, "reading %s", path), errors.ErrRead)
		log.Error("failed to read configuration", "error", err)
		return err
	}

	res, err := Decode(data, m.loc.Format)
	if err != nil {
		err = errors.WithHintf(errors.Wrapf(err, "loading %s", path),
			"fix the file, or delete it to regenerate defaults")
		log.Error("failed to load configuration", "error", err)
		return err
	}

	for _, key := range res.Unknown {
		log.Warn("ignoring unknown key, it will be dropped on rewrite", "key", key)
	}
	for _, field := range res.Hashed {
		log.Info("storing plain-text password as its digest", "field", field)
	}
	for _, a := range res.Config.Accounts {
		log.Log(context.Background(), logging.LevelTrace, "decoded account",
			"uid", a.UID, "password_set", auth.HasPassword(a.Password), "cookies", len(a.Cookies))
	}

	*m.cfg = *res.Config
	log.Debug("configuration loaded", "accounts", len(m.cfg.Accounts))

	if err := m.saveLocked(nil); err != nil {
		log.Warn("failed to rewrite configuration", "error", err)
	}
	return nil
}

func (m *Manager) createLocked(log *slog.Logger) error {
	dirs := []string{m.loc.DataDir}
	if m.loc.Overridden {
		dirs = append(dirs, filepath.Dir(m.loc.Path))
	}
	for _, dir := range dirs {
		if err := paths.EnsureDir(dir, 0); err != nil {
			err = errors.Mark(errors.Wrapf(err, "creating directory %s", dir), errors.ErrCreate)
			log.Error("failed to create configuration", "error", err)
			return err
		}
	}

	if err := m.saveLocked(nil); err != nil {
		err = errors.Mark(err, errors.ErrCreate)
		log.Error("failed to create configuration", "error", err)
		return err
	}

	log.Info("configuration file created, edit it to add your accounts")
	return nil
}

// Save writes data, or the resident Config if data is nil, to the
// configuration file atomically. Errors are marked errors.ErrWrite.
func (m *Manager) Save(data *Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(data)
}

func (m *Manager) saveLocked(data *Config) error {
	if data == nil {
		data = m.cfg
	}

	b, err := Marshal(data, m.loc.Format)
	if err != nil {
		return err
	}

	if err := fileutil.AtomicWriteFile(m.loc.Path, b, fileutil.DefaultFilePerm); err != nil {
		return errors.Mark(errors.Wrapf(err, "writing %s", m.loc.Path), errors.ErrWrite)
	}
	return nil
}

// Write is Save for callers that only need to know whether the write
// succeeded. Failures are logged, never returned.
func (m *Manager) Write(data *Config) bool {
	if err := m.Save(data); err != nil {
		m.logger.Error("failed to write configuration", "path", m.loc.Path, "error", err)
		return false
	}
	return true
}

// Config returns the resident configuration. The pointer is stable across
// reloads. Callers that mutate it must not do so concurrently with Load.
func (m *Manager) Config() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Snapshot returns a deep copy of the resident configuration.
func (m *Manager) Snapshot() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Clone()
}

// Location returns where the configuration is stored.
func (m *Manager) Location() paths.Location {
	return m.loc
}

// Platform returns the platform identifier detected when the Manager was built.
func (m *Manager) Platform() string {
	return m.platform
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying m.
func NewContext(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, ctxKey{}, m)
}

// FromContext returns the Manager stored in ctx.
func FromContext(ctx context.Context) (*Manager, bool) {
	if ctx == nil {
		return nil, false
	}
	m, ok := ctx.Value(ctxKey{}).(*Manager)
	return m, ok && m != nil
}
