package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/thoreinstein/miuitask/internal/errors"
	"github.com/thoreinstein/miuitask/pkg/fileutil"
)

// AppName is used for the XDG fallback directory.
const AppName = "miuitask"

// EnvPrefix is the prefix of environment variables read by miuitask.
const EnvPrefix = "MIUITASK"

// EnvConfigPath names the environment variable that overrides the config file path.
const EnvConfigPath = EnvPrefix + "_CONFIG_PATH"

// DataDirName is the data directory below the installation root.
const DataDirName = "data"

// DefaultDirPerm is the default permission for newly created directories.
const DefaultDirPerm = 0o755

// Format is the on-disk encoding of the configuration file.
type Format string

const (
	// FormatJSON selects JSON with 2-space indentation.
	FormatJSON Format = "json"
	// FormatYAML selects YAML with 4-space indentation.
	FormatYAML Format = "yaml"
)

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	return string(f)
}

// Location is the resolved placement of the configuration file.
// It is computed once by Resolve and never re-evaluated.
type Location struct {
	// Root is the installation root.
	Root string
	// DataDir is <Root>/data.
	DataDir string
	// Path is the config file, either the env override or <DataDir>/config.<ext>.
	Path string
	// Format is json when <DataDir>/config.json existed at resolve time.
	Format Format
	// Overridden is true when Path came from MIUITASK_CONFIG_PATH.
	Overridden bool
}

// Resolve computes the data directory, file format and config path for root.
// The data directory is created if absent; failure to create it is returned.
//
// Format detection looks only at <root>/data/config.json, even when the path
// is overridden, and the override's extension is not checked against it.
func Resolve(root string) (Location, error) {
	return resolve(root, newEnv())
}

func resolve(root string, env *viper.Viper) (Location, error) {
	if root == "" {
		return Location{}, errors.Wrap(ErrInvalidPath, "empty root")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return Location{}, errors.Wrapf(err, "resolving root %s", root)
	}

	loc := Location{
		Root:    abs,
		DataDir: filepath.Join(abs, DataDirName),
	}

	if err := EnsureDir(loc.DataDir, 0); err != nil {
		return Location{}, errors.Wrapf(err, "creating data directory %s", loc.DataDir)
	}

	loc.Format = FormatYAML
	if fileutil.IsRegularFile(filepath.Join(loc.DataDir, "config.json")) {
		loc.Format = FormatJSON
	}

	loc.Path = filepath.Join(loc.DataDir, "config."+loc.Format.Ext())
	if override := env.GetString("config_path"); override != "" {
		loc.Path = override
		loc.Overridden = true
	}

	return loc, nil
}

// newEnv returns a viper instance bound to the MIUITASK_* variables.
func newEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	_ = v.BindEnv("config_path")
	return v
}

// Sentinel errors for path resolution.
var (
	// ErrInvalidPath indicates the provided path is malformed or invalid.
	ErrInvalidPath = errors.New("invalid path")
)

// EnsureDir creates the directory and any necessary parents with specified permissions.
// If perm is 0, DefaultDirPerm is used.
// This function is idempotent; it returns nil if the directory already exists.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

// DefaultRoot returns the installation root: the directory holding the
// running executable, with symlinks resolved. If the executable cannot be
// located it falls back to <XDG data home>/miuitask.
func DefaultRoot() string {
	exe, err := os.Executable()
	if err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	return filepath.Join(xdg.DataHome, AppName)
}
