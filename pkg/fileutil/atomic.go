// Package fileutil provides file system utilities including atomic write operations.
package fileutil

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/miuitask/internal/errors"
)

// DefaultFilePerm keeps files that hold credentials private to the owner.
const DefaultFilePerm os.FileMode = 0o600

// YAMLIndent is the indentation width used for YAML output.
const YAMLIndent = 4

// maxSymlinks bounds symlink resolution, matching the Linux limit.
const maxSymlinks = 40

// rename is swapped in tests to simulate cross-device and busy targets.
var rename = os.Rename

// AtomicWriteFile writes data to a file atomically using a temp file + rename pattern.
// This ensures interrupted writes leave the original file intact.
//
// If path is a symlink, the file it points to is replaced and the link is
// kept. If the target cannot be renamed over, as with a single file bind
// mounted into a container, the data is written in place instead.
//
// The caller is responsible for ensuring the parent directory exists.
// Permissions are applied to the final file via the perm parameter.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	target, err := resolveTarget(path)
	if err != nil {
		return errors.Wrap(err, "resolving target")
	}
	dir := filepath.Dir(target)

	// Same directory so the rename stays on one filesystem
	tmp, err := os.CreateTemp(dir, ".miuitask-atomic-*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}

	tmpName := tmp.Name()
	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing temp file")
	}

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return errors.Wrap(err, "setting file permissions")
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "syncing temp file")
	}

	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}

	if err := rename(tmpName, target); err != nil {
		if !errors.Is(err, syscall.EBUSY) && !errors.Is(err, syscall.EXDEV) {
			return errors.Wrap(err, "renaming temp file")
		}
		if err := writeInPlace(target, data, perm); err != nil {
			return errors.Wrap(err, "writing in place")
		}
	}

	return nil
}

// resolveTarget follows symlinks at path to the file they name. A dangling
// link resolves to its missing target, which the write then creates.
func resolveTarget(path string) (string, error) {
	for range maxSymlinks {
		info, err := os.Lstat(path)
		if os.IsNotExist(err) {
			return path, nil
		}
		if err != nil {
			return "", err
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return path, nil
		}

		link, err := os.Readlink(path)
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(link) {
			link = filepath.Join(filepath.Dir(path), link)
		}
		path = link
	}
	return "", errors.Newf("%s: too many levels of symbolic links", path)
}

// writeInPlace truncates and rewrites path. It is not atomic.
func writeInPlace(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EncodeJSON renders v as JSON with 2-space indentation and a trailing newline.
// HTML characters are written literally, as is non-ASCII text.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(err, "marshaling JSON")
	}
	return buf.Bytes(), nil
}

// EncodeYAML renders v as YAML indented by YAMLIndent spaces. Struct fields
// keep their declaration order and non-ASCII text is written literally.
func EncodeYAML(v any) (data []byte, err error) {
	// yaml can panic on unmarshalable types; recover and return error
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = errors.Newf("marshaling YAML: %v", r)
		}
	}()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(YAMLIndent)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(err, "marshaling YAML")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "marshaling YAML")
	}

	out := buf.Bytes()
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return out, nil
}
