// Copyright (C) 2021-2025 Chronicle Labs, Inc.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

type FSOption func(*fileReader)

// WithFSEncoding sets the encoding used to decode files. The default
// encoding is "utf-8". Names are IANA charset labels such as "iso-8859-1"
// or "us-ascii", common aliases like "latin-1" and "ascii" are accepted.
func WithFSEncoding(name string) FSOption {
	return func(f *fileReader) {
		f.encName = name
	}
}

// WithFSLogger sets the logger used to report opened files.
func WithFSLogger(logger *slog.Logger) FSOption {
	return func(f *fileReader) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// fileReader opens files and decodes them into lines. It is shared by
// FSSource and TopSource, which differ only in how paths are resolved.
// Lines end at '\n', "\r\n", a lone '\r' and the other Unicode line
// boundaries.
type fileReader struct {
	encName string
	enc     *textEncoding
	logger  *slog.Logger
}

func (f *fileReader) setup(opts []FSOption) error {
	for _, opt := range opts {
		opt(f)
	}
	if f.encName == "" {
		f.encName = DefaultEncoding
	}
	if f.logger == nil {
		f.logger = discardLogger
	}
	enc, err := lookupEncoding(f.encName)
	if err != nil {
		return err
	}
	f.enc = enc
	return nil
}

func (f *fileReader) open(ctx context.Context, path string) (*Lines, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.logger.Debug("Opening file", slog.String("path", path), slog.String("encoding", f.encName))
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errFileNotFoundFn(path, err)
		}
		return nil, err
	}
	// Directories can be opened but not read, report them as early as
	// other open errors.
	if fi, err := file.Stat(); err == nil && fi.IsDir() {
		_ = file.Close()
		return nil, &fs.PathError{Op: "open", Path: path, Err: syscall.EISDIR}
	}
	return f.enc.lines(file, file, splitUniversal), nil
}

// FSSource reads files from a directory on the local filesystem.
//
// Paths are slash-separated and relative to the root directory. Paths that
// would resolve to a location outside the root are rejected. The check is
// lexical: symbolic links inside the root are followed when opening files,
// even if they point outside the root.
type FSSource struct {
	fileReader
	root string
}

// NewFSSource creates a new filesystem source for the given root
// directory. The root is converted to an absolute path immediately, so
// later changes of the working directory do not affect the source.
//
// The root directory does not have to exist. If it does not, Get returns
// a *NotFoundError.
func NewFSSource(root string, opts ...FSOption) (*FSSource, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errFSSourceFn(err)
	}
	s := &FSSource{root: abs}
	if err := s.setup(opts); err != nil {
		return nil, errFSSourceFn(err)
	}
	return s, nil
}

// Root returns the absolute path of the root directory.
func (s *FSSource) Root() string {
	return s.root
}

// Inheritable implements the Source interface.
func (s *FSSource) Inheritable() bool {
	return true
}

// Resolve converts a slash-separated path into an absolute filesystem path
// within the root directory. It returns an *InvalidPathError if the path
// resolves to a location outside the root.
func (s *FSSource) Resolve(path string) (string, error) {
	parts := strings.Split(path, "/")
	full := filepath.Join(append([]string{s.root}, parts...)...)
	if !within(s.root, full) {
		return "", errInvalidPathFn(path)
	}
	return full, nil
}

// Get implements the Source interface.
func (s *FSSource) Get(ctx context.Context, path string) (*Lines, error) {
	full, err := s.Resolve(path)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, full)
}

// TopSource reads files using their literal paths. Relative paths are
// resolved against the current working directory and absolute paths are
// used as they are. No containment check is performed.
//
// TopSource is intended for the file given directly by the user. It is not
// inheritable, so includes found in its content must name their source.
type TopSource struct {
	fileReader
}

// NewTopSource creates a new top-level source.
func NewTopSource(opts ...FSOption) (*TopSource, error) {
	s := &TopSource{}
	if err := s.setup(opts); err != nil {
		return nil, errTopSourceFn(err)
	}
	return s, nil
}

// Inheritable implements the Source interface.
func (s *TopSource) Inheritable() bool {
	return false
}

// Resolve returns the path unchanged.
func (s *TopSource) Resolve(path string) (string, error) {
	return path, nil
}

// Get implements the Source interface.
func (s *TopSource) Get(ctx context.Context, path string) (*Lines, error) {
	return s.open(ctx, path)
}

// within reports whether path is root or is located below root. Both
// paths must be absolute and clean.
func within(root, path string) bool {
	if path == root {
		return true
	}
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	return strings.HasPrefix(path, root)
}

func errFSSourceFn(err error) error {
	return fmt.Errorf("source.FSSource: %w", err)
}

func errTopSourceFn(err error) error {
	return fmt.Errorf("source.TopSource: %w", err)
}
