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
	"log/slog"
	"maps"
	"slices"
)

var (
	// ErrUnknownSource is returned by Mux when a reference names a source
	// that is not registered.
	ErrUnknownSource = errors.New("unknown source")

	// ErrNotInheritable is returned by Mux.GetNested when a reference
	// without a source name is found in the content of a source that is
	// not inheritable.
	ErrNotInheritable = errors.New("source is not inheritable")
)

type MuxOption func(*Mux)

// WithMuxLogger sets the logger used to report resolved references.
func WithMuxLogger(logger *slog.Logger) MuxOption {
	return func(m *Mux) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Mux routes references to sources registered under names.
//
// The source registered under the empty name is the top source. It is
// used for references without a source name passed to Get, and it can
// never be reached through GetNested.
type Mux struct {
	sources map[string]Source
	logger  *slog.Logger
}

// NewMux creates a new source multiplexer. The map is copied.
func NewMux(sources map[string]Source, opts ...MuxOption) *Mux {
	m := &Mux{sources: maps.Clone(sources), logger: discardLogger}
	if m.sources == nil {
		m.sources = make(map[string]Source)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Names returns the sorted names of registered sources, excluding the top
// source.
func (m *Mux) Names() []string {
	names := slices.Sorted(maps.Keys(m.sources))
	return slices.DeleteFunc(names, func(n string) bool { return n == "" })
}

// Source returns the source registered under the given name.
func (m *Mux) Source(name string) (Source, error) {
	if s, ok := m.sources[name]; ok {
		return s, nil
	}
	if name == "" {
		return nil, errMuxNoTopSource
	}
	return nil, errMuxUnknownSourceFn(name)
}

// Get returns the lines of the referenced resource. A reference without
// a source name is resolved using the top source.
func (m *Mux) Get(ctx context.Context, ref Ref) (*Lines, error) {
	s, err := m.Source(ref.Source)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("Resolving reference", slog.String("ref", ref.String()))
	return s.Get(ctx, ref.Path)
}

// GetNested returns the lines of a resource referenced from the content of
// the parent resource. A reference without a source name uses the source
// of the parent, but only if that source is inheritable. It returns the
// reference that was actually used, which should be passed as the parent
// when resolving references found in the returned lines.
func (m *Mux) GetNested(ctx context.Context, parent, ref Ref) (*Lines, Ref, error) {
	if ref.Source == "" {
		s, err := m.Source(parent.Source)
		if err != nil {
			return nil, ref, err
		}
		if !s.Inheritable() {
			return nil, ref, errMuxNotInheritableFn(parent, ref)
		}
		ref.Source = parent.Source
	}
	lines, err := m.Get(ctx, ref)
	return lines, ref, err
}

var errMuxNoTopSource = errors.New("source.Mux: no top source registered")

func errMuxUnknownSourceFn(name string) error {
	return fmt.Errorf("source.Mux: %w: %s", ErrUnknownSource, name)
}

func errMuxNotInheritableFn(parent, ref Ref) error {
	return fmt.Errorf("source.Mux: %w: '%s' included from '%s'", ErrNotInheritable, ref, parent)
}
