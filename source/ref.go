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
	"errors"
	"strings"
)

// Ref identifies a resource by the name of a source and a path within
// that source. A Ref without a source name refers to the source the
// reference was found in, or to the top source for top-level references.
type Ref struct {
	Source string
	Path   string
}

// String returns the reference in the "source:path" form.
func (r Ref) String() string {
	if r.Source == "" {
		return r.Path
	}
	return r.Source + ":" + r.Path
}

// ParseRef parses a reference in the "source:path" form.
//
// The source name must start with a letter and may contain letters,
// digits, '.', '-' and '_'. If the part before the first colon is not a
// valid source name, or there is no colon, the whole string is used as the
// path and the source name is left empty. For example, "https://example.com/a"
// is parsed as source "https" and path "//example.com/a".
func ParseRef(s string) (Ref, error) {
	if s == "" {
		return Ref{}, errParseRefEmpty
	}
	name, path, ok := strings.Cut(s, ":")
	if !ok || !ValidSourceName(name) {
		return Ref{Path: s}, nil
	}
	if path == "" {
		return Ref{}, errParseRefEmptyPathFn(s)
	}
	return Ref{Source: name, Path: path}, nil
}

// ValidSourceName reports whether name can be used as a source name in
// references.
func ValidSourceName(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '.' || c == '-' || c == '_'):
		default:
			return false
		}
	}
	return true
}

var errParseRefEmpty = errors.New("source.ParseRef: empty reference")

func errParseRefEmptyPathFn(ref string) error {
	return errors.New("source.ParseRef: empty path in reference: '" + ref + "'")
}
