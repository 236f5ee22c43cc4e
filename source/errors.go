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
	"fmt"
	"io/fs"
	"net/http"
)

// NotFoundError is returned when the requested resource does not exist in
// a source. It is used both for missing files and for HTTP 404 responses.
//
// NotFoundError matches fs.ErrNotExist when used with errors.Is.
type NotFoundError struct {
	// Locator describes the missing resource, either a resolved file path
	// or a URL.
	Locator string

	reason string
	err    error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: '%s'", e.reason, e.Locator)
}

func (e *NotFoundError) Unwrap() error {
	if e.err == nil {
		return fs.ErrNotExist
	}
	return e.err
}

// InvalidPathError is returned by FSSource when a path resolves to a
// location outside the source root. The error is returned before the
// filesystem is accessed.
//
// InvalidPathError matches fs.ErrInvalid when used with errors.Is.
type InvalidPathError struct {
	Path string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("source.FSSource: invalid path: '%s'", e.Path)
}

func (e *InvalidPathError) Unwrap() error {
	return fs.ErrInvalid
}

// StatusError is returned by WebSource when the server responds with a
// status code other than 2xx and 404.
//
// Responses with 401, 402 and 403 status codes match fs.ErrPermission when
// used with errors.Is.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf(
		"source.WebSource: %s: unexpected status code: %d %s",
		e.URL,
		e.StatusCode,
		http.StatusText(e.StatusCode),
	)
}

func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusForbidden:
		return fs.ErrPermission
	}
	return nil
}

// EncodingError is returned when a character encoding name is not known.
type EncodingError struct {
	Name string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("source: unknown encoding: %q", e.Name)
}

// DecodeError is reported by Lines.Err when the content is not valid in
// the encoding used to decode it. Line is the 1-based number of the line
// that failed to decode.
type DecodeError struct {
	Encoding string
	Line     int
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("source: cannot decode line %d as %s: %v", e.Line, e.Encoding, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err, or any error it wraps, is a
// *NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func errFileNotFoundFn(path string, err error) error {
	return &NotFoundError{Locator: path, reason: "file not found", err: err}
}

func errHTTPNotFoundFn(url string) error {
	return &NotFoundError{Locator: url, reason: "HTTP 404 not found"}
}

func errInvalidPathFn(path string) error {
	return &InvalidPathError{Path: path}
}
