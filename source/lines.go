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
	"bufio"
	"errors"
	"io"
	"iter"
	"runtime"
	"strings"
	"unicode"
)

// splitMode selects which characters end a line.
type splitMode int

const (
	// splitNewline ends lines at '\n' only. A '\r' before it is removed
	// together with the other trailing whitespace.
	splitNewline splitMode = iota

	// splitUniversal ends lines at '\n', '\r', "\r\n" and at the other
	// Unicode line boundaries: '\v', '\f', '\x1c', '\x1d', '\x1e',
	// U+0085, U+2028 and U+2029.
	splitUniversal
)

// Lines is a lazily read sequence of lines returned by Source.Get.
//
// Each line has its line terminator and trailing whitespace removed. Lines
// holds an open file or HTTP response. The resource is released when the
// sequence is exhausted, when reading fails, when Close is called, or when
// a loop over All ends. A caller that stops calling Next before the end
// and does not range over All must call Close.
//
// If the content cannot be decoded, Next returns false and Err returns a
// *DecodeError. The sequence can be read only once and must not be used by
// multiple goroutines.
type Lines struct {
	reader   *bufio.Reader
	closer   io.Closer
	cleanup  runtime.Cleanup
	split    splitMode
	encoding string
	line     string
	n        int
	pending  error
	err      error
	done     bool
}

func newLines(r io.Reader, c io.Closer) *Lines {
	l := &Lines{reader: bufio.NewReader(r), closer: c}
	if c != nil {
		// Releases the resource of a sequence dropped without Close.
		l.cleanup = runtime.AddCleanup(l, func(c io.Closer) { _ = c.Close() }, c)
	}
	return l
}

// Next advances to the next line, which is then available through Text.
// It returns false when there are no more lines or an error occurred, in
// which case the underlying resource is already released.
func (l *Lines) Next() bool {
	if l.done {
		return false
	}
	s, err := l.readLine()
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && s != "":
		// Last line without a terminator. The next call gets a bare EOF.
	case errors.Is(err, io.EOF):
		l.finish(nil)
		return false
	case errors.Is(err, errInvalidByteSequence):
		l.finish(&DecodeError{Encoding: l.encoding, Line: l.n + 1, Err: err})
		return false
	default:
		l.finish(err)
		return false
	}
	l.n++
	l.line = strings.TrimRightFunc(s, unicode.IsSpace)
	return true
}

func (l *Lines) readLine() (string, error) {
	if l.pending != nil {
		return "", l.pending
	}
	if l.split == splitNewline {
		return l.reader.ReadString('\n')
	}
	var b strings.Builder
	for {
		r, _, err := l.reader.ReadRune()
		if err != nil {
			return b.String(), err
		}
		switch r {
		case '\r':
			next, _, err := l.reader.ReadRune()
			switch {
			case err == nil && next != '\n':
				_ = l.reader.UnreadRune()
			case err != nil && !errors.Is(err, io.EOF):
				l.pending = err
			}
			return b.String(), nil
		case '\n', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
			return b.String(), nil
		}
		b.WriteRune(r)
	}
}

// Text returns the current line.
func (l *Lines) Text() string {
	return l.line
}

// Err returns the first error encountered while reading, or nil if the
// sequence ended normally.
func (l *Lines) Err() error {
	return l.err
}

// Close releases the underlying resource. It is safe to call Close
// multiple times and after the sequence is exhausted.
func (l *Lines) Close() error {
	if l.done {
		return nil
	}
	l.done = true
	l.line = ""
	if l.closer == nil {
		return nil
	}
	l.cleanup.Stop()
	return l.closer.Close()
}

// All returns an iterator over the remaining lines. The underlying
// resource is released when the loop ends, also if it ends early.
//
// Errors are not reported by the iterator, use Err after the loop.
func (l *Lines) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		defer l.Close()
		for l.Next() {
			if !yield(l.Text()) {
				return
			}
		}
	}
}

func (l *Lines) finish(err error) {
	cErr := l.Close()
	if err == nil {
		err = cErr
	}
	l.err = err
}

// Collect reads all remaining lines and closes the sequence.
func Collect(l *Lines) ([]string, error) {
	defer l.Close()
	var s []string
	for l.Next() {
		s = append(s, l.Text())
	}
	return s, l.Err()
}
