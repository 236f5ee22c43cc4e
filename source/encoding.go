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
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultEncoding is used when no encoding is configured.
const DefaultEncoding = "utf-8"

var errInvalidByteSequence = errors.New("invalid byte sequence")

// encodingAliases maps common labels that are missing from the IANA
// registry to their registered names.
var encodingAliases = map[string]string{
	"ascii":      "us-ascii",
	"us_ascii":   "us-ascii",
	"646":        "us-ascii",
	"utf8":       "utf-8",
	"utf_8":      "utf-8",
	"u8":         "utf-8",
	"latin-1":    "iso-8859-1",
	"latin_1":    "iso-8859-1",
	"latin":      "iso-8859-1",
	"iso8859-1":  "iso-8859-1",
	"iso8859_1":  "iso-8859-1",
	"iso_8859_1": "iso-8859-1",
	"8859":       "iso-8859-1",
	"cp1252":     "windows-1252",
}

// asciiLabels are the IANA labels of US-ASCII.
var asciiLabels = map[string]bool{
	"us-ascii":         true,
	"us":               true,
	"ansi_x3.4-1968":   true,
	"ansi_x3.4-1986":   true,
	"iso-ir-6":         true,
	"iso_646.irv:1991": true,
	"iso646-us":        true,
	"ibm367":           true,
	"cp367":            true,
	"csascii":          true,
}

// textEncoding is a resolved character encoding. Its decoders are strict:
// input that is not valid in the encoding fails with a *DecodeError
// instead of being replaced with U+FFFD.
type textEncoding struct {
	name       string
	newDecoder func() transform.Transformer
}

// lookupEncoding returns the encoding registered under the given label.
//
// Labels are matched case-insensitively against the IANA character set
// registry, so that ISO-8859-1 is a real Latin-1 decoder. Labels unknown
// to IANA are looked up in the WHATWG encoding index.
func lookupEncoding(name string) (*textEncoding, error) {
	label := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := encodingAliases[label]; ok {
		label = alias
	}
	if asciiLabels[label] {
		return &textEncoding{
			name:       name,
			newDecoder: func() transform.Transformer { return strictASCII{} },
		}, nil
	}
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil || enc == nil {
		if enc, err = htmlindex.Get(label); err != nil {
			return nil, &EncodingError{Name: name}
		}
	}
	if enc == unicode.UTF8 {
		return &textEncoding{
			name:       name,
			newDecoder: func() transform.Transformer { return strictUTF8{allowReplacement: true} },
		}, nil
	}
	return &textEncoding{
		name: name,
		newDecoder: func() transform.Transformer {
			return transform.Chain(enc.NewDecoder(), strictUTF8{})
		},
	}, nil
}

// lines returns Lines decoding r with the encoding. The closer c is
// released together with the sequence.
func (e *textEncoding) lines(r io.Reader, c io.Closer, split splitMode) *Lines {
	l := newLines(transform.NewReader(r, e.newDecoder()), c)
	l.encoding = e.name
	l.split = split
	return l
}

// declaredCharset returns the charset parameter of the Content-Type header,
// or an empty string if there is none.
func declaredCharset(h http.Header) string {
	_, params, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return params["charset"]
}

// strictUTF8 copies valid UTF-8 and fails on anything else.
//
// Decoders from x/text replace undecodable input with U+FFFD, so after a
// decoder any U+FFFD is treated as a failure unless allowReplacement is
// set. The UTF-8 decoder is not used at all, the input is validated as is.
type strictUTF8 struct {
	transform.NopResetter
	allowReplacement bool
}

func (t strictUTF8) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		size := 1
		if src[nSrc] >= utf8.RuneSelf {
			if !utf8.FullRune(src[nSrc:]) {
				if !atEOF {
					return nDst, nSrc, transform.ErrShortSrc
				}
				return nDst, nSrc, errInvalidByteSequence
			}
			var r rune
			r, size = utf8.DecodeRune(src[nSrc:])
			if r == utf8.RuneError && (size == 1 || !t.allowReplacement) {
				return nDst, nSrc, errInvalidByteSequence
			}
		}
		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], src[nSrc:nSrc+size])
		nSrc += size
	}
	return nDst, nSrc, nil
}

// strictASCII copies 7-bit input and fails on any other byte.
type strictASCII struct {
	transform.NopResetter
}

func (strictASCII) Transform(dst, src []byte, _ bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if src[nSrc] >= utf8.RuneSelf {
			return nDst, nSrc, errInvalidByteSequence
		}
		if nDst >= len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		dst[nDst] = src[nSrc]
		nDst++
		nSrc++
	}
	return nDst, nSrc, nil
}
