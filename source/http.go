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
	"fmt"
	"log/slog"
	"net/http"
)

type WebOption func(*WebSource)

// WithWebHTTPClient sets the HTTP client used to perform HTTP requests.
func WithWebHTTPClient(client *http.Client) WebOption {
	return func(w *WebSource) {
		w.client = client
	}
}

// WithWebDefaultEncoding sets the encoding used when the server does not
// declare a charset. The default encoding is "utf-8".
func WithWebDefaultEncoding(name string) WebOption {
	return func(w *WebSource) {
		w.encName = name
	}
}

// WithWebLogger sets the logger used to report performed requests.
func WithWebLogger(logger *slog.Logger) WebOption {
	return func(w *WebSource) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WebSource reads resources over HTTP or HTTPS.
//
// The request URL is built from the protocol and the path passed to Get,
// separated by a colon, so the path is expected to start with "//" followed
// by the host, e.g. "//example.com/list.txt".
type WebSource struct {
	protocol string
	client   *http.Client
	encName  string
	enc      *textEncoding
	logger   *slog.Logger
}

// NewWebSource creates a new web source for the given protocol, which must
// be either "http" or "https".
func NewWebSource(protocol string, opts ...WebOption) (*WebSource, error) {
	if protocol != "http" && protocol != "https" {
		return nil, errWebSourceUnknownProtocolFn(protocol)
	}
	w := &WebSource{protocol: protocol}
	for _, opt := range opts {
		opt(w)
	}
	if w.client == nil {
		w.client = http.DefaultClient
	}
	if w.logger == nil {
		w.logger = discardLogger
	}
	if w.encName == "" {
		w.encName = DefaultEncoding
	}
	enc, err := lookupEncoding(w.encName)
	if err != nil {
		return nil, errWebSourceFn(err)
	}
	w.enc = enc
	return w, nil
}

// Protocol returns the protocol used by the source.
func (w *WebSource) Protocol() string {
	return w.protocol
}

// Inheritable implements the Source interface.
func (w *WebSource) Inheritable() bool {
	return false
}

// Get implements the Source interface.
//
// The response body is decoded using the charset declared in the
// Content-Type header, or the default encoding if no charset is declared.
// Lines end at '\n' only.
// A 404 response results in a *NotFoundError, other non-2xx responses in a
// *StatusError.
func (w *WebSource) Get(ctx context.Context, path string) (*Lines, error) {
	url := w.protocol + ":" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		_ = res.Body.Close()
		w.logger.Debug("Request failed", slog.String("url", url), slog.Int("status", res.StatusCode))
		if res.StatusCode == http.StatusNotFound {
			return nil, errHTTPNotFoundFn(url)
		}
		return nil, &StatusError{URL: url, StatusCode: res.StatusCode}
	}
	enc := w.enc
	if charset := declaredCharset(res.Header); charset != "" {
		if enc, err = lookupEncoding(charset); err != nil {
			_ = res.Body.Close()
			return nil, errWebSourceFn(err)
		}
	}
	w.logger.Debug(
		"Fetched resource",
		slog.String("url", url),
		slog.Int("status", res.StatusCode),
		slog.String("encoding", enc.name),
	)
	return enc.lines(res.Body, res.Body, splitNewline), nil
}

func errWebSourceFn(err error) error {
	return fmt.Errorf("source.WebSource: %w", err)
}

func errWebSourceUnknownProtocolFn(protocol string) error {
	return fmt.Errorf("source.WebSource: unknown protocol: %q, must be 'http' or 'https'", protocol)
}
