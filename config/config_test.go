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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicleprotocol/incsource/source"
)

func TestLoad(t *testing.T) {
	absTestdata, err := filepath.Abs("testdata")
	require.NoError(t, err)

	tt := []struct {
		filename    string
		env         map[string]string
		expectedErr string
		expected    *Config
	}{
		{
			filename: "./testdata/valid.hcl",
			expected: &Config{
				Top: &TopConfig{Encoding: "utf-8"},
				Sources: []SourceConfig{
					{Name: "filters", Type: "fs", Root: "testdata/filters", Encoding: "iso-8859-1"},
					{Name: "https", Type: "web", Protocol: "https"},
					{Name: "plain", Type: "web", Protocol: "http", DefaultEncoding: "windows-1252"},
				},
			},
		},
		{
			filename: "./testdata/env.hcl",
			env: map[string]string{
				"INCSOURCE_TEST_PROTOCOL": "https",
			},
			expected: &Config{
				Sources: []SourceConfig{
					{Name: "filters", Type: "fs", Root: "testdata/filters"},
					{Name: "web", Type: "web", Protocol: "https"},
				},
			},
		},
		{
			filename: "./testdata/env.hcl",
			env: map[string]string{
				"INCSOURCE_TEST_ROOT":     absTestdata,
				"INCSOURCE_TEST_PROTOCOL": "http",
			},
			expected: &Config{
				Sources: []SourceConfig{
					{Name: "filters", Type: "fs", Root: absTestdata},
					{Name: "web", Type: "web", Protocol: "http"},
				},
			},
		},
		{
			filename:    "./testdata/duplicate-source.hcl",
			expectedErr: "Duplicate source",
		},
		{
			filename:    "./testdata/duplicate-top.hcl",
			expectedErr: "Duplicate top block",
		},
		{
			filename:    "./testdata/unknown-type.hcl",
			expectedErr: "Unknown source type",
		},
		{
			filename:    "./testdata/missing-root.hcl",
			expectedErr: "Missing root attribute",
		},
		{
			filename:    "./testdata/missing-protocol.hcl",
			expectedErr: "Missing protocol attribute",
		},
		{
			filename:    "./testdata/invalid-name.hcl",
			expectedErr: "Invalid source name",
		},
		{
			filename:    "./testdata/unknown-attribute.hcl",
			expectedErr: "Unsupported argument",
		},
		{
			filename:    "./testdata/missing.hcl",
			expectedErr: "no such file or directory",
		},
	}
	for _, tc := range tt {
		t.Run(tc.filename, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			cfg, err := Load(tc.filename)
			if tc.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, cfg)
		})
	}
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse([]byte(`source "filters" {`), "broken.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.hcl")
}

func TestConfigMux(t *testing.T) {
	ctx := context.Background()
	cfg, err := Load("./testdata/valid.hcl")
	require.NoError(t, err)

	mux, err := cfg.Mux(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"filters", "https", "plain"}, mux.Names())

	filters, err := mux.Source("filters")
	require.NoError(t, err)
	assert.True(t, filters.Inheritable())

	https, err := mux.Source("https")
	require.NoError(t, err)
	assert.False(t, https.Inheritable())

	top, err := mux.Source("")
	require.NoError(t, err)
	assert.False(t, top.Inheritable())

	lines, err := mux.Get(ctx, source.Ref{Source: "filters", Path: "list.txt"})
	require.NoError(t, err)
	got, err := source.Collect(lines)
	require.NoError(t, err)
	assert.Equal(t, []string{"café", "! comment"}, got)

	_, err = mux.Get(ctx, source.Ref{Source: "filters", Path: "../valid.hcl"})
	var pathErr *source.InvalidPathError
	assert.ErrorAs(t, err, &pathErr)
}

func TestConfigMuxInvalidEncoding(t *testing.T) {
	cfg, err := Parse([]byte(`
source "filters" {
  type     = "fs"
  root     = "."
  encoding = "no-such-encoding"
}
`), "config.hcl")
	require.NoError(t, err)

	_, err = cfg.Mux(nil)
	var encErr *source.EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Contains(t, err.Error(), `source "filters"`)
}

func TestConfigMuxTopEncoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entry.txt")
	require.NoError(t, os.WriteFile(path, []byte("caf\xe9\x93\n"), 0o644))

	cfg, err := Parse([]byte(`
top {
  encoding = "latin-1"
}
`), "config.hcl")
	require.NoError(t, err)

	mux, err := cfg.Mux(nil)
	require.NoError(t, err)
	assert.Empty(t, mux.Names())

	top, err := mux.Source("")
	require.NoError(t, err)
	lines, err := top.Get(context.Background(), path)
	require.NoError(t, err)
	got, err := source.Collect(lines)
	require.NoError(t, err)
	assert.Equal(t, []string{"café\u0093"}, got)
}

func TestEnv(t *testing.T) {
	t.Setenv("INCSOURCE_TEST_SET", "value")
	require.NoError(t, os.Unsetenv("INCSOURCE_TEST_UNSET"))

	tc := []struct {
		name string
		src  string
		want string
	}{
		{name: "set", src: `x = env("INCSOURCE_TEST_SET")`, want: "value"},
		{name: "set with default", src: `x = env("INCSOURCE_TEST_SET", "default")`, want: "value"},
		{name: "unset", src: `x = env("INCSOURCE_TEST_UNSET")`, want: ""},
		{name: "unset with default", src: `x = env("INCSOURCE_TEST_UNSET", "default")`, want: "default"},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			file, diags := hclsyntax.ParseConfig([]byte(tt.src), "env.hcl", hcl.Pos{Line: 1, Column: 1})
			require.False(t, diags.HasErrors(), diags.Error())
			var v struct {
				X string `hcl:"x"`
			}
			diags = gohcl.DecodeBody(file.Body, evalContext(), &v)
			require.False(t, diags.HasErrors(), diags.Error())
			assert.Equal(t, tt.want, v.X)
		})
	}
}

func TestEnvTooManyArguments(t *testing.T) {
	file, diags := hclsyntax.ParseConfig([]byte(`x = env("A", "b", "c")`), "env.hcl", hcl.Pos{Line: 1, Column: 1})
	require.False(t, diags.HasErrors(), diags.Error())
	var v struct {
		X string `hcl:"x"`
	}
	diags = gohcl.DecodeBody(file.Body, evalContext(), &v)
	require.True(t, diags.HasErrors())
	assert.Contains(t, diags.Error(), "expected at most 2 arguments")
}
