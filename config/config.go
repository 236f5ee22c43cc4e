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

// Package config loads line source definitions from HCL files.
//
// Example:
//
//	top {
//	  encoding = "utf-8"
//	}
//
//	source "filters" {
//	  type = "fs"
//	  root = env("FILTERS_DIR", "./filters")
//	}
//
//	source "https" {
//	  type             = "web"
//	  default_encoding = "utf-8"
//	}
//
// Relative roots of "fs" sources are resolved against the directory of the
// configuration file. For "web" sources the protocol defaults to the block
// label if the label is "http" or "https".
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/chronicleprotocol/incsource/source"
)

const (
	topBlockName    = "top"
	sourceBlockName = "source"

	typeFS  = "fs"
	typeWeb = "web"
)

var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: topBlockName},
		{Type: sourceBlockName, LabelNames: []string{"name"}},
	},
}

// Config describes the sources available to the includer.
type Config struct {
	// Top configures the top source. It is optional, the top source is
	// always created.
	Top *TopConfig

	// Sources are the named sources, in the order of definition.
	Sources []SourceConfig
}

// TopConfig configures the top source.
type TopConfig struct {
	Encoding string `hcl:"encoding,optional"`
}

// SourceConfig configures a named source.
type SourceConfig struct {
	Name string

	Type            string `hcl:"type"`
	Root            string `hcl:"root,optional"`
	Encoding        string `hcl:"encoding,optional"`
	Protocol        string `hcl:"protocol,optional"`
	DefaultEncoding string `hcl:"default_encoding,optional"`
}

// Load reads and parses the configuration file at the given path.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errConfigFn(err)
	}
	return Parse(src, path)
}

// Parse parses the configuration. The filename is used in diagnostics and
// to resolve relative roots.
func Parse(src []byte, filename string) (*Config, error) {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, diags
	}
	cfg, diags := decode(file.Body, filepath.Dir(filename))
	if diags.HasErrors() {
		return nil, diags
	}
	return cfg, nil
}

// Mux creates the configured sources and registers them in a mux. The
// top source is registered under the empty name.
func (c *Config) Mux(logger *slog.Logger) (*source.Mux, error) {
	sources := make(map[string]source.Source, len(c.Sources)+1)
	topOpts := []source.FSOption{source.WithFSLogger(logger)}
	if c.Top != nil && c.Top.Encoding != "" {
		topOpts = append(topOpts, source.WithFSEncoding(c.Top.Encoding))
	}
	top, err := source.NewTopSource(topOpts...)
	if err != nil {
		return nil, errConfigFn(err)
	}
	sources[""] = top
	for _, sc := range c.Sources {
		s, err := sc.Source(logger)
		if err != nil {
			return nil, errConfigSourceFn(sc.Name, err)
		}
		sources[sc.Name] = s
	}
	return source.NewMux(sources, source.WithMuxLogger(logger)), nil
}

// Source creates the source described by the configuration.
func (sc SourceConfig) Source(logger *slog.Logger) (source.Source, error) {
	switch sc.Type {
	case typeFS:
		opts := []source.FSOption{source.WithFSLogger(logger)}
		if sc.Encoding != "" {
			opts = append(opts, source.WithFSEncoding(sc.Encoding))
		}
		return source.NewFSSource(sc.Root, opts...)
	case typeWeb:
		opts := []source.WebOption{source.WithWebLogger(logger)}
		if sc.DefaultEncoding != "" {
			opts = append(opts, source.WithWebDefaultEncoding(sc.DefaultEncoding))
		}
		return source.NewWebSource(sc.Protocol, opts...)
	}
	return nil, fmt.Errorf("unknown source type: %s", sc.Type)
}

func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env": Env(),
		},
	}
}

func decode(body hcl.Body, dir string) (*Config, hcl.Diagnostics) {
	content, diags := body.Content(rootSchema)
	if diags.HasErrors() {
		return nil, diags
	}
	ctx := evalContext()
	cfg := &Config{}
	defined := make(map[string]*hcl.Block)
	for _, block := range content.Blocks {
		switch block.Type {
		case topBlockName:
			if cfg.Top != nil {
				diags = diags.Append(&hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate top block",
					Detail:   "Only one top block is allowed.",
					Subject:  block.DefRange.Ptr(),
				})
				continue
			}
			top := &TopConfig{}
			diags = diags.Extend(gohcl.DecodeBody(block.Body, ctx, top))
			cfg.Top = top
		case sourceBlockName:
			name := block.Labels[0]
			if prev, ok := defined[name]; ok {
				diags = diags.Append(&hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate source",
					Detail:   fmt.Sprintf("Source %q was already defined at %s.", name, prev.DefRange),
					Subject:  block.DefRange.Ptr(),
				})
				continue
			}
			defined[name] = block
			sc, sDiags := decodeSource(ctx, block, dir)
			diags = diags.Extend(sDiags)
			if !sDiags.HasErrors() {
				cfg.Sources = append(cfg.Sources, sc)
			}
		}
	}
	return cfg, diags
}

func decodeSource(ctx *hcl.EvalContext, block *hcl.Block, dir string) (SourceConfig, hcl.Diagnostics) {
	sc := SourceConfig{Name: block.Labels[0]}
	if !source.ValidSourceName(sc.Name) {
		return sc, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid source name",
			Detail:   "Source names must start with a letter and contain only letters, digits, '.', '-' and '_'.",
			Subject:  block.LabelRanges[0].Ptr(),
		}}
	}
	if diags := gohcl.DecodeBody(block.Body, ctx, &sc); diags.HasErrors() {
		return sc, diags
	}
	switch sc.Type {
	case typeFS:
		if sc.Root == "" {
			return sc, missingAttrDiags(block, "root", "Sources of type \"fs\" require a root directory.")
		}
		if !filepath.IsAbs(sc.Root) {
			sc.Root = filepath.Join(dir, sc.Root)
		}
	case typeWeb:
		if sc.Protocol == "" && (sc.Name == "http" || sc.Name == "https") {
			sc.Protocol = sc.Name
		}
		if sc.Protocol == "" {
			return sc, missingAttrDiags(block, "protocol", "Sources of type \"web\" require a protocol.")
		}
	default:
		return sc, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unknown source type",
			Detail:   fmt.Sprintf("Source type %q is not supported, must be %q or %q.", sc.Type, typeFS, typeWeb),
			Subject:  block.DefRange.Ptr(),
		}}
	}
	return sc, nil
}

func missingAttrDiags(block *hcl.Block, attr, detail string) hcl.Diagnostics {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  fmt.Sprintf("Missing %s attribute", attr),
		Detail:   detail,
		Subject:  block.DefRange.Ptr(),
	}}
}

func errConfigFn(err error) error {
	return fmt.Errorf("config: %w", err)
}

func errConfigSourceFn(name string, err error) error {
	return fmt.Errorf("config: source %q: %w", name, err)
}
