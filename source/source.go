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
	"log/slog"
)

// Source provides the content of resources as sequences of lines.
//
// Implementations are immutable after construction and may be used by
// multiple goroutines at the same time. Every call to Get uses its own file
// handle or HTTP connection.
type Source interface {
	// Inheritable reports whether includes found in the content returned
	// by this source may be resolved against the same source.
	Inheritable() bool

	// Get returns the lines of the resource at the given path. The path
	// is interpreted within the namespace of the source.
	//
	// If the resource does not exist, a *NotFoundError is returned.
	Get(ctx context.Context, path string) (*Lines, error)
}

var discardLogger = slog.New(slog.DiscardHandler)
