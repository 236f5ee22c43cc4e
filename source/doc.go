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

// Package source provides line sources used to resolve text includes.
//
// A Source returns the content of a resource as a lazily read sequence of
// lines, regardless of whether the resource lives on the local filesystem or
// on a remote HTTP server. Three implementations are provided:
//
//   - FSSource reads files below a root directory and rejects paths that
//     would escape that directory.
//   - TopSource reads files by their literal path. It is meant for the entry
//     point given by the user and is never used for nested includes.
//   - WebSource reads resources over HTTP or HTTPS.
//
// Missing resources are reported as *NotFoundError by all sources, so the
// caller does not need to distinguish between a missing file and an HTTP 404
// response. Other failures are returned unchanged. Content is decoded
// strictly: bytes that are not valid in the encoding end the sequence and
// Lines.Err reports a *DecodeError.
//
// The returned Lines must be either read to the end or closed, otherwise the
// underlying file or HTTP response stays open:
//
//	src, err := NewFSSource("./filters")
//	if err != nil {
//		log.Fatal(err)
//	}
//	lines, err := src.Get(context.Background(), "easylist/header.txt")
//	if err != nil {
//		log.Fatal(err)
//	}
//	for line := range lines.All() {
//		fmt.Println(line)
//	}
//	if err := lines.Err(); err != nil {
//		log.Fatal(err)
//	}
//
// Sources can be registered in a Mux under names, which allows resolving
// references in the "name:path" form used by include directives.
package source
