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
	"fmt"
	"os"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Env returns an HCL function that reads an environment variable. An
// optional second argument is returned when the variable is not set,
// otherwise an unset variable evaluates to an empty string.
//
//	root = env("FILTERS_DIR", "./filters")
func Env() function.Function {
	spec := function.Spec{
		Description: "Returns the value of an environment variable",
		Params: []function.Parameter{
			{
				Name:        "name",
				Description: "name of the environment variable",
				Type:        cty.String,
			},
		},
		VarParam: &function.Parameter{
			Name:        "default",
			Description: "value used when the variable is not set",
			Type:        cty.String,
		},
		Type: func(args []cty.Value) (cty.Type, error) {
			if len(args) > 2 {
				return cty.NilType, fmt.Errorf("expected at most 2 arguments")
			}
			return cty.String, nil
		},
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			if v, ok := os.LookupEnv(args[0].AsString()); ok {
				return cty.StringVal(v), nil
			}
			if len(args) == 2 {
				return args[1], nil
			}
			return cty.StringVal(""), nil
		},
	}
	return function.New(&spec)
}
