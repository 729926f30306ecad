// Copyright 2018 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// declaration is the decoded form of a vdmgen toml file — the Go stand-in
// for a memflow-vdm-derive attribute invocation.
type declaration struct {
	ConnName    string `toml:"conn_name"`
	ServiceName string `toml:"service_name"`
	DriverPath  string `toml:"driver_path"`
	UseEnvVars  bool   `toml:"use_env_vars"`
	Func        string `toml:"func"`
}

// knownDrivers maps a declaration's conn_name to the govdm driver adapter
// package that backs it. vdmgen only knows how to wire adapters shipped in
// this module; a declaration naming anything else is rejected up front
// rather than emitting code that won't compile.
var knownDrivers = map[string]string{
	"rtcore64": "github.com/a2x/govdm/pkg/rtcore64",
	"winio":    "github.com/a2x/govdm/pkg/winio",
}

func loadDeclaration(path string) (*declaration, error) {
	var d declaration
	if _, err := toml.DecodeFile(path, &d); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if d.ConnName == "" {
		return nil, fmt.Errorf("%s: conn_name is required", path)
	}
	if _, ok := knownDrivers[d.ConnName]; !ok {
		return nil, fmt.Errorf("%s: unknown conn_name %q (known: rtcore64, winio)", path, d.ConnName)
	}
	if d.ServiceName != "" && d.DriverPath == "" {
		return nil, fmt.Errorf("%s: driver_path is required when service_name is set", path)
	}
	if d.Func == "" {
		d.Func = "Open"
	}
	return &d, nil
}

// envPrefix derives the {NAME_UPPER} prefix used for env var overrides from
// conn_name, e.g. "rtcore64" -> "RTCORE64".
func (d *declaration) envPrefix() string {
	return strings.ToUpper(d.ConnName)
}

func (d *declaration) driverPathEnvVar() string {
	return d.envPrefix() + "_DRIVER_PATH"
}

func (d *declaration) serviceNameEnvVar() string {
	return d.envPrefix() + "_SERVICE_NAME"
}

func (d *declaration) driverPackage() string {
	return knownDrivers[d.ConnName]
}
