//  Copyright (c) 2026 Uber Technologies, Inc.
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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// StandaloneDriver implements Driver for running the standalone OwnAway checker.
type StandaloneDriver struct{}

// Run builds the standalone checker from the current directory (the repository root) and runs
// it on the test project.
func (d *StandaloneDriver) Run(dir string) (diagnostics map[Position][]string, err error) {
	tempDir, err := os.MkdirTemp("", "ownaway-integration-test")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { err = errors.Join(err, os.RemoveAll(tempDir)) }()

	bin := filepath.Join(tempDir, "ownaway")
	if out, err := exec.Command("go", "build", "-o", bin, "./cmd/ownaway").CombinedOutput(); err != nil {
		return nil, fmt.Errorf("build OwnAway: %w: %s", err, out)
	}

	cmd := exec.Command(bin, "-json", "-pretty-print=false", "-include-pkgs=go.uber.org/ownaway/integration", "./...")
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("run ownaway: %w\n%s", err, stderr.String())
	}
	return parseStandaloneOutput(stdout.Bytes())
}

// parseStandaloneOutput parses the JSON output of the checker: a map from package path to a map
// from analyzer name to either the list of diagnostics or an error object.
func parseStandaloneOutput(output []byte) (map[Position][]string, error) {
	type diagnostic struct {
		Posn    string `json:"posn"`
		Message string `json:"message"`
	}

	collected := make(map[Position][]string)
	if len(bytes.TrimSpace(output)) == 0 {
		return collected, nil
	}

	var result map[string]map[string]json.RawMessage
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("decode ownaway output: %w", err)
	}
	for pkg, m := range result {
		raw, ok := m["ownaway"]
		if !ok {
			return nil, fmt.Errorf("expect \"ownaway\" key in the result of %q, got %v", pkg, m)
		}
		var diagnostics []diagnostic
		if err := json.Unmarshal(raw, &diagnostics); err != nil {
			return nil, fmt.Errorf("analysis of %q failed: %s", pkg, raw)
		}
		for _, d := range diagnostics {
			pos, err := parsePosn(d.Posn)
			if err != nil {
				return nil, err
			}
			collected[pos] = append(collected[pos], d.Message)
		}
	}
	return collected, nil
}

// parsePosn parses a "file:line:column" position. The file name may itself contain colons.
func parsePosn(posn string) (Position, error) {
	col := strings.LastIndexByte(posn, ':')
	if col < 0 {
		return Position{}, fmt.Errorf("expect \"file:line:column\" position, got %q", posn)
	}
	line := strings.LastIndexByte(posn[:col], ':')
	if line < 0 {
		return Position{}, fmt.Errorf("expect \"file:line:column\" position, got %q", posn)
	}
	n, err := strconv.Atoi(posn[line+1 : col])
	if err != nil {
		return Position{}, fmt.Errorf("convert line of %q: %w", posn, err)
	}
	return Position{Filename: posn[:line], Line: n}, nil
}
