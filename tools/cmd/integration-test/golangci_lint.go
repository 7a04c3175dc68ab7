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
	"strings"
	"text/template"
)

// GolangCILintDriver implements Driver for running OwnAway as a golangci-lint module plugin. It
// requires a golangci-lint binary in PATH, whose version is used for building the custom binary
// unless overridden by the GCL_VERSION environment variable.
type GolangCILintDriver struct{}

// Run builds a custom golangci-lint with the OwnAway plugin of the current directory (the
// repository root) and runs it on the test project.
func (d *GolangCILintDriver) Run(dir string) (diagnostics map[Position][]string, err error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get current working directory: %w", err)
	}
	gcl, err := exec.LookPath("golangci-lint")
	if err != nil {
		return nil, fmt.Errorf("find golangci-lint: %w", err)
	}
	version := os.Getenv("GCL_VERSION")
	if version == "" {
		if version, err = gclVersion(gcl); err != nil {
			return nil, err
		}
	}

	tempDir, err := os.MkdirTemp("", "ownaway-golangci-lint-integration-test")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { err = errors.Join(err, os.RemoveAll(tempDir)) }()

	templateContent, err := os.ReadFile(filepath.Join(dir, ".custom-gcl.template.yaml"))
	if err != nil {
		return nil, fmt.Errorf("read template file: %w", err)
	}
	tmpl, err := template.New("custom-gcl").Parse(string(templateContent))
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string{"GCLVersion": version, "OwnAwayPath": cwd}); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, ".custom-gcl.yaml"), buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write .custom-gcl.yaml: %w", err)
	}

	cmd := exec.Command(gcl, "custom")
	cmd.Dir = tempDir
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("build the custom golangci-lint: %w: %s", err, out)
	}

	diagnosticFile := filepath.Join(tempDir, "diagnostics.json")
	cmd = exec.Command(filepath.Join(tempDir, "custom-gcl"), "run", "--output.json.path", diagnosticFile, "./...")
	cmd.Dir = dir
	// golangci-lint exits with status 1 when it finds issues, which is expected.
	var exitErr *exec.ExitError
	if out, err := cmd.CombinedOutput(); err != nil && !(errors.As(err, &exitErr) && exitErr.ExitCode() == 1) {
		return nil, fmt.Errorf("run custom-gcl: %w: %s", err, out)
	}

	data, err := os.ReadFile(diagnosticFile)
	if err != nil {
		return nil, fmt.Errorf("read diagnostics file: %w", err)
	}
	return parseGolangCILintOutput(dir, data)
}

// gclVersion returns the version of the golangci-lint binary, e.g. "v2.1.6".
func gclVersion(gcl string) (string, error) {
	out, err := exec.Command(gcl, "version", "--short").Output()
	if err != nil {
		return "", fmt.Errorf("get golangci-lint version: %w", err)
	}
	v := strings.TrimSpace(string(out))
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v, nil
}

func parseGolangCILintOutput(dir string, output []byte) (map[Position][]string, error) {
	diagnostics := make(map[Position][]string)
	if len(output) == 0 {
		return diagnostics, nil
	}

	var result struct {
		Issues []struct {
			FromLinter string   `json:"FromLinter"`
			Text       string   `json:"Text"`
			Pos        Position `json:"Pos"`
		} `json:"Issues"`
	}
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("parse golangci-lint output: %w", err)
	}

	for _, issue := range result.Issues {
		if issue.FromLinter != "ownaway" {
			continue
		}
		// The file names from golangci-lint are relative to the project.
		issue.Pos.Filename = filepath.Join(dir, issue.Pos.Filename)
		diagnostics[issue.Pos] = append(diagnostics[issue.Pos], issue.Text)
	}
	return diagnostics, nil
}
