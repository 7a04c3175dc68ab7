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

// Package foreign implements the external-call effect table: a registry mapping the names of
// operations implemented outside the reflectable program (cgo, assembly, linknamed runtime
// functions) to the roles their argument groups play. Calls to unregistered names conservatively
// write every traced argument and never consume one, which avoids false "moved" reports on opaque
// native calling conventions.
package foreign

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"go.uber.org/ownaway/summary"
	"gopkg.in/yaml.v3"
)

// Role is what an external operation does with an argument group.
type Role string

const (
	// RoleNone means the arguments are only read.
	RoleNone Role = "none"
	// RoleWrite means the arguments may be mutated in place.
	RoleWrite Role = "write"
	// RoleConsume means ownership of the arguments is taken.
	RoleConsume Role = "consume"
)

// Operation describes the effect of one external operation.
type Operation struct {
	// Name is the callee identity of the operation, e.g. "C.free".
	Name string `yaml:"name"`
	// Write lists argument positions that are written.
	Write []int `yaml:"write,omitempty"`
	// Consume lists argument positions that are consumed.
	Consume []int `yaml:"consume,omitempty"`
	// Rest is the role of every argument position not listed above. Defaults to RoleNone.
	Rest Role `yaml:"rest,omitempty"`
}

// file is the on-disk YAML layout of an effect table.
type file struct {
	Operations []Operation `yaml:"operations"`
}

// ErrInvalidOperation is returned for malformed table entries.
var ErrInvalidOperation = errors.New("invalid external operation")

// Table is the external-call effect table. It is safe for concurrent use.
type Table struct {
	mu  sync.RWMutex
	ops map[string]Operation
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{ops: make(map[string]Operation)}
}

// NewDefaultTable returns a table preloaded with well-known libc and runtime memory operations.
func NewDefaultTable() *Table {
	t := NewTable()
	for _, op := range _defaults {
		// The defaults are known to be well-formed.
		_ = t.Register(op)
	}
	return t
}

var _defaults = []Operation{
	{Name: "C.free", Consume: []int{0}},
	{Name: "C.memcpy", Write: []int{0}},
	{Name: "C.memmove", Write: []int{0}},
	{Name: "C.memset", Write: []int{0}},
	{Name: "C.strlen", Rest: RoleNone},
	{Name: "runtime.memmove", Write: []int{0}},
	{Name: "runtime.memclrNoHeapPointers", Write: []int{0}},
	{Name: "runtime.KeepAlive", Rest: RoleNone},
}

// Register validates and installs an operation, replacing any previous entry of the same name.
func (t *Table) Register(op Operation) error {
	if op.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidOperation)
	}
	switch op.Rest {
	case "":
		op.Rest = RoleNone
	case RoleNone, RoleWrite, RoleConsume:
	default:
		return fmt.Errorf("%w %q: unknown role %q", ErrInvalidOperation, op.Name, op.Rest)
	}
	for _, p := range slices.Concat(op.Write, op.Consume) {
		if p < 0 {
			return fmt.Errorf("%w %q: negative position %d", ErrInvalidOperation, op.Name, p)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.ops[op.Name] = op
	return nil
}

// Len returns the number of registered operations.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.ops)
}

// Lookup returns the summary of a call to the named operation with nargs arguments. The boolean
// result reports whether the name was registered; unregistered names get the default summary
// that writes every argument and consumes none.
func (t *Table) Lookup(name string, nargs int) (*summary.Summary, bool) {
	t.mu.RLock()
	op, ok := t.ops[name]
	t.mu.RUnlock()
	if !ok {
		return &summary.Summary{Writes: summary.Range(nargs)}, false
	}

	s := &summary.Summary{}
	for i := 0; i < nargs; i++ {
		role := op.Rest
		switch {
		case slices.Contains(op.Consume, i):
			role = RoleConsume
		case slices.Contains(op.Write, i):
			role = RoleWrite
		}
		switch role {
		case RoleWrite:
			s.Writes = s.Writes.With(i)
		case RoleConsume:
			s.Consumes = s.Consumes.With(i)
		}
	}
	return s, true
}

// Load reads a YAML effect table and registers every operation into t.
func (t *Table) Load(r io.Reader) error {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode external effect table: %w", err)
	}
	for _, op := range f.Operations {
		if err := t.Register(op); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile is like Load but reads from the named file.
func (t *Table) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open external effect table: %w", err)
	}
	defer f.Close()

	if err := t.Load(f); err != nil {
		return fmt.Errorf("load %q: %w", path, err)
	}
	return nil
}
