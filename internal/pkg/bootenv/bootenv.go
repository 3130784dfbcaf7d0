// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package bootenv accesses the GRUB environment block.
//
// The environment block is a small key-value store shared with the
// bootloader: GRUB decrements boot_counter on every boot, greenboot
// initializes it and records boot_success once the health check passes.
package bootenv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/siderolabs/gen/optional"
	"github.com/siderolabs/go-cmd/pkg/cmd"
)

// Environment block keys.
const (
	CounterKey = "boot_counter"
	SuccessKey = "boot_success"
)

// StoreWriteError describes a failed mutation of the environment block.
type StoreWriteError struct {
	Key string
	Op  string
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}

// Store provides access to the bootloader environment block.
type Store interface {
	SetKey(name, value string) error
	UnsetKey(name string) error
	ReadKey(name string) (string, bool, error)
}

// Runner executes an external command and returns its output.
type Runner func(name string, args ...string) (string, error)

// GrubEnv manipulates the environment block via grub2-editenv.
type GrubEnv struct {
	run Runner
}

// NewGrubEnv creates a GrubEnv operating on the default environment block.
func NewGrubEnv() *GrubEnv {
	return &GrubEnv{run: cmd.Run}
}

// NewGrubEnvWithRunner creates a GrubEnv with a custom command runner.
func NewGrubEnvWithRunner(run Runner) *GrubEnv {
	return &GrubEnv{run: run}
}

// SetKey implements the Store interface.
func (g *GrubEnv) SetKey(name, value string) error {
	if _, err := g.run("grub2-editenv", "-", "set", name+"="+value); err != nil {
		return &StoreWriteError{Key: name, Op: "set", Err: err}
	}

	return nil
}

// UnsetKey implements the Store interface.
func (g *GrubEnv) UnsetKey(name string) error {
	if _, err := g.run("grub2-editenv", "-", "unset", name); err != nil {
		return &StoreWriteError{Key: name, Op: "unset", Err: err}
	}

	return nil
}

// ReadKey implements the Store interface.
func (g *GrubEnv) ReadKey(name string) (string, bool, error) {
	out, err := g.run("grub2-editenv", "-", "list")
	if err != nil {
		return "", false, fmt.Errorf("listing environment block: %w", err)
	}

	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		if key == name {
			return value, true, nil
		}
	}

	return "", false, nil
}

// BootCounter reads boot_counter from the store.
//
// An absent key is not an error. Negative values are accepted: GRUB
// decrements the counter through -1 on exhaustion.
func BootCounter(s Store) (optional.Optional[int], error) {
	value, ok, err := s.ReadKey(CounterKey)
	if err != nil {
		return optional.None[int](), err
	}

	if !ok {
		return optional.None[int](), nil
	}

	counter, err := strconv.Atoi(value)
	if err != nil {
		return optional.None[int](), fmt.Errorf("%s is not an integer: %q", CounterKey, value)
	}

	return optional.Some(counter), nil
}
