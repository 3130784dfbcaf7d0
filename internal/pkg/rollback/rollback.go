// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package rollback reverts the system to the previous deployment once the
// boot attempt budget is exhausted.
package rollback

import (
	"errors"
	"fmt"

	"github.com/siderolabs/go-cmd/pkg/cmd"
	"go.uber.org/zap"

	"github.com/fedora-iot/greenboot/internal/pkg/bootenv"
	"github.com/fedora-iot/greenboot/internal/pkg/bootmount"
)

// Rebooter requests a system reboot.
type Rebooter interface {
	Reboot() error
}

// ExecFunc executes an external command and returns its output.
type ExecFunc func(name string, args ...string) (string, error)

// Trigger performs the rollback to the previous deployment.
type Trigger struct {
	store  bootenv.Store
	fs     bootmount.Remounter
	system Rebooter
	exec   ExecFunc
	logger *zap.Logger
}

// Option configures a Trigger.
type Option func(*Trigger)

// WithExec overrides the command execution function.
func WithExec(exec ExecFunc) Option {
	return func(t *Trigger) {
		t.exec = exec
	}
}

// NewTrigger creates a Trigger.
func NewTrigger(store bootenv.Store, fs bootmount.Remounter, system Rebooter, logger *zap.Logger, options ...Option) *Trigger {
	t := &Trigger{
		store:  store,
		fs:     fs,
		system: system,
		exec:   cmd.Run,
		logger: logger,
	}

	for _, option := range options {
		option(t)
	}

	return t
}

// Run rolls back to the previous deployment.
//
// Rollback only proceeds when boot_counter is exactly -1: the bootloader has
// exhausted the attempt budget without the success flag being recorded. Any
// other state means an attempt is still in flight or tracking is off, and
// the rollback is refused without side effects.
func (t *Trigger) Run() error {
	counter, err := bootenv.BootCounter(t.store)
	if err != nil {
		return err
	}

	value, ok := counter.Get()
	if !ok {
		return errors.New("boot_counter is not set, rollback not initiated")
	}

	if value != -1 {
		return fmt.Errorf("boot_counter is %d, attempts not exhausted", value)
	}

	if _, err = t.exec("rpm-ostree", "rollback"); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	t.logger.Info("rollback successful")

	if err = bootmount.WithWritableStore(t.fs, t.logger, func() error {
		return t.store.UnsetKey(bootenv.CounterKey)
	}); err != nil {
		return err
	}

	return t.system.Reboot()
}
