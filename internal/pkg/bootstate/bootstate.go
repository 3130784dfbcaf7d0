// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package bootstate implements the boot attempt counter and success flag
// state machine over the bootloader environment store.
//
// A boot entry starts unproven: the attempt initializer gives it a budget
// (boot_counter=max, boot_success=0), GRUB decrements the counter on every
// boot, and once the health check passes the success marker finalizes the
// entry (boot_success=1, boot_counter unset). If the budget runs out first,
// the rollback path acts on the absence of the success flag.
package bootstate

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/fedora-iot/greenboot/internal/pkg/bootenv"
	"github.com/fedora-iot/greenboot/internal/pkg/bootmount"
	"github.com/fedora-iot/greenboot/internal/pkg/config"
)

// Watchdog mutates the boot attempt state.
type Watchdog struct {
	store  bootenv.Store
	fs     bootmount.Remounter
	logger *zap.Logger
}

// NewWatchdog creates a Watchdog.
func NewWatchdog(store bootenv.Store, fs bootmount.Remounter, logger *zap.Logger) *Watchdog {
	return &Watchdog{
		store:  store,
		fs:     fs,
		logger: logger,
	}
}

// SetBootCounter resets the attempt budget for the current boot entry and
// clears the success flag, marking the entry as not yet proven.
//
// The two mutations are ordered: if the counter write fails the success flag
// is left untouched, so a cleared flag is never paired with a stale budget.
// The two writes are not atomic; if the second fails the error is surfaced
// and the caller must treat the initialization as failed.
func (w *Watchdog) SetBootCounter(maxAttempts int) error {
	if maxAttempts <= 0 {
		return &config.ConfigError{Value: strconv.Itoa(maxAttempts), Reason: "must be positive"}
	}

	err := bootmount.WithWritableStore(w.fs, w.logger, func() error {
		if err := w.store.SetKey(bootenv.CounterKey, strconv.Itoa(maxAttempts)); err != nil {
			return err
		}

		return w.store.SetKey(bootenv.SuccessKey, "0")
	})
	if err != nil {
		return err
	}

	w.logger.Info("boot counter initialized", zap.Int("max_attempts", maxAttempts))

	return nil
}

// MarkBootFailure clears the success flag, recording that the current boot
// entry failed its health check.
//
// The counter is left alone: once it is ticking it belongs to the
// bootloader's decrement protocol, and resetting it would keep the budget
// from ever exhausting.
func (w *Watchdog) MarkBootFailure() error {
	return bootmount.WithWritableStore(w.fs, w.logger, func() error {
		return w.store.SetKey(bootenv.SuccessKey, "0")
	})
}

// MarkBootSuccess records that the current boot entry passed its health
// check and stops attempt tracking.
//
// The counter is unset, not zeroed: absence means "no attempt limit is being
// tracked", while zero would read as an exhausted budget. The operation is
// idempotent.
func (w *Watchdog) MarkBootSuccess() error {
	return bootmount.WithWritableStore(w.fs, w.logger, func() error {
		if err := w.store.SetKey(bootenv.SuccessKey, "1"); err != nil {
			return err
		}

		return w.store.UnsetKey(bootenv.CounterKey)
	})
}
