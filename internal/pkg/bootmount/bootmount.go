// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package bootmount provides scoped write access to the boot filesystem.
//
// The filesystem holding the bootloader environment block is kept read-only;
// every mutation of the block happens inside a write window which remounts
// the filesystem read-write and restores read-only mode on every exit path.
package bootmount

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// DefaultTarget is the mountpoint of the filesystem holding the bootloader
// environment block.
const DefaultTarget = "/boot"

// MountError describes a failed mount mode transition of the boot filesystem.
type MountError struct {
	Target string
	Mode   string
	Err    error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("remounting %s %s: %v", e.Target, e.Mode, e.Err)
}

func (e *MountError) Unwrap() error {
	return e.Err
}

// Remounter toggles write access to the medium holding the environment store.
type Remounter interface {
	AcquireWritable() error
	ReleaseWritable() error
}

// BootFS remounts an already-mounted filesystem in place.
type BootFS struct {
	target string
}

// NewBootFS creates a BootFS for the given mountpoint.
func NewBootFS(target string) *BootFS {
	return &BootFS{target: target}
}

// AcquireWritable implements the Remounter interface.
func (fs *BootFS) AcquireWritable() error {
	if err := unix.Mount("", fs.target, "", unix.MS_REMOUNT, ""); err != nil {
		return &MountError{Target: fs.target, Mode: "read-write", Err: err}
	}

	return nil
}

// ReleaseWritable implements the Remounter interface.
func (fs *BootFS) ReleaseWritable() error {
	if err := unix.Mount("", fs.target, "", unix.MS_REMOUNT|unix.MS_RDONLY, ""); err != nil {
		return &MountError{Target: fs.target, Mode: "read-only", Err: err}
	}

	return nil
}

// WithWritableStore acquires write access to the boot filesystem, invokes the
// operation, and restores read-only access before returning.
//
// If acquisition fails the operation never runs. If the operation fails, its
// error is returned and a failure to restore read-only access is only logged,
// so the original error is not masked. If the operation succeeds but the
// restore fails, the restore error is returned: the mutation took effect, but
// the medium is left writable.
func WithWritableStore(r Remounter, logger *zap.Logger, op func() error) (err error) {
	if acquireErr := r.AcquireWritable(); acquireErr != nil {
		return acquireErr
	}

	defer func() {
		releaseErr := r.ReleaseWritable()
		if releaseErr == nil {
			return
		}

		if err != nil {
			logger.Warn("boot filesystem left writable", zap.Error(releaseErr))

			return
		}

		err = releaseErr
	}()

	return op()
}
