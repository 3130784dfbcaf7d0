// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package bootmount_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fedora-iot/greenboot/internal/pkg/bootmount"
)

type fakeRemounter struct {
	acquireErr error
	releaseErr error

	transitions []string
}

func (f *fakeRemounter) AcquireWritable() error {
	if f.acquireErr != nil {
		return f.acquireErr
	}

	f.transitions = append(f.transitions, "rw")

	return nil
}

func (f *fakeRemounter) ReleaseWritable() error {
	if f.releaseErr != nil {
		return f.releaseErr
	}

	f.transitions = append(f.transitions, "ro")

	return nil
}

func TestWithWritableStoreSuccess(t *testing.T) {
	fs := &fakeRemounter{}
	ran := false

	err := bootmount.WithWritableStore(fs, zap.NewNop(), func() error {
		ran = true

		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, []string{"rw", "ro"}, fs.transitions)
}

func TestWithWritableStoreAcquireFails(t *testing.T) {
	acquireErr := &bootmount.MountError{Target: "/boot", Mode: "read-write", Err: errors.New("busy")}
	fs := &fakeRemounter{acquireErr: acquireErr}

	err := bootmount.WithWritableStore(fs, zap.NewNop(), func() error {
		t.Fatal("operation must not run without write access")

		return nil
	})

	assert.Equal(t, acquireErr, err)
	assert.Empty(t, fs.transitions, "mount mode must be left exactly as found")
}

func TestWithWritableStoreOpFails(t *testing.T) {
	fs := &fakeRemounter{}
	opErr := errors.New("write failed")

	err := bootmount.WithWritableStore(fs, zap.NewNop(), func() error {
		return opErr
	})

	assert.Equal(t, opErr, err)
	assert.Equal(t, []string{"rw", "ro"}, fs.transitions, "read-only access must be restored after a failed operation")
}

func TestWithWritableStoreOpFailsReleaseFails(t *testing.T) {
	releaseErr := &bootmount.MountError{Target: "/boot", Mode: "read-only", Err: errors.New("busy")}
	fs := &fakeRemounter{releaseErr: releaseErr}
	opErr := errors.New("write failed")

	err := bootmount.WithWritableStore(fs, zap.NewNop(), func() error {
		return opErr
	})

	assert.Equal(t, opErr, err, "restore failure must not mask the operation error")
}

func TestWithWritableStoreReleaseFails(t *testing.T) {
	releaseErr := &bootmount.MountError{Target: "/boot", Mode: "read-only", Err: errors.New("busy")}
	fs := &fakeRemounter{releaseErr: releaseErr}

	err := bootmount.WithWritableStore(fs, zap.NewNop(), func() error {
		return nil
	})

	var mountErr *bootmount.MountError

	require.ErrorAs(t, err, &mountErr)
	assert.Equal(t, "read-only", mountErr.Mode)
}

func TestMountError(t *testing.T) {
	inner := errors.New("device or resource busy")
	err := &bootmount.MountError{Target: "/boot", Mode: "read-write", Err: inner}

	assert.Equal(t, "remounting /boot read-write: device or resource busy", err.Error())
	assert.ErrorIs(t, err, inner)
}
