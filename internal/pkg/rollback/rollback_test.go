// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package rollback_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fedora-iot/greenboot/internal/pkg/bootenv"
	"github.com/fedora-iot/greenboot/internal/pkg/rollback"
)

type memStore struct {
	values map[string]string
}

func (s *memStore) SetKey(name, value string) error {
	s.values[name] = value

	return nil
}

func (s *memStore) UnsetKey(name string) error {
	delete(s.values, name)

	return nil
}

func (s *memStore) ReadKey(name string) (string, bool, error) {
	value, ok := s.values[name]

	return value, ok, nil
}

type fakeRemounter struct {
	writable bool
}

func (f *fakeRemounter) AcquireWritable() error {
	f.writable = true

	return nil
}

func (f *fakeRemounter) ReleaseWritable() error {
	f.writable = false

	return nil
}

type fakeRebooter struct {
	rebooted bool
}

func (f *fakeRebooter) Reboot() error {
	f.rebooted = true

	return nil
}

type fakeExec struct {
	err error

	calls [][]string
}

func (f *fakeExec) run(name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))

	return "", f.err
}

func TestRollbackExhausted(t *testing.T) {
	store := &memStore{values: map[string]string{bootenv.CounterKey: "-1"}}
	fs := &fakeRemounter{}
	system := &fakeRebooter{}
	exec := &fakeExec{}

	trigger := rollback.NewTrigger(store, fs, system, zap.NewNop(), rollback.WithExec(exec.run))

	require.NoError(t, trigger.Run())

	require.Len(t, exec.calls, 1)
	assert.Equal(t, []string{"rpm-ostree", "rollback"}, exec.calls[0])
	assert.NotContains(t, store.values, bootenv.CounterKey)
	assert.False(t, fs.writable)
	assert.True(t, system.rebooted)
}

func TestRollbackCounterUnset(t *testing.T) {
	store := &memStore{values: map[string]string{}}
	system := &fakeRebooter{}
	exec := &fakeExec{}

	trigger := rollback.NewTrigger(store, &fakeRemounter{}, system, zap.NewNop(), rollback.WithExec(exec.run))

	assert.EqualError(t, trigger.Run(), "boot_counter is not set, rollback not initiated")
	assert.Empty(t, exec.calls)
	assert.False(t, system.rebooted)
}

func TestRollbackAttemptsRemaining(t *testing.T) {
	store := &memStore{values: map[string]string{bootenv.CounterKey: "2"}}
	system := &fakeRebooter{}
	exec := &fakeExec{}

	trigger := rollback.NewTrigger(store, &fakeRemounter{}, system, zap.NewNop(), rollback.WithExec(exec.run))

	assert.EqualError(t, trigger.Run(), "boot_counter is 2, attempts not exhausted")
	assert.Empty(t, exec.calls)
	assert.Contains(t, store.values, bootenv.CounterKey)
	assert.False(t, system.rebooted)
}

func TestRollbackCommandFails(t *testing.T) {
	store := &memStore{values: map[string]string{bootenv.CounterKey: "-1"}}
	system := &fakeRebooter{}
	exec := &fakeExec{err: errors.New("exit status 1")}

	trigger := rollback.NewTrigger(store, &fakeRemounter{}, system, zap.NewNop(), rollback.WithExec(exec.run))

	err := trigger.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rollback failed")
	// a failed rollback must keep the exhausted counter for the next try
	assert.Contains(t, store.values, bootenv.CounterKey)
	assert.False(t, system.rebooted)
}
