// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package sysd talks to systemd and logind over the system bus.
package sysd

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	login1Dest   = "org.freedesktop.login1"
	login1Path   = dbus.ObjectPath("/org/freedesktop/login1")
	systemd1Dest = "org.freedesktop.systemd1"
	systemd1Path = dbus.ObjectPath("/org/freedesktop/systemd1")
)

// Client is a system bus client for systemd operations.
type Client struct {
	conn *dbus.Conn
}

// NewClient connects to the system bus.
func NewClient() (*Client, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to system bus: %w", err)
	}

	return &Client{conn: conn}, nil
}

// Close closes the bus connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Reboot asks logind to reboot the machine.
func (c *Client) Reboot() error {
	obj := c.conn.Object(login1Dest, login1Path)

	if call := obj.Call("org.freedesktop.login1.Manager.Reboot", 0, false); call.Err != nil {
		return fmt.Errorf("requesting reboot: %w", call.Err)
	}

	return nil
}

// UnitStatus describes the state of a systemd unit.
type UnitStatus struct {
	Name          string
	LoadState     string
	ActiveState   string
	UnitFileState string
}

// Exists reports whether the unit file was found and loaded.
func (s UnitStatus) Exists() bool {
	return s.LoadState == "loaded"
}

// Enabled reports whether the unit is enabled (or static).
func (s UnitStatus) Enabled() bool {
	return s.UnitFileState == "enabled" || s.UnitFileState == "static"
}

// Active reports whether the unit is currently active.
func (s UnitStatus) Active() bool {
	return s.ActiveState == "active"
}

// Unit fetches the status of a single unit.
func (c *Client) Unit(name string) (UnitStatus, error) {
	mgr := c.conn.Object(systemd1Dest, systemd1Path)

	var path dbus.ObjectPath

	if err := mgr.Call("org.freedesktop.systemd1.Manager.LoadUnit", 0, name).Store(&path); err != nil {
		return UnitStatus{}, fmt.Errorf("loading unit %q: %w", name, err)
	}

	unit := c.conn.Object(systemd1Dest, path)
	status := UnitStatus{Name: name}

	for _, prop := range []struct {
		name string
		dst  *string
	}{
		{"LoadState", &status.LoadState},
		{"ActiveState", &status.ActiveState},
		{"UnitFileState", &status.UnitFileState},
	} {
		variant, err := unit.GetProperty("org.freedesktop.systemd1.Unit." + prop.name)
		if err != nil {
			return UnitStatus{}, fmt.Errorf("reading %s of %q: %w", prop.name, name, err)
		}

		if err = variant.Store(prop.dst); err != nil {
			return UnitStatus{}, fmt.Errorf("decoding %s of %q: %w", prop.name, name, err)
		}
	}

	return status, nil
}
