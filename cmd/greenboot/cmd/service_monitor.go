// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fedora-iot/greenboot/internal/pkg/sysd"
)

// serviceMonitorCmd checks that the given systemd units are enabled and
// running.
var serviceMonitorCmd = &cobra.Command{
	Use:   "service-monitor <unit>...",
	Short: "Verify that the given systemd units are enabled and active",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}

		defer logger.Sync() //nolint:errcheck

		system, err := sysd.NewClient()
		if err != nil {
			return err
		}

		defer system.Close() //nolint:errcheck

		return sysd.MonitorServices(system, logger, args).Err()
	},
}

func init() {
	rootCmd.AddCommand(serviceMonitorCmd)
}
