// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"github.com/spf13/cobra"
)

// markBootSuccessCmd finalizes the current boot entry after a passing
// health check.
var markBootSuccessCmd = &cobra.Command{
	Use:   "mark-boot-success",
	Short: "Record the current boot entry as healthy and stop attempt tracking",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}

		defer logger.Sync() //nolint:errcheck

		return newWatchdog(logger).MarkBootSuccess()
	},
}

func init() {
	rootCmd.AddCommand(markBootSuccessCmd)
}
