// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fedora-iot/greenboot/internal/pkg/config"
)

// setAttemptCounterCmd initializes the attempt budget for a freshly
// activated boot entry.
var setAttemptCounterCmd = &cobra.Command{
	Use:   "set-attempt-counter [max-attempts]",
	Short: "Initialize the boot attempt counter and clear the success flag",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}

		defer logger.Sync() //nolint:errcheck

		cfg, err := loadConfig(logger)
		if err != nil {
			return err
		}

		var arg string

		if len(args) > 0 {
			arg = args[0]
		}

		maxAttempts, err := cfg.ResolveMaxAttempts(arg, os.Getenv(config.MaxBootAttemptsKey))
		if err != nil {
			return err
		}

		return newWatchdog(logger).SetBootCounter(maxAttempts)
	},
}

func init() {
	rootCmd.AddCommand(setAttemptCounterCmd)
}
