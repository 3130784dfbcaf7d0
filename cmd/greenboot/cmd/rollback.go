// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fedora-iot/greenboot/internal/pkg/bootenv"
	"github.com/fedora-iot/greenboot/internal/pkg/bootmount"
	"github.com/fedora-iot/greenboot/internal/pkg/rollback"
	"github.com/fedora-iot/greenboot/internal/pkg/sysd"
)

// rollbackCmd reverts to the previous deployment when the attempt budget is
// exhausted.
var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Roll back to the previous deployment if boot attempts are exhausted",
	Args:  cobra.NoArgs,
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

		trigger := rollback.NewTrigger(
			bootenv.NewGrubEnv(),
			bootmount.NewBootFS(rootCmdArgs.bootMount),
			system,
			logger,
		)

		return trigger.Run()
	},
}

func init() {
	rootCmd.AddCommand(rollbackCmd)
}
