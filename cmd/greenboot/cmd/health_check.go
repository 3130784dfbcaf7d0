// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fedora-iot/greenboot/internal/pkg/bootenv"
	"github.com/fedora-iot/greenboot/internal/pkg/bootmount"
	"github.com/fedora-iot/greenboot/internal/pkg/bootstate"
	"github.com/fedora-iot/greenboot/internal/pkg/config"
	"github.com/fedora-iot/greenboot/internal/pkg/health"
	"github.com/fedora-iot/greenboot/internal/pkg/sysd"
)

// healthCheckCmd runs the health-check scripts and records the outcome in
// the bootloader environment block.
var healthCheckCmd = &cobra.Command{
	Use:   "health-check",
	Short: "Run health checks and mark the boot green or red",
	Args:  cobra.NoArgs,
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

		store := bootenv.NewGrubEnv()
		fs := bootmount.NewBootFS(rootCmdArgs.bootMount)
		watchdog := bootstate.NewWatchdog(store, fs, logger)
		runner := health.NewRunner(logger)

		if err = health.WriteMOTD(health.MOTDPath, "healthcheck is in progress"); err != nil {
			logger.Warn("cannot update MOTD", zap.Error(err))
		}

		if checkErr := runChecks(runner); checkErr != nil {
			logger.Error("health check failed", zap.Error(checkErr))

			if err = health.WriteMOTD(health.MOTDPath, "healthcheck failed - status is RED"); err != nil {
				logger.Warn("cannot update MOTD", zap.Error(err))
			}

			runner.Red()

			markRedAndReboot(cfg, store, watchdog, logger, func() error {
				system, err := sysd.NewClient()
				if err != nil {
					return err
				}

				defer system.Close() //nolint:errcheck

				return system.Reboot()
			})

			return checkErr
		}

		logger.Info("health check passed")

		runner.Green()

		if err = health.WriteMOTD(health.MOTDPath, "healthcheck passed - status is GREEN"); err != nil {
			logger.Warn("cannot update MOTD", zap.Error(err))
		}

		return watchdog.MarkBootSuccess()
	},
}

// runChecks runs the health-check scripts: required.d failures decide the
// outcome, wanted.d scripts always run but only warn, so their findings are
// available on red boots too.
func runChecks(runner *health.Runner) error {
	err := runner.Required()

	runner.Wanted()

	return err
}

// markRedAndReboot records the red status and reboots into the next
// attempt. Failures are logged but not returned: the red status is already
// determined, and the health-check error must reach the caller unmasked.
func markRedAndReboot(cfg *config.Config, store bootenv.Store, watchdog *bootstate.Watchdog, logger *zap.Logger, reboot func() error) {
	if err := watchdog.MarkBootFailure(); err != nil {
		logger.Error("cannot clear the boot success flag", zap.Error(err))
	}

	counter, err := bootenv.BootCounter(store)
	if err != nil {
		logger.Error("cannot read boot counter", zap.Error(err))

		return
	}

	// only the first red boot of an entry gets an attempt budget; a
	// counter that is already ticking is the bootloader's to drain, and
	// resetting it would keep the budget from ever exhausting
	if _, ok := counter.Get(); !ok {
		maxAttempts, err := cfg.ResolveMaxAttempts("", os.Getenv(config.MaxBootAttemptsKey))
		if err != nil {
			logger.Error("cannot resolve attempt budget", zap.Error(err))

			return
		}

		if err = watchdog.SetBootCounter(maxAttempts); err != nil {
			logger.Error("cannot set boot counter", zap.Error(err))
		}

		if counter, err = bootenv.BootCounter(store); err != nil {
			logger.Error("cannot read boot counter", zap.Error(err))

			return
		}
	}

	// reboot only with a real attempt budget in place, otherwise the
	// machine would loop without the bootloader counting attempts
	if value, ok := counter.Get(); !ok || value <= -1 {
		logger.Error("boot counter is not tracking attempts, not rebooting")

		return
	}

	logger.Info("restarting system")

	if err = reboot(); err != nil {
		logger.Error("cannot reboot", zap.Error(err))
	}
}

func init() {
	rootCmd.AddCommand(healthCheckCmd)
}
