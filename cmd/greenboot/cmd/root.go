// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package cmd implements the greenboot subcommands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fedora-iot/greenboot/internal/pkg/bootenv"
	"github.com/fedora-iot/greenboot/internal/pkg/bootmount"
	"github.com/fedora-iot/greenboot/internal/pkg/bootstate"
	"github.com/fedora-iot/greenboot/internal/pkg/config"
	"github.com/fedora-iot/greenboot/pkg/logging"
)

var rootCmdArgs struct {
	logLevel   string
	configPath string
	bootMount  string
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "greenboot",
	Short:         "Boot-attempt watchdog for bootloader-driven rollback",
	Long:          ``,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
	}

	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootCmdArgs.logLevel, "log-level", "l", "info",
		"log level (trace, debug, info, warn, error, off)")
	rootCmd.PersistentFlags().StringVar(&rootCmdArgs.configPath, "config", config.DefaultPath,
		"path to the greenboot configuration file")
	rootCmd.PersistentFlags().StringVar(&rootCmdArgs.bootMount, "boot-mount", bootmount.DefaultTarget,
		"mountpoint of the filesystem holding the bootloader environment block")
}

func newLogger() (*zap.Logger, error) {
	if rootCmdArgs.logLevel == "off" {
		return zap.NewNop(), nil
	}

	level, err := logging.ParseLevel(rootCmdArgs.logLevel)
	if err != nil {
		return nil, err
	}

	return logging.ZapLogger(
		logging.NewLogDestination(os.Stderr, level, logging.WithColoredLevels()),
	), nil
}

func newWatchdog(logger *zap.Logger) *bootstate.Watchdog {
	return bootstate.NewWatchdog(
		bootenv.NewGrubEnv(),
		bootmount.NewBootFS(rootCmdArgs.bootMount),
		logger,
	)
}

func loadConfig(logger *zap.Logger) (*config.Config, error) {
	return config.Load(rootCmdArgs.configPath, logger)
}
