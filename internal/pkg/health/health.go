// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package health runs the greenboot health-check and status scripts.
package health

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/siderolabs/go-cmd/pkg/cmd"
	"go.uber.org/zap"
)

// DefaultRoots are the directories scanned for check and status scripts.
var DefaultRoots = []string{"/usr/lib/greenboot", "/etc/greenboot"}

// ExecFunc executes an external command and returns its output.
type ExecFunc func(name string, args ...string) (string, error)

// Runner executes health-check scripts from the configured roots.
type Runner struct {
	roots  []string
	exec   ExecFunc
	logger *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithRoots overrides the script roots.
func WithRoots(roots ...string) Option {
	return func(r *Runner) {
		r.roots = roots
	}
}

// WithExec overrides the command execution function.
func WithExec(exec ExecFunc) Option {
	return func(r *Runner) {
		r.exec = exec
	}
}

// NewRunner creates a Runner.
func NewRunner(logger *zap.Logger, options ...Option) *Runner {
	r := &Runner{
		roots:  DefaultRoots,
		exec:   cmd.Run,
		logger: logger,
	}

	for _, option := range options {
		option(r)
	}

	return r
}

// Required runs every check/required.d script.
//
// A missing required.d directory in all roots is an error, as is any failing
// script; failures are aggregated so one broken check does not hide another.
func (r *Runner) Required() error {
	var (
		found  bool
		result *multierror.Error
	)

	for _, root := range r.roots {
		dir := filepath.Join(root, "check", "required.d")

		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			continue
		}

		found = true

		for _, script := range r.scripts(dir, "*.sh") {
			r.logger.Info("running required check", zap.String("script", script))

			if _, err := r.exec("bash", "-C", script); err != nil {
				r.logger.Error("required check failed", zap.String("script", script), zap.Error(err))

				result = multierror.Append(result, fmt.Errorf("%s: %w", filepath.Base(script), err))
			}
		}
	}

	if !found {
		return errors.New("required.d not found")
	}

	if result.ErrorOrNil() != nil {
		return fmt.Errorf("health check failed: %w", result)
	}

	return nil
}

// Wanted runs every check/wanted.d script. Failures are warnings only.
func (r *Runner) Wanted() {
	r.runHooks(filepath.Join("check", "wanted.d"), "*.sh", "wanted check")
}

// Green runs the green.d hooks after a passing health check.
func (r *Runner) Green() {
	r.runHooks("green.d", "*.*", "green hook")
}

// Red runs the red.d hooks after a failing health check.
func (r *Runner) Red() {
	r.runHooks("red.d", "*.*", "red hook")
}

func (r *Runner) runHooks(subdir, pattern, kind string) {
	for _, root := range r.roots {
		for _, script := range r.scripts(filepath.Join(root, subdir), pattern) {
			r.logger.Info("running "+kind, zap.String("script", script))

			if _, err := r.exec("bash", "-C", script); err != nil {
				r.logger.Warn(kind+" failed", zap.String("script", script), zap.Error(err))
			}
		}
	}
}

func (r *Runner) scripts(dir, pattern string) []string {
	// the pattern is a fixed literal, Glob can't fail on it
	scripts, _ := filepath.Glob(filepath.Join(dir, pattern))

	return scripts
}
