// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sysd

import (
	"fmt"

	"go.uber.org/zap"
)

// UnitReader provides unit status lookups.
type UnitReader interface {
	Unit(name string) (UnitStatus, error)
}

// MonitorResult classifies monitored units by failure severity.
//
// Critical units are missing or disabled and need manual intervention;
// recoverable units are enabled but not active and can be restarted by the
// regular recovery procedure.
type MonitorResult struct {
	Critical    []string
	Recoverable []string
}

// Healthy reports whether every monitored unit was in order.
func (r MonitorResult) Healthy() bool {
	return len(r.Critical) == 0 && len(r.Recoverable) == 0
}

// Err converts the result into an error, nil when healthy.
func (r MonitorResult) Err() error {
	switch {
	case len(r.Critical) > 0:
		return fmt.Errorf("%d unit(s) missing or disabled: %v", len(r.Critical), r.Critical)
	case len(r.Recoverable) > 0:
		return fmt.Errorf("%d unit(s) not active: %v", len(r.Recoverable), r.Recoverable)
	default:
		return nil
	}
}

// MonitorServices inspects the given units and classifies their state.
func MonitorServices(reader UnitReader, logger *zap.Logger, names []string) MonitorResult {
	var result MonitorResult

	for _, name := range names {
		status, err := reader.Unit(name)
		if err != nil {
			logger.Error("cannot fetch unit status", zap.String("unit", name), zap.Error(err))

			result.Critical = append(result.Critical, name)

			continue
		}

		switch {
		case !status.Exists(), !status.Enabled():
			logger.Warn("unit missing or disabled", zap.String("unit", name),
				zap.String("load_state", status.LoadState), zap.String("unit_file_state", status.UnitFileState))

			result.Critical = append(result.Critical, name)
		case !status.Active():
			logger.Warn("unit enabled but not active", zap.String("unit", name),
				zap.String("active_state", status.ActiveState))

			result.Recoverable = append(result.Recoverable, name)
		}
	}

	return result
}
