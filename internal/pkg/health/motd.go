// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package health

import (
	"fmt"
	"os"
	"path/filepath"
)

// MOTDPath is the message-of-the-day drop-in updated with the health state.
const MOTDPath = "/run/motd.d/boot-status"

// WriteMOTD publishes the current health-check state to the MOTD drop-in.
func WriteMOTD(path, state string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating MOTD directory: %w", err)
	}

	return os.WriteFile(path, []byte(fmt.Sprintf("Greenboot %s.", state)), 0o644)
}
