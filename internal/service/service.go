// Package service installs and inspects the systemd unit that keeps
// the player running unattended on signage hardware.
package service

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// UnitName is the installed systemd unit.
const UnitName = "adloop.service"

// UnitPath is where the unit file is written.
const UnitPath = "/etc/systemd/system/" + UnitName

const unitTemplate = `[Unit]
Description=adloop digital signage player
After=graphical.target

[Service]
Type=simple
User=%s
WorkingDirectory=%s
ExecStart=%s run
Restart=always
RestartSec=5

[Install]
WantedBy=graphical.target
`

// Unit renders the systemd unit for the given player executable and
// run-as user.
func Unit(execPath, user string) string {
	return fmt.Sprintf(unitTemplate, user, filepath.Dir(execPath), execPath)
}

// Install writes the unit file for the current executable and reloads
// systemd. Requires root.
func Install(logger *zap.Logger) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	user := runAsUser()
	if err := os.WriteFile(UnitPath, []byte(Unit(exe, user)), 0o644); err != nil {
		return fmt.Errorf("write unit file (root required): %w", err)
	}
	if out, err := exec.Command("systemctl", "daemon-reload").CombinedOutput(); err != nil {
		return fmt.Errorf("systemctl daemon-reload: %s: %w", strings.TrimSpace(string(out)), err)
	}

	logger.Info("service installed",
		zap.String("unit", UnitPath), zap.String("user", user))
	return nil
}

// Enable turns the service on at boot and starts it now.
func Enable() error {
	return systemctl("enable", "--now", UnitName)
}

// Disable stops the service and removes it from boot.
func Disable() error {
	return systemctl("disable", "--now", UnitName)
}

// State returns the systemd activation state ("active", "inactive",
// "failed", ...). systemctl exits non-zero for anything but active, so
// the printed state wins over the exit code when present.
func State() string {
	out, err := exec.Command("systemctl", "is-active", UnitName).Output()
	state := strings.TrimSpace(string(out))
	if state == "" {
		if err != nil {
			return "unknown"
		}
		return "inactive"
	}
	return state
}

func systemctl(args ...string) error {
	if out, err := exec.Command("systemctl", args...).CombinedOutput(); err != nil {
		return fmt.Errorf("systemctl %s: %s: %w",
			strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return nil
}

// runAsUser picks the account the service runs under: the invoking
// user when installed via sudo, else the current user, else the Pi
// default.
func runAsUser() string {
	if u := os.Getenv("SUDO_USER"); u != "" {
		return u
	}
	if u := os.Getenv("USER"); u != "" && u != "root" {
		return u
	}
	return "pi"
}
