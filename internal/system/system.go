// Package system provides OS-level utilities for disk monitoring,
// thermal management, display resolution, and general health checks
// on Raspberry Pi signage hardware.
package system

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// HealthStatus represents the current system health snapshot.
type HealthStatus struct {
	DiskUsedPct   float64   `json:"disk_used_pct"`
	DiskFreeBytes uint64    `json:"disk_free_bytes"`
	CPUTempC      float64   `json:"cpu_temp_c"`
	Throttled     bool      `json:"throttled"`
	Timestamp     time.Time `json:"timestamp"`
}

// GetCPUTemp reads the Raspberry Pi thermal zone and returns
// the temperature in degrees Celsius.
func GetCPUTemp() (float64, error) {
	data, err := os.ReadFile("/sys/class/thermal/thermal_zone0/temp")
	if err != nil {
		return 0, fmt.Errorf("read cpu temp: %w", err)
	}

	raw := strings.TrimSpace(string(data))
	milliC, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse cpu temp: %w", err)
	}

	return milliC / 1000.0, nil
}

// GetDiskUsage returns the usage percentage and free bytes for
// the filesystem mounted at the given path (default "/").
func GetDiskUsage(path string) (usedPct float64, freeBytes uint64, err error) {
	if path == "" {
		path = "/"
	}

	// Use df to get filesystem stats — portable across Linux distros.
	out, err := exec.Command("df", "--output=pcent,avail", "-B1", path).Output()
	if err != nil {
		return 0, 0, fmt.Errorf("df command failed: %w", err)
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) < 2 {
		return 0, 0, fmt.Errorf("unexpected df output")
	}

	fields := strings.Fields(lines[1])
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("unexpected df fields")
	}

	pctStr := strings.TrimSuffix(fields[0], "%")
	pct, err := strconv.ParseFloat(pctStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse disk pct: %w", err)
	}

	free, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse disk free: %w", err)
	}

	return pct, free, nil
}

// IsThrottled checks the Raspberry Pi's vcgencmd to determine
// if the CPU is currently being throttled due to temperature or
// power supply issues.
func IsThrottled() (bool, error) {
	out, err := exec.Command("vcgencmd", "get_throttled").Output()
	if err != nil {
		return false, fmt.Errorf("vcgencmd failed: %w", err)
	}

	// Output format: throttled=0x0
	parts := strings.SplitN(strings.TrimSpace(string(out)), "=", 2)
	if len(parts) < 2 {
		return false, fmt.Errorf("unexpected vcgencmd output")
	}

	val, err := strconv.ParseUint(strings.TrimPrefix(parts[1], "0x"), 16, 64)
	if err != nil {
		return false, fmt.Errorf("parse throttle value: %w", err)
	}

	return val != 0, nil
}

// SetResolution uses fbset to request a framebuffer mode, e.g. for
// rotating a console display into 1080x1920.
func SetResolution(width, height int) error {
	cmd := exec.Command("fbset", "-xres", strconv.Itoa(width), "-yres", strconv.Itoa(height))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("fbset failed: %s: %w", string(out), err)
	}
	return nil
}

// RunHealthCheck performs a full system health snapshot. Individual
// probe failures are logged and leave zero values; the snapshot itself
// always succeeds.
func RunHealthCheck(logger *zap.Logger) HealthStatus {
	status := HealthStatus{
		Timestamp: time.Now(),
	}

	if temp, err := GetCPUTemp(); err == nil {
		status.CPUTempC = temp
	} else {
		logger.Warn("health: temp read error", zap.Error(err))
	}

	if pct, free, err := GetDiskUsage("/"); err == nil {
		status.DiskUsedPct = pct
		status.DiskFreeBytes = free
	} else {
		logger.Warn("health: disk read error", zap.Error(err))
	}

	if throttled, err := IsThrottled(); err == nil {
		status.Throttled = throttled
	} else {
		logger.Warn("health: throttle check error", zap.Error(err))
	}

	logger.Info("health snapshot",
		zap.Float64("cpu_temp_c", status.CPUTempC),
		zap.Float64("disk_used_pct", status.DiskUsedPct),
		zap.Bool("throttled", status.Throttled))

	return status
}

// EnsureDir creates a directory and all parents if it does not exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// CopyFile copies src into dstDir keeping the base name, and returns
// the destination path. An existing file is overwritten.
func CopyFile(src, dstDir string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	if err := EnsureDir(dstDir); err != nil {
		return "", fmt.Errorf("create destination dir: %w", err)
	}

	dst := filepath.Join(dstDir, filepath.Base(src))
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("copy: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close destination: %w", err)
	}
	return dst, nil
}

// CleanOldFiles removes files older than maxAge from the given
// directory. Useful for purging stale ad content.
func CleanOldFiles(dir string, maxAge time.Duration, logger *zap.Logger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) > maxAge {
			fp := filepath.Join(dir, entry.Name())
			if err := os.Remove(fp); err == nil {
				removed++
				logger.Info("cleaned old file", zap.String("path", fp))
			}
		}
	}

	return removed, nil
}
