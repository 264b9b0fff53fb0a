package audio

import (
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// IsWSL checks if the current environment is Windows Subsystem for Linux.
func IsWSL() bool {
	return detectWSLFromData(readProcVersion(), os.Getenv("WSL_DISTRO_NAME"))
}

// detectWSLFromData checks for WSL indicators in the provided data (for testing).
func detectWSLFromData(procVersion, wslEnv string) bool {
	slog.Debug("checking WSL detection", "proc_version_snippet", truncateString(procVersion, 50), "wsl_env", wslEnv)

	if wslEnv != "" {
		slog.Debug("WSL detected via environment variable", "distro", wslEnv)
		return true
	}

	procLower := strings.ToLower(procVersion)
	if strings.Contains(procLower, "microsoft") || strings.Contains(procLower, "wsl") {
		slog.Debug("WSL detected via /proc/version", "indicators", "microsoft or wsl found")
		return true
	}

	slog.Debug("no WSL indicators found")
	return false
}

func readProcVersion() string {
	content, err := os.ReadFile("/proc/version")
	if err != nil {
		slog.Debug("failed to read /proc/version", "error", err)
		return ""
	}
	return string(content)
}

// CommandExists checks if a command is available in the system's PATH.
func CommandExists(command string) bool {
	if command == "" {
		return false
	}

	_, err := exec.LookPath(command)
	exists := err == nil
	slog.Debug("command existence check", "command", command, "exists", exists)
	return exists
}

// DetectOptimalBackend determines the best output sink kind for the current
// system: "malgo", "oto", or "exec". WSL's malgo/ALSA path crackles under
// some kernels, so a working exec-backed system player is preferred there.
func DetectOptimalBackend() string {
	return detectOptimalBackendWithChecker(IsWSL(), CommandExists)
}

// detectOptimalBackendWithChecker allows dependency injection for testing.
func detectOptimalBackendWithChecker(isWSL bool, commandChecker func(string) bool) string {
	slog.Debug("detecting optimal audio backend", "is_wsl", isWSL)

	if isWSL {
		slog.Debug("WSL detected, preferring an exec-backed system player over malgo")

		if preferredCmd := getPreferredSystemCommandWithChecker(commandChecker); preferredCmd != "" {
			slog.Debug("system command found for WSL", "command", preferredCmd)
			return "exec"
		}

		slog.Warn("no system audio commands found in WSL, falling back to oto (cgo-free, may have crackling)")
		return "oto"
	}

	slog.Debug("native system detected, preferring malgo backend")
	return "malgo"
}

// PreferredExecCommand returns the highest-priority system audio player
// found on PATH, for use by the exec sink's auto-selection.
func PreferredExecCommand() string {
	return getPreferredSystemCommandWithChecker(CommandExists)
}

// getPreferredSystemCommandWithChecker allows dependency injection for testing.
func getPreferredSystemCommandWithChecker(commandChecker func(string) bool) string {
	// Priority order: paplay (PulseAudio) > ffplay (FFmpeg) > aplay (ALSA) > afplay (macOS)
	preferredCommands := []string{
		"paplay",
		"ffplay",
		"aplay",
		"afplay",
	}

	for _, cmd := range preferredCommands {
		if commandChecker(cmd) {
			slog.Debug("preferred system command found", "command", cmd)
			return cmd
		}
	}

	slog.Debug("no preferred system audio commands found")
	return ""
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
