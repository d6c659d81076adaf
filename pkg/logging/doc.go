// Package logging provides the structured logger used across hyde-settings.
//
// It is a thin layer over Go's slog package with a subsystem-first call
// signature, so every entry carries the component that produced it:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Reconciler", "Loaded %d domains from %s", n, dir)
//	logging.Warn("Session", "Hook for %s failed", domain)
//	logging.Error("Storage", err, "Failed to write %s", path)
//
// # Output
//
// Init selects a text or JSON handler. Until Init is called every log call
// is a no-op, which keeps library packages quiet in tests.
//
// # Subsystems
//
//   - Reconciler: load, apply, reset and drift handling
//   - Storage: atomic file writes
//   - FilesystemDetector: fsnotify watch loop
//   - Session: live desktop-session hooks
//   - Assistant: chat-completion requests
//   - ConfigLoader: the tool's own config.yaml
package logging
