//go:build !windows

package console

// LaunchedFromExplorer is always false off Windows.
func LaunchedFromExplorer() bool { return false }

// HideWindow is a no-op off Windows.
func HideWindow() {}
