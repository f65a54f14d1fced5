//go:build windows

package console

import (
	"log/slog"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	user32               = windows.NewLazySystemDLL("user32.dll")
	procGetConsoleWindow = kernel32.NewProc("GetConsoleWindow")
	procShowWindow       = user32.NewProc("ShowWindow")
	procFreeConsole      = kernel32.NewProc("FreeConsole")
)

// LaunchedFromExplorer reports whether the binary was double-clicked rather
// than started from a shell.
func LaunchedFromExplorer() bool {
	hwnd, _, _ := procGetConsoleWindow.Call()
	parent := parentProcessName()
	slog.Debug("console launch check", "parent", parent, "hasConsole", hwnd != 0)
	return launchedFromExplorer(parent, hwnd != 0)
}

// HideWindow hides and detaches the console window, if any.
func HideWindow() {
	hwnd, _, _ := procGetConsoleWindow.Call()
	if hwnd == 0 {
		return
	}
	_, _, _ = procShowWindow.Call(hwnd, windows.SW_HIDE)
	_, _, _ = procFreeConsole.Call()
}

func parentProcessName() string {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(snapshot)

	var pe windows.ProcessEntry32
	pe.Size = uint32(unsafe.Sizeof(pe))

	self := uint32(os.Getpid())
	var parent uint32
	if err := windows.Process32First(snapshot, &pe); err != nil {
		return ""
	}
	for {
		if pe.ProcessID == self {
			parent = pe.ParentProcessID
			break
		}
		if err := windows.Process32Next(snapshot, &pe); err != nil {
			return ""
		}
	}

	if err := windows.Process32First(snapshot, &pe); err != nil {
		return ""
	}
	for {
		if pe.ProcessID == parent {
			return windows.UTF16ToString(pe.ExeFile[:])
		}
		if err := windows.Process32Next(snapshot, &pe); err != nil {
			return ""
		}
	}
}
