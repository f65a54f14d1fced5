// Package console detects how the binary was launched so a double-clicked
// server on Windows neither vanishes on error nor leaves a stray window.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

var shellProcesses = []string{
	"cmd.exe",
	"powershell.exe",
	"pwsh.exe",
	"wt.exe",
	"conhost.exe",
	"windowsterminal.exe",
	"bash.exe",
}

func isShellProcess(name string) bool {
	name = strings.ToLower(name)
	for _, s := range shellProcesses {
		if name == s {
			return true
		}
	}
	return false
}

// launchedFromExplorer decides from the parent process name and whether a
// console window exists.
func launchedFromExplorer(parent string, hasConsole bool) bool {
	if !hasConsole {
		return true
	}
	if isShellProcess(parent) {
		return false
	}
	return strings.EqualFold(parent, "explorer.exe")
}

// WaitForEnter prints msg and blocks until a line (or EOF) is read from r.
func WaitForEnter(w io.Writer, r io.Reader, msg string) {
	fmt.Fprintln(w, msg)
	_, _ = bufio.NewReader(r).ReadString('\n')
}
