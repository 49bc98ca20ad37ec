//go:build windows

package instances

import "golang.org/x/sys/windows"

// pidAlive reports whether a process with the given PID is running.
// OpenProcess with the weakest query right succeeds only for live
// processes.
func pidAlive(pid int) bool {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	windows.CloseHandle(h)
	return true
}
