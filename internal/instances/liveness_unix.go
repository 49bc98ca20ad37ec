//go:build !windows

package instances

import "syscall"

// pidAlive reports whether a process with the given PID is running,
// using the classic signal-0 probe.
func pidAlive(pid int) bool {
	return syscall.Kill(pid, syscall.Signal(0)) == nil
}
