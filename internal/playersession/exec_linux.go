//go:build linux

package playersession

import "syscall"

// isolatedProcAttr puts the media subprocess in its own process group and
// asks the kernel to SIGTERM it if this process dies first, so a crashed
// supervisor never leaves an orphaned player running.
func isolatedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGTERM,
	}
}
