//go:build !linux

package playersession

import "syscall"

// isolatedProcAttr falls back to process-group isolation only: Pdeathsig is
// Linux-specific and has no portable equivalent.
func isolatedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
