//go:build linux

// Package procsetup raises the process's own file-descriptor ceiling at
// startup, the half of spec §5's FD hygiene requirement that isn't already
// handled by os/exec's automatic close-on-exec behavior for the media
// subprocess (see playersession.Config.FDCeiling).
package procsetup

import "syscall"

// RaiseFileLimit sets RLIMIT_NOFILE's soft limit to max, capped at whatever
// the hard limit already allows. A no-op if max is zero.
func RaiseFileLimit(max uint64) error {
	if max == 0 {
		return nil
	}
	var rlim syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rlim); err != nil {
		return err
	}
	want := max
	if rlim.Max > 0 && want > rlim.Max {
		want = rlim.Max
	}
	if rlim.Cur >= want {
		return nil
	}
	rlim.Cur = want
	return syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rlim)
}
