//go:build !linux

package procsetup

// RaiseFileLimit is a no-op outside Linux: RLIMIT_NOFILE has no portable
// equivalent this package reproduces.
func RaiseFileLimit(max uint64) error {
	return nil
}
