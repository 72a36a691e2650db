//go:build !windows

package config

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func makeExecutable(path string) error {
	err := os.Chmod(path, 0o755) //nolint:gosec // binaries must be executable by the run user
	if err != nil {
		return errors.Wrap(err, "unable to mark as executable")
	}

	err = unix.Access(path, unix.X_OK)
	if err != nil {
		return errors.Wrap(err, "not executable")
	}

	return nil
}
