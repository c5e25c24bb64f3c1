//go:build !windows

package main

import (
	"os"
	"syscall"
)

// recordToggleSignals flip recording on and off, e.g. `kill -USR1 <pid>`.
func recordToggleSignals() []os.Signal {
	return []os.Signal{syscall.SIGUSR1}
}
