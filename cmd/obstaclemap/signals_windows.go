package main

import "os"

// recordToggleSignals is empty on windows, which has no user signals. Use --record instead.
func recordToggleSignals() []os.Signal {
	return nil
}
