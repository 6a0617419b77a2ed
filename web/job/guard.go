// Package job contains the cron jobs run by the web server.
package job

import (
	"github.com/filedock/filedock/util/common"

	"go.uber.org/atomic"
)

// runGuard skips a run while the previous one is still in progress.
type runGuard struct {
	running atomic.Bool
}

// do runs fn unless a run is already in progress. A panic in fn is logged
// and reported as a run that did not complete.
func (g *runGuard) do(name string, fn func()) (ran bool) {
	if !g.running.CompareAndSwap(false, true) {
		logSkipped(name)
		return false
	}
	defer g.running.Store(false)
	defer common.Recover("job " + name + " panicked")
	fn()
	return true
}
