package jobs

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Signaler delivers a signal to a process or, for negative pids, a process group.
type Signaler interface {
	Kill(pid int, sig unix.Signal) error
}

type systemSignaler struct{}

func (systemSignaler) Kill(pid int, sig unix.Signal) error {
	return unix.Kill(pid, sig)
}

// SystemSignaler signals real processes with kill(2).
var SystemSignaler Signaler = systemSignaler{}

// Handle addresses the process group of a job. Every job is started as the
// leader of its own group, so the group id equals the job's pid.
type Handle struct {
	pgid int
	sig  Signaler
}

func NewHandle(j Job, sig Signaler) Handle {
	return Handle{pgid: j.PID, sig: sig}
}

func (h Handle) Resume() error { return h.send(unix.SIGCONT) }
func (h Handle) Stop() error { return h.send(unix.SIGTSTP) }
func (h Handle) Interrupt() error { return h.send(unix.SIGINT) }
func (h Handle) Kill() error { return h.send(unix.SIGKILL) }

func (h Handle) send(sig unix.Signal) error {
	if h.pgid < 1 {
		return fmt.Errorf("signal %d: %w", sig, ErrInvalidPID)
	}
	if err := h.sig.Kill(-h.pgid, sig); err != nil {
		return fmt.Errorf("signal %d to group %d: %w", sig, h.pgid, err)
	}
	return nil
}
