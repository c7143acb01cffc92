package shell

import (
	"errors"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"tsh/internal/jobs"
)

func (s *Shell) setupSignalHandling() {
	signal.Notify(s.signalChan, unix.SIGINT, unix.SIGTSTP, unix.SIGCHLD, unix.SIGQUIT)
	go s.handleSignals()
}

func (s *Shell) stopSignalHandling() {
	signal.Stop(s.signalChan)
	close(s.signalChan)
}

func (s *Shell) handleSignals() {
	for sig := range s.signalChan {
		s.handleSignal(sig)
	}
}

func (s *Shell) handleSignal(sig os.Signal) {
	s.log.Debug().Str("signal", sig.String()).Msg("handling signal")
	switch sig {
	case unix.SIGCHLD:
		s.reapChildren()
	case unix.SIGINT:
		s.interruptForeground()
	case unix.SIGTSTP:
		s.stopForeground()
	case unix.SIGQUIT:
		s.printf("Terminating after receipt of SIGQUIT signal\n")
		s.exit(1)
	}
}

// reapChildren collects every child whose state changed. Signals coalesce,
// so one SIGCHLD may stand for several children.
func (s *Shell) reapChildren() {
	s.control.Critical(func(t *jobs.Table) {
		for {
			pid, status, err := s.wait()
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if err != nil {
				if !errors.Is(err, unix.ECHILD) {
					s.log.Warn().Err(err).Msg("wait4 failed")
				}
				return
			}
			if pid <= 0 {
				return
			}
			if !s.updateJob(t, pid, status) {
				return
			}
		}
	})
}

// updateJob applies one reaped status to the table. It returns false after
// a fatal error.
func (s *Shell) updateJob(t *jobs.Table, pid int, status unix.WaitStatus) bool {
	switch {
	case status.Exited():
		s.log.Debug().Int("pid", pid).Int("status", status.ExitStatus()).Msg("process exited")
		t.Remove(pid)
	case status.Signaled():
		s.log.Debug().Int("pid", pid).Int("signal", int(status.Signal())).Msg("process terminated by signal")
		t.Remove(pid)
	case status.Stopped():
		j, ok := t.ByPID(pid)
		if !ok {
			s.log.Warn().Int("pid", pid).Msg("stopped process has no job")
			return true
		}
		if err := t.SetState(pid, jobs.Stopped); err != nil {
			s.log.Warn().Err(err).Int("pid", pid).Msg("failed to mark job stopped")
			return true
		}
		s.printf("Job [%d] (%d) stopped by signal %d\n", j.JID, pid, int(status.StopSignal()))
	default:
		s.fatalf("Unhandled SIGCHLD received for %d (status %#x), unable to continue.", pid, uint32(status))
		return false
	}
	return true
}

// interruptForeground forwards ctrl-c to the foreground job's group. The
// reap that follows removes the job without a second message.
func (s *Shell) interruptForeground() {
	s.control.Critical(func(t *jobs.Table) {
		j, ok := foregroundJob(t)
		if !ok {
			s.printf("no foreground job exists\n")
			return
		}
		if err := jobs.NewHandle(j, s.signaler).Interrupt(); err != nil {
			s.log.Warn().Err(err).Msg("interrupt failed")
			s.printf("Interrupt error: failed to kill %d\n", j.PID)
			return
		}
		s.printf("Job [%d] (%d) terminated by signal %d\n", j.JID, j.PID, int(unix.SIGINT))
	})
}

// stopForeground forwards ctrl-z to the foreground job's group. The stop
// notice is printed when the stopped child is reaped.
func (s *Shell) stopForeground() {
	s.control.Critical(func(t *jobs.Table) {
		j, ok := foregroundJob(t)
		if !ok {
			s.printf("no foreground job exists\n")
			return
		}
		s.log.Debug().Int("jid", j.JID).Int("pid", j.PID).Msg("forwarding stop to job group")
		if err := jobs.NewHandle(j, s.signaler).Stop(); err != nil {
			s.log.Warn().Err(err).Msg("stop failed")
			s.printf("Stop error: failed to stop %d\n", j.PID)
		}
	})
}

func foregroundJob(t *jobs.Table) (jobs.Job, bool) {
	pid, ok := t.ForegroundPID()
	if !ok {
		return jobs.Job{}, false
	}
	return t.ByPID(pid)
}
