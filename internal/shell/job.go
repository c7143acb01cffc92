package shell

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"

	"tsh/internal/jobs"
)

var ErrCommandNotFound = errors.New("Command not found")

// Launcher starts a program as the leader of a new process group and returns
// its pid. The process is reaped by the SIGCHLD handler, never by the launcher.
type Launcher interface {
	Start(argv []string) (int, error)
}

// WaitFunc polls for one child state change without blocking, like
// wait4(-1, WNOHANG|WUNTRACED). A zero pid means nothing is ready.
type WaitFunc func() (pid int, status unix.WaitStatus, err error)

func wait4() (int, unix.WaitStatus, error) {
	var status unix.WaitStatus
	pid, err := unix.Wait4(-1, &status, unix.WNOHANG|unix.WUNTRACED, nil)
	return pid, status, err
}

type execLauncher struct {
	stdin          *os.File
	stdout, stderr *os.File
}

func (l *execLauncher) Start(argv []string) (int, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = l.stdin
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr
	// A group of its own keeps terminal-generated signals from reaching the
	// job directly; the shell forwards them.
	cmd.SysProcAttr = &unix.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		if notRunnable(err) {
			return 0, fmt.Errorf("%s: %w", argv[0], ErrCommandNotFound)
		}
		return 0, err
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()
	return pid, nil
}

func notRunnable(err error) bool {
	return errors.Is(err, exec.ErrNotFound) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, unix.ENOEXEC)
}

// runExternal starts argv as a new job. Starting the process and registering
// it happen in one critical section, so the child cannot be reaped before the
// table knows about it.
func (s *Shell) runExternal(argv []string, background bool, cmdline string) error {
	state := jobs.Foreground
	if background {
		state = jobs.Background
	}

	var (
		pid int
		err error
	)
	s.control.Critical(func(t *jobs.Table) {
		s.log.Debug().Str("cmd", argv[0]).Msg("creating child process")
		pid, err = s.launcher.Start(argv)
		if errors.Is(err, ErrCommandNotFound) {
			return
		} else if err != nil {
			err = fmt.Errorf("Unable to fork child process for: %s: %w", cmdline, err)
			return
		}

		if err = t.Add(pid, state, cmdline); err != nil {
			if kerr := jobs.NewHandle(jobs.Job{PID: pid}, s.signaler).Kill(); kerr != nil {
				s.log.Warn().Err(kerr).Int("pid", pid).Msg("failed to kill untracked process")
			}
			err = fmt.Errorf("Failed to create job for %s: %w", cmdline, err)
			return
		}

		if background {
			j, _ := t.ByPID(pid)
			s.printf("[%d] (%d) %s\n", j.JID, j.PID, j.CmdLine)
		}
	})
	if err != nil {
		return err
	}

	if !background {
		s.waitfg(pid)
	}
	return nil
}

// waitfg blocks until pid is no longer the foreground job.
func (s *Shell) waitfg(pid int) {
	s.log.Debug().Int("pid", pid).Msg("waiting for foreground job")
	s.control.WaitForeground(pid)
	s.log.Debug().Int("pid", pid).Msg("foreground wait done")
}
