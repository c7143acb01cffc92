package shell

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tsh/internal/jobs"
)

var (
	errNoSuchJob     = errors.New("No such job")
	errNoSuchProcess = errors.New("No such process")
)

// resume implements bg and fg. The single argument is a pid, or a job id
// when prefixed with '%'.
func (s *Shell) resume(argv []string) error {
	name := argv[0]
	if len(argv) != 2 {
		return fmt.Errorf("%s command requires PID or %%jobid argument", name)
	}

	arg, byJID := argv[1], false
	if strings.HasPrefix(arg, "%") {
		arg, byJID = arg[1:], true
	}
	id, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("%s: argument must be a PID or %%jobid", name)
	}

	state := jobs.Background
	if name == "fg" {
		state = jobs.Foreground
	}

	var (
		job   jobs.Job
		found bool
	)
	s.control.Critical(func(t *jobs.Table) {
		if byJID {
			job, found = t.ByJID(id)
		} else {
			job, found = t.ByPID(id)
		}
		if !found {
			return
		}

		// A job that already died is removed by the next reap.
		if serr := jobs.NewHandle(job, s.signaler).Resume(); serr != nil {
			s.log.Warn().Err(serr).Int("pid", job.PID).Msg("failed to continue job")
		}
		if err = t.SetState(job.PID, state); err != nil {
			return
		}
		if state == jobs.Background {
			s.printf("[%d] (%d) %s\n", job.JID, job.PID, job.CmdLine)
		}
	})

	switch {
	case !found && byJID:
		return fmt.Errorf("%%%d: %w", id, errNoSuchJob)
	case !found:
		return fmt.Errorf("(%d): %w", id, errNoSuchProcess)
	case err != nil:
		return fmt.Errorf("%s: %w", name, err)
	}

	if state == jobs.Foreground {
		s.waitfg(job.PID)
	}
	return nil
}
