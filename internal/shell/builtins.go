package shell

import (
	"tsh/internal/jobs"
)

func (s *Shell) executeBuiltin(args []string) (bool, error) {
	switch args[0] {
	case "quit":
		s.quit()
		return true, nil
	case "jobs":
		s.listJobs()
		return true, nil
	case "bg", "fg":
		return true, s.resume(args)
	case "history":
		s.showHistory()
		return true, nil
	default:
		return false, nil
	}
}

func (s *Shell) quit() {
	s.log.Debug().Msg("quit received, exiting")
	if err := s.history.Close(); err != nil {
		s.log.Warn().Err(err).Msg("failed to close history")
	}
	s.exit(0)
}

func (s *Shell) listJobs() {
	var list []jobs.Job
	s.control.Critical(func(t *jobs.Table) {
		list = t.List()
	})
	for _, j := range list {
		s.printf("%s\n", j)
	}
}

func (s *Shell) showHistory() {
	for i, cmd := range s.history.GetAll() {
		s.printf("%d: %s\n", i+1, cmd)
	}
}
