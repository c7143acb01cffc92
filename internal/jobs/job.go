package jobs

import "fmt"

// State is the scheduling disposition of a job.
type State int

const (
	Undefined State = iota
	Foreground
	Background
	Stopped
)

func (s State) String() string {
	switch s {
	case Foreground:
		return "Foreground"
	case Background:
		return "Running"
	case Stopped:
		return "Stopped"
	default:
		return "Undefined"
	}
}

// Job is one slot of the job table. A zero PID marks an empty slot.
type Job struct {
	PID     int
	JID     int
	State   State
	CmdLine string
}

func (j Job) empty() bool {
	return j.PID == 0
}

// String renders the job the way the jobs builtin lists it.
func (j Job) String() string {
	return fmt.Sprintf("[%d] (%d) %s %s", j.JID, j.PID, j.State, j.CmdLine)
}
