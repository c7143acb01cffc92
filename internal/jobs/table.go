package jobs

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// DefaultCapacity is the number of slots in a job table unless configured otherwise.
	DefaultCapacity = 16
	// MaxJID is the largest job id handed out before the counter wraps.
	MaxJID = 1 << 16
)

var (
	ErrTableFull      = errors.New("tried to create too many jobs")
	ErrInvalidPID     = errors.New("invalid pid")
	ErrDuplicatePID   = errors.New("pid already has a job")
	ErrForegroundBusy = errors.New("another job is in the foreground")
	ErrNoSuchJob      = errors.New("no such job")
)

// Table is a fixed-capacity registry of jobs. It does no locking of its own;
// callers that share it across goroutines go through Control.
type Table struct {
	slots   []Job
	nextJID int
	log     zerolog.Logger
}

func NewTable(capacity int, log zerolog.Logger) *Table {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	t := &Table{
		slots: make([]Job, capacity),
		log:   log,
	}
	t.Init()
	return t
}

// Init clears every slot.
func (t *Table) Init() {
	for i := range t.slots {
		t.slots[i] = Job{}
	}
	t.nextJID = 1
}

func (t *Table) Cap() int {
	return len(t.slots)
}

// Len returns the number of live jobs.
func (t *Table) Len() int {
	n := 0
	for _, j := range t.slots {
		if !j.empty() {
			n++
		}
	}
	return n
}

// Add registers pid in the first empty slot and assigns it the next job id.
func (t *Table) Add(pid int, state State, cmdline string) error {
	if pid < 1 {
		t.log.Warn().Int("pid", pid).Msg("unable to create job")
		return ErrInvalidPID
	}
	if _, ok := t.ByPID(pid); ok {
		t.log.Warn().Int("pid", pid).Msg("pid already registered")
		return ErrDuplicatePID
	}
	if state == Foreground {
		if fg, ok := t.ForegroundPID(); ok {
			t.log.Warn().Int("pid", pid).Int("fg_pid", fg).Msg("foreground slot taken")
			return ErrForegroundBusy
		}
	}

	for i := range t.slots {
		if !t.slots[i].empty() {
			continue
		}
		t.slots[i] = Job{
			PID:     pid,
			JID:     t.allocJID(),
			State:   state,
			CmdLine: strings.TrimRight(cmdline, "\n"),
		}
		t.log.Debug().Msgf("Added job [%d] %d %s", t.slots[i].JID, pid, t.slots[i].CmdLine)
		return nil
	}

	t.log.Warn().Int("pid", pid).Int("capacity", t.Cap()).Msg(ErrTableFull.Error())
	return ErrTableFull
}

// allocJID hands out the next job id, wrapping past MaxJID and skipping ids
// that are still in use.
func (t *Table) allocJID() int {
	for {
		jid := t.nextJID
		t.nextJID++
		if t.nextJID > MaxJID {
			t.nextJID = 1
		}
		if _, used := t.ByJID(jid); !used {
			return jid
		}
	}
}

// Remove clears the slot holding pid.
func (t *Table) Remove(pid int) bool {
	if pid < 1 {
		return false
	}
	for i := range t.slots {
		if t.slots[i].PID != pid {
			continue
		}
		t.log.Debug().Int("jid", t.slots[i].JID).Int("pid", pid).Str("cmd", t.slots[i].CmdLine).Msg("deleting job")
		t.slots[i] = Job{}
		t.nextJID = t.MaxJID() + 1
		return true
	}
	return false
}

// MaxJID returns the largest job id currently allocated, or 0.
func (t *Table) MaxJID() int {
	max := 0
	for _, j := range t.slots {
		if j.JID > max {
			max = j.JID
		}
	}
	return max
}

func (t *Table) ByPID(pid int) (Job, bool) {
	if pid < 1 {
		return Job{}, false
	}
	for _, j := range t.slots {
		if j.PID == pid {
			return j, true
		}
	}
	return Job{}, false
}

func (t *Table) ByJID(jid int) (Job, bool) {
	if jid < 1 {
		return Job{}, false
	}
	for _, j := range t.slots {
		if j.JID == jid {
			return j, true
		}
	}
	return Job{}, false
}

// PIDToJID maps a process id to its job id.
func (t *Table) PIDToJID(pid int) (int, bool) {
	j, ok := t.ByPID(pid)
	return j.JID, ok
}

// ForegroundPID returns the pid of the foreground job, if there is one.
func (t *Table) ForegroundPID() (int, bool) {
	for _, j := range t.slots {
		if !j.empty() && j.State == Foreground {
			return j.PID, true
		}
	}
	return 0, false
}

// SetState moves the job for pid into state.
func (t *Table) SetState(pid int, state State) error {
	if pid < 1 {
		return ErrInvalidPID
	}
	if state == Foreground {
		if fg, ok := t.ForegroundPID(); ok && fg != pid {
			return ErrForegroundBusy
		}
	}
	for i := range t.slots {
		if t.slots[i].PID == pid {
			t.slots[i].State = state
			return nil
		}
	}
	return ErrNoSuchJob
}

// List returns the live jobs in slot order.
func (t *Table) List() []Job {
	var out []Job
	for _, j := range t.slots {
		if !j.empty() {
			out = append(out, j)
		}
	}
	return out
}
