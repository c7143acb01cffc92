package jobs

import "sync"

// Control owns a Table shared between the main loop and the signal handler
// goroutine. All access to the table goes through Critical or WaitForeground.
type Control struct {
	mu      sync.Mutex
	changed *sync.Cond
	table   *Table
}

func NewControl(t *Table) *Control {
	c := &Control{table: t}
	c.changed = sync.NewCond(&c.mu)
	return c
}

// Critical runs fn with exclusive access to the table. Waiters in
// WaitForeground are woken when fn returns, on every exit path.
func (c *Control) Critical(fn func(t *Table)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.changed.Broadcast()
	fn(c.table)
}

// WaitForeground blocks until the job for pid is gone or no longer in the
// foreground. The lock is released while suspended and re-checked only after
// a critical section has run.
func (c *Control) WaitForeground(pid int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		j, ok := c.table.ByPID(pid)
		if !ok || j.State != Foreground {
			return
		}
		c.changed.Wait()
	}
}
