package jobs

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func waitAsync(c *Control, pid int) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		c.WaitForeground(pid)
		close(done)
	}()
	return done
}

func TestWaitForegroundReturnsForAbsentJob(t *testing.T) {
	c := NewControl(NewTable(DefaultCapacity, zerolog.Nop()))
	select {
	case <-waitAsync(c, 99):
	case <-time.After(time.Second):
		t.Fatal("WaitForeground blocked on a pid with no job")
	}
}

func TestWaitForegroundReturnsForBackgroundJob(t *testing.T) {
	c := NewControl(NewTable(DefaultCapacity, zerolog.Nop()))
	c.Critical(func(tbl *Table) {
		require.NoError(t, tbl.Add(5, Background, "bg"))
	})
	select {
	case <-waitAsync(c, 5):
	case <-time.After(time.Second):
		t.Fatal("WaitForeground blocked on a background job")
	}
}

func TestWaitForegroundBlocksUntilJobLeavesForeground(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Table)
	}{
		{"reaped", func(tbl *Table) { tbl.Remove(5) }},
		{"stopped", func(tbl *Table) { _ = tbl.SetState(5, Stopped) }},
		{"backgrounded", func(tbl *Table) { _ = tbl.SetState(5, Background) }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := NewControl(NewTable(DefaultCapacity, zerolog.Nop()))
			c.Critical(func(tbl *Table) {
				require.NoError(t, tbl.Add(5, Foreground, "fg"))
			})
			done := waitAsync(c, 5)

			// Unrelated table changes wake the waiter but do not release it.
			c.Critical(func(tbl *Table) {
				require.NoError(t, tbl.Add(6, Background, "other"))
			})
			select {
			case <-done:
				t.Fatal("WaitForeground returned while job was still in the foreground")
			case <-time.After(50 * time.Millisecond):
			}

			c.Critical(tc.mutate)
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("WaitForeground did not return")
			}
		})
	}
}

func TestCriticalReleasesOnPanic(t *testing.T) {
	c := NewControl(NewTable(DefaultCapacity, zerolog.Nop()))
	assert.Panics(t, func() {
		c.Critical(func(*Table) { panic("boom") })
	})
	ran := false
	c.Critical(func(*Table) { ran = true })
	assert.True(t, ran)
}

type recordingSignaler struct {
	pids []int
	sigs []unix.Signal
	err  error
}

func (r *recordingSignaler) Kill(pid int, sig unix.Signal) error {
	r.pids = append(r.pids, pid)
	r.sigs = append(r.sigs, sig)
	return r.err
}

func TestHandleTargetsProcessGroup(t *testing.T) {
	rec := &recordingSignaler{}
	h := NewHandle(Job{PID: 321, JID: 1}, rec)

	require.NoError(t, h.Resume())
	require.NoError(t, h.Stop())
	require.NoError(t, h.Interrupt())
	require.NoError(t, h.Kill())

	assert.Equal(t, []int{-321, -321, -321, -321}, rec.pids)
	assert.Equal(t, []unix.Signal{unix.SIGCONT, unix.SIGTSTP, unix.SIGINT, unix.SIGKILL}, rec.sigs)
}

func TestHandleErrors(t *testing.T) {
	rec := &recordingSignaler{err: unix.ESRCH}
	err := NewHandle(Job{PID: 4}, rec).Resume()
	assert.True(t, errors.Is(err, unix.ESRCH))

	err = NewHandle(Job{}, rec).Interrupt()
	assert.ErrorIs(t, err, ErrInvalidPID)
	assert.Len(t, rec.pids, 1, "empty job must not be signalled")
}
