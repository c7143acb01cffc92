//go:build linux

package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"tsh/internal/jobs"
)

func TestBgFgUsageErrors(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"bg", "bg command requires PID or %jobid argument"},
		{"fg 1 2", "fg command requires PID or %jobid argument"},
		{"bg abc", "bg: argument must be a PID or %jobid"},
		{"fg %x", "fg: argument must be a PID or %jobid"},
		{"fg %", "fg: argument must be a PID or %jobid"},
		{"fg %7", "%7: No such job"},
		{"bg 55", "(55): No such process"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			h := newHarness(t, testConfig())
			h.addJob(t, 100, jobs.Stopped, "sleep 5")
			before := h.table()

			err := h.Execute(tt.line)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			assert.Empty(t, h.signaler.all(), "no signal may be sent")
			assert.Equal(t, before, h.table(), "table must be unchanged")
			assert.Empty(t, h.out.String())
		})
	}
}

func TestBgResumesStoppedJob(t *testing.T) {
	for _, arg := range []string{"%1", "100"} {
		t.Run(arg, func(t *testing.T) {
			h := newHarness(t, testConfig())
			h.addJob(t, 100, jobs.Stopped, "sleep 5 &")

			require.NoError(t, h.Execute("bg "+arg))
			assert.Equal(t, "[1] (100) sleep 5 &\n", h.out.String())
			assert.Equal(t, []sent{{-100, unix.SIGCONT}}, h.signaler.all())

			j, ok := h.job(100)
			require.True(t, ok)
			assert.Equal(t, jobs.Background, j.State)
		})
	}
}

func TestFgBlocksUntilJobLeavesForeground(t *testing.T) {
	h := newHarness(t, testConfig())
	h.addJob(t, 100, jobs.Stopped, "sleep 5")
	h.addJob(t, 101, jobs.Background, "sleep 6 &")

	done := h.executeAsync("fg %2")
	requireBlocked(t, done)

	j, ok := h.job(101)
	require.True(t, ok)
	assert.Equal(t, jobs.Foreground, j.State)
	assert.Equal(t, []sent{{-101, unix.SIGCONT}}, h.signaler.all())

	// A change to another job does not release the wait.
	h.waiter.push(reaped{100, exited(0)})
	h.reapChildren()
	requireBlocked(t, done)

	h.waiter.push(reaped{101, stopped(unix.SIGTSTP)})
	h.reapChildren()
	require.NoError(t, requireDone(t, done))
	assert.Equal(t, "Job [2] (101) stopped by signal 20\n", h.out.String())

	// Resumed again and this time it exits.
	done = h.executeAsync("fg 101")
	requireBlocked(t, done)
	h.waiter.push(reaped{101, exited(0)})
	h.reapChildren()
	require.NoError(t, requireDone(t, done))
	assert.Empty(t, h.table())
}

func TestResumeOfVanishedProcessStillUpdatesState(t *testing.T) {
	h := newHarness(t, testConfig())
	h.signaler.err = unix.ESRCH
	h.addJob(t, 100, jobs.Stopped, "sleep 5")

	require.NoError(t, h.Execute("bg %1"))
	j, ok := h.job(100)
	require.True(t, ok)
	assert.Equal(t, jobs.Background, j.State)
}
