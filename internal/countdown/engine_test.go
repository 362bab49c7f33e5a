package countdown

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensigniasec/autorefresh/internal/prefs"
	"github.com/ensigniasec/autorefresh/internal/storage"
	"github.com/ensigniasec/autorefresh/internal/validate"
)

const addr = "https://example.com/"

type countingReloader struct{ calls int }

func (r *countingReloader) Reload() { r.calls++ }

func newConfig(t *testing.T) (*prefs.ConfigStore, *storage.MemoryStore) {
	t.Helper()
	st := storage.NewMemoryStore()
	return prefs.NewConfigStore(st), st
}

func TestMount_IdleWithoutConfig(t *testing.T) {
	t.Parallel()
	cfg, _ := newConfig(t)
	e, ok := Mount(context.Background(), cfg, addr, &countingReloader{})
	assert.False(t, ok)
	assert.Nil(t, e)
}

func TestMount_AfterPutStartsRunning(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg, _ := newConfig(t)

	for _, secs := range []int{5, 6, 60, 3600, 86400} {
		require.NoError(t, cfg.Put(ctx, addr, secs))
		e, ok := Mount(ctx, cfg, addr, &countingReloader{})
		require.True(t, ok)
		assert.Equal(t, Running, e.Phase())
		assert.Equal(t, State{Interval: secs, Remaining: secs}, e.State())
	}
}

func TestTick_ScenarioFiveSeconds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg, _ := newConfig(t)
	require.NoError(t, cfg.Put(ctx, addr, 5))

	r := &countingReloader{}
	e, ok := Mount(ctx, cfg, addr, r)
	require.True(t, ok)
	assert.Equal(t, State{Interval: 5, Remaining: 5}, e.State())

	prev := e.State().Remaining
	for i := 0; i < 4; i++ {
		assert.False(t, e.Tick())
		cur := e.State().Remaining
		assert.Equal(t, prev-1, cur, "strictly decreasing by one")
		prev = cur
		assert.Equal(t, 0, r.calls)
	}
	assert.True(t, e.Tick())
	assert.Equal(t, 1, r.calls)
	assert.Equal(t, Expired, e.Phase())
	assert.Equal(t, 0, e.State().Remaining)

	for i := 0; i < 10; i++ {
		assert.False(t, e.Tick())
	}
	assert.Equal(t, 1, r.calls, "exactly one reload per expiry")
}

func TestPauseResumeIsInvolution(t *testing.T) {
	t.Parallel()
	e, err := New(addr, 30, nil, &countingReloader{})
	require.NoError(t, err)
	e.Tick()
	e.Tick()
	before := e.State()

	assert.Equal(t, Paused, e.TogglePause())
	assert.Equal(t, Running, e.TogglePause())
	assert.Equal(t, before, e.State())

	e.Pause()
	e.Resume()
	assert.Equal(t, before, e.State())
}

func TestPausedTicksDoNotDecrement(t *testing.T) {
	t.Parallel()
	r := &countingReloader{}
	e, err := New(addr, 5, nil, r)
	require.NoError(t, err)
	e.Pause()
	for i := 0; i < 20; i++ {
		assert.False(t, e.Tick())
	}
	assert.Equal(t, State{Interval: 5, Remaining: 5, Paused: true}, e.State())
	assert.Equal(t, 0, r.calls)
}

func TestReset(t *testing.T) {
	t.Parallel()
	for _, paused := range []bool{false, true} {
		e, err := New(addr, 10, nil, &countingReloader{})
		require.NoError(t, err)
		e.Tick()
		e.Tick()
		e.Tick()
		if paused {
			e.Pause()
		}
		e.Reset()
		st := e.State()
		assert.Equal(t, st.Interval, st.Remaining)
		assert.Equal(t, paused, st.Paused)
	}
}

func TestReconfigure_AppliesImmediatelyAndPersists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg, _ := newConfig(t)
	require.NoError(t, cfg.Put(ctx, addr, 30))
	e, ok := Mount(ctx, cfg, addr, &countingReloader{})
	require.True(t, ok)
	e.Tick()
	e.Pause()

	require.NoError(t, e.Reconfigure(ctx, 12))
	assert.Equal(t, State{Interval: 12, Remaining: 12, Paused: true}, e.State())
	secs, ok := cfg.Lookup(ctx, addr)
	require.True(t, ok)
	assert.Equal(t, 12, secs)
}

func TestReconfigure_RejectsBelowMinimum(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg, st := newConfig(t)
	require.NoError(t, cfg.Put(ctx, addr, 30))
	e, ok := Mount(ctx, cfg, addr, &countingReloader{})
	require.True(t, ok)
	writes := st.Writes()

	require.ErrorIs(t, e.Reconfigure(ctx, 4), validate.ErrBelowMinimum)
	assert.Equal(t, State{Interval: 30, Remaining: 30}, e.State())
	assert.Equal(t, writes, st.Writes())
}

func TestReconfigure_PersistenceFailureKeepsState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg, st := newConfig(t)
	require.NoError(t, cfg.Put(ctx, addr, 30))
	e, ok := Mount(ctx, cfg, addr, &countingReloader{})
	require.True(t, ok)

	st.FailWrites(errors.New("quota exceeded"))
	require.Error(t, e.Reconfigure(ctx, 20))
	assert.Equal(t, State{Interval: 30, Remaining: 30}, e.State())
}

func TestReconfigure_AfterExpiryReportsExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg, st := newConfig(t)
	require.NoError(t, cfg.Put(ctx, addr, 5))
	e, ok := Mount(ctx, cfg, addr, &countingReloader{})
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		e.Tick()
	}
	require.Equal(t, Expired, e.Phase())
	writes := st.Writes()

	require.ErrorIs(t, e.Reconfigure(ctx, 30), ErrExpired)
	assert.Equal(t, writes, st.Writes())
	secs, _ := cfg.Lookup(ctx, addr)
	assert.Equal(t, 5, secs)
}

func TestFormatRemaining(t *testing.T) {
	t.Parallel()
	cases := map[int]string{
		0:      "00:00:00",
		5:      "00:00:05",
		59:     "00:00:59",
		60:     "00:01:00",
		3599:   "00:59:59",
		3600:   "01:00:00",
		3661:   "01:01:01",
		360000: "100:00:00",
		-3:     "00:00:00",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatRemaining(in), in)
	}
}

func TestTitle(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "[00:01:05] Example", Title(State{Interval: 90, Remaining: 65}, "Example"))
	assert.Equal(t, "[paused] Example", Title(State{Interval: 90, Remaining: 65, Paused: true}, "Example"))
}
