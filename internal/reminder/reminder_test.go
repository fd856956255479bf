package reminder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/gofish/internal/directory"
	"github.com/lox/gofish/internal/game"
	"github.com/lox/gofish/internal/randutil"
	"github.com/lox/gofish/internal/store"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
	ch    chan string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{ch: make(chan string, 16)}
}

func (r *recordingNotifier) Notify(_ context.Context, player directory.Player, _ []string) error {
	r.mu.Lock()
	r.calls = append(r.calls, player.Name)
	r.mu.Unlock()
	r.ch <- player.Name
	return nil
}

func setup(t *testing.T) (*directory.MemoryDirectory, *store.MemoryStore) {
	t.Helper()
	dir := directory.NewMemoryDirectory()
	st := store.NewMemoryStore()

	_, err := dir.Register("Ann", "ann@example.com")
	require.NoError(t, err)
	_, err = dir.Register("Bo", "")
	require.NoError(t, err)

	g, err := game.New("g1", "Ann", "Bo", 6, 5, randutil.New(42))
	require.NoError(t, err)
	require.NoError(t, st.Put(g))

	return dir, st
}

func TestSweepNotifiesPlayersWithEmailAndActiveGame(t *testing.T) {
	dir, st := setup(t)
	notifier := newRecordingNotifier()
	s := NewScheduler(dir, st, notifier, quartz.NewReal(), time.Hour, zerolog.Nop())

	s.Sweep(context.Background())

	// Ann has an email and an active game; Bo has no email.
	assert.Equal(t, []string{"Ann"}, notifier.calls)
}

func TestSweepSkipsFinishedGames(t *testing.T) {
	dir := directory.NewMemoryDirectory()
	st := store.NewMemoryStore()

	_, err := dir.Register("Ann", "ann@example.com")
	require.NoError(t, err)

	notifier := newRecordingNotifier()
	s := NewScheduler(dir, st, notifier, quartz.NewReal(), time.Hour, zerolog.Nop())
	s.Sweep(context.Background())

	assert.Empty(t, notifier.calls, "no active game, no reminder")
}

func TestRunSweepsOnTick(t *testing.T) {
	dir, st := setup(t)
	notifier := newRecordingNotifier()
	clock := quartz.NewMock(t)
	s := NewScheduler(dir, st, notifier, clock, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trap := clock.Trap().NewTicker()
	defer trap.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()

	// Wait until Run has created its ticker before advancing, otherwise the
	// tick fires before anyone is listening.
	trap.MustWait(ctx).MustRelease(ctx)

	clock.Advance(time.Hour).MustWait(ctx)

	select {
	case name := <-notifier.ch:
		assert.Equal(t, "Ann", name)
	case <-time.After(5 * time.Second):
		t.Fatal("expected a reminder after one tick")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}
