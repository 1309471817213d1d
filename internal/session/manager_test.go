package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexter939/EvoAcs-sub001/internal/store"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestManager(snap Snapshotter) (*Manager, *clock) {
	c := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewManager(Config{Timeout: 30 * time.Second, Logger: zerolog.Nop(), Snapshotter: snap, Now: c.Now}), c
}

func TestQueueFIFOAcrossGrowth(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 3; i++ {
		q.Push(Command{TaskID: string(rune('a' + i))})
	}
	c, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "a", c.TaskID)

	for i := 3; i < 10; i++ {
		q.Push(Command{TaskID: string(rune('a' + i))})
	}
	assert.Equal(t, 9, q.Len())

	var got string
	for {
		c, ok := q.Pop()
		if !ok {
			break
		}
		got += c.TaskID
	}
	assert.Equal(t, "bcdefghij", got)
	_, ok = q.Peek()
	assert.False(t, ok)
}

func TestCreateAndFindByCookie(t *testing.T) {
	m, _ := newTestManager(nil)

	s := m.Create(1, "10.0.0.1")
	assert.NotEmpty(t, s.Token())
	assert.Equal(t, StatusActive, s.Status())

	found, err := m.FindByCookie(s.Token())
	require.NoError(t, err)
	assert.Same(t, s, found)

	_, err = m.FindByCookie("unknown")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.FindByCookie("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTimeoutExpiresSession(t *testing.T) {
	m, clk := newTestManager(nil)
	s := m.Create(1, "")

	clk.Advance(20 * time.Second)
	m.Touch(s)
	clk.Advance(20 * time.Second)
	assert.False(t, m.IsTimedOut(s))

	clk.Advance(11 * time.Second)
	assert.True(t, m.IsTimedOut(s))
	_, err := m.FindByCookie(s.Token())
	assert.ErrorIs(t, err, ErrExpired)
	assert.Equal(t, StatusTimeout, s.Status())
}

func TestOneActiveSessionPerDevice(t *testing.T) {
	m, _ := newTestManager(nil)
	first := m.Create(1, "")
	second := m.Create(1, "")

	assert.Equal(t, StatusClosed, first.Status())
	active, ok := m.ActiveForDevice(1)
	require.True(t, ok)
	assert.Same(t, second, active)
	assert.Equal(t, 1, m.Len())
}

func TestPendingCommandsPopInOrderOnePerCall(t *testing.T) {
	m, _ := newTestManager(nil)
	s := m.Create(1, "")

	m.AddPendingCommand(s, Command{Type: GetParameterValues, Names: []string{"Device."}, TaskID: "t1"})
	m.AddPendingCommand(s, Command{Type: Reboot, CommandKey: "rb", TaskID: "t2"})
	assert.Equal(t, 2, s.PendingCount())

	cmd, ok := m.PopNextCommand(s)
	require.True(t, ok)
	assert.Equal(t, "t1", cmd.TaskID)
	assert.Equal(t, 1, s.PendingCount())

	inFlight, ok := s.InFlight()
	require.True(t, ok)
	assert.Equal(t, "t1", inFlight.TaskID)

	acked, ok := m.Acknowledge(s)
	require.True(t, ok)
	assert.Equal(t, "t1", acked.TaskID)
	_, ok = s.InFlight()
	assert.False(t, ok)

	last, ok := s.LastSent()
	require.True(t, ok)
	assert.Equal(t, "t1", last.TaskID)

	cmd, ok = m.PopNextCommand(s)
	require.True(t, ok)
	assert.Equal(t, Reboot, cmd.Type)
	_, ok = m.PopNextCommand(s)
	assert.False(t, ok)
}

func TestNextMessageIDMonotonic(t *testing.T) {
	m, _ := newTestManager(nil)
	s := m.Create(1, "")

	var wg sync.WaitGroup
	ids := make(chan uint64, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- m.NextMessageID(s)
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[uint64]bool{}
	for id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Len(t, seen, 100)
	assert.Equal(t, uint64(101), m.NextMessageID(s))
}

func TestSweepClosesIdleSessions(t *testing.T) {
	m, clk := newTestManager(nil)
	idle := m.Create(1, "")
	clk.Advance(25 * time.Second)
	busy := m.Create(2, "")
	clk.Advance(10 * time.Second)

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, StatusTimeout, idle.Status())
	assert.Equal(t, StatusActive, busy.Status())
}

func TestLockDeviceSerializes(t *testing.T) {
	m, _ := newTestManager(nil)

	var mu sync.Mutex
	inside := 0
	maxInside := 0
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.LockDevice(42)
			defer unlock()
			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxInside)
	assert.Empty(t, m.locks)
}

func TestSnapshotsPersistOrderedQueue(t *testing.T) {
	db, err := store.OpenSQLite(":memory:", zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()
	repo := store.NewSessionRepository(db.DB)

	m, _ := newTestManager(NewRepositorySnapshotter(repo))
	s := m.Create(9, "192.0.2.1")
	m.AddPendingCommand(s, Command{Type: SetParameterValues, Values: []ParameterValue{{Name: "Device.X", Value: "1", Type: "xsd:int"}}, TaskID: "a"})
	m.AddPendingCommand(s, Command{Type: Download, Download: &DownloadArgs{FileType: "1 Firmware Upgrade Image", URL: "http://fw"}, TaskID: "b"})
	m.PopNextCommand(s)

	rec, err := repo.GetByToken(context.Background(), s.Token())
	require.NoError(t, err)
	assert.Equal(t, "active", rec.Status)

	q, err := DecodePending(rec)
	require.NoError(t, err)
	items := q.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].TaskID)
	assert.Equal(t, "http://fw", items[0].Download.URL)
	assert.Contains(t, rec.LastCommand, `"task_id":"a"`)

	m.Close(s, StatusClosed)
	rec, err = repo.GetByToken(context.Background(), s.Token())
	require.NoError(t, err)
	assert.Equal(t, "closed", rec.Status)
	assert.NotNil(t, rec.EndedAt)
}

type recordingReleaser struct {
	mu       sync.Mutex
	released []Command
	statuses []Status
}

func (r *recordingReleaser) Release(_ context.Context, cmd Command, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = append(r.released, cmd)
	r.statuses = append(r.statuses, status)
}

func TestClosingSessionReleasesUnansweredCommand(t *testing.T) {
	rel := &recordingReleaser{}
	clk := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(Config{Timeout: 30 * time.Second, Logger: zerolog.Nop(), Releaser: rel, Now: clk.Now})

	replaced := m.Create(1, "")
	m.AddPendingCommand(replaced, Command{Type: Reboot, TaskID: "t-replaced"})
	_, ok := m.PopNextCommand(replaced)
	require.True(t, ok)
	m.Create(1, "")

	idle := m.Create(2, "")
	m.AddPendingCommand(idle, Command{Type: GetParameterValues, Names: []string{"Device."}, TaskID: "t-idle"})
	_, ok = m.PopNextCommand(idle)
	require.True(t, ok)
	clk.Advance(31 * time.Second)
	m.Sweep()

	answered := m.Create(3, "")
	m.AddPendingCommand(answered, Command{Type: Reboot, TaskID: "t-answered"})
	_, ok = m.PopNextCommand(answered)
	require.True(t, ok)
	_, ok = m.Acknowledge(answered)
	require.True(t, ok)
	m.Close(answered, StatusClosed)

	require.Len(t, rel.released, 2)
	assert.Equal(t, "t-replaced", rel.released[0].TaskID)
	assert.Equal(t, StatusClosed, rel.statuses[0])
	assert.Equal(t, "t-idle", rel.released[1].TaskID)
	assert.Equal(t, StatusTimeout, rel.statuses[1])
	_, ok = idle.InFlight()
	assert.False(t, ok)

	m.Close(idle, StatusClosed)
	assert.Len(t, rel.released, 2)
}
