package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertbridge/internal/broker"
	"alertbridge/internal/classifier"
	"alertbridge/internal/cursor"
	"alertbridge/internal/logger"
	"alertbridge/internal/message"
	"alertbridge/internal/ticket"
	apperrors "alertbridge/pkg/errors"
	"alertbridge/pkg/health"
)

type fakeHistory struct {
	mu        sync.Mutex
	messages  []message.RawMessage
	err       error
	oldest    []string
	permalink string
	block     chan struct{}
}

func (h *fakeHistory) History(_ context.Context, _ string, oldest string, _ int) ([]message.RawMessage, error) {
	if h.block != nil {
		<-h.block
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.oldest = append(h.oldest, oldest)
	if h.err != nil {
		return nil, h.err
	}
	return h.messages, nil
}

func (h *fakeHistory) Permalink(_ context.Context, _, ts string) (string, error) {
	if h.permalink == "" {
		return "", errors.New("not found")
	}
	return h.permalink + ts, nil
}

type memoryStore struct {
	state   cursor.State
	loadErr error
	saves   int
}

func (s *memoryStore) Load(context.Context) (cursor.State, error) {
	if s.loadErr != nil {
		return cursor.State{}, s.loadErr
	}
	out := cursor.State{}
	for k, v := range s.state {
		out[k] = v
	}
	return out, nil
}

func (s *memoryStore) Save(_ context.Context, state cursor.State) error {
	s.saves++
	s.state = cursor.State{}
	for k, v := range state {
		s.state[k] = v
	}
	return nil
}

func (s *memoryStore) Name() string { return "memory" }

type fakeTickets struct {
	requests []ticket.Request
	failOn   string
	panicOn  string
}

func (f *fakeTickets) Create(_ context.Context, req ticket.Request) (ticket.Result, error) {
	if f.panicOn != "" && req.Summary == f.panicOn {
		panic("boom")
	}
	f.requests = append(f.requests, req)
	if f.failOn != "" && req.Summary == f.failOn {
		return ticket.Result{}, apperrors.ErrRemote.WithMessage("rejected")
	}
	return ticket.Result{Key: "TDS-" + req.Summary, PriorityMode: ticket.PriorityByID}, nil
}

type recordingPublisher struct {
	events []broker.TicketEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e broker.TicketEvent) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

var fixedNow = time.Unix(1700000000, 0)

func newTestPoller(t *testing.T, h *fakeHistory, store *memoryStore, tickets *fakeTickets, pub *recordingPublisher) *Poller {
	t.Helper()
	c, err := classifier.New(nil, "")
	require.NoError(t, err)

	p := New(Config{
		ChannelID:     "C1",
		HistoryLimit:  200,
		Interval:      time.Hour,
		Backfill:      300 * time.Second,
		CategoryLabel: "Plantão - API / Transportadoras",
	}, h, store, c, tickets, pub, logger.NopLogger())
	p.now = func() time.Time { return fixedNow }
	return p
}

func msg(ts, text string) message.RawMessage {
	return message.RawMessage{TS: ts, Text: text}
}

func TestCycleFirstRunBackfills(t *testing.T) {
	h := &fakeHistory{}
	store := &memoryStore{}
	p := newTestPoller(t, h, store, &fakeTickets{}, &recordingPublisher{})

	stats, err := p.Cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Processed)
	require.Len(t, h.oldest, 1)
	assert.Equal(t, "1699999700.000000", h.oldest[0])
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, "1699999700.000000", store.state.LastTS("C1"))
}

func TestCycleStaleBatchStillSaves(t *testing.T) {
	h := &fakeHistory{messages: []message.RawMessage{msg("1700000000.000000", "Triggered: already seen")}}
	store := &memoryStore{state: cursor.State{"C1": {LastTS: "1700000000.000000"}}}
	tickets := &fakeTickets{}
	p := newTestPoller(t, h, store, tickets, &recordingPublisher{})

	stats, err := p.Cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Fetched)
	assert.Equal(t, 0, stats.Processed)
	assert.Empty(t, tickets.requests)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, "1700000000.000000", store.state.LastTS("C1"))
}

func TestCycleEmptyBatchWithCursorDoesNotSave(t *testing.T) {
	store := &memoryStore{state: cursor.State{"C1": {LastTS: "1700000000.000000"}}}
	p := newTestPoller(t, &fakeHistory{}, store, &fakeTickets{}, &recordingPublisher{})

	_, err := p.Cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, store.saves)
}

func TestCycleProcessesInOrderAndAdvancesCursor(t *testing.T) {
	h := &fakeHistory{
		permalink: "https://slack/p",
		messages: []message.RawMessage{
			msg("1700000003.000300", "Triggered: disk full"),
			msg("1700000001.000100", "Triggered: CPU high"),
			msg("1700000000.500000", "Triggered: too old"),
			msg("1700000002.000200", "Recovered: CPU high"),
		},
	}
	store := &memoryStore{state: cursor.State{"C1": {LastTS: "1700000000.500000"}}}
	tickets := &fakeTickets{}
	pub := &recordingPublisher{}
	p := newTestPoller(t, h, store, tickets, pub)

	stats, err := p.Cycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1700000000.500000", h.oldest[0])
	assert.Equal(t, 4, stats.Fetched)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, stats.Created)

	require.Len(t, tickets.requests, 2)
	assert.Equal(t, "Triggered: CPU high", tickets.requests[0].Summary)
	assert.Equal(t, "Triggered: disk full", tickets.requests[1].Summary)
	assert.Equal(t, classifier.Severity, tickets.requests[0].PriorityLabel)
	assert.Equal(t, "Plantão - API / Transportadoras", tickets.requests[0].CategoryLabel)

	assert.Equal(t, "1700000003.000300", store.state.LastTS("C1"))
	assert.Equal(t, 1, store.saves)

	require.Len(t, pub.events, 2)
	assert.Equal(t, "TDS-Triggered: CPU high", pub.events[0].IssueKey)
	assert.Equal(t, "https://slack/p1700000001.000100", pub.events[0].Permalink)

	raw, ok := p.LastMessage()
	require.True(t, ok)
	assert.Contains(t, string(raw), "disk full")
}

func TestCycleSkippedMessagesStillAdvanceCursor(t *testing.T) {
	h := &fakeHistory{messages: []message.RawMessage{msg("1700000001.000100", "just chatting")}}
	store := &memoryStore{state: cursor.State{"C1": {LastTS: "1700000000.000000"}}}
	tickets := &fakeTickets{}
	p := newTestPoller(t, h, store, tickets, &recordingPublisher{})

	_, err := p.Cycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tickets.requests)
	assert.Equal(t, "1700000001.000100", store.state.LastTS("C1"))
}

func TestCycleTicketFailureDoesNotStopBatch(t *testing.T) {
	h := &fakeHistory{messages: []message.RawMessage{
		msg("1700000001.000100", "Triggered: first"),
		msg("1700000002.000200", "Triggered: second"),
		msg("1700000003.000300", "Triggered: third"),
	}}
	store := &memoryStore{state: cursor.State{"C1": {LastTS: "1700000000.000000"}}}
	tickets := &fakeTickets{failOn: "Triggered: first", panicOn: "Triggered: second"}
	p := newTestPoller(t, h, store, tickets, &recordingPublisher{})

	stats, err := p.Cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, "1700000003.000300", store.state.LastTS("C1"))
}

// slowTickets takes a while per call and can cancel the cycle on a given call.
type slowTickets struct {
	delay     time.Duration
	cancelAt  int
	cancel    context.CancelFunc
	calls     int
	deadlines []bool
}

func (s *slowTickets) Create(ctx context.Context, req ticket.Request) (ticket.Result, error) {
	s.calls++
	_, hasDeadline := ctx.Deadline()
	s.deadlines = append(s.deadlines, hasDeadline)

	if s.cancelAt > 0 && s.calls == s.cancelAt {
		s.cancel()
		return ticket.Result{}, apperrors.ErrRemote.WithCause(ctx.Err())
	}

	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return ticket.Result{}, apperrors.ErrRemote.WithCause(ctx.Err())
	}
	return ticket.Result{Key: "TDS-" + req.Summary}, nil
}

func triggeredBatch() []message.RawMessage {
	return []message.RawMessage{
		msg("1700000000.000001", "Triggered: one"),
		msg("1700000000.000002", "Triggered: two"),
		msg("1700000000.000003", "Triggered: three"),
		msg("1700000000.000004", "Triggered: four"),
		msg("1700000000.000005", "Triggered: five"),
	}
}

func newSlowPoller(t *testing.T, cfg Config, h *fakeHistory, store *memoryStore, tickets *slowTickets) *Poller {
	t.Helper()
	c, err := classifier.New(nil, "")
	require.NoError(t, err)

	p := New(cfg, h, store, c, tickets, &recordingPublisher{}, logger.NopLogger())
	p.now = func() time.Time { return fixedNow }
	return p
}

func TestCycleSlowTrackerHasNoDeadline(t *testing.T) {
	h := &fakeHistory{messages: triggeredBatch()}
	store := &memoryStore{state: cursor.State{"C1": {LastTS: "1700000000.000000"}}}
	tickets := &slowTickets{delay: 20 * time.Millisecond}
	p := newSlowPoller(t, Config{ChannelID: "C1", Interval: 50 * time.Millisecond, Backfill: time.Minute}, h, store, tickets)

	stats, err := p.Cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Created)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, []bool{false, false, false, false, false}, tickets.deadlines)
	assert.Equal(t, "1700000000.000005", store.state.LastTS("C1"))
}

func TestCycleInterruptedKeepsUnattemptedMessages(t *testing.T) {
	h := &fakeHistory{messages: triggeredBatch()}
	store := &memoryStore{state: cursor.State{"C1": {LastTS: "1700000000.000000"}}}
	ctx, cancel := context.WithCancel(context.Background())
	tickets := &slowTickets{cancelAt: 2, cancel: cancel}
	p := newSlowPoller(t, Config{ChannelID: "C1", Interval: time.Hour, Backfill: time.Minute}, h, store, tickets)

	stats, err := p.Cycle(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 2, tickets.calls)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, "1700000000.000001", store.state.LastTS("C1"))

	tickets.cancelAt = 0
	stats, err = p.Cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Created)
	assert.Equal(t, "1700000000.000005", store.state.LastTS("C1"))
}

func TestCycleHistoryErrorKeepsCursor(t *testing.T) {
	h := &fakeHistory{err: apperrors.ErrRemote.WithMessage("slack down")}
	store := &memoryStore{state: cursor.State{"C1": {LastTS: "1700000000.000000"}}}
	p := newTestPoller(t, h, store, &fakeTickets{}, &recordingPublisher{})

	_, err := p.Cycle(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, store.saves)

	checkErr := p.HealthChecker().Check(context.Background())
	var degraded *health.Degraded
	assert.True(t, errors.As(checkErr, &degraded))
}

func TestCycleUnreadableCursorStartsEmpty(t *testing.T) {
	h := &fakeHistory{}
	store := &memoryStore{loadErr: apperrors.ErrTransientRead.WithMessage("corrupt")}
	p := newTestPoller(t, h, store, &fakeTickets{}, &recordingPublisher{})

	_, err := p.Cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1699999700.000000", h.oldest[0])
	assert.NoError(t, p.HealthChecker().Check(context.Background()))
}

func TestCycleRejectsOverlap(t *testing.T) {
	h := &fakeHistory{block: make(chan struct{})}
	p := newTestPoller(t, h, &memoryStore{}, &fakeTickets{}, &recordingPublisher{})

	done := make(chan error, 1)
	go func() {
		_, err := p.Cycle(context.Background())
		done <- err
	}()

	require.Eventually(t, p.running.Load, time.Second, time.Millisecond)

	_, err := p.Cycle(context.Background())
	assert.ErrorIs(t, err, ErrCycleInProgress)

	close(h.block)
	assert.NoError(t, <-done)
}

func TestLastMessageEmpty(t *testing.T) {
	p := newTestPoller(t, &fakeHistory{}, &memoryStore{}, &fakeTickets{}, &recordingPublisher{})
	_, ok := p.LastMessage()
	assert.False(t, ok)
}

func TestRunStopsOnCancel(t *testing.T) {
	h := &fakeHistory{}
	p := newTestPoller(t, h, &memoryStore{}, &fakeTickets{}, &recordingPublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.oldest) == 1
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestCompareTS(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1700000001.000100", "1700000001.000100", 0},
		{"1700000001.000100", "1700000001.000200", -1},
		{"1700000002.0", "1700000001.999999", 1},
		{"1700000001.1", "1700000001.099999", 1},
		{"99.5", "100.1", -1},
		{"", "1.0", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, compareTS(tt.a, tt.b))
		})
	}
}
