// Package poller drives the fetch, classify and ticket cycle for one channel.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"alertbridge/internal/broker"
	"alertbridge/internal/classifier"
	"alertbridge/internal/constants"
	"alertbridge/internal/cursor"
	"alertbridge/internal/document"
	"alertbridge/internal/logger"
	"alertbridge/internal/message"
	"alertbridge/internal/ticket"
	apperrors "alertbridge/pkg/errors"
	"alertbridge/pkg/health"
	"alertbridge/pkg/logging"
	"alertbridge/pkg/metrics"
	"alertbridge/pkg/tracing"
)

var ErrCycleInProgress = errors.New("poll cycle already in progress")

const (
	outcomeTicketCreated = "ticket_created"
	outcomeTicketFailed  = "ticket_failed"
)

type History interface {
	History(ctx context.Context, channelID, oldest string, limit int) ([]message.RawMessage, error)
	Permalink(ctx context.Context, channelID, ts string) (string, error)
}

type Decider interface {
	Decide(ctx context.Context, channel string, msg message.RawMessage, text string) (classifier.Decision, error)
}

type Tickets interface {
	Create(ctx context.Context, req ticket.Request) (ticket.Result, error)
}

type Config struct {
	ChannelID     string
	HistoryLimit  int
	Interval      time.Duration
	Backfill      time.Duration
	CycleTimeout  time.Duration
	CategoryLabel string
}

// Stats summarizes one cycle.
type Stats struct {
	Fetched   int
	Processed int
	Qualified int
	Created   int
	Failed    int
	Cursor    string
}

type Poller struct {
	cfg       Config
	history   History
	store     cursor.Store
	decider   Decider
	tickets   Tickets
	publisher broker.Publisher
	logger    logger.Logger
	now       func() time.Time

	running atomic.Bool
	wg      sync.WaitGroup

	// state is only touched by the goroutine holding running.
	state cursor.State

	last    atomic.Pointer[json.RawMessage]
	lastErr atomic.Pointer[error]
	lastRun atomic.Pointer[time.Time]
}

func New(cfg Config, history History, store cursor.Store, decider Decider, tickets Tickets, publisher broker.Publisher, log logger.Logger) *Poller {
	if publisher == nil {
		publisher = broker.NopPublisher{}
	}
	return &Poller{
		cfg:       cfg,
		history:   history,
		store:     store,
		decider:   decider,
		tickets:   tickets,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

// Run triggers a cycle immediately and then on every tick until ctx is
// done. A tick that lands while a cycle is still running is skipped.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.logger.Infow("Poll loop started",
		"channel_id", p.cfg.ChannelID,
		"interval", p.cfg.Interval,
	)

	p.trigger(ctx)
	for {
		select {
		case <-ctx.Done():
			p.wg.Wait()
			p.logger.Infow("Poll loop stopped", "channel_id", p.cfg.ChannelID)
			return nil
		case <-ticker.C:
			p.trigger(ctx)
		}
	}
}

func (p *Poller) trigger(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if _, err := p.Cycle(ctx); err != nil {
			if errors.Is(err, ErrCycleInProgress) {
				p.logger.Warnw("Skipping poll tick, previous cycle still running", "channel_id", p.cfg.ChannelID)
				metrics.ObservePollCycle("skipped", 0)
				return
			}
			p.logger.Errorw("Poll cycle failed", "channel_id", p.cfg.ChannelID, "error", err)
		}
	}()
}

// Cycle runs one fetch and process pass. It returns ErrCycleInProgress
// without doing anything when another cycle holds the flag.
func (p *Poller) Cycle(ctx context.Context) (stats Stats, err error) {
	if !p.running.CompareAndSwap(false, true) {
		return Stats{}, ErrCycleInProgress
	}
	defer p.running.Store(false)

	start := p.now()
	if p.cfg.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.CycleTimeout)
		defer cancel()
	}

	ctx = logging.WithChannelID(ctx, p.cfg.ChannelID)
	ctx, span := tracing.StartSpan(ctx, "poller.cycle", attribute.String("channel_id", p.cfg.ChannelID))
	defer func() {
		span.SetAttributes(
			attribute.Int("messages.fetched", stats.Fetched),
			attribute.Int("tickets.created", stats.Created),
		)
		tracing.EndSpan(span, err)

		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.ObservePollCycle(status, time.Since(start))

		now := p.now()
		p.lastRun.Store(&now)
		cycleErr := err
		p.lastErr.Store(&cycleErr)
	}()

	oldest, seeded := p.oldest(ctx)
	stats.Cursor = oldest
	if seeded {
		if err := p.save(ctx); err != nil {
			p.logger.WarnwCtx(ctx, "Failed to save backfill cursor", "error", err)
		}
	}

	batch, err := p.history.History(ctx, p.cfg.ChannelID, oldest, p.cfg.HistoryLimit)
	if err != nil {
		return stats, err
	}
	stats.Fetched = len(batch)
	if stats.Fetched == 0 {
		return stats, nil
	}

	var interrupted error
	for _, msg := range newerThan(batch, oldest) {
		if err := ctx.Err(); err != nil {
			interrupted = err
			break
		}

		p.rememberLast(msg)
		outcome := p.process(ctx, msg)
		if outcome == outcomeTicketFailed && ctx.Err() != nil {
			// The ticket was cut short, so the message stays ahead of the cursor.
			interrupted = ctx.Err()
			stats.Failed++
			break
		}

		p.state[p.cfg.ChannelID] = cursor.Cursor{LastTS: msg.TS}
		stats.Cursor = msg.TS
		stats.Processed++

		switch outcome {
		case outcomeTicketCreated:
			stats.Qualified++
			stats.Created++
		case outcomeTicketFailed:
			stats.Qualified++
			stats.Failed++
		}
	}

	if err := p.save(ctx); err != nil {
		return stats, apperrors.ErrInternal.WithMessage("failed to save cursor").WithCause(err)
	}

	if interrupted != nil {
		p.logger.WarnwCtx(ctx, "Poll cycle interrupted",
			"processed", stats.Processed,
			"cursor", stats.Cursor,
			"error", interrupted,
		)
		return stats, apperrors.ErrServiceUnavailable.WithMessage("poll cycle interrupted").WithCause(interrupted)
	}

	p.logger.InfowCtx(ctx, "Poll cycle finished",
		"fetched", stats.Fetched,
		"processed", stats.Processed,
		"created", stats.Created,
		"failed", stats.Failed,
		"cursor", stats.Cursor,
	)
	return stats, nil
}

// save persists the cursor even when the cycle context has expired.
func (p *Poller) save(ctx context.Context) error {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.CursorSaveTimeout)
	defer cancel()
	return p.store.Save(saveCtx, p.state)
}

// oldest loads the cursor on first use. A missing or unreadable cursor
// starts the channel at now minus the backfill window and reports that the
// cursor was seeded.
func (p *Poller) oldest(ctx context.Context) (string, bool) {
	if p.state == nil {
		state, err := p.store.Load(ctx)
		if err != nil {
			p.logger.WarnwCtx(ctx, "Cursor state unreadable, starting empty",
				"backend", p.store.Name(),
				"error", err,
			)
			state = cursor.State{}
		}
		if state == nil {
			state = cursor.State{}
		}
		p.state = state
	}

	if ts := p.state.LastTS(p.cfg.ChannelID); ts != "" {
		return ts, false
	}

	ts := formatTS(p.now().Add(-p.cfg.Backfill))
	p.state[p.cfg.ChannelID] = cursor.Cursor{LastTS: ts}
	p.logger.InfowCtx(ctx, "No cursor for channel, backfilling",
		"oldest", ts,
		"backfill", p.cfg.Backfill,
	)
	return ts, true
}

// newerThan keeps messages strictly after oldest, sorted ascending.
func newerThan(batch []message.RawMessage, oldest string) []message.RawMessage {
	out := make([]message.RawMessage, 0, len(batch))
	for _, m := range batch {
		if compareTS(m.TS, oldest) > 0 {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return compareTS(out[i].TS, out[j].TS) < 0
	})
	return out
}

// process handles one message and reports its outcome. It never fails the
// cycle: errors and panics are logged and counted.
func (p *Poller) process(ctx context.Context, msg message.RawMessage) (outcome string) {
	ctx = logging.WithMessageTS(ctx, msg.TS)

	defer func() {
		if r := recover(); r != nil {
			err := apperrors.RecoverPanic(r)
			p.logger.ErrorwCtx(ctx, "Panic recovered while processing message", "error", err)
			metrics.IncTicketFailed("panic")
			outcome = outcomeTicketFailed
		}
		metrics.IncMessageProcessed(outcome)
	}()

	if err := message.Validate(msg); err != nil {
		unknown := len(splitJoined(err))
		metrics.AddUnknownVariants(unknown)
		p.logger.DebugwCtx(ctx, "Message contains unknown variants", "count", unknown, "error", err)
	}

	text := message.Normalize(msg)
	decision, err := p.decider.Decide(ctx, p.cfg.ChannelID, msg, text)
	if err != nil {
		p.logger.WarnwCtx(ctx, "Suppression rule failed to evaluate", "error", err)
	}
	if !decision.Qualifies {
		if decision.Rule != "" {
			p.logger.InfowCtx(ctx, "Alert suppressed", "rule", decision.Rule)
		}
		return decision.Reason
	}

	permalink, err := p.history.Permalink(ctx, p.cfg.ChannelID, msg.TS)
	if err != nil {
		p.logger.DebugwCtx(ctx, "Permalink unavailable", "error", err)
		permalink = ""
	}

	result, err := p.tickets.Create(ctx, ticket.Request{
		Summary:       decision.Summary,
		Document:      document.Build(text, msg),
		PriorityLabel: decision.Severity,
		CategoryLabel: p.cfg.CategoryLabel,
	})
	if err != nil {
		p.logger.ErrorwCtx(ctx, "Failed to create ticket",
			"summary", decision.Summary,
			"error", err,
		)
		return outcomeTicketFailed
	}

	p.logger.InfowCtx(ctx, "Ticket created",
		"issue_key", result.Key,
		"priority", decision.Severity,
		"priority_mode", result.PriorityMode,
		"permalink", permalink,
	)

	event := broker.NewTicketCreated(p.cfg.ChannelID, msg.TS, result.Key, decision.Summary, decision.Severity, permalink)
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.WarnwCtx(ctx, "Failed to publish ticket event", "issue_key", result.Key, "error", err)
	}
	return outcomeTicketCreated
}

func (p *Poller) rememberLast(msg message.RawMessage) {
	raw := msg.Raw
	if len(raw) == 0 {
		encoded, err := json.Marshal(msg)
		if err != nil {
			return
		}
		raw = encoded
	}
	raw = append(json.RawMessage(nil), raw...)
	p.last.Store(&raw)
}

// LastMessage returns the raw payload of the most recently observed message.
func (p *Poller) LastMessage() (json.RawMessage, bool) {
	raw := p.last.Load()
	if raw == nil {
		return nil, false
	}
	return *raw, true
}

// HealthChecker reports degraded when the last cycle failed.
func (p *Poller) HealthChecker() health.Checker {
	return health.NewFuncChecker("poller", func(_ context.Context) error {
		errPtr := p.lastErr.Load()
		if errPtr == nil || *errPtr == nil {
			return nil
		}
		return &health.Degraded{Err: *errPtr}
	})
}

func splitJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
