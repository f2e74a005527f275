package broker

import (
	"context"
	"time"

	"github.com/google/uuid"

	"alertbridge/internal/constants"
)

// Publisher emits ticket events. Implementations must be safe for use by a
// single poll loop; publish failures are never fatal to the caller.
type Publisher interface {
	Publish(ctx context.Context, event TicketEvent) error
	Close() error
}

type TicketEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	ChannelID string    `json:"channel_id"`
	MessageTS string    `json:"message_ts"`
	IssueKey  string    `json:"issue_key"`
	Summary   string    `json:"summary"`
	Priority  string    `json:"priority"`
	Permalink string    `json:"permalink,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTicketCreated stamps a fresh id and creation time on a ticket.created
// event.
func NewTicketCreated(channelID, messageTS, issueKey, summary, priority, permalink string) TicketEvent {
	return TicketEvent{
		ID:        uuid.NewString(),
		Type:      constants.EventTypeTicketCreated,
		ChannelID: channelID,
		MessageTS: messageTS,
		IssueKey:  issueKey,
		Summary:   summary,
		Priority:  priority,
		Permalink: permalink,
		CreatedAt: time.Now().UTC(),
	}
}
