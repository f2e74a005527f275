// Package slack reads channel history through the Slack Web API.
package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/slack-go/slack"
	"golang.org/x/time/rate"

	"alertbridge/internal/config"
	"alertbridge/internal/logger"
	"alertbridge/internal/message"
	apperrors "alertbridge/pkg/errors"
	"alertbridge/pkg/metrics"
	"alertbridge/pkg/retry"
)

// Client wraps the Slack API with rate limiting and retries.
type Client struct {
	api     *slack.Client
	limiter *rate.Limiter
	policy  retry.Policy
	logger  logger.Logger
}

func NewClient(cfg config.SlackConfig, log logger.Logger) *Client {
	opts := []slack.Option{}
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}

	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		api:     slack.New(cfg.Token, opts...),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst),
		policy: retry.Policy{
			MaxAttempts:     cfg.Retry.MaxAttempts,
			InitialInterval: cfg.Retry.InitialInterval,
			MaxInterval:     cfg.Retry.MaxInterval,
			Multiplier:      cfg.Retry.Multiplier,
			MaxElapsedTime:  cfg.Retry.MaxElapsedTime,
		},
		logger: log,
	}
}

// History returns up to limit messages newer than oldest, in the order the
// API returned them.
func (c *Client) History(ctx context.Context, channelID, oldest string, limit int) ([]message.RawMessage, error) {
	params := slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Oldest:    oldest,
		Inclusive: false,
		Limit:     limit,
	}

	var history *slack.GetConversationHistoryResponse
	err := retry.RetryWithCallback(ctx, c.policy, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.NewFatalError(fmt.Errorf("rate limiter: %w", err))
		}

		start := time.Now()
		resp, err := c.api.GetConversationHistoryContext(ctx, &params)
		metrics.ObserveRemoteRequest("slack", "conversations.history", resultLabel(err), time.Since(start))
		if err != nil {
			return classify(err)
		}
		history = resp
		return nil
	}, func(attempt int, err error, next time.Duration) {
		metrics.IncRetryAttempt("slack", "conversations.history")
		c.logger.WarnwCtx(ctx, "Retrying channel history fetch",
			"channel_id", channelID,
			"attempt", attempt,
			"next_delay", next,
			"error", err,
		)
	})
	if err != nil {
		return nil, apperrors.ErrRemote.
			WithMessage("failed to fetch channel history").
			WithCause(err).
			WithDetail("channel_id", channelID)
	}

	out := make([]message.RawMessage, 0, len(history.Messages))
	for i := range history.Messages {
		msg, err := convert(history.Messages[i])
		if err != nil {
			c.logger.WarnwCtx(ctx, "Dropping undecodable message",
				"channel_id", channelID,
				"message_ts", history.Messages[i].Timestamp,
				"error", err,
			)
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// Permalink looks up a message link. It is not retried.
func (c *Client) Permalink(ctx context.Context, channelID, ts string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	link, err := c.api.GetPermalinkContext(ctx, &slack.PermalinkParameters{Channel: channelID, Ts: ts})
	metrics.ObserveRemoteRequest("slack", "chat.getPermalink", resultLabel(err), time.Since(start))
	if err != nil {
		return "", apperrors.ErrRemote.WithMessage("failed to fetch permalink").WithCause(err)
	}
	return link, nil
}

// convert re-decodes a slack-go message from its wire form so the message
// package owns the variant decoding.
func convert(m slack.Message) (message.RawMessage, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return message.RawMessage{}, err
	}
	var msg message.RawMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return message.RawMessage{}, err
	}
	return msg, nil
}

// classify marks API-level errors (ok=false, 4xx) as fatal and leaves
// throttling, 5xx and transport errors retryable.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.NewFatalError(err)
	}

	var rateLimited *slack.RateLimitedError
	if errors.As(err, &rateLimited) {
		return retry.NewRetryableError(err)
	}

	var statusErr slack.StatusCodeError
	if errors.As(err, &statusErr) {
		if statusErr.Code >= http.StatusInternalServerError || statusErr.Code == http.StatusTooManyRequests {
			return retry.NewRetryableError(err)
		}
		return retry.NewFatalError(err)
	}

	var apiErr slack.SlackErrorResponse
	if errors.As(err, &apiErr) {
		return retry.NewFatalError(err)
	}

	return retry.NewRetryableError(err)
}

func resultLabel(err error) string {
	if err == nil {
		return strconv.Itoa(http.StatusOK)
	}
	return "error"
}
