// Package ticket turns a classified alert into a Jira issue.
package ticket

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"alertbridge/internal/classifier"
	"alertbridge/internal/document"
	"alertbridge/internal/logger"
	"alertbridge/internal/tracker"
	apperrors "alertbridge/pkg/errors"
	"alertbridge/pkg/metrics"
	"alertbridge/pkg/tracing"
)

const (
	PriorityByID   = "id"
	PriorityByName = "name"
)

var invalidPriority = regexp.MustCompile(`(?i)inválid|invalid`)

type Request struct {
	Summary       string
	Document      document.Document
	PriorityLabel string
	CategoryLabel string
}

// Result describes a created issue.
type Result struct {
	Key string
	// PriorityMode is PriorityByName when the degraded retry was used.
	PriorityMode string
	PriorityID   string
	CategoryID   string
}

type IssueCreator interface {
	CreateIssue(ctx context.Context, req tracker.IssueRequest) (string, error)
}

type Metadata interface {
	EnsureLoaded(ctx context.Context) error
	ResolvePriorityID(label string) (string, bool)
	ResolveCategoryOptionID(label string) (string, bool)
	PriorityName(id string) (string, bool)
	PriorityNames() []string
	CategoryValues() []string
}

type Config struct {
	ProjectKey    string
	IssueType     string
	CategoryField string
	// PriorityID and CategoryID skip label resolution when set.
	PriorityID string
	CategoryID string
}

type Synthesizer struct {
	issues   IssueCreator
	metadata Metadata
	cfg      Config
	logger   logger.Logger
}

func NewSynthesizer(issues IssueCreator, md Metadata, cfg Config, log logger.Logger) *Synthesizer {
	return &Synthesizer{
		issues:   issues,
		metadata: md,
		cfg:      cfg,
		logger:   log,
	}
}

// CreateTicket submits req and returns the issue key.
func (s *Synthesizer) CreateTicket(ctx context.Context, req Request) (string, error) {
	result, err := s.Create(ctx, req)
	return result.Key, err
}

// Create resolves metadata and submits the issue. When Jira rejects the
// priority id as invalid the request is sent once more with the priority
// name.
func (s *Synthesizer) Create(ctx context.Context, req Request) (result Result, err error) {
	ctx, span := tracing.StartSpan(ctx, "ticket.create",
		attribute.String("jira.project", s.cfg.ProjectKey),
		attribute.String("priority.label", req.PriorityLabel),
	)
	defer func() {
		if err == nil {
			span.SetAttributes(attribute.String("jira.issue_key", result.Key))
		}
		tracing.EndSpan(span, err)
	}()

	priorityID, categoryID, err := s.resolve(ctx, req)
	if err != nil {
		metrics.IncTicketFailed("configuration")
		return Result{}, err
	}

	issue := tracker.IssueRequest{
		ProjectKey:    s.cfg.ProjectKey,
		IssueType:     s.cfg.IssueType,
		Summary:       classifier.Sanitize(req.Summary),
		Description:   req.Document,
		CategoryField: s.cfg.CategoryField,
		CategoryID:    categoryID,
		Priority:      tracker.PriorityRef{ID: priorityID},
	}

	result = Result{PriorityMode: PriorityByID, PriorityID: priorityID, CategoryID: categoryID}

	key, err := s.issues.CreateIssue(ctx, issue)
	if err != nil && isInvalidPriority(err) {
		name, ok := s.metadata.PriorityName(priorityID)
		if !ok {
			name = req.PriorityLabel
		}

		s.logger.WarnwCtx(ctx, "Priority id rejected, retrying by name",
			"priority_id", priorityID,
			"priority_name", name,
			"error", err,
		)

		issue.Priority = tracker.PriorityRef{Name: name}
		result.PriorityMode = PriorityByName
		key, err = s.issues.CreateIssue(ctx, issue)
	}

	if err != nil {
		metrics.IncTicketFailed("remote")
		if _, ok := apperrors.As(err); ok {
			return Result{}, err
		}
		return Result{}, apperrors.ErrRemote.WithMessage("failed to create issue").WithCause(err)
	}

	metrics.IncTicketCreated(result.PriorityMode)
	result.Key = key
	return result, nil
}

func (s *Synthesizer) resolve(ctx context.Context, req Request) (string, string, error) {
	priorityID := strings.TrimSpace(s.cfg.PriorityID)
	categoryID := strings.TrimSpace(s.cfg.CategoryID)

	if err := s.metadata.EnsureLoaded(ctx); err != nil {
		if priorityID == "" || categoryID == "" {
			return "", "", err
		}
		s.logger.WarnwCtx(ctx, "Tracker metadata unavailable, using configured ids", "error", err)
	}

	if priorityID == "" {
		id, ok := s.metadata.ResolvePriorityID(req.PriorityLabel)
		if !ok {
			return "", "", apperrors.ErrConfiguration.
				WithMessage(fmt.Sprintf("invalid priority %q; available: %s", req.PriorityLabel, listOrNone(s.metadata.PriorityNames()))).
				WithDetail("priority", req.PriorityLabel)
		}
		priorityID = id
	}

	if categoryID == "" {
		id, ok := s.metadata.ResolveCategoryOptionID(req.CategoryLabel)
		if !ok {
			return "", "", apperrors.ErrConfiguration.
				WithMessage(fmt.Sprintf("invalid category %q for %s; available: %s", req.CategoryLabel, s.cfg.CategoryField, listOrNone(s.metadata.CategoryValues()))).
				WithDetail("category", req.CategoryLabel)
		}
		categoryID = id
	}

	return priorityID, categoryID, nil
}

// isInvalidPriority reports whether Jira rejected the request because of
// the priority: its field error, or else its first message, says invalid.
func isInvalidPriority(err error) bool {
	apiErr, ok := tracker.AsAPIError(err)
	if !ok {
		return false
	}
	return invalidPriority.MatchString(apiErr.FieldError("priority"))
}

func listOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
