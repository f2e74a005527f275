// Package metadata loads and caches the Jira priorities and category
// options a ticket can use, and resolves human labels to their ids.
package metadata

import (
	"context"
	"strings"
	"sync"

	"alertbridge/internal/logger"
	"alertbridge/internal/tracker"
	apperrors "alertbridge/pkg/errors"
	"alertbridge/pkg/metrics"
)

type Priority struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CategoryOption struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// Snapshot is a copy of the cache contents.
type Snapshot struct {
	Priorities      []Priority       `json:"priorities"`
	CategoryOptions []CategoryOption `json:"assuntoOptions"`
}

// Source is the part of the Jira client the resolver needs.
type Source interface {
	CreateMetaFields(ctx context.Context, projectKey, issueType string) (tracker.Fields, error)
	Priorities(ctx context.Context) ([]tracker.Priority, error)
}

// Cache holds metadata loaded at most once until Invalidate.
type Cache struct {
	mu         sync.Mutex
	loaded     bool
	priorities []Priority
	options    []CategoryOption
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.priorities = nil
	c.options = nil
}

type Config struct {
	ProjectKey    string
	IssueType     string
	CategoryField string
}

type Resolver struct {
	source Source
	cfg    Config
	cache  *Cache
	logger logger.Logger
}

func NewResolver(source Source, cfg Config, log logger.Logger) *Resolver {
	return &Resolver{
		source: source,
		cfg:    cfg,
		cache:  &Cache{},
		logger: log,
	}
}

// Cache exposes the resolver's cache.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// EnsureLoaded fills the cache on first use. When the project schema lists
// no priorities the global list is used; if that fails too nothing is cached
// and the next call tries again. A schema failure leaves category options
// empty.
func (r *Resolver) EnsureLoaded(ctx context.Context) error {
	r.cache.mu.Lock()
	defer r.cache.mu.Unlock()

	if r.cache.loaded {
		return nil
	}

	fields, metaErr := r.source.CreateMetaFields(ctx, r.cfg.ProjectKey, r.cfg.IssueType)
	if metaErr != nil {
		r.logger.WarnwCtx(ctx, "Failed to fetch create-meta schema",
			"project", r.cfg.ProjectKey,
			"issue_type", r.cfg.IssueType,
			"error", metaErr,
		)
	}

	var priorities []Priority
	if metaErr == nil {
		for _, v := range fields["priority"].AllowedValues {
			priorities = append(priorities, Priority{ID: v.ID, Name: v.Name})
		}
	}

	if len(priorities) == 0 {
		metrics.IncMetadataFallback("global_priorities")
		global, err := r.source.Priorities(ctx)
		if err != nil {
			if _, ok := apperrors.As(err); ok {
				return err
			}
			return apperrors.ErrRemote.WithMessage("failed to load priorities").WithCause(err)
		}
		for _, p := range global {
			priorities = append(priorities, Priority{ID: p.ID, Name: p.Name})
		}
	}

	options := []CategoryOption{}
	if metaErr != nil {
		metrics.IncMetadataFallback("empty_categories")
	} else {
		for _, v := range fields[r.cfg.CategoryField].AllowedValues {
			options = append(options, CategoryOption{ID: v.ID, Value: v.Value})
		}
	}

	if priorities == nil {
		priorities = []Priority{}
	}

	r.cache.priorities = priorities
	r.cache.options = options
	r.cache.loaded = true

	r.logger.InfowCtx(ctx, "Loaded tracker metadata",
		"priorities", len(priorities),
		"category_options", len(options),
	)
	return nil
}

func (r *Resolver) Snapshot() Snapshot {
	r.cache.mu.Lock()
	defer r.cache.mu.Unlock()

	return Snapshot{
		Priorities:      append([]Priority{}, r.cache.priorities...),
		CategoryOptions: append([]CategoryOption{}, r.cache.options...),
	}
}

// ResolvePriorityID matches label against cached priority names: exact,
// then through the synonym table, then by substring.
func (r *Resolver) ResolvePriorityID(label string) (string, bool) {
	input := Normalize(label)
	if input == "" {
		return "", false
	}

	r.cache.mu.Lock()
	defer r.cache.mu.Unlock()

	for _, p := range r.cache.priorities {
		if Normalize(p.Name) == input {
			return p.ID, true
		}
	}

	if canonical, ok := prioritySynonyms[input]; ok {
		for _, p := range r.cache.priorities {
			if Normalize(p.Name) == canonical {
				return p.ID, true
			}
		}
	}

	for _, p := range r.cache.priorities {
		if strings.Contains(Normalize(p.Name), input) {
			return p.ID, true
		}
	}

	return "", false
}

// ResolveCategoryOptionID matches label exactly after normalization.
func (r *Resolver) ResolveCategoryOptionID(label string) (string, bool) {
	target := Normalize(label)

	r.cache.mu.Lock()
	defer r.cache.mu.Unlock()

	for _, o := range r.cache.options {
		if Normalize(o.Value) == target {
			return o.ID, true
		}
	}
	return "", false
}

func (r *Resolver) PriorityName(id string) (string, bool) {
	r.cache.mu.Lock()
	defer r.cache.mu.Unlock()

	for _, p := range r.cache.priorities {
		if p.ID == id {
			return p.Name, true
		}
	}
	return "", false
}

func (r *Resolver) PriorityNames() []string {
	snap := r.Snapshot()
	names := make([]string, len(snap.Priorities))
	for i, p := range snap.Priorities {
		names[i] = p.Name
	}
	return names
}

func (r *Resolver) CategoryValues() []string {
	snap := r.Snapshot()
	values := make([]string, len(snap.CategoryOptions))
	for i, o := range snap.CategoryOptions {
		values[i] = o.Value
	}
	return values
}
