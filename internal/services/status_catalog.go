package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/yukikurage/workload-dashboard/internal/cache"
	"github.com/yukikurage/workload-dashboard/internal/constants"
	"github.com/yukikurage/workload-dashboard/internal/normalizer"
)

const statusCacheKey = "wrike:workflow-statuses"

// StatusCatalog resolves custom workflow status ids to names. The map is
// refreshed from the remote store at most once per TTL.
type StatusCatalog struct {
	store  TaskStore
	cache  cache.Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewStatusCatalog creates a new StatusCatalog
func NewStatusCatalog(store TaskStore, c cache.Store, ttl time.Duration, logger *slog.Logger) *StatusCatalog {
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusCatalog{store: store, cache: c, ttl: ttl, logger: logger}
}

// Labels returns the current status map. When the refresh fails the map is
// empty and task labels fall back to their raw status.
func (s *StatusCatalog) Labels(ctx context.Context) normalizer.StatusMap {
	labels, err := cache.GetOrRefresh(ctx, s.cache, statusCacheKey, s.ttl, s.refresh)
	if err != nil {
		s.logger.Warn("workflow status refresh failed", "error", err)
	}
	if labels == nil {
		return normalizer.StatusMap{}
	}
	return labels
}

func (s *StatusCatalog) refresh(ctx context.Context) (normalizer.StatusMap, error) {
	workflows, err := s.store.ListWorkflows(ctx)
	if err != nil {
		return nil, err
	}
	labels := normalizer.StatusMap{}
	for _, wf := range workflows {
		for _, status := range wf.CustomStatuses {
			if status.ID != "" && status.Name != "" {
				labels[status.ID] = status.Name
			}
		}
	}
	return labels, nil
}
