package services

import (
	"context"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/yukikurage/workload-dashboard/internal/cache"
	"github.com/yukikurage/workload-dashboard/internal/constants"
	apierrors "github.com/yukikurage/workload-dashboard/internal/errors"
	"github.com/yukikurage/workload-dashboard/internal/models"
	"github.com/yukikurage/workload-dashboard/internal/utils"
)

const (
	mentionCacheKey     = "wrike:planning-mention"
	mentionSearchToken  = "planning"
	defaultMentionLabel = "Planning"
)

// Mention is the contact tagged in cancellation comments
type Mention struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type cachedMention struct {
	Found   bool    `json:"found"`
	Mention Mention `json:"mention"`
}

// MentionResolver finds the planning contact. A configured contact id wins;
// otherwise contacts are searched for "planning" by first name, full name or
// email local part. Misses are cached too.
type MentionResolver struct {
	store     TaskStore
	cache     cache.Store
	ttl       time.Duration
	contactID string
	label     string
	logger    *slog.Logger
}

// NewMentionResolver creates a new MentionResolver
func NewMentionResolver(store TaskStore, c cache.Store, ttl time.Duration, contactID, label string, logger *slog.Logger) *MentionResolver {
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MentionResolver{
		store:     store,
		cache:     c,
		ttl:       ttl,
		contactID: strings.TrimSpace(contactID),
		label:     cleanMentionLabel(label),
		logger:    logger,
	}
}

// Resolve returns the planning mention or ErrMentionTargetNotFound
func (r *MentionResolver) Resolve(ctx context.Context) (Mention, error) {
	if r.contactID != "" {
		return Mention{ID: r.contactID, Label: r.label}, nil
	}

	cached, err := cache.GetOrRefresh(ctx, r.cache, mentionCacheKey, r.ttl, r.search)
	if err != nil && !cached.Found {
		return Mention{}, err
	}
	if err != nil {
		r.logger.Warn("planning mention cache write failed", "error", err)
	}
	if !cached.Found {
		return Mention{}, apierrors.ErrMentionTargetNotFound
	}
	return cached.Mention, nil
}

func (r *MentionResolver) search(ctx context.Context) (cachedMention, error) {
	contacts, err := r.store.ListContacts(ctx)
	if err != nil {
		return cachedMention{}, err
	}

	for _, c := range contacts {
		if !c.IsPerson() || !matchesPlanning(c) {
			continue
		}
		label := r.label
		if name := strings.TrimSpace(c.FirstName + " " + c.LastName); name != "" {
			label = cleanMentionLabel(name)
		}
		return cachedMention{Found: true, Mention: Mention{ID: c.ID, Label: label}}, nil
	}
	return cachedMention{Found: false}, nil
}

func matchesPlanning(c models.RawContact) bool {
	target := utils.NormalizePersonName(mentionSearchToken)
	first := utils.NormalizePersonName(c.FirstName)
	full := utils.NormalizePersonName(strings.TrimSpace(c.FirstName + " " + c.LastName))
	emailLocal, _, _ := strings.Cut(strings.ToLower(c.PrimaryEmail), "@")
	return first == target || full == target || emailLocal == target
}

func cleanMentionLabel(label string) string {
	label = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(label), "@"))
	if label == "" {
		return defaultMentionLabel
	}
	return label
}

// BuildMentionComment renders the HTML comment that tags the planning
// contact followed by the escaped reason. Line breaks become <br>.
func BuildMentionComment(reason string, m Mention) string {
	safeReason := html.EscapeString(reason)
	safeReason = strings.ReplaceAll(safeReason, "\r\n", "<br>")
	safeReason = strings.ReplaceAll(safeReason, "\n", "<br>")

	mention := `<a class="stream-user-id avatar" rel="` + html.EscapeString(m.ID) + `">@` +
		html.EscapeString(cleanMentionLabel(m.Label)) + `</a>`
	return strings.TrimSpace(mention + " " + safeReason)
}
