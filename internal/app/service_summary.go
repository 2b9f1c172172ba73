package app

import (
	"context"
	"net/http"
	"strings"

	"complyhub/api/internal/expiry"
	"complyhub/api/internal/rbac"
	"complyhub/api/internal/search"
	"complyhub/api/internal/store"
	"complyhub/api/internal/util"
)

// Summary is the dashboard rollup. Everything in it respects the session's
// visibility scope, so a client sees only their own numbers.
func (s *Service) Summary(ctx context.Context, session Session) (map[string]any, error) {
	scope, visible := s.scopeClientID(session)
	if !visible {
		return emptySummary(), nil
	}

	templates, err := s.store.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	requests, err := s.store.ListRequests(ctx, scope)
	if err != nil {
		return nil, err
	}
	documents, err := s.store.ListDocuments(ctx, scope)
	if err != nil {
		return nil, err
	}
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	clientCount := len(clients)
	if scope != "" {
		clientCount = 0
		for _, c := range clients {
			if c.ID == scope {
				clientCount++
			}
		}
	}

	pendingRequests := 0
	for _, r := range requests {
		if r.Status == store.StatusPending || r.Status == store.StatusClarificationNeeded {
			pendingRequests++
		}
	}

	statusBreakdown := make(map[string]int, len(store.AllStatuses()))
	for _, status := range store.AllStatuses() {
		statusBreakdown[string(status)] = 0
	}
	underReview := 0
	now := s.now()
	expiringSoon := make([]map[string]any, 0)
	for _, d := range documents {
		statusBreakdown[string(d.Status)]++
		if d.Status == store.StatusUnderReview {
			underReview++
		}
		if expiry.Classify(d.ExpiryDate, now) == expiry.ExpiringSoon {
			expiringSoon = append(expiringSoon, map[string]any{
				"id":         d.ID,
				"name":       d.Name,
				"clientId":   d.ClientID,
				"expiryDate": optionalDateString(d.ExpiryDate),
				"daysLeft":   expiry.DaysUntil(*d.ExpiryDate, now),
			})
		}
	}

	recent := documents
	if len(recent) > 5 {
		recent = recent[:5]
	}
	recentItems := make([]map[string]any, 0, len(recent))
	for _, d := range recent {
		recentItems = append(recentItems, s.documentPayload(d))
	}

	return map[string]any{
		"templates":            len(templates),
		"pendingRequests":      pendingRequests,
		"documentsUnderReview": underReview,
		"activeClients":        clientCount,
		"statusBreakdown":      statusBreakdown,
		"recentDocuments":      recentItems,
		"expiringSoon":         expiringSoon,
	}, nil
}

func emptySummary() map[string]any {
	statusBreakdown := make(map[string]int, len(store.AllStatuses()))
	for _, status := range store.AllStatuses() {
		statusBreakdown[string(status)] = 0
	}
	return map[string]any{
		"templates":            0,
		"pendingRequests":      0,
		"documentsUnderReview": 0,
		"activeClients":        0,
		"statusBreakdown":      statusBreakdown,
		"recentDocuments":      []map[string]any{},
		"expiringSoon":         []map[string]any{},
	}
}

// Notifications counts documents in the expiring-soon window. Documents that
// are already expired do not count; the badge nudges about what can still be
// renewed in time.
func (s *Service) Notifications(ctx context.Context, session Session) (map[string]any, error) {
	scope, visible := s.scopeClientID(session)
	if !visible {
		return map[string]any{"expiringSoon": 0, "documents": []map[string]any{}}, nil
	}
	documents, err := s.store.ListDocuments(ctx, scope)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]map[string]any, 0)
	for _, d := range documents {
		if expiry.Classify(d.ExpiryDate, now) != expiry.ExpiringSoon {
			continue
		}
		items = append(items, map[string]any{
			"id":         d.ID,
			"name":       d.Name,
			"clientId":   d.ClientID,
			"expiryDate": optionalDateString(d.ExpiryDate),
			"daysLeft":   expiry.DaysUntil(*d.ExpiryDate, now),
		})
	}
	return map[string]any{"expiringSoon": len(items), "documents": items}, nil
}

// Search runs the global search, scoped to the session's client when the
// session belongs to a Client login.
func (s *Service) Search(ctx context.Context, session Session, text, filterType string, limit, offset int) (search.Response, error) {
	scope, visible := s.scopeClientID(session)
	if !visible || s.search == nil {
		return search.Response{Results: []search.Result{}, Total: 0, Query: text}, nil
	}
	return s.search.Search(search.Query{
		Text:       text,
		FilterType: search.ResultType(filterType),
		ClientID:   scope,
		Limit:      limit,
		Offset:     offset,
	}), nil
}

// ---- saved views ----

type SavedViewInput struct {
	Name    string         `json:"name"`
	Filters map[string]any `json:"filters"`
}

func (s *Service) ListSavedViews(ctx context.Context, session Session) ([]map[string]any, error) {
	views, err := s.store.ListSavedViews(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(views))
	for _, view := range views {
		items = append(items, savedViewPayload(view))
	}
	return items, nil
}

func (s *Service) CreateSavedView(ctx context.Context, session Session, input SavedViewInput) (map[string]any, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	view := store.SavedView{
		ID:      util.NewID("view"),
		UserID:  session.UserID,
		Name:    name,
		Filters: input.Filters,
	}
	if view.Filters == nil {
		view.Filters = map[string]any{}
	}
	if err := s.store.InsertSavedView(ctx, view); err != nil {
		return nil, err
	}
	return savedViewPayload(view), nil
}

func (s *Service) DeleteSavedView(ctx context.Context, session Session, viewID string) error {
	deleted, err := s.store.DeleteSavedView(ctx, session.UserID, viewID)
	if err != nil {
		return err
	}
	if !deleted {
		return domainError(http.StatusNotFound, "NOT_FOUND", "Saved view not found", nil)
	}
	return nil
}

func savedViewPayload(view store.SavedView) map[string]any {
	return map[string]any{
		"id":      view.ID,
		"name":    view.Name,
		"filters": view.Filters,
	}
}

// ReindexSearch refreshes the external search index from Postgres. Admin only.
func (s *Service) ReindexSearch(ctx context.Context, session Session) error {
	if !rbac.Can(rbac.Normalize(session.Role), rbac.ActionAdmin) {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	if s.search != nil {
		s.search.ReindexAllFromPG(ctx)
	}
	return nil
}
