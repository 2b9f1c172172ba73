package app

import (
	"context"
	"net/http"
	"strings"

	"complyhub/api/internal/search"
	"complyhub/api/internal/store"
	"complyhub/api/internal/util"
)

type ClientInput struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email"`
}

func (s *Service) ListClients(ctx context.Context, session Session) ([]map[string]any, error) {
	scope, visible := s.scopeClientID(session)
	if !visible {
		return []map[string]any{}, nil
	}
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(clients))
	for _, c := range clients {
		if scope != "" && c.ID != scope {
			continue
		}
		items = append(items, clientPayload(c))
	}
	return items, nil
}

func (s *Service) GetClient(ctx context.Context, session Session, clientID string) (map[string]any, error) {
	if !s.canSeeClient(session, clientID) {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Client not found", nil)
	}
	c, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return clientPayload(c), nil
}

func (s *Service) CreateClient(ctx context.Context, input ClientInput) (map[string]any, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}

	c := store.Client{
		ID:         util.NewID("cli"),
		Name:       name,
		Company:    strings.TrimSpace(input.Company),
		Email:      strings.TrimSpace(input.Email),
		JoinedDate: s.now(),
	}
	if err := s.store.InsertClient(ctx, c); err != nil {
		return nil, err
	}
	s.indexClient(c)
	return clientPayload(c), nil
}

func (s *Service) UpdateClient(ctx context.Context, clientID string, input ClientInput) (map[string]any, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	updated, err := s.store.UpdateClient(ctx, clientID, name, strings.TrimSpace(input.Company), strings.TrimSpace(input.Email))
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Client not found", nil)
	}
	c, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	s.indexClient(c)
	return clientPayload(c), nil
}

// DeleteClient removes the client and everything filed under it. The schema
// keeps clientId as a weak reference, so the cascade is explicit here rather
// than in the database.
func (s *Service) DeleteClient(ctx context.Context, clientID string) error {
	deleted, err := s.store.DeleteClient(ctx, clientID)
	if err != nil {
		return err
	}
	if !deleted {
		return domainError(http.StatusNotFound, "NOT_FOUND", "Client not found", nil)
	}
	if err := s.store.DeleteDocumentsByClient(ctx, clientID); err != nil {
		return err
	}
	if err := s.store.DeleteRequestsByClient(ctx, clientID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteClient(clientID)
	}
	return nil
}

// ClientDashboard is the per-client rollup: their requests and documents plus
// headline counts, the same numbers the client sees after logging in.
func (s *Service) ClientDashboard(ctx context.Context, session Session, clientID string) (map[string]any, error) {
	if !s.canSeeClient(session, clientID) {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Client not found", nil)
	}
	c, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	requests, err := s.store.ListRequests(ctx, clientID)
	if err != nil {
		return nil, err
	}
	documents, err := s.store.ListDocuments(ctx, clientID)
	if err != nil {
		return nil, err
	}

	pendingRequests := 0
	for _, r := range requests {
		if r.Status == store.StatusPending || r.Status == store.StatusClarificationNeeded {
			pendingRequests++
		}
	}
	approvedDocuments := 0
	for _, d := range documents {
		if d.Status == store.StatusApproved {
			approvedDocuments++
		}
	}

	requestItems := make([]map[string]any, 0, len(requests))
	for _, r := range requests {
		requestItems = append(requestItems, requestPayload(r))
	}
	documentItems := make([]map[string]any, 0, len(documents))
	for _, d := range documents {
		documentItems = append(documentItems, s.documentPayload(d))
	}

	return map[string]any{
		"client": clientPayload(c),
		"counts": map[string]any{
			"requests":          len(requests),
			"pendingRequests":   pendingRequests,
			"documents":         len(documents),
			"approvedDocuments": approvedDocuments,
		},
		"requests":  requestItems,
		"documents": documentItems,
	}, nil
}

func (s *Service) indexClient(c store.Client) {
	if s.search == nil {
		return
	}
	s.search.IndexClient(search.ClientRecord{
		ID:      c.ID,
		Name:    c.Name,
		Company: c.Company,
		Email:   c.Email,
	})
}
