package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"complyhub/api/internal/email"
	"complyhub/api/internal/search"
	"complyhub/api/internal/store"
	"complyhub/api/internal/util"
)

type CreateRequestInput struct {
	ClientID     string `json:"clientId"`
	ComplianceID string `json:"complianceId"`
	DueDate      string `json:"dueDate"`
}

func (s *Service) ListRequests(ctx context.Context, session Session) ([]map[string]any, error) {
	scope, visible := s.scopeClientID(session)
	if !visible {
		return []map[string]any{}, nil
	}
	requests, err := s.store.ListRequests(ctx, scope)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(requests))
	for _, r := range requests {
		items = append(items, requestPayload(r))
	}
	return items, nil
}

func (s *Service) GetRequest(ctx context.Context, session Session, requestID string) (map[string]any, error) {
	r, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !s.canSeeClient(session, r.ClientID) {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Request not found", nil)
	}
	return requestPayload(r), nil
}

// CreateRequest instantiates a template for a client: the checklist is copied
// with fresh ids, so later template edits never touch this request. The due
// date defaults to the template's rule when the caller leaves it blank.
func (s *Service) CreateRequest(ctx context.Context, input CreateRequestInput) (map[string]any, error) {
	if strings.TrimSpace(input.ClientID) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "clientId is required", nil)
	}
	if strings.TrimSpace(input.ComplianceID) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "complianceId is required", nil)
	}

	client, err := s.store.GetClient(ctx, input.ClientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown client", map[string]any{"clientId": input.ClientID})
		}
		return nil, err
	}

	template, err := s.store.GetTemplate(ctx, input.ComplianceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown template", map[string]any{"complianceId": input.ComplianceID})
		}
		return nil, err
	}

	requestDate := s.now()
	dueDate := SuggestDueDate(template, requestDate)
	if raw := strings.TrimSpace(input.DueDate); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "dueDate must be YYYY-MM-DD", nil)
		}
		dueDate = parsed
	}

	token, err := s.freshPortalToken(ctx)
	if err != nil {
		return nil, err
	}

	request := store.DocumentRequest{
		ID:           util.NewID("req"),
		ClientID:     client.ID,
		ComplianceID: template.ID,
		Status:       store.StatusPending,
		RequestDate:  requestDate,
		DueDate:      dueDate,
		PortalToken:  token,
	}
	for i, doc := range template.RequiredDocuments {
		request.Documents = append(request.Documents, store.ChecklistItem{
			ID:        util.NewID("chk"),
			RequestID: request.ID,
			Name:      doc.Name,
			Position:  i + 1,
		})
	}

	if err := s.store.InsertRequest(ctx, request); err != nil {
		return nil, err
	}
	s.indexRequest(request, client.Name, template.Name)
	return requestPayload(request), nil
}

func (s *Service) freshPortalToken(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		token := util.NewToken()
		exists, err := s.store.PortalTokenExists(ctx, token)
		if err != nil {
			return "", err
		}
		if !exists {
			return token, nil
		}
	}
	return "", fmt.Errorf("portal token collision")
}

func (s *Service) DeleteRequest(ctx context.Context, requestID string) error {
	deleted, err := s.store.DeleteRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if !deleted {
		return domainError(http.StatusNotFound, "NOT_FOUND", "Request not found", nil)
	}
	if s.search != nil {
		s.search.DeleteRequest(requestID)
	}
	return nil
}

// UpdateRequestStatus is an explicit staff action. Any valid status is
// accepted from any prior status; request status is never derived from the
// outcomes of its documents.
func (s *Service) UpdateRequestStatus(ctx context.Context, requestID string, status store.DocumentStatus) (map[string]any, error) {
	if !status.Valid() {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown status", map[string]any{"status": string(status)})
	}
	updated, err := s.store.UpdateRequestStatus(ctx, requestID, status)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Request not found", nil)
	}
	r, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	s.reindexRequest(ctx, r)
	return requestPayload(r), nil
}

// AddComment appends to the clarification thread and forces the request into
// Clarification Needed. Comments are immutable once written.
func (s *Service) AddComment(ctx context.Context, session Session, requestID, text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "text is required", nil)
	}

	r, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !s.canSeeClient(session, r.ClientID) {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Request not found", nil)
	}

	comment := store.Comment{
		ID:        util.NewID("cmt"),
		RequestID: requestID,
		Author:    session.UserName,
		Text:      text,
	}
	if err := s.store.AppendComment(ctx, comment); err != nil {
		return nil, err
	}

	r, err = s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	s.reindexRequest(ctx, r)
	return requestPayload(r), nil
}

// PortalLink builds the shareable upload URL for a request.
func (s *Service) PortalLink(ctx context.Context, requestID string) (map[string]any, error) {
	r, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"requestId": r.ID,
		"url":       fmt.Sprintf("%s?portal_token=%s", s.cfg.PortalBaseURL, r.PortalToken),
	}, nil
}

// Remind sends the client an email about an outstanding request. When SMTP is
// not configured the reminder is reported as sent with stubbed=true, matching
// how a dev setup behaves.
func (s *Service) Remind(ctx context.Context, requestID string) (map[string]any, error) {
	r, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	clientName := "Unknown"
	clientEmail := ""
	if client, err := s.store.GetClient(ctx, r.ClientID); err == nil {
		clientName = client.Name
		clientEmail = client.Email
	}
	templateName := "Document Request"
	if template, err := s.store.GetTemplate(ctx, r.ComplianceID); err == nil {
		templateName = template.Name
	}

	if !s.SMTPConfigured() {
		return map[string]any{"sent": true, "stubbed": true, "requestId": r.ID}, nil
	}
	if clientEmail == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "client has no email address", nil)
	}

	checklist := make([]string, 0, len(r.Documents))
	for _, item := range r.Documents {
		checklist = append(checklist, item.Name)
	}
	err = s.email.SendReminderEmail(clientEmail, email.ReminderData{
		ClientName:   clientName,
		TemplateName: templateName,
		DueDate:      dateString(r.DueDate),
		PortalURL:    fmt.Sprintf("%s?portal_token=%s", s.cfg.PortalBaseURL, r.PortalToken),
		Checklist:    checklist,
	})
	if err != nil {
		return nil, domainError(http.StatusBadGateway, "EMAIL_FAILED", "Reminder could not be sent", map[string]any{"reason": err.Error()})
	}
	return map[string]any{"sent": true, "stubbed": false, "requestId": r.ID}, nil
}

func (s *Service) indexRequest(r store.DocumentRequest, clientName, templateName string) {
	if s.search == nil {
		return
	}
	s.search.IndexRequest(search.RequestRecord{
		ID:           r.ID,
		ClientID:     r.ClientID,
		ClientName:   clientName,
		TemplateName: templateName,
		Status:       string(r.Status),
		DueDate:      dateString(r.DueDate),
	})
}

func (s *Service) reindexRequest(ctx context.Context, r store.DocumentRequest) {
	if s.search == nil {
		return
	}
	clientName := ""
	if client, err := s.store.GetClient(ctx, r.ClientID); err == nil {
		clientName = client.Name
	}
	templateName := ""
	if template, err := s.store.GetTemplate(ctx, r.ComplianceID); err == nil {
		templateName = template.Name
	}
	s.indexRequest(r, clientName, templateName)
}
