package app

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"complyhub/api/internal/store"
	"complyhub/api/internal/util"
)

type PortalUploadInput struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	ExpiryDate    string `json:"expiryDate"`
	ContentBase64 string `json:"contentBase64"`
	ContentType   string `json:"contentType"`
}

type PortalCommentInput struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

func portalNotFound() *DomainError {
	return domainError(http.StatusNotFound, "NOT_FOUND", "Invalid or expired portal link", nil)
}

func (s *Service) portalRequest(ctx context.Context, token string) (store.DocumentRequest, error) {
	if strings.TrimSpace(token) == "" {
		return store.DocumentRequest{}, portalNotFound()
	}
	r, err := s.store.GetRequestByPortalToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.DocumentRequest{}, portalNotFound()
		}
		return store.DocumentRequest{}, err
	}
	return r, nil
}

// PortalView resolves a bearer portal token to the client-facing upload page
// data. The token is the whole credential; no session is involved.
func (s *Service) PortalView(ctx context.Context, token string) (map[string]any, error) {
	r, err := s.portalRequest(ctx, token)
	if err != nil {
		return nil, err
	}

	clientName := "Unknown"
	clientCompany := "Unknown"
	if client, err := s.store.GetClient(ctx, r.ClientID); err == nil {
		clientName = client.Name
		clientCompany = client.Company
	}

	templateName := "Document Request"
	if template, err := s.store.GetTemplate(ctx, r.ComplianceID); err == nil {
		templateName = template.Name
	}

	submitted, err := s.store.ListDocumentsByRequest(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	submittedByName := make(map[string]store.Document, len(submitted))
	for _, d := range submitted {
		submittedByName[d.Name] = d
	}

	checklist := make([]map[string]any, 0, len(r.Documents))
	for _, item := range r.Documents {
		entry := map[string]any{
			"id":        item.ID,
			"name":      item.Name,
			"submitted": false,
		}
		if d, ok := submittedByName[item.Name]; ok {
			entry["submitted"] = true
			entry["status"] = string(d.Status)
			entry["documentId"] = d.ID
		}
		checklist = append(checklist, entry)
	}

	thread := make([]map[string]any, 0, len(r.ClarificationThread))
	for _, comment := range r.ClarificationThread {
		thread = append(thread, commentPayload(comment))
	}

	return map[string]any{
		"requestId":           r.ID,
		"status":              string(r.Status),
		"dueDate":             dateString(r.DueDate),
		"complianceName":      templateName,
		"client":              map[string]any{"name": clientName, "company": clientCompany},
		"documents":           checklist,
		"clarificationThread": thread,
	}, nil
}

// PortalAddComment lets the client post into the clarification thread. Like
// every clarification comment, it forces the request into Clarification
// Needed.
func (s *Service) PortalAddComment(ctx context.Context, token string, input PortalCommentInput) (map[string]any, error) {
	r, err := s.portalRequest(ctx, token)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "text is required", nil)
	}

	author := strings.TrimSpace(input.Author)
	if author == "" {
		if client, err := s.store.GetClient(ctx, r.ClientID); err == nil {
			author = client.Name
		} else {
			author = "Client"
		}
	}

	comment := store.Comment{
		ID:        util.NewID("cmt"),
		RequestID: r.ID,
		Author:    author,
		Text:      text,
	}
	if err := s.store.AppendComment(ctx, comment); err != nil {
		return nil, err
	}

	r, err = s.store.GetRequest(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	s.reindexRequest(ctx, r)
	return requestPayload(r), nil
}

// PortalUpload simulates the client handing over a document: a Document is
// created as Received with version 1 already in the trail. An optional base64
// payload goes to object storage when that is configured; the record does not
// depend on it.
func (s *Service) PortalUpload(ctx context.Context, token string, input PortalUploadInput) (map[string]any, error) {
	r, err := s.portalRequest(ctx, token)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}

	var expiryDate *time.Time
	if raw := strings.TrimSpace(input.ExpiryDate); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "expiryDate must be YYYY-MM-DD", nil)
		}
		expiryDate = &parsed
	}

	clientName := ""
	if client, err := s.store.GetClient(ctx, r.ClientID); err == nil {
		clientName = client.Name
	}

	now := s.now()
	submitted := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	d := store.Document{
		ID:            util.NewID("doc"),
		Name:          name,
		ClientID:      r.ClientID,
		ComplianceID:  r.ComplianceID,
		RequestID:     r.ID,
		Status:        store.StatusReceived,
		Type:          normalizeDocumentType(input.Type),
		SubmittedDate: &submitted,
		ExpiryDate:    expiryDate,
		VersionHistory: []store.DocumentVersion{
			{
				Version:   1,
				Status:    store.StatusReceived,
				Notes:     "Initial submission by client.",
				UpdatedBy: clientName,
				UpdatedAt: now,
			},
		},
	}
	if err := s.store.InsertDocument(ctx, d); err != nil {
		return nil, err
	}

	if payload, err := base64.StdEncoding.DecodeString(input.ContentBase64); err == nil && len(payload) > 0 {
		s.drive.Store(ctx, clientName, r.ID, name, input.ContentType, payload)
	}

	s.indexDocument(ctx, d)
	return s.documentPayload(d), nil
}
