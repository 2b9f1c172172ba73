package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"complyhub/api/internal/drive"
	"complyhub/api/internal/search"
	"complyhub/api/internal/store"
	"complyhub/api/internal/util"
)

type CreateDocumentInput struct {
	Name         string `json:"name"`
	ClientID     string `json:"clientId"`
	ComplianceID string `json:"complianceId"`
	RequestID    string `json:"requestId"`
	Type         string `json:"type"`
	ExpiryDate   string `json:"expiryDate"`
}

type TransitionInput struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (s *Service) ListDocuments(ctx context.Context, session Session) ([]map[string]any, error) {
	scope, visible := s.scopeClientID(session)
	if !visible {
		return []map[string]any{}, nil
	}
	documents, err := s.store.ListDocuments(ctx, scope)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(documents))
	for _, d := range documents {
		items = append(items, s.documentPayload(d))
	}
	return items, nil
}

func (s *Service) GetDocument(ctx context.Context, session Session, documentID string) (map[string]any, error) {
	d, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !s.canSeeClient(session, d.ClientID) {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Document not found", nil)
	}
	return s.documentPayload(d), nil
}

func (s *Service) DocumentHistory(ctx context.Context, session Session, documentID string) ([]map[string]any, error) {
	d, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !s.canSeeClient(session, d.ClientID) {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Document not found", nil)
	}
	versions := make([]map[string]any, 0, len(d.VersionHistory))
	for _, version := range d.VersionHistory {
		versions = append(versions, versionPayload(version))
	}
	return versions, nil
}

// CreateDocument registers a document a staff member expects or received out
// of band. It starts Pending with an empty version history; the audit trail
// begins with the first transition.
func (s *Service) CreateDocument(ctx context.Context, input CreateDocumentInput) (map[string]any, error) {
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

	d := store.Document{
		ID:           util.NewID("doc"),
		Name:         name,
		ClientID:     strings.TrimSpace(input.ClientID),
		ComplianceID: strings.TrimSpace(input.ComplianceID),
		RequestID:    strings.TrimSpace(input.RequestID),
		Status:       store.StatusPending,
		Type:         normalizeDocumentType(input.Type),
		ExpiryDate:   expiryDate,
	}
	if err := s.store.InsertDocument(ctx, d); err != nil {
		return nil, err
	}
	s.indexDocument(ctx, d)
	return s.documentPayload(d), nil
}

// TransitionDocument moves a document to a new status and appends the audit
// entry in the same transaction. Approving computes the drive link from the
// owning client's name; rejecting records the notes as the rejection reason.
// A stale rejection reason survives re-approval on purpose: it documents what
// was once wrong with the submission.
func (s *Service) TransitionDocument(ctx context.Context, session Session, documentID string, input TransitionInput) (map[string]any, error) {
	status := store.DocumentStatus(input.Status)
	if !status.Valid() {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown status", map[string]any{"status": input.Status})
	}

	d, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	driveLink := ""
	if status == store.StatusApproved {
		clientName := ""
		if client, err := s.store.GetClient(ctx, d.ClientID); err == nil {
			clientName = client.Name
		}
		driveLink = drive.Link(clientName, d.RequestID, d.Name)
	}

	if _, err := s.store.TransitionDocument(ctx, documentID, status, input.Notes, session.UserName, driveLink); err != nil {
		return nil, err
	}

	d, err = s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	s.indexDocument(ctx, d)
	return s.documentPayload(d), nil
}

func (s *Service) indexDocument(ctx context.Context, d store.Document) {
	if s.search == nil {
		return
	}
	clientName := ""
	if client, err := s.store.GetClient(ctx, d.ClientID); err == nil {
		clientName = client.Name
	}
	s.search.IndexDocument(search.DocumentRecord{
		ID:         d.ID,
		Name:       d.Name,
		Type:       string(d.Type),
		Status:     string(d.Status),
		ClientID:   d.ClientID,
		ClientName: clientName,
	})
}

// StatusDescriptor drives badge rendering in clients of the API. Label always
// equals the wire value; Color matches the dashboard palette.
type StatusDescriptor struct {
	Status store.DocumentStatus `json:"status"`
	Label  string               `json:"label"`
	Color  string               `json:"color"`
}

// StatusDescriptors returns one descriptor per status. Total by construction;
// the exhaustiveness test keeps it that way when statuses are added.
func StatusDescriptors() []StatusDescriptor {
	return []StatusDescriptor{
		{Status: store.StatusPending, Label: string(store.StatusPending), Color: "yellow"},
		{Status: store.StatusReceived, Label: string(store.StatusReceived), Color: "blue"},
		{Status: store.StatusUnderReview, Label: string(store.StatusUnderReview), Color: "purple"},
		{Status: store.StatusApproved, Label: string(store.StatusApproved), Color: "green"},
		{Status: store.StatusRejected, Label: string(store.StatusRejected), Color: "red"},
		{Status: store.StatusClarificationNeeded, Label: string(store.StatusClarificationNeeded), Color: "gray"},
	}
}
