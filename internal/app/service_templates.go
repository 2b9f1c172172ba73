package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"complyhub/api/internal/store"
	"complyhub/api/internal/util"
)

type TemplateDocumentInput struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type CreateTemplateInput struct {
	Name              string                  `json:"name"`
	Description       string                  `json:"description"`
	Frequency         string                  `json:"frequency"`
	DueDay            int                     `json:"dueDay"`
	DueMonthOffset    int                     `json:"dueMonthOffset"`
	AutoRecurrence    bool                    `json:"autoRecurrence"`
	RequiredDocuments []TemplateDocumentInput `json:"requiredDocuments"`
}

func (s *Service) ListTemplates(ctx context.Context) ([]map[string]any, error) {
	templates, err := s.store.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(templates))
	for _, t := range templates {
		items = append(items, templatePayload(t))
	}
	return items, nil
}

func (s *Service) GetTemplate(ctx context.Context, templateID string) (map[string]any, error) {
	t, err := s.store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return templatePayload(t), nil
}

func (s *Service) CreateTemplate(ctx context.Context, input CreateTemplateInput) (map[string]any, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}

	frequency := store.Frequency(input.Frequency)
	switch frequency {
	case store.FrequencyMonthly, store.FrequencyQuarterly, store.FrequencyAnnually, store.FrequencyOneTime:
	case "":
		frequency = store.FrequencyOneTime
	default:
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown frequency", map[string]any{"frequency": input.Frequency})
	}

	dueDay := input.DueDay
	if dueDay <= 0 {
		dueDay = 15
	}

	template := store.ComplianceTemplate{
		ID:             util.NewID("com"),
		Name:           name,
		Description:    strings.TrimSpace(input.Description),
		Frequency:      frequency,
		DueDay:         dueDay,
		DueMonthOffset: input.DueMonthOffset,
		AutoRecurrence: input.AutoRecurrence,
	}
	for i, doc := range input.RequiredDocuments {
		docName := strings.TrimSpace(doc.Name)
		if docName == "" {
			continue
		}
		template.RequiredDocuments = append(template.RequiredDocuments, store.RequiredDocument{
			ID:         util.NewID("tdoc"),
			TemplateID: template.ID,
			Name:       docName,
			Type:       normalizeDocumentType(doc.Type),
			Position:   i + 1,
		})
	}

	if err := s.store.InsertTemplate(ctx, template); err != nil {
		return nil, err
	}
	return templatePayload(template), nil
}

func (s *Service) DeleteTemplate(ctx context.Context, templateID string) error {
	deleted, err := s.store.DeleteTemplate(ctx, templateID)
	if err != nil {
		return err
	}
	if !deleted {
		return domainError(http.StatusNotFound, "NOT_FOUND", "Template not found", nil)
	}
	return nil
}

func (s *Service) AddTemplateDocument(ctx context.Context, templateID string, input TemplateDocumentInput) (map[string]any, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	if _, err := s.store.GetTemplate(ctx, templateID); err != nil {
		return nil, err
	}

	doc := store.RequiredDocument{
		ID:         util.NewID("tdoc"),
		TemplateID: templateID,
		Name:       name,
		Type:       normalizeDocumentType(input.Type),
	}
	if err := s.store.InsertRequiredDocument(ctx, doc); err != nil {
		return nil, err
	}

	template, err := s.store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return templatePayload(template), nil
}

func (s *Service) RemoveTemplateDocument(ctx context.Context, templateID, docID string) (map[string]any, error) {
	deleted, err := s.store.DeleteRequiredDocument(ctx, templateID, docID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Required document not found", nil)
	}

	template, err := s.store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return templatePayload(template), nil
}

func normalizeDocumentType(raw string) store.DocumentType {
	docType := store.DocumentType(raw)
	switch docType {
	case store.TypeIDProof, store.TypeFinancial, store.TypeLegal, store.TypeOperational,
		store.TypeGST, store.TypeTDS, store.TypeROC, store.TypeIT, store.TypeLicense, store.TypeOther:
		return docType
	default:
		return store.TypeOther
	}
}

// SuggestDueDate derives a due date from a template's rule. A zero month
// offset means "day days after the request" (the KYC-style rule); a positive
// offset means "the day-th of the month offset months out", clamped to the
// target month's length.
func SuggestDueDate(t store.ComplianceTemplate, requestDate time.Time) time.Time {
	if t.DueMonthOffset == 0 {
		return requestDate.AddDate(0, 0, t.DueDay)
	}
	year, month, _ := requestDate.Date()
	target := time.Date(year, month+time.Month(t.DueMonthOffset), 1, 0, 0, 0, 0, requestDate.Location())
	day := t.DueDay
	if last := daysInMonth(target); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, requestDate.Location())
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
