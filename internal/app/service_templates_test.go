package app

import (
	"context"
	"testing"
	"time"

	"complyhub/api/internal/store"
)

func TestSuggestDueDate(t *testing.T) {
	cases := []struct {
		name        string
		dueDay      int
		monthOffset int
		requestDate string
		want        string
	}{
		{"zero offset counts days from request", 15, 0, "2024-06-01", "2024-06-16"},
		{"zero offset across month boundary", 20, 0, "2024-06-25", "2024-07-15"},
		{"monthly rule next month", 20, 1, "2024-06-10", "2024-07-20"},
		{"annual rule fixed month", 31, 7, "2024-02-20", "2024-07-31"},
		{"day clamped to short month", 31, 1, "2024-01-15", "2024-02-29"},
		{"day clamped in non leap year", 30, 1, "2023-01-10", "2023-02-28"},
		{"offset past december wraps the year", 20, 1, "2024-12-05", "2025-01-20"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			requestDate, err := time.Parse("2006-01-02", tc.requestDate)
			if err != nil {
				t.Fatalf("bad request date: %v", err)
			}
			template := store.ComplianceTemplate{DueDay: tc.dueDay, DueMonthOffset: tc.monthOffset}
			got := SuggestDueDate(template, requestDate).Format("2006-01-02")
			if got != tc.want {
				t.Errorf("SuggestDueDate(day=%d offset=%d, %s) = %s, want %s",
					tc.dueDay, tc.monthOffset, tc.requestDate, got, tc.want)
			}
		})
	}
}

func TestNormalizeDocumentType(t *testing.T) {
	if got := normalizeDocumentType(string(store.TypeGST)); got != store.TypeGST {
		t.Errorf("known type rewritten to %s", got)
	}
	if got := normalizeDocumentType("Spreadsheet"); got != store.TypeOther {
		t.Errorf("unknown type should map to Other, got %s", got)
	}
	if got := normalizeDocumentType(""); got != store.TypeOther {
		t.Errorf("empty type should map to Other, got %s", got)
	}
}

func TestCreateTemplateDefaults(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	ctx := context.Background()

	payload, err := svc.CreateTemplate(ctx, CreateTemplateInput{
		Name: "KYC Verification",
		RequiredDocuments: []TemplateDocumentInput{
			{Name: "PAN Card Copy", Type: string(store.TypeIDProof)},
			{Name: "  "},
		},
	})
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	if payload["frequency"] != string(store.FrequencyOneTime) {
		t.Errorf("expected One-Time default, got %v", payload["frequency"])
	}
	rule := payload["dueDateRule"].(map[string]any)
	if rule["day"] != 15 {
		t.Errorf("expected default due day 15, got %v", rule["day"])
	}
	if docs := payload["requiredDocuments"].([]map[string]any); len(docs) != 1 {
		t.Errorf("blank document names should be skipped, got %v", docs)
	}
}

func TestCreateTemplateRejectsUnknownFrequency(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)

	if _, err := svc.CreateTemplate(context.Background(), CreateTemplateInput{Name: "X", Frequency: "Fortnightly"}); err == nil {
		t.Error("expected error for unknown frequency")
	}
}

func TestRemoveTemplateDocument(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	seedClientAndTemplate(fake)
	ctx := context.Background()

	payload, err := svc.RemoveTemplateDocument(ctx, "com-gst", "gst-doc-2")
	if err != nil {
		t.Fatalf("RemoveTemplateDocument failed: %v", err)
	}
	if docs := payload["requiredDocuments"].([]map[string]any); len(docs) != 1 {
		t.Errorf("expected 1 remaining document, got %d", len(docs))
	}

	if _, err := svc.RemoveTemplateDocument(ctx, "com-gst", "gst-doc-2"); err == nil {
		t.Error("expected error removing an already removed document")
	}
}
