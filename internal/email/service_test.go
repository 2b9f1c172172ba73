package email

import (
	"strings"
	"testing"
)

func TestServiceIsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected bool
	}{
		{
			name:     "empty config",
			config:   Config{},
			expected: false,
		},
		{
			name: "missing host",
			config: Config{
				Port: "587",
				From: "reminders@example.com",
			},
			expected: false,
		},
		{
			name: "missing port",
			config: Config{
				Host: "smtp.example.com",
				From: "reminders@example.com",
			},
			expected: false,
		},
		{
			name: "missing from",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
			},
			expected: false,
		},
		{
			name: "fully configured",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
				From: "reminders@example.com",
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.config)
			if svc.IsConfigured() != tt.expected {
				t.Errorf("IsConfigured() = %v, want %v", svc.IsConfigured(), tt.expected)
			}
		})
	}
}

func TestSendWhenNotConfigured(t *testing.T) {
	svc := NewService(Config{})
	if err := svc.SendEmail([]string{"a@x.test"}, "subject", "body"); err == nil {
		t.Error("expected error when not configured")
	}
}

func TestRenderReminderTemplate(t *testing.T) {
	data := ReminderData{
		AppName:      "ComplyHub",
		ClientName:   "Rahul Verma",
		TemplateName: "GST Filings",
		DueDate:      "2025-08-10",
		PortalURL:    "https://complyhub.example.com/portal/tok_abc123",
		Checklist:    []string{"GSTR-1 Summary", "Sales Register"},
	}

	html, err := renderTemplate(reminderEmailTemplate, data)
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}

	if !strings.Contains(html, "ComplyHub") {
		t.Error("template should contain app name")
	}
	if !strings.Contains(html, "Rahul Verma") {
		t.Error("template should contain client name")
	}
	if !strings.Contains(html, "GST Filings") {
		t.Error("template should contain compliance name")
	}
	if !strings.Contains(html, "https://complyhub.example.com/portal/tok_abc123") {
		t.Error("template should contain the portal URL")
	}
	if !strings.Contains(html, "GSTR-1 Summary") || !strings.Contains(html, "Sales Register") {
		t.Error("template should list the outstanding documents")
	}
}

func TestRenderReminderTemplateWithoutPortalURL(t *testing.T) {
	html, err := renderTemplate(reminderEmailTemplate, ReminderData{
		AppName:      "ComplyHub",
		ClientName:   "Anita Desai",
		TemplateName: "Income Tax Returns",
		DueDate:      "2025-09-15",
	})
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}
	if strings.Contains(html, "Upload Documents") {
		t.Error("upload button should be omitted without a portal URL")
	}
}
