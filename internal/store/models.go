package store

import "time"

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	// ClientID links a Client-role login to exactly one client record.
	// Empty for staff roles.
	ClientID  string
	CreatedAt time.Time
}

type Client struct {
	ID         string
	Name       string
	Company    string
	Email      string
	JoinedDate time.Time
}

type ComplianceTemplate struct {
	ID                string
	Name              string
	Description       string
	Frequency         Frequency
	DueDay            int
	DueMonthOffset    int
	AutoRecurrence    bool
	RequiredDocuments []RequiredDocument
	CreatedAt         time.Time
}

type RequiredDocument struct {
	ID         string
	TemplateID string
	Name       string
	Type       DocumentType
	Position   int
}

type DocumentRequest struct {
	ID           string
	ClientID     string
	ComplianceID string
	Status       DocumentStatus
	RequestDate  time.Time
	DueDate      time.Time
	// PortalToken is the bearer credential for the client side door. Unique
	// and immutable after creation.
	PortalToken         string
	Documents           []ChecklistItem
	ClarificationThread []Comment
}

// ChecklistItem is a point-in-time copy of a template's required document,
// frozen when the request is created. Later template edits never change it.
type ChecklistItem struct {
	ID        string
	RequestID string
	Name      string
	Position  int
}

type Comment struct {
	ID        string
	RequestID string
	Author    string
	Text      string
	CreatedAt time.Time
}

type Document struct {
	ID              string
	Name            string
	ClientID        string
	ComplianceID    string
	RequestID       string
	Status          DocumentStatus
	Type            DocumentType
	SubmittedDate   *time.Time
	ExpiryDate      *time.Time
	DriveLink       string
	RejectionReason string
	VersionHistory  []DocumentVersion
}

// DocumentVersion is one immutable audit entry. Versions are written in the
// same transaction as the status change and never mutated afterwards.
type DocumentVersion struct {
	DocumentID string
	Version    int
	Status     DocumentStatus
	Notes      string
	UpdatedBy  string
	UpdatedAt  time.Time
}

type SavedView struct {
	ID        string
	UserID    string
	Name      string
	Filters   map[string]any
	CreatedAt time.Time
}
