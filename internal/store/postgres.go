package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---- users ----

const userColumns = `id, name, email, password_hash, role, client_id, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.ClientID, &user.CreatedAt)
	return user, err
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		items = append(items, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID))
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email)=LOWER($1)`, email))
}

func (s *PostgresStore) InsertUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, client_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.ClientID)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, userID, name, role, clientID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET name=$2, role=$3, client_id=$4 WHERE id=$1
	`, userID, name, role, clientID)
	if err != nil {
		return false, fmt.Errorf("update user: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash=$2 WHERE id=$1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, userID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, userID)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// ---- clients ----

func (s *PostgresStore) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, company, email, joined_date FROM clients ORDER BY joined_date
	`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	items := make([]Client, 0)
	for rows.Next() {
		var item Client
		if err := rows.Scan(&item.ID, &item.Name, &item.Company, &item.Email, &item.JoinedDate); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetClient(ctx context.Context, clientID string) (Client, error) {
	var item Client
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, company, email, joined_date FROM clients WHERE id=$1
	`, clientID).Scan(&item.ID, &item.Name, &item.Company, &item.Email, &item.JoinedDate)
	if err != nil {
		return Client{}, err
	}
	return item, nil
}

func (s *PostgresStore) InsertClient(ctx context.Context, item Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, company, email, joined_date)
		VALUES ($1, $2, $3, $4, $5)
	`, item.ID, item.Name, item.Company, item.Email, item.JoinedDate)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateClient(ctx context.Context, clientID, name, company, email string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE clients SET name=$2, company=$3, email=$4 WHERE id=$1
	`, clientID, name, company, email)
	if err != nil {
		return false, fmt.Errorf("update client: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

func (s *PostgresStore) DeleteClient(ctx context.Context, clientID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id=$1`, clientID)
	if err != nil {
		return false, fmt.Errorf("delete client: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// DeleteDocumentsByClient and DeleteRequestsByClient implement the cascade a
// client deletion promises. They are separate calls because the references
// are weak: the schema never enforces them.
func (s *PostgresStore) DeleteDocumentsByClient(ctx context.Context, clientID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE client_id=$1`, clientID)
	if err != nil {
		return fmt.Errorf("delete client documents: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteRequestsByClient(ctx context.Context, clientID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM document_requests WHERE client_id=$1`, clientID)
	if err != nil {
		return fmt.Errorf("delete client requests: %w", err)
	}
	return nil
}

// ---- compliance templates ----

func (s *PostgresStore) ListTemplates(ctx context.Context) ([]ComplianceTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, frequency, due_day, due_month_offset, auto_recurrence, created_at
		FROM compliance_templates
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	items := make([]ComplianceTemplate, 0)
	index := make(map[string]int)
	for rows.Next() {
		var item ComplianceTemplate
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Frequency, &item.DueDay, &item.DueMonthOffset, &item.AutoRecurrence, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		item.RequiredDocuments = make([]RequiredDocument, 0)
		index[item.ID] = len(items)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}

	docRows, err := s.db.QueryContext(ctx, `
		SELECT id, template_id, name, doc_type, position
		FROM template_required_documents
		ORDER BY template_id, position, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list required documents: %w", err)
	}
	defer docRows.Close()

	for docRows.Next() {
		var doc RequiredDocument
		if err := docRows.Scan(&doc.ID, &doc.TemplateID, &doc.Name, &doc.Type, &doc.Position); err != nil {
			return nil, fmt.Errorf("scan required document: %w", err)
		}
		if i, ok := index[doc.TemplateID]; ok {
			items[i].RequiredDocuments = append(items[i].RequiredDocuments, doc)
		}
	}
	if err := docRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate required documents: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetTemplate(ctx context.Context, templateID string) (ComplianceTemplate, error) {
	var item ComplianceTemplate
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, frequency, due_day, due_month_offset, auto_recurrence, created_at
		FROM compliance_templates
		WHERE id=$1
	`, templateID).Scan(&item.ID, &item.Name, &item.Description, &item.Frequency, &item.DueDay, &item.DueMonthOffset, &item.AutoRecurrence, &item.CreatedAt)
	if err != nil {
		return ComplianceTemplate{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, template_id, name, doc_type, position
		FROM template_required_documents
		WHERE template_id=$1
		ORDER BY position, id
	`, templateID)
	if err != nil {
		return ComplianceTemplate{}, fmt.Errorf("list required documents: %w", err)
	}
	defer rows.Close()

	item.RequiredDocuments = make([]RequiredDocument, 0)
	for rows.Next() {
		var doc RequiredDocument
		if err := rows.Scan(&doc.ID, &doc.TemplateID, &doc.Name, &doc.Type, &doc.Position); err != nil {
			return ComplianceTemplate{}, fmt.Errorf("scan required document: %w", err)
		}
		item.RequiredDocuments = append(item.RequiredDocuments, doc)
	}
	if err := rows.Err(); err != nil {
		return ComplianceTemplate{}, fmt.Errorf("iterate required documents: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) InsertTemplate(ctx context.Context, item ComplianceTemplate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert template: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO compliance_templates (id, name, description, frequency, due_day, due_month_offset, auto_recurrence)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, item.ID, item.Name, item.Description, item.Frequency, item.DueDay, item.DueMonthOffset, item.AutoRecurrence)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}

	for _, doc := range item.RequiredDocuments {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO template_required_documents (id, template_id, name, doc_type, position)
			VALUES ($1, $2, $3, $4, $5)
		`, doc.ID, item.ID, doc.Name, doc.Type, doc.Position)
		if err != nil {
			return fmt.Errorf("insert required document: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) DeleteTemplate(ctx context.Context, templateID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM compliance_templates WHERE id=$1`, templateID)
	if err != nil {
		return false, fmt.Errorf("delete template: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

func (s *PostgresStore) InsertRequiredDocument(ctx context.Context, doc RequiredDocument) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO template_required_documents (id, template_id, name, doc_type, position)
		VALUES ($1, $2, $3, $4, (SELECT COALESCE(MAX(position), 0) + 1 FROM template_required_documents WHERE template_id=$2))
	`, doc.ID, doc.TemplateID, doc.Name, doc.Type)
	if err != nil {
		return fmt.Errorf("insert required document: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteRequiredDocument(ctx context.Context, templateID, docID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM template_required_documents WHERE template_id=$1 AND id=$2
	`, templateID, docID)
	if err != nil {
		return false, fmt.Errorf("delete required document: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// ---- document requests ----

const requestColumns = `id, client_id, compliance_id, status, request_date, due_date, portal_token`

func scanRequest(row interface{ Scan(...any) error }) (DocumentRequest, error) {
	var item DocumentRequest
	err := row.Scan(&item.ID, &item.ClientID, &item.ComplianceID, &item.Status, &item.RequestDate, &item.DueDate, &item.PortalToken)
	return item, err
}

// ListRequests returns requests newest first, with checklist items and
// clarification threads attached. An empty clientID lists everything.
func (s *PostgresStore) ListRequests(ctx context.Context, clientID string) ([]DocumentRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM document_requests
		WHERE ($1 = '' OR client_id = $1)
		ORDER BY created_at DESC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	items := make([]DocumentRequest, 0)
	index := make(map[string]int)
	for rows.Next() {
		item, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		item.Documents = make([]ChecklistItem, 0)
		item.ClarificationThread = make([]Comment, 0)
		index[item.ID] = len(items)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}

	itemRows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.request_id, i.name, i.position
		FROM request_checklist_items i
		JOIN document_requests r ON r.id = i.request_id
		WHERE ($1 = '' OR r.client_id = $1)
		ORDER BY i.request_id, i.position, i.id
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list checklist items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var checklist ChecklistItem
		if err := itemRows.Scan(&checklist.ID, &checklist.RequestID, &checklist.Name, &checklist.Position); err != nil {
			return nil, fmt.Errorf("scan checklist item: %w", err)
		}
		if i, ok := index[checklist.RequestID]; ok {
			items[i].Documents = append(items[i].Documents, checklist)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checklist items: %w", err)
	}

	commentRows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.request_id, c.author, c.body, c.created_at
		FROM request_comments c
		JOIN document_requests r ON r.id = c.request_id
		WHERE ($1 = '' OR r.client_id = $1)
		ORDER BY c.created_at, c.id
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer commentRows.Close()

	for commentRows.Next() {
		var comment Comment
		if err := commentRows.Scan(&comment.ID, &comment.RequestID, &comment.Author, &comment.Text, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		if i, ok := index[comment.RequestID]; ok {
			items[i].ClarificationThread = append(items[i].ClarificationThread, comment)
		}
	}
	if err := commentRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetRequest(ctx context.Context, requestID string) (DocumentRequest, error) {
	item, err := scanRequest(s.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+` FROM document_requests WHERE id=$1
	`, requestID))
	if err != nil {
		return DocumentRequest{}, err
	}
	return s.attachRequestChildren(ctx, item)
}

func (s *PostgresStore) GetRequestByPortalToken(ctx context.Context, token string) (DocumentRequest, error) {
	item, err := scanRequest(s.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+` FROM document_requests WHERE portal_token=$1
	`, token))
	if err != nil {
		return DocumentRequest{}, err
	}
	return s.attachRequestChildren(ctx, item)
}

func (s *PostgresStore) attachRequestChildren(ctx context.Context, item DocumentRequest) (DocumentRequest, error) {
	item.Documents = make([]ChecklistItem, 0)
	item.ClarificationThread = make([]Comment, 0)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, name, position
		FROM request_checklist_items
		WHERE request_id=$1
		ORDER BY position, id
	`, item.ID)
	if err != nil {
		return DocumentRequest{}, fmt.Errorf("list checklist items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var checklist ChecklistItem
		if err := rows.Scan(&checklist.ID, &checklist.RequestID, &checklist.Name, &checklist.Position); err != nil {
			return DocumentRequest{}, fmt.Errorf("scan checklist item: %w", err)
		}
		item.Documents = append(item.Documents, checklist)
	}
	if err := rows.Err(); err != nil {
		return DocumentRequest{}, fmt.Errorf("iterate checklist items: %w", err)
	}

	commentRows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, author, body, created_at
		FROM request_comments
		WHERE request_id=$1
		ORDER BY created_at, id
	`, item.ID)
	if err != nil {
		return DocumentRequest{}, fmt.Errorf("list comments: %w", err)
	}
	defer commentRows.Close()

	for commentRows.Next() {
		var comment Comment
		if err := commentRows.Scan(&comment.ID, &comment.RequestID, &comment.Author, &comment.Text, &comment.CreatedAt); err != nil {
			return DocumentRequest{}, fmt.Errorf("scan comment: %w", err)
		}
		item.ClarificationThread = append(item.ClarificationThread, comment)
	}
	if err := commentRows.Err(); err != nil {
		return DocumentRequest{}, fmt.Errorf("iterate comments: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) PortalTokenExists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM document_requests WHERE portal_token=$1)
	`, token).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check portal token: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) InsertRequest(ctx context.Context, item DocumentRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert request: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO document_requests (id, client_id, compliance_id, status, request_date, due_date, portal_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, item.ID, item.ClientID, item.ComplianceID, item.Status, item.RequestDate, item.DueDate, item.PortalToken)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}

	for _, checklist := range item.Documents {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO request_checklist_items (id, request_id, name, position)
			VALUES ($1, $2, $3, $4)
		`, checklist.ID, item.ID, checklist.Name, checklist.Position)
		if err != nil {
			return fmt.Errorf("insert checklist item: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) DeleteRequest(ctx context.Context, requestID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM document_requests WHERE id=$1`, requestID)
	if err != nil {
		return false, fmt.Errorf("delete request: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

func (s *PostgresStore) UpdateRequestStatus(ctx context.Context, requestID string, status DocumentStatus) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE document_requests SET status=$2 WHERE id=$1
	`, requestID, status)
	if err != nil {
		return false, fmt.Errorf("update request status: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// AppendComment inserts a clarification comment and forces the request into
// Clarification Needed in the same transaction. This is the only automatic
// status transition in the system.
func (s *PostgresStore) AppendComment(ctx context.Context, comment Comment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append comment: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO request_comments (id, request_id, author, body)
		VALUES ($1, $2, $3, $4)
	`, comment.ID, comment.RequestID, comment.Author, comment.Text)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE document_requests SET status=$2 WHERE id=$1
	`, comment.RequestID, StatusClarificationNeeded)
	if err != nil {
		return fmt.Errorf("mark clarification needed: %w", err)
	}
	return tx.Commit()
}

// ---- documents ----

const documentColumns = `id, name, client_id, compliance_id, request_id, status, doc_type, submitted_date, expiry_date, drive_link, rejection_reason`

func scanDocument(row interface{ Scan(...any) error }) (Document, error) {
	var item Document
	err := row.Scan(&item.ID, &item.Name, &item.ClientID, &item.ComplianceID, &item.RequestID, &item.Status, &item.Type, &item.SubmittedDate, &item.ExpiryDate, &item.DriveLink, &item.RejectionReason)
	return item, err
}

// ListDocuments returns documents newest first without version history; use
// GetDocument for the audit trail. An empty clientID lists everything.
func (s *PostgresStore) ListDocuments(ctx context.Context, clientID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE ($1 = '' OR client_id = $1)
		ORDER BY created_at DESC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	items := make([]Document, 0)
	for rows.Next() {
		item, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) ListDocumentsByRequest(ctx context.Context, requestID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE request_id=$1
		ORDER BY created_at
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("list request documents: %w", err)
	}
	defer rows.Close()

	items := make([]Document, 0)
	for rows.Next() {
		item, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate request documents: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, documentID string) (Document, error) {
	item, err := scanDocument(s.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE id=$1
	`, documentID))
	if err != nil {
		return Document{}, err
	}

	versions, err := s.ListDocumentVersions(ctx, documentID)
	if err != nil {
		return Document{}, err
	}
	item.VersionHistory = versions
	return item, nil
}

func (s *PostgresStore) ListDocumentVersions(ctx context.Context, documentID string) ([]DocumentVersion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, version, status, notes, updated_by, updated_at
		FROM document_versions
		WHERE document_id=$1
		ORDER BY version
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list document versions: %w", err)
	}
	defer rows.Close()

	items := make([]DocumentVersion, 0)
	for rows.Next() {
		var version DocumentVersion
		if err := rows.Scan(&version.DocumentID, &version.Version, &version.Status, &version.Notes, &version.UpdatedBy, &version.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document version: %w", err)
		}
		items = append(items, version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document versions: %w", err)
	}
	return items, nil
}

// InsertDocument creates a document and, when the submission already carries
// a status worth auditing, its first version entry in one transaction.
func (s *PostgresStore) InsertDocument(ctx context.Context, item Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert document: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, name, client_id, compliance_id, request_id, status, doc_type, submitted_date, expiry_date, drive_link, rejection_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, item.ID, item.Name, item.ClientID, item.ComplianceID, item.RequestID, item.Status, item.Type, item.SubmittedDate, item.ExpiryDate, item.DriveLink, item.RejectionReason)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	for _, version := range item.VersionHistory {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO document_versions (document_id, version, status, notes, updated_by)
			VALUES ($1, $2, $3, $4, $5)
		`, item.ID, version.Version, version.Status, version.Notes, version.UpdatedBy)
		if err != nil {
			return fmt.Errorf("insert document version: %w", err)
		}
	}
	return tx.Commit()
}

// TransitionDocument appends the next version entry and updates the document
// row in one transaction. driveLink is only applied on Approved and the
// rejection reason only on Rejected; both survive unrelated transitions
// untouched. Returns the new version number.
func (s *PostgresStore) TransitionDocument(ctx context.Context, documentID string, status DocumentStatus, notes, updatedBy, driveLink string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback()

	var newVersion int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO document_versions (document_id, version, status, notes, updated_by)
		SELECT $1, COALESCE(MAX(version), 0) + 1, $2, $3, $4
		FROM document_versions
		WHERE document_id=$1
		RETURNING version
	`, documentID, status, notes, updatedBy).Scan(&newVersion)
	if err != nil {
		return 0, fmt.Errorf("append document version: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE documents SET
			status = $2,
			submitted_date = CASE WHEN $2 = 'Received' AND submitted_date IS NULL THEN CURRENT_DATE ELSE submitted_date END,
			drive_link = CASE WHEN $2 = 'Approved' THEN $3 ELSE drive_link END,
			rejection_reason = CASE WHEN $2 = 'Rejected' THEN $4 ELSE rejection_reason END
		WHERE id = $1
	`, documentID, status, driveLink, notes)
	if err != nil {
		return 0, fmt.Errorf("update document status: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return 0, sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transition: %w", err)
	}
	return newVersion, nil
}

// ---- refresh sessions (Postgres fallback when Redis is not configured) ----

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash string, user User, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, user.ID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT u.id, u.name, u.email, u.password_hash, u.role, u.client_id, u.created_at
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`
	return scanUser(s.db.QueryRowContext(ctx, query, tokenHash))
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// ---- saved views ----

func (s *PostgresStore) ListSavedViews(ctx context.Context, userID string) ([]SavedView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, filters, created_at
		FROM saved_views
		WHERE user_id=$1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list saved views: %w", err)
	}
	defer rows.Close()

	items := make([]SavedView, 0)
	for rows.Next() {
		var item SavedView
		var rawFilters []byte
		if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &rawFilters, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan saved view: %w", err)
		}
		if len(rawFilters) > 0 {
			if err := json.Unmarshal(rawFilters, &item.Filters); err != nil {
				return nil, fmt.Errorf("decode saved view filters: %w", err)
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved views: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertSavedView(ctx context.Context, item SavedView) error {
	rawFilters, err := json.Marshal(item.Filters)
	if err != nil {
		return fmt.Errorf("encode saved view filters: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saved_views (id, user_id, name, filters)
		VALUES ($1, $2, $3, $4)
	`, item.ID, item.UserID, item.Name, rawFilters)
	if err != nil {
		return fmt.Errorf("insert saved view: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteSavedView(ctx context.Context, userID, viewID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM saved_views WHERE user_id=$1 AND id=$2`, userID, viewID)
	if err != nil {
		return false, fmt.Errorf("delete saved view: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}
