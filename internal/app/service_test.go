package app

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"complyhub/api/internal/authpw"
	"complyhub/api/internal/config"
	"complyhub/api/internal/store"
)

// fakeStore is an in-memory dataStore with the same semantics the SQL layer
// implements: AppendComment forces Clarification Needed, TransitionDocument
// appends the audit entry and applies the status side effects atomically.
type fakeStore struct {
	users     []store.User
	clients   []store.Client
	templates []store.ComplianceTemplate
	requests  []store.DocumentRequest
	documents []store.Document
	views     []store.SavedView

	refresh map[string]refreshEntry
	revoked map[string]bool
}

type refreshEntry struct {
	user      store.User
	expiresAt time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		refresh: make(map[string]refreshEntry),
		revoked: make(map[string]bool),
	}
}

func (f *fakeStore) ListUsers(context.Context) ([]store.User, error) {
	return append([]store.User(nil), f.users...), nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (store.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeStore) InsertUser(_ context.Context, u store.User) error {
	f.users = append(f.users, u)
	return nil
}

func (f *fakeStore) UpdateUser(_ context.Context, id, name, role, clientID string) (bool, error) {
	for i, u := range f.users {
		if u.ID == id {
			f.users[i].Name = name
			f.users[i].Role = role
			f.users[i].ClientID = clientID
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) UpdateUserPassword(_ context.Context, id, hash string) error {
	for i, u := range f.users {
		if u.ID == id {
			f.users[i].PasswordHash = hash
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeStore) DeleteUser(_ context.Context, id string) (bool, error) {
	for i, u := range f.users {
		if u.ID == id {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListClients(context.Context) ([]store.Client, error) {
	return append([]store.Client(nil), f.clients...), nil
}

func (f *fakeStore) GetClient(_ context.Context, id string) (store.Client, error) {
	for _, c := range f.clients {
		if c.ID == id {
			return c, nil
		}
	}
	return store.Client{}, sql.ErrNoRows
}

func (f *fakeStore) InsertClient(_ context.Context, c store.Client) error {
	f.clients = append(f.clients, c)
	return nil
}

func (f *fakeStore) UpdateClient(_ context.Context, id, name, company, email string) (bool, error) {
	for i, c := range f.clients {
		if c.ID == id {
			f.clients[i].Name = name
			f.clients[i].Company = company
			f.clients[i].Email = email
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) DeleteClient(_ context.Context, id string) (bool, error) {
	for i, c := range f.clients {
		if c.ID == id {
			f.clients = append(f.clients[:i], f.clients[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) DeleteDocumentsByClient(_ context.Context, clientID string) error {
	kept := f.documents[:0]
	for _, d := range f.documents {
		if d.ClientID != clientID {
			kept = append(kept, d)
		}
	}
	f.documents = kept
	return nil
}

func (f *fakeStore) DeleteRequestsByClient(_ context.Context, clientID string) error {
	kept := f.requests[:0]
	for _, r := range f.requests {
		if r.ClientID != clientID {
			kept = append(kept, r)
		}
	}
	f.requests = kept
	return nil
}

func (f *fakeStore) ListTemplates(context.Context) ([]store.ComplianceTemplate, error) {
	return append([]store.ComplianceTemplate(nil), f.templates...), nil
}

func (f *fakeStore) GetTemplate(_ context.Context, id string) (store.ComplianceTemplate, error) {
	for _, t := range f.templates {
		if t.ID == id {
			return t, nil
		}
	}
	return store.ComplianceTemplate{}, sql.ErrNoRows
}

func (f *fakeStore) InsertTemplate(_ context.Context, t store.ComplianceTemplate) error {
	f.templates = append(f.templates, t)
	return nil
}

func (f *fakeStore) DeleteTemplate(_ context.Context, id string) (bool, error) {
	for i, t := range f.templates {
		if t.ID == id {
			f.templates = append(f.templates[:i], f.templates[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertRequiredDocument(_ context.Context, doc store.RequiredDocument) error {
	for i, t := range f.templates {
		if t.ID == doc.TemplateID {
			doc.Position = len(t.RequiredDocuments) + 1
			f.templates[i].RequiredDocuments = append(f.templates[i].RequiredDocuments, doc)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeStore) DeleteRequiredDocument(_ context.Context, templateID, docID string) (bool, error) {
	for i, t := range f.templates {
		if t.ID != templateID {
			continue
		}
		for j, doc := range t.RequiredDocuments {
			if doc.ID == docID {
				f.templates[i].RequiredDocuments = append(t.RequiredDocuments[:j], t.RequiredDocuments[j+1:]...)
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *fakeStore) ListRequests(_ context.Context, clientID string) ([]store.DocumentRequest, error) {
	var out []store.DocumentRequest
	for _, r := range f.requests {
		if clientID == "" || r.ClientID == clientID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetRequest(_ context.Context, id string) (store.DocumentRequest, error) {
	for _, r := range f.requests {
		if r.ID == id {
			return r, nil
		}
	}
	return store.DocumentRequest{}, sql.ErrNoRows
}

func (f *fakeStore) GetRequestByPortalToken(_ context.Context, token string) (store.DocumentRequest, error) {
	for _, r := range f.requests {
		if r.PortalToken == token {
			return r, nil
		}
	}
	return store.DocumentRequest{}, sql.ErrNoRows
}

func (f *fakeStore) PortalTokenExists(_ context.Context, token string) (bool, error) {
	for _, r := range f.requests {
		if r.PortalToken == token {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertRequest(_ context.Context, r store.DocumentRequest) error {
	f.requests = append(f.requests, r)
	return nil
}

func (f *fakeStore) DeleteRequest(_ context.Context, id string) (bool, error) {
	for i, r := range f.requests {
		if r.ID == id {
			f.requests = append(f.requests[:i], f.requests[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) UpdateRequestStatus(_ context.Context, id string, status store.DocumentStatus) (bool, error) {
	for i, r := range f.requests {
		if r.ID == id {
			f.requests[i].Status = status
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) AppendComment(_ context.Context, comment store.Comment) error {
	for i, r := range f.requests {
		if r.ID == comment.RequestID {
			comment.CreatedAt = time.Now()
			f.requests[i].ClarificationThread = append(r.ClarificationThread, comment)
			f.requests[i].Status = store.StatusClarificationNeeded
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeStore) ListDocuments(_ context.Context, clientID string) ([]store.Document, error) {
	var out []store.Document
	for _, d := range f.documents {
		if clientID == "" || d.ClientID == clientID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) ListDocumentsByRequest(_ context.Context, requestID string) ([]store.Document, error) {
	var out []store.Document
	for _, d := range f.documents {
		if d.RequestID == requestID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) GetDocument(_ context.Context, id string) (store.Document, error) {
	for _, d := range f.documents {
		if d.ID == id {
			return d, nil
		}
	}
	return store.Document{}, sql.ErrNoRows
}

func (f *fakeStore) InsertDocument(_ context.Context, d store.Document) error {
	f.documents = append(f.documents, d)
	return nil
}

func (f *fakeStore) TransitionDocument(_ context.Context, id string, status store.DocumentStatus, notes, updatedBy, driveLink string) (int, error) {
	for i, d := range f.documents {
		if d.ID != id {
			continue
		}
		version := 0
		for _, v := range d.VersionHistory {
			if v.Version > version {
				version = v.Version
			}
		}
		version++
		f.documents[i].VersionHistory = append(d.VersionHistory, store.DocumentVersion{
			DocumentID: id,
			Version:    version,
			Status:     status,
			Notes:      notes,
			UpdatedBy:  updatedBy,
			UpdatedAt:  time.Now(),
		})
		f.documents[i].Status = status
		if status == store.StatusReceived && d.SubmittedDate == nil {
			now := time.Now()
			f.documents[i].SubmittedDate = &now
		}
		if status == store.StatusApproved {
			f.documents[i].DriveLink = driveLink
		}
		if status == store.StatusRejected {
			f.documents[i].RejectionReason = notes
		}
		return version, nil
	}
	return 0, sql.ErrNoRows
}

func (f *fakeStore) SaveRefreshSession(_ context.Context, tokenHash string, user store.User, expiresAt time.Time) error {
	f.refresh[tokenHash] = refreshEntry{user: user, expiresAt: expiresAt}
	return nil
}

func (f *fakeStore) LookupRefreshSession(_ context.Context, tokenHash string) (store.User, error) {
	entry, ok := f.refresh[tokenHash]
	if !ok || time.Now().After(entry.expiresAt) {
		return store.User{}, sql.ErrNoRows
	}
	return entry.user, nil
}

func (f *fakeStore) RevokeRefreshSession(_ context.Context, tokenHash string) error {
	delete(f.refresh, tokenHash)
	return nil
}

func (f *fakeStore) RevokeAccessToken(_ context.Context, jti string, _ time.Time) error {
	f.revoked[jti] = true
	return nil
}

func (f *fakeStore) IsAccessTokenRevoked(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], nil
}

func (f *fakeStore) ListSavedViews(_ context.Context, userID string) ([]store.SavedView, error) {
	var out []store.SavedView
	for _, v := range f.views {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertSavedView(_ context.Context, v store.SavedView) error {
	f.views = append(f.views, v)
	return nil
}

func (f *fakeStore) DeleteSavedView(_ context.Context, userID, viewID string) (bool, error) {
	for i, v := range f.views {
		if v.ID == viewID && v.UserID == userID {
			f.views = append(f.views[:i], f.views[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func newTestService(fake *fakeStore) *Service {
	cfg := config.Config{
		JWTSecret:     "test-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    30 * 24 * time.Hour,
		PortalBaseURL: "http://portal.test",
	}
	return &Service{
		cfg:      cfg,
		store:    fake,
		sessions: fake,
		authpw:   authpw.NewService(fake),
		now:      time.Now,
	}
}

func seedClientAndTemplate(fake *fakeStore) {
	fake.clients = append(fake.clients, store.Client{
		ID: "cli1", Name: "Innovate Inc", Company: "Innovate Inc.", Email: "accounts@innovate.test",
		JoinedDate: time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	fake.templates = append(fake.templates, store.ComplianceTemplate{
		ID: "com-gst", Name: "GSTR-3B Monthly Filing", Frequency: store.FrequencyMonthly,
		DueDay: 20, DueMonthOffset: 1, AutoRecurrence: true,
		RequiredDocuments: []store.RequiredDocument{
			{ID: "gst-doc-1", TemplateID: "com-gst", Name: "Sales Ledger", Type: store.TypeGST, Position: 1},
			{ID: "gst-doc-2", TemplateID: "com-gst", Name: "Purchase Ledger", Type: store.TypeGST, Position: 2},
		},
	})
}

func adminSession() Session {
	return Session{UserID: "user1", UserName: "Sanjay Sharma", Role: "Admin"}
}

func clientSession(clientID string) Session {
	return Session{UserID: "user4", UserName: "John Doe", Role: "Client", ClientID: clientID}
}

func TestSignInRefreshLogout(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, CreateUserInput{
		Name: "Sanjay Sharma", Email: "sanjay@complyhub.test", Password: "password1", Role: "Admin",
	}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	session, err := svc.SignIn(ctx, "sanjay@complyhub.test", "password1")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if session.Token == "" || session.RefreshToken == "" {
		t.Fatal("expected access and refresh tokens")
	}

	parsed, err := svc.SessionFromToken(ctx, session.Token)
	if err != nil {
		t.Fatalf("SessionFromToken failed: %v", err)
	}
	if parsed.Role != "Admin" || parsed.UserName != "Sanjay Sharma" {
		t.Errorf("unexpected session: %+v", parsed)
	}

	rotated, err := svc.Refresh(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if rotated.RefreshToken == session.RefreshToken {
		t.Error("refresh token was not rotated")
	}
	if _, err := svc.Refresh(ctx, session.RefreshToken); err == nil {
		t.Error("old refresh token still accepted after rotation")
	}

	if err := svc.Logout(ctx, rotated, rotated.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := svc.SessionFromToken(ctx, rotated.Token); err == nil {
		t.Error("access token still accepted after logout")
	}
	if _, err := svc.Refresh(ctx, rotated.RefreshToken); err == nil {
		t.Error("refresh token still accepted after logout")
	}
}

func TestSignInWrongPassword(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, CreateUserInput{
		Name: "A", Email: "a@x.test", Password: "password1", Role: "Staff",
	}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	_, err := svc.SignIn(ctx, "a@x.test", "nope")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "INVALID_CREDENTIALS" {
		t.Errorf("expected INVALID_CREDENTIALS, got %v", err)
	}
}

func TestCreateRequestInstantiatesTemplate(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	svc.now = func() time.Time { return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC) }
	seedClientAndTemplate(fake)
	ctx := context.Background()

	payload, err := svc.CreateRequest(ctx, CreateRequestInput{ClientID: "cli1", ComplianceID: "com-gst"})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	if payload["status"] != string(store.StatusPending) {
		t.Errorf("expected Pending, got %v", payload["status"])
	}
	// Day 20 of the following month per the template rule.
	if payload["dueDate"] != "2024-07-20" {
		t.Errorf("expected due date 2024-07-20, got %v", payload["dueDate"])
	}

	checklist, ok := payload["documents"].([]map[string]any)
	if !ok || len(checklist) != 2 {
		t.Fatalf("expected 2 checklist items, got %v", payload["documents"])
	}
	for _, item := range checklist {
		id := item["id"].(string)
		if id == "gst-doc-1" || id == "gst-doc-2" {
			t.Errorf("checklist item reuses template document id %s", id)
		}
	}

	token := payload["portalToken"].(string)
	if token == "" {
		t.Fatal("expected a portal token")
	}

	second, err := svc.CreateRequest(ctx, CreateRequestInput{ClientID: "cli1", ComplianceID: "com-gst"})
	if err != nil {
		t.Fatalf("second CreateRequest failed: %v", err)
	}
	if second["portalToken"].(string) == token {
		t.Error("portal tokens collide across requests")
	}
}

func TestCreateRequestChecklistFrozenAgainstTemplateEdits(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	seedClientAndTemplate(fake)
	ctx := context.Background()

	payload, err := svc.CreateRequest(ctx, CreateRequestInput{ClientID: "cli1", ComplianceID: "com-gst"})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	requestID := payload["id"].(string)

	if _, err := svc.AddTemplateDocument(ctx, "com-gst", TemplateDocumentInput{Name: "E-Way Bills Report", Type: string(store.TypeGST)}); err != nil {
		t.Fatalf("AddTemplateDocument failed: %v", err)
	}

	got, err := svc.GetRequest(ctx, adminSession(), requestID)
	if err != nil {
		t.Fatalf("GetRequest failed: %v", err)
	}
	if checklist := got["documents"].([]map[string]any); len(checklist) != 2 {
		t.Errorf("template edit leaked into existing request checklist: %d items", len(checklist))
	}
}

func TestCreateRequestUnknownClient(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	seedClientAndTemplate(fake)

	_, err := svc.CreateRequest(context.Background(), CreateRequestInput{ClientID: "nope", ComplianceID: "com-gst"})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 422 {
		t.Errorf("expected 422 for unknown client, got %v", err)
	}
}

func TestTransitionDocumentAuditTrail(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	seedClientAndTemplate(fake)
	ctx := context.Background()
	staff := Session{UserID: "user3", UserName: "Amit Kumar", Role: "Staff"}

	created, err := svc.CreateDocument(ctx, CreateDocumentInput{
		Name: "Sales Ledger", ClientID: "cli1", ComplianceID: "com-gst", RequestID: "req1", Type: string(store.TypeGST),
	})
	if err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}
	documentID := created["id"].(string)
	if len(created["versionHistory"].([]map[string]any)) != 0 {
		t.Error("expected empty history before the first transition")
	}

	steps := []store.DocumentStatus{store.StatusReceived, store.StatusUnderReview, store.StatusApproved}
	var payload map[string]any
	for _, status := range steps {
		payload, err = svc.TransitionDocument(ctx, staff, documentID, TransitionInput{Status: string(status)})
		if err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
	}

	versions := payload["versionHistory"].([]map[string]any)
	if len(versions) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(versions))
	}
	for i, v := range versions {
		if v["version"].(int) != i+1 {
			t.Errorf("version %d out of order: %v", i, v["version"])
		}
	}
	if versions[2]["updatedBy"] != "Amit Kumar" {
		t.Errorf("expected actor on audit entry, got %v", versions[2]["updatedBy"])
	}

	link, _ := payload["driveLink"].(string)
	if link == "" || !strings.Contains(link, "req1") {
		t.Errorf("expected a drive link mentioning the request, got %q", link)
	}
	if payload["submittedDate"] == nil {
		t.Error("expected submitted date after Received")
	}
}

func TestRejectionReasonSurvivesReapproval(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	seedClientAndTemplate(fake)
	ctx := context.Background()
	staff := Session{UserID: "user3", UserName: "Amit Kumar", Role: "Staff"}

	created, err := svc.CreateDocument(ctx, CreateDocumentInput{
		Name: "Utility Bill", ClientID: "cli1", ComplianceID: "com-gst", Type: string(store.TypeIDProof),
	})
	if err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}
	documentID := created["id"].(string)

	rejected, err := svc.TransitionDocument(ctx, staff, documentID, TransitionInput{
		Status: string(store.StatusRejected), Notes: "Bill is too old.",
	})
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected["rejectionReason"] != "Bill is too old." {
		t.Errorf("expected rejection reason, got %v", rejected["rejectionReason"])
	}

	approved, err := svc.TransitionDocument(ctx, staff, documentID, TransitionInput{Status: string(store.StatusApproved)})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved["rejectionReason"] != "Bill is too old." {
		t.Errorf("rejection reason should survive re-approval, got %v", approved["rejectionReason"])
	}
	if approved["driveLink"] == "" {
		t.Error("expected drive link on approval")
	}
}

func TestTransitionDocumentUnknownStatus(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	seedClientAndTemplate(fake)

	_, err := svc.TransitionDocument(context.Background(), adminSession(), "doc1", TransitionInput{Status: "Sideways"})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 422 {
		t.Errorf("expected 422 for unknown status, got %v", err)
	}
}

func TestAddCommentForcesClarification(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	seedClientAndTemplate(fake)
	ctx := context.Background()

	created, err := svc.CreateRequest(ctx, CreateRequestInput{ClientID: "cli1", ComplianceID: "com-gst"})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	requestID := created["id"].(string)

	if _, err := svc.UpdateRequestStatus(ctx, requestID, store.StatusApproved); err != nil {
		t.Fatalf("UpdateRequestStatus failed: %v", err)
	}

	payload, err := svc.AddComment(ctx, adminSession(), requestID, "Please re-upload page 2.")
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if payload["status"] != string(store.StatusClarificationNeeded) {
		t.Errorf("comment did not force Clarification Needed, got %v", payload["status"])
	}
	thread := payload["clarificationThread"].([]map[string]any)
	if len(thread) != 1 || thread[0]["author"] != "Sanjay Sharma" {
		t.Errorf("unexpected thread: %v", thread)
	}
}

func TestClientScoping(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	seedClientAndTemplate(fake)
	fake.clients = append(fake.clients, store.Client{ID: "cli2", Name: "Jane Smith", Company: "Solutions Co."})
	ctx := context.Background()

	for _, clientID := range []string{"cli1", "cli2"} {
		if _, err := svc.CreateRequest(ctx, CreateRequestInput{ClientID: clientID, ComplianceID: "com-gst"}); err != nil {
			t.Fatalf("CreateRequest for %s failed: %v", clientID, err)
		}
		if _, err := svc.CreateDocument(ctx, CreateDocumentInput{Name: "Doc " + clientID, ClientID: clientID}); err != nil {
			t.Fatalf("CreateDocument for %s failed: %v", clientID, err)
		}
	}

	requests, err := svc.ListRequests(ctx, clientSession("cli1"))
	if err != nil {
		t.Fatalf("ListRequests failed: %v", err)
	}
	if len(requests) != 1 || requests[0]["clientId"] != "cli1" {
		t.Errorf("client sees foreign requests: %v", requests)
	}

	documents, err := svc.ListDocuments(ctx, clientSession("cli1"))
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(documents) != 1 || documents[0]["clientId"] != "cli1" {
		t.Errorf("client sees foreign documents: %v", documents)
	}

	clients, err := svc.ListClients(ctx, clientSession("cli1"))
	if err != nil {
		t.Fatalf("ListClients failed: %v", err)
	}
	if len(clients) != 1 || clients[0]["id"] != "cli1" {
		t.Errorf("client sees foreign client records: %v", clients)
	}

	all, err := svc.ListRequests(ctx, adminSession())
	if err != nil {
		t.Fatalf("admin ListRequests failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("admin should see both requests, got %d", len(all))
	}

	// A Client login with no linked client record sees nothing, not everything.
	empty, err := svc.ListRequests(ctx, clientSession(""))
	if err != nil {
		t.Fatalf("ListRequests failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("unlinked client should see no requests, got %d", len(empty))
	}

	if _, err := svc.GetRequest(ctx, clientSession("cli2"), requests[0]["id"].(string)); err == nil {
		t.Error("client read another client's request")
	}
}

func TestPortalTokenResolution(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	seedClientAndTemplate(fake)
	ctx := context.Background()

	created, err := svc.CreateRequest(ctx, CreateRequestInput{ClientID: "cli1", ComplianceID: "com-gst"})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	token := created["portalToken"].(string)

	view, err := svc.PortalView(ctx, token)
	if err != nil {
		t.Fatalf("PortalView failed: %v", err)
	}
	if view["requestId"] != created["id"] {
		t.Errorf("token resolved to the wrong request: %v", view["requestId"])
	}
	if view["complianceName"] != "GSTR-3B Monthly Filing" {
		t.Errorf("unexpected compliance name: %v", view["complianceName"])
	}

	_, err = svc.PortalView(ctx, "not-a-token")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 404 {
		t.Errorf("expected 404 for unknown token, got %v", err)
	}
	if _, err := svc.PortalView(ctx, ""); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestPortalUploadCreatesReceivedDocument(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	seedClientAndTemplate(fake)
	ctx := context.Background()

	created, err := svc.CreateRequest(ctx, CreateRequestInput{ClientID: "cli1", ComplianceID: "com-gst"})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	token := created["portalToken"].(string)

	payload, err := svc.PortalUpload(ctx, token, PortalUploadInput{
		Name: "Sales Ledger", Type: string(store.TypeGST),
	})
	if err != nil {
		t.Fatalf("PortalUpload failed: %v", err)
	}
	if payload["status"] != string(store.StatusReceived) {
		t.Errorf("expected Received, got %v", payload["status"])
	}
	if payload["submittedDate"] == nil {
		t.Error("expected submitted date")
	}
	versions := payload["versionHistory"].([]map[string]any)
	if len(versions) != 1 || versions[0]["version"].(int) != 1 {
		t.Fatalf("expected version 1 in history, got %v", versions)
	}
	if versions[0]["updatedBy"] != "Innovate Inc" {
		t.Errorf("expected client name as actor, got %v", versions[0]["updatedBy"])
	}

	view, err := svc.PortalView(ctx, token)
	if err != nil {
		t.Fatalf("PortalView failed: %v", err)
	}
	checklist := view["documents"].([]map[string]any)
	var matched bool
	for _, item := range checklist {
		if item["name"] == "Sales Ledger" && item["submitted"] == true {
			matched = true
		}
	}
	if !matched {
		t.Errorf("upload not matched to checklist item: %v", checklist)
	}
}

func TestPortalCommentForcesClarification(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	seedClientAndTemplate(fake)
	ctx := context.Background()

	created, err := svc.CreateRequest(ctx, CreateRequestInput{ClientID: "cli1", ComplianceID: "com-gst"})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	token := created["portalToken"].(string)

	payload, err := svc.PortalAddComment(ctx, token, PortalCommentInput{Text: "Which ledger format do you need?"})
	if err != nil {
		t.Fatalf("PortalAddComment failed: %v", err)
	}
	if payload["status"] != string(store.StatusClarificationNeeded) {
		t.Errorf("portal comment did not force clarification, got %v", payload["status"])
	}
	thread := payload["clarificationThread"].([]map[string]any)
	if len(thread) != 1 || thread[0]["author"] != "Innovate Inc" {
		t.Errorf("expected client name as default author, got %v", thread)
	}
}

func TestSummaryAndNotifications(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	seedClientAndTemplate(fake)
	ctx := context.Background()

	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	soon := now.AddDate(0, 0, 10)
	past := now.AddDate(0, 0, -10)
	far := now.AddDate(1, 0, 0)
	fake.documents = append(fake.documents,
		store.Document{ID: "d1", Name: "Expiring", ClientID: "cli1", Status: store.StatusApproved, ExpiryDate: &soon},
		store.Document{ID: "d2", Name: "Expired", ClientID: "cli1", Status: store.StatusApproved, ExpiryDate: &past},
		store.Document{ID: "d3", Name: "Valid", ClientID: "cli1", Status: store.StatusUnderReview, ExpiryDate: &far},
	)

	summary, err := svc.Summary(ctx, adminSession())
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary["documentsUnderReview"] != 1 {
		t.Errorf("expected 1 under review, got %v", summary["documentsUnderReview"])
	}
	if summary["activeClients"] != 1 {
		t.Errorf("expected 1 client, got %v", summary["activeClients"])
	}
	breakdown := summary["statusBreakdown"].(map[string]int)
	if breakdown[string(store.StatusApproved)] != 2 {
		t.Errorf("unexpected breakdown: %v", breakdown)
	}
	if len(summary["expiringSoon"].([]map[string]any)) != 1 {
		t.Errorf("expected 1 expiring-soon entry, got %v", summary["expiringSoon"])
	}

	notifications, err := svc.Notifications(ctx, adminSession())
	if err != nil {
		t.Fatalf("Notifications failed: %v", err)
	}
	// Already-expired documents do not count toward the badge.
	if notifications["expiringSoon"] != 1 {
		t.Errorf("expected expiringSoon=1, got %v", notifications["expiringSoon"])
	}

	empty, err := svc.Notifications(ctx, clientSession(""))
	if err != nil {
		t.Fatalf("Notifications failed: %v", err)
	}
	if empty["expiringSoon"] != 0 {
		t.Errorf("unlinked client should get zero notifications, got %v", empty["expiringSoon"])
	}
}

func TestDeleteClientCascades(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	seedClientAndTemplate(fake)
	ctx := context.Background()

	if _, err := svc.CreateRequest(ctx, CreateRequestInput{ClientID: "cli1", ComplianceID: "com-gst"}); err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	if _, err := svc.CreateDocument(ctx, CreateDocumentInput{Name: "Doc", ClientID: "cli1"}); err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}

	if err := svc.DeleteClient(ctx, "cli1"); err != nil {
		t.Fatalf("DeleteClient failed: %v", err)
	}
	if len(fake.requests) != 0 || len(fake.documents) != 0 {
		t.Errorf("cascade left orphans: %d requests, %d documents", len(fake.requests), len(fake.documents))
	}
}

func TestSavedViewsPerUser(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	ctx := context.Background()

	mine := Session{UserID: "user1", Role: "Staff"}
	theirs := Session{UserID: "user2", Role: "Staff"}

	created, err := svc.CreateSavedView(ctx, mine, SavedViewInput{
		Name: "Overdue GST", Filters: map[string]any{"status": "Pending"},
	})
	if err != nil {
		t.Fatalf("CreateSavedView failed: %v", err)
	}

	views, err := svc.ListSavedViews(ctx, mine)
	if err != nil {
		t.Fatalf("ListSavedViews failed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}

	others, err := svc.ListSavedViews(ctx, theirs)
	if err != nil {
		t.Fatalf("ListSavedViews failed: %v", err)
	}
	if len(others) != 0 {
		t.Errorf("saved views leaked across users: %v", others)
	}

	if err := svc.DeleteSavedView(ctx, theirs, created["id"].(string)); err == nil {
		t.Error("deleted another user's saved view")
	}
	if err := svc.DeleteSavedView(ctx, mine, created["id"].(string)); err != nil {
		t.Errorf("DeleteSavedView failed: %v", err)
	}
}

func TestDeleteUserBlocksSelf(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	fake.users = append(fake.users, store.User{ID: "user1", Name: "Sanjay Sharma", Role: "Admin"})

	err := svc.DeleteUser(context.Background(), adminSession(), "user1")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 422 {
		t.Errorf("expected 422 for self-delete, got %v", err)
	}
}

func TestRemindStubbedWithoutSMTP(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	seedClientAndTemplate(fake)
	ctx := context.Background()

	created, err := svc.CreateRequest(ctx, CreateRequestInput{ClientID: "cli1", ComplianceID: "com-gst"})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	payload, err := svc.Remind(ctx, created["id"].(string))
	if err != nil {
		t.Fatalf("Remind failed: %v", err)
	}
	if payload["sent"] != true || payload["stubbed"] != true {
		t.Errorf("expected stubbed reminder, got %v", payload)
	}
}

func TestDocumentReviewLeavesRequestStatusAlone(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	seedClientAndTemplate(fake)
	ctx := context.Background()
	staff := Session{UserID: "user3", UserName: "Amit Kumar", Role: "Staff"}

	created, err := svc.CreateRequest(ctx, CreateRequestInput{ClientID: "cli1", ComplianceID: "com-gst"})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	requestID := created["id"].(string)
	token := created["portalToken"].(string)

	uploaded, err := svc.PortalUpload(ctx, token, PortalUploadInput{Name: "Sales Ledger", Type: string(store.TypeGST)})
	if err != nil {
		t.Fatalf("PortalUpload failed: %v", err)
	}
	documentID := uploaded["id"].(string)

	for _, status := range []store.DocumentStatus{store.StatusUnderReview, store.StatusApproved} {
		if _, err := svc.TransitionDocument(ctx, staff, documentID, TransitionInput{Status: string(status)}); err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
	}

	got, err := svc.GetRequest(ctx, adminSession(), requestID)
	if err != nil {
		t.Fatalf("GetRequest failed: %v", err)
	}
	// Request status is an explicit staff action, never derived from the
	// outcomes of its documents.
	if got["status"] != string(store.StatusPending) {
		t.Errorf("document review changed the request status to %v", got["status"])
	}
}

func TestBootstrapSeedsOnceOnly(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	svc.cfg.BootstrapPassword = "complyhub-demo"
	ctx := context.Background()

	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if len(fake.users) == 0 || len(fake.clients) != 4 || len(fake.templates) != 4 {
		t.Fatalf("unexpected seed counts: %d users, %d clients, %d templates",
			len(fake.users), len(fake.clients), len(fake.templates))
	}
	seededRequests := len(fake.requests)

	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("second Bootstrap failed: %v", err)
	}
	if len(fake.requests) != seededRequests {
		t.Error("Bootstrap reseeded a non-empty database")
	}

	if _, err := svc.SignIn(ctx, "sanjay@complyhub.local", "complyhub-demo"); err != nil {
		t.Errorf("seeded admin cannot sign in: %v", err)
	}
}
