package app

import (
	"context"
	"time"

	"complyhub/api/internal/auth"
	"complyhub/api/internal/authpw"
	"complyhub/api/internal/config"
	"complyhub/api/internal/drive"
	"complyhub/api/internal/email"
	"complyhub/api/internal/expiry"
	"complyhub/api/internal/rbac"
	"complyhub/api/internal/search"
	"complyhub/api/internal/store"
	"complyhub/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Role         string
	ClientID     string
	JTI          string
	ExpiresAt    time.Time
}

type dataStore interface {
	ListUsers(context.Context) ([]store.User, error)
	GetUserByID(context.Context, string) (store.User, error)
	GetUserByEmail(context.Context, string) (store.User, error)
	InsertUser(context.Context, store.User) error
	UpdateUser(context.Context, string, string, string, string) (bool, error)
	UpdateUserPassword(context.Context, string, string) error
	DeleteUser(context.Context, string) (bool, error)

	ListClients(context.Context) ([]store.Client, error)
	GetClient(context.Context, string) (store.Client, error)
	InsertClient(context.Context, store.Client) error
	UpdateClient(context.Context, string, string, string, string) (bool, error)
	DeleteClient(context.Context, string) (bool, error)
	DeleteDocumentsByClient(context.Context, string) error
	DeleteRequestsByClient(context.Context, string) error

	ListTemplates(context.Context) ([]store.ComplianceTemplate, error)
	GetTemplate(context.Context, string) (store.ComplianceTemplate, error)
	InsertTemplate(context.Context, store.ComplianceTemplate) error
	DeleteTemplate(context.Context, string) (bool, error)
	InsertRequiredDocument(context.Context, store.RequiredDocument) error
	DeleteRequiredDocument(context.Context, string, string) (bool, error)

	ListRequests(context.Context, string) ([]store.DocumentRequest, error)
	GetRequest(context.Context, string) (store.DocumentRequest, error)
	GetRequestByPortalToken(context.Context, string) (store.DocumentRequest, error)
	PortalTokenExists(context.Context, string) (bool, error)
	InsertRequest(context.Context, store.DocumentRequest) error
	DeleteRequest(context.Context, string) (bool, error)
	UpdateRequestStatus(context.Context, string, store.DocumentStatus) (bool, error)
	AppendComment(context.Context, store.Comment) error

	ListDocuments(context.Context, string) ([]store.Document, error)
	ListDocumentsByRequest(context.Context, string) ([]store.Document, error)
	GetDocument(context.Context, string) (store.Document, error)
	InsertDocument(context.Context, store.Document) error
	TransitionDocument(context.Context, string, store.DocumentStatus, string, string, string) (int, error)

	SaveRefreshSession(context.Context, string, store.User, time.Time) error
	LookupRefreshSession(context.Context, string) (store.User, error)
	RevokeRefreshSession(context.Context, string) error
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)

	ListSavedViews(context.Context, string) ([]store.SavedView, error)
	InsertSavedView(context.Context, store.SavedView) error
	DeleteSavedView(context.Context, string, string) (bool, error)

	Ping(ctx context.Context) error
}

// refreshSessions is the subset of session storage that can live in Redis
// instead of Postgres. Access-token revocation always stays in Postgres.
type refreshSessions interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions refreshSessions
	authpw   *authpw.Service
	search   *search.Service
	email    *email.Service
	drive    *drive.Service
	now      func() time.Time
}

func New(cfg config.Config, dataStore *store.PostgresStore, searchService *search.Service, emailService *email.Service, driveService *drive.Service) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: dataStore,
		authpw:   authpw.NewService(dataStore),
		search:   searchService,
		email:    emailService,
		drive:    driveService,
		now:      time.Now,
	}
}

// NewWithSessionStore is New with refresh tokens held in Redis.
func NewWithSessionStore(cfg config.Config, dataStore *store.PostgresStore, sessions refreshSessions, searchService *search.Service, emailService *email.Service, driveService *drive.Service) *Service {
	service := New(cfg, dataStore, searchService, emailService, driveService)
	service.sessions = sessions
	return service
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

// scopeClientID returns the client filter a session may see. The second
// return is false when the session sees nothing at all: a Client login
// without a linked client record gets empty lists, never someone else's data.
func (s *Service) scopeClientID(session Session) (string, bool) {
	if rbac.Normalize(session.Role) != rbac.RoleClient {
		return "", true
	}
	if session.ClientID == "" {
		return "", false
	}
	return session.ClientID, true
}

// canSeeClient reports whether the session may read records belonging to the
// given client id.
func (s *Service) canSeeClient(session Session, clientID string) bool {
	scope, visible := s.scopeClientID(session)
	if !visible {
		return false
	}
	return scope == "" || scope == clientID
}

// ---- sessions ----

func (s *Service) SignIn(ctx context.Context, emailAddr, password string) (Session, error) {
	user, err := s.authpw.SignIn(ctx, authpw.SignInRequest{Email: emailAddr, Password: password})
	if err != nil {
		return Session{}, domainError(401, "INVALID_CREDENTIALS", "Invalid email or password", nil)
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), user.ID, user.Name, user.Role, user.ClientID, jti, expiresAt)
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.Name,
		Role:         user.Role,
		ClientID:     user.ClientID,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.ID)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	// Role and client scope come from the user record, not the token, so a
	// role change takes effect on the next request instead of at token expiry.
	user, err := s.store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.Name,
		Role:      user.Role,
		ClientID:  user.ClientID,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authpw
}

func (s *Service) SMTPConfigured() bool {
	return s.email != nil && s.email.IsConfigured()
}

// ---- payload shaping ----

const dateLayout = "2006-01-02"

func dateString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func optionalDateString(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func userPayload(u store.User) map[string]any {
	payload := map[string]any{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
	}
	if u.ClientID != "" {
		payload["clientId"] = u.ClientID
	}
	return payload
}

func clientPayload(c store.Client) map[string]any {
	return map[string]any{
		"id":         c.ID,
		"name":       c.Name,
		"company":    c.Company,
		"email":      c.Email,
		"joinedDate": dateString(c.JoinedDate),
	}
}

func templatePayload(t store.ComplianceTemplate) map[string]any {
	docs := make([]map[string]any, 0, len(t.RequiredDocuments))
	for _, doc := range t.RequiredDocuments {
		docs = append(docs, map[string]any{
			"id":   doc.ID,
			"name": doc.Name,
			"type": string(doc.Type),
		})
	}
	return map[string]any{
		"id":                t.ID,
		"name":              t.Name,
		"description":       t.Description,
		"frequency":         string(t.Frequency),
		"dueDateRule":       map[string]any{"day": t.DueDay, "month_offset": t.DueMonthOffset},
		"autoRecurrence":    t.AutoRecurrence,
		"requiredDocuments": docs,
	}
}

func requestPayload(r store.DocumentRequest) map[string]any {
	checklist := make([]map[string]any, 0, len(r.Documents))
	for _, item := range r.Documents {
		checklist = append(checklist, map[string]any{
			"id":   item.ID,
			"name": item.Name,
		})
	}
	thread := make([]map[string]any, 0, len(r.ClarificationThread))
	for _, comment := range r.ClarificationThread {
		thread = append(thread, commentPayload(comment))
	}
	return map[string]any{
		"id":                  r.ID,
		"clientId":            r.ClientID,
		"complianceId":        r.ComplianceID,
		"status":              string(r.Status),
		"requestDate":         dateString(r.RequestDate),
		"dueDate":             dateString(r.DueDate),
		"portalToken":         r.PortalToken,
		"documents":           checklist,
		"clarificationThread": thread,
	}
}

func commentPayload(c store.Comment) map[string]any {
	return map[string]any{
		"id":        c.ID,
		"author":    c.Author,
		"text":      c.Text,
		"timestamp": c.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Service) documentPayload(d store.Document) map[string]any {
	versions := make([]map[string]any, 0, len(d.VersionHistory))
	for _, version := range d.VersionHistory {
		versions = append(versions, versionPayload(version))
	}
	payload := map[string]any{
		"id":             d.ID,
		"name":           d.Name,
		"clientId":       d.ClientID,
		"complianceId":   d.ComplianceID,
		"requestId":      d.RequestID,
		"status":         string(d.Status),
		"type":           string(d.Type),
		"submittedDate":  optionalDateString(d.SubmittedDate),
		"expiryDate":     optionalDateString(d.ExpiryDate),
		"driveLink":      d.DriveLink,
		"versionHistory": versions,
		"expiryStatus":   string(expiry.Classify(d.ExpiryDate, s.now())),
	}
	if d.RejectionReason != "" {
		payload["rejectionReason"] = d.RejectionReason
	}
	return payload
}

func versionPayload(v store.DocumentVersion) map[string]any {
	return map[string]any{
		"version":   v.Version,
		"status":    string(v.Status),
		"notes":     v.Notes,
		"updatedBy": v.UpdatedBy,
		"updatedAt": v.UpdatedAt.Format(time.RFC3339),
	}
}
