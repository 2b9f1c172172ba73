package app

import (
	"context"
	"time"

	"complyhub/api/internal/authpw"
	"complyhub/api/internal/store"
	"complyhub/api/internal/util"
)

// Bootstrap seeds an empty database with a small working data set: staff
// logins, a handful of clients, the standard compliance templates and a few
// in-flight requests so the dashboard is not blank on first boot. A database
// with any user in it is left alone.
func (s *Service) Bootstrap(ctx context.Context) error {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	passwordHash, err := authpw.HashPassword(s.cfg.BootstrapPassword)
	if err != nil {
		return err
	}

	userSeeds := []store.User{
		{ID: "user1", Name: "Sanjay Sharma", Email: "sanjay@complyhub.local", Role: "Admin"},
		{ID: "user2", Name: "Priya Patel", Email: "priya@complyhub.local", Role: "Manager"},
		{ID: "user3", Name: "Amit Kumar", Email: "amit@complyhub.local", Role: "Staff"},
		{ID: "user4", Name: "John Doe", Email: "john.doe@innovate.com", Role: "Client", ClientID: "cli1"},
	}
	for _, u := range userSeeds {
		u.PasswordHash = passwordHash
		if err := s.store.InsertUser(ctx, u); err != nil {
			return err
		}
	}

	clientSeeds := []store.Client{
		{ID: "cli1", Name: "John Doe", Company: "Innovate Inc.", Email: "john.doe@innovate.com", JoinedDate: date(2023, 1, 15)},
		{ID: "cli2", Name: "Jane Smith", Company: "Solutions Co.", Email: "jane.smith@solutions.co", JoinedDate: date(2022, 11, 20)},
		{ID: "cli3", Name: "Peter Jones", Company: "Creative LLC", Email: "peter.j@creative.llc", JoinedDate: date(2023, 3, 10)},
		{ID: "cli4", Name: "Mary Garcia", Company: "Tech Forward", Email: "mary.g@techforward.com", JoinedDate: date(2021, 8, 5)},
	}
	for _, c := range clientSeeds {
		if err := s.store.InsertClient(ctx, c); err != nil {
			return err
		}
		s.indexClient(c)
	}

	templateSeeds := []store.ComplianceTemplate{
		{
			ID:             "com-gst",
			Name:           "GSTR-3B Monthly Filing",
			Description:    "Monthly Goods and Services Tax return filing.",
			Frequency:      store.FrequencyMonthly,
			DueDay:         20,
			DueMonthOffset: 1,
			AutoRecurrence: true,
			RequiredDocuments: []store.RequiredDocument{
				{ID: "gst-doc-1", Name: "Sales Ledger", Type: store.TypeGST, Position: 1},
				{ID: "gst-doc-2", Name: "Purchase Ledger", Type: store.TypeGST, Position: 2},
				{ID: "gst-doc-3", Name: "E-Way Bills Report", Type: store.TypeGST, Position: 3},
			},
		},
		{
			ID:             "com-roc",
			Name:           "ROC Annual Filing (AOC-4)",
			Description:    "Registrar of Companies annual financial statement filing.",
			Frequency:      store.FrequencyAnnually,
			DueDay:         30,
			DueMonthOffset: 10,
			AutoRecurrence: true,
			RequiredDocuments: []store.RequiredDocument{
				{ID: "roc-doc-1", Name: "Audited Balance Sheet", Type: store.TypeFinancial, Position: 1},
				{ID: "roc-doc-2", Name: "Profit & Loss Statement", Type: store.TypeFinancial, Position: 2},
				{ID: "roc-doc-3", Name: "Director's Report", Type: store.TypeLegal, Position: 3},
			},
		},
		{
			ID:             "com-it",
			Name:           "Income Tax Return (ITR)",
			Description:    "Annual income tax return filing for the company.",
			Frequency:      store.FrequencyAnnually,
			DueDay:         31,
			DueMonthOffset: 7,
			AutoRecurrence: true,
			RequiredDocuments: []store.RequiredDocument{
				{ID: "it-doc-1", Name: "Form 26AS", Type: store.TypeIT, Position: 1},
				{ID: "it-doc-2", Name: "Capital Gains Statement", Type: store.TypeFinancial, Position: 2},
			},
		},
		{
			ID:             "com-kyc",
			Name:           "KYC Verification",
			Description:    "One-time Know Your Customer identity verification.",
			Frequency:      store.FrequencyOneTime,
			DueDay:         15,
			DueMonthOffset: 0,
			AutoRecurrence: false,
			RequiredDocuments: []store.RequiredDocument{
				{ID: "kyc-doc-1", Name: "PAN Card Copy", Type: store.TypeIDProof, Position: 1},
				{ID: "kyc-doc-2", Name: "Proof of Address (Utility Bill)", Type: store.TypeIDProof, Position: 2},
				{ID: "kyc-doc-3", Name: "GST Registration Certificate", Type: store.TypeLicense, Position: 3},
			},
		},
	}
	for _, t := range templateSeeds {
		if err := s.store.InsertTemplate(ctx, t); err != nil {
			return err
		}
	}

	requestSeeds := []store.DocumentRequest{
		{
			ID:           "req1",
			ClientID:     "cli3",
			ComplianceID: "com-roc",
			Status:       store.StatusPending,
			RequestDate:  date(2024, 6, 1),
			DueDate:      date(2024, 6, 30),
			PortalToken:  util.NewToken(),
			Documents: []store.ChecklistItem{
				{ID: util.NewID("chk"), Name: "Audited Balance Sheet", Position: 1},
				{ID: util.NewID("chk"), Name: "Director's Report", Position: 2},
			},
		},
		{
			ID:           "req2",
			ClientID:     "cli2",
			ComplianceID: "com-kyc",
			Status:       store.StatusApproved,
			RequestDate:  date(2024, 5, 10),
			DueDate:      date(2024, 5, 25),
			PortalToken:  util.NewToken(),
			Documents: []store.ChecklistItem{
				{ID: util.NewID("chk"), Name: "PAN Card Copy", Position: 1},
				{ID: util.NewID("chk"), Name: "Recent Utility Bill", Position: 2},
			},
		},
		{
			ID:           "req3",
			ClientID:     "cli1",
			ComplianceID: "com-gst",
			Status:       store.StatusClarificationNeeded,
			RequestDate:  date(2024, 2, 20),
			DueDate:      date(2024, 3, 15),
			PortalToken:  util.NewToken(),
			Documents: []store.ChecklistItem{
				{ID: util.NewID("chk"), Name: "Sales Ledger", Position: 1},
				{ID: util.NewID("chk"), Name: "Purchase Ledger", Position: 2},
			},
		},
	}
	for _, r := range requestSeeds {
		if err := s.store.InsertRequest(ctx, r); err != nil {
			return err
		}
	}

	// The clarification thread on req3 goes through AppendComment so it lands
	// exactly like a live comment would. req3 is already Clarification Needed,
	// so the forced transition is a no-op.
	threadSeeds := []store.Comment{
		{ID: util.NewID("cmt"), RequestID: "req3", Author: "John Doe", Text: "I have uploaded the sales ledger, but the purchase ledger for last week is still pending from my accounts team. Will upload by EOD."},
		{ID: util.NewID("cmt"), RequestID: "req3", Author: "Amit Kumar", Text: "Thanks for the update, John. Please upload it as soon as possible to avoid delays."},
	}
	for _, comment := range threadSeeds {
		if err := s.store.AppendComment(ctx, comment); err != nil {
			return err
		}
	}

	now := s.now()
	expiringSoon := now.AddDate(0, 0, 15)
	pastExpiry := date(2024, 4, 30)
	submitted1 := date(2024, 3, 5)
	submitted2 := date(2024, 5, 20)
	submitted3 := date(2024, 5, 18)
	submitted4 := date(2024, 6, 15)

	documentSeeds := []store.Document{
		{
			ID: "doc1", Name: "Sales Ledger", ClientID: "cli1", ComplianceID: "com-gst", RequestID: "req3",
			Status: store.StatusApproved, Type: store.TypeGST, SubmittedDate: &submitted1,
			DriveLink: "https://drive.google.com/d/Innovate_Inc/req3/Sales_Ledger",
			VersionHistory: []store.DocumentVersion{
				{Version: 1, Status: store.StatusReceived, Notes: "Initial submission by client.", UpdatedBy: "John Doe", UpdatedAt: date(2024, 3, 5)},
				{Version: 2, Status: store.StatusUnderReview, Notes: "Review started.", UpdatedBy: "Amit Kumar", UpdatedAt: date(2024, 3, 6)},
				{Version: 3, Status: store.StatusApproved, Notes: "Looks good.", UpdatedBy: "Priya Patel", UpdatedAt: date(2024, 3, 7)},
			},
		},
		{
			ID: "doc2", Name: "PAN Card Copy", ClientID: "cli2", ComplianceID: "com-kyc", RequestID: "req2",
			Status: store.StatusUnderReview, Type: store.TypeIDProof, SubmittedDate: &submitted2, ExpiryDate: ptrTime(date(2028, 8, 15)),
			VersionHistory: []store.DocumentVersion{
				{Version: 1, Status: store.StatusReceived, Notes: "Client uploaded.", UpdatedBy: "Jane Smith", UpdatedAt: date(2024, 5, 20)},
				{Version: 2, Status: store.StatusUnderReview, Notes: "Pending verification.", UpdatedBy: "Amit Kumar", UpdatedAt: date(2024, 5, 21)},
			},
		},
		{
			ID: "doc3", Name: "Audited Balance Sheet", ClientID: "cli3", ComplianceID: "com-roc", RequestID: "req1",
			Status: store.StatusPending, Type: store.TypeFinancial,
		},
		{
			ID: "doc5", Name: "Utility Bill", ClientID: "cli2", ComplianceID: "com-kyc", RequestID: "req2",
			Status: store.StatusRejected, Type: store.TypeIDProof, SubmittedDate: &submitted3,
			RejectionReason: "Bill is older than 3 months. Please provide a recent one.",
			VersionHistory: []store.DocumentVersion{
				{Version: 1, Status: store.StatusReceived, Notes: "Submitted.", UpdatedBy: "Jane Smith", UpdatedAt: date(2024, 5, 18)},
				{Version: 2, Status: store.StatusRejected, Notes: "Bill is too old.", UpdatedBy: "Amit Kumar", UpdatedAt: date(2024, 5, 19)},
			},
		},
		{
			ID: "doc7", Name: "Shop & Establishment License", ClientID: "cli3", ComplianceID: "com-kyc", RequestID: "req1",
			Status: store.StatusApproved, Type: store.TypeLicense, SubmittedDate: ptrTime(date(2024, 1, 10)), ExpiryDate: &pastExpiry,
		},
		{
			ID: "doc8", Name: "Driver's License", ClientID: "cli4", ComplianceID: "com-kyc", RequestID: "",
			Status: store.StatusReceived, Type: store.TypeIDProof, SubmittedDate: &submitted4, ExpiryDate: &expiringSoon,
		},
	}
	for _, d := range documentSeeds {
		if err := s.store.InsertDocument(ctx, d); err != nil {
			return err
		}
		s.indexDocument(ctx, d)
	}

	for _, r := range requestSeeds {
		if stored, err := s.store.GetRequest(ctx, r.ID); err == nil {
			s.reindexRequest(ctx, stored)
		}
	}
	return nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
