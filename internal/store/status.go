package store

// DocumentStatus is shared by documents and document requests. There is no
// enforced transition graph: any status is reachable from any status, which
// matches how reviewers actually work (a rejected document can be resubmitted,
// an approved one can be pulled back for clarification).
type DocumentStatus string

const (
	StatusPending             DocumentStatus = "Pending"
	StatusReceived            DocumentStatus = "Received"
	StatusUnderReview         DocumentStatus = "Under Review"
	StatusApproved            DocumentStatus = "Approved"
	StatusRejected            DocumentStatus = "Rejected"
	StatusClarificationNeeded DocumentStatus = "Clarification Needed"
)

func AllStatuses() []DocumentStatus {
	return []DocumentStatus{
		StatusPending,
		StatusReceived,
		StatusUnderReview,
		StatusApproved,
		StatusRejected,
		StatusClarificationNeeded,
	}
}

func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReceived, StatusUnderReview, StatusApproved, StatusRejected, StatusClarificationNeeded:
		return true
	default:
		return false
	}
}

// DocumentType categorizes submitted artifacts for filtering and display.
type DocumentType string

const (
	TypeIDProof     DocumentType = "ID Proof"
	TypeFinancial   DocumentType = "Financial Statement"
	TypeLegal       DocumentType = "Legal Agreement"
	TypeOperational DocumentType = "Operational Form"
	TypeGST         DocumentType = "GST Filing"
	TypeTDS         DocumentType = "TDS Filing"
	TypeROC         DocumentType = "ROC Filing"
	TypeIT          DocumentType = "IT Filing"
	TypeLicense     DocumentType = "License/Registration"
	TypeOther       DocumentType = "Other"
)

// Frequency describes how often a compliance obligation recurs.
type Frequency string

const (
	FrequencyMonthly   Frequency = "Monthly"
	FrequencyQuarterly Frequency = "Quarterly"
	FrequencyAnnually  Frequency = "Annually"
	FrequencyOneTime   Frequency = "One-Time"
)
