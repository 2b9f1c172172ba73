package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultClient   ResultType = "client"
	ResultDocument ResultType = "document"
	ResultRequest  ResultType = "request"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type     ResultType `json:"type"`
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Snippet  string     `json:"snippet"`
	ClientID string     `json:"clientId"`
	Status   string     `json:"status,omitempty"`
}

// Query describes a search request. A non-empty ClientID scopes every hit to
// that client; this is how Client-role logins are kept inside their own data.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	ClientID   string
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexClient(c ClientRecord) error
	IndexDocument(d DocumentRecord) error
	IndexRequest(r RequestRecord) error
	DeleteClient(id string) error
	DeleteDocument(id string) error
	DeleteRequest(id string) error
}

// ClientRecord is the data we index for a client.
type ClientRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email"`
}

// DocumentRecord is the data we index for a tracked document.
type DocumentRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	ClientID   string `json:"clientId"`
	ClientName string `json:"clientName"`
}

// RequestRecord is the data we index for a document request.
type RequestRecord struct {
	ID           string `json:"id"`
	ClientID     string `json:"clientId"`
	ClientName   string `json:"clientName"`
	TemplateName string `json:"templateName"`
	Status       string `json:"status"`
	DueDate      string `json:"dueDate"`
}
