package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across clients, documents, and requests
// using plainto_tsquery and ts_rank, with ts_headline for snippets. Clients
// and documents use their stored fts columns; requests match on joined
// client and template names computed at query time.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text}
	argN := 2

	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultClient {
		clientWhere := "c.fts @@ " + tsQuery
		if q.ClientID != "" {
			clientWhere += fmt.Sprintf(" AND c.id = $%d", argN)
			args = append(args, q.ClientID)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'client'::text AS type, c.id, c.name AS title,
				ts_headline('english', c.company || ' ' || c.email, %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				c.id AS client_id,
				''::text AS status,
				ts_rank(c.fts, %s) AS rank
			FROM clients c
			WHERE %s`, tsQuery, tsQuery, clientWhere))
	}

	if q.FilterType == "" || q.FilterType == ResultDocument {
		docWhere := "d.fts @@ " + tsQuery
		if q.ClientID != "" {
			docWhere += fmt.Sprintf(" AND d.client_id = $%d", argN)
			args = append(args, q.ClientID)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'document'::text AS type, d.id, d.name AS title,
				ts_headline('english', coalesce(c.name, '') || ' ' || d.doc_type, %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				d.client_id,
				d.status,
				ts_rank(d.fts, %s) AS rank
			FROM documents d
			LEFT JOIN clients c ON c.id = d.client_id
			WHERE %s`, tsQuery, tsQuery, docWhere))
	}

	if q.FilterType == "" || q.FilterType == ResultRequest {
		reqVector := "to_tsvector('english', coalesce(c.name, '') || ' ' || coalesce(ct.name, '') || ' ' || r.status)"
		reqWhere := reqVector + " @@ " + tsQuery
		if q.ClientID != "" {
			reqWhere += fmt.Sprintf(" AND r.client_id = $%d", argN)
			args = append(args, q.ClientID)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'request'::text AS type, r.id, coalesce(ct.name, 'Document Request') AS title,
				ts_headline('english', coalesce(c.name, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				r.client_id,
				r.status,
				ts_rank(%s, %s) AS rank
			FROM document_requests r
			LEFT JOIN clients c ON c.id = r.client_id
			LEFT JOIN compliance_templates ct ON ct.id = r.compliance_id
			WHERE %s`, tsQuery, reqVector, tsQuery, reqWhere))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, client_id, status
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.ClientID, &r.Status); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]ClientRecord, []DocumentRecord, []RequestRecord, error) {
	clientRows, err := p.db.QueryContext(ctx, `
		SELECT id, name, company, email
		FROM clients
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load clients: %w", err)
	}
	defer clientRows.Close()

	clients := make([]ClientRecord, 0)
	for clientRows.Next() {
		var c ClientRecord
		if err := clientRows.Scan(&c.ID, &c.Name, &c.Company, &c.Email); err != nil {
			return nil, nil, nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := clientRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate clients: %w", err)
	}

	docRows, err := p.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.doc_type, d.status, d.client_id, coalesce(c.name, '')
		FROM documents d
		LEFT JOIN clients c ON c.id = d.client_id
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load documents: %w", err)
	}
	defer docRows.Close()

	documents := make([]DocumentRecord, 0)
	for docRows.Next() {
		var d DocumentRecord
		if err := docRows.Scan(&d.ID, &d.Name, &d.Type, &d.Status, &d.ClientID, &d.ClientName); err != nil {
			return nil, nil, nil, fmt.Errorf("scan document: %w", err)
		}
		documents = append(documents, d)
	}
	if err := docRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate documents: %w", err)
	}

	requestRows, err := p.db.QueryContext(ctx, `
		SELECT r.id, r.client_id, coalesce(c.name, ''), coalesce(ct.name, ''), r.status, to_char(r.due_date, 'YYYY-MM-DD')
		FROM document_requests r
		LEFT JOIN clients c ON c.id = r.client_id
		LEFT JOIN compliance_templates ct ON ct.id = r.compliance_id
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load requests: %w", err)
	}
	defer requestRows.Close()

	requests := make([]RequestRecord, 0)
	for requestRows.Next() {
		var r RequestRecord
		if err := requestRows.Scan(&r.ID, &r.ClientID, &r.ClientName, &r.TemplateName, &r.Status, &r.DueDate); err != nil {
			return nil, nil, nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := requestRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate requests: %w", err)
	}

	return clients, documents, requests, nil
}
