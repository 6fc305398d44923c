package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Nurdvu1et/email-archiver/internal/textutil"
)

// ErrDuplicateEmail indicates a message identifier that is already
// archived. The pipeline treats it as "already done, skip".
var ErrDuplicateEmail = errors.New("email already archived")

// attachmentSeparator joins the ordered attachment filenames into the
// single text column they are stored in.
const attachmentSeparator = ", "

// searchLimit caps how many rows a single search may return.
const searchLimit = 100

// ArchivedEmail is the metadata recorded for one archived message.
type ArchivedEmail struct {
	EmailID      string
	Subject      string
	Sender       string
	DateReceived string    // decoded Date header, stored verbatim
	DateSort     time.Time // parsed date used for result ordering
	Attachments  []string  // sanitized filenames, in extraction order
	ArchivePath  string
}

// SearchResult is one row returned by search and browse queries.
type SearchResult struct {
	ID           int64    `json:"id"`
	EmailID      string   `json:"email_id"`
	Subject      string   `json:"subject"`
	Sender       string   `json:"sender"`
	DateReceived string   `json:"date"`
	Attachments  []string `json:"attachments"`
	ArchivePath  string   `json:"path"`
}

// RecordArchived inserts the email record and its keyword index rows in
// a single transaction. The keyword set is derived from subject and
// sender. Either everything lands or nothing does; a duplicate message
// identifier returns ErrDuplicateEmail.
func (s *Store) RecordArchived(rec *ArchivedEmail) error {
	keywords := textutil.Keywords(rec.Subject, rec.Sender)

	err := s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO archived_emails (email_id, subject, sender, date_received, date_sort, attachments, archive_path)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.EmailID, rec.Subject, rec.Sender, rec.DateReceived,
			rec.DateSort.UTC().Format(time.RFC3339),
			strings.Join(rec.Attachments, attachmentSeparator),
			rec.ArchivePath,
		)
		if err != nil {
			return fmt.Errorf("insert email: %w", err)
		}
		rowID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		for _, keyword := range keywords {
			if _, err := tx.Exec(
				`INSERT INTO search_index (email_id, keyword) VALUES (?, ?)`,
				rowID, keyword,
			); err != nil {
				return fmt.Errorf("insert keyword %q: %w", keyword, err)
			}
		}
		return nil
	})
	if err != nil {
		if isSQLiteError(err, "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, rec.EmailID)
		}
		return err
	}
	return nil
}

// SearchArchived returns up to 100 records matching the query as a
// case-insensitive substring of subject, sender, attachment list, date,
// or an indexed keyword. Results are ordered newest first.
func (s *Store) SearchArchived(query string) ([]SearchResult, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	rows, err := s.db.Query(`
		SELECT DISTINCT e.id, e.email_id, e.subject, e.sender, e.date_received, e.attachments, e.archive_path
		FROM archived_emails e
		LEFT JOIN search_index k ON k.email_id = e.id
		WHERE LOWER(e.subject) LIKE ?
		   OR LOWER(e.sender) LIKE ?
		   OR LOWER(e.attachments) LIKE ?
		   OR LOWER(e.date_received) LIKE ?
		   OR k.keyword LIKE ?
		ORDER BY e.date_sort DESC, e.id DESC
		LIMIT ?`,
		pattern, pattern, pattern, pattern, pattern, searchLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// ListArchived returns a page of records ordered newest first, plus the
// total record count.
func (s *Store) ListArchived(offset, limit int) ([]SearchResult, int64, error) {
	var total int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM archived_emails`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count emails: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT id, email_id, subject, sender, date_received, attachments, archive_path
		FROM archived_emails
		ORDER BY date_sort DESC, id DESC
		LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list emails: %w", err)
	}
	defer rows.Close()

	results, err := scanResults(rows)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// GetArchived returns a record by its row ID, or nil when absent.
func (s *Store) GetArchived(id int64) (*SearchResult, error) {
	row := s.db.QueryRow(`
		SELECT id, email_id, subject, sender, date_received, attachments, archive_path
		FROM archived_emails WHERE id = ?`, id)

	var r SearchResult
	var attachments sql.NullString
	err := row.Scan(&r.ID, &r.EmailID, &r.Subject, &r.Sender, &r.DateReceived, &attachments, &r.ArchivePath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get email %d: %w", id, err)
	}
	r.Attachments = splitAttachments(attachments.String)
	return &r, nil
}

// scanResults reads SearchResult rows in column order id, email_id,
// subject, sender, date_received, attachments, archive_path.
func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var attachments sql.NullString
		if err := rows.Scan(&r.ID, &r.EmailID, &r.Subject, &r.Sender, &r.DateReceived, &attachments, &r.ArchivePath); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Attachments = splitAttachments(attachments.String)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func splitAttachments(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, attachmentSeparator)
}

// Stats holds archive statistics.
type Stats struct {
	EmailCount      int64
	KeywordCount    int64
	SenderCount     int64
	LastProcessedAt string
	DatabaseSize    int64
}

// GetStats returns statistics about the archive. Missing tables (store
// never initialized) yield zero counts rather than an error.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}

	queries := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM archived_emails", &stats.EmailCount},
		{"SELECT COUNT(*) FROM search_index", &stats.KeywordCount},
		{"SELECT COUNT(DISTINCT sender) FROM archived_emails", &stats.SenderCount},
	}
	for _, q := range queries {
		if err := s.db.QueryRow(q.query).Scan(q.dest); err != nil {
			if isSQLiteError(err, "no such table") {
				continue
			}
			return nil, fmt.Errorf("get stats %q: %w", q.query, err)
		}
	}

	var last sql.NullString
	err := s.db.QueryRow("SELECT MAX(processed_at) FROM archived_emails").Scan(&last)
	if err != nil && !isSQLiteError(err, "no such table") {
		return nil, fmt.Errorf("get last processed: %w", err)
	}
	stats.LastProcessedAt = last.String

	if info, err := os.Stat(s.dbPath); err == nil {
		stats.DatabaseSize = info.Size()
	}

	return stats, nil
}
