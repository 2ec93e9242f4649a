package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"jobradar-engine/internal/domain"
	"jobradar-engine/internal/normalize"
	"jobradar-engine/internal/rank"
)

// Row is one stored posting plus its ranking outcome.
type Row struct {
	ID       int64
	Posting  domain.Posting
	FitScore int
	Priority string
}

// UpsertAssessments writes every assessment, updating by tc_hash when the
// same title+company is already stored and falling back to
// insert-or-replace on url_hash.
func (d *DB) UpsertAssessments(ctx context.Context, assessments []rank.Assessment) error {
	if len(assessments) == 0 {
		return nil
	}
	now := time.Now().Format("2006-01-02T15:04:05")

	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range assessments {
		p := a.Posting
		urlHash := normalize.HashText(p.URL)
		tcHash := normalize.TitleCompanyHash(p.Title, p.Company)
		descHash := normalize.DescFingerprint(p.Description)
		analysis, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshal analysis url=%s: %w", p.URL, err)
		}

		res, err := tx.ExecContext(ctx, `
UPDATE jobs SET
  source=?, url=?, url_hash=?, title=?, company=?, location=?, employment_type=?,
  posted_at=?, description=?, desc_hash=?, analysis_json=?, fit_score=?, priority=?,
  created_at=?, deadline=?, is_open=?, status_text=?
WHERE tc_hash=?;`,
			p.Source, p.URL, urlHash, p.Title, p.Company, p.Location, p.EmploymentType,
			p.PostedAt, p.Description, descHash, string(analysis), a.FitScore, a.Priority,
			now, p.Deadline, boolToInt(p.IsOpen), p.StatusText, tcHash)
		if err != nil {
			return fmt.Errorf("update job url=%s: %w", p.URL, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			continue
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO jobs (
  source, url, url_hash, title, company, location, employment_type,
  posted_at, description, tc_hash, desc_hash, analysis_json,
  fit_score, priority, created_at, deadline, is_open, status_text
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(url_hash) DO UPDATE SET
  source=excluded.source, url=excluded.url, title=excluded.title,
  company=excluded.company, location=excluded.location,
  employment_type=excluded.employment_type, posted_at=excluded.posted_at,
  description=excluded.description, tc_hash=excluded.tc_hash,
  desc_hash=excluded.desc_hash, analysis_json=excluded.analysis_json,
  fit_score=excluded.fit_score, priority=excluded.priority,
  created_at=excluded.created_at, deadline=excluded.deadline,
  is_open=excluded.is_open, status_text=excluded.status_text;`,
			p.Source, p.URL, urlHash, p.Title, p.Company, p.Location, p.EmploymentType,
			p.PostedAt, p.Description, tcHash, descHash, string(analysis),
			a.FitScore, a.Priority, now, p.Deadline, boolToInt(p.IsOpen), p.StatusText); err != nil {
			return fmt.Errorf("insert job url=%s: %w", p.URL, err)
		}
	}
	return tx.Commit()
}

// PruneClosed deletes stored rows matching postings that came back closed in
// this run, by url_hash and tc_hash. Returns the number of deleted rows.
func (d *DB) PruneClosed(ctx context.Context, postings []domain.Posting) (int64, error) {
	var urlHashes, tcHashes []any
	for _, p := range postings {
		if p.IsOpen {
			continue
		}
		if p.URL != "" {
			urlHashes = append(urlHashes, normalize.HashText(p.URL))
		}
		tcHashes = append(tcHashes, normalize.TitleCompanyHash(p.Title, p.Company))
	}
	if len(urlHashes) == 0 && len(tcHashes) == 0 {
		return 0, nil
	}

	var deleted int64
	for _, batch := range []struct {
		column string
		hashes []any
	}{
		{"url_hash", urlHashes},
		{"tc_hash", tcHashes},
	} {
		if len(batch.hashes) == 0 {
			continue
		}
		placeholders := strings.TrimRight(strings.Repeat("?,", len(batch.hashes)), ",")
		res, err := d.Pool.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM jobs WHERE %s IN (%s);`, batch.column, placeholders),
			batch.hashes...)
		if err != nil {
			return deleted, fmt.Errorf("prune closed by %s: %w", batch.column, err)
		}
		n, _ := res.RowsAffected()
		deleted += n
	}
	if deleted > 0 {
		log.Printf("[store] pruned closed rows=%d", deleted)
	}
	return deleted, nil
}

// TopJobs returns the highest-scoring stored rows, newest first among ties.
func (d *DB) TopJobs(ctx context.Context, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT id, source, url, title, company, location, employment_type,
       posted_at, description, fit_score, priority, deadline, is_open, status_text
FROM jobs
ORDER BY fit_score DESC, created_at DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var isOpen int
		if err := rows.Scan(&r.ID, &r.Posting.Source, &r.Posting.URL, &r.Posting.Title,
			&r.Posting.Company, &r.Posting.Location, &r.Posting.EmploymentType,
			&r.Posting.PostedAt, &r.Posting.Description, &r.FitScore, &r.Priority,
			&r.Posting.Deadline, &isOpen, &r.Posting.StatusText); err != nil {
			return nil, err
		}
		r.Posting.IsOpen = isOpen != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountJobs reports the stored row count, used by the run summary.
func (d *DB) CountJobs(ctx context.Context) (int, error) {
	var n int
	err := d.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs;`).Scan(&n)
	return n, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
