package domain

// Posting is the canonical job record produced by normalization. After the
// detail-merge step it is treated as immutable.
type Posting struct {
	Source         string `json:"source"`
	URL            string `json:"url"`
	Title          string `json:"title"`
	Company        string `json:"company"`
	Location       string `json:"location"`
	EmploymentType string `json:"employment_type"`
	PostedAt       string `json:"posted_at"` // YYYY-MM-DD
	Description    string `json:"description"`
	SourceJobID    string `json:"source_job_id,omitempty"`
	Deadline       string `json:"deadline,omitempty"` // YYYY-MM-DD, empty when unknown
	IsOpen         bool   `json:"is_open"`
	StatusText     string `json:"status_text,omitempty"`
}

// PartialRecord is what adapters emit: a string-keyed map with at least "url".
// Every other canonical field is optional and backfilled by the normalizer.
type PartialRecord map[string]string

// Merge overlays detail fields on top of a list-stage record. Detail wins on
// conflict; absent detail fields keep the list value.
func (r PartialRecord) Merge(detail PartialRecord) PartialRecord {
	out := make(PartialRecord, len(r)+len(detail))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range detail {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// SourceResult is the outcome of harvesting one source. Err is set when the
// adapter itself failed; that is distinct from a clean run that yielded zero
// postings.
type SourceResult struct {
	Source   string
	Tier     int
	Postings []Posting
	Err      error
	Skipped  bool // health breaker kept the source from running at all
}
