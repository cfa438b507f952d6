package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ScanType enumerates the kinds of analysis work a scan represents.
type ScanType string

const (
	ScanFull           ScanType = "FULL"
	ScanAdsOnly        ScanType = "ADS_ONLY"
	ScanPlatformDetect ScanType = "PLATFORM_DETECT"
	ScanSitemap        ScanType = "SITEMAP"
	ScanProfileUpdate  ScanType = "PROFILE_UPDATE"
	ScanQuick          ScanType = "QUICK"
)

// RunStatus is the shared lifecycle for scans and keyword runs:
// PENDING → RUNNING → {COMPLETED, FAILED, TIMEOUT, CANCELLED, RATE_LIMITED}.
type RunStatus string

const (
	RunPending     RunStatus = "PENDING"
	RunRunning     RunStatus = "RUNNING"
	RunCompleted   RunStatus = "COMPLETED"
	RunFailed      RunStatus = "FAILED"
	RunTimeout     RunStatus = "TIMEOUT"
	RunCancelled   RunStatus = "CANCELLED"
	RunRateLimited RunStatus = "RATE_LIMITED"
)

// MaxRunRetries is the default retry budget for failed scans and runs.
const MaxRunRetries = 3

// retryable reports whether the status allows another attempt at all.
func (s RunStatus) retryable() bool {
	return s == RunFailed || s == RunTimeout || s == RunRateLimited
}

// Scan is one unit of analysis work against a page.
type Scan struct {
	ID          string          `json:"id" db:"id"`
	PageID      string          `json:"page_id" db:"page_id"`
	Type        ScanType        `json:"type" db:"type"`
	Status      RunStatus       `json:"status" db:"status"`
	Result      json.RawMessage `json:"result" db:"result"`
	Priority    int             `json:"priority" db:"priority"`
	RetryCount  int             `json:"retry_count" db:"retry_count"`
	MaxRetries  int             `json:"max_retries" db:"max_retries"`
	Error       string          `json:"error_message" db:"error_message"`
	StartedAt   *time.Time      `json:"started_at" db:"started_at"`
	CompletedAt *time.Time      `json:"completed_at" db:"completed_at"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// NewScan creates a PENDING scan with a fresh UUID v4 id.
func NewScan(pageID string, t ScanType) *Scan {
	return &Scan{
		ID:         uuid.New().String(),
		PageID:     pageID,
		Type:       t,
		Status:     RunPending,
		MaxRetries: MaxRunRetries,
		CreatedAt:  time.Now().UTC(),
	}
}

// CanRetry reports whether the scan may be re-attempted.
func (s *Scan) CanRetry() bool {
	return s.Status.retryable() && s.RetryCount < s.MaxRetries
}

// IsTerminal reports whether the scan will never run again: either it
// finished cleanly, was cancelled, or exhausted its retries.
func (s *Scan) IsTerminal() bool {
	switch s.Status {
	case RunCompleted, RunCancelled:
		return true
	case RunFailed, RunTimeout, RunRateLimited:
		return !s.CanRetry()
	}
	return false
}

// Retry returns a fresh PENDING scan carrying the incremented counter.
// The receiver is left untouched (its failed attempt stays on record).
func (s *Scan) Retry() *Scan {
	return &Scan{
		ID:         uuid.New().String(),
		PageID:     s.PageID,
		Type:       s.Type,
		Status:     RunPending,
		Priority:   s.Priority,
		RetryCount: s.RetryCount + 1,
		MaxRetries: s.MaxRetries,
		CreatedAt:  time.Now().UTC(),
	}
}

// KeywordRun is one keyword-search invocation against the ads library.
type KeywordRun struct {
	ID          string          `json:"id" db:"id"`
	Keyword     string          `json:"keyword" db:"keyword"`
	Country     string          `json:"country" db:"country"`
	Language    string          `json:"language" db:"language"`
	Status      RunStatus       `json:"status" db:"status"`
	Result      json.RawMessage `json:"result" db:"result"`
	RetryCount  int             `json:"retry_count" db:"retry_count"`
	MaxRetries  int             `json:"max_retries" db:"max_retries"`
	Error       string          `json:"error_message" db:"error_message"`
	StartedAt   *time.Time      `json:"started_at" db:"started_at"`
	CompletedAt *time.Time      `json:"completed_at" db:"completed_at"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// NewKeywordRun creates a PENDING run for a normalized keyword.
func NewKeywordRun(keyword, country, language string) *KeywordRun {
	return &KeywordRun{
		ID:         uuid.New().String(),
		Keyword:    keyword,
		Country:    country,
		Language:   language,
		Status:     RunPending,
		MaxRetries: MaxRunRetries,
		CreatedAt:  time.Now().UTC(),
	}
}

// CanRetry reports whether the run may be re-attempted.
func (r *KeywordRun) CanRetry() bool {
	return r.Status.retryable() && r.RetryCount < r.MaxRetries
}

// IsTerminal mirrors Scan.IsTerminal for keyword runs.
func (r *KeywordRun) IsTerminal() bool {
	switch r.Status {
	case RunCompleted, RunCancelled:
		return true
	case RunFailed, RunTimeout, RunRateLimited:
		return !r.CanRetry()
	}
	return false
}

// Retry returns a fresh PENDING run with the incremented counter.
func (r *KeywordRun) Retry() *KeywordRun {
	return &KeywordRun{
		ID:         uuid.New().String(),
		Keyword:    r.Keyword,
		Country:    r.Country,
		Language:   r.Language,
		Status:     RunPending,
		RetryCount: r.RetryCount + 1,
		MaxRetries: r.MaxRetries,
		CreatedAt:  time.Now().UTC(),
	}
}
