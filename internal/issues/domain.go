// Package issues implements civic issue reports: creation by citizens,
// triage by government accounts, and comments. Every repository call runs
// under an active security scope.
package issues

import (
	"strings"
	"time"
)

// Priority ranks how urgent a report is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Status tracks the triage lifecycle of a report.
type Status string

const (
	StatusReported   Status = "reported"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusVerified   Status = "verified"
)

// ParsePriority normalizes a priority value.
func ParsePriority(raw string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(raw))) {
	case PriorityLow:
		return PriorityLow, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityHigh:
		return PriorityHigh, true
	}
	return "", false
}

// ParseStatus normalizes a status value.
func ParseStatus(raw string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusReported:
		return StatusReported, true
	case StatusInProgress:
		return StatusInProgress, true
	case StatusResolved:
		return StatusResolved, true
	case StatusVerified:
		return StatusVerified, true
	}
	return "", false
}

// NormalizeCategory lowercases and trims a category so "ROAD " and "road"
// count as the same bucket.
func NormalizeCategory(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// DefaultLanguage is applied when a submission does not name one.
const DefaultLanguage = "english"

// Issue is a civic issue report. OwnerUserID is set at creation and never
// changes; status, priority, assignee and notes change only through
// government updates.
type Issue struct {
	ID          int64     `json:"id"`
	OwnerUserID string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	Assignee    string    `json:"assignee,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	IsAnonymous bool      `json:"is_anonymous"`
	Language    string    `json:"language,omitempty"`
	ImageURLs   []string  `json:"image_url,omitempty"`
	AuthorName  string    `json:"author_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Comment is immutable once created and visible to whoever can view the
// parent issue.
type Comment struct {
	ID           int64     `json:"id"`
	IssueID      int64     `json:"issue_id"`
	AuthorUserID string    `json:"author_user_id"`
	AuthorName   string    `json:"author_name,omitempty"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateIssueRequest carries a new report submission.
type CreateIssueRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
	Category    string `json:"category" validate:"required,max=100"`
	Location    string `json:"location" validate:"required,max=300"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
	IsAnonymous bool     `json:"is_anonymous"`
	Language    string   `json:"language" validate:"omitempty,max=10"`
	ImageURLs   []string `json:"image_url" validate:"omitempty,max=10,dive,url,max=500"`
}

// UpdateIssueRequest carries the government-only triage fields. Absent
// fields are left untouched.
type UpdateIssueRequest struct {
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=reported in_progress resolved verified"`
	Priority *string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Assignee *string `json:"assignee,omitempty" validate:"omitempty,max=200"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// Empty reports whether no updatable field was supplied.
func (r UpdateIssueRequest) Empty() bool {
	return r.Status == nil && r.Priority == nil && r.Assignee == nil && r.Notes == nil
}

// AddCommentRequest carries a new comment submission.
type AddCommentRequest struct {
	Body string `json:"comment" validate:"required,max=2000"`
}

// ListFilters narrows a listing by exact match. Empty fields are ignored.
type ListFilters struct {
	Category string
	Status   string
	Priority string
}
