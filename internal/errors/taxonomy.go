package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTaskNotFound          = errors.New("task not found")
	ErrMissingDueDate        = errors.New("task has no due date; choose a target date in the planner first")
	ErrMentionTargetNotFound = errors.New("planning contact not found for @mention; set WRIKE_PLANNING_CONTACT_ID or create a contact named 'Planning'")
	ErrInvalidDateFormat     = errors.New("invalid date format, expected YYYY-MM-DD")
	ErrValidation            = errors.New("validation failed")
)

// ReauthGuidance is appended to authentication failures that cannot be
// recovered by a refresh.
const ReauthGuidance = "re-authentication required: obtain new Wrike tokens and update the credentials file"

// AuthError reports a missing, expired or unrefreshable credential.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg + ". " + ReauthGuidance
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// UpstreamError is a non-2xx answer from the remote task store.
type UpstreamError struct {
	Status  int
	Code    string
	Message string
}

func (e *UpstreamError) Error() string {
	detail := e.Message
	if detail == "" {
		detail = e.Code
	}
	return fmt.Sprintf("wrike request failed (%d): %s", e.Status, detail)
}

// MentionsField reports whether the upstream message refers to field and
// any of the given tokens, case-insensitively.
func (e *UpstreamError) MentionsField(field string, tokens ...string) bool {
	msg := strings.ToLower(e.Message + " " + e.Code)
	if !strings.Contains(msg, strings.ToLower(field)) {
		return false
	}
	for _, token := range tokens {
		if strings.Contains(msg, token) {
			return true
		}
	}
	return false
}

// Validationf builds an ErrValidation-wrapping error.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
