package jobscan

import "fmt"

// NavigationError is returned when the site could not be reached or did not land where expected.
type NavigationError struct {
	URL     string
	Message string
	Cause   error
}

func (e *NavigationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("navigation error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("navigation error for %s: %s", e.URL, e.Message)
}

func (e *NavigationError) Unwrap() error {
	return e.Cause
}

// TimeoutError is returned when a bounded wait expired. The unseen state is never guessed.
type TimeoutError struct {
	Operation string
	Cause     error
}

func (e *TimeoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("timeout error: %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("timeout error: %s", e.Operation)
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// ClassificationError is returned when rendered content cannot be mapped to the report model.
type ClassificationError struct {
	Message string
	Value   string
	Cause   error
}

func (e *ClassificationError) Error() string {
	msg := fmt.Sprintf("classification error: %s", e.Message)
	if e.Value != "" {
		msg += fmt.Sprintf(" (value %q)", e.Value)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *ClassificationError) Unwrap() error {
	return e.Cause
}

// UnimplementedRemediationError is returned when a correction modal has a heading
// no remediation routine handles.
type UnimplementedRemediationError struct {
	Heading string
	Finding string
}

func (e *UnimplementedRemediationError) Error() string {
	return fmt.Sprintf("remediation error: no remediation for modal %q opened from finding %q", e.Heading, e.Finding)
}
