package model

// Severity grades a validation finding.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ValidationIssue is a single finding from one check against one field.
type ValidationIssue struct {
	Severity Severity
	Check    string
	Field    string
	Message  string
}

// ValidationResult is the verdict for one validation run. Issues keep the
// order they were produced in; warnings never flip Valid to false.
type ValidationResult struct {
	Valid    bool
	Bypassed bool
	Issues   []ValidationIssue
}

// ErrorCount returns the number of error-severity issues.
func (r *ValidationResult) ErrorCount() int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity == SeverityError {
			n++
		}
	}
	return n
}
