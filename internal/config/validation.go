package config

import (
	"fmt"
	"strings"
)

// ValidationError reports a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("field '%s': %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid field found in one pass, so an
// operator sees all problems with a definition at once instead of fixing
// them one at a time.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return "no validation errors"
	}
	if len(errs) == 1 {
		return errs[0].Error()
	}
	messages := make([]string, len(errs))
	for i, e := range errs {
		messages[i] = e.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors reports whether any validation error was recorded.
func (errs ValidationErrors) HasErrors() bool {
	return len(errs) > 0
}

// ValidatePipeline checks a pipeline definition against spec.md §6's
// Configuration constraints: startIndex >= 0, endIndex >= startIndex (or
// unbounded), and a non-empty name/extractor type.
func ValidatePipeline(p PipelineConfig) error {
	var errs ValidationErrors

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "is required"})
	}
	if strings.TrimSpace(p.ExtractorType) == "" {
		errs = append(errs, ValidationError{Field: "extractorType", Message: "is required"})
	}
	if p.StartIndex < 0 {
		errs = append(errs, ValidationError{Field: "startIndex", Message: "must be >= 0"})
	}
	if p.EndIndex != EndIndexUnbounded && p.EndIndex < p.StartIndex {
		errs = append(errs, ValidationError{Field: "endIndex", Message: "must be >= startIndex, or -1 for unbounded"})
	}
	if p.SubmissionSize < 0 {
		errs = append(errs, ValidationError{Field: "submissionSize", Message: "must be >= 0"})
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
