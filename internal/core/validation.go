package core

// validation.go checks add/edit form input before it reaches a RecordStore.
//
// Form validation is stricter than the ingestion predicate: a CSV row only
// needs to be non-empty to survive an upload, while a form submission must
// fill every required field and may not leave a status set to "Other".

import (
	"fmt"
	"strings"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // Field/column name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors is the full set of problems found in one submission.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// ByField indexes messages by field name for form rendering.
func (es ValidationErrors) ByField() map[string]string {
	out := make(map[string]string, len(es))
	for _, e := range es {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

// ValidateForm checks f against the dataset's form specs and returns every
// problem found, or nil when the submission is acceptable.
func ValidateForm(ds Dataset, f Fields) ValidationErrors {
	var errs ValidationErrors

	for _, spec := range ds.FormFields {
		value := f.String(spec.Name)

		if spec.Required {
			check := value
			if spec.Trim {
				check = strings.TrimSpace(value)
			}
			if check == "" {
				errs = append(errs, ValidationError{
					Field:   spec.Name,
					Value:   value,
					Message: spec.Label + " is required.",
				})
				continue
			}
		}

		if spec.allowsOther() && value == OtherOption {
			errs = append(errs, ValidationError{
				Field:   spec.Name,
				Value:   value,
				Message: `Please specify the status if "Other" is selected.`,
			})
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ResolveOther replaces an "Other" selection with the custom value typed
// alongside it. Blank custom values leave the selection untouched so that
// ValidateForm can report it.
func ResolveOther(selected, custom string) string {
	if selected == OtherOption && strings.TrimSpace(custom) != "" {
		return strings.TrimSpace(custom)
	}
	return selected
}
