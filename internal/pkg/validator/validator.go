package validator

// Validator checks a struct against its validation tags.
type Validator interface {
	// Validate returns nil when data passes every rule, or an error describing
	// the failed fields.
	Validate(data any) error
}
