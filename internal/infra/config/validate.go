package config

import "fmt"

const maxPort = 65535

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

// ValidatePort checks that port is in 1..65535.
func ValidatePort(field string, port int) error {
	if port < 1 || port > maxPort {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be between 1 and %d, got %d", maxPort, port)}
	}
	return nil
}

// ValidatePositive checks that n is greater than zero.
func ValidatePositive[N ~int | ~int64 | ~float64](field string, n N) error {
	if n <= 0 {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be positive, got %v", n)}
	}
	return nil
}
