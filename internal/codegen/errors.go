package codegen

import "fmt"

// GenerationError is returned by Generate for any upstream or parse
// failure. There are no partial results.
type GenerationError struct {
	// Stage is "request", "parse" or "validate".
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("code generation failed (%s): %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
