package artifacts

import "fmt"

// LoadError reports a missing, unreadable or inconsistent artifact.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load artifacts: %v", e.Err)
	}
	return fmt.Sprintf("load artifacts (%s): %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
