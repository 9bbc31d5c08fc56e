package source

import "fmt"

// FetchError is a failed sheet download.
type FetchError struct {
	URL     string
	Status  int
	Message string
	Cause   error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Temporary reports whether retrying might succeed.
func (e *FetchError) Temporary() bool {
	return e.Status == 0 || e.Status == 429 || e.Status >= 500
}
