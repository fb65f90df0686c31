package upstream

import "fmt"

// FetchError reports a failed upstream call.
type FetchError struct {
	Endpoint string
	Op       string // "request", "status", "decode"
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.Endpoint, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusError carries a non-200 upstream response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d, body: %s", e.Code, e.Body)
}
