package fetch

import "fmt"

// Kind classifies why a fetch ultimately failed.
type Kind string

const (
	KindNetwork       Kind = "network"
	KindTimeout       Kind = "timeout"
	KindHTTPStatus    Kind = "http_status"
	KindRenderTimeout Kind = "render_timeout"
)

// FetchError is returned when all attempts for a URL are exhausted. Kind
// reflects the classification of the final attempt's failure.
type FetchError struct {
	Kind   Kind
	URL    string
	Status int // set for KindHTTPStatus
	Err    error
}

func (e *FetchError) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
