package models

import "fmt"

// Outcome represents the result of an unsubscribe request
type Outcome int

const (
	OutcomeNetworkError Outcome = iota
	OutcomeSuccess
	OutcomeHTTPFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeHTTPFailure:
		return "http_failure"
	case OutcomeNetworkError:
		return "network_error"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// DispatchResult records what happened when a single URL was requested.
// StatusCode is set for Success and HTTPFailure, Message for NetworkError.
type DispatchResult struct {
	URL        string
	Outcome    Outcome
	StatusCode int
	Message    string
}

// Succeeded reports whether the request returned a 2xx status
func (r DispatchResult) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

func (r DispatchResult) String() string {
	switch r.Outcome {
	case OutcomeSuccess:
		return fmt.Sprintf("%s: success (%d)", r.URL, r.StatusCode)
	case OutcomeHTTPFailure:
		return fmt.Sprintf("%s: http failure (%d)", r.URL, r.StatusCode)
	default:
		return fmt.Sprintf("%s: network error: %s", r.URL, r.Message)
	}
}
