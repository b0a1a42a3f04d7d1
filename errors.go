package pmcalc

import "fmt"

// NetworkError reports a failure to retrieve a page: the transport failed,
// timed out, or the server answered with a non-success status.
type NetworkError struct {
	URL        string
	StatusCode int  // 0 when no response was received
	Timeout    bool // the request ran out of time
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("cannot http GET %s: status %d", e.URL, e.StatusCode)
	case e.Timeout:
		return fmt.Sprintf("cannot http GET %s: timeout: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("cannot http GET %s: %v", e.URL, e.Err)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ExtractionError reports that retrieved content did not carry a usable price.
type ExtractionError struct {
	Reason string
	Err    error // possibly nil
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot extract price: %s: %v", e.Reason, e.Err)
	}
	return "cannot extract price: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// EvaluationError is the failure of a whole valuation, caused by the first
// entry that could not be priced.
type EvaluationError struct {
	Entry LedgerEntry
	Err   error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("cannot value %q (%s): %v", e.Entry.Name, e.Entry.URL, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }
