package pmcalc

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
)

// contains http utils to deal with product pages

// maxPageSize bounds how much of a page is read.
const maxPageSize = 8 << 20

// wget performs a single HTTP GET and returns the body of a successful response.
// Every failure is reported as a *NetworkError.
func wget(ctx context.Context, client *http.Client, addr string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, &NetworkError{URL: addr, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: addr, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageSize))
		return nil, &NetworkError{URL: addr, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, &NetworkError{URL: addr, Timeout: isTimeout(err), Err: err}
	}
	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
