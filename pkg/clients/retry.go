package clients

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/failsafe-go/failsafe-go"
)

// DoWithRetry executes an HTTP request through the given failsafe executor.
// The executor is long-lived so retry and circuit breaker state carries
// across calls. The request body is snapshotted so each attempt sends a
// fresh copy.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, executor failsafe.Executor[*http.Response]) (*http.Response, error) {
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		_ = req.Body.Close()
	}

	return ExecuteHTTP(ctx, executor, func() (*http.Response, error) {
		var attemptReq *http.Request
		var err error
		if bodyBytes != nil {
			attemptReq, err = http.NewRequestWithContext(ctx, req.Method, req.URL.String(), bytes.NewReader(bodyBytes))
		} else {
			attemptReq, err = http.NewRequestWithContext(ctx, req.Method, req.URL.String(), nil)
		}
		if err != nil {
			return nil, err
		}
		attemptReq.Header = req.Header.Clone()
		attemptReq.ContentLength = req.ContentLength
		return client.Do(attemptReq)
	})
}
