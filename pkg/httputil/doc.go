// Package httputil provides HTTP helpers for remote page sources.
//
// # Retry
//
// [Retry] re-runs an operation with exponential backoff, but only for
// errors wrapped with [RetryableError]. [CheckResponse] classifies HTTP
// responses so that transient failures are retried and permanent ones are
// not:
//
//   - network errors and 5xx responses are retryable
//   - 429 responses are retryable
//   - other 4xx responses fail immediately
//
// Typical use:
//
//	err := httputil.Retry(ctx, 3, 200*time.Millisecond, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    defer resp.Body.Close()
//	    if err := httputil.CheckResponse(resp); err != nil {
//	        return err
//	    }
//	    return json.NewDecoder(resp.Body).Decode(&page)
//	})
package httputil
