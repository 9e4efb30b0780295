package metrics

import (
	"net/http"
	"time"
)

// InstrumentTransport wraps an http.RoundTripper so that every outbound
// request is recorded. If next is nil, http.DefaultTransport is used.
// If m is nil, the returned transport records nothing.
func InstrumentTransport(m *Metrics, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		// statusCode stays 0 when no response arrives
		var statusCode int
		if m != nil {
			defer Timer(time.Now(), func(duration float64) {
				m.RecordHTTPRequest(r.URL.Host, r.Method, statusCode, duration)
			})()
		}

		resp, err := next.RoundTrip(r)
		if resp != nil {
			statusCode = resp.StatusCode
		}
		return resp, err
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Timer is a helper for timing operations.
// Usage:
//
//	start := time.Now()
//	defer Timer(start, func(duration float64) {
//	    metrics.RecordSomething(duration)
//	})()
func Timer(start time.Time, recordFunc func(float64)) func() {
	return func() {
		recordFunc(time.Since(start).Seconds())
	}
}
