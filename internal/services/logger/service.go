package logger

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const redacted = "REDACTED"

// RoundTripper logs every outbound request and its response body. Query
// parameters listed in Secrets are masked before anything is written.
type RoundTripper struct {
	Logger  *zap.Logger
	Proxy   http.RoundTripper
	Secrets []string
}

func NewRoundTripper(logger *zap.Logger, secrets ...string) *RoundTripper {
	return &RoundTripper{
		Logger:  logger,
		Proxy:   http.DefaultTransport,
		Secrets: secrets,
	}
}

func (l *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := l.Proxy.RoundTrip(req)
	duration := time.Since(start)

	safeURL := RedactURL(req.URL, l.Secrets...)

	if err != nil {
		l.Logger.Error("HTTP request failed",
			zap.String("method", req.Method),
			zap.String("url", safeURL),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		l.Logger.Error("Failed to read response body",
			zap.String("method", req.Method),
			zap.String("url", safeURL),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	resp.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	l.Logger.Info("HTTP request completed",
		zap.String("method", req.Method),
		zap.String("url", safeURL),
		zap.ByteString("body_snipped", bodyBytes),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	return resp, nil
}

// RedactURL renders u with the values of the given query parameters masked.
func RedactURL(u *url.URL, params ...string) string {
	if u == nil {
		return ""
	}
	if len(params) == 0 || u.RawQuery == "" {
		return u.String()
	}

	q := u.Query()
	changed := false
	for _, p := range params {
		if _, ok := q[p]; ok {
			q.Set(p, redacted)
			changed = true
		}
	}
	if !changed {
		return u.String()
	}

	masked := *u
	masked.RawQuery = q.Encode()
	return masked.String()
}
