package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// sensitiveHeaders are redacted from request logs. Keys are lower case.
var sensitiveHeaders = map[string]bool{
	"authorization":        true,
	"api-key":              true,
	"x-api-key":            true,
	"x-goog-api-key":       true,
	"x-subscription-token": true,
	"cookie":               true,
	"set-cookie":           true,
}

// HTTPLogger logs requests and responses made by provider and search clients.
type HTTPLogger struct {
	logger      *Logger
	maxBodySize int
}

// NewHTTPLogger creates an HTTP logger writing to logger at debug level.
func NewHTTPLogger(logger *Logger) *HTTPLogger {
	return &HTTPLogger{
		logger:      logger,
		maxBodySize: 4096,
	}
}

// LogRequest logs an HTTP request with sensitive headers and JSON fields redacted.
func (h *HTTPLogger) LogRequest(req *http.Request, body []byte) {
	keyvals := []interface{}{
		"method", req.Method,
		"url", req.URL.String(),
		"headers", RedactHeaders(req.Header),
	}
	if len(body) > 0 {
		keyvals = append(keyvals, "body", h.renderBody(body, true), "body_size", len(body))
	}
	h.logger.Debug("http request", keyvals...)
}

// LogResponse logs an HTTP response.
func (h *HTTPLogger) LogResponse(resp *http.Response, body []byte, duration time.Duration) {
	keyvals := []interface{}{
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
		"streaming", isStreamingResponse(resp),
	}
	if len(body) > 0 {
		keyvals = append(keyvals, "body", h.renderBody(body, false), "body_size", len(body))
	}
	h.logger.Debug("http response", keyvals...)
}

// LogError logs a transport-level failure.
func (h *HTTPLogger) LogError(err error, req *http.Request) {
	h.logger.Error("http error", err, "method", req.Method, "url", req.URL.String())
}

func (h *HTTPLogger) renderBody(body []byte, redact bool) string {
	if json.Valid(body) && redact {
		var parsed interface{}
		if err := json.Unmarshal(body, &parsed); err == nil {
			if out, err := json.Marshal(redactSensitiveFields(parsed)); err == nil {
				body = out
			}
		}
	}
	return truncateBody(body, h.maxBodySize)
}

// RoundTripper wraps an http.RoundTripper with request/response logging.
type RoundTripper struct {
	wrapped http.RoundTripper
	logger  *HTTPLogger
	logBody bool
}

// NewLoggingRoundTripper creates a new logging round tripper. A nil wrapped
// transport uses http.DefaultTransport.
func NewLoggingRoundTripper(wrapped http.RoundTripper, logger *HTTPLogger, logBody bool) *RoundTripper {
	if wrapped == nil {
		wrapped = http.DefaultTransport
	}
	return &RoundTripper{
		wrapped: wrapped,
		logger:  logger,
		logBody: logBody,
	}
}

// RoundTrip implements http.RoundTripper
func (rt *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	var reqBody []byte
	if rt.logBody && req.Body != nil {
		reqBody, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(reqBody))
	}
	rt.logger.LogRequest(req, reqBody)

	resp, err := rt.wrapped.RoundTrip(req)
	duration := time.Since(start)
	if err != nil {
		rt.logger.LogError(err, req)
		return nil, err
	}

	// Streaming bodies must reach the caller untouched.
	if rt.logBody && !isStreamingResponse(resp) {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body = io.NopCloser(bytes.NewReader(respBody))
		rt.logger.LogResponse(resp, respBody, duration)
	} else {
		rt.logger.LogResponse(resp, nil, duration)
	}

	return resp, nil
}

// NewHTTPClient returns a client with the given timeout whose transport logs
// through the default logger when debug logging is enabled.
func NewHTTPClient(timeout time.Duration) *http.Client {
	client := &http.Client{Timeout: timeout}
	if l := Default(); l.Enabled(LevelDebug) {
		client.Transport = NewLoggingRoundTripper(nil, NewHTTPLogger(l.With("component", "http")), true)
	}
	return client
}

// RedactHeaders flattens headers to their first value, masking secrets.
func RedactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		switch {
		case sensitiveHeaders[strings.ToLower(k)]:
			out[k] = "[REDACTED]"
		case len(v) > 0:
			out[k] = v[0]
		}
	}
	return out
}

func truncateBody(body []byte, maxSize int) string {
	if len(body) <= maxSize {
		return string(body)
	}
	return string(body[:maxSize]) + "...[truncated]"
}

func isStreamingResponse(resp *http.Response) bool {
	contentType := resp.Header.Get("Content-Type")
	return strings.Contains(contentType, "text/event-stream") ||
		strings.Contains(contentType, "application/x-ndjson")
}

// redactSensitiveFields masks values of secret-looking keys in parsed JSON.
// Base64 image payloads are also elided so that debug logs stay readable.
func redactSensitiveFields(data interface{}) interface{} {
	sensitiveKeys := []string{"api_key", "apikey", "api-key", "password", "secret", "token", "authorization"}

	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for k, val := range v {
			keyLower := strings.ToLower(k)
			redacted := false
			for _, s := range sensitiveKeys {
				if strings.Contains(keyLower, s) {
					redacted = true
					break
				}
			}
			if redacted {
				result[k] = "[REDACTED]"
			} else {
				result[k] = redactSensitiveFields(val)
			}
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = redactSensitiveFields(item)
		}
		return result
	case string:
		if strings.HasPrefix(v, "data:") && strings.Contains(v, ";base64,") {
			return v[:strings.Index(v, ",")+1] + "...[image]"
		}
		return v
	default:
		return data
	}
}
