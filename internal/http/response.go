package http

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// TimingInfo holds the phases of a single request. Connection phases are
// zero when a kept-alive connection was reused.
type TimingInfo struct {
	StartTime        time.Time
	TCPConnectTime   time.Duration
	TLSHandshakeTime time.Duration
	TimeToFirstByte  time.Duration
	TotalTime        time.Duration
}

// Response is an API response with its body fully read
type Response struct {
	StatusCode int
	Status     string
	Timing     TimingInfo
	rawBody    []byte
}

// JSON parses the body for path queries. Invalid JSON yields a result
// whose Exists reports false.
func (r *Response) JSON() gjson.Result {
	if !gjson.ValidBytes(r.rawBody) {
		return gjson.Result{}
	}
	return gjson.ParseBytes(r.rawBody)
}

// Text returns the trimmed body, or the status line when the body is empty
func (r *Response) Text() string {
	if text := strings.TrimSpace(string(r.rawBody)); text != "" {
		return text
	}
	return r.Status
}

// IsSuccess returns true if the response status code is in the 2xx range
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
