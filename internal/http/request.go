package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Request is one call to the reporting API. Every call is a POST to the
// endpoint with the API method in the query string and its parameters as a
// JSON object in the body.
type Request struct {
	Method  string
	Headers http.Header
	Params  any
}

// NewRequest creates a call to an API method such as Report.GetStatus
func NewRequest(method string) *Request {
	return &Request{
		Method:  method,
		Headers: make(http.Header),
	}
}

// WithHeader sets a header on the request
func (r *Request) WithHeader(key, value string) *Request {
	r.Headers.Set(key, value)
	return r
}

// WithParams sets the parameters sent as the JSON body
func (r *Request) WithParams(params any) *Request {
	r.Params = params
	return r
}

// Build constructs the http.Request. Nil parameters are sent as an empty
// object.
func (r *Request) Build(ctx context.Context, endpoint string) (*http.Request, error) {
	reqURL, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}

	query := reqURL.Query()
	query.Set("method", r.Method)
	reqURL.RawQuery = query.Encode()

	body := []byte("{}")
	if r.Params != nil {
		if body, err = json.Marshal(r.Params); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, values := range r.Headers {
		req.Header[key] = values
	}

	return req, nil
}
