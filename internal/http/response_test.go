package http

import "testing"

func TestResponse_JSON(t *testing.T) {
	resp := &Response{StatusCode: 200, rawBody: []byte(`{"reportID":"123","status":"queued"}`)}

	if got := resp.JSON().Get("status").String(); got != "queued" {
		t.Errorf("Expected status queued, got %s", got)
	}

	resp = &Response{StatusCode: 500, rawBody: []byte("<html>oops</html>")}
	if resp.JSON().Exists() {
		t.Error("Expected invalid body to produce a non-existent result")
	}
}

func TestResponse_Text(t *testing.T) {
	tests := []struct {
		name string
		resp *Response
		want string
	}{
		{"body", &Response{Status: "500 Internal Server Error", rawBody: []byte(" upstream timeout\n")}, "upstream timeout"},
		{"empty body", &Response{Status: "502 Bad Gateway"}, "502 Bad Gateway"},
		{"blank body", &Response{Status: "503 Service Unavailable", rawBody: []byte("\n")}, "503 Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.resp.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResponse_IsSuccess(t *testing.T) {
	tests := []struct {
		code    int
		success bool
	}{
		{200, true},
		{204, true},
		{301, false},
		{400, false},
		{500, false},
	}

	for _, tt := range tests {
		resp := &Response{StatusCode: tt.code}
		if resp.IsSuccess() != tt.success {
			t.Errorf("IsSuccess() for %d = %v, want %v", tt.code, resp.IsSuccess(), tt.success)
		}
	}
}
