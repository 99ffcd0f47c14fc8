package proxy

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseChatRequest(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantErr   bool
		wantParam string
	}{
		{name: "valid", body: `{"seniorId":"s1","message":"hello"}`},
		{name: "extra fields ignored", body: `{"seniorId":"s1","message":"hello","mood":"happy"}`},
		{name: "empty object", body: `{}`, wantErr: true, wantParam: "SeniorID"},
		{name: "empty body", body: ``, wantErr: true, wantParam: "SeniorID"},
		{name: "missing message", body: `{"seniorId":"s1"}`, wantErr: true, wantParam: "Message"},
		{name: "empty seniorId", body: `{"seniorId":"","message":"hi"}`, wantErr: true, wantParam: "SeniorID"},
		{name: "malformed JSON", body: `{"seniorId":`, wantErr: true, wantParam: "body"},
		{name: "wrong type", body: `{"seniorId":1,"message":"hi"}`, wantErr: true, wantParam: "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/ai/chat", strings.NewReader(tt.body))

			req, err := ParseChatRequest(r)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("ParseChatRequest() error = %v", err)
				}
				if req.SeniorID != "s1" || req.Message != "hello" {
					t.Errorf("parsed = %+v", req)
				}
				return
			}

			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("expected RequestError, got %v", err)
			}
			if reqErr.Message != ChatRequiredFieldsMessage {
				t.Errorf("message = %q", reqErr.Message)
			}
			if reqErr.Param != tt.wantParam {
				t.Errorf("param = %q, want %q", reqErr.Param, tt.wantParam)
			}
		})
	}
}

func TestParseChatRequest_TooLarge(t *testing.T) {
	big := `{"seniorId":"s1","message":"` + strings.Repeat("a", MaxRequestBodySize) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/ai/chat", strings.NewReader(big))

	_, err := ParseChatRequest(r)
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %v", err)
	}
	if !strings.Contains(reqErr.Error(), "maximum size") {
		t.Errorf("error = %v", reqErr)
	}
}
