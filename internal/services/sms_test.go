package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/bazaar/internal/config"
)

func TestSendOTPPostsGatewayPayload(t *testing.T) {
	var gotAuth string
	var gotBody smsRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("authorization")
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.Write([]byte(`{"return":true,"request_id":"req-1"}`))
	}))
	defer server.Close()

	client := NewSMSClient(&config.Config{SMSAPIURL: server.URL, SMSAPIKey: "key-123"})
	resp, err := client.SendOTP("919999999999", "0482")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotAuth != "key-123" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotBody.Route != "otp" || gotBody.VariablesValues != "0482" || gotBody.Numbers != "919999999999" {
		t.Errorf("payload = %+v", gotBody)
	}
	// The raw gateway response passes through untouched.
	if resp != `{"return":true,"request_id":"req-1"}` {
		t.Errorf("response = %q", resp)
	}
}

func TestSendOTPSkipsWhenUnconfigured(t *testing.T) {
	client := NewSMSClient(&config.Config{})
	resp, err := client.SendOTP("919999999999", "0482")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if resp != "" {
		t.Errorf("response = %q, want empty", resp)
	}
}
