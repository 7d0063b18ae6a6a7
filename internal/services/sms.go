package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/bazaar/internal/config"
)

// SMSClient dispatches OTP messages through the third-party SMS gateway.
type SMSClient struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

func NewSMSClient(cfg *config.Config) *SMSClient {
	return &SMSClient{
		apiURL:     cfg.SMSAPIURL,
		apiKey:     cfg.SMSAPIKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type smsRequest struct {
	Route           string `json:"route"`
	VariablesValues string `json:"variables_values"`
	Numbers         string `json:"numbers"`
}

// SendOTP posts the code to the gateway and returns the raw gateway
// response. The response is passed through to the client unexamined;
// delivery failures are the gateway's to report.
func (s *SMSClient) SendOTP(phone, code string) (string, error) {
	if s.apiURL == "" {
		slog.Warn("sms gateway not configured, skipping dispatch", "phone", phone)
		return "", nil
	}

	body, err := json.Marshal(smsRequest{
		Route:           "otp",
		VariablesValues: code,
		Numbers:         phone,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("authorization", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
