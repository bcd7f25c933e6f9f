package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/example/atlasmarket/internal/config"
)

// Verification statuses reported by the gateway.
const (
	VerifyStatusApproved = "approved"
	VerifyStatusPending  = "pending"
	VerifyStatusDenied   = "denied"
)

// VerifyGateway sends and checks one-time codes through an external phone
// verification provider. Any status other than "approved" on check is a
// rejection.
type VerifyGateway interface {
	SendVerification(phone string) (string, error)
	CheckVerification(phone, code string) (string, error)
}

var verifyHTTPClient = &http.Client{Timeout: 15 * time.Second}

// VerifyClient is the HTTP implementation of VerifyGateway.
type VerifyClient struct {
	baseURL    string
	apiKey     string
	serviceSID string
}

// NewVerifyClient constructs a VerifyClient from configuration.
func NewVerifyClient(cfg *config.Config) *VerifyClient {
	return &VerifyClient{
		baseURL:    strings.TrimRight(cfg.VerifyBaseURL, "/"),
		apiKey:     cfg.VerifyAPIKey,
		serviceSID: cfg.VerifyServiceSID,
	}
}

type verificationResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// SendVerification asks the provider to deliver a code to the phone.
func (v *VerifyClient) SendVerification(phone string) (string, error) {
	resp, err := v.post("/Verifications", map[string]string{
		"To":      phone,
		"Channel": "sms",
	})
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}

// CheckVerification submits a code for validation and returns the provider's
// verdict.
func (v *VerifyClient) CheckVerification(phone, code string) (string, error) {
	resp, err := v.post("/VerificationCheck", map[string]string{
		"To":   phone,
		"Code": code,
	})
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}

func (v *VerifyClient) post(path string, body map[string]string) (*verificationResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("verify request marshal: %w", err)
	}

	url := v.baseURL + "/Services/" + v.serviceSID + path
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("verify request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.apiKey)

	resp, err := verifyHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("verify request failed: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var parsed verificationResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("verify response unmarshal: %w", err)
	}

	return &parsed, nil
}
