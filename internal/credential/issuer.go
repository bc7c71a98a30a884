package credential

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/aquataze/tool-gateway/internal/api"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultIssuerURL is the token-issuing endpoint used when none is configured.
const DefaultIssuerURL = "https://jwt.aquataze.com/"

// TokenIssuer produces a fresh token record.
type TokenIssuer interface {
	Issue(ctx context.Context) (Record, error)
}

// Issuer calls the remote token endpoint with the two pre-shared API keys.
type Issuer struct {
	url        string
	apiKey1    string
	apiKey2    string
	httpClient *http.Client
}

var _ TokenIssuer = (*Issuer)(nil)

// NewIssuer creates an Issuer with a dedicated HTTP client, so a hung token
// endpoint cannot stall an upload forever.
func NewIssuer(url, apiKey1, apiKey2 string) *Issuer {
	if url == "" {
		url = DefaultIssuerURL
	}
	return &Issuer{
		url:     url,
		apiKey1: apiKey1,
		apiKey2: apiKey2,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type issueRequest struct {
	APIKey1 string `json:"apiKey1"`
	APIKey2 string `json:"apiKey2"`
}

// Issue requests a new token. Every failure, including a malformed or
// already-invalid record, is reported as api.ErrIssuerUnavailable.
func (i *Issuer) Issue(ctx context.Context) (Record, error) {
	payload, err := json.Marshal(issueRequest{APIKey1: i.apiKey1, APIKey2: i.apiKey2})
	if err != nil {
		return Record{}, fmt.Errorf("%w: marshal request: %w", api.ErrIssuerUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.url, bytes.NewReader(payload))
	if err != nil {
		return Record{}, fmt.Errorf("%w: create request: %w", api.ErrIssuerUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		log.Printf("Error fetching token: %v", err)
		return Record{}, fmt.Errorf("%w: %w", api.ErrIssuerUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Record{}, fmt.Errorf("%w: read response: %w", api.ErrIssuerUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("Error fetching token: status %d", resp.StatusCode)
		return Record{}, fmt.Errorf("%w: status %d, body: %s", api.ErrIssuerUnavailable, resp.StatusCode, truncate(body, 200))
	}

	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: decode response: %w", api.ErrIssuerUnavailable, err)
	}
	fillFromClaims(&rec)

	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// fillFromClaims completes a record whose issuedAt/expiresAt were omitted by
// reading the iat/exp claims of the token itself. The signature is not checked:
// the gateway only forwards the token, the upload service verifies it.
func fillFromClaims(rec *Record) {
	if rec.Token == "" || (rec.IssuedAt != 0 && rec.ExpiresAt != 0) {
		return
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rec.Token, &claims); err != nil {
		return
	}
	if rec.IssuedAt == 0 && claims.IssuedAt != nil {
		rec.IssuedAt = claims.IssuedAt.Unix()
	}
	if rec.ExpiresAt == 0 && claims.ExpiresAt != nil {
		rec.ExpiresAt = claims.ExpiresAt.Unix()
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
