package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TransformerClient talks to an external model server. The capability
// is absent when no URL is configured; callers get a nil client and
// skip the signal.

type TransformerResult struct {
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
	RawScore   float64 `json:"raw_score"`
}

type TransformerClient struct {
	baseURL string
	client  *http.Client
}

// NewTransformerClient returns nil when baseURL is empty.
func NewTransformerClient(baseURL string) *TransformerClient {
	if baseURL == "" {
		return nil
	}
	return &TransformerClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 8 * time.Second},
	}
}

func (t *TransformerClient) Analyze(ctx context.Context, text string) (TransformerResult, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return TransformerResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return TransformerResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return TransformerResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TransformerResult{}, fmt.Errorf("transformer: status %d", resp.StatusCode)
	}
	var out TransformerResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return TransformerResult{}, err
	}
	return out, nil
}
