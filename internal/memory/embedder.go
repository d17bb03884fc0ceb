package memory

import (
	"encoding/json"
	"fmt"

	"github.com/haeli05/seaclaw/internal/httpclient"
)

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	Embed(text string) ([]float32, error)
}

// HTTPEmbedder calls a remote embeddings endpoint (OpenAI-compatible
// {input: string} -> {data: [{embedding: [f32]}]} shape) over the same
// hand-rolled transport the chat providers use.
type HTTPEmbedder struct {
	HTTP   *httpclient.Client
	URL    string
	APIKey string
	Model  string
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (e *HTTPEmbedder) Embed(text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.Model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	headers := []httpclient.Header{{Key: "content-type", Value: "application/json"}}
	if e.APIKey != "" {
		headers = append(headers, httpclient.Header{Key: "Authorization", Value: "Bearer " + e.APIKey})
	}

	resp, err := e.HTTP.PostJSON(e.URL, body, headers)
	if err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}

	var decoded embedResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(decoded.Data) == 0 {
		return nil, fmt.Errorf("embed response had no data")
	}
	return decoded.Data[0].Embedding, nil
}
