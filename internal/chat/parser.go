package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DocumentParser extracts plain text from an uploaded document.
type DocumentParser interface {
	ExtractText(ctx context.Context, fileURL, fileName string) (string, error)
}

// ParserConfig holds the document extraction service settings. When the
// endpoint is empty, PDF extraction is disabled and PDFs are acknowledged
// with a note instead.
type ParserConfig struct {
	Endpoint string        `env:"DOCPARSER_URL"`
	Timeout  time.Duration `env:"DOCPARSER_TIMEOUT" envDefault:"30s"`
}

// Enabled reports whether a parser endpoint is configured.
func (c ParserConfig) Enabled() bool { return c.Endpoint != "" }

// HTTPDocumentParser extracts text by posting the file reference to an
// extraction service.
type HTTPDocumentParser struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPDocumentParser creates a parser client for the configured
// endpoint.
func NewHTTPDocumentParser(cfg ParserConfig) (*HTTPDocumentParser, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("chat: document parser endpoint is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPDocumentParser{
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type extractRequest struct {
	FileURL  string `json:"file_url"`
	FileName string `json:"file_name"`
}

type extractResponse struct {
	Text string `json:"text"`
}

// ExtractText implements DocumentParser.
func (p *HTTPDocumentParser) ExtractText(ctx context.Context, fileURL, fileName string) (string, error) {
	payload, err := json.Marshal(extractRequest{FileURL: fileURL, FileName: fileName})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", ErrExtractionFailed, resp.StatusCode)
	}

	var out extractResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 16<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	return out.Text, nil
}
