// Package client discovers CSV files in a directory and uploads each one
// to the ingest server.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/csv-backend/backend/internal/models"
	"github.com/csv-backend/backend/internal/parser"
)

// DefaultURL is the upload endpoint of a locally running server.
const DefaultURL = "http://localhost:5000/upload"

// FilePattern selects the files Discover picks up.
const FilePattern = "*.csv"

var (
	// ErrDiscovery wraps failures to enumerate the source directory.
	ErrDiscovery = errors.New("discovery failed")
	// ErrConnection wraps transport failures talking to the server.
	ErrConnection = errors.New("connection failed")
)

// Outcome is the server's answer to one upload.
type Outcome struct {
	StatusCode int
	Body       string
}

// OK reports a 2xx response.
func (o *Outcome) OK() bool {
	return o.StatusCode >= 200 && o.StatusCode < 300
}

// Sender delivers one frame to the server.
type Sender interface {
	Send(ctx context.Context, frame *models.Frame) (*Outcome, error)
}

// Discover lists the CSV files directly inside dir, sorted by name.
// Hidden files are ignored.
// A missing or unreadable dir is an error rather than an empty result.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiscovery, err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if ok, _ := filepath.Match(FilePattern, e.Name()); ok {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

// Load parses one file, skipping malformed lines.
func Load(path string) (*models.Frame, []*models.RowError, error) {
	return parser.NewFrameParser().Load(path)
}

// HTTPSender posts encoded frames to an upload URL.
type HTTPSender struct {
	url    string
	client *http.Client
	parser *parser.FrameParser
}

// NewHTTPSender creates a sender. A zero timeout waits indefinitely.
func NewHTTPSender(url string, timeout time.Duration) *HTTPSender {
	if url == "" {
		url = DefaultURL
	}
	return &HTTPSender{
		url:    url,
		client: &http.Client{Timeout: timeout},
		parser: parser.NewFrameParser(),
	}
}

// URL returns the upload endpoint.
func (s *HTTPSender) URL() string {
	return s.url
}

// Send encodes the frame with its index column and POSTs the raw bytes.
func (s *HTTPSender) Send(ctx context.Context, frame *models.Frame) (*Outcome, error) {
	body, err := s.parser.EncodeBytes(frame)
	if err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "text/csv; charset=utf-8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrConnection, err)
	}

	return &Outcome{
		StatusCode: resp.StatusCode,
		Body:       string(text),
	}, nil
}
