package keywords

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// maxArtifactBytes caps the size of a keyword artifact
const maxArtifactBytes = 1 << 20

// Source loads a keyword set from an external artifact
type Source interface {
	// Name describes the source for logs
	Name() string

	// Load reads and decodes the keyword set
	Load(ctx context.Context) (Set, error)
}

// document is the artifact layout; the set may also sit at the top level
type document struct {
	ContextKeywords Set `yaml:"contextKeywords"`
}

// Decode parses a JSON or YAML keyword artifact
func Decode(data []byte) (Set, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode keywords: %w", err)
	}
	if len(doc.ContextKeywords) > 0 {
		return doc.ContextKeywords, nil
	}

	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decode keywords: %w", err)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("decode keywords: no context keywords found")
	}
	return set, nil
}

// FileSource reads keywords from a local JSON or YAML file
type FileSource struct {
	Path string
}

// Name returns the file path
func (s FileSource) Name() string {
	return "file:" + s.Path
}

// Load reads and decodes the file
func (s FileSource) Load(ctx context.Context) (Set, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read keywords file: %w", err)
	}
	return Decode(data)
}

// HTTPSource fetches keywords from a URL
type HTTPSource struct {
	URL        string
	httpClient *http.Client
	userAgent  string
}

// NewHTTPSource creates an HTTP keyword source
func NewHTTPSource(rawURL string, timeout time.Duration, userAgent string) *HTTPSource {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{
		URL: rawURL,
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
	}
}

// Name returns the URL
func (s *HTTPSource) Name() string {
	return "url:" + s.URL
}

// Load fetches and decodes the artifact
func (s *HTTPSource) Load(ctx context.Context) (Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch keywords: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return Decode(bytes.TrimSpace(body))
}

// StaticSource serves a fixed set, used for the embedded defaults and in tests
type StaticSource struct {
	Label string
	Set   Set
}

// Name returns the label
func (s StaticSource) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}

// Load returns the fixed set
func (s StaticSource) Load(ctx context.Context) (Set, error) {
	if len(s.Set) == 0 {
		return nil, fmt.Errorf("static keyword set is empty")
	}
	return s.Set, nil
}

// Embedded returns the source for the built-in set
func Embedded() Source {
	return StaticSource{Label: "embedded", Set: DefaultSet()}
}
