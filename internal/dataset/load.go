package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// LoadError reports a failed fetch or parse of the dataset document.
// Loading is attempted once; callers surface the error rather than retry.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load dataset from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader fetches dataset documents from files or HTTP(S) URLs.
type Loader struct {
	Client *http.Client
}

// DefaultLoader is used by Load.
var DefaultLoader = &Loader{Client: &http.Client{Timeout: 30 * time.Second}}

// Load fetches, decodes and validates the dataset at source using DefaultLoader.
func Load(ctx context.Context, source string) (*Dataset, error) {
	return DefaultLoader.Load(ctx, source)
}

// Load fetches, decodes and validates the dataset at source. Source is a
// local path or an http:// or https:// URL.
func (l *Loader) Load(ctx context.Context, source string) (*Dataset, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, &LoadError{Source: "<empty>", Err: fmt.Errorf("no data source configured")}
	}

	var (
		rc  io.ReadCloser
		err error
	)
	if IsURL(source) {
		rc, err = l.fetch(ctx, source)
	} else {
		rc, err = os.Open(source)
	}
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	defer rc.Close()

	ds, err := Decode(rc)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	return ds, nil
}

// Decode parses and validates a dataset document.
func Decode(r io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (l *Loader) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// IsURL reports whether source names an http:// or https:// URL, ignoring
// case.
func IsURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
