package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/claimrisk/internal/model"
)

const loadMaxRetries = 3

// loadSleepFunc waits between retries (injectable for tests)
var loadSleepFunc = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Loader reads claim documents from local files or http(s) URLs
type Loader struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
}

// NewLoader creates a Loader. Reads stop at maxBytes+1 so oversize documents are still detected.
func NewLoader(timeout time.Duration, maxBytes int64) *Loader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Loader{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return eris.New("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: "claimrisk/0.1",
		maxBytes:  maxBytes,
	}
}

// Load fetches one referenced document
func (l *Loader) Load(ctx context.Context, ref model.DocumentRef) (model.DocumentInput, error) {
	in := model.DocumentInput{
		DocumentID:   ref.Path,
		DeclaredType: model.ParseDeclaredType(string(ref.DeclaredType)),
		MediaType:    ref.MediaType,
		Filename:     filepath.Base(ref.Path),
	}

	var (
		data        []byte
		contentType string
		err         error
	)
	if isURL(ref.Path) {
		data, contentType, err = l.fetchWithRetry(ctx, ref.Path)
	} else {
		data, err = l.readFile(ref.Path)
	}
	if err != nil {
		return in, err
	}

	in.Data = data
	if in.MediaType == "" {
		in.MediaType = contentType
	}
	if in.MediaType == "" {
		in.MediaType = mime.TypeByExtension(strings.ToLower(filepath.Ext(ref.Path)))
	}
	return in, nil
}

// LoadAll loads every reference; the first failure aborts
func (l *Loader) LoadAll(ctx context.Context, refs []model.DocumentRef) ([]model.DocumentInput, error) {
	docs := make([]model.DocumentInput, 0, len(refs))
	for _, ref := range refs {
		doc, err := l.Load(ctx, ref)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (l *Loader) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(l.limit(f))
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return data, nil
}

// fetchWithRetry retries 5xx and 429 responses with exponential backoff
func (l *Loader) fetchWithRetry(ctx context.Context, rawURL string) ([]byte, string, error) {
	var lastErr error
	for attempt := 0; attempt < loadMaxRetries; attempt++ {
		data, contentType, err := l.fetch(ctx, rawURL)
		if err == nil {
			return data, contentType, nil
		}
		lastErr = err
		var se *statusError
		if !errors.As(err, &se) || !se.retryable() {
			return nil, "", err
		}
		if attempt < loadMaxRetries-1 {
			if err := loadSleepFunc(ctx, time.Duration(1<<uint(attempt))*time.Second); err != nil {
				return nil, "", eris.Wrapf(lastErr, "retry aborted: %v", err)
			}
		}
	}
	return nil, "", lastErr
}

type statusError struct {
	url  string
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.url, e.code)
}

func (e *statusError) retryable() bool {
	return e.code >= 500 || e.code == http.StatusTooManyRequests
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, "", eris.Wrapf(err, "fetch %s", rawURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &statusError{url: rawURL, code: resp.StatusCode}
	}

	data, err := io.ReadAll(l.limit(resp.Body))
	if err != nil {
		return nil, "", eris.Wrapf(err, "read body of %s", rawURL)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (l *Loader) limit(r io.Reader) io.Reader {
	if l.maxBytes <= 0 {
		return r
	}
	return io.LimitReader(r, l.maxBytes+1)
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
