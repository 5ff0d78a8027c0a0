// Package download fetches finished artifacts into the local downloads
// directory.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/docforge/docforge/internal/filex"
	"github.com/docforge/docforge/internal/logging"
)

// Trigger downloads output addresses. Multi-address results are fetched
// sequentially with a fixed delay between them, a simple rate-limiting
// heuristic so a burst of artifacts does not land at once.
type Trigger struct {
	http   *http.Client
	dir    string
	delay  time.Duration
	logger logging.Logger

	// sleep is a seam for tests.
	sleep func(time.Duration)
}

func NewTrigger(dir string, delay time.Duration, logger logging.Logger) *Trigger {
	return &Trigger{
		http:   &http.Client{},
		dir:    dir,
		delay:  delay,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// Fetch retrieves one address into the downloads directory and returns the
// local path. The suggested filename is sanitized; an existing file with the
// same name is never overwritten.
func (t *Trigger) Fetch(ctx context.Context, address, suggestedName string) (string, error) {
	dir, err := filex.EnsureSubDir(t.dir)
	if err != nil {
		return "", fmt.Errorf("downloads dir: %w", err)
	}

	name := suggestedName
	if name == "" {
		if u, err := url.Parse(address); err == nil {
			name = path.Base(u.Path)
		}
	}
	dest := freshPath(dir, filex.SafeFileName(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return "", err
	}
	resp, err := t.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: %s", address, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = os.Remove(dest)
		return "", fmt.Errorf("write %s: %w", dest, err)
	}

	return dest, nil
}

// FetchAll triggers downloads for every address in order, announcing each
// one and pausing between them. Failures are logged, not returned: by the
// time downloads start, the operation itself already succeeded.
func (t *Trigger) FetchAll(ctx context.Context, addresses []string, suggestedName string) {
	for i, addr := range addresses {
		if i > 0 {
			t.sleep(t.delay)
		}

		name := suggestedName
		if len(addresses) > 1 && name != "" {
			name = numberedName(name, i+1)
		}

		t.logger.Info(ctx, "starting download", "address", addr, "file", name)
		if _, err := t.Fetch(ctx, addr, name); err != nil {
			t.logger.Error(ctx, "download failed", "address", addr, "error", err)
		}
	}
}

// freshPath returns a path under the downloads dir that does not exist yet,
// suffixing " (n)" before the extension if needed.
func freshPath(dir, name string) string {
	dest := filepath.Join(dir, name)
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		return dest
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		dest = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			return dest
		}
	}
}

func numberedName(name string, n int) string {
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n, ext)
}
