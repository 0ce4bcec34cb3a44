package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
	"golang.org/x/sync/errgroup"
)

// ErrFetch marks a failed asset read. Callers skip the asset.
var ErrFetch = errors.New("asset fetch failed")

// maxAssetBytes caps a single fetched asset.
const maxAssetBytes = 50 << 20

// fetchConcurrency bounds parallel asset reads.
const fetchConcurrency = 4

// Fetcher reads static assets by slash-separated path.
type Fetcher interface {
	Fetch(ctx context.Context, assetPath string) (project.Blob, error)
}

// DirFetcher reads assets from a file system.
type DirFetcher struct {
	fsys fs.FS
}

// NewDirFetcher creates a fetcher rooted at fsys.
func NewDirFetcher(fsys fs.FS) *DirFetcher {
	return &DirFetcher{fsys: fsys}
}

// Fetch reads assetPath relative to the root. Leading slashes and dot segments
// cannot escape the root.
func (f *DirFetcher) Fetch(ctx context.Context, assetPath string) (project.Blob, error) {
	if err := ctx.Err(); err != nil {
		return project.Blob{}, err
	}
	name := strings.TrimPrefix(path.Clean("/"+assetPath), "/")
	data, err := fs.ReadFile(f.fsys, name)
	if err != nil {
		return project.Blob{}, fmt.Errorf("%w: %s: %v", ErrFetch, assetPath, err)
	}
	return project.Blob{Data: data, Type: DetectMIME(data)}, nil
}

// HTTPFetcher reads assets from a base URL.
type HTTPFetcher struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPFetcher creates a fetcher for baseURL. A nil client uses http.DefaultClient.
func NewHTTPFetcher(baseURL string, client *http.Client) (*HTTPFetcher, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid asset base url: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{base: u, client: client}, nil
}

// Fetch issues a GET for assetPath under the base URL.
func (f *HTTPFetcher) Fetch(ctx context.Context, assetPath string) (project.Blob, error) {
	target := f.base.JoinPath(strings.Split(strings.TrimPrefix(assetPath, "/"), "/")...)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return project.Blob{}, fmt.Errorf("%w: %s: %v", ErrFetch, assetPath, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return project.Blob{}, fmt.Errorf("%w: %s: %v", ErrFetch, assetPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return project.Blob{}, fmt.Errorf("%w: %s: HTTP %d", ErrFetch, assetPath, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes+1))
	if err != nil {
		return project.Blob{}, fmt.Errorf("%w: %s: %v", ErrFetch, assetPath, err)
	}
	if len(data) > maxAssetBytes {
		return project.Blob{}, fmt.Errorf("%w: %s: too large", ErrFetch, assetPath)
	}

	typ := DetectMIME(data)
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "image/") {
		typ, _, _ = strings.Cut(ct, ";")
	}
	return project.Blob{Data: data, Type: typ}, nil
}

// FetchResult is the outcome of one asset read.
type FetchResult struct {
	Path string
	Blob project.Blob
	Err  error
}

// FetchAll reads every path concurrently. Results keep the input order and
// individual failures are reported per result, never as a whole.
func FetchAll(ctx context.Context, f Fetcher, paths []string) []FetchResult {
	results := make([]FetchResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, p := range paths {
		g.Go(func() error {
			blob, err := f.Fetch(gctx, p)
			results[i] = FetchResult{Path: p, Blob: blob, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// FetchSamples reads the static asset of each catalog ID. Unknown IDs and
// failed reads are skipped; the rest keep input order.
func (c *Catalog) FetchSamples(ctx context.Context, f Fetcher, ids []string) []project.NamedBlob {
	var known, paths []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := c.SamplePath(id); ok {
			known = append(known, id)
			paths = append(paths, p)
		}
	}

	results := FetchAll(ctx, f, paths)
	out := make([]project.NamedBlob, 0, len(results))
	for i, r := range results {
		if r.Err != nil {
			continue
		}
		out = append(out, project.NamedBlob{ID: known[i], Blob: r.Blob})
	}
	return out
}
