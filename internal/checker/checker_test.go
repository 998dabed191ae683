package checker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frontEnd(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/post/1-hello", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sitemap-checker-test", r.UserAgent())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head><title> Hello </title><link rel="canonical" href="https://lemmy.example/post/1-hello"></head><body></body></html>`)
	})
	mux.HandleFunc("/post/2-world", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head><title>World</title></head><body></body></html>`)
	})
	mux.HandleFunc("/c/golang", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeOutput(t *testing.T, prefix string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sitemap"), 0755))

	index := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>%[1]s/sitemap/static.xml</loc></sitemap>
  <sitemap><loc>%[1]s/sitemap/2024-01.xml</loc><lastmod>2024-01-20</lastmod></sitemap>
  <sitemap><loc>%[1]s/sitemap/communities.xml</loc><lastmod>2024-01-20</lastmod></sitemap>
</sitemapindex>`, prefix)
	posts := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%[1]s/post/1-hello</loc><lastmod>2024-01-15</lastmod></url>
  <url><loc>%[1]s/post/2-world</loc><lastmod>2024-01-16</lastmod></url>
</urlset>`, prefix)
	communities := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%[1]s/c/golang</loc></url>
</urlset>`, prefix)

	require.NoError(t, os.WriteFile(filepath.Join(root, "sitemap.xml"), []byte(index), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sitemap", "2024-01.xml"), []byte(posts), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sitemap", "communities.xml"), []byte(communities), 0644))
	return root
}

func newChecker(root, prefix string, samples int) *Checker {
	return New(Config{
		OutputRoot: root,
		URLPrefix:  prefix,
		Samples:    samples,
		UserAgent:  "sitemap-checker-test",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCheckVisitsSampledURLs(t *testing.T) {
	srv := frontEnd(t)
	root := writeOutput(t, srv.URL)

	report, err := newChecker(root, srv.URL, 3).Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Sitemaps)
	assert.Equal(t, 3, report.URLs)
	assert.Equal(t, []string{srv.URL + "/sitemap/static.xml"}, report.Missing)
	require.Len(t, report.Pages, 3)

	first := report.Pages[0]
	assert.True(t, first.OK())
	assert.Equal(t, http.StatusOK, first.StatusCode)
	assert.Equal(t, "Hello", first.Title)
	assert.Equal(t, "https://lemmy.example/post/1-hello", first.Canonical)
	assert.Equal(t, srv.URL+"/sitemap/2024-01.xml", first.Sitemap)

	second := report.Pages[1]
	assert.True(t, second.OK())
	assert.Equal(t, "World", second.Title)
	assert.Empty(t, second.Canonical)

	missing := report.Pages[2]
	assert.False(t, missing.OK())
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
	assert.NotEmpty(t, missing.Error)

	assert.Equal(t, 1, report.Failed())
}

func TestCheckLimitsSamplesPerSitemap(t *testing.T) {
	srv := frontEnd(t)
	root := writeOutput(t, srv.URL)

	report, err := newChecker(root, srv.URL, 1).Check(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Pages, 2)
	assert.Equal(t, srv.URL+"/post/1-hello", report.Pages[0].URL)
	assert.Equal(t, srv.URL+"/c/golang", report.Pages[1].URL)
}

func TestCheckWithoutIndex(t *testing.T) {
	_, err := newChecker(t.TempDir(), "https://lemmy.example", 3).Check(context.Background())
	require.Error(t, err)
}

func TestCheckForeignSitemapIsMissing(t *testing.T) {
	srv := frontEnd(t)
	root := writeOutput(t, srv.URL)

	report, err := newChecker(root, "https://elsewhere.example", 3).Check(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Missing, 3)
	assert.Empty(t, report.Pages)
}

func TestCheckCanceled(t *testing.T) {
	srv := frontEnd(t)
	root := writeOutput(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newChecker(root, srv.URL, 3).Check(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
