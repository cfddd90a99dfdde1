package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-board/domain"
)

func TestSitemapWriter_Write(t *testing.T) {
	dir := t.TempDir()
	w := NewSitemapWriter(dir, "https://jobs.example/")
	now := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	err := w.Write([]domain.SitemapEntry{
		{Loc: "https://jobs.example/", ChangeFreq: "daily", Priority: 1},
		{Loc: "https://jobs.example/jobs/abc", LastMod: now, Priority: 0.7},
	}, now)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, SitemapFile))
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	assert.Contains(t, body, "<loc>https://jobs.example/jobs/abc</loc>")
	assert.Contains(t, body, "<lastmod>2026-02-03</lastmod>")
	assert.Contains(t, body, "<priority>0.7</priority>")

	index, err := os.ReadFile(filepath.Join(dir, SitemapIndexFile))
	require.NoError(t, err)
	assert.Contains(t, string(index), "<loc>https://jobs.example/sitemap.xml</loc>")
	assert.Equal(t, "https://jobs.example/sitemap-index.xml", w.URL())

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	assert.Empty(t, leftovers)
}

func TestSitemapPinger_DropsFailures(t *testing.T) {
	var good, bad atomic.Int32
	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		good.Add(1)
		assert.Equal(t, "https://jobs.example/sitemap-index.xml", r.URL.Query().Get("sitemap"))
	}))
	defer okSrv.Close()
	failSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bad.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failSrv.Close()

	p := NewSitemapPinger([]string{okSrv.URL + "/ping?sitemap=", failSrv.URL + "/ping?sitemap="}, testLogger())
	p.retry = fastRetry

	accepted := p.Ping(context.Background(), "https://jobs.example/sitemap-index.xml")
	assert.Equal(t, 1, accepted)
	assert.Equal(t, int32(1), good.Load())
	assert.Equal(t, int32(3), bad.Load())
}
