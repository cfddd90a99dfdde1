package infrastructure

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"job-board/domain"
)

const (
	SitemapFile      = "sitemap.xml"
	SitemapIndexFile = "sitemap-index.xml"
	sitemapNS        = "http://www.sitemaps.org/schemas/sitemap/0.9"
)

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type sitemapIndex struct {
	XMLName  xml.Name       `xml:"sitemapindex"`
	XMLNS    string         `xml:"xmlns,attr"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

type sitemapEntry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// SitemapWriter renders sitemap.xml and its index into a directory.
type SitemapWriter struct {
	dir     string
	siteURL string
}

func NewSitemapWriter(dir, siteURL string) *SitemapWriter {
	return &SitemapWriter{dir: dir, siteURL: strings.TrimRight(siteURL, "/")}
}

// URL is the public address of the sitemap index.
func (w *SitemapWriter) URL() string {
	return w.siteURL + "/" + SitemapIndexFile
}

// Write replaces both files. Each file is written to a temp file and renamed
// so readers never see a partial document.
func (w *SitemapWriter) Write(entries []domain.SitemapEntry, generatedAt time.Time) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create sitemap dir: %w", err)
	}

	set := urlSet{XMLNS: sitemapNS, URLs: make([]sitemapURL, 0, len(entries))}
	for _, e := range entries {
		u := sitemapURL{Loc: e.Loc, ChangeFreq: e.ChangeFreq}
		if !e.LastMod.IsZero() {
			u.LastMod = e.LastMod.UTC().Format("2006-01-02")
		}
		if e.Priority > 0 {
			u.Priority = fmt.Sprintf("%.1f", e.Priority)
		}
		set.URLs = append(set.URLs, u)
	}
	if err := writeXMLFile(filepath.Join(w.dir, SitemapFile), set); err != nil {
		return err
	}

	index := sitemapIndex{
		XMLNS: sitemapNS,
		Sitemaps: []sitemapEntry{{
			Loc:     w.siteURL + "/" + SitemapFile,
			LastMod: generatedAt.UTC().Format(time.RFC3339),
		}},
	}
	return writeXMLFile(filepath.Join(w.dir, SitemapIndexFile), index)
}

func writeXMLFile(path string, v interface{}) error {
	data, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(xml.Header); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// SitemapPinger notifies search engines that the sitemap changed.
type SitemapPinger struct {
	client    *resty.Client
	endpoints []string
	retry     RetryConfig
	log       *logrus.Entry
}

// NewSitemapPinger takes ping endpoints such as
// "https://www.bing.com/ping?sitemap=". The sitemap URL is appended escaped.
func NewSitemapPinger(endpoints []string, log *logrus.Entry) *SitemapPinger {
	return &SitemapPinger{
		client:    resty.New().SetTimeout(10 * time.Second),
		endpoints: endpoints,
		retry:     DefaultRetryConfig,
		log:       log,
	}
}

// Ping tries every endpoint; failures are logged and dropped. It returns the
// number of endpoints that accepted the ping.
func (p *SitemapPinger) Ping(ctx context.Context, sitemapURL string) int {
	ok := 0
	for _, endpoint := range p.endpoints {
		target := endpoint + url.QueryEscape(sitemapURL)
		_, err := RetryDo(ctx, p.retry, p.log, func() (struct{}, error) {
			resp, err := p.client.R().SetContext(ctx).Get(target)
			if err != nil {
				return struct{}{}, err
			}
			if resp.IsError() {
				return struct{}{}, &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
			}
			return struct{}{}, nil
		})
		if err != nil {
			p.log.WithError(err).WithField("endpoint", endpoint).Warn("sitemap ping failed")
			continue
		}
		ok++
	}
	return ok
}
