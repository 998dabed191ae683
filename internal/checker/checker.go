// Package checker verifies generated sitemaps by visiting a sample of the
// listed pages on the live front-end.
package checker

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/romangod6/lemmy-sitemap/internal/logfields"
	"github.com/romangod6/lemmy-sitemap/internal/models"
	"github.com/romangod6/lemmy-sitemap/internal/sitemap"
)

type Config struct {
	OutputRoot string
	URLPrefix  string
	// Samples is the number of URLs visited per sitemap.
	Samples   int
	UserAgent string
	Timeout   time.Duration
}

// PageResult is the outcome of visiting one sitemap URL.
type PageResult struct {
	Sitemap    string `json:"sitemap"`
	URL        string `json:"url"`
	StatusCode int    `json:"statusCode"`
	Title      string `json:"title,omitempty"`
	Canonical  string `json:"canonical,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (p PageResult) OK() bool {
	return p.Error == "" && p.StatusCode >= 200 && p.StatusCode < 300
}

type Report struct {
	Sitemaps int          `json:"sitemaps"`
	URLs     int          `json:"urls"`
	Missing  []string     `json:"missing,omitempty"`
	Pages    []PageResult `json:"pages"`
}

// Failed counts the visited pages that did not load.
func (r *Report) Failed() int {
	n := 0
	for _, p := range r.Pages {
		if !p.OK() {
			n++
		}
	}
	return n
}

type Checker struct {
	config Config
	logger *slog.Logger
}

func New(config Config, logger *slog.Logger) *Checker {
	if config.Samples <= 0 {
		config.Samples = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	config.URLPrefix = strings.TrimRight(config.URLPrefix, "/")
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{config: config, logger: logger}
}

// Check reads the sitemap index under the output root, opens every
// referenced sitemap that exists locally and visits up to Samples URLs
// from each of them.
func (c *Checker) Check(ctx context.Context) (*Report, error) {
	var index models.SitemapIndex
	if err := readXML(filepath.Join(c.config.OutputRoot, sitemap.IndexFile), &index); err != nil {
		return nil, fmt.Errorf("failed to read sitemap index: %w", err)
	}

	report := &Report{}
	for _, ref := range index.Sitemaps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		path, ok := c.localPath(ref.Loc)
		if !ok {
			report.Missing = append(report.Missing, ref.Loc)
			continue
		}

		var set models.Sitemap
		if err := readXML(path, &set); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				c.logger.Info("Sitemap not generated locally, skipping", logfields.URL(ref.Loc))
				report.Missing = append(report.Missing, ref.Loc)
				continue
			}
			return report, fmt.Errorf("failed to read %s: %w", path, err)
		}

		report.Sitemaps++
		report.URLs += len(set.URLs)

		sample := set.URLs
		if len(sample) > c.config.Samples {
			sample = sample[:c.config.Samples]
		}
		for _, u := range sample {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			result := c.visit(u.Loc)
			result.Sitemap = ref.Loc
			report.Pages = append(report.Pages, result)
		}
	}

	return report, nil
}

// localPath maps a public sitemap URL to its file under the output root.
func (c *Checker) localPath(loc string) (string, bool) {
	rel, ok := strings.CutPrefix(loc, c.config.URLPrefix+"/")
	if !ok || rel == "" || strings.Contains(rel, "..") {
		return "", false
	}
	return filepath.Join(c.config.OutputRoot, filepath.FromSlash(rel)), true
}

func (c *Checker) visit(pageURL string) PageResult {
	result := PageResult{URL: pageURL}

	collector := colly.NewCollector(
		colly.UserAgent(c.config.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(c.config.Timeout)

	collector.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
	})

	collector.OnHTML("html", func(e *colly.HTMLElement) {
		result.Title = strings.TrimSpace(e.DOM.Find("head title").First().Text())
		e.DOM.Find("link[rel='canonical']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if href, ok := s.Attr("href"); ok {
				result.Canonical = strings.TrimSpace(href)
				return false
			}
			return true
		})
	})

	collector.OnError(func(r *colly.Response, err error) {
		result.StatusCode = r.StatusCode
		result.Error = err.Error()
	})

	c.logger.Debug("Visiting sitemap URL", logfields.URL(pageURL))
	if err := collector.Visit(pageURL); err != nil && result.Error == "" {
		result.Error = err.Error()
	}

	if !result.OK() {
		c.logger.Warn("Sitemap URL failed", logfields.URL(pageURL), logfields.Status(result.StatusCode), slog.String("reason", result.Error))
	}
	return result
}

func readXML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}
