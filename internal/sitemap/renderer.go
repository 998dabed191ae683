// Package sitemap renders posts and communities into sitemap files and a
// sitemap index.
package sitemap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/romangod6/lemmy-sitemap/internal/models"
)

const (
	// Dir is the directory under the output root holding the sitemaps.
	Dir            = "sitemap"
	IndexFile      = "sitemap.xml"
	CommunityGroup = "communities"
	StaticGroup    = "static"

	changeFreq = "weekly"
	groupKey   = "2006-01"
)

// Result summarises what Render wrote.
type Result struct {
	Entries      []models.IndexEntry
	Files        []string
	PostsIndexed int
}

type Renderer struct {
	urlPrefix string
	now       func() time.Time
}

// NewRenderer returns a Renderer building public URLs from urlPrefix.
// A nil now defaults to time.Now and is used for "today" lastmod values.
func NewRenderer(urlPrefix string, now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{urlPrefix: urlPrefix, now: now}
}

// PostGroup is the set of posts published in one month.
type PostGroup struct {
	Key   string
	Posts []models.Post
}

// GroupPosts keeps indexable posts that have a published time and groups
// them by published year and month. Groups appear in the order their first
// post appears in posts.
func GroupPosts(posts []models.Post) []PostGroup {
	var groups []PostGroup
	positions := map[string]int{}

	for _, p := range posts {
		if !p.Indexable() || p.Published == nil {
			continue
		}
		key := p.Published.Format(groupKey)
		i, ok := positions[key]
		if !ok {
			i = len(groups)
			positions[key] = i
			groups = append(groups, PostGroup{Key: key})
		}
		groups[i].Posts = append(groups[i].Posts, p)
	}
	return groups
}

// BuildPostSitemap returns the urlset for a group of posts and the most
// recent lastmod among them. ok is false when no post carries a date.
func BuildPostSitemap(posts []models.Post) (set models.Sitemap, latest time.Time, ok bool) {
	set = newSitemap()
	var latestDay string

	for _, p := range posts {
		u := models.URL{Loc: p.URL, ChangeFreq: changeFreq}
		if mod := p.LastModified(); mod != nil {
			day := mod.Format(models.DateLayout)
			u.LastMod = day
			if !ok || day > latestDay {
				latest, latestDay, ok = *mod, day, true
			}
		}
		set.URLs = append(set.URLs, u)
	}
	return set, latest, ok
}

// BuildCommunitySitemap lists every community with today as lastmod.
func BuildCommunitySitemap(communities []models.Community, today time.Time) models.Sitemap {
	set := newSitemap()
	day := today.Format(models.DateLayout)
	for _, c := range communities {
		set.URLs = append(set.URLs, models.URL{Loc: c.URL, LastMod: day, ChangeFreq: changeFreq})
	}
	return set
}

// BuildIndex lists the static sitemap first, then entries in order.
func (r *Renderer) BuildIndex(entries []models.IndexEntry, today time.Time) models.SitemapIndex {
	index := models.SitemapIndex{XMLNS: models.SitemapNamespace}
	index.Sitemaps = append(index.Sitemaps, models.SitemapRef{
		Loc:     r.SitemapURL(StaticGroup),
		LastMod: today.Format(models.DateLayout),
	})
	for _, e := range entries {
		index.Sitemaps = append(index.Sitemaps, models.SitemapRef{
			Loc:     e.URL,
			LastMod: e.LastMod.Format(models.DateLayout),
		})
	}
	return index
}

// SitemapURL is the public URL of the sitemap file for group.
func (r *Renderer) SitemapURL(group string) string {
	return fmt.Sprintf("%s/%s/%s.xml", r.urlPrefix, Dir, group)
}

// Render writes one sitemap per post month, one for communities and the
// sitemap index under outputRoot. Communities are written as given.
// Any filesystem error aborts the run; files already written stay.
func (r *Renderer) Render(posts []models.Post, communities []models.Community, outputRoot string) (*Result, error) {
	sitemapDir := filepath.Join(outputRoot, Dir)
	if err := os.MkdirAll(sitemapDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sitemap directory: %w", err)
	}

	today := r.now()
	result := &Result{}

	for _, g := range GroupPosts(posts) {
		set, latest, ok := BuildPostSitemap(g.Posts)
		path := filepath.Join(sitemapDir, g.Key+".xml")
		if err := writeXML(path, set); err != nil {
			return result, err
		}
		result.Files = append(result.Files, path)
		result.PostsIndexed += len(g.Posts)
		if ok {
			result.Entries = append(result.Entries, models.IndexEntry{
				Group:   g.Key,
				URL:     r.SitemapURL(g.Key),
				LastMod: latest,
			})
		}
	}

	communityPath := filepath.Join(sitemapDir, CommunityGroup+".xml")
	if err := writeXML(communityPath, BuildCommunitySitemap(communities, today)); err != nil {
		return result, err
	}
	result.Files = append(result.Files, communityPath)
	result.Entries = append(result.Entries, models.IndexEntry{
		Group:   CommunityGroup,
		URL:     r.SitemapURL(CommunityGroup),
		LastMod: today,
	})

	indexPath := filepath.Join(outputRoot, IndexFile)
	if err := writeXML(indexPath, r.BuildIndex(result.Entries, today)); err != nil {
		return result, err
	}
	result.Files = append(result.Files, indexPath)

	return result, nil
}

func newSitemap() models.Sitemap {
	return models.Sitemap{XMLNS: models.SitemapNamespace}
}

// Encode renders v as an indented UTF-8 XML document with a declaration.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func writeXML(path string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
