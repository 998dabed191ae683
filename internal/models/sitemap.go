// internal/models/sitemap.go
package models

import (
	"encoding/xml"
	"time"
)

// SitemapNamespace is the XML namespace of sitemaps and sitemap indexes.
const SitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// DateLayout is the lastmod format used in generated sitemaps.
const DateLayout = "2006-01-02"

// Sitemap represents the structure of an XML sitemap.
type Sitemap struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr,omitempty"`
	URLs    []URL    `xml:"url"`
}

// URL represents a single URL entry in the sitemap.
type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// SitemapIndex represents a <sitemapindex> document.
type SitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	XMLNS    string       `xml:"xmlns,attr,omitempty"`
	Sitemaps []SitemapRef `xml:"sitemap"`
}

// SitemapRef represents a <sitemap> element in a sitemap index.
type SitemapRef struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// IndexEntry is a generated sitemap waiting to be listed in the index.
type IndexEntry struct {
	Group   string
	URL     string
	LastMod time.Time
}
