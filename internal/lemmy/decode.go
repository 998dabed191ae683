package lemmy

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/romangod6/lemmy-sitemap/internal/models"
	"github.com/romangod6/lemmy-sitemap/internal/slug"
)

// object is a loosely typed JSON object. Accessors return the zero value
// when a key is absent, null or of the wrong type.
type object map[string]json.RawMessage

func parseObject(raw json.RawMessage) (object, error) {
	var o object
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("expected JSON object, got %s", truncate(string(raw), 32))
	}
	return o, nil
}

func (o object) object(key string) (object, bool) {
	raw, ok := o[key]
	if !ok {
		return nil, false
	}
	child, err := parseObject(raw)
	if err != nil {
		return nil, false
	}
	return child, true
}

func (o object) array(key string) []json.RawMessage {
	var items []json.RawMessage
	if raw, ok := o[key]; ok {
		_ = json.Unmarshal(raw, &items)
	}
	return items
}

func (o object) string(key string) string {
	var s string
	if raw, ok := o[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

func (o object) int64(key string) int64 {
	var n int64
	if raw, ok := o[key]; ok {
		_ = json.Unmarshal(raw, &n)
	}
	return n
}

func (o object) bool(key string) bool {
	var b bool
	if raw, ok := o[key]; ok {
		_ = json.Unmarshal(raw, &b)
	}
	return b
}

// time returns nil when the value is absent or not a recognised timestamp.
func (o object) time(key string) *time.Time {
	return parseTimestamp(o.string(key))
}

// Lemmy has emitted timestamps both with and without a zone designator.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseTimestamp(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// decodePost maps one entry of the post list into a Post. Only an entry
// that is not a JSON object is rejected.
func decodePost(raw json.RawMessage, urlPrefix string) (models.Post, error) {
	view, err := parseObject(raw)
	if err != nil {
		return models.Post{}, err
	}
	post, _ := view.object("post")

	p := models.Post{
		ID:        post.int64("id"),
		Name:      post.string("name"),
		Published: post.time("published"),
		Updated:   post.time("updated"),
		Deleted:   post.bool("deleted"),
		Removed:   post.bool("removed"),
		Local:     post.bool("local"),
		Hidden:    view.bool("hidden"),
	}
	p.Slug = slug.NameToSlug(p.Name)
	p.URL = models.PostURL(urlPrefix, p.ID, p.Slug)
	return p, nil
}

// decodeCommunity maps one entry of the community list. Views without a
// nested "community" object are read as the community itself.
func decodeCommunity(raw json.RawMessage, urlPrefix string) (models.Community, error) {
	view, err := parseObject(raw)
	if err != nil {
		return models.Community{}, err
	}
	community, ok := view.object("community")
	if !ok {
		community = view
	}

	c := models.Community{
		ID:      community.int64("id"),
		Name:    community.string("name"),
		Local:   community.bool("local"),
		Deleted: community.bool("deleted"),
		Removed: community.bool("removed"),
		Hidden:  view.bool("hidden"),
	}
	c.Slug = c.Name
	c.URL = models.CommunityURL(urlPrefix, c.Name)
	return c, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
