package lemmy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/romangod6/lemmy-sitemap/internal/logfields"
	"github.com/romangod6/lemmy-sitemap/internal/models"
)

const (
	postListPath      = "/api/v3/post/list"
	communityListPath = "/api/v3/community/list"

	ResourcePosts       = "posts"
	ResourceCommunities = "communities"
)

// HTTPError is a non-2xx response from the Lemmy API.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

type ClientConfig struct {
	APIURL    string
	URLPrefix string
	PageLimit int
	// MaxPages caps post pagination; zero disables the cap.
	MaxPages   int
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	// OnFailure is called whenever a fetch stops early.
	OnFailure func(resource string, err error)
}

// Client reads posts and communities from the Lemmy HTTP API without
// authentication. Fetch failures never reach the caller: they are logged,
// reported through OnFailure and whatever was read so far is returned.
type Client struct {
	http   *http.Client
	config ClientConfig
	logger *slog.Logger
}

func NewClient(config ClientConfig, logger *slog.Logger) *Client {
	config.APIURL = strings.TrimRight(config.APIURL, "/")
	config.URLPrefix = strings.TrimRight(config.URLPrefix, "/")
	if config.PageLimit <= 0 {
		config.PageLimit = 50
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		http:   httpClient,
		config: config,
		logger: logger,
	}
}

// FetchAllPosts walks the post list oldest first, following next_page
// cursors until the server stops returning one.
func (c *Client) FetchAllPosts(ctx context.Context) []models.Post {
	var posts []models.Post
	cursor := ""

	for page := 1; ; page++ {
		if c.config.MaxPages > 0 && page > c.config.MaxPages {
			c.logger.Warn("Post pagination cap reached",
				logfields.Resource(ResourcePosts),
				logfields.Page(c.config.MaxPages))
			break
		}

		params := url.Values{}
		params.Set("limit", strconv.Itoa(c.config.PageLimit))
		params.Set("sort", "Old")
		params.Set("type_", "All")
		if cursor != "" {
			params.Set("page_cursor", cursor)
		}

		body, err := c.get(ctx, postListPath, params)
		if err != nil {
			c.fail(ResourcePosts, fmt.Errorf("failed to fetch posts page %d: %w", page, err))
			break
		}

		envelope, err := parseObject(body)
		if err != nil {
			c.fail(ResourcePosts, fmt.Errorf("failed to decode posts page %d: %w", page, err))
			break
		}

		for _, raw := range envelope.array("posts") {
			post, err := decodePost(raw, c.config.URLPrefix)
			if err != nil {
				c.logger.Warn("Skipping malformed post", logfields.Page(page), logfields.Error(err))
				continue
			}
			posts = append(posts, post)
		}

		next := envelope.string("next_page")
		if next == "" {
			break
		}
		if next == cursor {
			c.logger.Warn("Server repeated page cursor, stopping",
				logfields.Resource(ResourcePosts),
				logfields.Page(page))
			break
		}
		cursor = next
	}

	return posts
}

// FetchAllCommunities reads a single page of local communities and keeps
// only those that are local and not deleted, removed or hidden.
func (c *Client) FetchAllCommunities(ctx context.Context) []models.Community {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.config.PageLimit))
	params.Set("sort", "TopAll")
	params.Set("type_", "Local")

	var communities []models.Community

	body, err := c.get(ctx, communityListPath, params)
	if err != nil {
		c.fail(ResourceCommunities, fmt.Errorf("failed to fetch communities: %w", err))
		return communities
	}

	envelope, err := parseObject(body)
	if err != nil {
		c.fail(ResourceCommunities, fmt.Errorf("failed to decode communities: %w", err))
		return communities
	}

	for _, raw := range envelope.array("communities") {
		community, err := decodeCommunity(raw, c.config.URLPrefix)
		if err != nil {
			c.logger.Warn("Skipping malformed community", logfields.Error(err))
			continue
		}
		if !community.Indexable() {
			continue
		}
		communities = append(communities, community)
	}

	return communities
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.config.APIURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	c.logger.Debug("Requesting URL", logfields.URL(endpoint))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Response received",
		logfields.URL(endpoint),
		logfields.Status(resp.StatusCode),
		slog.Int("bytes", len(body)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: endpoint}
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("invalid JSON from %s", endpoint)
	}
	return body, nil
}

func (c *Client) fail(resource string, err error) {
	c.logger.Error("Fetch stopped early", logfields.Resource(resource), logfields.Error(err))
	if c.config.OnFailure != nil {
		c.config.OnFailure(resource, err)
	}
}
