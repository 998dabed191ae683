package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a Lemmy post as seen by the sitemap generator.
// Published and Updated are nil when the API omitted them or sent a value
// that could not be parsed.
type Post struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Published *time.Time `json:"published,omitempty"`
	Updated   *time.Time `json:"updated,omitempty"`
	Deleted   bool       `json:"deleted"`
	Removed   bool       `json:"removed"`
	Hidden    bool       `json:"hidden"`
	Local     bool       `json:"local"`
	Slug      string     `json:"slug"`
	URL       string     `json:"url"`
}

// Community is a Lemmy community. Its slug is the community name.
type Community struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Local   bool   `json:"local"`
	Deleted bool   `json:"deleted"`
	Removed bool   `json:"removed"`
	Hidden  bool   `json:"hidden"`
	Slug    string `json:"slug"`
	URL     string `json:"url"`
}

// Run statuses.
const (
	RunStatusRunning   = "Running"
	RunStatusCompleted = "Completed"
	RunStatusError     = "Error"
)

// Run triggers.
const (
	TriggerCLI      = "cli"
	TriggerSchedule = "schedule"
	TriggerAPI      = "api"
)

// GenerationRun records one pass of the sitemap pipeline.
type GenerationRun struct {
	ID                 uuid.UUID  `json:"id"`
	Trigger            string     `json:"trigger"`
	Status             string     `json:"status"`
	StartedAt          time.Time  `json:"startedAt"`
	FinishedAt         *time.Time `json:"finishedAt,omitempty"`
	PostsFetched       int        `json:"postsFetched"`
	CommunitiesFetched int        `json:"communitiesFetched"`
	PostsIndexed       int        `json:"postsIndexed"`
	SitemapFiles       int        `json:"sitemapFiles"`
	Errors             []string   `json:"errors,omitempty"`
}
