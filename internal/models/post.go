package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostURL builds the public URL of a post page.
func PostURL(urlPrefix string, id int64, slug string) string {
	return fmt.Sprintf("%s/post/%d-%s", urlPrefix, id, slug)
}

// CommunityURL builds the public URL of a community page.
func CommunityURL(urlPrefix, name string) string {
	return fmt.Sprintf("%s/c/%s", urlPrefix, name)
}

// Indexable reports whether the post belongs in the sitemap.
func (p Post) Indexable() bool {
	return p.Local && !p.Deleted && !p.Removed && !p.Hidden
}

// LastModified returns Updated when set, Published otherwise.
func (p Post) LastModified() *time.Time {
	if p.Updated != nil {
		return p.Updated
	}
	return p.Published
}

// Indexable reports whether the community belongs in the sitemap.
func (c Community) Indexable() bool {
	return c.Local && !c.Deleted && !c.Removed && !c.Hidden
}

// NewGenerationRun creates a running GenerationRun with a fresh UUID.
func NewGenerationRun(trigger string) *GenerationRun {
	return &GenerationRun{
		ID:        uuid.New(),
		Trigger:   trigger,
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
	}
}

// Finish marks the run completed, or failed when err is not nil.
func (r *GenerationRun) Finish(err error) {
	now := time.Now()
	r.FinishedAt = &now
	if err != nil {
		r.Status = RunStatusError
		r.Errors = append(r.Errors, err.Error())
		return
	}
	r.Status = RunStatusCompleted
}
