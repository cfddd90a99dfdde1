package domain

import "time"

type ListingEventType string

const (
	ListingCreated ListingEventType = "listing.created"
	ListingUpdated ListingEventType = "listing.updated"
	ListingDeleted ListingEventType = "listing.deleted"
)

// ListingEvent is published after a listing mutation is committed.
type ListingEvent struct {
	Type       ListingEventType `json:"type"`
	ListingID  string           `json:"listing_id"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// SitemapEntry is one <url> of the generated sitemap.
type SitemapEntry struct {
	Loc        string
	LastMod    time.Time
	ChangeFreq string
	Priority   float64
}
