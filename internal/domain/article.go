package domain

import "time"

// Article is a raw news record as returned by the upstream provider.
// PublishedAt is kept as the provider's raw string; the dispatch
// coordinator parses it so that one malformed instant discards one item
// instead of failing the whole batch.
type Article struct {
	Title       string
	Description string
	Content     string
	Source      string
	URL         string
	ImageURL    string
	PublishedAt string
}

// Category is a topical bucket with its own keyword table, priority rank,
// and destination channel. A lower Priority wins when an article matches
// several categories.
type Category struct {
	Name        string
	Keywords    []string
	Priority    int
	Destination string
	CatchAll    bool
}

// Message is the rendered payload handed to the destination transport.
type Message struct {
	Title       string
	Description string
	URL         string
	Author      string
	Footer      string
	ImageURL    string
}

// DeliveryRecord is the audit snapshot persisted after a successful send.
type DeliveryRecord struct {
	URL         string
	Category    string
	Destination string
	PublishedAt time.Time
	DeliveredAt time.Time
}

// CycleReport summarizes one dispatch cycle.
type CycleReport struct {
	Fetched      int
	Discarded    int
	Irrelevant   int
	Unclassified int
	Duplicates   int
	Stale        int
	Delivered    int
	Failed       int
	FetchFailed  bool
}
