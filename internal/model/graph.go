// Package model defines the word graph data types.
package model

import "time"

// Sentinel is the node id standing for "no preceding word" when walking
// forward and "no following word" when walking backward. It is never
// assigned to a stored word.
const Sentinel int64 = -1

// Word is a token with its stable identifier.
type Word struct {
	ID    int64  `json:"id"`
	Token string `json:"token"`
}

// Edge counts how many times NextID followed PrevID.
type Edge struct {
	PrevID      int64 `json:"prev"`
	NextID      int64 `json:"next"`
	Occurrences int64 `json:"occurrences"`
}

// Neighbor is one candidate transition out of (or into) a node.
type Neighbor struct {
	ID          int64  `json:"id"`
	Token       string `json:"token,omitempty"`
	Occurrences int64  `json:"occurrences"`
}

// IsSentinel reports whether the neighbor is the sentence boundary.
func (n Neighbor) IsSentinel() bool { return n.ID == Sentinel }

// IngestResult carries the tokens of one ingested line. It is never stored.
type IngestResult struct {
	Tokens     []string `json:"tokens"`
	Multiplier int      `json:"multiplier"`
}

// Empty reports whether nothing was ingested.
func (r *IngestResult) Empty() bool { return r == nil || len(r.Tokens) == 0 }

// First returns the first ingested token.
func (r *IngestResult) First() string {
	if r.Empty() {
		return ""
	}
	return r.Tokens[0]
}

// Last returns the last ingested token.
func (r *IngestResult) Last() string {
	if r.Empty() {
		return ""
	}
	return r.Tokens[len(r.Tokens)-1]
}

// Snapshot is a portable dump of the whole store.
type Snapshot struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Settings  map[string]string `json:"settings,omitempty"`
	Words     []Word            `json:"words"`
	Edges     []Edge            `json:"edges"`
}
