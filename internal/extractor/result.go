package extractor

import (
	"encoding/json"
	"maps"
	"slices"
)

// Result is the record produced by one extraction. It is not modified after
// assembly; WithMetadata returns a copy.
type Result struct {
	SourceURL string            `json:"url"`
	Title     string            `json:"title"`
	BodyText  string            `json:"content"`
	Comments  []Comment         `json:"comments"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ReplyCount returns how many of the comments are replies.
func (r *Result) ReplyCount() int {
	n := 0
	for _, c := range r.Comments {
		if c.IsReply {
			n++
		}
	}
	return n
}

// WithMetadata returns a copy of r carrying meta.
func (r *Result) WithMetadata(meta map[string]string) *Result {
	out := *r
	out.Comments = slices.Clone(r.Comments)
	out.Metadata = maps.Clone(meta)
	return &out
}

type commentJSON struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Date   string `json:"date"`
	Type   string `json:"type,omitempty"`
}

const replyType = "reply"

// MarshalJSON writes the comment in the shape downstream tooling reads:
// replies carry "type": "reply", top-level comments omit the field.
func (c Comment) MarshalJSON() ([]byte, error) {
	w := commentJSON{Text: c.Text, Author: c.Author, Date: c.Timestamp}
	if c.IsReply {
		w.Type = replyType
	}
	return json.Marshal(w)
}

func (c *Comment) UnmarshalJSON(data []byte) error {
	var w commentJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = Comment{Text: w.Text, Author: w.Author, Timestamp: w.Date, IsReply: w.Type == replyType}
	return nil
}
