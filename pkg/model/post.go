package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PostSummary is one entry of the posts list as returned by the backend.
// Values are immutable snapshots; the list is replaced wholesale on each fetch.
type PostSummary struct {
	ID        Ref       `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Rating    float64   `json:"rating"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
	User      Ref       `json:"user"`
}

// NewPost is the body of a post creation request.
type NewPost struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Backend field limits for new posts.
const (
	MaxTitleLength   = 100
	MaxContentLength = 1000
)

// Validate checks the post against the backend limits.
func (p NewPost) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return NewValidationError("title is required", FieldError{Field: "title", Message: "required"})
	}
	if strings.TrimSpace(p.Content) == "" {
		return NewValidationError("content is required", FieldError{Field: "content", Message: "required"})
	}
	if n := len([]rune(p.Title)); n > MaxTitleLength {
		return NewValidationError("title is too long",
			FieldError{Field: "title", Message: fmt.Sprintf("%d characters, max %d", n, MaxTitleLength)})
	}
	if n := len([]rune(p.Content)); n > MaxContentLength {
		return NewValidationError("content is too long",
			FieldError{Field: "content", Message: fmt.Sprintf("%d characters, max %d", n, MaxContentLength)})
	}
	return nil
}

// Ref is an identifier the backend may encode as a string, a number, or an
// object carrying an id or username.
type Ref string

// UnmarshalJSON accepts strings, numbers, null and {"username"|"id": ...} objects.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Ref(s)
		return nil
	case data[0] == '{':
		var obj struct {
			ID       json.RawMessage `json:"id"`
			Username string          `json:"username"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if obj.Username != "" {
			*r = Ref(obj.Username)
			return nil
		}
		if len(obj.ID) > 0 {
			return r.UnmarshalJSON(obj.ID)
		}
		*r = ""
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("ref: unsupported value %s", data)
		}
		*r = Ref(n.String())
		return nil
	}
}

// String returns the identifier as text.
func (r Ref) String() string { return string(r) }

// Timestamp parses backend times with or without a zone offset.
// Zone-less values are taken as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses any of the layouts the backend is known to emit.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Unix seconds.
		secs, perr := strconv.ParseFloat(string(data), 64)
		if perr != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		t.Time = time.Unix(int64(secs), 0).UTC()
		return nil
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
