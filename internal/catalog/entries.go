package catalog

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntryID identifies a banner or category. Early records used numeric ids,
// later ones random strings; both decode. Ids in canonical integer form are
// written back as numbers, everything else as strings.
type EntryID string

func (id *EntryID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = EntryID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = EntryID(n.String())
	return nil
}

func (id EntryID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func newEntryID(prefix string) EntryID {
	return EntryID(prefix + uuid.NewString())
}

type HeroBanner struct {
	ID          EntryID   `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
}

type HeroBannerInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type ShopCategory struct {
	ID        EntryID   `json:"id"`
	Name      string    `json:"name"`
	Link      string    `json:"link"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

type ShopCategoryInput struct {
	Name  string `json:"name"`
	Link  string `json:"link"`
	Image string `json:"image"`
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	notSlugChar   = regexp.MustCompile(`[^a-z0-9-]`)
)

// CategoryLink derives the storefront path for a category name.
func CategoryLink(name string) string {
	slug := strings.ToLower(name)
	slug = whitespaceRun.ReplaceAllString(slug, "-")
	slug = notSlugChar.ReplaceAllString(slug, "")
	return "/category/" + slug
}

func decodeJSON[T any](raw string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(raw), &v)
	return v, err
}
