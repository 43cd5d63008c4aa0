package fetch

import (
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

const (
	untitled      = "Untitled"
	maxSummaryLen = 2048
)

// Document is a parsed feed with every optional field resolved.
type Document struct {
	Title       string
	Description string
	Entries     []Entry
}

type Entry struct {
	Title     string
	Link      string
	Summary   string
	Author    string
	Published *time.Time // nil when the entry carries no usable date
}

// normalize is the one place missing or odd fields get their defaults.
func normalize(feed *gofeed.Feed) Document {
	doc := Document{
		Title:       strings.TrimSpace(feed.Title),
		Description: sanitize(feed.Description),
		Entries:     make([]Entry, 0, len(feed.Items)),
	}

	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		doc.Entries = append(doc.Entries, normalizeItem(item))
	}

	return doc
}

func normalizeItem(item *gofeed.Item) Entry {
	e := Entry{
		Title:   strings.TrimSpace(item.Title),
		Link:    strings.TrimSpace(item.Link),
		Summary: sanitize(item.Description),
	}
	if e.Title == "" {
		e.Title = untitled
	}

	// Atom entries often only carry content.
	if e.Summary == "" {
		e.Summary = sanitize(item.Content)
	}

	guid := strings.TrimSpace(item.GUID)
	if e.Link == "" && (strings.HasPrefix(guid, "http://") || strings.HasPrefix(guid, "https://")) {
		e.Link = guid
	}

	if item.Author != nil {
		e.Author = strings.TrimSpace(item.Author.Name)
	}
	if e.Author == "" && len(item.Authors) > 0 && item.Authors[0] != nil {
		e.Author = strings.TrimSpace(item.Authors[0].Name)
	}

	switch {
	case item.PublishedParsed != nil:
		e.Published = utcSeconds(*item.PublishedParsed)
	case item.UpdatedParsed != nil:
		e.Published = utcSeconds(*item.UpdatedParsed)
	}

	return e
}

func utcSeconds(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC().Truncate(time.Second)
	return &t
}

var stripPolicy = bluemonday.StrictPolicy()

// Removes all html tags from the string, usually a description.
//
// Also limits the length of the string so there's not a massive chunk of text being output.
func sanitize(s string) string {
	s = stripPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > maxSummaryLen {
		s = strings.TrimSpace(string(r[:maxSummaryLen]))
	}

	return s
}
