// Package sqlite is the storage layer: feeds and their articles in a sqlite database.
package sqlite

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	newserrs "github.com/harshitpdoshi/news-app/internal/errors"
	"github.com/harshitpdoshi/news-app/internal/newsapp"
)

// Ensure Repo implements the Repository interface
var _ newsapp.Repository = (*Repo)(nil)

// Extended result code for a UNIQUE constraint violation.
const uniqueViolation = 2067

// The layout timestamps are written with. Lexical order matches time order.
const timeLayout = "2006-01-02 15:04:05"

type Repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) Repo {
	return Repo{db: db}
}

// storageErr tags a persistence failure so callers can tell it apart from a miss.
func storageErr(format string, err error) error {
	return newserrs.E(newserrs.KindStorage, fmt.Errorf(format+": %w", err))
}

// timestamp reads the DATETIME columns whether the driver hands back a
// time.Time or the raw text, and writes them in UTC at second precision.
type timestamp struct {
	Time  time.Time
	Valid bool
}

var timeLayouts = []string{
	timeLayout,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = timestamp{}
		return nil
	case time.Time:
		*t = timestamp{Time: v.UTC(), Valid: true}
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	}
	return fmt.Errorf("unsupported timestamp type %T", src)
}

func (t *timestamp) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = timestamp{Time: parsed.UTC(), Valid: true}
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}

func (t timestamp) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}
	return t.Time.UTC().Truncate(time.Second).Format(timeLayout), nil
}

func (t timestamp) ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	ts := t.Time
	return &ts
}

func toTimestamp(t *time.Time) timestamp {
	if t == nil || t.IsZero() {
		return timestamp{}
	}
	return timestamp{Time: *t, Valid: true}
}
