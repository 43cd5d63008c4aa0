package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/harshitpdoshi/news-app/internal/newsapp"
)

const displayTime = "2006-01-02 15:04"

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB000"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)

func (a *app) successf(format string, args ...any) {
	fmt.Fprintln(a.out, statusStyle.Render(fmt.Sprintf(format, args...)))
}

func (a *app) warnf(format string, args ...any) {
	fmt.Fprintln(a.out, warnStyle.Render(fmt.Sprintf(format, args...)))
}

func (a *app) panel(title string) {
	fmt.Fprintln(a.out, boxStyle.Render(titleStyle.Render(title)))
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(infoStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderFeeds(feeds []newsapp.Feed, stats map[int64]newsapp.FeedStats) string {
	t := newTable("ID", "Title", "URL", "Articles", "Unread", "Last Updated")
	for _, f := range feeds {
		s := stats[f.ID]
		t.Row(
			strconv.FormatInt(f.ID, 10),
			f.Title,
			f.URL,
			strconv.Itoa(s.Total),
			strconv.Itoa(s.Unread),
			formatTime(f.LastUpdated, "Never"),
		)
	}
	return t.String()
}

func renderArticles(articles []newsapp.Article, feedTitles map[int64]string) string {
	t := newTable("ID", "Title", "Feed", "Published", "Read")
	for _, a := range articles {
		feedTitle, ok := feedTitles[a.FeedID]
		if !ok {
			feedTitle = "Unknown"
		}
		read := "No"
		if a.Read {
			read = "Yes"
		}

		t.Row(
			strconv.FormatInt(a.ID, 10),
			a.Title,
			feedTitle,
			formatTime(a.Published, "Unknown"),
			read,
		)
	}
	return t.String()
}

func renderArticle(article newsapp.Article, feedTitle string) string {
	var b strings.Builder

	b.WriteString(boxStyle.Render(titleStyle.Render(article.Title) + "\n" + infoStyle.Render(feedTitle)))
	b.WriteString("\n")
	if article.Author != "" {
		b.WriteString(infoStyle.Italic(true).Render("By " + article.Author))
		b.WriteString("\n")
	}
	if article.Published != nil {
		b.WriteString(infoStyle.Render("Published: " + formatTime(article.Published, "")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if article.Summary != "" {
		b.WriteString(article.Summary)
	} else {
		b.WriteString("No summary available.")
	}
	b.WriteString("\n\n")
	b.WriteString("Read full article: " + article.Link)

	return b.String()
}

// formatTime renders t in local time, or fallback when it's unknown.
func formatTime(t *time.Time, fallback string) string {
	if t == nil {
		return fallback
	}
	return t.Local().Format(displayTime)
}
