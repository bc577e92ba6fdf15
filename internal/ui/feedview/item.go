package feedview

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nvhoang/shopfeed/internal/model"
	"github.com/nvhoang/shopfeed/internal/theme"
)

// FeedItem wraps a model.Notification so it can be used in a bubbles/list.
type FeedItem struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i FeedItem) FilterValue() string { return i.Notification.Title }

// Title returns the notification headline for the list.
func (i FeedItem) Title() string { return i.Notification.Title }

// Description returns a short summary line for the list.
func (i FeedItem) Description() string { return i.Notification.Message }

// ItemDelegate implements list.ItemDelegate for rendering feed entries.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single feed entry line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	fi, ok := item.(FeedItem)
	if !ok {
		return
	}
	n := fi.Notification

	marker := "●"
	lineStyle := theme.UnreadItemStyle
	if n.Read {
		marker = "○"
		lineStyle = theme.ReadItemStyle
	}

	tag := ""
	if n.Category != "" {
		tag = theme.CategoryStyle(n.Category).Render(string(n.Category)) + " "
	}

	line := fmt.Sprintf("%s %s%s · %s  %s",
		marker,
		tag,
		lineStyle.Render(n.Title),
		n.Message,
		theme.HelpStyle.Render(relativeTime(n.Date)),
	)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = "  " + line
	}

	fmt.Fprint(w, line)
}

// relativeTime renders an ISO timestamp as a short "time ago" label.
// An unparseable or empty timestamp renders as empty rather than wrong.
func relativeTime(iso string) string {
	if iso == "" {
		return ""
	}

	var t time.Time
	var err error
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		t, err = time.Parse(layout, iso)
		if err == nil {
			break
		}
	}
	if err != nil {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
