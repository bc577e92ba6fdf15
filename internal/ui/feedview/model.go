package feedview

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nvhoang/shopfeed/internal/feed"
	"github.com/nvhoang/shopfeed/internal/keys"
	"github.com/nvhoang/shopfeed/internal/theme"
)

// FeedEventMsg wraps a feed mutation event for the Bubble Tea runtime.
type FeedEventMsg struct {
	Event feed.Event
}

// Model is the notification feed view. It registers one feed listener
// whose events are bridged onto the program's message loop through a
// channel subscription command.
type Model struct {
	feed   *feed.Store
	keys   *keys.KeyMap
	list   list.Model
	events chan feed.Event

	// Unsubscribe removes the feed listener. The program runner calls
	// it on shutdown.
	Unsubscribe func()

	unread int
	status string
	width  int
	height int
}

// New creates the feed view and registers its listener.
func New(f *feed.Store, k *keys.KeyMap, width, height int) Model {
	l := list.New(nil, ItemDelegate{}, width, height-3)
	l.Title = "Notifications"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	events := make(chan feed.Event, 32)
	unsubscribe := f.AddListener(func(ev feed.Event) {
		// Never block the mutation path; the view resyncs from the
		// store on the next event it does receive.
		select {
		case events <- ev:
		default:
		}
	})

	m := Model{
		feed:        f,
		keys:        k,
		list:        l,
		events:      events,
		Unsubscribe: unsubscribe,
		unread:      f.UnreadCount(),
		width:       width,
		height:      height,
	}
	m.syncItems()
	return m
}

// Init starts listening for feed events.
func (m Model) Init() tea.Cmd {
	return m.waitForEvent()
}

// waitForEvent returns a command that delivers the next feed event.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return nil
		}
		return FeedEventMsg{Event: ev}
	}
}

// Update handles messages for the feed view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-3)
		return m, nil

	case FeedEventMsg:
		m.unread = msg.Event.UnreadCount
		if msg.Event.Kind == feed.EventNew && msg.Event.Notification != nil {
			m.status = "new: " + msg.Event.Notification.Title
		}
		cmd := m.syncItems()
		return m, tea.Batch(cmd, m.waitForEvent())

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleKeys processes key input.
func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.MarkRead):
		item, ok := m.list.SelectedItem().(FeedItem)
		if !ok {
			return m, nil
		}
		n := item.Notification
		if n.HasID() {
			m.feed.MarkAsRead(ctx, *n.ID)
		} else {
			m.feed.MarkAsReadByKey(ctx, n.ClientKey)
		}
		m.unread = m.feed.UnreadCount()
		return m, m.syncItems()

	case key.Matches(msg, m.keys.MarkAllRead):
		m.feed.MarkAllAsRead(ctx)
		m.unread = 0
		return m, m.syncItems()

	case key.Matches(msg, m.keys.Clear):
		m.feed.Clear(ctx)
		m.unread = 0
		m.status = "feed cleared"
		return m, m.syncItems()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// syncItems rebuilds the list from the store's current contents.
func (m *Model) syncItems() tea.Cmd {
	notifications := m.feed.Notifications()
	items := make([]list.Item, len(notifications))
	for i, n := range notifications {
		items[i] = FeedItem{Notification: n}
	}
	return m.list.SetItems(items)
}

// View renders the feed with an unread badge and a key hint bar.
func (m Model) View() string {
	badge := ""
	if m.unread > 0 {
		badge = " " + theme.BadgeStyle.Render(fmt.Sprintf("%d unread", m.unread))
	}
	header := theme.HeaderStyle.Render("shopfeed") + badge

	status := m.status
	if status == "" {
		status = fmt.Sprintf("%d notifications", len(m.list.Items()))
	}

	help := theme.HelpStyle.Render(
		"j/k move · enter/r mark read · R mark all · x clear · q quit",
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		m.list.View(),
		theme.StatusBarStyle.Render(status)+"  "+help,
	)
}
