package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lchat/internal/app"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// Completer produces an assistant reply for a conversation.
type Completer interface {
	Complete(ctx context.Context, history []app.StoredMessage) (string, error)
}

type keyMap struct {
	Quit    key.Binding
	Focus   key.Binding
	NewChat key.Binding
	Delete  key.Binding
	Search  key.Binding
	Cancel  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:    key.NewBinding(key.WithKeys("ctrl+c")),
		Focus:   key.NewBinding(key.WithKeys("tab")),
		NewChat: key.NewBinding(key.WithKeys("ctrl+n")),
		Delete:  key.NewBinding(key.WithKeys("ctrl+d")),
		Search:  key.NewBinding(key.WithKeys("/")),
		Cancel:  key.NewBinding(key.WithKeys("esc")),
	}
}

type stateMsg struct {
	state app.StoreState
	err   error
}

type replyMsg struct {
	chatID string
	text   string
	err    error
}

type Model struct {
	store  *app.ChatStore
	client Completer
	model  string

	theme Theme
	keys  keyMap

	width  int
	height int
	ready  bool
	focus  focusArea

	state     app.StoreState
	summaries []app.ChatSummary
	selected  int

	searching bool
	query     string

	input  textarea.Model
	chatVP viewport.Model

	waiting bool
	status  string
}

func New(store *app.ChatStore, client Completer, model string) *Model {
	ta := textarea.New()
	ta.Placeholder = "Message the model. Tab switches focus."
	ta.Focus()
	ta.CharLimit = app.MaxMessageChars
	ta.SetHeight(1)
	ta.Prompt = " "
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()

	return &Model{
		store:  store,
		client: client,
		model:  model,
		theme:  NewTheme(),
		keys:   newKeyMap(),
		width:  100,
		height: 30,
		focus:  focusInput,
		input:  ta,
		status: "Ready",
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.loadState)
}

func (m *Model) loadState() tea.Msg {
	st, err := m.store.EnsureInitialized(context.Background())
	return stateMsg{state: st, err: err}
}

func (m *Model) refresh() {
	m.summaries = app.SearchChats(m.state, m.query)
	if m.selected >= len(m.summaries) {
		m.selected = len(m.summaries) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	m.updateViewport()
}

func (m *Model) activeChat() *app.Chat {
	return app.ActiveChat(m.state)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		chatW, chatH := m.chatSize()
		if !m.ready {
			m.chatVP = viewport.New(chatW, chatH)
			m.ready = true
		} else {
			m.chatVP.Width = chatW
			m.chatVP.Height = chatH
		}
		m.input.SetWidth(maxInt(10, m.width-6))
		m.updateViewport()
		return m, nil

	case stateMsg:
		if msg.err != nil {
			m.status = "Storage error: " + msg.err.Error()
			return m, nil
		}
		m.state = msg.state
		m.refresh()
		if !m.waiting {
			m.status = "Ready"
		}
		return m, nil

	case replyMsg:
		m.waiting = false
		return m, m.storeReply(msg)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Focus):
			if m.focus == focusInput {
				m.focus = focusSidebar
				m.input.Blur()
			} else {
				m.focus = focusInput
				cmds = append(cmds, m.input.Focus())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, m.keys.NewChat):
			return m, m.newChat

		case key.Matches(msg, m.keys.Cancel):
			if m.searching || m.query != "" {
				m.searching = false
				m.query = ""
				m.refresh()
			}
			return m, nil
		}

		if m.focus == focusSidebar {
			return m, m.updateSidebar(msg)
		}
		if msg.Type == tea.KeyEnter {
			return m, m.send()
		}

	default:
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.chatVP, cmd = m.chatVP.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) updateSidebar(msg tea.KeyMsg) tea.Cmd {
	if m.searching {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			m.searching = false
		case tea.KeyBackspace:
			if r := []rune(m.query); len(r) > 0 {
				m.query = string(r[:len(r)-1])
			}
		case tea.KeyRunes, tea.KeySpace:
			m.query += string(msg.Runes)
		}
		m.refresh()
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.query = ""
		m.refresh()
	case msg.Type == tea.KeyUp:
		if m.selected > 0 {
			m.selected--
		}
	case msg.Type == tea.KeyDown:
		if m.selected < len(m.summaries)-1 {
			m.selected++
		}
	case msg.Type == tea.KeyEnter:
		if m.selected < len(m.summaries) {
			id := m.summaries[m.selected].ID
			return func() tea.Msg {
				st, err := m.store.SetActiveChat(context.Background(), id)
				return stateMsg{state: st, err: err}
			}
		}
	case key.Matches(msg, m.keys.Delete):
		if m.selected < len(m.summaries) {
			id := m.summaries[m.selected].ID
			return func() tea.Msg {
				st, err := m.store.DeleteChat(context.Background(), id)
				return stateMsg{state: st, err: err}
			}
		}
	}
	return nil
}

func (m *Model) newChat() tea.Msg {
	st, _, err := m.store.CreateChat(context.Background(), nil)
	return stateMsg{state: st, err: err}
}

// send persists the typed message, then asks the model for a reply.
func (m *Model) send() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.waiting {
		return nil
	}
	m.input.Reset()

	ctx := context.Background()
	chat := m.activeChat()
	var chatID string
	if chat == nil {
		st, id, err := m.store.CreateChat(ctx, nil)
		if err != nil {
			m.status = "Storage error: " + err.Error()
			return nil
		}
		m.state = st
		chatID = id
	} else {
		chatID = chat.ID
	}

	st, err := m.store.AppendMessage(ctx, chatID, app.StoredMessage{Role: app.RoleUser, Text: text})
	if err != nil {
		m.status = "Storage error: " + err.Error()
		return nil
	}
	m.state = st
	m.refresh()

	if m.client == nil {
		return nil
	}
	m.waiting = true
	m.status = "Waiting for " + m.model
	history := append([]app.StoredMessage(nil), mustChat(st, chatID).Messages...)
	return func() tea.Msg {
		reply, err := m.client.Complete(context.Background(), history)
		return replyMsg{chatID: chatID, text: reply, err: err}
	}
}

func (m *Model) storeReply(msg replyMsg) tea.Cmd {
	stored := app.StoredMessage{Role: app.RoleAssistant, Text: msg.text, Model: m.model}
	if msg.err != nil {
		stored = app.StoredMessage{Role: app.RoleError, Text: msg.err.Error()}
	}
	return func() tea.Msg {
		st, err := m.store.AppendMessage(context.Background(), msg.chatID, stored)
		return stateMsg{state: st, err: err}
	}
}

func mustChat(st app.StoreState, id string) app.Chat {
	for _, c := range st.Chats {
		if c.ID == id {
			return c
		}
	}
	return app.Chat{ID: id}
}

func (m *Model) sidebarWidth() int {
	w := m.width / 3
	if w > 40 {
		w = 40
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) chatSize() (int, int) {
	return maxInt(20, m.width-m.sidebarWidth()-6), maxInt(5, m.height-8)
}

func (m *Model) updateViewport() {
	if !m.ready {
		return
	}
	chat := m.activeChat()
	if chat == nil {
		m.chatVP.SetContent(m.theme.TopBarMeta.Render("No chat selected. Ctrl+N starts one."))
		return
	}
	var buf strings.Builder
	for _, msg := range chat.Messages {
		label := m.roleStyle(msg.Role).Render(msg.Role)
		when := time.UnixMilli(msg.TS).Format("15:04")
		meta := m.theme.TopBarMeta.Render(when)
		if msg.Model != "" {
			meta += m.theme.TopBarMeta.Render(" " + msg.Model)
		}
		buf.WriteString(label + " " + meta + "\n")
		buf.WriteString(lipgloss.NewStyle().Width(m.chatVP.Width).Render(msg.Text))
		buf.WriteString("\n\n")
	}
	m.chatVP.SetContent(buf.String())
	m.chatVP.GotoBottom()
}

func (m *Model) roleStyle(role string) lipgloss.Style {
	switch role {
	case app.RoleUser:
		return m.theme.RoleYou
	case app.RoleAssistant:
		return m.theme.RoleAI
	case app.RoleError:
		return m.theme.RoleErr
	}
	return m.theme.RoleSys
}

func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	top := m.theme.TopBar.Render(
		m.theme.TopBarTitle.Render("lchat") + "  " +
			m.theme.TopBarMeta.Render(fmt.Sprintf("%s · %d chats · %s", m.model, len(m.state.Chats), m.status)))

	sidebar := m.renderSidebar()
	chatPane := m.paneStyle(m.focus == focusInput).Render(m.chatVP.View())

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, chatPane)

	inputStyle := m.theme.InputBox
	if m.focus == focusInput {
		inputStyle = m.theme.InputBoxF
	}
	input := inputStyle.Width(maxInt(20, m.width-4)).Render(m.input.View())

	footer := m.theme.Footer.Render("tab focus · enter send · ctrl+n new · ctrl+d delete · / search · ctrl+c quit")

	return lipgloss.JoinVertical(lipgloss.Left, top, body, input, footer)
}

func (m *Model) paneStyle(focused bool) lipgloss.Style {
	if focused {
		return m.theme.PaneFocused
	}
	return m.theme.Pane
}

func (m *Model) renderSidebar() string {
	width := m.sidebarWidth()
	var buf strings.Builder

	title := "Chats"
	if m.searching || m.query != "" {
		title = "Search: " + m.query
	}
	buf.WriteString(m.theme.PaneTitle.Render(title) + "\n")

	folderNames := map[string]string{}
	for _, f := range m.state.Folders {
		folderNames[f.ID] = f.Name
	}

	for i, summary := range m.summaries {
		line := summary.Title
		if summary.FolderID != nil {
			if name, ok := folderNames[*summary.FolderID]; ok {
				line = m.theme.SidebarFolder.Render(name+"/") + line
			}
		}
		style := m.theme.SidebarItem
		if m.state.ActiveChatID != nil && summary.ID == *m.state.ActiveChatID {
			style = m.theme.SidebarNow
		}
		cursor := "  "
		if m.focus == focusSidebar && i == m.selected {
			cursor = "> "
		}
		buf.WriteString(cursor + style.MaxWidth(width-4).Render(line) + "\n")
		if summary.Snippet != "" {
			buf.WriteString("    " + m.theme.SidebarSnippet.MaxWidth(width-6).Render(summary.Snippet) + "\n")
		}
	}

	_, chatH := m.chatSize()
	return m.paneStyle(m.focus == focusSidebar).Width(width).Height(chatH).Render(buf.String())
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
