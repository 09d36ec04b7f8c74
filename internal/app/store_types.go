package app

import "strings"

// The persisted chat store is a single versioned JSON aggregate shared by
// every lchat process (TUI, one-shot commands, scripts). Field names are part
// of the on-disk format and must not change.
const (
	StoreVersion = 1
	StoreKey     = "chatStore"

	MaxMessagesPerChat = 200
	MaxChats           = 50
	MaxMessageChars    = 20000
	MaxTitleChars      = 120
	MaxFolderNameChars = 80
	AutoTitleChars     = 40
	SnippetChars       = 80

	// DefaultChatTitle doubles as the "not yet auto-titled" sentinel.
	DefaultChatTitle  = "New chat"
	DefaultFolderName = "New folder"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleError     = "error"
)

func validRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem, RoleError:
		return true
	}
	return false
}

type Folder struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
	Collapsed bool   `json:"collapsed"`
}

type StoredMessage struct {
	ID   string `json:"id"`
	Role string `json:"role"` // user|assistant|system|error
	Text string `json:"text"`
	TS   int64  `json:"ts"`
	// Model names which local model produced an assistant reply.
	Model string `json:"model,omitempty"`
}

type Chat struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	FolderID  *string         `json:"folderId"`
	CreatedAt int64           `json:"createdAt"`
	UpdatedAt int64           `json:"updatedAt"`
	Messages  []StoredMessage `json:"messages"`
}

type StoreState struct {
	Version      int      `json:"version"`
	Folders      []Folder `json:"folders"`
	Chats        []Chat   `json:"chats"`
	ActiveChatID *string  `json:"activeChatId"`
}

// ChatSummary is a read-only projection used by list/search surfaces.
type ChatSummary struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	FolderID     *string `json:"folderId"`
	CreatedAt    int64   `json:"createdAt"`
	UpdatedAt    int64   `json:"updatedAt"`
	MessageCount int     `json:"messageCount"`
	Snippet      string  `json:"snippet,omitempty"`
}

func EmptyState() StoreState {
	return StoreState{
		Version: StoreVersion,
		Folders: []Folder{},
		Chats:   []Chat{},
	}
}

func findChat(st *StoreState, id string) *Chat {
	for i := range st.Chats {
		if st.Chats[i].ID == id {
			return &st.Chats[i]
		}
	}
	return nil
}

func findFolder(st *StoreState, id string) *Folder {
	for i := range st.Folders {
		if st.Folders[i].ID == id {
			return &st.Folders[i]
		}
	}
	return nil
}

// moreRecent is the eviction/listing order: updatedAt desc, createdAt desc.
func moreRecent(a, b Chat) bool {
	if a.UpdatedAt != b.UpdatedAt {
		return a.UpdatedAt > b.UpdatedAt
	}
	return a.CreatedAt > b.CreatedAt
}

func clampRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func normalizeTitle(title string) string {
	title = collapseWhitespace(title)
	if title == "" {
		return DefaultChatTitle
	}
	return clampRunes(title, MaxTitleChars)
}

func normalizeFolderName(name string) string {
	name = collapseWhitespace(name)
	if name == "" {
		return DefaultFolderName
	}
	return clampRunes(name, MaxFolderNameChars)
}

func normalizeMessageText(text string) string {
	return clampRunes(text, MaxMessageChars)
}

func deriveTitle(text string) string {
	title := collapseWhitespace(text)
	if title == "" {
		return DefaultChatTitle
	}
	return clampRunes(title, AutoTitleChars)
}
