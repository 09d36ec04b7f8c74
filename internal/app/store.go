package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChatStore is the sole owner of the persisted conversation history. Every
// mutation runs the same cycle: read the blob, coerce it into a valid state,
// mutate in memory, enforce retention, write the blob back.
//
// The mutex serializes callers within this process only. Separate processes
// sharing the same backend still race at whole-blob granularity (last writer
// wins); the backend contract offers no compare-and-swap, and a single user's
// surfaces cannot meaningfully mutate in parallel.
//
// Operations never fail on missing chats or folders: a caller racing a
// deletion gets the current valid state back, not an error. Only backend I/O
// failures propagate.
type ChatStore struct {
	backend Backend

	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

func NewChatStore(backend Backend) *ChatStore {
	return &ChatStore{
		backend: backend,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (s *ChatStore) nowMillis() int64 {
	return s.now().UnixMilli()
}

func (s *ChatStore) read(ctx context.Context) (StoreState, error) {
	raw, _, err := s.backend.Get(ctx)
	if err != nil {
		return EmptyState(), fmt.Errorf("read chat store: %w", err)
	}
	st := CoerceState(raw, s.nowMillis())
	EnforceLimits(&st)
	return st, nil
}

func (s *ChatStore) write(ctx context.Context, st StoreState) error {
	blob, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode chat store: %w", err)
	}
	if err := s.backend.Set(ctx, blob); err != nil {
		return fmt.Errorf("write chat store: %w", err)
	}
	return nil
}

func (s *ChatStore) update(ctx context.Context, mutate func(st *StoreState)) (StoreState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.read(ctx)
	if err != nil {
		return st, err
	}
	mutate(&st)
	EnforceLimits(&st)
	if err := s.write(ctx, st); err != nil {
		return st, err
	}
	return st, nil
}

// GetState reads, coerces and bounds the persisted state without writing
// anything back, even when normalization changed it.
func (s *ChatStore) GetState(ctx context.Context) (StoreState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

// EnsureInitialized persists the canonical empty state when the store looks
// untouched. Idempotent; an absent key and an explicitly empty store are
// indistinguishable here and treated the same.
func (s *ChatStore) EnsureInitialized(ctx context.Context) (StoreState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.read(ctx)
	if err != nil {
		return st, err
	}
	if len(st.Folders) == 0 && len(st.Chats) == 0 && st.ActiveChatID == nil {
		if err := s.write(ctx, st); err != nil {
			return st, err
		}
	}
	return st, nil
}

// CreateChat appends an empty chat, makes it active and returns its id.
// A folderID that does not resolve is treated as "no folder".
func (s *ChatStore) CreateChat(ctx context.Context, folderID *string) (StoreState, string, error) {
	id := s.newID()
	st, err := s.update(ctx, func(st *StoreState) {
		now := s.nowMillis()
		chat := Chat{
			ID:        id,
			Title:     DefaultChatTitle,
			CreatedAt: now,
			UpdatedAt: now,
			Messages:  []StoredMessage{},
		}
		if folderID != nil && findFolder(st, *folderID) != nil {
			fid := *folderID
			chat.FolderID = &fid
		}
		st.Chats = append(st.Chats, chat)
		st.ActiveChatID = &chat.ID
	})
	return st, id, err
}

func (s *ChatStore) SetActiveChat(ctx context.Context, chatID string) (StoreState, error) {
	return s.update(ctx, func(st *StoreState) {
		if findChat(st, chatID) == nil {
			return
		}
		st.ActiveChatID = &chatID
	})
}

func (s *ChatStore) RenameChat(ctx context.Context, chatID, title string) (StoreState, error) {
	return s.update(ctx, func(st *StoreState) {
		chat := findChat(st, chatID)
		if chat == nil {
			return
		}
		chat.Title = normalizeTitle(title)
		chat.UpdatedAt = s.nowMillis()
	})
}

// DeleteChat removes a chat. If it was active, the most recently updated
// remaining chat becomes active (or none).
func (s *ChatStore) DeleteChat(ctx context.Context, chatID string) (StoreState, error) {
	return s.update(ctx, func(st *StoreState) {
		kept := st.Chats[:0]
		removed := false
		for _, c := range st.Chats {
			if c.ID == chatID {
				removed = true
				continue
			}
			kept = append(kept, c)
		}
		if !removed {
			return
		}
		st.Chats = kept
		if st.ActiveChatID != nil && *st.ActiveChatID == chatID {
			st.ActiveChatID = nil
			var next *Chat
			for i := range st.Chats {
				if next == nil || moreRecent(st.Chats[i], *next) {
					next = &st.Chats[i]
				}
			}
			if next != nil {
				st.ActiveChatID = &next.ID
			}
		}
	})
}

// MoveChatToFolder reparents a chat. A folderID that does not resolve is
// treated as "no folder" rather than an error.
func (s *ChatStore) MoveChatToFolder(ctx context.Context, chatID string, folderID *string) (StoreState, error) {
	return s.update(ctx, func(st *StoreState) {
		chat := findChat(st, chatID)
		if chat == nil {
			return
		}
		chat.FolderID = nil
		if folderID != nil && findFolder(st, *folderID) != nil {
			fid := *folderID
			chat.FolderID = &fid
		}
		chat.UpdatedAt = s.nowMillis()
	})
}

// AppendMessage adds a message to a chat, generating an id and timestamp when
// absent and bounding the text. The first user message auto-titles a chat
// still carrying the sentinel title.
func (s *ChatStore) AppendMessage(ctx context.Context, chatID string, msg StoredMessage) (StoreState, error) {
	return s.update(ctx, func(st *StoreState) {
		chat := findChat(st, chatID)
		if chat == nil {
			return
		}
		if strings.TrimSpace(msg.ID) == "" {
			msg.ID = s.newID()
		}
		if !validRole(msg.Role) {
			msg.Role = RoleUser
		}
		msg.Text = normalizeMessageText(msg.Text)
		if msg.TS == 0 {
			msg.TS = s.nowMillis()
		}
		chat.Messages = append(chat.Messages, msg)
		chat.UpdatedAt = s.nowMillis()
		if chat.Title == DefaultChatTitle && msg.Role == RoleUser {
			chat.Title = deriveTitle(msg.Text)
		}
	})
}

func (s *ChatStore) CreateFolder(ctx context.Context, name string) (StoreState, string, error) {
	id := s.newID()
	st, err := s.update(ctx, func(st *StoreState) {
		now := s.nowMillis()
		st.Folders = append(st.Folders, Folder{
			ID:        id,
			Name:      normalizeFolderName(name),
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	return st, id, err
}

func (s *ChatStore) RenameFolder(ctx context.Context, folderID, name string) (StoreState, error) {
	return s.update(ctx, func(st *StoreState) {
		folder := findFolder(st, folderID)
		if folder == nil {
			return
		}
		folder.Name = normalizeFolderName(name)
		folder.UpdatedAt = s.nowMillis()
	})
}

// DeleteFolder removes a folder and reparents its chats to "no folder".
// Chats are never deleted alongside their folder.
func (s *ChatStore) DeleteFolder(ctx context.Context, folderID string) (StoreState, error) {
	return s.update(ctx, func(st *StoreState) {
		kept := st.Folders[:0]
		removed := false
		for _, f := range st.Folders {
			if f.ID == folderID {
				removed = true
				continue
			}
			kept = append(kept, f)
		}
		if !removed {
			return
		}
		st.Folders = kept
		for i := range st.Chats {
			if st.Chats[i].FolderID != nil && *st.Chats[i].FolderID == folderID {
				st.Chats[i].FolderID = nil
			}
		}
	})
}

func (s *ChatStore) ToggleFolderCollapsed(ctx context.Context, folderID string) (StoreState, error) {
	return s.update(ctx, func(st *StoreState) {
		folder := findFolder(st, folderID)
		if folder == nil {
			return
		}
		folder.Collapsed = !folder.Collapsed
	})
}

// ChatSummaries projects chats into list entries ordered by recency.
func ChatSummaries(st StoreState) []ChatSummary {
	chats := append([]Chat(nil), st.Chats...)
	sort.SliceStable(chats, func(i, j int) bool { return moreRecent(chats[i], chats[j]) })

	summaries := make([]ChatSummary, 0, len(chats))
	for _, c := range chats {
		summary := ChatSummary{
			ID:           c.ID,
			Title:        c.Title,
			FolderID:     c.FolderID,
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
			MessageCount: len(c.Messages),
		}
		if n := len(c.Messages); n > 0 {
			summary.Snippet = clampRunes(collapseWhitespace(c.Messages[n-1].Text), SnippetChars)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// SearchChats filters summaries by a case-insensitive substring match against
// the chat title or any message text. A blank query returns everything.
func SearchChats(st StoreState, query string) []ChatSummary {
	all := ChatSummaries(st)
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return all
	}
	matched := make([]ChatSummary, 0, len(all))
	for _, summary := range all {
		if chatMatches(st, summary.ID, query) {
			matched = append(matched, summary)
		}
	}
	return matched
}

func chatMatches(st StoreState, chatID, loweredQuery string) bool {
	chat := findChat(&st, chatID)
	if chat == nil {
		return false
	}
	if strings.Contains(strings.ToLower(chat.Title), loweredQuery) {
		return true
	}
	for _, msg := range chat.Messages {
		if strings.Contains(strings.ToLower(msg.Text), loweredQuery) {
			return true
		}
	}
	return false
}

// ActiveChat returns the active chat within st, or nil.
func ActiveChat(st StoreState) *Chat {
	if st.ActiveChatID == nil {
		return nil
	}
	return findChat(&st, *st.ActiveChatID)
}

// SortedFolders returns folders ordered by name (case-insensitive), ties by id.
func SortedFolders(st StoreState) []Folder {
	folders := append([]Folder(nil), st.Folders...)
	sort.SliceStable(folders, func(i, j int) bool {
		a := strings.ToLower(folders[i].Name)
		b := strings.ToLower(folders[j].Name)
		if a != b {
			return a < b
		}
		return folders[i].ID < folders[j].ID
	})
	return folders
}
