package app

import (
	"fmt"
	"reflect"
	"testing"
)

func chatAt(id string, updated, created int64) Chat {
	return Chat{ID: id, Title: DefaultChatTitle, CreatedAt: created, UpdatedAt: updated, Messages: []StoredMessage{}}
}

func TestEnforceLimitsTrimsOldestMessages(t *testing.T) {
	chat := chatAt("c1", 10, 10)
	for i := 0; i < MaxMessagesPerChat+5; i++ {
		chat.Messages = append(chat.Messages, StoredMessage{ID: fmt.Sprintf("m%d", i), Role: RoleUser, Text: "x", TS: int64(i)})
	}
	st := EmptyState()
	st.Chats = append(st.Chats, chat)

	EnforceLimits(&st)

	msgs := st.Chats[0].Messages
	if len(msgs) != MaxMessagesPerChat {
		t.Fatalf("expected %d messages, got %d", MaxMessagesPerChat, len(msgs))
	}
	if msgs[0].ID != "m5" {
		t.Fatalf("oldest messages not dropped first, head = %s", msgs[0].ID)
	}
	if msgs[len(msgs)-1].ID != fmt.Sprintf("m%d", MaxMessagesPerChat+4) {
		t.Fatalf("newest message lost, tail = %s", msgs[len(msgs)-1].ID)
	}
}

func TestEnforceLimitsEvictsLeastRecentChats(t *testing.T) {
	st := EmptyState()
	for i := 0; i < MaxChats+3; i++ {
		st.Chats = append(st.Chats, chatAt(fmt.Sprintf("c%d", i), int64(i), int64(i)))
	}

	EnforceLimits(&st)

	if len(st.Chats) != MaxChats {
		t.Fatalf("expected %d chats, got %d", MaxChats, len(st.Chats))
	}
	for _, c := range st.Chats {
		for _, evicted := range []string{"c0", "c1", "c2"} {
			if c.ID == evicted {
				t.Fatalf("least-recently-updated chat %s survived", evicted)
			}
		}
	}
}

func TestEnforceLimitsProtectsActiveChat(t *testing.T) {
	st := EmptyState()
	for i := 0; i < MaxChats+1; i++ {
		st.Chats = append(st.Chats, chatAt(fmt.Sprintf("c%d", i), int64(i), int64(i)))
	}
	// The active chat is the least recently updated of all.
	active := "c0"
	st.ActiveChatID = &active

	EnforceLimits(&st)

	if len(st.Chats) != MaxChats {
		t.Fatalf("expected %d chats, got %d", MaxChats, len(st.Chats))
	}
	if findChat(&st, "c0") == nil {
		t.Fatalf("active chat was evicted")
	}
	// c1 becomes the least-recently-updated survivor and is displaced instead.
	if findChat(&st, "c1") != nil {
		t.Fatalf("expected c1 to be displaced in favor of the active chat")
	}
	if st.ActiveChatID == nil || *st.ActiveChatID != "c0" {
		t.Fatalf("activeChatId lost")
	}
}

func TestEnforceLimitsTieBreaksOnCreatedAt(t *testing.T) {
	st := EmptyState()
	// All share updatedAt; createdAt decides, descending.
	for i := 0; i < MaxChats+1; i++ {
		st.Chats = append(st.Chats, chatAt(fmt.Sprintf("c%d", i), 100, int64(i)))
	}

	EnforceLimits(&st)

	if findChat(&st, "c0") != nil {
		t.Fatalf("oldest-created chat should lose the tie-break")
	}
	if findChat(&st, fmt.Sprintf("c%d", MaxChats)) == nil {
		t.Fatalf("newest-created chat should win the tie-break")
	}
}

func TestEnforceLimitsClearsDanglingActive(t *testing.T) {
	st := EmptyState()
	ghost := "ghost"
	st.ActiveChatID = &ghost

	EnforceLimits(&st)

	if st.ActiveChatID != nil {
		t.Fatalf("dangling activeChatId kept: %q", *st.ActiveChatID)
	}
}

func TestEnforceLimitsIdempotent(t *testing.T) {
	st := EmptyState()
	for i := 0; i < MaxChats+7; i++ {
		chat := chatAt(fmt.Sprintf("c%d", i), int64(i%13), int64(i))
		for j := 0; j < MaxMessagesPerChat+2; j++ {
			chat.Messages = append(chat.Messages, StoredMessage{ID: fmt.Sprintf("m%d", j), Role: RoleUser, Text: "x", TS: int64(j)})
		}
		st.Chats = append(st.Chats, chat)
	}
	active := "c3"
	st.ActiveChatID = &active

	EnforceLimits(&st)
	once := st
	onceChats := append([]Chat(nil), st.Chats...)

	EnforceLimits(&st)

	if !reflect.DeepEqual(onceChats, st.Chats) || !reflect.DeepEqual(once.ActiveChatID, st.ActiveChatID) {
		t.Fatalf("EnforceLimits is not idempotent")
	}
}
