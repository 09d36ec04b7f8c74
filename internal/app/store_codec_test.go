package app

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

const testNow = int64(1700000000000)

func TestCoerceStateRejectsForeignPayloads(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"not json":      "{{{",
		"not an object": `[1,2,3]`,
		"no version":    `{"folders":[],"chats":[]}`,
		"wrong version": `{"version":2,"folders":[],"chats":[]}`,
		"string version": `{"version":"1"}`,
	}
	for name, raw := range cases {
		got := CoerceState([]byte(raw), testNow)
		if !reflect.DeepEqual(got, EmptyState()) {
			t.Fatalf("%s: expected empty state, got %#v", name, got)
		}
	}
}

func TestCoerceStateDropsMalformedEntries(t *testing.T) {
	raw := `{
		"version": 1,
		"folders": [
			{"id": "f1", "name": "Work"},
			{"id": 42, "name": "bad id"},
			{"name": "no id"},
			"not an object"
		],
		"chats": [
			{"id": "c1", "title": "ok", "messages": [
				{"id": "m1", "role": "user", "text": "hello"},
				{"id": "m2", "role": "alien", "text": "coerced"},
				{"id": "m3", "role": "user"},
				{"role": "user", "text": "no id"}
			]},
			{"title": "no id"},
			7
		]
	}`
	st := CoerceState([]byte(raw), testNow)

	if len(st.Folders) != 1 || st.Folders[0].ID != "f1" {
		t.Fatalf("folders: %#v", st.Folders)
	}
	if st.Folders[0].CreatedAt != testNow || st.Folders[0].UpdatedAt != testNow {
		t.Fatalf("folder timestamps not defaulted: %#v", st.Folders[0])
	}
	if len(st.Chats) != 1 || st.Chats[0].ID != "c1" {
		t.Fatalf("chats: %#v", st.Chats)
	}
	msgs := st.Chats[0].Messages
	if len(msgs) != 2 {
		t.Fatalf("expected 2 surviving messages, got %#v", msgs)
	}
	if msgs[1].Role != RoleUser {
		t.Fatalf("unknown role not coerced to user: %q", msgs[1].Role)
	}
	if msgs[0].TS != testNow {
		t.Fatalf("message ts not defaulted: %d", msgs[0].TS)
	}
}

func TestCoerceStateRepairsReferences(t *testing.T) {
	raw := `{
		"version": 1,
		"folders": [{"id": "f1", "name": "Work"}],
		"chats": [
			{"id": "c1", "folderId": "f1"},
			{"id": "c2", "folderId": "ghost"}
		],
		"activeChatId": "missing"
	}`
	st := CoerceState([]byte(raw), testNow)

	if st.Chats[0].FolderID == nil || *st.Chats[0].FolderID != "f1" {
		t.Fatalf("valid folder reference lost: %#v", st.Chats[0])
	}
	if st.Chats[1].FolderID != nil {
		t.Fatalf("dangling folder reference kept: %#v", st.Chats[1])
	}
	if st.ActiveChatID != nil {
		t.Fatalf("dangling activeChatId kept: %q", *st.ActiveChatID)
	}
}

func TestCoerceStateDropsDuplicateIDs(t *testing.T) {
	raw := `{
		"version": 1,
		"folders": [{"id": "f1", "name": "first"}, {"id": "f1", "name": "second"}],
		"chats": [{"id": "c1", "title": "first"}, {"id": "c1", "title": "second"}]
	}`
	st := CoerceState([]byte(raw), testNow)
	if len(st.Folders) != 1 || st.Folders[0].Name != "first" {
		t.Fatalf("folders: %#v", st.Folders)
	}
	if len(st.Chats) != 1 || st.Chats[0].Title != "first" {
		t.Fatalf("chats: %#v", st.Chats)
	}
}

func TestCoerceStateBoundsMessageText(t *testing.T) {
	long := strings.Repeat("x", MaxMessageChars+500)
	raw := `{"version":1,"chats":[{"id":"c1","messages":[{"id":"m1","role":"user","text":"` + long + `"}]}]}`
	st := CoerceState([]byte(raw), testNow)
	text := st.Chats[0].Messages[0].Text
	if got := len([]rune(text)); got > MaxMessageChars {
		t.Fatalf("text not bounded: %d runes", got)
	}
	if !strings.HasSuffix(text, "…") {
		t.Fatalf("expected ellipsis marker at end of truncated text")
	}
}

func TestCoerceStateDefaultsBlankTitle(t *testing.T) {
	raw := `{"version":1,"chats":[{"id":"c1","title":"   "},{"id":"c2"}]}`
	st := CoerceState([]byte(raw), testNow)
	for _, c := range st.Chats {
		if c.Title != DefaultChatTitle {
			t.Fatalf("chat %s title = %q, want sentinel", c.ID, c.Title)
		}
	}
}

func TestCoerceStateIdempotent(t *testing.T) {
	raw := `{
		"version": 1,
		"folders": [{"id": "f1", "name": "Work", "collapsed": true}, {"bad": true}],
		"chats": [
			{"id": "c1", "folderId": "f1", "title": "notes", "messages": [
				{"id": "m1", "role": "whatever", "text": "hi", "model": 3}
			]},
			{"id": "c2", "folderId": "nope"}
		],
		"activeChatId": "c2"
	}`
	first := CoerceState([]byte(raw), testNow)

	encoded, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second := CoerceState(encoded, testNow+5000)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("coercion not idempotent:\n first: %#v\nsecond: %#v", first, second)
	}
}

func TestCoerceStatePreservesModelLabel(t *testing.T) {
	raw := `{"version":1,"chats":[{"id":"c1","messages":[
		{"id":"m1","role":"assistant","text":"hi","model":"llama3.2"},
		{"id":"m2","role":"assistant","text":"hi","model":7}
	]}]}`
	st := CoerceState([]byte(raw), testNow)
	msgs := st.Chats[0].Messages
	if msgs[0].Model != "llama3.2" {
		t.Fatalf("string model dropped: %#v", msgs[0])
	}
	if msgs[1].Model != "" {
		t.Fatalf("non-string model kept: %#v", msgs[1])
	}
}
