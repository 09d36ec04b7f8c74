package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Exporters are pure: they serialize a snapshot of the store and perform no
// I/O. Delivery is the sink's job (export_sink.go).

type jsonExport struct {
	ExportedAt    int64      `json:"exportedAt"`
	ExportedAtIso string     `json:"exportedAtIso"`
	State         StoreState `json:"state"`
}

// ExportJSON renders the full state as pretty-printed JSON. The state round-
// trips: feeding the embedded state back through CoerceState reproduces it.
func ExportJSON(st StoreState, now time.Time) ([]byte, error) {
	payload := jsonExport{
		ExportedAt:    now.UnixMilli(),
		ExportedAtIso: now.UTC().Format(time.RFC3339),
		State:         st,
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return out, nil
}

type jsonlMeta struct {
	Type          string `json:"type"`
	ExportedAt    int64  `json:"exportedAt"`
	ExportedAtIso string `json:"exportedAtIso"`
	Version       int    `json:"version"`
}

type jsonlFolder struct {
	Type string `json:"type"`
	Folder
}

type jsonlChat struct {
	Type         string  `json:"type"`
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	FolderID     *string `json:"folderId"`
	CreatedAt    int64   `json:"createdAt"`
	UpdatedAt    int64   `json:"updatedAt"`
	MessageCount int     `json:"messageCount"`
}

type jsonlMessage struct {
	Type   string `json:"type"`
	ChatID string `json:"chatId"`
	StoredMessage
}

// ExportJSONL renders the state as newline-delimited records: one meta record,
// then folders, then for each chat its metadata followed by its messages in
// conversation order. Consumers reconstruct structure by grouping on chatId.
func ExportJSONL(st StoreState, now time.Time) ([]byte, error) {
	var buf strings.Builder

	writeRecord := func(record any) error {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode export record: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
		return nil
	}

	if err := writeRecord(jsonlMeta{
		Type:          "meta",
		ExportedAt:    now.UnixMilli(),
		ExportedAtIso: now.UTC().Format(time.RFC3339),
		Version:       st.Version,
	}); err != nil {
		return nil, err
	}
	for _, f := range st.Folders {
		if err := writeRecord(jsonlFolder{Type: "folder", Folder: f}); err != nil {
			return nil, err
		}
	}
	for _, c := range st.Chats {
		if err := writeRecord(jsonlChat{
			Type:         "chat",
			ID:           c.ID,
			Title:        c.Title,
			FolderID:     c.FolderID,
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
			MessageCount: len(c.Messages),
		}); err != nil {
			return nil, err
		}
		for _, m := range c.Messages {
			if err := writeRecord(jsonlMessage{Type: "message", ChatID: c.ID, StoredMessage: m}); err != nil {
				return nil, err
			}
		}
	}
	return []byte(buf.String()), nil
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

// ExportChatMarkdown renders one chat as a human-readable document.
func ExportChatMarkdown(chat Chat) string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "# %s\n\n", chat.Title)
	fmt.Fprintf(&buf, "- id: %s\n", chat.ID)
	fmt.Fprintf(&buf, "- created: %s\n", formatMillis(chat.CreatedAt))
	fmt.Fprintf(&buf, "- updated: %s\n", formatMillis(chat.UpdatedAt))
	if chat.FolderID != nil {
		fmt.Fprintf(&buf, "- folder: %s\n", *chat.FolderID)
	}
	buf.WriteString("\n")

	for _, msg := range chat.Messages {
		fmt.Fprintf(&buf, "### %s · %s", msg.Role, formatMillis(msg.TS))
		if msg.Model != "" {
			fmt.Fprintf(&buf, " · %s", msg.Model)
		}
		buf.WriteString("\n\n")
		for _, line := range strings.Split(msg.Text, "\n") {
			fmt.Fprintf(&buf, "> %s\n", line)
		}
		buf.WriteString("\n")
	}
	return buf.String()
}

// ExportAllMarkdown renders the whole history: unfiled chats under an Inbox
// heading, then one heading per folder with its member chats.
func ExportAllMarkdown(st StoreState) string {
	var buf strings.Builder
	buf.WriteString("# Chat history\n\n")

	writeGroup := func(heading string, chats []Chat) {
		if len(chats) == 0 {
			return
		}
		fmt.Fprintf(&buf, "## %s\n\n", heading)
		for _, c := range chats {
			buf.WriteString(ExportChatMarkdown(c))
			buf.WriteString("---\n\n")
		}
	}

	var inbox []Chat
	for _, c := range st.Chats {
		if c.FolderID == nil || findFolder(&st, *c.FolderID) == nil {
			inbox = append(inbox, c)
		}
	}
	writeGroup("Inbox", inbox)

	for _, f := range SortedFolders(st) {
		var members []Chat
		for _, c := range st.Chats {
			if c.FolderID != nil && *c.FolderID == f.ID {
				members = append(members, c)
			}
		}
		writeGroup(f.Name, members)
	}
	return buf.String()
}

type exportIndex struct {
	ExportedAt    int64         `json:"exportedAt"`
	ExportedAtIso string        `json:"exportedAtIso"`
	Version       int           `json:"version"`
	Folders       []Folder      `json:"folders"`
	Chats         []ChatSummary `json:"chats"`
}

// ExportIndex renders a manifest of folder/chat metadata without message
// bodies, used alongside per-chat files in directory exports.
func ExportIndex(st StoreState, now time.Time) ([]byte, error) {
	chats := ChatSummaries(st)
	for i := range chats {
		// No message text in the manifest, snippets included.
		chats[i].Snippet = ""
	}
	payload := exportIndex{
		ExportedAt:    now.UnixMilli(),
		ExportedAtIso: now.UTC().Format(time.RFC3339),
		Version:       st.Version,
		Folders:       st.Folders,
		Chats:         chats,
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export index: %w", err)
	}
	return out, nil
}
