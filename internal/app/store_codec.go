package app

import "encoding/json"

// CoerceState turns whatever bytes are sitting under the store key into a
// structurally valid StoreState. It never fails: unreadable input, a foreign
// version tag, or a non-object payload all fall back to the canonical empty
// state, and individually malformed folders/chats/messages are dropped rather
// than poisoning the whole store. This is the only gate through which
// persisted bytes enter the process.
//
// now is the timestamp (unix millis) used to default missing createdAt/
// updatedAt/ts fields.
func CoerceState(raw []byte, now int64) StoreState {
	st := EmptyState()
	if len(raw) == 0 {
		return st
	}

	var top map[string]any
	if err := json.Unmarshal(raw, &top); err != nil {
		return st
	}
	if v, ok := asInt(top["version"]); !ok || v != StoreVersion {
		return st
	}

	folderIDs := map[string]bool{}
	if list, ok := top["folders"].([]any); ok {
		for _, entry := range list {
			f, ok := coerceFolder(entry, now)
			if !ok || folderIDs[f.ID] {
				continue
			}
			folderIDs[f.ID] = true
			st.Folders = append(st.Folders, f)
		}
	}

	chatIDs := map[string]bool{}
	if list, ok := top["chats"].([]any); ok {
		for _, entry := range list {
			c, ok := coerceChat(entry, now)
			if !ok || chatIDs[c.ID] {
				continue
			}
			// Referential repair: a folder reference must resolve.
			if c.FolderID != nil && !folderIDs[*c.FolderID] {
				c.FolderID = nil
			}
			chatIDs[c.ID] = true
			st.Chats = append(st.Chats, c)
		}
	}

	if active, ok := asString(top["activeChatId"]); ok && chatIDs[active] {
		st.ActiveChatID = &active
	}

	return st
}

func coerceFolder(entry any, now int64) (Folder, bool) {
	m, ok := entry.(map[string]any)
	if !ok {
		return Folder{}, false
	}
	id, okID := asString(m["id"])
	name, okName := asString(m["name"])
	if !okID || id == "" || !okName {
		return Folder{}, false
	}
	f := Folder{
		ID:        id,
		Name:      normalizeFolderName(name),
		CreatedAt: intOr(m["createdAt"], now),
		UpdatedAt: intOr(m["updatedAt"], now),
	}
	if collapsed, ok := m["collapsed"].(bool); ok {
		f.Collapsed = collapsed
	}
	return f, true
}

func coerceChat(entry any, now int64) (Chat, bool) {
	m, ok := entry.(map[string]any)
	if !ok {
		return Chat{}, false
	}
	id, okID := asString(m["id"])
	if !okID || id == "" {
		return Chat{}, false
	}
	c := Chat{
		ID:        id,
		Title:     DefaultChatTitle,
		CreatedAt: intOr(m["createdAt"], now),
		UpdatedAt: intOr(m["updatedAt"], now),
		Messages:  []StoredMessage{},
	}
	if title, ok := asString(m["title"]); ok {
		c.Title = normalizeTitle(title)
	}
	if folderID, ok := asString(m["folderId"]); ok {
		c.FolderID = &folderID
	}
	if list, ok := m["messages"].([]any); ok {
		for _, raw := range list {
			msg, ok := coerceMessage(raw, now)
			if !ok {
				continue
			}
			c.Messages = append(c.Messages, msg)
		}
	}
	return c, true
}

func coerceMessage(entry any, now int64) (StoredMessage, bool) {
	m, ok := entry.(map[string]any)
	if !ok {
		return StoredMessage{}, false
	}
	id, okID := asString(m["id"])
	role, okRole := asString(m["role"])
	text, okText := asString(m["text"])
	if !okID || id == "" || !okRole || !okText {
		return StoredMessage{}, false
	}
	if !validRole(role) {
		role = RoleUser
	}
	msg := StoredMessage{
		ID:   id,
		Role: role,
		Text: normalizeMessageText(text),
		TS:   intOr(m["ts"], now),
	}
	if model, ok := asString(m["model"]); ok {
		msg.Model = model
	}
	return msg, true
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int64, bool) {
	// encoding/json decodes every JSON number as float64.
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

func intOr(v any, fallback int64) int64 {
	if n, ok := asInt(v); ok {
		return n
	}
	return fallback
}
