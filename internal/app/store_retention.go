package app

import "sort"

// EnforceLimits applies the retention policy to a coerced state:
//
//   - each chat keeps only its newest MaxMessagesPerChat messages,
//   - the store keeps only the MaxChats most recent chats by
//     (updatedAt desc, createdAt desc), except that the active chat is never
//     evicted: it displaces the least-recently-updated survivor instead,
//   - a dangling activeChatId is cleared.
//
// The function is idempotent; applying it twice is the same as once.
func EnforceLimits(st *StoreState) {
	for i := range st.Chats {
		msgs := st.Chats[i].Messages
		if n := len(msgs); n > MaxMessagesPerChat {
			st.Chats[i].Messages = append([]StoredMessage(nil), msgs[n-MaxMessagesPerChat:]...)
		}
	}

	if len(st.Chats) > MaxChats {
		sorted := append([]Chat(nil), st.Chats...)
		sort.SliceStable(sorted, func(i, j int) bool { return moreRecent(sorted[i], sorted[j]) })
		kept := sorted[:MaxChats]

		if st.ActiveChatID != nil {
			active := *st.ActiveChatID
			inKept := false
			for i := range kept {
				if kept[i].ID == active {
					inKept = true
					break
				}
			}
			if !inKept {
				for i := range sorted[MaxChats:] {
					evicted := sorted[MaxChats+i]
					if evicted.ID == active {
						kept[MaxChats-1] = evicted
						break
					}
				}
			}
		}
		st.Chats = kept
	}

	if st.ActiveChatID != nil && findChat(st, *st.ActiveChatID) == nil {
		st.ActiveChatID = nil
	}
}
