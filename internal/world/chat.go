package world

// ChatMessage is one entry in the chat ring.
type ChatMessage struct {
	SenderID   uint32
	SenderName string
	Text       string
}

// SystemSenderID and SystemSenderName identify server-generated notices.
const (
	SystemSenderID             = 0
	SystemSenderName           = "SYSTEM"
)

// ChatRing is a circular buffer of the last MaxChatHistory messages plus
// a monotone total count (spec.md §3).
type ChatRing struct {
	entries [MaxChatHistory]ChatMessage
	count   int // total messages ever enqueued
}

// Count returns the monotone total count of enqueued messages.
func (r *ChatRing) Count() int { return r.count }

// Append adds a message and returns its index (== count before the
// append).
func (r *ChatRing) Append(msg ChatMessage) int {
	idx := r.count
	r.entries[idx%MaxChatHistory] = msg
	r.count++
	return idx
}

// At returns the message at absolute index i. The caller is responsible
// for keeping i within the last MaxChatHistory messages — older entries
// have been overwritten.
func (r *ChatRing) At(i int) ChatMessage {
	return r.entries[i%MaxChatHistory]
}
