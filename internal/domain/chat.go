package domain

import "time"

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message. Messages are never edited once appended.
type Message struct {
	ID         string    `json:"id"`
	Topic      Topic     `json:"topic"`
	Role       string    `json:"role"` // user, assistant
	Content    string    `json:"content"`
	Sources    []Source  `json:"sources,omitempty"`
	CodeBlocks []string  `json:"code_blocks,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Source represents a citation source
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// UniqueSources drops sources whose URL was already seen, keeping order.
// Storage keeps duplicates; uniqueness is applied when rendering.
func UniqueSources(sources []Source) []Source {
	seen := make(map[string]struct{}, len(sources))
	out := make([]Source, 0, len(sources))
	for _, s := range sources {
		if _, ok := seen[s.URL]; ok {
			continue
		}
		seen[s.URL] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ChatRequest is the request to send a chat message
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse is the result of one admitted submission
type ChatResponse struct {
	Topic     Topic    `json:"topic"`
	Question  *Message `json:"question"`
	Answer    *Message `json:"answer"`
	Failed    bool     `json:"failed"`
	Remaining int      `json:"remaining"`
}

// Stats represents conversation statistics
type Stats struct {
	MessagesPerTopic map[Topic]int `json:"messages_per_topic"`
	TotalChats       int           `json:"total_chats"`
	StoredChats      int           `json:"stored_chats"`
	Quota            QuotaWindow   `json:"quota"`
	Authenticated    bool          `json:"authenticated"`
}
