package domain

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged message in the dialogue sent to the language model.
// The slice order is the literal prompt order.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Phase string

const (
	// PhaseAwaitingAudio means no interview has been transcribed yet; text
	// queries are queued instead of answered.
	PhaseAwaitingAudio Phase = "awaiting_audio"
	// PhaseChatting means a transcript exists and questions go straight to
	// the language model.
	PhaseChatting Phase = "chatting"
)

// Session is the per-chat conversation record. NoticeID is the message id of
// the last transient status notice sent to this chat (0 when none); it exists
// only so the notice can be edited or deleted later and is not part of the
// conversation itself.
type Session struct {
	ChatID       int64
	Phase        Phase
	PendingQuery string
	Dialogue     []Turn
	NoticeID     int
}

func NewSession(chatID int64) *Session {
	return &Session{ChatID: chatID, Phase: PhaseAwaitingAudio}
}

// Reset returns the session to its initial state.
func (s *Session) Reset() {
	s.Phase = PhaseAwaitingAudio
	s.PendingQuery = ""
	s.Dialogue = nil
	s.NoticeID = 0
}

// QueueQuery buffers text that arrived before any audio context existed.
// Queued texts are newline-joined in arrival order.
func (s *Session) QueueQuery(text string) {
	if s.PendingQuery == "" {
		s.PendingQuery = text
		return
	}
	s.PendingQuery += "\n" + text
}

// BeginDialogue discards any previous conversation, seeds a fresh one around
// the transcript and moves the session into the chatting phase.
func (s *Session) BeginDialogue(system, transcriptContext, greeting string) {
	s.Dialogue = []Turn{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: transcriptContext},
		{Role: RoleAssistant, Content: greeting},
	}
	s.Phase = PhaseChatting
}

// Clone returns an independent copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	c.Dialogue = append([]Turn(nil), s.Dialogue...)
	return &c
}
