package chat

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Horizontal-Labs/ArminApp/internal/infrastructure/logging"
	"github.com/Horizontal-Labs/ArminApp/internal/shared/id"
)

// Storage keys for the two persisted blobs.
const (
	keySessions = "chat:sessions"
	keyMessages = "chat:messages"
)

const (
	// DefaultTitle is the title of a freshly created session until its
	// first message derives a better one.
	DefaultTitle = "New Chat"

	maxTitleRunes = 50
	titleEllipsis = "..."
)

// Persister is the durable store the registry writes through to.
// Implementations must swallow their own failures; the in-memory registry
// stays authoritative regardless.
type Persister interface {
	Save(key string, value any)
	Load(key string, out any) bool
}

// Store is the in-memory session registry and single source of truth for
// the rendering layer. Every durable mutation writes through to the
// Persister synchronously.
type Store struct {
	mu sync.RWMutex
	// sessions is newest-first; messages keeps insertion order, which is
	// conversation order. current is empty when no session is selected.
	sessions []Session
	messages map[id.SessionID][]Message
	current  id.SessionID

	persister Persister
	log       *logging.Logger
}

// NewStore creates an empty registry backed by p.
func NewStore(p Persister, log *logging.Logger) *Store {
	if log == nil {
		log = logging.NewNop()
	}
	return &Store{
		messages:  make(map[id.SessionID][]Message),
		persister: p,
		log:       log,
	}
}

// LoadPersisted populates the registry from storage, best-effort: absent or
// corrupt entries yield empty state, never an error.
func (s *Store) LoadPersisted() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sessions []Session
	if s.persister.Load(keySessions, &sessions) {
		s.sessions = sessions
	}

	messages := make(map[id.SessionID][]Message)
	if s.persister.Load(keyMessages, &messages) {
		s.messages = messages
	}
	if s.messages == nil {
		s.messages = make(map[id.SessionID][]Message)
	}

	s.log.Debug("persisted_state_loaded",
		zap.Int("sessions", len(s.sessions)),
		zap.Int("threads", len(s.messages)),
	)
}

// StartNewChat creates a session at the front of the list, makes it
// current, and returns its id.
func (s *Store) StartNewChat() id.SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := Session{
		ID:        id.NewSessionID(),
		Title:     DefaultTitle,
		CreatedAt: time.Now(),
	}
	s.sessions = append([]Session{session}, s.sessions...)
	s.messages[session.ID] = []Message{}
	s.current = session.ID

	s.persistSessions()
	s.persistMessages()

	s.log.Info("chat_started", zap.String("session", session.ID.String()))
	return session.ID
}

// DeleteChat removes the session and its messages. Unknown ids are a
// no-op. Deleting the current session clears the current pointer.
func (s *Store) DeleteChat(sessionID id.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, sess := range s.sessions {
		if sess.ID == sessionID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}

	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)
	delete(s.messages, sessionID)
	if s.current == sessionID {
		s.current = ""
	}

	s.persistSessions()
	s.persistMessages()

	s.log.Info("chat_deleted", zap.String("session", sessionID.String()))
}

// SelectChat sets the current-session pointer. Existence is not checked:
// selecting an unknown id is permitted and yields an empty message view.
func (s *Store) SelectChat(sessionID id.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = sessionID
}

// UpdateTitle sets the session title, truncated to 50 runes with a
// trailing ellipsis marker. Unknown ids are a no-op.
func (s *Store) UpdateTitle(sessionID id.SessionID, rawTitle string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sessions {
		if s.sessions[i].ID == sessionID {
			s.sessions[i].Title = TruncateTitle(rawTitle)
			s.persistSessions()
			return
		}
	}
}

// AppendMessage completes the message (id and timestamp when unset),
// appends it to the session's sequence, and returns the stored value.
// The sequence is created if the session has none yet.
func (s *Store) AppendMessage(sessionID id.SessionID, msg Message) Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = id.NewMessageID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	s.messages[sessionID] = append(s.messages[sessionID], msg)
	s.persistMessages()

	return msg
}

// UpdateMessage merges patch into the identified message in place.
// Unknown session or message ids are silently ignored.
func (s *Store) UpdateMessage(sessionID id.SessionID, messageID id.MessageID, patch MessagePatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, ok := s.messages[sessionID]
	if !ok {
		return
	}
	for i := range seq {
		if seq[i].ID != messageID {
			continue
		}
		if patch.Pending != nil {
			seq[i].Pending = *patch.Pending
		}
		if patch.Result != nil {
			seq[i].Result = patch.Result
		}
		s.persistMessages()
		return
	}
}

// Sessions returns a copy of the session list, newest-first.
func (s *Store) Sessions() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// Messages returns a copy of the session's message sequence.
func (s *Store) Messages(sessionID id.SessionID) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seq := s.messages[sessionID]
	out := make([]Message, len(seq))
	copy(out, seq)
	return out
}

// CurrentSessionID returns the current session id, and false when none is
// selected.
func (s *Store) CurrentSessionID() (id.SessionID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != ""
}

// CurrentMessages returns the messages of the current session, or an empty
// slice when no session is selected.
func (s *Store) CurrentMessages() []Message {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	if current == "" {
		return []Message{}
	}
	return s.Messages(current)
}

// TruncateTitle shortens raw to the title limit, appending an ellipsis
// marker when truncation happened.
func TruncateTitle(raw string) string {
	runes := []rune(raw)
	if len(runes) <= maxTitleRunes {
		return raw
	}
	return string(runes[:maxTitleRunes]) + titleEllipsis
}

// persistSessions and persistMessages write through to storage; callers
// hold the write lock.
func (s *Store) persistSessions() {
	s.persister.Save(keySessions, s.sessions)
}

func (s *Store) persistMessages() {
	s.persister.Save(keyMessages, s.messages)
}
