// Package chat holds the core data model of the assistant client: the
// session registry and the message-exchange orchestrator.
//
// An exchange is one full request/response cycle: the user message and a
// pending assistant placeholder appear immediately, exactly one request
// goes out, and the response (or failure) is reconciled into that
// placeholder. Exchanges are serialized per Manager; see DESIGN.md.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Horizontal-Labs/ArminApp/internal/analysis"
	"github.com/Horizontal-Labs/ArminApp/internal/infrastructure/logging"
	"github.com/Horizontal-Labs/ArminApp/internal/infrastructure/monitoring"
	"github.com/Horizontal-Labs/ArminApp/internal/shared/id"
)

// FallbackTitle names a session whose first message had neither text nor
// a usable file name.
const FallbackTitle = "File Analysis"

// Analyzer is the outbound side of an exchange.
type Analyzer interface {
	AnalyzeText(ctx context.Context, req analysis.TextRequest) (json.RawMessage, error)
	AnalyzeFile(ctx context.Context, req analysis.FileRequest) (json.RawMessage, error)
}

// EventKind discriminates change notifications.
type EventKind string

const (
	EventSessionsChanged EventKind = "sessions"
	EventMessagesChanged EventKind = "messages"
	EventStatusChanged   EventKind = "status"
)

// Event notifies subscribers that part of the manager's state changed.
type Event struct {
	Kind      EventKind
	SessionID id.SessionID
}

// Manager owns the session registry and orchestrates message exchanges.
// Callers hold an instance explicitly; there is no ambient singleton.
type Manager struct {
	store   *Store
	client  Analyzer
	log     *logging.Logger
	metrics *monitoring.Metrics
	mode    string

	// exchangeMu serializes whole exchanges, network round-trip included.
	exchangeMu sync.Mutex

	stateMu   sync.RWMutex
	busy      bool
	lastError string

	subMu sync.Mutex
	subs  map[chan Event]struct{}
}

// Option configures a Manager.
type Option func(*Manager)

// WithMetrics attaches an exchange metrics collector.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

// WithMode overrides the default analysis mode sent with every request.
func WithMode(mode string) Option {
	return func(mgr *Manager) { mgr.mode = mode }
}

// NewManager creates a manager over store and client.
func NewManager(store *Store, client Analyzer, log *logging.Logger, opts ...Option) *Manager {
	if log == nil {
		log = logging.NewNop()
	}
	m := &Manager{
		store:  store,
		client: client,
		log:    log,
		mode:   analysis.ModeComprehensive,
		subs:   make(map[chan Event]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoadPersistedData populates the registry from storage, best-effort.
func (m *Manager) LoadPersistedData() {
	m.store.LoadPersisted()
	m.updateSessionGauge()
	m.notify(Event{Kind: EventSessionsChanged})
}

// StartNewChat creates a new session and makes it current.
func (m *Manager) StartNewChat() id.SessionID {
	sid := m.store.StartNewChat()
	m.updateSessionGauge()
	m.notify(Event{Kind: EventSessionsChanged, SessionID: sid})
	return sid
}

// DeleteChat removes a session; unknown ids are a no-op.
func (m *Manager) DeleteChat(sessionID id.SessionID) {
	m.store.DeleteChat(sessionID)
	m.updateSessionGauge()
	m.notify(Event{Kind: EventSessionsChanged, SessionID: sessionID})
}

// SelectChat sets the current session. Unknown ids are permitted and show
// an empty message view.
func (m *Manager) SelectChat(sessionID id.SessionID) {
	m.store.SelectChat(sessionID)
	m.notify(Event{Kind: EventMessagesChanged, SessionID: sessionID})
}

// Sessions returns the session list, newest-first.
func (m *Manager) Sessions() []Session {
	return m.store.Sessions()
}

// CurrentMessages returns the current session's messages, or empty.
func (m *Manager) CurrentMessages() []Message {
	return m.store.CurrentMessages()
}

// CurrentSessionID returns the current session id, and false when none.
func (m *Manager) CurrentSessionID() (id.SessionID, bool) {
	return m.store.CurrentSessionID()
}

// Busy reports whether an exchange is in flight. Advisory, for the UI.
func (m *Manager) Busy() bool {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.busy
}

// LastError returns the detailed message of the most recent failed
// exchange; empty after a successful one.
func (m *Manager) LastError() string {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.lastError
}

// Subscribe registers a change-event channel. Events are dropped rather
// than blocking a slow subscriber.
func (m *Manager) Subscribe() <-chan Event {
	ch := make(chan Event, 16)
	m.subMu.Lock()
	m.subs[ch] = struct{}{}
	m.subMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (m *Manager) Unsubscribe(ch <-chan Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for sub := range m.subs {
		if sub == ch {
			delete(m.subs, sub)
			close(sub)
			return
		}
	}
}

// SendMessage runs one exchange: append the user message and a pending
// placeholder, send exactly one request, and settle the placeholder with
// the payload or the failure notice. Empty input (after trimming, with no
// file) is a deliberate silent no-op. The returned error mirrors
// LastError; the session store is left consistent either way.
func (m *Manager) SendMessage(ctx context.Context, text, filePath string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" && filePath == "" {
		return nil
	}

	m.exchangeMu.Lock()
	defer m.exchangeMu.Unlock()

	sid, ok := m.store.CurrentSessionID()
	if !ok {
		sid = m.StartNewChat()
	}

	m.setStatus(true, "")
	defer func() {
		m.stateMu.Lock()
		m.busy = false
		m.stateMu.Unlock()
		m.notify(Event{Kind: EventStatusChanged, SessionID: sid})
	}()

	firstMessage := len(m.store.Messages(sid)) == 0

	attachment := describeFile(filePath)
	m.store.AppendMessage(sid, NewUserMessage(trimmed, attachment))
	m.countMessage(RoleUser)

	if firstMessage {
		m.store.UpdateTitle(sid, deriveTitle(trimmed, attachment))
		m.notify(Event{Kind: EventSessionsChanged, SessionID: sid})
	}

	placeholder := m.store.AppendMessage(sid, NewPlaceholder())
	m.countMessage(RoleAssistant)
	m.notify(Event{Kind: EventMessagesChanged, SessionID: sid})

	start := time.Now()
	payload, kind, err := m.dispatch(ctx, sid, trimmed, filePath)
	if err != nil {
		m.settleFailure(sid, placeholder.ID, kind, time.Since(start), err)
		return err
	}

	m.store.UpdateMessage(sid, placeholder.ID, settled(&Result{Analysis: payload}))
	m.observe(kind, monitoring.OutcomeSuccess, time.Since(start))
	m.notify(Event{Kind: EventMessagesChanged, SessionID: sid})

	m.log.Debug("exchange_settled",
		zap.String("session", sid.String()),
		zap.String("kind", kind),
	)
	return nil
}

// dispatch builds, validates, and sends exactly one outbound request.
func (m *Manager) dispatch(ctx context.Context, sid id.SessionID, trimmed, filePath string) (json.RawMessage, string, error) {
	if filePath != "" {
		payload, err := m.client.AnalyzeFile(ctx, analysis.FileRequest{
			Path:           filePath,
			ChatID:         sid.String(),
			Mode:           m.mode,
			AdditionalText: trimmed,
		})
		return payload, "file", err
	}

	payload, err := m.client.AnalyzeText(ctx, analysis.TextRequest{
		Text:   trimmed,
		ChatID: sid.String(),
		Mode:   m.mode,
	})
	return payload, "text", err
}

// settleFailure records the detailed error in LastError and writes the
// fixed friendly string into the placeholder. The asymmetry is deliberate.
func (m *Manager) settleFailure(sid id.SessionID, placeholderID id.MessageID, kind string, elapsed time.Duration, err error) {
	m.setLastError(userFacing(err))
	m.store.UpdateMessage(sid, placeholderID, settled(&Result{Error: FailureNotice}))
	m.observe(kind, monitoring.OutcomeFailure, elapsed)
	m.notify(Event{Kind: EventMessagesChanged, SessionID: sid})

	m.log.Warn("exchange_failed",
		zap.String("session", sid.String()),
		zap.String("kind", kind),
		zap.Error(err),
	)
}

func userFacing(err error) string {
	var verr *analysis.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "analysis request failed"
}

// deriveTitle picks a title for a session's first message: the text, else
// the file name, else the fallback.
func deriveTitle(trimmed string, attachment *Attachment) string {
	switch {
	case trimmed != "":
		return trimmed
	case attachment != nil && attachment.Name != "":
		return attachment.Name
	default:
		return FallbackTitle
	}
}

// describeFile stats the path for the attachment shown in the user bubble.
// An unreadable path still yields a name; validation rejects it before the
// request goes out.
func describeFile(filePath string) *Attachment {
	if filePath == "" {
		return nil
	}
	att := &Attachment{Name: filepath.Base(filePath)}
	if info, err := os.Stat(filePath); err == nil {
		att.SizeBytes = info.Size()
	}
	return att
}

func (m *Manager) setStatus(busy bool, lastError string) {
	m.stateMu.Lock()
	m.busy = busy
	m.lastError = lastError
	m.stateMu.Unlock()
	m.notify(Event{Kind: EventStatusChanged})
}

func (m *Manager) setLastError(msg string) {
	m.stateMu.Lock()
	m.lastError = msg
	m.stateMu.Unlock()
}

func (m *Manager) notify(ev Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for sub := range m.subs {
		select {
		case sub <- ev:
		default:
		}
	}
}

func (m *Manager) updateSessionGauge() {
	if m.metrics == nil {
		return
	}
	m.metrics.SessionsActive.Set(float64(len(m.store.Sessions())))
}

func (m *Manager) countMessage(role Role) {
	if m.metrics == nil {
		return
	}
	m.metrics.MessagesTotal.WithLabelValues(string(role)).Inc()
}

func (m *Manager) observe(kind, outcome string, elapsed time.Duration) {
	if m.metrics == nil {
		return
	}
	m.metrics.ObserveExchange(kind, outcome, elapsed)
}
