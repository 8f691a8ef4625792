package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Horizontal-Labs/ArminApp/internal/analysis"
	"github.com/Horizontal-Labs/ArminApp/internal/infrastructure/monitoring"
)

// fakeAnalyzer records the requests it receives and returns a canned
// payload or error.
type fakeAnalyzer struct {
	payload json.RawMessage
	err     error

	textReqs []analysis.TextRequest
	fileReqs []analysis.FileRequest
}

func (f *fakeAnalyzer) AnalyzeText(_ context.Context, req analysis.TextRequest) (json.RawMessage, error) {
	f.textReqs = append(f.textReqs, req)
	return f.payload, f.err
}

func (f *fakeAnalyzer) AnalyzeFile(_ context.Context, req analysis.FileRequest) (json.RawMessage, error) {
	f.fileReqs = append(f.fileReqs, req)
	return f.payload, f.err
}

func newTestManager(client Analyzer) *Manager {
	store := NewStore(newMemPersister(), nil)
	return NewManager(store, client, nil,
		WithMetrics(monitoring.NewMetrics(prometheus.NewRegistry())))
}

func TestSendMessageEmptyIsSilentNoop(t *testing.T) {
	fake := &fakeAnalyzer{payload: []byte(`{}`)}
	m := newTestManager(fake)

	require.NoError(t, m.SendMessage(context.Background(), "", ""))
	require.NoError(t, m.SendMessage(context.Background(), "   \t\n", ""))

	assert.Empty(t, m.Sessions(), "no session should be created")
	assert.Empty(t, m.CurrentMessages())
	assert.Empty(t, fake.textReqs)
	assert.Empty(t, fake.fileReqs)
	assert.False(t, m.Busy())
	assert.Empty(t, m.LastError())
}

func TestSendMessageSuccess(t *testing.T) {
	fake := &fakeAnalyzer{payload: []byte(`{"summary":"looks good"}`)}
	m := newTestManager(fake)

	require.NoError(t, m.SendMessage(context.Background(), "  hello  ", ""))

	sessions := m.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, "hello", sessions[0].Title)

	msgs := m.CurrentMessages()
	require.Len(t, msgs, 2)

	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Nil(t, msgs[0].Attachment)

	assert.Equal(t, RoleAssistant, msgs[1].Role)
	assert.False(t, msgs[1].Pending)
	require.NotNil(t, msgs[1].Result)
	assert.False(t, msgs[1].Result.Failed())
	assert.JSONEq(t, `{"summary":"looks good"}`, string(msgs[1].Result.Analysis))

	assert.False(t, m.Busy())
	assert.Empty(t, m.LastError())

	require.Len(t, fake.textReqs, 1)
	assert.Equal(t, "hello", fake.textReqs[0].Text)
	assert.Equal(t, sessions[0].ID.String(), fake.textReqs[0].ChatID)
	assert.Equal(t, analysis.ModeComprehensive, fake.textReqs[0].Mode)
}

func TestSendMessageFailure(t *testing.T) {
	fake := &fakeAnalyzer{err: &analysis.TransportError{
		StatusCode: http.StatusInternalServerError,
		Message:    "Analysis failed: Internal Server Error",
	}}
	m := newTestManager(fake)

	err := m.SendMessage(context.Background(), "hello", "")
	require.Error(t, err)

	msgs := m.CurrentMessages()
	require.Len(t, msgs, 2)
	assert.False(t, msgs[1].Pending)
	require.True(t, msgs[1].Result.Failed())
	assert.Equal(t, FailureNotice, msgs[1].Result.Error)

	assert.Equal(t, "Analysis failed: Internal Server Error", m.LastError())
	assert.False(t, m.Busy())
}

func TestSendMessageValidationFailure(t *testing.T) {
	fake := &fakeAnalyzer{err: &analysis.ValidationError{Field: "Text", Message: "Text is required"}}
	m := newTestManager(fake)

	err := m.SendMessage(context.Background(), "hello", "")
	require.Error(t, err)

	assert.Equal(t, "Validation error: Text is required", m.LastError())
	msgs := m.CurrentMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, FailureNotice, msgs[1].Result.Error)
}

func TestSendMessageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("pdf bytes"), 0o644))

	fake := &fakeAnalyzer{payload: []byte(`{}`)}
	m := newTestManager(fake)

	require.NoError(t, m.SendMessage(context.Background(), "", path))

	msgs := m.CurrentMessages()
	require.Len(t, msgs, 2)
	require.NotNil(t, msgs[0].Attachment)
	assert.Equal(t, "report.pdf", msgs[0].Attachment.Name)
	assert.Equal(t, int64(len("pdf bytes")), msgs[0].Attachment.SizeBytes)
	assert.Empty(t, msgs[0].Text)

	// Title derives from the file name when there is no text.
	assert.Equal(t, "report.pdf", m.Sessions()[0].Title)

	require.Len(t, fake.fileReqs, 1)
	assert.Equal(t, path, fake.fileReqs[0].Path)
	assert.Empty(t, fake.fileReqs[0].AdditionalText)
	assert.Empty(t, fake.textReqs, "a file exchange must not also send a text request")
}

func TestSendMessageFileWithText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("pdf bytes"), 0o644))

	fake := &fakeAnalyzer{payload: []byte(`{}`)}
	m := newTestManager(fake)

	require.NoError(t, m.SendMessage(context.Background(), " check this ", path))

	// Text wins the title over the file name.
	assert.Equal(t, "check this", m.Sessions()[0].Title)
	require.Len(t, fake.fileReqs, 1)
	assert.Equal(t, "check this", fake.fileReqs[0].AdditionalText)
}

func TestTitleDerivedOnlyFromFirstMessage(t *testing.T) {
	fake := &fakeAnalyzer{payload: []byte(`{}`)}
	m := newTestManager(fake)

	require.NoError(t, m.SendMessage(context.Background(), "first message", ""))
	require.NoError(t, m.SendMessage(context.Background(), "second message", ""))

	assert.Equal(t, "first message", m.Sessions()[0].Title)
	assert.Len(t, m.CurrentMessages(), 4)
}

func TestSendMessageReusesCurrentSession(t *testing.T) {
	fake := &fakeAnalyzer{payload: []byte(`{}`)}
	m := newTestManager(fake)

	sid := m.StartNewChat()
	require.NoError(t, m.SendMessage(context.Background(), "hello", ""))

	assert.Len(t, m.Sessions(), 1)
	current, ok := m.CurrentSessionID()
	require.True(t, ok)
	assert.Equal(t, sid, current)
}

func TestFailureLeavesStoreConsistentForNextAttempt(t *testing.T) {
	fake := &fakeAnalyzer{err: &analysis.TransportError{Message: "network down"}}
	m := newTestManager(fake)

	require.Error(t, m.SendMessage(context.Background(), "hello", ""))
	assert.Equal(t, "network down", m.LastError())

	fake.err = nil
	fake.payload = []byte(`{"ok":true}`)
	require.NoError(t, m.SendMessage(context.Background(), "retry", ""))

	assert.Empty(t, m.LastError(), "lastError clears at the start of each attempt")
	msgs := m.CurrentMessages()
	require.Len(t, msgs, 4)
	assert.False(t, msgs[3].Result.Failed())
}

func TestDeriveTitle(t *testing.T) {
	assert.Equal(t, "hello", deriveTitle("hello", nil))
	assert.Equal(t, "doc.txt", deriveTitle("", &Attachment{Name: "doc.txt"}))
	assert.Equal(t, FallbackTitle, deriveTitle("", &Attachment{}))
	assert.Equal(t, FallbackTitle, deriveTitle("", nil))
}

func TestSubscribeReceivesChangeEvents(t *testing.T) {
	fake := &fakeAnalyzer{payload: []byte(`{}`)}
	m := newTestManager(fake)

	ch := m.Subscribe()
	defer m.Unsubscribe(ch)

	m.StartNewChat()

	var kinds []EventKind
	for len(ch) > 0 {
		kinds = append(kinds, (<-ch).Kind)
	}
	assert.Contains(t, kinds, EventSessionsChanged)
}

// End-to-end through the real analysis client against an in-process server.
func TestExchangeAgainstHTTPServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sentiment":"positive"}`))
	}))
	defer srv.Close()

	store := NewStore(newMemPersister(), nil)
	m := NewManager(store, analysis.New(analysis.Config{BaseURL: srv.URL}), nil)

	require.NoError(t, m.SendMessage(context.Background(), "hello", ""))

	msgs := m.CurrentMessages()
	require.Len(t, msgs, 2)
	assert.JSONEq(t, `{"sentiment":"positive"}`, string(msgs[1].Result.Analysis))
}
