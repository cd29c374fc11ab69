package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"interview-bot/internal/application"
	"interview-bot/internal/domain"
	"interview-bot/internal/infra/store"
)

type mockTranscriber struct {
	mu         sync.Mutex
	transcript string
	err        error
	calls      int
	lastFormat domain.AudioFormat
}

func (m *mockTranscriber) Transcribe(_ context.Context, _ []byte, format domain.AudioFormat) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastFormat = format
	if m.err != nil {
		return "", m.err
	}
	return m.transcript, nil
}

type mockChat struct {
	mu    sync.Mutex
	reply string
	err   error
	calls [][]domain.Turn
}

func (m *mockChat) Reply(_ context.Context, dialogue []domain.Turn) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, append([]domain.Turn(nil), dialogue...))
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

type sentMessage struct {
	id   int
	text string
	html bool
}

type mockMessenger struct {
	mu      sync.Mutex
	nextID  int
	sendErr error
	sent    []sentMessage
	edits   map[int]string
	deleted []int
}

func newMockMessenger() *mockMessenger {
	return &mockMessenger{edits: make(map[int]string)}
}

func (m *mockMessenger) Send(_ context.Context, _ int64, text string, opts application.SendOptions) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return 0, m.sendErr
	}
	m.nextID++
	m.sent = append(m.sent, sentMessage{id: m.nextID, text: text, html: opts.HTML})
	return m.nextID, nil
}

func (m *mockMessenger) Edit(_ context.Context, _ int64, messageID int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits[messageID] = text
	return nil
}

func (m *mockMessenger) Delete(_ context.Context, _ int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, messageID)
	return nil
}

func (m *mockMessenger) lastSent() sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

type mockFetcher struct {
	data []byte
	err  error
}

func (m *mockFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

type routerFixture struct {
	router      *application.Router
	store       *store.Memory
	transcriber *mockTranscriber
	chat        *mockChat
	messenger   *mockMessenger
	downloadDir string
}

func newFixture(t *testing.T) *routerFixture {
	t.Helper()

	f := &routerFixture{
		store:       store.NewMemory(),
		transcriber: &mockTranscriber{transcript: "Interviewer: hello\nApplicant: hi"},
		chat:        &mockChat{reply: "the answer"},
		messenger:   newMockMessenger(),
		downloadDir: t.TempDir(),
	}

	f.router = application.NewRouter(
		f.store,
		f.transcriber,
		f.chat,
		f.messenger,
		&mockFetcher{data: []byte("audio-bytes")},
		f.downloadDir,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return f
}

func (f *routerFixture) session(t *testing.T, chatID int64) *domain.Session {
	t.Helper()
	sess, err := f.store.Get(context.Background(), chatID)
	if err != nil {
		t.Fatalf("loading session: %v", err)
	}
	return sess
}

func (f *routerFixture) downloadCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(f.downloadDir)
	if err != nil {
		t.Fatalf("reading download dir: %v", err)
	}
	return len(entries)
}

func lastQuery(t *testing.T, chat *mockChat) string {
	t.Helper()
	if len(chat.calls) == 0 {
		t.Fatal("chat model was never called")
	}
	call := chat.calls[len(chat.calls)-1]
	return call[len(call)-1].Content
}

func TestRouter_QueuedTextsAnsweredAfterAudio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.router.HandleText(ctx, application.TextMessage{ChatID: 1, Text: "first question"})
	f.router.HandleText(ctx, application.TextMessage{ChatID: 1, Text: "second question"})

	if sess := f.session(t, 1); sess.PendingQuery != "first question\nsecond question" {
		t.Fatalf("PendingQuery = %q, want newline-joined texts", sess.PendingQuery)
	}

	f.router.HandleAudio(ctx, application.AudioMessage{ChatID: 1, FileRef: "f1", MIME: "audio/mpeg"})

	if len(f.chat.calls) != 1 {
		t.Fatalf("chat calls = %d, want 1", len(f.chat.calls))
	}
	want := "Here is user query: \nfirst question\nsecond question"
	if got := lastQuery(t, f.chat); got != want {
		t.Errorf("query = %q, want %q", got, want)
	}

	sess := f.session(t, 1)
	if sess.Phase != domain.PhaseChatting {
		t.Errorf("Phase = %s, want chatting", sess.Phase)
	}
	if sess.PendingQuery != "" {
		t.Errorf("PendingQuery = %q, want empty after consumption", sess.PendingQuery)
	}
	if len(sess.Dialogue) != 5 {
		t.Errorf("dialogue length = %d, want 5 (seed + user + assistant)", len(sess.Dialogue))
	}
}

func TestRouter_CaptionSupersedesQueuedTexts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.router.HandleText(ctx, application.TextMessage{ChatID: 1, Text: "queued text"})
	f.router.HandleAudio(ctx, application.AudioMessage{ChatID: 1, FileRef: "f1", MIME: "audio/ogg", Caption: "caption wins"})

	if len(f.chat.calls) != 1 {
		t.Fatalf("chat calls = %d, want 1", len(f.chat.calls))
	}
	if got := lastQuery(t, f.chat); got != "Here is user query: \ncaption wins" {
		t.Errorf("query = %q, want the caption only", got)
	}
	if sess := f.session(t, 1); sess.PendingQuery != "" {
		t.Errorf("PendingQuery = %q, want discarded", sess.PendingQuery)
	}
}

func TestRouter_UnsupportedMIMENeverTranscribes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.router.HandleAudio(ctx, application.AudioMessage{ChatID: 1, FileRef: "f1", MIME: "audio/flac"})

	if f.transcriber.calls != 0 {
		t.Errorf("transcriber calls = %d, want 0", f.transcriber.calls)
	}
	if sess := f.session(t, 1); sess.Phase != domain.PhaseAwaitingAudio {
		t.Errorf("Phase = %s, want awaiting_audio", sess.Phase)
	}
	if len(f.messenger.sent) != 1 {
		t.Errorf("sent messages = %d, want a single rejection notice", len(f.messenger.sent))
	}
}

func TestRouter_TranscriptionFailureKeepsSessionAndFile(t *testing.T) {
	f := newFixture(t)
	f.transcriber.err = &domain.TranscriptionError{Err: errors.New("service down")}
	ctx := context.Background()

	f.router.HandleText(ctx, application.TextMessage{ChatID: 1, Text: "queued"})
	f.router.HandleAudio(ctx, application.AudioMessage{ChatID: 1, FileRef: "f1", MIME: "audio/wav"})

	sess := f.session(t, 1)
	if sess.Phase != domain.PhaseAwaitingAudio {
		t.Errorf("Phase = %s, want awaiting_audio", sess.Phase)
	}
	if len(sess.Dialogue) != 0 {
		t.Errorf("dialogue length = %d, want 0", len(sess.Dialogue))
	}
	if sess.PendingQuery != "queued" {
		t.Errorf("PendingQuery = %q, want preserved", sess.PendingQuery)
	}
	// The downloaded file stays on disk for inspection.
	if got := f.downloadCount(t); got != 1 {
		t.Errorf("files in download dir = %d, want 1", got)
	}
}

func TestRouter_SuccessRemovesDownloadedFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.router.HandleAudio(ctx, application.AudioMessage{ChatID: 1, FileRef: "f1", MIME: "audio/mp4"})

	if f.transcriber.lastFormat != domain.FormatM4A {
		t.Errorf("format = %s, want m4a", f.transcriber.lastFormat)
	}
	if got := f.downloadCount(t); got != 0 {
		t.Errorf("files in download dir = %d, want 0", got)
	}
}

func TestRouter_ChatGrowsDialogueByTwoTurns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.router.HandleAudio(ctx, application.AudioMessage{ChatID: 1, FileRef: "f1", MIME: "audio/mpeg"})
	if got := len(f.session(t, 1).Dialogue); got != 3 {
		t.Fatalf("seed dialogue length = %d, want 3", got)
	}

	f.chat.err = &domain.ChatError{Err: errors.New("model error")}
	f.router.HandleText(ctx, application.TextMessage{ChatID: 1, Text: "will fail"})
	if got := len(f.session(t, 1).Dialogue); got != 3 {
		t.Errorf("dialogue length after failed call = %d, want unchanged 3", got)
	}

	f.chat.err = nil
	f.router.HandleText(ctx, application.TextMessage{ChatID: 1, Text: "will succeed"})

	sess := f.session(t, 1)
	if got := len(sess.Dialogue); got != 5 {
		t.Fatalf("dialogue length after successful call = %d, want 5", got)
	}
	if sess.Dialogue[3].Role != domain.RoleUser || sess.Dialogue[4].Role != domain.RoleAssistant {
		t.Errorf("appended roles = %s, %s, want user then assistant", sess.Dialogue[3].Role, sess.Dialogue[4].Role)
	}
	if sess.Dialogue[4].Content != "the answer" {
		t.Errorf("assistant turn = %q, want the model reply", sess.Dialogue[4].Content)
	}
}

func TestRouter_NewCommandResetsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.router.HandleAudio(ctx, application.AudioMessage{ChatID: 1, FileRef: "f1", MIME: "audio/mpeg", Caption: "q"})
	f.router.HandleCommand(ctx, application.Command{ChatID: 1, Name: "new"})

	sess := f.session(t, 1)
	if sess.Phase != domain.PhaseAwaitingAudio {
		t.Errorf("Phase = %s, want awaiting_audio", sess.Phase)
	}
	if sess.PendingQuery != "" || len(sess.Dialogue) != 0 || sess.NoticeID != 0 {
		t.Errorf("session not fully reset: %+v", sess)
	}
}

func TestRouter_WaitingNoticeIsEditedNotDuplicated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.router.HandleText(ctx, application.TextMessage{ChatID: 1, Text: "one"})
	f.router.HandleText(ctx, application.TextMessage{ChatID: 1, Text: "two"})

	if len(f.messenger.sent) != 1 {
		t.Errorf("sent messages = %d, want 1 (second text edits the notice)", len(f.messenger.sent))
	}
	noticeID := f.session(t, 1).NoticeID
	if noticeID == 0 {
		t.Fatal("NoticeID not recorded")
	}
	if _, ok := f.messenger.edits[noticeID]; !ok {
		t.Errorf("waiting notice %d was never edited", noticeID)
	}
}

func TestRouter_UnsupportedMediaSupersedesNotice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.router.HandleUnsupported(ctx, application.UnsupportedMessage{ChatID: 1, Kind: "photo"})
	first := f.session(t, 1).NoticeID

	f.router.HandleUnsupported(ctx, application.UnsupportedMessage{ChatID: 1, Kind: "video"})

	sess := f.session(t, 1)
	if sess.Phase != domain.PhaseAwaitingAudio {
		t.Errorf("Phase = %s, want untouched awaiting_audio", sess.Phase)
	}
	if len(f.messenger.deleted) != 1 || f.messenger.deleted[0] != first {
		t.Errorf("deleted = %v, want the first notice %d", f.messenger.deleted, first)
	}
	if sess.NoticeID == first {
		t.Error("NoticeID still points at the superseded notice")
	}
}

func TestRouter_UnknownCommandSuggestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.router.HandleCommand(ctx, application.Command{ChatID: 1, Name: "hlep"})
	got := f.messenger.lastSent().text
	if !strings.Contains(got, "имели в виду") || !strings.Contains(got, "/help") {
		t.Errorf("reply = %q, want a /help suggestion", got)
	}

	f.router.HandleCommand(ctx, application.Command{ChatID: 1, Name: "xyz123"})
	if got := f.messenger.lastSent().text; strings.Contains(got, "имели в виду") {
		t.Errorf("reply = %q, want the generic help pointer, no suggestions", got)
	}
}

// The end-to-end scenario: queued text, then captionless audio, one chat call
// answering the queued text, transcript seeded as context.
func TestRouter_EndToEnd(t *testing.T) {
	f := newFixture(t)
	f.transcriber.transcript = "T"
	f.chat.reply = "<b>Answer</b>"
	ctx := context.Background()

	f.router.HandleText(ctx, application.TextMessage{ChatID: 42, Text: "hi"})

	sess := f.session(t, 42)
	if sess.Phase != domain.PhaseAwaitingAudio || sess.PendingQuery != "hi" {
		t.Fatalf("after text: phase=%s pending=%q", sess.Phase, sess.PendingQuery)
	}
	if len(f.messenger.sent) != 1 {
		t.Fatalf("waiting notice not shown")
	}

	f.router.HandleAudio(ctx, application.AudioMessage{ChatID: 42, FileRef: "f1", MIME: "audio/ogg"})

	sess = f.session(t, 42)
	if sess.Phase != domain.PhaseChatting {
		t.Fatalf("Phase = %s, want chatting", sess.Phase)
	}
	if sess.Dialogue[0].Role != domain.RoleSystem {
		t.Errorf("dialogue[0].Role = %s, want system", sess.Dialogue[0].Role)
	}
	if !strings.Contains(sess.Dialogue[1].Content, "T") {
		t.Errorf("dialogue[1] = %q, want transcript as context", sess.Dialogue[1].Content)
	}
	if len(f.chat.calls) != 1 {
		t.Fatalf("chat calls = %d, want 1", len(f.chat.calls))
	}
	if got := lastQuery(t, f.chat); got != "Here is user query: \nhi" {
		t.Errorf("query = %q, want the queued text", got)
	}
	if last := sess.Dialogue[len(sess.Dialogue)-1]; last.Role != domain.RoleAssistant || last.Content != "<b>Answer</b>" {
		t.Errorf("final turn = %+v, want the assistant reply", last)
	}

	reply := f.messenger.lastSent()
	if reply.text != "<b>Answer</b>" || !reply.html {
		t.Errorf("delivered reply = %+v, want HTML-rendered model reply", reply)
	}
}

// Concurrent updates for one chat must serialize on the per-chat lock: no text
// may be lost or answered twice, and the dialogue must stay consistent.
func TestRouter_ConcurrentEventsForOneChat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	texts := []string{"alpha", "bravo", "charlie", "delta"}

	var wg sync.WaitGroup
	for _, text := range texts {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			f.router.HandleText(ctx, application.TextMessage{ChatID: 1, Text: text})
		}(text)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.router.HandleAudio(ctx, application.AudioMessage{ChatID: 1, FileRef: "f1", MIME: "audio/mpeg"})
	}()
	wg.Wait()

	sess := f.session(t, 1)
	if sess.Phase != domain.PhaseChatting {
		t.Fatalf("Phase = %s, want chatting", sess.Phase)
	}
	if sess.PendingQuery != "" {
		t.Errorf("PendingQuery = %q, want fully consumed", sess.PendingQuery)
	}
	if got, want := len(sess.Dialogue), 3+2*len(f.chat.calls); got != want {
		t.Errorf("dialogue length = %d, want %d (seed + two turns per chat call)", got, want)
	}

	// Every text is answered exactly once, whether it rode along with the
	// audio as a queued query or arrived afterwards as its own chat call.
	for _, text := range texts {
		answered := 0
		for _, call := range f.chat.calls {
			if strings.Contains(call[len(call)-1].Content, text) {
				answered++
			}
		}
		if answered != 1 {
			t.Errorf("text %q answered %d times, want exactly once", text, answered)
		}
	}
}

// A notice that was never delivered must not produce a delete call for
// message id 0.
func TestRouter_FailedNoticeSendSkipsDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.router.HandleAudio(ctx, application.AudioMessage{ChatID: 1, FileRef: "f1", MIME: "audio/mpeg"})
	baseline := len(f.messenger.deleted)

	f.messenger.sendErr = errors.New("telegram unreachable")
	f.router.HandleText(ctx, application.TextMessage{ChatID: 1, Text: "a question"})

	if got := len(f.messenger.deleted); got != baseline {
		t.Errorf("delete calls = %d, want %d (nothing to delete)", got, baseline)
	}
	for _, id := range f.messenger.deleted {
		if id == 0 {
			t.Error("delete was called with message id 0")
		}
	}
}
