package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"interview-bot/internal/domain"
)

// Router is the per-chat session state machine. It classifies inbound events
// against the session phase, queues text that arrives before its audio
// context exists, and serializes the growing dialogue sent to the model.
//
// All failures are absorbed here and reported to the user as notices; nothing
// propagates past an event handler. Transport failures around notices are
// logged and swallowed.
type Router struct {
	store       SessionStore
	transcriber Transcriber
	chat        ChatModel
	messenger   Messenger
	media       MediaFetcher
	downloadDir string
	logger      *slog.Logger

	mu sync.Mutex
	// locks holds one entry per chat ever seen and is never pruned; session
	// lifetime, and with it lock eviction, is owned by the store's policy.
	locks map[int64]*sync.Mutex
}

func NewRouter(
	store SessionStore,
	transcriber Transcriber,
	chat ChatModel,
	messenger Messenger,
	media MediaFetcher,
	downloadDir string,
	logger *slog.Logger,
) *Router {
	return &Router{
		store:       store,
		transcriber: transcriber,
		chat:        chat,
		messenger:   messenger,
		media:       media,
		downloadDir: downloadDir,
		logger:      logger,
		locks:       make(map[int64]*sync.Mutex),
	}
}

// lock serializes transitions for one chat so an in-flight transcription and
// an incoming text query cannot race on the same session.
func (r *Router) lock(chatID int64) func() {
	r.mu.Lock()
	l, ok := r.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[chatID] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// HandleAudio processes an audio or voice message: validate the format,
// download, transcribe, rebuild the dialogue around the transcript and answer
// the caption or any queued query. On transcription failure the session is
// left untouched and the downloaded file stays on disk for inspection.
func (r *Router) HandleAudio(ctx context.Context, msg AudioMessage) {
	defer r.lock(msg.ChatID)()

	sess, err := r.store.Get(ctx, msg.ChatID)
	if err != nil {
		r.logger.Error("loading session", "chat_id", msg.ChatID, "error", err)
		r.send(ctx, msg.ChatID, msgAudioError, SendOptions{})
		return
	}

	// Reject unknown containers before anything touches the network.
	format, err := domain.FormatForMIME(msg.MIME)
	if err != nil {
		r.logger.Warn("unsupported audio format", "chat_id", msg.ChatID, "mime", msg.MIME)
		r.send(ctx, msg.ChatID, msgUnsupported, SendOptions{})
		return
	}

	noticeID := r.send(ctx, msg.ChatID, msgAudioReceived, SendOptions{})

	path, audio, err := r.download(ctx, msg.FileRef, format)
	if err != nil {
		r.logger.Error("downloading audio", "chat_id", msg.ChatID, "error", err)
		r.editOrSend(ctx, msg.ChatID, noticeID, msgAudioError)
		return
	}

	transcript, err := r.transcriber.Transcribe(ctx, audio, format)
	if err != nil {
		// The downloaded file is deliberately kept for manual retry.
		r.logger.Error("transcribing audio", "chat_id", msg.ChatID, "file", path, "error", err)
		r.editOrSend(ctx, msg.ChatID, noticeID, msgAudioError)
		return
	}
	if removeErr := os.Remove(path); removeErr != nil {
		r.logger.Warn("removing downloaded audio", "file", path, "error", removeErr)
	}

	r.logger.Info("audio transcribed", "chat_id", msg.ChatID, "chars", len(transcript))

	// A caption supersedes anything queued; the queue is consumed either way.
	query := sess.PendingQuery
	if msg.Caption != "" {
		query = msg.Caption
	}
	sess.PendingQuery = ""

	if sess.NoticeID != 0 {
		r.delete(ctx, msg.ChatID, sess.NoticeID)
		sess.NoticeID = 0
	}

	sess.BeginDialogue(systemPrompt, transcriptContext(transcript), assistantGreeting)

	if query == "" {
		r.editOrSend(ctx, msg.ChatID, noticeID, msgAudioReady)
		r.put(ctx, sess)
		return
	}

	r.editOrSend(ctx, msg.ChatID, noticeID, msgQueryReceived)

	reply, err := r.runChat(ctx, sess, query)
	if err != nil {
		r.logger.Error("answering queued query", "chat_id", msg.ChatID, "error", err)
		r.editOrSend(ctx, msg.ChatID, noticeID, msgQueryError)
		r.put(ctx, sess)
		return
	}

	r.delete(ctx, msg.ChatID, noticeID)
	r.send(ctx, msg.ChatID, reply, SendOptions{HTML: true})
	r.put(ctx, sess)
}

// HandleText answers immediately while chatting; before any audio exists the
// text is queued and a single waiting notice is kept up to date.
func (r *Router) HandleText(ctx context.Context, msg TextMessage) {
	defer r.lock(msg.ChatID)()

	sess, err := r.store.Get(ctx, msg.ChatID)
	if err != nil {
		r.logger.Error("loading session", "chat_id", msg.ChatID, "error", err)
		r.send(ctx, msg.ChatID, msgQueryError, SendOptions{})
		return
	}

	if sess.Phase == domain.PhaseChatting {
		noticeID := r.send(ctx, msg.ChatID, msgQueryInFlight, SendOptions{})

		reply, err := r.runChat(ctx, sess, msg.Text)
		if err != nil {
			r.logger.Error("answering query", "chat_id", msg.ChatID, "error", err)
			r.editOrSend(ctx, msg.ChatID, noticeID, msgQueryError)
			return
		}

		r.delete(ctx, msg.ChatID, noticeID)
		r.send(ctx, msg.ChatID, reply, SendOptions{HTML: true})
		r.put(ctx, sess)
		return
	}

	sess.QueueQuery(msg.Text)
	queued := strings.Count(sess.PendingQuery, "\n") + 1
	sess.NoticeID = r.refreshNotice(ctx, msg.ChatID, sess.NoticeID, waitingNotice(queued))
	r.put(ctx, sess)
}

// HandleCommand dispatches /start, /new and /help; anything else gets
// edit-distance "did you mean" suggestions.
func (r *Router) HandleCommand(ctx context.Context, cmd Command) {
	switch cmd.Name {
	case "start":
		r.send(ctx, cmd.ChatID, msgGreeting, SendOptions{})
	case "help":
		r.send(ctx, cmd.ChatID, msgHelp, SendOptions{})
	case "new":
		r.resetSession(ctx, cmd.ChatID)
	default:
		suggestions := SuggestCommands(cmd.Name, KnownCommands)
		if len(suggestions) == 0 {
			r.send(ctx, cmd.ChatID, msgUnknownCommand, SendOptions{})
			return
		}
		for i, s := range suggestions {
			suggestions[i] = "/" + s
		}
		r.send(ctx, cmd.ChatID, msgDidYouMeanPrefix+strings.Join(suggestions, ", "), SendOptions{})
	}
}

// HandleUnsupported surfaces a notice for media the bot cannot process,
// superseding any previous notice so only the latest stays visible. The
// session phase is never touched.
func (r *Router) HandleUnsupported(ctx context.Context, msg UnsupportedMessage) {
	defer r.lock(msg.ChatID)()

	sess, err := r.store.Get(ctx, msg.ChatID)
	if err != nil {
		r.logger.Error("loading session", "chat_id", msg.ChatID, "error", err)
		r.send(ctx, msg.ChatID, msgUnsupportedMed, SendOptions{})
		return
	}

	r.logger.Info("unsupported media", "chat_id", msg.ChatID, "kind", msg.Kind)

	if sess.NoticeID != 0 {
		r.delete(ctx, msg.ChatID, sess.NoticeID)
	}
	sess.NoticeID = r.send(ctx, msg.ChatID, msgUnsupportedMed, SendOptions{})
	r.put(ctx, sess)
}

func (r *Router) resetSession(ctx context.Context, chatID int64) {
	defer r.lock(chatID)()

	sess, err := r.store.Get(ctx, chatID)
	if err != nil {
		r.logger.Error("loading session", "chat_id", chatID, "error", err)
		return
	}

	sess.Reset()
	r.put(ctx, sess)
	r.send(ctx, chatID, msgNewConversation, SendOptions{})
}

// runChat sends the dialogue plus the new query to the model. The session
// dialogue grows by exactly one user and one assistant turn on success and is
// left untouched on failure.
func (r *Router) runChat(ctx context.Context, sess *domain.Session, query string) (string, error) {
	user := domain.Turn{Role: domain.RoleUser, Content: queryTurn(query)}

	history := make([]domain.Turn, 0, len(sess.Dialogue)+1)
	history = append(history, sess.Dialogue...)
	history = append(history, user)

	reply, err := r.chat.Reply(ctx, history)
	if err != nil {
		return "", err
	}

	sess.Dialogue = append(sess.Dialogue, user, domain.Turn{Role: domain.RoleAssistant, Content: reply})
	return reply, nil
}

// download fetches the referenced media into the downloads directory and
// returns the local path together with the raw bytes.
func (r *Router) download(ctx context.Context, fileRef string, format domain.AudioFormat) (string, []byte, error) {
	audio, err := r.media.Fetch(ctx, fileRef)
	if err != nil {
		return "", nil, fmt.Errorf("fetching media: %w", err)
	}

	if err := os.MkdirAll(r.downloadDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("creating download dir: %w", err)
	}

	path := filepath.Join(r.downloadDir, uuid.NewString()+format.Extension())
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", nil, fmt.Errorf("writing download: %w", err)
	}

	return path, audio, nil
}

// send delivers a message, returning its id or 0 on failure. Failure to
// deliver a notice must never crash the handler, so errors are only logged.
func (r *Router) send(ctx context.Context, chatID int64, text string, opts SendOptions) int {
	id, err := r.messenger.Send(ctx, chatID, text, opts)
	if err != nil {
		r.logger.Error("sending message", "chat_id", chatID, "error", err)
		return 0
	}
	return id
}

// delete removes a notice by id; 0 means the notice was never delivered.
func (r *Router) delete(ctx context.Context, chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if err := r.messenger.Delete(ctx, chatID, messageID); err != nil {
		r.logger.Warn("deleting message", "chat_id", chatID, "message_id", messageID, "error", err)
	}
}

// editOrSend updates an existing notice in place, falling back to a fresh
// message when there is nothing to edit.
func (r *Router) editOrSend(ctx context.Context, chatID int64, messageID int, text string) {
	if messageID == 0 {
		r.send(ctx, chatID, text, SendOptions{})
		return
	}
	if err := r.messenger.Edit(ctx, chatID, messageID, text); err != nil {
		r.logger.Warn("editing message", "chat_id", chatID, "message_id", messageID, "error", err)
		r.send(ctx, chatID, text, SendOptions{})
	}
}

// refreshNotice edits the previous notice when one exists, otherwise sends a
// new one, and returns the id of the notice now visible.
func (r *Router) refreshNotice(ctx context.Context, chatID int64, noticeID int, text string) int {
	if noticeID != 0 {
		err := r.messenger.Edit(ctx, chatID, noticeID, text)
		if err == nil {
			return noticeID
		}
		r.logger.Warn("editing notice", "chat_id", chatID, "message_id", noticeID, "error", err)
	}
	return r.send(ctx, chatID, text, SendOptions{})
}

func (r *Router) put(ctx context.Context, sess *domain.Session) {
	if err := r.store.Put(ctx, sess); err != nil {
		r.logger.Error("saving session", "chat_id", sess.ChatID, "error", err)
	}
}
