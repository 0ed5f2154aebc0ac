package syncstore

import (
	"context"
	"encoding/json"
	"time"

	"insightslm-be/internal/pkg/logger"
	"insightslm-be/pkg/chat/normalizer"
	"insightslm-be/pkg/chat/sources"
	"insightslm-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/patrickmn/go-cache"
)

const maxReadAttempts = 3

// retryDelay between read attempts. A variable so tests can shrink it.
var retryDelay = 150 * time.Millisecond

// Notebook is the cached view of one notebook row. SourceCount is derived on
// fetch from the selection and the genre index.
type Notebook struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	SelectedBooks  []string  `json:"selected_books"`
	SelectedGenres []string  `json:"selected_genres"`
	MemorySummary  string    `json:"memory_summary,omitempty"`
	KeyFacts       []string  `json:"key_facts,omitempty"`
	SourceCount    int       `json:"source_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NotebookSource reads notebook state from the persistent store.
// FetchByUser must return notebooks most-recently-updated first.
type NotebookSource interface {
	FetchByUser(ctx context.Context, userID string) ([]Notebook, error)
	FetchGenreIndex(ctx context.Context) (map[string][]string, error)
}

// MessageSource reads and clears chat rows for one notebook.
// FetchRows must return rows ordered by creation time ascending.
type MessageSource interface {
	FetchRows(ctx context.Context, notebookID string) ([]normalizer.Row, error)
	FetchLookup(ctx context.Context, notebookID string) (normalizer.Lookup, error)
	DeleteRows(ctx context.Context, notebookID string) error
}

// CreatedNotebook is the backend proxy's answer to a notebook creation.
type CreatedNotebook struct {
	Notebook        Notebook        `json:"notebook"`
	BackendResponse json.RawMessage `json:"backend_response,omitempty"`
}

// SentMessage is the backend proxy's answer to a chat message: the persisted
// row plus the raw backend payload.
type SentMessage struct {
	Row             normalizer.Row  `json:"message"`
	BackendResponse json.RawMessage `json:"response,omitempty"`
}

// Backend is the proxy-function pair. It owns persistence for both
// operations; the store never writes chat rows itself on the send path.
type Backend interface {
	CreateNotebook(ctx context.Context, name, userID string) (*CreatedNotebook, error)
	SendMessage(ctx context.Context, notebookID, text string) (*SentMessage, error)
}

// Store keeps a process-local cached view of notebooks and chat messages
// consistent with the persistent store across reads, mutations, and push
// notifications. Each write path has a deterministic merge rule: reads fill,
// mutations invalidate (or replace, for history deletion), push inserts
// merge append-only de-duplicated by message id.
type Store struct {
	cache      *cache.Cache
	notebooks  NotebookSource
	messages   MessageSource
	backend    Backend
	subscriber message.Subscriber
	topic      string
	logger     logger.ILogger
}

func NewStore(
	notebooks NotebookSource,
	messages MessageSource,
	backend Backend,
	subscriber message.Subscriber,
	topic string,
	log logger.ILogger,
) *Store {
	return &Store{
		cache:      cache.New(cache.NoExpiration, 10*time.Minute),
		notebooks:  notebooks,
		messages:   messages,
		backend:    backend,
		subscriber: subscriber,
		topic:      topic,
		logger:     log,
	}
}

func notebooksKey(userID string) string {
	return "notebooks:" + userID
}

func messagesKey(notebookID string) string {
	return "chat_messages:" + notebookID
}

// withReadRetry runs fn up to maxReadAttempts times. Auth failures are never
// retried; a canceled context stops further attempts.
func (s *Store) withReadRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxReadAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if isAuthFailure(err) {
			return &Error{Tag: TagAuth, Op: op, Err: err}
		}
		if ctx.Err() != nil {
			break
		}
		if attempt < maxReadAttempts {
			s.logger.Warn("SyncStore", "Read failed, retrying", map[string]interface{}{
				"op":      op,
				"attempt": attempt,
				"error":   err.Error(),
			})
			time.Sleep(retryDelay)
		}
	}
	return &Error{Tag: TagTransport, Op: op, Err: err}
}

// ListNotebooks returns the user's notebooks, most-recently-updated first,
// with the effective source count computed per the union policy.
func (s *Store) ListNotebooks(ctx context.Context, userID string) ([]Notebook, error) {
	if v, found := s.cache.Get(notebooksKey(userID)); found {
		return v.([]Notebook), nil
	}

	var (
		notebooks []Notebook
		index     map[string][]string
	)
	err := s.withReadRetry(ctx, "list notebooks", func() error {
		var err error
		if notebooks, err = s.notebooks.FetchByUser(ctx, userID); err != nil {
			return err
		}
		index, err = s.notebooks.FetchGenreIndex(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	for i := range notebooks {
		notebooks[i].SourceCount = sources.Count(notebooks[i].SelectedBooks, notebooks[i].SelectedGenres, index)
	}

	// A read abandoned by its caller must not touch the cache.
	if ctx.Err() == nil {
		s.cache.Set(notebooksKey(userID), notebooks, cache.NoExpiration)
	}
	return notebooks, nil
}

// ListChatMessages returns the notebook's normalized message sequence,
// ordered by row insertion with the human turn before the assistant turn.
func (s *Store) ListChatMessages(ctx context.Context, notebookID string) ([]normalizer.Message, error) {
	if v, found := s.cache.Get(messagesKey(notebookID)); found {
		return v.([]normalizer.Message), nil
	}

	var (
		rows   []normalizer.Row
		lookup normalizer.Lookup
	)
	err := s.withReadRetry(ctx, "list chat messages", func() error {
		var err error
		if rows, err = s.messages.FetchRows(ctx, notebookID); err != nil {
			return err
		}
		lookup, err = s.messages.FetchLookup(ctx, notebookID)
		return err
	})
	if err != nil {
		return nil, err
	}

	messages := normalizer.NormalizeAll(rows, lookup)

	if ctx.Err() == nil {
		s.cache.Set(messagesKey(notebookID), messages, cache.NoExpiration)
	}
	return messages, nil
}

// CreateNotebook creates the notebook through the backend proxy and
// invalidates the user's cached notebook list so the next read refetches.
// Mutations are never retried.
func (s *Store) CreateNotebook(ctx context.Context, name, userID string) (*CreatedNotebook, error) {
	created, err := s.backend.CreateNotebook(ctx, name, userID)
	if err != nil {
		return nil, &Error{Tag: classify(err), Op: "create notebook", Err: err}
	}
	s.cache.Delete(notebooksKey(userID))
	return created, nil
}

// SendMessage submits a chat message through the backend proxy, which
// persists the row and computes the reply. The cache is not written here;
// the resulting row arrives through the push feed and merges there.
func (s *Store) SendMessage(ctx context.Context, notebookID, text string) (*SentMessage, error) {
	sent, err := s.backend.SendMessage(ctx, notebookID, text)
	if err != nil {
		tag := TagBackend
		if isAuthFailure(err) {
			tag = TagAuth
		}
		return nil, &Error{Tag: tag, Op: "send message", Err: err}
	}
	return sent, nil
}

// DeleteChatHistory removes all rows for the notebook and replaces the cache
// entry with an empty sequence. Replacing rather than invalidating avoids a
// refetch racing the delete.
func (s *Store) DeleteChatHistory(ctx context.Context, notebookID string) error {
	if err := s.messages.DeleteRows(ctx, notebookID); err != nil {
		return &Error{Tag: classify(err), Op: "delete chat history", Err: err}
	}
	s.cache.Set(messagesKey(notebookID), []normalizer.Message{}, cache.NoExpiration)
	return nil
}

// ApplyChange merges one push notification into the cache. Chat inserts are
// append-only and de-duplicated by normalized id, so applying the same event
// twice equals applying it once. Notebook changes invalidate the owner's
// list. Events for notebooks with no cached view are dropped; the next read
// fetches fresh state anyway.
func (s *Store) ApplyChange(ctx context.Context, change events.RowChange) {
	switch change.Table {
	case events.TableChatMessages:
		switch change.Change {
		case events.ChangeInsert:
			s.mergeChatInsert(ctx, change)
		case events.ChangeDelete:
			if _, found := s.cache.Get(messagesKey(change.NotebookID)); found {
				s.cache.Set(messagesKey(change.NotebookID), []normalizer.Message{}, cache.NoExpiration)
			}
		}
	case events.TableNotebooks:
		s.cache.Delete(notebooksKey(change.UserID))
	}
}

func (s *Store) mergeChatInsert(ctx context.Context, change events.RowChange) {
	v, found := s.cache.Get(messagesKey(change.NotebookID))
	if !found {
		return
	}
	cached := v.([]normalizer.Message)

	var row normalizer.Row
	if err := json.Unmarshal(change.Row, &row); err != nil {
		s.logger.Error("SyncStore", "Dropping malformed push row", map[string]interface{}{
			"notebook_id": change.NotebookID,
			"error":       err.Error(),
		})
		return
	}

	lookup, err := s.messages.FetchLookup(ctx, change.NotebookID)
	if err != nil {
		// Degrade to placeholder titles rather than dropping the turn.
		s.logger.Warn("SyncStore", "Lookup fetch failed during push merge", map[string]interface{}{
			"notebook_id": change.NotebookID,
			"error":       err.Error(),
		})
		lookup = normalizer.Lookup{}
	}

	existing := make(map[string]struct{}, len(cached))
	for _, m := range cached {
		existing[m.ID] = struct{}{}
	}

	merged := cached
	for _, m := range normalizer.Normalize(row, lookup) {
		if _, dup := existing[m.ID]; dup {
			continue
		}
		merged = append(merged, m)
	}
	s.cache.Set(messagesKey(change.NotebookID), merged, cache.NoExpiration)
}

// Subscription is an explicitly owned handle on the push feed. Close stops
// the merge loop and waits for it to drain.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (sub *Subscription) Close() {
	sub.cancel()
	<-sub.done
}

// Subscribe attaches the store to the row-change feed and merges events
// until the subscription is closed or ctx ends.
func (s *Store) Subscribe(ctx context.Context) (*Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	messages, err := s.subscriber.Subscribe(subCtx, s.topic)
	if err != nil {
		cancel()
		return nil, &Error{Tag: TagTransport, Op: "subscribe", Err: err}
	}

	sub := &Subscription{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		for msg := range messages {
			var change events.RowChange
			if err := json.Unmarshal(msg.Payload, &change); err != nil {
				s.logger.Error("SyncStore", "Dropping malformed push event", map[string]interface{}{
					"error": err.Error(),
				})
				msg.Ack()
				continue
			}
			s.ApplyChange(subCtx, change)
			msg.Ack()
		}
	}()
	return sub, nil
}
