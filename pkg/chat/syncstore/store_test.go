package syncstore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"insightslm-be/pkg/chat/normalizer"
	"insightslm-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type stubNotebookSource struct {
	notebooks []Notebook
	index     map[string][]string
	err       error
	calls     int
}

func (s *stubNotebookSource) FetchByUser(ctx context.Context, userID string) ([]Notebook, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.notebooks, nil
}

func (s *stubNotebookSource) FetchGenreIndex(ctx context.Context) (map[string][]string, error) {
	return s.index, nil
}

type stubMessageSource struct {
	rows        []normalizer.Row
	lookup      normalizer.Lookup
	fetchErr    error
	failFetches int // fail this many FetchRows calls before succeeding
	deleted     []string
	fetchCalls  int
}

func (s *stubMessageSource) FetchRows(ctx context.Context, notebookID string) ([]normalizer.Row, error) {
	s.fetchCalls++
	if s.failFetches > 0 {
		s.failFetches--
		return nil, errors.New("connection refused")
	}
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.rows, nil
}

func (s *stubMessageSource) FetchLookup(ctx context.Context, notebookID string) (normalizer.Lookup, error) {
	return s.lookup, nil
}

func (s *stubMessageSource) DeleteRows(ctx context.Context, notebookID string) error {
	s.deleted = append(s.deleted, notebookID)
	return nil
}

type stubBackend struct {
	created *CreatedNotebook
	sent    *SentMessage
	err     error
	calls   int
}

func (s *stubBackend) CreateNotebook(ctx context.Context, name, userID string) (*CreatedNotebook, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.created, nil
}

func (s *stubBackend) SendMessage(ctx context.Context, notebookID, text string) (*SentMessage, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.sent, nil
}

func newTestStore(nb *stubNotebookSource, ms *stubMessageSource, be *stubBackend) *Store {
	return NewStore(nb, ms, be, nil, "row_changes", nopLogger{})
}

func TestListNotebooksComputesSourceCount(t *testing.T) {
	nb := &stubNotebookSource{
		notebooks: []Notebook{{
			ID:             "n1",
			UserID:         "u1",
			Name:           "Research",
			SelectedBooks:  []string{"b1"},
			SelectedGenres: []string{"science"},
		}},
		index: map[string][]string{"science": {"b1", "b2"}},
	}
	store := newTestStore(nb, &stubMessageSource{}, &stubBackend{})

	got, err := store.ListNotebooks(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)

	// b1 is selected AND reachable via genre: counted once.
	assert.Equal(t, 2, got[0].SourceCount)
}

func TestListNotebooksCachesUntilInvalidated(t *testing.T) {
	nb := &stubNotebookSource{notebooks: []Notebook{{ID: "n1", UserID: "u1"}}}
	be := &stubBackend{created: &CreatedNotebook{Notebook: Notebook{ID: "n2"}}}
	store := newTestStore(nb, &stubMessageSource{}, be)

	_, err := store.ListNotebooks(context.Background(), "u1")
	require.NoError(t, err)
	_, err = store.ListNotebooks(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, nb.calls, "second read must hit the cache")

	_, err = store.CreateNotebook(context.Background(), "New", "u1")
	require.NoError(t, err)

	_, err = store.ListNotebooks(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, nb.calls, "create must invalidate the cached list")
}

func TestListChatMessagesNormalizesRows(t *testing.T) {
	ms := &stubMessageSource{
		rows: []normalizer.Row{
			{ID: "r1", NotebookID: "n1", UserMessage: "Hi"},
			{ID: "r2", NotebookID: "n1", UserMessage: "Q", AssistantResponse: "A"},
		},
		lookup: normalizer.Lookup{},
	}
	store := newTestStore(&stubNotebookSource{}, ms, &stubBackend{})

	got, err := store.ListChatMessages(context.Background(), "n1")
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, m := range got {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"r1-user", "r2-user", "r2-assistant"}, ids)
}

func TestReadRetriesTransportErrors(t *testing.T) {
	retryDelay = time.Millisecond
	ms := &stubMessageSource{failFetches: 2, lookup: normalizer.Lookup{}}
	store := newTestStore(&stubNotebookSource{}, ms, &stubBackend{})

	_, err := store.ListChatMessages(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, 3, ms.fetchCalls)
}

func TestReadGivesUpAfterThreeAttempts(t *testing.T) {
	retryDelay = time.Millisecond
	ms := &stubMessageSource{failFetches: 10}
	store := newTestStore(&stubNotebookSource{}, ms, &stubBackend{})

	_, err := store.ListChatMessages(context.Background(), "n1")
	require.Error(t, err)
	assert.True(t, HasTag(err, TagTransport))
	assert.Equal(t, 3, ms.fetchCalls)
}

func TestReadDoesNotRetryAuthFailures(t *testing.T) {
	retryDelay = time.Millisecond
	ms := &stubMessageSource{fetchErr: errors.New("JWT expired")}
	store := newTestStore(&stubNotebookSource{}, ms, &stubBackend{})

	_, err := store.ListChatMessages(context.Background(), "n1")
	require.Error(t, err)
	assert.True(t, HasTag(err, TagAuth))
	assert.Equal(t, 1, ms.fetchCalls, "auth failures must fail fast")
}

func TestAbandonedReadDoesNotPopulateCache(t *testing.T) {
	ms := &stubMessageSource{
		rows:   []normalizer.Row{{ID: "r1", NotebookID: "n1", UserMessage: "Hi"}},
		lookup: normalizer.Lookup{},
	}
	store := newTestStore(&stubNotebookSource{}, ms, &stubBackend{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // caller went away before the result landed

	_, err := store.ListChatMessages(ctx, "n1")
	require.NoError(t, err)

	_, err = store.ListChatMessages(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, 2, ms.fetchCalls, "abandoned read must not have filled the cache")
}

func TestDeleteChatHistoryReplacesCacheWithEmpty(t *testing.T) {
	ms := &stubMessageSource{
		rows:   []normalizer.Row{{ID: "r1", NotebookID: "n1", UserMessage: "Hi"}},
		lookup: normalizer.Lookup{},
	}
	store := newTestStore(&stubNotebookSource{}, ms, &stubBackend{})

	_, err := store.ListChatMessages(context.Background(), "n1")
	require.NoError(t, err)

	require.NoError(t, store.DeleteChatHistory(context.Background(), "n1"))
	assert.Equal(t, []string{"n1"}, ms.deleted)

	got, err := store.ListChatMessages(context.Background(), "n1")
	require.NoError(t, err)
	assert.Empty(t, got, "history must read empty immediately after delete")
	assert.Equal(t, 1, ms.fetchCalls, "delete must replace, not refetch")
}

func chatInsertEvent(t *testing.T, row normalizer.Row) events.RowChange {
	t.Helper()
	payload, err := json.Marshal(row)
	require.NoError(t, err)
	return events.RowChange{
		Table:      events.TableChatMessages,
		Change:     events.ChangeInsert,
		UserID:     "u1",
		NotebookID: row.NotebookID,
		Row:        payload,
		OccurredAt: time.Now(),
	}
}

func TestPushMergeAppendsNewTurns(t *testing.T) {
	ms := &stubMessageSource{
		rows:   []normalizer.Row{{ID: "r1", NotebookID: "n1", UserMessage: "Hi"}},
		lookup: normalizer.Lookup{},
	}
	store := newTestStore(&stubNotebookSource{}, ms, &stubBackend{})

	_, err := store.ListChatMessages(context.Background(), "n1")
	require.NoError(t, err)

	store.ApplyChange(context.Background(), chatInsertEvent(t, normalizer.Row{
		ID: "r2", NotebookID: "n1", UserMessage: "Q", AssistantResponse: "A",
	}))

	got, err := store.ListChatMessages(context.Background(), "n1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "r1-user", got[0].ID)
	assert.Equal(t, "r2-user", got[1].ID)
	assert.Equal(t, "r2-assistant", got[2].ID)
}

func TestPushMergeIsIdempotent(t *testing.T) {
	ms := &stubMessageSource{rows: []normalizer.Row{}, lookup: normalizer.Lookup{}}
	store := newTestStore(&stubNotebookSource{}, ms, &stubBackend{})

	_, err := store.ListChatMessages(context.Background(), "n1")
	require.NoError(t, err)

	event := chatInsertEvent(t, normalizer.Row{ID: "r1", NotebookID: "n1", UserMessage: "Hi"})
	store.ApplyChange(context.Background(), event)
	store.ApplyChange(context.Background(), event)

	got, err := store.ListChatMessages(context.Background(), "n1")
	require.NoError(t, err)
	assert.Len(t, got, 1, "same event applied twice must merge once")
}

func TestPushMergeSkipsUncachedNotebooks(t *testing.T) {
	ms := &stubMessageSource{lookup: normalizer.Lookup{}}
	store := newTestStore(&stubNotebookSource{}, ms, &stubBackend{})

	store.ApplyChange(context.Background(), chatInsertEvent(t, normalizer.Row{
		ID: "r1", NotebookID: "n9", UserMessage: "Hi",
	}))

	// Nothing cached, so the read goes to the source.
	_, err := store.ListChatMessages(context.Background(), "n9")
	require.NoError(t, err)
	assert.Equal(t, 1, ms.fetchCalls)
}

func TestNotebookChangeInvalidatesList(t *testing.T) {
	nb := &stubNotebookSource{notebooks: []Notebook{{ID: "n1", UserID: "u1"}}}
	store := newTestStore(nb, &stubMessageSource{}, &stubBackend{})

	_, err := store.ListNotebooks(context.Background(), "u1")
	require.NoError(t, err)

	store.ApplyChange(context.Background(), events.RowChange{
		Table:  events.TableNotebooks,
		Change: events.ChangeUpdate,
		UserID: "u1",
	})

	_, err = store.ListNotebooks(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, nb.calls)
}

func TestSendMessageFailureIsTagged(t *testing.T) {
	be := &stubBackend{err: errors.New("backend unavailable")}
	store := newTestStore(&stubNotebookSource{}, &stubMessageSource{}, be)

	_, err := store.SendMessage(context.Background(), "n1", "hello")
	require.Error(t, err)
	assert.True(t, HasTag(err, TagBackend))
	assert.Equal(t, 1, be.calls, "mutations are never retried")
}
