package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/liliang-cn/doc0/internal/auth"
	"github.com/liliang-cn/doc0/internal/conversation"
	"github.com/liliang-cn/doc0/internal/domain"
	"github.com/liliang-cn/doc0/internal/quota"
	"github.com/liliang-cn/doc0/internal/repository"
	"github.com/liliang-cn/doc0/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	mu       sync.Mutex
	requests []domain.SearchRequest
	resp     *domain.SearchResponse
	err      error
}

func (f *fakeSearcher) Query(_ context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type memQuotaStore struct {
	mu      sync.Mutex
	records map[string]domain.QuotaRecord
}

func (s *memQuotaStore) Load(_ context.Context, key string) (*domain.QuotaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *memQuotaStore) Save(_ context.Context, key string, record domain.QuotaRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = record
	return nil
}

type countingPrompter struct {
	calls   int
	windows []domain.QuotaWindow
}

func (p *countingPrompter) PromptLogin(window domain.QuotaWindow) {
	p.calls++
	p.windows = append(p.windows, window)
}

type chatFixture struct {
	service       *ChatService
	searcher      *fakeSearcher
	tracker       *quota.Tracker
	auth          *auth.State
	conversations *conversation.Store
	prompter      *countingPrompter
}

var fixedNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

// newChatFixture builds a service whose tracker has `remaining` requests left
// out of a daily limit of 10.
func newChatFixture(t *testing.T, topic domain.Topic, remaining int) *chatFixture {
	t.Helper()

	store := &memQuotaStore{records: map[string]domain.QuotaRecord{
		"requestLimit": {Count: 10 - remaining, NextAllowedTime: fixedNow.Add(24 * time.Hour)},
	}}
	tracker := quota.NewTracker(store, quota.Options{
		DailyLimit: 10,
		Window:     24 * time.Hour,
		Key:        "requestLimit",
		Now:        func() time.Time { return fixedNow },
	})

	conversations, err := conversation.NewStore(topic, domain.Topics(), nil, nil)
	require.NoError(t, err)

	searcher := &fakeSearcher{}
	state := auth.NewState()
	prompter := &countingPrompter{}

	svc := NewChatService(searcher, tracker, state, conversations, nil)
	svc.now = func() time.Time { return fixedNow }
	svc.SetLoginPrompter(prompter)

	return &chatFixture{
		service:       svc,
		searcher:      searcher,
		tracker:       tracker,
		auth:          state,
		conversations: conversations,
		prompter:      prompter,
	}
}

func TestSubmitKestraScenario(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, domain.TopicKestra, 3)
	f.searcher.resp = &domain.SearchResponse{
		Summary:   "Flows are deployed via the `kestra` CLI or API.",
		Timestamp: "2026-10-19T09:00:01.250000",
		Results: []domain.SearchResult{{
			Document:        "Deploy flows with the CLI.",
			Metadata:        domain.ResultMetadata{URL: "https://kestra.io/docs/x"},
			SimilarityScore: 0.9,
		}},
	}

	resp, err := f.service.Submit(ctx, "How do I deploy a flow?")
	require.NoError(t, err)

	assert.Equal(t, 2, f.tracker.Remaining(ctx))
	assert.Equal(t, 2, resp.Remaining)
	assert.False(t, resp.Failed)

	require.Len(t, f.searcher.requests, 1)
	assert.Equal(t, domain.SearchRequest{Query: "How do I deploy a flow?", CollectionName: "docs_kestra"}, f.searcher.requests[0])

	msgs := f.conversations.Messages(domain.TopicKestra)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, "How do I deploy a flow?", msgs[0].Content)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Flows are deployed via the `kestra` CLI or API.", msgs[1].Content)
	assert.Equal(t, []domain.Source{{Title: "Kestra Documentation", URL: "https://kestra.io/docs/x"}}, msgs[1].Sources)
	assert.Empty(t, msgs[1].CodeBlocks)
	assert.Equal(t, time.Date(2026, 10, 19, 9, 0, 1, 250000000, time.UTC), msgs[1].CreatedAt)
	assert.Equal(t, StateIdle, f.service.State())
}

func TestSubmitDeniedWhenQuotaExhausted(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, domain.TopicReact, 0)

	resp, err := f.service.Submit(ctx, "What is a hook?")

	require.ErrorIs(t, err, domain.ErrQuotaExceeded)
	assert.Nil(t, resp)
	assert.Equal(t, 0, f.tracker.Remaining(ctx))
	assert.Empty(t, f.conversations.Messages(domain.TopicReact))
	assert.Empty(t, f.searcher.requests)
	assert.Equal(t, 1, f.prompter.calls)
	assert.Equal(t, fixedNow.Add(24*time.Hour), f.prompter.windows[0].NextAllowedTime)
}

func TestSubmitAuthenticatedBypassesQuota(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, domain.TopicReact, 0)
	f.auth.Login(domain.Identity{Email: "ada@example.com"})
	f.searcher.resp = &domain.SearchResponse{Summary: "ok"}

	resp, err := f.service.Submit(ctx, "What is a hook?")
	require.NoError(t, err)

	assert.Equal(t, -1, resp.Remaining)
	assert.Equal(t, 0, f.tracker.Window(ctx).Remaining)
	assert.Equal(t, 10, f.tracker.Window(ctx).Used)
	assert.Len(t, f.conversations.Messages(domain.TopicReact), 2)
	assert.Zero(t, f.prompter.calls)
}

func TestSubmitBackendFailureAppendsOneErrorReply(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, domain.TopicAstro, 5)
	f.searcher.err = &search.StatusError{StatusCode: 500}

	resp, err := f.service.Submit(ctx, "What are islands?")
	require.NoError(t, err)

	assert.True(t, resp.Failed)
	msgs := f.conversations.Messages(domain.TopicAstro)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "search API returned status 500", msgs[1].Content)
	assert.Empty(t, msgs[1].Sources)

	// The decrement is not refunded.
	assert.Equal(t, 4, f.tracker.Remaining(ctx))
}

type silentError struct{}

func (silentError) Error() string { return "" }

func TestSubmitFailureWithoutMessageUsesGenericReply(t *testing.T) {
	f := newChatFixture(t, domain.TopicAstro, 5)
	f.searcher.err = silentError{}

	resp, err := f.service.Submit(context.Background(), "What are islands?")
	require.NoError(t, err)

	assert.Equal(t, genericFailure, resp.Answer.Content)
}

func TestSubmitMapsSourcesAndCodeBlocks(t *testing.T) {
	f := newChatFixture(t, domain.TopicReact, 5)
	withCode := "Example:\n```jsx\nconst [count, setCount] = useState(0)\n```"
	f.searcher.resp = &domain.SearchResponse{
		Summary: "Use useState.",
		Results: []domain.SearchResult{
			{Document: withCode, Metadata: domain.ResultMetadata{URL: "https://react.dev/a", TechStackName: "React Hooks"}},
			{Document: "plain text", Metadata: domain.ResultMetadata{URL: "https://react.dev/b"}},
			{Document: "plain text again", Metadata: domain.ResultMetadata{URL: "https://react.dev/a"}},
		},
	}

	resp, err := f.service.Submit(context.Background(), "state?")
	require.NoError(t, err)

	assert.Equal(t, []domain.Source{
		{Title: "React Hooks", URL: "https://react.dev/a"},
		{Title: "React Documentation", URL: "https://react.dev/b"},
		{Title: "React Documentation", URL: "https://react.dev/a"},
	}, resp.Answer.Sources)
	assert.Equal(t, []string{withCode}, resp.Answer.CodeBlocks)
	// Unparseable timestamps fall back to the local clock.
	assert.Equal(t, fixedNow, resp.Answer.CreatedAt)
}

func TestSubmitRejectsBlankMessage(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, domain.TopicReact, 5)

	_, err := f.service.Submit(ctx, "   ")

	require.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Equal(t, 5, f.tracker.Remaining(ctx))
	assert.Empty(t, f.conversations.Messages(domain.TopicReact))
}

type badTopicConversations struct{ Conversations }

func (badTopicConversations) Active() domain.Topic { return domain.Topic("angular") }

func TestSubmitInvalidTopicFailsFast(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, domain.TopicReact, 5)
	f.service.conversations = badTopicConversations{f.conversations}

	_, err := f.service.Submit(ctx, "anything")

	require.ErrorIs(t, err, domain.ErrInvalidTopic)
	assert.Equal(t, 5, f.tracker.Remaining(ctx))
	assert.Empty(t, f.searcher.requests)
}

func TestSubmitKeepsHistoryPerTopic(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, domain.TopicReact, 10)
	f.searcher.resp = &domain.SearchResponse{Summary: "ok"}

	_, err := f.service.Submit(ctx, "first")
	require.NoError(t, err)

	require.NoError(t, f.conversations.Switch(domain.TopicRedux))
	_, err = f.service.Submit(ctx, "second")
	require.NoError(t, err)
	_, err = f.service.Submit(ctx, "third")
	require.NoError(t, err)

	assert.Len(t, f.conversations.Messages(domain.TopicReact), 2)
	assert.Len(t, f.conversations.Messages(domain.TopicRedux), 4)
	assert.Equal(t, "docs_redux", f.searcher.requests[2].CollectionName)
}

func TestSubmitConcurrentAdmissionNeverOverspends(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, domain.TopicReact, 3)
	f.searcher.resp = &domain.SearchResponse{Summary: "ok"}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		denied   int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Submit(ctx, "q")
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, domain.ErrQuotaExceeded) {
				denied++
				return
			}
			admitted++
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, admitted)
	assert.Equal(t, 5, denied)
	assert.Equal(t, 10, f.tracker.Window(ctx).Used)
}

func TestChatStateString(t *testing.T) {
	assert.Equal(t, "sending", StateSending.String())
	assert.Equal(t, "ChatState(42)", ChatState(42).String())
}

// cancellingSearcher cancels the submission context before failing, the way a
// client disconnect or Ctrl-C would.
type cancellingSearcher struct {
	cancel context.CancelFunc
}

func (s cancellingSearcher) Query(ctx context.Context, _ domain.SearchRequest) (*domain.SearchResponse, error) {
	s.cancel()
	return nil, ctx.Err()
}

func TestSubmitCancelledMidRequestPersistsBothMessages(t *testing.T) {
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "doc0.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	journal := repository.NewConversationRepository(db)

	conversations, err := conversation.NewStore(domain.TopicReact, domain.Topics(), journal, nil)
	require.NoError(t, err)
	state := auth.NewState()
	state.Login(domain.Identity{Email: "ada@example.com"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := NewChatService(cancellingSearcher{cancel: cancel}, nil, state, conversations, nil)

	resp, err := svc.Submit(ctx, "hi")
	require.NoError(t, err)
	assert.True(t, resp.Failed)
	require.Len(t, conversations.Messages(domain.TopicReact), 2)

	restored, err := conversation.NewStore(domain.TopicReact, domain.Topics(), journal, nil)
	require.NoError(t, err)
	require.NoError(t, restored.Restore(context.Background()))

	msgs := restored.Messages(domain.TopicReact)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Equal(t, context.Canceled.Error(), msgs[1].Content)
}
