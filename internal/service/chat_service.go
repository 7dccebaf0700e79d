package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/liliang-cn/doc0/internal/domain"
	"go.uber.org/zap"
)

// genericFailure is shown when a failed request carries no usable message.
const genericFailure = "Sorry, there was an error processing your request. Please check your connection and try again."

// codeFence marks a result document that carries a code example.
const codeFence = "```"

// Searcher sends one query to the search/summarization API.
type Searcher interface {
	Query(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error)
}

// QuotaGate is the anonymous request allowance.
type QuotaGate interface {
	Remaining(ctx context.Context) int
	Decrement(ctx context.Context)
	Window(ctx context.Context) domain.QuotaWindow
}

// Authenticator reports whether a user is signed in.
type Authenticator interface {
	IsAuthenticated() bool
}

// Conversations is the per-topic message log.
type Conversations interface {
	Active() domain.Topic
	Append(ctx context.Context, topic domain.Topic, message domain.Message)
	Messages(topic domain.Topic) []domain.Message
	Switch(topic domain.Topic) error
	Counts() map[domain.Topic]int
}

// LoginPrompter is told when a submission is denied for lack of quota.
type LoginPrompter interface {
	PromptLogin(window domain.QuotaWindow)
}

// ChatState is the orchestrator state of the most recent submission.
type ChatState int32

const (
	StateIdle ChatState = iota
	StateAdmitting
	StateDenied
	StateSending
	StateSucceeded
	StateFailed
)

func (s ChatState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAdmitting:
		return "admitting"
	case StateDenied:
		return "denied"
	case StateSending:
		return "sending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("ChatState(%d)", int32(s))
	}
}

// ChatService admits submissions, forwards them to the search API and records
// both sides of the exchange on the active topic.
type ChatService struct {
	searcher      Searcher
	quota         QuotaGate
	auth          Authenticator
	conversations Conversations
	prompter      LoginPrompter
	logger        *zap.Logger
	now           func() time.Time

	// admitMu makes the quota check and decrement one step.
	admitMu sync.Mutex
	state   atomic.Int32
}

// NewChatService creates a new chat service
func NewChatService(
	searcher Searcher,
	quota QuotaGate,
	auth Authenticator,
	conversations Conversations,
	logger *zap.Logger,
) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		searcher:      searcher,
		quota:         quota,
		auth:          auth,
		conversations: conversations,
		logger:        logger,
		now:           time.Now,
	}
}

// SetLoginPrompter sets the hook called when a submission is denied.
func (s *ChatService) SetLoginPrompter(p LoginPrompter) {
	s.prompter = p
}

// State returns the state of the most recent submission.
func (s *ChatService) State() ChatState {
	return ChatState(s.state.Load())
}

func (s *ChatService) setState(st ChatState) {
	s.state.Store(int32(st))
}

// Submit handles one user submission on the active topic.
//
// A denied submission returns an error wrapping domain.ErrQuotaExceeded and
// leaves the conversation untouched. A failed search is not an error: the
// failure is recorded as the assistant's reply and the response is marked Failed.
func (s *ChatService) Submit(ctx context.Context, text string) (*domain.ChatResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message is empty", domain.ErrInvalidRequest)
	}

	s.setState(StateAdmitting)
	defer s.setState(StateIdle)

	topic := s.conversations.Active()
	collection, err := topic.Collection()
	if err != nil {
		return nil, err
	}

	authenticated, window, admitted := s.admit(ctx)
	if !admitted {
		s.setState(StateDenied)
		s.logger.Info("Submission denied, daily limit reached",
			zap.String("topic", string(topic)),
			zap.Time("next_allowed_time", window.NextAllowedTime),
		)
		if s.prompter != nil {
			s.prompter.PromptLogin(window)
		}
		return nil, fmt.Errorf("%w: next free requests at %s",
			domain.ErrQuotaExceeded, window.NextAllowedTime.Format(time.RFC3339))
	}

	question := domain.Message{
		ID:        uuid.New().String(),
		Topic:     topic,
		Role:      domain.RoleUser,
		Content:   text,
		CreatedAt: s.now(),
	}
	s.conversations.Append(ctx, topic, question)

	s.setState(StateSending)
	resp, err := s.searcher.Query(ctx, domain.SearchRequest{Query: text, CollectionName: collection})

	var answer domain.Message
	if err != nil {
		s.setState(StateFailed)
		s.logger.Warn("Search request failed",
			zap.String("topic", string(topic)),
			zap.String("collection", collection),
			zap.Error(err),
		)
		answer = s.failureMessage(topic, err)
	} else {
		s.setState(StateSucceeded)
		answer = s.answerMessage(topic, resp)
	}
	s.conversations.Append(ctx, topic, answer)

	remaining := -1
	if !authenticated {
		remaining = s.quota.Remaining(ctx)
	}

	return &domain.ChatResponse{
		Topic:     topic,
		Question:  &question,
		Answer:    &answer,
		Failed:    err != nil,
		Remaining: remaining,
	}, nil
}

// admit checks and charges the anonymous allowance in one step.
func (s *ChatService) admit(ctx context.Context) (authenticated bool, window domain.QuotaWindow, ok bool) {
	s.admitMu.Lock()
	defer s.admitMu.Unlock()

	if s.auth.IsAuthenticated() {
		return true, domain.QuotaWindow{}, true
	}
	if s.quota.Remaining(ctx) <= 0 {
		return false, s.quota.Window(ctx), false
	}
	s.quota.Decrement(ctx)
	return false, domain.QuotaWindow{}, true
}

func (s *ChatService) answerMessage(topic domain.Topic, resp *domain.SearchResponse) domain.Message {
	msg := domain.Message{
		ID:        uuid.New().String(),
		Topic:     topic,
		Role:      domain.RoleAssistant,
		Content:   resp.Summary,
		CreatedAt: s.parseTimestamp(resp.Timestamp),
	}

	for _, r := range resp.Results {
		title := r.Metadata.TechStackName
		if title == "" {
			title = topic.DefaultSourceTitle()
		}
		msg.Sources = append(msg.Sources, domain.Source{Title: title, URL: r.Metadata.URL})

		if strings.Contains(r.Document, codeFence) {
			msg.CodeBlocks = append(msg.CodeBlocks, r.Document)
		}
	}

	return msg
}

func (s *ChatService) failureMessage(topic domain.Topic, err error) domain.Message {
	content := err.Error()
	if strings.TrimSpace(content) == "" {
		content = genericFailure
	}
	return domain.Message{
		ID:        uuid.New().String(),
		Topic:     topic,
		Role:      domain.RoleAssistant,
		Content:   content,
		CreatedAt: s.now(),
	}
}

// The backend emits ISO-8601 timestamps, usually without a zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func (s *ChatService) parseTimestamp(value string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return s.now()
}
