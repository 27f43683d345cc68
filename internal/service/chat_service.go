package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/shophub/shophub/internal/domain"
	"github.com/shophub/shophub/internal/nlu"
	"github.com/shophub/shophub/internal/repository"
)

// Retriever runs filtered similarity searches over the indexed catalog and store FAQ
type Retriever interface {
	Search(ctx context.Context, query string, filter domain.RetrievalFilter, k int) ([]domain.RetrievalHit, error)
}

// turn is one message being handled
type turn struct {
	sessionID string
	text      string
	entities  nlu.Entities
}

type handlerFunc func(ctx context.Context, t *turn) *domain.ChatResponse

// ChatService routes chat messages to intent handlers
type ChatService struct {
	classifier    *nlu.Classifier
	carts         *CartService
	checkout      *CheckoutService
	catalog       ProductCatalog
	retriever     Retriever
	conversations *repository.ConversationRepository
	topK          int
	logger        *zap.Logger

	handlers map[domain.Intent]handlerFunc
}

// ChatServiceOptions holds the optional collaborators of a ChatService
type ChatServiceOptions struct {
	Classifier    *nlu.Classifier
	Retriever     Retriever
	Conversations *repository.ConversationRepository
	TopK          int
	Logger        *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	carts *CartService,
	checkout *CheckoutService,
	catalog ProductCatalog,
	opts ChatServiceOptions,
) *ChatService {
	s := &ChatService{
		classifier:    opts.Classifier,
		carts:         carts,
		checkout:      checkout,
		catalog:       catalog,
		retriever:     opts.Retriever,
		conversations: opts.Conversations,
		topK:          opts.TopK,
		logger:        opts.Logger,
	}
	if s.classifier == nil {
		s.classifier = nlu.NewClassifier()
	}
	if s.topK <= 0 {
		s.topK = 3
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	s.handlers = map[domain.Intent]handlerFunc{
		domain.IntentGreeting:          s.handleGreeting,
		domain.IntentClearCart:         s.handleClearCart,
		domain.IntentRemoveFromCart:    s.handleRemoveFromCart,
		domain.IntentAddMultipleToCart: s.handleAddMultiple,
		domain.IntentAddToCart:         s.handleAddToCart,
		domain.IntentAddAndCheckout:    s.handleAddAndCheckout,
		domain.IntentCheckout:          s.handleCheckout,
		domain.IntentCartQuery:         s.handleCartQuery,
		domain.IntentProductByID:       s.handleProductByID,
		domain.IntentShopHubInfo:       s.handleShopHubInfo,
		domain.IntentProductSearch:     s.handleProductSearch,
		domain.IntentUnknown:           s.handleUnknown,
	}
	return s
}

// ProcessMessage classifies a message, runs its handler and logs the exchange.
// Only validation errors are returned; every other failure becomes a reply.
func (s *ChatService) ProcessMessage(ctx context.Context, sessionID, message string) (*domain.ChatResponse, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required: %w", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("message is required: %w", domain.ErrInvalidRequest)
	}

	intent := s.classifier.Classify(message)
	handler, ok := s.handlers[intent]
	if !ok {
		intent = domain.IntentUnknown
		handler = s.handleUnknown
	}

	t := &turn{
		sessionID: sessionID,
		text:      message,
		entities:  nlu.ExtractEntities(message),
	}
	resp := handler(ctx, t)
	resp.Intent = intent

	s.logger.Info("chat message handled",
		zap.String("session_id", sessionID),
		zap.String("intent", string(intent)),
		zap.String("kind", string(resp.Kind())),
	)
	s.record(ctx, sessionID, message, resp)

	return resp, nil
}

// History returns the logged conversation of a session, oldest first
func (s *ChatService) History(ctx context.Context, sessionID string, limit int) (*domain.HistoryResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required: %w", domain.ErrInvalidRequest)
	}
	resp := &domain.HistoryResponse{SessionID: sessionID, Messages: []*domain.Message{}}
	if s.conversations == nil {
		return resp, nil
	}

	msgs, err := s.conversations.GetMessages(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}
	resp.Messages = msgs
	return resp, nil
}

// record appends the exchange to the conversation log. Failures are only logged.
func (s *ChatService) record(ctx context.Context, sessionID, message string, resp *domain.ChatResponse) {
	if s.conversations == nil {
		return
	}

	msgs := []*domain.Message{
		{SessionID: sessionID, Role: domain.RoleUser, Content: message},
		{SessionID: sessionID, Role: domain.RoleAssistant, Content: resp.Response, Intent: string(resp.Intent)},
	}
	for _, m := range msgs {
		if err := s.conversations.CreateMessage(ctx, m); err != nil {
			s.logger.Warn("failed to log chat message",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
			return
		}
	}
}
