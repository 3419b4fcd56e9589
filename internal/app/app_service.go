package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"procurement-agent/internal/conversation"
	"procurement-agent/internal/core"
	"procurement-agent/internal/workflow"
)

// ErrMissingSession is returned when a request carries no session identifier.
var ErrMissingSession = errors.New("session id is required")

// session pairs one coordinator with its conversation log. Sessions are
// created lazily on first use and evicted after the idle TTL; the
// conversation itself survives eviction through the store.
type session struct {
	coord    *workflow.Coordinator
	log      *conversation.Log
	lastSeen time.Time
}

type appService struct {
	extractor workflow.ExtractionGateway
	inventory workflow.InventoryGateway
	orders    workflow.OrderGateway
	store     conversation.Store
	logger    *slog.Logger
	ttl       time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

// NewApplicationService wires the workflow engine behind the service
// interface and starts session eviction. ctx bounds the background purge.
func NewApplicationService(
	ctx context.Context,
	extractor workflow.ExtractionGateway,
	inventory workflow.InventoryGateway,
	orders workflow.OrderGateway,
	store conversation.Store,
	logger *slog.Logger,
	ttl time.Duration,
) ApplicationService {
	s := &appService{
		extractor: extractor,
		inventory: inventory,
		orders:    orders,
		store:     store,
		logger:    logger,
		ttl:       ttl,
		sessions:  make(map[string]*session),
	}
	s.startPurge(ctx)
	return s
}

func (s *appService) AnalyzeDocument(ctx context.Context, req AnalyzeDocumentRequest) (*WorkflowResult, error) {
	sess, err := s.session(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.coord.StartDocument(ctx, req.FileName, req.Content); err != nil {
		return nil, err
	}
	return &WorkflowResult{Snapshot: sess.coord.Snapshot()}, nil
}

func (s *appService) GetWorkflowState(ctx context.Context, sessionID string) (*WorkflowResult, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &WorkflowResult{Snapshot: sess.coord.Snapshot()}, nil
}

func (s *appService) AddProducts(ctx context.Context, sessionID string, entries []core.NewProductEntry) (*AddProductsResult, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	created, err := sess.coord.AddProducts(ctx, entries)
	if err != nil {
		return nil, err
	}
	return &AddProductsResult{Created: created, Snapshot: sess.coord.Snapshot()}, nil
}

func (s *appService) AdjustStock(ctx context.Context, sessionID string, adjustments []core.StockAdjustment) (*WorkflowResult, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.coord.AdjustStock(ctx, adjustments); err != nil {
		return nil, err
	}
	return &WorkflowResult{Snapshot: sess.coord.Snapshot()}, nil
}

func (s *appService) ConfirmOrder(ctx context.Context, sessionID string, req workflow.ConfirmOrderRequest) (*ConfirmOrderResult, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	orderID, err := sess.coord.ConfirmOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	return &ConfirmOrderResult{OrderID: orderID, Snapshot: sess.coord.Snapshot()}, nil
}

func (s *appService) CancelWorkflow(ctx context.Context, sessionID string) (*WorkflowResult, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.coord.Cancel(ctx); err != nil {
		return nil, err
	}
	return &WorkflowResult{Snapshot: sess.coord.Snapshot()}, nil
}

func (s *appService) GetConversation(ctx context.Context, sessionID string) ([]conversation.Entry, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.log.Entries(), nil
}

func (s *appService) AppendUserMessage(ctx context.Context, sessionID, text string) error {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.log.Append(ctx, conversation.NewEntry(conversation.EntryUser, text))
	return nil
}

// session returns the live session for the ID, creating it (and restoring its
// conversation) on first use.
func (s *appService) session(ctx context.Context, sessionID string) (*session, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		sess.lastSeen = time.Now()
		return sess, nil
	}

	log := conversation.NewLog(ctx, s.store, sessionID, s.logger)
	sess := &session{
		coord:    workflow.NewCoordinator(s.extractor, s.inventory, s.orders, log, s.logger, workflow.Callbacks{}),
		log:      log,
		lastSeen: time.Now(),
	}
	s.sessions[sessionID] = sess
	s.logger.Info("session created", "session", sessionID)
	return sess, nil
}

// startPurge evicts sessions idle past the TTL. Their conversation state
// stays in the store and is restored on the next request.
func (s *appService) startPurge(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				for id, sess := range s.sessions {
					if time.Since(sess.lastSeen) > s.ttl {
						delete(s.sessions, id)
						s.logger.Info("session evicted", "session", id)
					}
				}
				s.mu.Unlock()
			}
		}
	}()
}
