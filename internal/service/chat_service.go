package service

import (
	"context"

	"ai-chat-session-be/internal/dto"
	"ai-chat-session-be/internal/pkg/logger"
	"ai-chat-session-be/internal/repository/unitofwork"
	"ai-chat-session-be/pkg/events"
	"ai-chat-session-be/pkg/llm"
	"ai-chat-session-be/pkg/metering"
	"ai-chat-session-be/pkg/metering/admission"
	"ai-chat-session-be/pkg/metering/lock"
	"ai-chat-session-be/pkg/metering/proxy"
	"ai-chat-session-be/pkg/metering/usage"

	"github.com/google/uuid"
)

// UsageNotifier receives the post-turn usage of a session. The websocket hub implements it.
type UsageNotifier interface {
	NotifyUsage(ctx context.Context, event dto.UsageEvent)
}

type IChatService interface {
	// Send runs one metered turn. Every error is a *metering.Error.
	Send(ctx context.Context, userId uuid.UUID, req *dto.ChatRequest) (*dto.ChatResponse, error)
}

type chatService struct {
	uowFactory    unitofwork.RepositoryFactory
	locker        lock.Locker
	gate          *admission.Gate
	proxy         *proxy.Proxy
	reconciler    *usage.Reconciler
	conversations IConversationService
	retry         IPublisherService
	events        *events.SessionEvents
	notifier      UsageNotifier
	logger        logger.ILogger
}

type ChatServiceDeps struct {
	UowFactory    unitofwork.RepositoryFactory
	Locker        lock.Locker
	Gate          *admission.Gate
	Proxy         *proxy.Proxy
	Reconciler    *usage.Reconciler
	Conversations IConversationService
	// Optional collaborators: nil disables them.
	Retry    IPublisherService
	Events   *events.SessionEvents
	Notifier UsageNotifier
	Logger   logger.ILogger
}

func NewChatService(deps ChatServiceDeps) IChatService {
	locker := deps.Locker
	if locker == nil {
		locker = lock.NewNoop()
	}
	return &chatService{
		uowFactory:    deps.UowFactory,
		locker:        locker,
		gate:          deps.Gate,
		proxy:         deps.Proxy,
		reconciler:    deps.Reconciler,
		conversations: deps.Conversations,
		retry:         deps.Retry,
		events:        deps.Events,
		notifier:      deps.Notifier,
		logger:        deps.Logger,
	}
}

func (s *chatService) Send(ctx context.Context, userId uuid.UUID, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	if userId == uuid.Nil {
		return nil, metering.New(metering.Unauthorized, nil)
	}

	transcript, err := llm.ParseTranscript(req.Messages)
	if err != nil {
		return nil, metering.New(metering.InvalidRequest, err)
	}
	if req.SessionId == uuid.Nil {
		return nil, metering.Newf(metering.InvalidRequest, nil, metering.MsgInvalidSessionId)
	}

	// Held across admit -> upstream -> reconcile so two turns on one session
	// cannot both pass the quota check on the same snapshot.
	release, err := s.locker.Acquire(ctx, lock.SessionKey(req.SessionId))
	if err != nil {
		return nil, metering.New(metering.Unknown, err)
	}
	defer release()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	adm, err := s.gate.Admit(ctx, uow, userId, req.SessionId)
	if err != nil {
		if metering.KindOf(err) == metering.SessionExpired {
			s.events.SessionExpired(context.WithoutCancel(ctx), req.SessionId, userId)
		}
		return nil, err
	}

	// Past admission the turn is paid for: a client disconnect must not skip the charge.
	turnCtx := context.WithoutCancel(ctx)

	reply, err := s.proxy.Complete(turnCtx, transcript, adm.Session.ModelName)
	if err != nil {
		return nil, err
	}

	result, err := s.reconciler.Reconcile(turnCtx, uow, adm, reply.TokensConsumed)
	if err != nil {
		result = s.reconcileFailed(turnCtx, adm, reply.TokensConsumed, err)
	} else {
		s.events.TokensConsumed(turnCtx, adm.Session.Id, userId, adm.Session.ModelName, reply.TokensConsumed, result.TokensUsed, result.TokenLimit)
		if s.notifier != nil {
			s.notifier.NotifyUsage(turnCtx, dto.UsageEvent{
				UserId:     userId,
				SessionId:  adm.Session.Id,
				TokensUsed: result.TokensUsed,
				TokenLimit: result.TokenLimit,
			})
		}
	}

	res := &dto.ChatResponse{
		Message:    reply.Content,
		TokensUsed: result.TokensUsed,
		TokenLimit: result.TokenLimit,
	}
	if req.ConversationId != nil && s.appendTurn(turnCtx, userId, *req.ConversationId, transcript, reply.Content) {
		res.ConversationId = req.ConversationId
	}
	return res, nil
}

// reconcileFailed handles a lost usage write after the upstream already charged us.
// The caller still gets the reply and the total it would have had.
func (s *chatService) reconcileFailed(ctx context.Context, adm *admission.Admission, consumed int64, cause error) *usage.Usage {
	entry := usage.EntryFor(adm, consumed)
	details := map[string]interface{}{
		"priority":    "anomaly",
		"session_id":  entry.SessionId.String(),
		"user_id":     entry.UserId.String(),
		"tokens":      entry.Tokens,
		"tokens_used": adm.Session.TokensUsed,
		"error":       cause.Error(),
	}

	if s.retry != nil {
		err := s.retry.PublishUsageRetry(ctx, dto.UsageRetryMessage{
			SessionId: entry.SessionId,
			UserId:    entry.UserId,
			ModelName: entry.ModelName,
			Tokens:    entry.Tokens,
			Attempt:   1,
		})
		if err != nil {
			details["retry_error"] = err.Error()
		}
	}
	s.logger.Error("USAGE", "Failed to reconcile token usage", details)
	s.events.UsageReconcileFailed(ctx, entry.SessionId, entry.UserId, entry.Tokens, cause.Error())

	return &usage.Usage{
		TokensUsed: adm.Session.TokensUsed + entry.Tokens,
		TokenLimit: adm.TokenLimit,
	}
}

// appendTurn never fails the turn; history is best effort.
func (s *chatService) appendTurn(ctx context.Context, userId, conversationId uuid.UUID, transcript []llm.Message, replyText string) bool {
	if s.conversations == nil {
		return false
	}
	last, ok := llm.LastUserMessage(transcript)
	if !ok {
		return false
	}

	if err := s.conversations.AppendTurn(ctx, userId, conversationId, last.Text(), replyText); err != nil {
		s.logger.Warn("CHAT", "Failed to append turn to conversation", map[string]interface{}{
			"conversation_id": conversationId.String(),
			"user_id":         userId.String(),
			"error":           err.Error(),
		})
		return false
	}
	return true
}
