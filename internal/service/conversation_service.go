package service

import (
	"context"
	"unicode/utf8"

	"ai-chat-session-be/internal/constant"
	"ai-chat-session-be/internal/dto"
	"ai-chat-session-be/internal/entity"
	"ai-chat-session-be/internal/pkg/logger"
	"ai-chat-session-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IConversationService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateConversationRequest) (*dto.ConversationResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]*dto.ConversationResponse, error)
	Messages(ctx context.Context, userId, conversationId uuid.UUID) ([]*dto.ChatMessageResponse, error)
	Delete(ctx context.Context, userId, conversationId uuid.UUID) error
	// AppendTurn stores the user message and the reply, in that order.
	AppendTurn(ctx context.Context, userId, conversationId uuid.UUID, userText, replyText string) error
}

type conversationService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewConversationService(uowFactory unitofwork.RepositoryFactory, logger logger.ILogger) IConversationService {
	return &conversationService{
		uowFactory: uowFactory,
		logger:     logger,
	}
}

// ConversationTitle cuts the first message to the title length, counting runes.
func ConversationTitle(firstMessage string) string {
	if utf8.RuneCountInString(firstMessage) <= constant.ConversationTitleMaxLength {
		return firstMessage
	}
	runes := []rune(firstMessage)
	return string(runes[:constant.ConversationTitleMaxLength]) + constant.ConversationTitleEllipsis
}

func (s *conversationService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateConversationRequest) (*dto.ConversationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Conversations hang off a session the caller owns; the session may have expired since.
	sessions, err := uow.UserSessionRepository().ListByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	owned := false
	for _, session := range sessions {
		if session.Id == req.SessionId {
			owned = true
			break
		}
	}
	if !owned {
		return nil, ErrSessionNotFound
	}

	conversation := &entity.Conversation{
		Id:        uuid.New(),
		UserId:    userId,
		SessionId: req.SessionId,
		Title:     ConversationTitle(req.FirstMessage),
	}
	if err := uow.ConversationRepository().Create(ctx, conversation); err != nil {
		return nil, err
	}

	return &dto.ConversationResponse{
		Id:        conversation.Id,
		SessionId: conversation.SessionId,
		Title:     conversation.Title,
		CreatedAt: conversation.CreatedAt,
		UpdatedAt: conversation.UpdatedAt,
	}, nil
}

func (s *conversationService) List(ctx context.Context, userId uuid.UUID) ([]*dto.ConversationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	summaries, err := uow.ConversationRepository().ListWithCounts(ctx, userId)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ConversationResponse, 0, len(summaries))
	for _, c := range summaries {
		res = append(res, &dto.ConversationResponse{
			Id:           c.Id,
			SessionId:    c.SessionId,
			Title:        c.Title,
			MessageCount: c.MessageCount,
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
		})
	}
	return res, nil
}

func (s *conversationService) Messages(ctx context.Context, userId, conversationId uuid.UUID) ([]*dto.ChatMessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversation, err := uow.ConversationRepository().FindOwned(ctx, conversationId, userId)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}

	messages, err := uow.ChatMessageRepository().ListByConversation(ctx, conversationId)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, &dto.ChatMessageResponse{
			Id:        m.Id,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return res, nil
}

func (s *conversationService) Delete(ctx context.Context, userId, conversationId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversation, err := uow.ConversationRepository().FindOwned(ctx, conversationId, userId)
	if err != nil {
		return err
	}
	if conversation == nil {
		return ErrConversationNotFound
	}

	return unitofwork.Transact(ctx, uow, func() error {
		if err := uow.ChatMessageRepository().DeleteByConversation(ctx, conversationId); err != nil {
			return err
		}
		return uow.ConversationRepository().Delete(ctx, conversationId)
	})
}

func (s *conversationService) AppendTurn(ctx context.Context, userId, conversationId uuid.UUID, userText, replyText string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversation, err := uow.ConversationRepository().FindOwned(ctx, conversationId, userId)
	if err != nil {
		return err
	}
	if conversation == nil {
		return ErrConversationNotFound
	}

	return unitofwork.Transact(ctx, uow, func() error {
		for _, m := range []*entity.ChatMessage{
			{Id: uuid.New(), ConversationId: conversationId, Role: constant.ChatMessageRoleUser, Content: userText},
			{Id: uuid.New(), ConversationId: conversationId, Role: constant.ChatMessageRoleAssistant, Content: replyText},
		} {
			if err := uow.ChatMessageRepository().Create(ctx, m); err != nil {
				return err
			}
		}
		return uow.ConversationRepository().Touch(ctx, conversationId)
	})
}
