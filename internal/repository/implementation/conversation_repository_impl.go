package implementation

import (
	"context"
	"errors"
	"time"

	"ai-chat-session-be/internal/entity"
	"ai-chat-session-be/internal/mapper"
	"ai-chat-session-be/internal/model"
	"ai-chat-session-be/internal/repository/contract"
	"ai-chat-session-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationMapper
}

func NewConversationRepository(db *gorm.DB) contract.ConversationRepository {
	return &ConversationRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationMapper(),
	}
}

func (r *ConversationRepositoryImpl) Create(ctx context.Context, conversation *entity.Conversation) error {
	m := r.mapper.ConversationToModel(conversation)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*conversation = *r.mapper.ConversationToEntity(m)
	return nil
}

func (r *ConversationRepositoryImpl) FindOwned(ctx context.Context, id, userId uuid.UUID) (*entity.Conversation, error) {
	var m model.Conversation
	query := specification.ApplyAll(r.db.WithContext(ctx),
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ConversationToEntity(&m), nil
}

func (r *ConversationRepositoryImpl) ListWithCounts(ctx context.Context, userId uuid.UUID) ([]*entity.ConversationSummary, error) {
	var rows []*model.ConversationWithCount
	err := r.db.WithContext(ctx).
		Table("conversations").
		Select("conversations.*, COUNT(chat_messages.id) AS message_count").
		Joins("LEFT JOIN chat_messages ON chat_messages.conversation_id = conversations.id").
		Where("conversations.user_id = ?", userId).
		Group("conversations.id").
		Order("conversations.updated_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]*entity.ConversationSummary, len(rows))
	for i, row := range rows {
		summaries[i] = r.mapper.SummaryToEntity(row)
	}
	return summaries, nil
}

func (r *ConversationRepositoryImpl) Touch(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ?", id).
		Update("updated_at", time.Now()).Error
}

func (r *ConversationRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Conversation{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contract.ErrNotFound
	}
	return nil
}

type ChatMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationMapper
}

func NewChatMessageRepository(db *gorm.DB) contract.ChatMessageRepository {
	return &ChatMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationMapper(),
	}
}

func (r *ChatMessageRepositoryImpl) Create(ctx context.Context, message *entity.ChatMessage) error {
	m := r.mapper.MessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.MessageToEntity(m)
	return nil
}

func (r *ChatMessageRepositoryImpl) ListByConversation(ctx context.Context, conversationId uuid.UUID) ([]*entity.ChatMessage, error) {
	var models []*model.ChatMessage
	query := specification.ApplyAll(r.db.WithContext(ctx),
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "created_at"},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	messages := make([]*entity.ChatMessage, len(models))
	for i, m := range models {
		messages[i] = r.mapper.MessageToEntity(m)
	}
	return messages, nil
}

func (r *ChatMessageRepositoryImpl) DeleteByConversation(ctx context.Context, conversationId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("conversation_id = ?", conversationId).Delete(&model.ChatMessage{}).Error
}
