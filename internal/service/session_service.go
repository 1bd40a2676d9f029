package service

import (
	"context"
	"time"

	"ai-chat-session-be/internal/constant"
	"ai-chat-session-be/internal/dto"
	"ai-chat-session-be/internal/entity"
	"ai-chat-session-be/internal/pkg/logger"
	"ai-chat-session-be/internal/repository/unitofwork"
	"ai-chat-session-be/pkg/events"
	"ai-chat-session-be/pkg/metering/quota"

	"github.com/google/uuid"
)

type ISessionService interface {
	Purchase(ctx context.Context, userId uuid.UUID, req *dto.PurchaseSessionRequest) (*dto.SessionResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error)
	// Active is read-only: it never flips an elapsed session to expired.
	Active(ctx context.Context, userId uuid.UUID) (*dto.SessionResponse, error)
}

type sessionService struct {
	uowFactory unitofwork.RepositoryFactory
	quota      *quota.Resolver
	events     *events.SessionEvents
	logger     logger.ILogger
	now        func() time.Time
}

func NewSessionService(uowFactory unitofwork.RepositoryFactory, resolver *quota.Resolver, sessionEvents *events.SessionEvents, logger logger.ILogger) ISessionService {
	return &sessionService{
		uowFactory: uowFactory,
		quota:      resolver,
		events:     sessionEvents,
		logger:     logger,
		now:        time.Now,
	}
}

// Purchase opens a new window on the plan's pinned model. No card is captured here.
func (s *sessionService) Purchase(ctx context.Context, userId uuid.UUID, req *dto.PurchaseSessionRequest) (*dto.SessionResponse, error) {
	plan, ok := FindPlan(req.PlanId)
	if !ok {
		return nil, ErrPlanNotFound
	}
	if req.Hours < constant.SessionMinHours || req.Hours > constant.SessionMaxHours {
		return nil, ErrInvalidHours
	}
	price, ok := plan.PriceFor(req.Hours)
	if !ok {
		return nil, ErrInvalidHours
	}

	session := &entity.UserSession{
		Id:             uuid.New(),
		UserId:         userId,
		PlanId:         plan.Id,
		ModelName:      plan.ModelName,
		HoursPurchased: req.Hours,
		PricePaid:      price,
		ExpiresAt:      s.now().Add(time.Duration(req.Hours) * time.Hour),
		Status:         entity.SessionStatusActive,
		TokensUsed:     0,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.UserSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("SESSION", "Session purchased", map[string]interface{}{
		"session_id": session.Id.String(),
		"user_id":    userId.String(),
		"plan_id":    plan.Id,
		"hours":      req.Hours,
	})
	s.events.SessionPurchased(ctx, session.Id, userId, plan.Id, plan.ModelName, req.Hours, price)

	return toSessionResponse(session), nil
}

func (s *sessionService) List(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.UserSessionRepository().ListByUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		res = append(res, toSessionResponse(session))
	}
	return res, nil
}

func (s *sessionService) Active(ctx context.Context, userId uuid.UUID) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.UserSessionRepository().FindLatestActive(ctx, userId)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	limit, err := s.quota.Resolve(ctx, uow, session.PlanId, session.ModelName)
	if err != nil {
		return nil, err
	}
	remaining := int64(session.RemainingAt(s.now()) / time.Second)

	res := toSessionResponse(session)
	res.TokenLimit = &limit
	res.RemainingSeconds = &remaining
	return res, nil
}

func toSessionResponse(session *entity.UserSession) *dto.SessionResponse {
	return &dto.SessionResponse{
		Id:             session.Id,
		PlanId:         session.PlanId,
		ModelName:      session.ModelName,
		HoursPurchased: session.HoursPurchased,
		PricePaid:      session.PricePaid,
		Status:         string(session.Status),
		TokensUsed:     session.TokensUsed,
		ExpiresAt:      session.ExpiresAt,
		CreatedAt:      session.CreatedAt,
	}
}
