package service

import (
	"context"
	"errors"
	"strings"

	"ai-chat-session-be/internal/dto"
	"ai-chat-session-be/internal/entity"
	"ai-chat-session-be/internal/pkg/logger"
	"ai-chat-session-be/internal/repository/contract"
	"ai-chat-session-be/internal/repository/unitofwork"
	"ai-chat-session-be/pkg/identity"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	uowFactory unitofwork.RepositoryFactory
	verifier   *identity.Verifier
	logger     logger.ILogger
}

func NewAuthService(uowFactory unitofwork.RepositoryFactory, verifier *identity.Verifier, logger logger.ILogger) IAuthService {
	return &authService{
		uowFactory: uowFactory,
		verifier:   verifier,
		logger:     logger,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := uow.UserRepository().FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Id:           uuid.New(),
		Email:        email,
		FullName:     req.FullName,
		PasswordHash: string(hash),
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration of the same address.
		if errors.Is(err, contract.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Info("AUTH", "User registered", map[string]interface{}{"user_id": user.Id.String()})
	return &dto.RegisterResponse{Id: user.Id, Email: user.Email}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.verifier.Issue(user.Id)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User: dto.UserDTO{
			Id:       user.Id,
			Email:    user.Email,
			FullName: user.FullName,
		},
	}, nil
}
