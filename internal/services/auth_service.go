package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/film-bet/blockend/internal/models"
	"github.com/film-bet/blockend/internal/repository"
	"github.com/film-bet/blockend/internal/utils"

	"gorm.io/gorm"
)

// AuthService handles wallet-based login and user lookup.
type AuthService struct {
	repo *repository.Repository
}

func NewAuthService(repo *repository.Repository) *AuthService {
	return &AuthService{repo: repo}
}

// ProcessWalletLogin finds or registers the user behind a verified wallet
// address. Signature verification happens in the handler before this call.
func (s *AuthService) ProcessWalletLogin(ctx context.Context, walletAddress string) (*models.User, error) {
	user, err := s.repo.GetUserByWallet(ctx, walletAddress)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	nickname, err := utils.GenerateNickname()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nickname: %w", err)
	}

	user = &models.User{
		WalletAddress: walletAddress,
		Nickname:      nickname,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	log.Printf("[AuthService] Registered new user %s (%s)", nickname, walletAddress)
	return user, nil
}

// GetUserByID retrieves a user profile.
func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}
