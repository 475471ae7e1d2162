package postgres

import (
	"context"
	"fmt"

	"resto-system/internal/database/models"

	"github.com/google/uuid"
)

func (s *Store) FindAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	if err := s.conn(ctx).Where("username = ?", username).Take(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (s *Store) FindAccountByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := s.conn(ctx).Where("id = ?", id).Take(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (s *Store) CreateAccount(ctx context.Context, account models.Account) (*models.Account, error) {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if err := s.conn(ctx).Create(&account).Error; err != nil {
		return nil, fmt.Errorf("failed to create account %s: %w", account.Username, translate(err))
	}
	return &account, nil
}

func (s *Store) CountAccountsByRole(ctx context.Context, role models.Role) (int64, error) {
	var count int64
	if err := s.conn(ctx).Model(&models.Account{}).Where("role = ?", role).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s accounts: %w", role, err)
	}
	return count, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.conn(ctx).Order("created_at ASC").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}
