package service

import (
	"log/slog"

	"github.com/google/uuid"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/repository"
)

type UserService struct {
	store  *repository.Store
	logger *slog.Logger
}

func NewUserService(store *repository.Store, logger *slog.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger,
	}
}

// Register creates a user. Credentials and token issuance live upstream; the
// ledger only needs an identity to own accounts.
func (s *UserService) Register(name, email string) (*domain.User, error) {
	s.logger.Info("Registering user", "email", email)

	user := &domain.User{
		ID:    uuid.New(),
		Name:  name,
		Email: email,
	}

	if err := s.store.User().CreateUser(user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) Get(id uuid.UUID) (*domain.User, error) {
	return s.store.User().GetUser(id)
}
