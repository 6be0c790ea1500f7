package users

import (
	"context"
	"errors"
	"strings"

	"github.com/cartelabolao/cartela-admin/pkg/config"
	"github.com/cartelabolao/cartela-admin/pkg/db"
	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/cartelabolao/cartela-admin/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service interface {
	List(ctx context.Context) ([]UserDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	Create(ctx context.Context, input CreateUserInput) (*UserDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*UserDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     Repository
	tx       txRunner
	password config.PasswordConfig
}

func NewService(repo Repository, tx txRunner, password config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, tx: tx, password: password}, nil
}

func (s *service) List(ctx context.Context) ([]UserDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) Create(ctx context.Context, input CreateUserInput) (*UserDTO, error) {
	email := NormalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if email == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and name are required")
	}
	role := enums.UserRoleOperator
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", *input.Role)
		}
		role = *input.Role
	}
	hash, err := s.hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*UserDTO, error) {
	var updated *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		wasAdmin := user.Role == enums.UserRoleAdmin && user.Active

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
			}
			user.Name = name
		}
		if input.Role != nil {
			if !input.Role.IsValid() {
				return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", *input.Role)
			}
			user.Role = *input.Role
		}
		if input.Active != nil {
			user.Active = *input.Active
		}
		if input.Password != nil {
			hash, err := s.hash(*input.Password)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
		}

		if wasAdmin && (user.Role != enums.UserRoleAdmin || !user.Active) {
			admins, err := repo.CountActiveAdmins(ctx)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count admins")
			}
			if admins <= 1 {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "at least one active admin is required")
			}
		}

		if err := repo.Save(ctx, user); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.User, error) {
	user, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

func (s *service) hash(password string) (string, error) {
	if len(password) < 8 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "password must have at least 8 characters")
	}
	hash, err := security.HashPassword(password, s.password)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return hash, nil
}
