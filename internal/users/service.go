package users

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

// Service backs the admin user screens.
type Service interface {
	List(ctx context.Context) ([]UserDTO, error)
	Delete(ctx context.Context, actorID, targetID uint) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	DB     txRunner
	Repo   *Repository
	Outbox outbox.Emitter
	Logger *logger.Logger
}

type service struct {
	db     txRunner
	repo   *Repository
	outbox outbox.Emitter
	logg   *logger.Logger
}

var _ txRunner = (*db.Client)(nil)

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, errors.New("db client is required")
	}
	if params.Repo == nil {
		return nil, errors.New("users repository is required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox emitter is required")
	}
	return &service{
		db:     params.DB,
		repo:   params.Repo,
		outbox: params.Outbox,
		logg:   params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context) ([]UserDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, actorID, targetID uint) error {
	if targetID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if actorID == targetID {
		return pkgerrors.New(pkgerrors.CodeValidation, "you cannot delete your own account")
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, targetID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}

		deleted, err := repo.DeleteCascade(ctx, targetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventUserDeleted,
			AggregateType: enums.AggregateUser,
			AggregateID:   strconv.FormatUint(uint64(targetID), 10),
			Actor:         &outbox.ActorRef{UserID: actorID, Role: string(enums.UserRoleAdmin)},
			Data: outbox.UserDeletedEvent{
				UserID:              targetID,
				DeletedTransactions: deleted,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
		}
		return err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"target_user_id": targetID,
			"actor_user_id":  actorID,
		})
		s.logg.Info(logCtx, "admin.user.deleted")
	}
	return nil
}
