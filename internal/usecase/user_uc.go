package usecase

import (
	"context"
	"errors"

	"course-access-platform/internal/clock"
	"course-access-platform/internal/domain"
	"course-access-platform/internal/domain/model"
	"course-access-platform/internal/domain/ports/repository"
	"course-access-platform/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes the identity operations used by the session endpoint.
type UserUseCase interface {
	Authenticate(ctx context.Context, ident model.Identity) (*model.User, error)
	EnsureAdminRole(ctx context.Context, user *model.User) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
}

type userUC struct {
	users  repository.UserRepository
	tm     repository.TransactionManager
	admins map[string]struct{}
	clock  clock.Clock
	log    *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, tm repository.TransactionManager, adminEmails []string, clk clock.Clock, logger *zerolog.Logger) *userUC {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = model.NormalizeEmail(e); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &userUC{
		users:  users,
		tm:     tm,
		admins: admins,
		clock:  clk,
		log:    logger,
	}
}

// Authenticate registers or fetches the user by email, touches the last
// login time and applies the admin list.
func (u *userUC) Authenticate(ctx context.Context, ident model.Identity) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Authenticate")()

	email := model.NormalizeEmail(ident.Email)
	if email == "" {
		return nil, domain.NewValidationError("email", "required")
	}

	var user *model.User
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		now := u.clock.Now()
		usr, err := u.users.FindByEmail(ctx, tx, email)
		switch {
		case err == nil:
			if ident.Name != "" && usr.Name == "" {
				usr.Name = ident.Name
			}
			if usr.ProviderID == "" {
				usr.ProviderID = ident.ProviderID
			}
			usr.LastLoginAt = now
		case errors.Is(err, domain.ErrNotFound):
			usr, err = model.NewUser("", ident, now)
			if err != nil {
				return err
			}
		default:
			return err
		}
		if err := u.users.Save(ctx, tx, usr); err != nil {
			u.log.Error().Err(err).Msg("failed to save user")
			return err
		}
		user = usr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u.EnsureAdminRole(ctx, user)
}

// EnsureAdminRole promotes listed emails exactly once. Admins skip profile
// completion. The input is never mutated; a promoted copy is returned.
func (u *userUC) EnsureAdminRole(ctx context.Context, user *model.User) (*model.User, error) {
	if user.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	if _, listed := u.admins[model.NormalizeEmail(user.Email)]; !listed || user.IsAdmin {
		return user, nil
	}

	promoted := *user
	promoted.IsAdmin = true
	promoted.IsProfileComplete = true
	if err := u.users.Save(ctx, repository.NoTX, &promoted); err != nil {
		return nil, err
	}
	logging.With(ctx, u.log).Info().Str("user_id", promoted.ID).Msg("user promoted to admin")
	return &promoted, nil
}

func (u *userUC) Get(ctx context.Context, id string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Get")()
	if id == "" {
		return nil, domain.ErrNotFound
	}
	return u.users.FindByID(ctx, repository.NoTX, id)
}
