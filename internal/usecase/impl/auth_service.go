package impl

import (
	"context"
	"log/slog"

	deliverycontext "userhub/internal/delivery/context"
	"userhub/internal/domain/entity"
	domainerrors "userhub/internal/domain/errors"
	"userhub/internal/domain/repository"
	"userhub/internal/domain/service"
	"userhub/internal/domain/validation"
	"userhub/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// authService implements the AuthUsecase interface.
type authService struct {
	userRepo     repository.UserRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	validator    *validation.Validator
	logger       *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	UserRepo     repository.UserRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Validator    *validation.Validator
	Logger       *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		userRepo:     params.UserRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		validator:    params.Validator,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register orchestrates the user registration process.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterUserInput) (*usecase.RegisterOutput, error) {
	newUser, err := buildNewUser(srv.validator, srv.hasher, input)
	if err != nil {
		srv.log(ctx).Warn("Registration rejected", slog.Any("error", err))

		return nil, errors.Wrap(err, "register")
	}

	srv.log(ctx).Info("Starting registration", slog.String("email", newUser.Email))

	// Uniqueness is decided by the store at insert time.
	if err := srv.userRepo.Create(ctx, newUser); err != nil {
		srv.log(ctx).Warn("Failed to create user during registration", slog.String("email", newUser.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to create user during registration")
	}

	srv.log(ctx).Debug("Registration completed", slog.String("userID", newUser.ID))

	return &usecase.RegisterOutput{User: newUser.Public()}, nil
}

// Login orchestrates the user login process.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	if input == nil {
		return nil, errors.WithStack(domainerrors.ErrInvalidInput)
	}

	credentials := &usecase.LoginInput{
		Email:    normalizeEmail(input.Email),
		Password: input.Password,
	}
	if credentials.Email == "" || credentials.Password == "" {
		srv.log(ctx).Warn("Login failed", slog.String("email", credentials.Email), slog.String("reason", "missing credentials"))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	srv.log(ctx).Debug("Starting user login", slog.String("email", credentials.Email))

	storedUser, err := srv.userRepo.FindByEmail(ctx, credentials.Email, true)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Warn("Login failed", slog.String("email", credentials.Email), slog.String("reason", "unknown email"))

			return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
		}

		return nil, errors.Wrap(err, "failed to load user for login")
	}

	// bcrypt is CPU-bound; the request goroutine is preemptible so it runs inline.
	if !srv.ComparePassword(credentials.Password, storedUser.PasswordHash) {
		srv.log(ctx).Warn("Login failed", slog.String("email", credentials.Email), slog.String("reason", "password mismatch"))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	token, err := srv.tokenService.GenerateToken(storedUser.ID)
	if err != nil {
		srv.log(ctx).Error("Failed to issue token", slog.String("userID", storedUser.ID), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrTokenIssueFailed.WithDetails(err.Error()), "failed to generate token")
	}

	srv.log(ctx).Debug("User logged in successfully", slog.String("userID", storedUser.ID))

	return &usecase.LoginOutput{
		Token: token,
		User:  storedUser.Public(),
	}, nil
}

// ComparePassword is the pure verification primitive used by Login.
func (srv *authService) ComparePassword(raw, hash string) bool {
	if hash == "" {
		return false
	}

	return srv.hasher.Check(raw, hash)
}

// Me loads the user identified by a validated token subject.
func (srv *authService) Me(ctx context.Context, userID string) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID, false)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrUnauthorized, "token subject no longer exists")
		}

		return nil, errors.Wrap(err, "failed to load current user")
	}

	return user.Public(), nil
}
