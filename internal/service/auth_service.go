package service

import (
	"context"
	"errors"
	"strings"

	"botdesk/internal/config"
	"botdesk/internal/database"
	"botdesk/internal/domain"
	"botdesk/internal/logging"
	"botdesk/internal/models"
	"botdesk/internal/repository"
	"botdesk/internal/security"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	purposeVerify = "verify"
	purposeReset  = "reset"
)

type RegisterInput struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"max=100"`
	Email       string `json:"email" validate:"required,email,max=255"`
	Username    string `json:"username" validate:"required,min=3,max=100,alphanumunicode"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,e164"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResetPasswordInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// AccessToken is the login answer.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Notifier delivers one-time tokens to users. Delivery failures are logged by
// the caller and never fail the operation that issued the token.
type Notifier interface {
	SendVerification(ctx context.Context, user *models.User, token string) error
	SendPasswordReset(ctx context.Context, user *models.User, token string) error
}

// LogNotifier writes token issuance to the log. Used when no mail transport
// is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logging.Component(logger, "notifier")}
}

func (n *LogNotifier) SendVerification(_ context.Context, user *models.User, token string) error {
	n.logger.Info().Str("user_id", user.ID.String()).Str("token", token).Msg("verification token issued")
	return nil
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, user *models.User, token string) error {
	n.logger.Info().Str("user_id", user.ID.String()).Str("token", token).Msg("password reset token issued")
	return nil
}

type AuthService struct {
	db       *database.DB
	hasher   *security.PasswordHasher
	jwt      *security.TokenManager
	store    domain.TokenStore
	notifier Notifier
	cfg      config.SecurityConfig
	logger   zerolog.Logger
}

func NewAuthService(
	db *database.DB,
	hasher *security.PasswordHasher,
	jwt *security.TokenManager,
	store domain.TokenStore,
	notifier Notifier,
	cfg config.SecurityConfig,
	logger *zerolog.Logger,
) *AuthService {
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &AuthService{
		db:       db,
		hasher:   hasher,
		jwt:      jwt,
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		logger:   logging.Component(logger, "auth_service"),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified, active account and issues a verification token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		if security.IsTooLong(err) {
			return nil, domain.Validation("password: too long")
		}
		return nil, err
	}

	user := &models.User{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		Username:    in.Username,
		PhoneNumber: in.PhoneNumber,
		Password:    hashed,
		Role:        models.UserRoleMember,
		IsActive:    true,
	}
	err = s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		existing, err := uow.Users().GetByEmail(ctx, in.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.Conflict("email is already registered")
		}
		if existing, err = uow.Users().GetByUsername(ctx, in.Username); err != nil {
			return err
		}
		if existing != nil {
			return domain.Conflict("username is already taken")
		}
		if err := uow.Users().Create(ctx, user); err != nil {
			return conflictOnDuplicate(err, "email or username is already taken")
		}
		return uow.Commit()
	})
	if err != nil {
		return nil, err
	}

	s.issue(ctx, user, purposeVerify)
	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return user, nil
}

// VerifyEmail consumes a verification token and marks its user verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.consume(ctx, purposeVerify, token)
	if err != nil {
		return err
	}
	return s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		err := uow.Users().Update(ctx, userID, map[string]any{"is_verified": true})
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFound("user not found")
		}
		if err != nil {
			return err
		}
		return uow.Commit()
	})
}

// ResendVerification issues a fresh token to an unverified user. Unknown and
// already verified addresses succeed silently.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.lookupEmail(ctx, email)
	if err != nil || user == nil || user.IsVerified {
		return err
	}
	s.issue(ctx, user, purposeVerify)
	return nil
}

// Login checks credentials and returns a signed access token. Every attempt
// counts against the per-email limit; a successful login clears it.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AccessToken, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	attemptsKey := "login:" + in.Email
	allowed, err := s.store.CheckRateLimit(ctx, attemptsKey, s.cfg.LoginAttempts, s.cfg.LoginWindow)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.Validation("too many login attempts, try again later")
	}

	user, err := s.lookupEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.hasher.Verify(user.Password, in.Password) {
		return nil, domain.Unauthorized("invalid email or password")
	}
	if !user.IsActive {
		return nil, domain.AccessForbidden("user is blocked")
	}
	if !user.IsVerified {
		return nil, domain.AccessForbidden("email is not verified")
	}

	if err := s.store.ResetRateLimit(ctx, attemptsKey); err != nil {
		s.logger.Warn().Err(err).Msg("failed to reset login attempts")
	}

	token, err := s.jwt.Generate(user.ID, user.Email, user.IsSuperuser)
	if err != nil {
		return nil, err
	}
	return &AccessToken{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.jwt.TTL().Seconds()),
	}, nil
}

// RequestPasswordReset issues a reset token. Unknown addresses succeed silently.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.lookupEmail(ctx, email)
	if err != nil || user == nil {
		return err
	}
	s.issue(ctx, user, purposeReset)
	return nil
}

func (s *AuthService) ConfirmPasswordReset(ctx context.Context, in ResetPasswordInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		if security.IsTooLong(err) {
			return domain.Validation("password: too long")
		}
		return err
	}
	userID, err := s.consume(ctx, purposeReset, in.Token)
	if err != nil {
		return err
	}
	return s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		err := uow.Users().Update(ctx, userID, map[string]any{"password": hashed})
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFound("user not found")
		}
		if err != nil {
			return err
		}
		return uow.Commit()
	})
}

// Authenticate resolves a bearer token to its live user.
func (s *AuthService) Authenticate(ctx context.Context, bearer string) (*models.User, error) {
	claims, err := s.jwt.Validate(bearer)
	if err != nil {
		return nil, domain.Unauthorized("invalid or expired token")
	}
	var user *models.User
	err = s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		var err error
		user, err = uow.Users().GetByID(ctx, claims.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.Unauthorized("user no longer exists")
	}
	if !user.IsActive {
		return nil, domain.AccessForbidden("user is blocked")
	}
	return user, nil
}

func (s *AuthService) lookupEmail(ctx context.Context, email string) (*models.User, error) {
	var user *models.User
	err := s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		var err error
		user, err = uow.Users().GetByEmail(ctx, email)
		return err
	})
	return user, err
}

func (s *AuthService) issue(ctx context.Context, user *models.User, purpose string) {
	log := s.logger.With().Str("user_id", user.ID.String()).Str("purpose", purpose).Logger()

	token, err := security.NewOpaqueToken(32)
	if err != nil {
		log.Error().Err(err).Msg("failed to generate token")
		return
	}
	ttl := s.cfg.VerificationTTL
	if purpose == purposeReset {
		ttl = s.cfg.PasswordResetTTL
	}
	if err := s.store.SaveToken(ctx, purpose, token, user.ID.String(), ttl); err != nil {
		log.Error().Err(err).Msg("failed to store token")
		return
	}

	send := s.notifier.SendVerification
	if purpose == purposeReset {
		send = s.notifier.SendPasswordReset
	}
	if err := send(ctx, user, token); err != nil {
		log.Error().Err(err).Msg("failed to deliver token")
	}
}

func (s *AuthService) consume(ctx context.Context, purpose, token string) (uuid.UUID, error) {
	if strings.TrimSpace(token) == "" {
		return uuid.Nil, domain.Validation("token is required")
	}
	subject, err := s.store.ConsumeToken(ctx, purpose, token)
	if err != nil {
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(subject)
	if err != nil {
		return uuid.Nil, domain.Validation("token is invalid or expired")
	}
	return userID, nil
}
