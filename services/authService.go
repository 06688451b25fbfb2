package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"civicreport-be/apperror"
	"civicreport-be/models"
	"civicreport-be/repository"
	"civicreport-be/utils"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SignupInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email_format"`
	Phone    string `json:"phone" validate:"required,phone10"`
	Password string `json:"password" validate:"required,min=6"`
	Address  string `json:"address" validate:"required"`
	Landmark string `json:"landmark" validate:"required"`
}

type LoginInput struct {
	EmailOrPhone string `json:"emailOrPhone" validate:"required"`
	Password     string `json:"password" validate:"required"`
}

type AuthResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// PasswordHasher is satisfied by *utils.PasswordHasher.
type PasswordHasher interface {
	HashPassword(plain string) (string, error)
	ComparePassword(hash, candidate string) bool
}

type AuthService struct {
	users    repository.UserStore
	tokens   *utils.TokenManager
	hasher   PasswordHasher
	validate *Validator
	logger   zerolog.Logger
	now      func() time.Time

	// dummyHash is compared against when no account matches a login, so
	// unknown identifiers cost a bcrypt comparison too.
	dummyHash string
}

func NewAuthService(users repository.UserStore, tokens *utils.TokenManager, hasher PasswordHasher, validate *Validator, logger zerolog.Logger) *AuthService {
	s := &AuthService{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		validate: validate,
		logger:   logger.With().Str("component", "auth").Logger(),
		now:      time.Now,
	}
	dummy, err := hasher.HashPassword(primitive.NewObjectID().Hex())
	if err != nil {
		s.logger.Error().Err(err).Msg("hashing login placeholder password")
	}
	s.dummyHash = dummy
	return s
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.Landmark = strings.TrimSpace(in.Landmark)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	_, err := s.users.FindByEmailOrPhone(ctx, in.Email, in.Phone)
	if err == nil {
		return nil, apperror.Conflict("User with this email or phone already exists")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	hashed, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password", "password must be at most 72 bytes")
		}
		return nil, fmt.Errorf("signup: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Password:  hashed,
		Address:   in.Address,
		Landmark:  in.Landmark,
		LastLogin: now,
		CreatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID.Hex()).Msg("user signed up")
	return s.issue(user)
}

// Login accepts an email (any case) or a phone number. Unknown identifiers and
// wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.EmailOrPhone = strings.TrimSpace(in.EmailOrPhone)
	if err := s.validate.Struct(in); err != nil {
		field := ""
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			field = appErr.Field
		}
		return nil, apperror.ValidationFailed(field, "Email/Phone and password are required")
	}

	user, err := s.users.FindByEmailOrPhone(ctx, strings.ToLower(in.EmailOrPhone), in.EmailOrPhone)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.hasher.ComparePassword(s.dummyHash, in.Password)
			return nil, apperror.InvalidCredentials()
		}
		return nil, err
	}
	if !s.hasher.ComparePassword(user.Password, in.Password) {
		return nil, apperror.InvalidCredentials()
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID.Hex()).Msg("user logged in")
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return &AuthResult{Token: token, User: user.Public()}, nil
}

// Verify resolves a bearer token to the user id it was issued for.
func (s *AuthService) Verify(token string) (primitive.ObjectID, error) {
	if token == "" {
		return primitive.NilObjectID, apperror.Unauthenticated("No authorization token provided")
	}

	userID, err := s.tokens.VerifyToken(token)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return primitive.NilObjectID, apperror.Unauthenticated("Authorization token expired")
		}
		return primitive.NilObjectID, apperror.Unauthenticated("Invalid authorization token")
	}

	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return primitive.NilObjectID, apperror.Unauthenticated("Invalid token claims")
	}
	return id, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.users.FindByID(ctx, userID)
}

// UpdateProfile changes name, address or landmark. Any other key rejects the
// whole request.
func (s *AuthService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, updates map[string]any) (*models.Profile, error) {
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make(map[string]string, len(updates))
	for _, k := range keys {
		if !models.ProfileFields[k] {
			return nil, apperror.ValidationFailed(k, "Invalid update fields")
		}
		v, ok := updates[k].(string)
		if !ok || strings.TrimSpace(v) == "" {
			return nil, apperror.ValidationFailed(k, fmt.Sprintf("%s must be a non-empty string", k))
		}
		fields[k] = strings.TrimSpace(v)
	}

	user, err := s.users.UpdateProfile(ctx, userID, fields)
	if err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}
