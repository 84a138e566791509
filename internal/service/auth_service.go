package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"gittogether/api/internal/apperr"
	"gittogether/api/internal/ids"
	"gittogether/api/internal/models"
	"gittogether/api/internal/repository"
	"gittogether/api/internal/security"
)

type AuthService struct {
	users  UserStore
	hasher *security.PasswordHasher
	tokens *security.TokenIssuer
	images ImageChecker
	log    zerolog.Logger
	now    func() time.Time
}

// NewAuthService wires the signup/login flow. images may be nil, in which
// case image keys are accepted without an object storage check.
func NewAuthService(
	users UserStore,
	hasher *security.PasswordHasher,
	tokens *security.TokenIssuer,
	images ImageChecker,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		images: images,
		log:    log,
		now:    time.Now,
	}
}

type SignupInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	DateOfBirth *time.Time
	Gender      models.Gender
	About       string
	Skills      []string
	ImageKey    string
	ImageType   string
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (AuthResult, error) {
	user := models.User{
		ID:          ids.New(),
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		Email:       NormalizeEmail(input.Email),
		DateOfBirth: input.DateOfBirth,
		Gender:      input.Gender,
		About:       strings.TrimSpace(input.About),
		Skills:      cleanSkills(input.Skills),
	}

	if err := checkNames(user.FirstName, user.LastName); err != nil {
		return AuthResult{}, err
	}

	if user.Gender != "" && !user.Gender.Valid() {
		return AuthResult{}, apperr.Validation(apperr.CodeValidation, "Validation Error",
			apperr.FieldError{Field: "gender", Message: "must be one of: Man, Woman, Non-binary"})
	}

	user.DeriveAge(s.now())
	if user.Age != nil && (*user.Age < models.MinAge || *user.Age > models.MaxAge) {
		return AuthResult{}, apperr.Validation(apperr.CodeValidation, "Validation Error",
			apperr.FieldError{Field: "dateOfBirth", Message: fmt.Sprintf("age must be between %d and %d", models.MinAge, models.MaxAge)})
	}

	if input.ImageKey != "" {
		contentType, err := s.checkImage(ctx, input.ImageKey, input.ImageType)
		if err != nil {
			return AuthResult{}, err
		}
		user.ProfileImage = models.ProfileImage{
			Key:            input.ImageKey,
			ContentType:    contentType,
			IsUserUploaded: true,
			Version:        1,
		}
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return AuthResult{}, apperr.Internal(err)
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return AuthResult{}, ErrEmailTaken.WithFields(apperr.FieldError{Field: "email", Message: "Email already exists"})
		}
		return AuthResult{}, apperr.Internal(err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user signed up")
	return s.issue(user)
}

type LoginInput struct {
	Email    string
	Password string
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrEmailNotFound
		}
		return AuthResult{}, apperr.Internal(err)
	}

	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("stored password hash unreadable")
		return AuthResult{}, ErrInvalidCredentials
	}
	if !ok {
		return AuthResult{}, ErrInvalidCredentials
	}
	return s.issue(user)
}

// Authenticate resolves a session token to its user. It backs both the HTTP
// auth middleware and the realtime handshake.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrUnauthorized
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return models.User{}, ErrInvalidSession.Wrap(err)
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrSessionUserNotFound
		}
		return models.User{}, apperr.Internal(err)
	}
	return user, nil
}

func (s *AuthService) issue(user models.User) (AuthResult, error) {
	token, expires, err := s.tokens.Issue(user.ID)
	if err != nil {
		return AuthResult{}, apperr.Internal(err)
	}
	return AuthResult{Token: token, ExpiresAt: expires, User: user}, nil
}

// checkNames bounds the trimmed names in runes.
func checkNames(first, last string) error {
	var fields []apperr.FieldError
	if n := utf8.RuneCountInString(first); n < models.MinFirstNameLength || n > models.MaxNameLength {
		fields = append(fields, apperr.FieldError{Field: "firstName",
			Message: fmt.Sprintf("must be between %d and %d characters", models.MinFirstNameLength, models.MaxNameLength)})
	}
	if n := utf8.RuneCountInString(last); n < 1 || n > models.MaxNameLength {
		fields = append(fields, apperr.FieldError{Field: "lastName",
			Message: fmt.Sprintf("must be between 1 and %d characters", models.MaxNameLength)})
	}
	if len(fields) > 0 {
		return apperr.Validation(apperr.CodeValidation, "Validation Error", fields...)
	}
	return nil
}

// checkImage returns the content type to record for key. The stored bytes
// win over the declared type, and the two must agree when both are known.
func (s *AuthService) checkImage(ctx context.Context, key, declared string) (string, error) {
	if s.images == nil {
		return declared, nil
	}
	mime, exists, err := s.images.ImageContentType(ctx, key)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("inspect profile image: %w", err))
	}
	if !exists {
		return "", ErrImageNotFound.WithFields(apperr.FieldError{Field: "profileImage", Message: "image not found in storage"})
	}
	if mime == "" || (declared != "" && mime != declared) {
		return "", ErrInvalidImage.WithFields(apperr.FieldError{Field: "profileImage.contentType", Message: "does not match the uploaded file"})
	}
	return mime, nil
}

func cleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
