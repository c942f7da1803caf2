package auth

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

// IdentityService orchestrates registration, login, social sign-on, token
// refresh, logout, and password change by composing PasswordPolicy and
// TokenAuthority against the user-store collaborator. All dependencies are
// injected; there is no process-wide registry.
type IdentityService struct {
	store     UserStore
	passwords *PasswordPolicy
	tokens    *TokenAuthority
	profiles  ProfileFetcher
}

// IdentityOption configures IdentityService behavior.
type IdentityOption func(*IdentityService) error

// WithProfileFetcher wires the social sign-on collaborator.
func WithProfileFetcher(f ProfileFetcher) IdentityOption {
	return func(s *IdentityService) error {
		if f == nil {
			return errors.New("auth: profile fetcher must not be nil")
		}
		s.profiles = f
		return nil
	}
}

func NewIdentityService(store UserStore, passwords *PasswordPolicy, tokens *TokenAuthority, opts ...IdentityOption) (*IdentityService, error) {
	if store == nil {
		return nil, errors.New("auth: user store is required")
	}
	if passwords == nil {
		return nil, errors.New("auth: password policy is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token authority is required")
	}
	s := &IdentityService{
		store:     store,
		passwords: passwords,
		tokens:    tokens,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// RegisterInput is the raw registration payload. Phone is optional.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// AuthResult pairs the redacted user with freshly issued tokens.
type AuthResult struct {
	User   UserView  `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// SocialResult additionally reports whether the account was created by this
// sign-on.
type SocialResult struct {
	AuthResult
	Created bool `json:"created"`
}

const maxEmailLength = 255

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// Register validates the payload (collecting every violation), rejects
// duplicate email or phone, persists the credential record with the default
// role, and issues a token pair.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	phone := strings.TrimSpace(in.Phone)

	var violations []string
	if name == "" {
		violations = append(violations, "name is required")
	}
	if !validEmail(email) {
		violations = append(violations, "email must be a valid address of at most 255 characters")
	}
	if phone != "" && !phonePattern.MatchString(phone) {
		violations = append(violations, "phone must be a valid number")
	}
	if res := s.passwords.AssessStrength(in.Password); !res.OK {
		for _, v := range res.Violations {
			violations = append(violations, "password "+v)
		}
	}
	if len(violations) > 0 {
		return AuthResult{}, ErrValidationFailed.WithViolations(violations)
	}

	if err := s.ensureAvailable(ctx, email, phone); err != nil {
		return AuthResult{}, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return AuthResult{}, err
	}
	user := &User{
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Role:         DefaultRole,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return AuthResult{}, ErrAlreadyExists
		}
		return AuthResult{}, ErrRegistrationFailed.wrapf("create user: %w", err)
	}

	return s.authResult(user)
}

// Login authenticates by email and password. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *IdentityService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return AuthResult{}, ErrInvalidCredentials
	}
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, ErrLoginFailed.wrapf("find user: %w", err)
	}
	if !s.passwords.Verify(password, user.PasswordHash) {
		return AuthResult{}, ErrInvalidCredentials
	}
	return s.authResult(user)
}

// SocialAuth exchanges a provider token for a normalized profile and
// finds-or-creates the matching account. New accounts receive a
// policy-compliant random password since they hold no local secret.
func (s *IdentityService) SocialAuth(ctx context.Context, provider Provider, providerToken string) (SocialResult, error) {
	if !ValidProvider(provider) {
		return SocialResult{}, ErrSocialAuthFailed.wrapf("unsupported provider %q", provider)
	}
	if s.profiles == nil {
		return SocialResult{}, ErrSocialAuthFailed.wrapf("no profile fetcher configured")
	}
	profile, err := s.profiles.Fetch(ctx, provider, providerToken)
	if err != nil {
		return SocialResult{}, ErrSocialAuthFailed.wrapf("fetch %s profile: %w", provider, err)
	}
	email := normalizeEmail(profile.Email)
	if !validEmail(email) {
		return SocialResult{}, ErrSocialAuthFailed.wrapf("%s profile has no usable email", provider)
	}

	user, err := s.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		result, err := s.authResult(user)
		if err != nil {
			return SocialResult{}, err
		}
		return SocialResult{AuthResult: result}, nil
	case errors.Is(err, ErrUserNotFound):
		// fall through to account creation
	default:
		return SocialResult{}, ErrSocialAuthFailed.wrapf("find user: %w", err)
	}

	password, err := s.passwords.Generate(0)
	if err != nil {
		return SocialResult{}, ErrSocialAuthFailed.wrapf("generate password: %w", err)
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return SocialResult{}, ErrSocialAuthFailed.Wrap(err)
	}
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}
	user = &User{
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(profile.Phone),
		PasswordHash: hash,
		Role:         DefaultRole,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			// Lost a concurrent find-or-create race; the record exists now.
			if existing, findErr := s.store.FindByEmail(ctx, email); findErr == nil {
				result, resErr := s.authResult(existing)
				if resErr != nil {
					return SocialResult{}, resErr
				}
				return SocialResult{AuthResult: result}, nil
			}
		}
		return SocialResult{}, ErrSocialAuthFailed.wrapf("create user: %w", err)
	}
	result, err := s.authResult(user)
	if err != nil {
		return SocialResult{}, err
	}
	return SocialResult{AuthResult: result, Created: true}, nil
}

// RefreshToken mints a new pair from a valid refresh token.
func (s *IdentityService) RefreshToken(ctx context.Context, refreshToken string) (TokenPair, error) {
	return s.tokens.Refresh(refreshToken)
}

// Logout revokes the principal's current session.
func (s *IdentityService) Logout(ctx context.Context, principalID string) error {
	return s.tokens.Revoke(principalID)
}

// LogoutAll revokes every session for the principal.
func (s *IdentityService) LogoutAll(ctx context.Context, principalID string) error {
	return s.tokens.RevokeAll(principalID)
}

// ChangePassword verifies the current password, persists a hash of the new
// one, then revokes all sessions so every holder of the old credential must
// re-authenticate.
func (s *IdentityService) ChangePassword(ctx context.Context, principalID, current, next string) error {
	user, err := s.store.FindByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !s.passwords.Verify(current, user.PasswordHash) {
		return ErrPasswordChangeFailed
	}
	hash, err := s.passwords.Hash(next)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return err
	}
	return s.tokens.RevokeAll(user.ID)
}

// CurrentUser returns the redacted record for the principal.
func (s *IdentityService) CurrentUser(ctx context.Context, principalID string) (UserView, error) {
	user, err := s.store.FindByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return UserView{}, ErrUserNotFound
		}
		return UserView{}, err
	}
	return user.Redact(), nil
}

// User returns the redacted record for an arbitrary id; callers gate it with
// AccessPolicy.
func (s *IdentityService) User(ctx context.Context, id string) (UserView, error) {
	return s.CurrentUser(ctx, id)
}

func (s *IdentityService) authResult(user *User) (AuthResult, error) {
	pair, err := s.tokens.IssuePair(user.ID, user.Email, user.Role)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: user.Redact(), Tokens: pair}, nil
}

func (s *IdentityService) ensureAvailable(ctx context.Context, email, phone string) error {
	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return ErrAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return ErrRegistrationFailed.wrapf("find by email: %w", err)
	}
	if phone != "" {
		if _, err := s.store.FindByPhone(ctx, phone); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, ErrUserNotFound) {
			return ErrRegistrationFailed.wrapf("find by phone: %w", err)
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" || len(email) > maxEmailLength {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
