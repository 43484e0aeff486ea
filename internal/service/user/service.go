package user

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain"
	sessionrepo "storefront/internal/repository/session"
	userrepo "storefront/internal/repository/user"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	verifyTTL  = 10 * time.Minute
	accessTTL  = 10 * 24 * time.Hour
	refreshTTL = 30 * 24 * time.Hour
	otpTTL     = 10 * time.Minute
	resetTTL   = 10 * time.Minute
	bcryptCost = 10

	profileFolder = "profiles"
)

type userRepo interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, u domain.User) (*domain.User, error)
	SetLoggedIn(ctx context.Context, id string, loggedIn bool) error
}

type sessionRepo interface {
	Replace(ctx context.Context, userID string) (*domain.Session, error)
	Get(ctx context.Context, userID string) (*domain.Session, error)
	Delete(ctx context.Context, userID string) error
}

// Mailer delivers account emails.
type Mailer interface {
	SendVerification(ctx context.Context, to, token string) error
	SendOTP(ctx context.Context, to, otp string) error
}

// ImageStore keeps profile pictures.
type ImageStore interface {
	Put(ctx context.Context, folder string, up domain.Upload) (domain.Image, error)
	Delete(ctx context.Context, publicID string) error
}

// Service handles registration, verification, login and profile flows.
type Service struct {
	users    userRepo
	sessions sessionRepo
	tokens   *TokenManager
	mailer   Mailer
	images   ImageStore
	logger   *zap.Logger
	policy   *bluemonday.Policy
	now      func() time.Time
	otp      func() (string, error)
}

func New(users userrepo.Repository, sessions sessionrepo.Repository, tokens *TokenManager, mailer Mailer, images ImageStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		mailer:   mailer,
		images:   images,
		logger:   logger,
		policy:   bluemonday.StrictPolicy(),
		now:      time.Now,
		otp:      generateOTP,
	}
}

type RegisterInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Register creates an unverified user and mails a verification link. A mail
// failure is logged and does not fail the registration.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	firstName := s.clean(in.FirstName)
	lastName := s.clean(in.LastName)
	email := normalizeEmail(in.Email)
	if firstName == "" || lastName == "" || email == "" || in.Password == "" {
		return nil, domain.Invalid("All fields are required")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.Errorf(domain.ErrAlreadyExists, "User already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, err
	}

	u, err := s.users.Create(ctx, domain.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.Errorf(domain.ErrAlreadyExists, "User already exists")
		}
		return nil, err
	}

	token, err := s.tokens.Issue(u.ID, TokenVerify, verifyTTL)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.SendVerification(ctx, u.Email, token); err != nil {
		s.logger.Warn("verification email failed", zap.String("user_id", u.ID), zap.Error(err))
	}

	u.Token = token
	return s.users.Update(ctx, *u)
}

// Verify marks the user behind a verification token as verified.
func (s *Service) Verify(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return domain.Invalid("Authorization token is missing or invalid")
	}
	userID, err := s.tokens.Parse(token, TokenVerify)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return domain.Invalid("The registration token has expired")
		}
		return domain.Errorf(domain.ErrUnauthorized, "Token verification failed")
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("User not found")
		}
		return err
	}
	u.Token = ""
	u.IsVerified = true
	_, err = s.users.Update(ctx, *u)
	return err
}

// Reverify issues a fresh verification token and mails it again.
func (s *Service) Reverify(ctx context.Context, email string) error {
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	token, err := s.tokens.Issue(u.ID, TokenVerify, verifyTTL)
	if err != nil {
		return err
	}
	if err := s.mailer.SendVerification(ctx, u.Email, token); err != nil {
		s.logger.Warn("verification email failed", zap.String("user_id", u.ID), zap.Error(err))
	}
	u.Token = token
	_, err = s.users.Update(ctx, *u)
	return err
}

type LoginResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

// Login checks credentials, issues tokens and replaces the user's session.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if normalizeEmail(email) == "" || password == "" {
		return nil, domain.Invalid("All fields are required")
	}
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, domain.Errorf(domain.ErrInvalidCredentials, "Invalid password")
	}
	if !u.IsVerified {
		return nil, domain.Errorf(domain.ErrInvalidCredentials, "Verify your account then login")
	}

	access, err := s.tokens.Issue(u.ID, TokenAccess, accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.Issue(u.ID, TokenRefresh, refreshTTL)
	if err != nil {
		return nil, err
	}

	// The flag follows the session, never the other way round.
	if _, err := s.sessions.Replace(ctx, u.ID); err != nil {
		return nil, err
	}
	if err := s.users.SetLoggedIn(ctx, u.ID, true); err != nil {
		if derr := s.sessions.Delete(ctx, u.ID); derr != nil {
			s.logger.Warn("drop session after failed login", zap.String("user_id", u.ID), zap.Error(derr))
		}
		return nil, err
	}
	u.IsLoggedIn = true

	return &LoginResult{User: u, AccessToken: access, RefreshToken: refresh}, nil
}

// Logout drops the session and clears the logged-in flag.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.sessions.Delete(ctx, userID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if err := s.users.SetLoggedIn(ctx, userID, false); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("User not found")
		}
		return err
	}
	return nil
}

// ForgotPassword stores a fresh OTP and mails it. A mail failure is logged only.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	code, err := s.otp()
	if err != nil {
		return err
	}
	expiry := s.now().Add(otpTTL)
	u.OTP = code
	u.OTPExpiry = &expiry
	u.ResetAllowedUntil = nil
	if _, err := s.users.Update(ctx, *u); err != nil {
		return err
	}
	if err := s.mailer.SendOTP(ctx, u.Email, code); err != nil {
		s.logger.Warn("otp email failed", zap.String("user_id", u.ID), zap.Error(err))
	}
	return nil
}

// VerifyOTP checks the pending OTP and clears it on success. A verified OTP
// opens a short window in which ChangePassword is accepted.
func (s *Service) VerifyOTP(ctx context.Context, email, otp string) error {
	otp = strings.TrimSpace(otp)
	if otp == "" {
		return domain.Invalid("OTP is required")
	}
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.OTP == "" || u.OTPExpiry == nil {
		return domain.Invalid("OTP not generated or already verified")
	}
	if !s.now().Before(*u.OTPExpiry) {
		return domain.Invalid("OTP has expired please request a new one")
	}
	if subtle.ConstantTimeCompare([]byte(otp), []byte(u.OTP)) != 1 {
		return domain.Invalid("Invalid OTP")
	}
	resetUntil := s.now().Add(resetTTL)
	u.OTP = ""
	u.OTPExpiry = nil
	u.ResetAllowedUntil = &resetUntil
	_, err = s.users.Update(ctx, *u)
	return err
}

// ChangePassword sets a new password once both fields match. It only works
// within the window opened by VerifyOTP and closes that window.
func (s *Service) ChangePassword(ctx context.Context, email, newPassword, confirmPassword string) error {
	if newPassword == "" || confirmPassword == "" {
		return domain.Invalid("All fields are required")
	}
	if newPassword != confirmPassword {
		return domain.Invalid("Password do not match")
	}
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.ResetAllowedUntil == nil || !s.now().Before(*u.ResetAllowedUntil) {
		return domain.Errorf(domain.ErrForbidden, "Verify the OTP before changing your password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.ResetAllowedUntil = nil
	_, err = s.users.Update(ctx, *u)
	return err
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return nil, domain.NotFound("User not found")
	}
	u, err := s.users.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("User not found")
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// ProfileInput carries optional profile fields; blank fields keep their value.
type ProfileInput struct {
	FirstName   string
	LastName    string
	Address     string
	City        string
	ZipCode     string
	PhoneNumber string
	Role        string
}

// UpdateProfile patches targetID on behalf of actor. Only the owner or an
// admin may do so, and only admins may change the role.
func (s *Service) UpdateProfile(ctx context.Context, actor domain.User, targetID string, in ProfileInput, image *domain.Upload) (*domain.User, error) {
	if actor.ID != targetID && !actor.IsAdmin() {
		return nil, domain.Errorf(domain.ErrForbidden, "You are not allowed to update this profile")
	}

	u, err := s.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if role := strings.TrimSpace(in.Role); role != "" && domain.Role(role) != u.Role {
		if !actor.IsAdmin() {
			return nil, domain.Errorf(domain.ErrForbidden, "Only admins can change roles")
		}
		if !domain.Role(role).Valid() {
			return nil, domain.Invalid("Invalid role")
		}
		u.Role = domain.Role(role)
	}

	if image != nil {
		if u.ProfilePicPublicID != "" {
			if err := s.images.Delete(ctx, u.ProfilePicPublicID); err != nil {
				s.logger.Warn("delete old profile picture", zap.String("user_id", u.ID), zap.String("public_id", u.ProfilePicPublicID), zap.Error(err))
			}
		}
		img, err := s.images.Put(ctx, profileFolder, *image)
		if err != nil {
			return nil, err
		}
		u.ProfilePic = img.URL
		u.ProfilePicPublicID = img.PublicID
	}

	patch(&u.FirstName, s.clean(in.FirstName))
	patch(&u.LastName, s.clean(in.LastName))
	patch(&u.Address, s.clean(in.Address))
	patch(&u.City, s.clean(in.City))
	patch(&u.ZipCode, s.clean(in.ZipCode))
	patch(&u.PhoneNumber, s.clean(in.PhoneNumber))

	return s.users.Update(ctx, *u)
}

// Authenticate resolves an access token to its user. The user must still hold
// a session, so logging out revokes outstanding access tokens.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.tokens.Parse(token, TokenAccess)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, domain.Errorf(domain.ErrUnauthorized, "Access token has expired, use refreshtoken to generate again")
		}
		return nil, domain.Errorf(domain.ErrUnauthorized, "Access token is missing or invalid")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Errorf(domain.ErrUnauthorized, "User not found")
		}
		return nil, err
	}
	if _, err := s.sessions.Get(ctx, u.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Errorf(domain.ErrUnauthorized, "Session expired, please login again")
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) userByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, domain.Invalid("Email is required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("User not found")
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) clean(v string) string {
	return strings.TrimSpace(s.policy.Sanitize(strings.TrimSpace(v)))
}

func patch(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
