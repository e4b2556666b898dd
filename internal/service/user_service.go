package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/go_cart/shop-service/internal/auth"
	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/repository"
	"github.com/fjod/go_cart/shop-service/internal/storage"
	"github.com/fjod/go_cart/shop-service/internal/validator"
	"go.uber.org/zap"
)

var errBadCredentials = fmt.Errorf("%w: email or password is not correct", ErrUnauthorized)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// UserInput holds a registration or profile update. For updates every field is
// optional and an address may carry only the lines being changed.
type UserInput struct {
	FName    string
	LName    string
	Email    string
	Phone    string
	Password string
	Address  *domain.Address
	Image    *storage.File
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

type UserService struct {
	users    repository.UserRepository
	hasher   auth.PasswordHasher
	tokens   TokenIssuer
	uploader storage.Uploader
	logger   *zap.Logger
}

func NewUserService(
	users repository.UserRepository,
	hasher auth.PasswordHasher,
	tokens TokenIssuer,
	uploader storage.Uploader,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		uploader: uploader,
		logger:   logger,
	}
}

func (s *UserService) Register(ctx context.Context, in UserInput) (*domain.User, error) {
	if !validator.IsValid(in.FName) || !validator.IsValid(in.LName) || !validator.IsValid(in.Email) ||
		!validator.IsValid(in.Phone) || !validator.IsValid(in.Password) {
		return nil, validationError("fname, lname, email, phone and password are required")
	}
	email := normalizeEmail(in.Email)
	if !validator.IsValidEmail(email) {
		return nil, validationError("email %q is not valid", in.Email)
	}
	phone := strings.TrimSpace(in.Phone)
	if !validator.IsValidMobile(phone) {
		return nil, validationError("phone %q is not a valid mobile number", in.Phone)
	}
	if !validator.IsValidPassword(in.Password) {
		return nil, validationError("password must be %d to %d characters long",
			validator.MinPasswordLength, validator.MaxPasswordLength)
	}
	if in.Address == nil {
		return nil, validationError("address is required")
	}
	if err := validateAddress(*in.Address); err != nil {
		return nil, err
	}
	if in.Image == nil {
		return nil, validationError("profileImage file is required")
	}

	if err := s.ensureUnique(ctx, email, phone); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	image, err := s.upload(ctx, *in.Image)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		FName:        strings.TrimSpace(in.FName),
		LName:        strings.TrimSpace(in.LName),
		Email:        email,
		Phone:        phone,
		Password:     hashed,
		ProfileImage: image,
		Address:      *in.Address,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, validationError("email or phone is already registered")
		}
		s.logger.Error("repo create user error", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID.Hex()))
	return user, nil
}

// Login checks the credentials and issues a token carrying the user id.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if !validator.IsValid(in.Email) || !validator.IsValid(in.Password) {
		return nil, validationError("email and password are required")
	}
	email := normalizeEmail(in.Email)
	if !validator.IsValidEmail(email) {
		return nil, validationError("email %q is not valid", in.Email)
	}
	if !validator.IsValidPassword(in.Password) {
		return nil, validationError("password must be %d to %d characters long",
			validator.MinPasswordLength, validator.MaxPasswordLength)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !s.hasher.Compare(user.Password, in.Password) {
		return nil, errBadCredentials
	}

	token, err := s.tokens.Issue(user.ID.Hex())
	if err != nil {
		return nil, err
	}
	return &LoginResult{UserID: user.ID.Hex(), Token: token}, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	uid, err := parseID("userId", userID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, notFoundError("user %s does not exist", userID)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies the supplied fields. Email and phone stay unique and a
// new password is hashed again.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UserInput) (*domain.User, error) {
	current, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	var update domain.UserUpdate
	fields := 0

	if in.FName != "" {
		if !validator.IsValid(in.FName) {
			return nil, validationError("fname must not be blank")
		}
		fname := strings.TrimSpace(in.FName)
		update.FName = &fname
		fields++
	}
	if in.LName != "" {
		if !validator.IsValid(in.LName) {
			return nil, validationError("lname must not be blank")
		}
		lname := strings.TrimSpace(in.LName)
		update.LName = &lname
		fields++
	}
	if in.Email != "" {
		email := normalizeEmail(in.Email)
		if !validator.IsValidEmail(email) {
			return nil, validationError("email %q is not valid", in.Email)
		}
		if email != current.Email {
			if err := s.ensureUnique(ctx, email, ""); err != nil {
				return nil, err
			}
		}
		update.Email = &email
		fields++
	}
	if in.Phone != "" {
		phone := strings.TrimSpace(in.Phone)
		if !validator.IsValidMobile(phone) {
			return nil, validationError("phone %q is not a valid mobile number", in.Phone)
		}
		if phone != current.Phone {
			if err := s.ensureUnique(ctx, "", phone); err != nil {
				return nil, err
			}
		}
		update.Phone = &phone
		fields++
	}
	if in.Password != "" {
		if !validator.IsValidPassword(in.Password) {
			return nil, validationError("password must be %d to %d characters long",
				validator.MinPasswordLength, validator.MaxPasswordLength)
		}
		hashed, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, err
		}
		update.Password = &hashed
		fields++
	}
	if in.Address != nil {
		address := mergeAddress(current.Address, *in.Address)
		if err := validateAddress(address); err != nil {
			return nil, err
		}
		update.Address = &address
		fields++
	}
	if fields == 0 && in.Image == nil {
		return nil, validationError("no fields to update")
	}
	if in.Image != nil {
		image, err := s.upload(ctx, *in.Image)
		if err != nil {
			return nil, err
		}
		update.ProfileImage = &image
	}

	user, err := s.users.UpdateUser(ctx, current.ID, update)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, notFoundError("user %s does not exist", userID)
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, validationError("email or phone is already registered")
		}
		s.logger.Error("repo update user error", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// ensureUnique checks whichever of email and phone is non-empty.
func (s *UserService) ensureUnique(ctx context.Context, email, phone string) error {
	if email != "" {
		taken, err := s.users.EmailExists(ctx, email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if taken {
			return validationError("email %s is already registered", email)
		}
	}
	if phone != "" {
		taken, err := s.users.PhoneExists(ctx, phone)
		if err != nil {
			return fmt.Errorf("check phone: %w", err)
		}
		if taken {
			return validationError("phone %s is already registered", phone)
		}
	}
	return nil
}

func (s *UserService) upload(ctx context.Context, file storage.File) (string, error) {
	url, err := s.uploader.Upload(ctx, file)
	if err != nil {
		s.logger.Error("upload profile image error", zap.String("file", file.Name), zap.Error(err))
		return "", fmt.Errorf("upload profile image: %w", err)
	}
	return url, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateAddress(a domain.Address) error {
	if !validAddressLine(a.Shipping) {
		return validationError("shipping address needs street, city and pincode")
	}
	if !validAddressLine(a.Billing) {
		return validationError("billing address needs street, city and pincode")
	}
	return nil
}

func validAddressLine(l domain.AddressLine) bool {
	return validator.IsValid(l.Street) && validator.IsValid(l.City) && validator.IsValid(l.Pincode)
}

// mergeAddress overlays the non-empty parts of patch onto current.
func mergeAddress(current, patch domain.Address) domain.Address {
	return domain.Address{
		Shipping: mergeAddressLine(current.Shipping, patch.Shipping),
		Billing:  mergeAddressLine(current.Billing, patch.Billing),
	}
}

func mergeAddressLine(current, patch domain.AddressLine) domain.AddressLine {
	if patch.Street != "" {
		current.Street = patch.Street
	}
	if patch.City != "" {
		current.City = patch.City
	}
	if patch.Pincode != "" {
		current.Pincode = patch.Pincode
	}
	return current
}
