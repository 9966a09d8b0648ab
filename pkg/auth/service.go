package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/storefront/pkg/apperrors"
	"github.com/example/storefront/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultFirstName = "New"
	defaultLastName  = "User"
)

// UserStore is the persistence surface the identity bridge needs.
type UserStore interface {
	GetByFirebaseUID(ctx context.Context, uid string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	SoftDelete(ctx context.Context, id string) error
}

// ProfileEvictor drops a cached profile after a mutation so the middleware
// re-reads the store on the next request.
type ProfileEvictor interface {
	EvictProfile(ctx context.Context, firebaseUID string) error
}

// Service resolves verified external identities to local user records.
type Service struct {
	users  UserStore
	cache  ProfileEvictor
	logger *zap.Logger
}

// NewService builds the identity bridge. cache may be nil.
func NewService(users UserStore, cache ProfileEvictor, logger *zap.Logger) *Service {
	return &Service{users: users, cache: cache, logger: logger}
}

// Login resolves the identity to a local user, creating one from the token
// claims when absent. Missing name claims fall back to defaults; explicit
// registration is the only path that demands a complete profile.
func (s *Service) Login(ctx context.Context, ident Identity) (*models.User, error) {
	if u, ok := ident.Registered(); ok {
		return u, nil
	}

	claims := ident.Claims()
	user := &models.User{
		ID:          uuid.NewString(),
		FirebaseUID: claims.Subject,
		FirstName:   orDefault(claims.GivenName, defaultFirstName),
		LastName:    orDefault(claims.FamilyName, defaultLastName),
		Email:       claims.Email,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user on login: %w", err)
	}

	s.logger.Info("Created user on first login",
		zap.String("user_id", user.ID),
		zap.String("firebase_uid", user.FirebaseUID))

	return user, nil
}

// Registration carries the profile fields required to complete an account.
type Registration struct {
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Email     string         `json:"email"`
	Address   models.Address `json:"address"`
}

// Register completes a profile. First name, last name, country and mobile
// are required; anything missing fails validation before any write.
func (s *Service) Register(ctx context.Context, ident Identity, reg Registration) (*models.User, error) {
	var missing []string
	if reg.FirstName == "" {
		missing = append(missing, "first_name")
	}
	if reg.LastName == "" {
		missing = append(missing, "last_name")
	}
	if reg.Address.Country == "" {
		missing = append(missing, "country")
	}
	if reg.Address.Mobile == "" {
		missing = append(missing, "mobile")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required fields: %s",
			apperrors.ErrValidation, strings.Join(missing, ", "))
	}

	claims := ident.Claims()

	if u, ok := ident.Registered(); ok {
		u.FirstName = reg.FirstName
		u.LastName = reg.LastName
		if reg.Email != "" {
			u.Email = reg.Email
		}
		u.Address = reg.Address
		if err := s.users.Update(ctx, u); err != nil {
			return nil, fmt.Errorf("failed to update user on register: %w", err)
		}
		s.evict(ctx, u.FirebaseUID)
		return u, nil
	}

	user := &models.User{
		ID:          uuid.NewString(),
		FirebaseUID: claims.Subject,
		FirstName:   reg.FirstName,
		LastName:    reg.LastName,
		Email:       orDefault(reg.Email, claims.Email),
		Address:     reg.Address,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user on register: %w", err)
	}

	s.logger.Info("Registered user",
		zap.String("user_id", user.ID),
		zap.String("firebase_uid", user.FirebaseUID))

	return user, nil
}

// AccountUpdate carries the mutable profile fields. Empty fields are left
// unchanged.
type AccountUpdate struct {
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Email     string         `json:"email"`
	Address   models.Address `json:"address"`
}

func (s *Service) UpdateAccount(ctx context.Context, user *models.User, upd AccountUpdate) (*models.User, error) {
	if upd.FirstName != "" {
		user.FirstName = upd.FirstName
	}
	if upd.LastName != "" {
		user.LastName = upd.LastName
	}
	if upd.Email != "" {
		user.Email = upd.Email
	}
	applyAddress(&user.Address, upd.Address)

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	s.evict(ctx, user.FirebaseUID)
	return user, nil
}

// DeleteAccount soft-deletes the user. Hard removal and identity-provider
// revocation happen in a separate purge job after the recovery window.
func (s *Service) DeleteAccount(ctx context.Context, user *models.User) error {
	if err := s.users.SoftDelete(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	s.evict(ctx, user.FirebaseUID)
	s.logger.Info("Soft-deleted account", zap.String("user_id", user.ID))
	return nil
}

func (s *Service) evict(ctx context.Context, firebaseUID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.EvictProfile(ctx, firebaseUID); err != nil {
		s.logger.Warn("Failed to evict cached profile",
			zap.String("firebase_uid", firebaseUID), zap.Error(err))
	}
}

func applyAddress(dst *models.Address, src models.Address) {
	if src.Country != "" {
		dst.Country = src.Country
	}
	if src.DialCode != "" {
		dst.DialCode = src.DialCode
	}
	if src.Mobile != "" {
		dst.Mobile = src.Mobile
	}
	if src.Governorate != "" {
		dst.Governorate = src.Governorate
	}
	if src.District != "" {
		dst.District = src.District
	}
	if src.Street != "" {
		dst.Street = src.Street
	}
	if src.Building != "" {
		dst.Building = src.Building
	}
	if src.Floor != "" {
		dst.Floor = src.Floor
	}
	if src.Apartment != "" {
		dst.Apartment = src.Apartment
	}
	if src.Landmark != "" {
		dst.Landmark = src.Landmark
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
