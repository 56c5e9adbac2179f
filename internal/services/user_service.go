package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/renchester/blog-api/internal/infrastructure/auth"
	"github.com/renchester/blog-api/internal/infrastructure/kafka"
	"github.com/renchester/blog-api/internal/infrastructure/observability"
	"github.com/renchester/blog-api/internal/infrastructure/policy"
	"github.com/renchester/blog-api/internal/infrastructure/redis"
	"github.com/renchester/blog-api/internal/models"
	"github.com/renchester/blog-api/internal/repository"
	pkgerrors "github.com/renchester/blog-api/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const profileCacheTTL = 5 * time.Minute

type PasswordHasher interface {
	Hash(password string) (salt, digest string, err error)
	Verify(password, digest, salt string) (bool, error)
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type UpdateDetailsInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

type UserService struct {
	users  repository.UserRepository
	audit  repository.AuditRepository
	hasher PasswordHasher
	authz  policy.Authorizer
	cache  redis.RedisClient
	events *eventPublisher
}

// NewUserService accepts a nil cache; profile reads then always hit the repository.
func NewUserService(
	users repository.UserRepository,
	audit repository.AuditRepository,
	hasher PasswordHasher,
	authz policy.Authorizer,
	cache redis.RedisClient,
	producer kafka.KafkaProducer,
	topic string,
) *UserService {
	return &UserService{
		users:  users,
		audit:  audit,
		hasher: hasher,
		authz:  authz,
		cache:  cache,
		events: newEventPublisher(producer, topic),
	}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.PublicUser, error) {
	ctx, span := otel.Tracer("user-service").Start(ctx, "Register")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	var v validator
	v.username(in.Username)
	v.email(in.Email)
	v.password(in.Password)
	v.required("first_name", "First name", in.FirstName)
	v.required("last_name", "Last name", in.LastName)
	if err := v.err(); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	salt, digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "password hashing failed")
		return nil, fmt.Errorf("%w: failed to hash password", pkgerrors.ErrInternal)
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		Salt:      salt,
		Hash:      digest,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, pkgerrors.ErrUsernameExists) || errors.Is(err, pkgerrors.ErrEmailExists) {
			span.SetStatus(codes.Error, "duplicate user")
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "user creation failed")
		observability.WithContext(ctx).Error("failed to create user", "username", in.Username, "error", err)
		return nil, fmt.Errorf("%w: failed to create user", pkgerrors.ErrInternal)
	}

	observability.WithContext(ctx).Info("user registered", "user_id", user.ID, "username", user.Username)
	s.events.publish(ctx, models.EventUserRegistered, user)

	pub := user.Public()
	return &pub, nil
}

func (s *UserService) List(ctx context.Context) ([]models.PublicUser, error) {
	ctx, span := otel.Tracer("user-service").Start(ctx, "List")
	defer span.End()

	users, err := s.users.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, err
	}
	out := make([]models.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

// GetPublic reads through the profile cache. Cache errors are logged and
// fall back to the repository.
func (s *UserService) GetPublic(ctx context.Context, id string) (*models.PublicUser, error) {
	ctx, span := otel.Tracer("user-service").Start(ctx, "GetPublic")
	defer span.End()

	if cached, ok := s.cachedProfile(ctx, id); ok {
		return cached, nil
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrUserNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "get user failed")
		}
		return nil, err
	}

	pub := user.Public()
	s.cacheProfile(ctx, &pub)
	return &pub, nil
}

func (s *UserService) UpdateDetails(ctx context.Context, actor auth.Identity, id string, in UpdateDetailsInput) (*models.PublicUser, error) {
	ctx, span := otel.Tracer("user-service").Start(ctx, "UpdateDetails")
	defer span.End()

	if err := s.authorize(ctx, actor, policy.ActionUpdate, id); err != nil {
		span.SetStatus(codes.Error, "forbidden")
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Username = strings.TrimSpace(in.Username); in.Username != "" {
		user.Username = in.Username
	}
	if in.Email = strings.TrimSpace(in.Email); in.Email != "" {
		user.Email = in.Email
	}
	if in.FirstName = strings.TrimSpace(in.FirstName); in.FirstName != "" {
		user.FirstName = in.FirstName
	}
	if in.LastName = strings.TrimSpace(in.LastName); in.LastName != "" {
		user.LastName = in.LastName
	}

	var v validator
	v.username(user.Username)
	v.email(user.Email)
	if err := v.err(); err != nil {
		return nil, err
	}

	if err := s.users.UpdateDetails(ctx, user); err != nil {
		if !errors.Is(err, pkgerrors.ErrUsernameExists) && !errors.Is(err, pkgerrors.ErrEmailExists) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "update failed")
		}
		return nil, err
	}
	s.invalidateProfile(ctx, id)

	observability.WithContext(ctx).Info("user updated", "user_id", id, "actor_id", actor.UserID)
	pub := user.Public()
	return &pub, nil
}

// UpdatePassword requires the current password even for the account owner.
func (s *UserService) UpdatePassword(ctx context.Context, actor auth.Identity, id, oldPassword, newPassword string) error {
	ctx, span := otel.Tracer("user-service").Start(ctx, "UpdatePassword")
	defer span.End()

	if err := s.authorize(ctx, actor, policy.ActionChangePassword, id); err != nil {
		span.SetStatus(codes.Error, "forbidden")
		return err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(oldPassword, user.Hash, user.Salt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stored credentials unreadable")
		return fmt.Errorf("verify current password for %s: %w", id, err)
	}
	if !ok {
		return &ValidationError{Fields: map[string]string{"password": "Current password is incorrect"}}
	}

	var v validator
	v.password(newPassword)
	if err := v.err(); err != nil {
		return err
	}

	salt, digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: failed to hash password", pkgerrors.ErrInternal)
	}
	if err := s.users.UpdatePassword(ctx, id, salt, digest); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update password failed")
		return err
	}

	observability.WithContext(ctx).Info("password changed", "user_id", id)
	return nil
}

// Delete removes the user and, with it, every refresh token they hold.
func (s *UserService) Delete(ctx context.Context, actor auth.Identity, id string) error {
	ctx, span := otel.Tracer("user-service").Start(ctx, "Delete")
	defer span.End()

	if err := s.authorize(ctx, actor, policy.ActionDelete, id); err != nil {
		span.SetStatus(codes.Error, "forbidden")
		return err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	s.invalidateProfile(ctx, id)

	observability.WithContext(ctx).Info("user deleted", "user_id", id, "actor_id", actor.UserID)
	s.events.publish(ctx, models.EventUserDeleted, user)
	return nil
}

// Events returns the most recent audit entries recorded for a user.
func (s *UserService) Events(ctx context.Context, actor auth.Identity, id string, limit int) ([]models.AuthEvent, error) {
	ctx, span := otel.Tracer("user-service").Start(ctx, "Events")
	defer span.End()

	if err := s.authorize(ctx, actor, policy.ActionReadEvents, id); err != nil {
		span.SetStatus(codes.Error, "forbidden")
		return nil, err
	}
	events, err := s.audit.ListByUser(ctx, id, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list events failed")
		return nil, err
	}
	return events, nil
}

func (s *UserService) authorize(ctx context.Context, actor auth.Identity, action, ownerID string) error {
	allowed, err := s.authz.Allowed(ctx, policy.Input{
		Subject:  policy.Subject{ID: actor.UserID, Admin: actor.IsAdmin},
		Action:   action,
		Resource: policy.Resource{OwnerID: ownerID},
	})
	if err != nil {
		observability.WithContext(ctx).Error("policy evaluation failed", "action", action, "error", err)
		return fmt.Errorf("%w: policy evaluation failed", pkgerrors.ErrInternal)
	}
	if !allowed {
		observability.WithContext(ctx).Warn("action denied",
			"action", action,
			"actor_id", actor.UserID,
			"user_id", ownerID)
		return pkgerrors.ErrForbidden
	}
	return nil
}

func profileKey(id string) string {
	return fmt.Sprintf("user:%s:profile", id)
}

func (s *UserService) cachedProfile(ctx context.Context, id string) (*models.PublicUser, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, profileKey(id))
	if err != nil {
		if !errors.Is(err, redis.ErrKeyNotFound) {
			observability.WithContext(ctx).Warn("profile cache read failed", "user_id", id, "error", err)
		}
		return nil, false
	}
	var pub models.PublicUser
	if err := json.Unmarshal([]byte(raw), &pub); err != nil {
		observability.WithContext(ctx).Warn("discarding corrupt cached profile", "user_id", id, "error", err)
		return nil, false
	}
	return &pub, true
}

func (s *UserService) cacheProfile(ctx context.Context, pub *models.PublicUser) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(pub)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, profileKey(pub.ID), payload, profileCacheTTL); err != nil {
		observability.WithContext(ctx).Warn("profile cache write failed", "user_id", pub.ID, "error", err)
	}
}

func (s *UserService) invalidateProfile(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, profileKey(id)); err != nil {
		observability.WithContext(ctx).Warn("profile cache invalidation failed", "user_id", id, "error", err)
	}
}
