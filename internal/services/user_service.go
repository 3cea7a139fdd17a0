package services

import (
	"context"
	"strings"
	"time"

	"helpbridge/internal/domain/user"
	"helpbridge/internal/repository"
	"helpbridge/internal/storage"
	helpbridge_errors "helpbridge/pkg/errors"
	"helpbridge/pkg/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// ImageSigner is satisfied by storage.Client.
type ImageSigner interface {
	PresignGet(ctx context.Context, key string) (string, error)
}

// UserService is the read side of the user directory plus profile edits.
// Accounts themselves are created by the identity provider.
type UserService struct {
	repo   repository.UserRepository
	images ImageSigner
}

func NewUserService(repo repository.UserRepository, images ImageSigner) *UserService {
	return &UserService{repo: repo, images: images}
}

func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (user.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, helpbridge_errors.Internal(err)
	}
	u.ProfileImage = s.imageURL(ctx, u.ProfileImage)
	return u, nil
}

func (s *UserService) ListHelpers(ctx context.Context, page, limit int) ([]user.User, int64, error) {
	users, total, err := s.repo.ListHelpers(ctx, page, limit)
	if err != nil {
		return nil, 0, helpbridge_errors.Internal(err)
	}
	for i := range users {
		users[i].ProfileImage = s.imageURL(ctx, users[i].ProfileImage)
	}
	return users, total, nil
}

// Summaries returns display info for ids. Users missing from the directory
// still get an entry carrying only their id.
func (s *UserService) Summaries(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]user.Summary, error) {
	out := make(map[uuid.UUID]user.Summary, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, seen := out[id]; seen {
			continue
		}
		out[id] = user.Summary{ID: id}
		unique = append(unique, id)
	}

	users, err := s.repo.GetByIDs(ctx, unique)
	if err != nil {
		return nil, helpbridge_errors.Internal(err)
	}
	for _, u := range users {
		sum := u.Summary()
		sum.ProfileImage = s.imageURL(ctx, sum.ProfileImage)
		out[u.ID] = sum
	}
	return out, nil
}

type UpdateProfileInput struct {
	Name         *string
	Bio          *string
	City         *string
	ProfileImage *string

	// Exactly the variant matching the caller's role may be set.
	Helper   *HelperProfileInput
	Receiver *ReceiverProfileInput
}

type HelperProfileInput struct {
	Skills      []string
	Resources   []string
	IsAvailable bool
}

type ReceiverProfileInput struct {
	Needs []string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (user.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, helpbridge_errors.Internal(err)
	}
	if in.Helper != nil && u.Role != user.RoleHelper {
		return user.User{}, helpbridge_errors.ErrInvalidInput
	}
	if in.Receiver != nil && u.Role != user.RoleReceiver {
		return user.User{}, helpbridge_errors.ErrInvalidInput
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return user.User{}, helpbridge_errors.ErrInvalidInput
		}
		u.Name = name
	}
	if in.Bio != nil {
		u.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.City != nil {
		city := strings.TrimSpace(*in.City)
		if city == "" {
			return user.User{}, helpbridge_errors.ErrInvalidInput
		}
		u.City = city
	}
	if in.ProfileImage != nil {
		u.ProfileImage = strings.TrimSpace(*in.ProfileImage)
	}
	u.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, u); err != nil {
		return user.User{}, helpbridge_errors.Internal(err)
	}

	switch {
	case in.Helper != nil:
		p := user.HelperProfile{
			UserID:      u.ID,
			Skills:      pq.StringArray(cleanList(in.Helper.Skills)),
			Resources:   pq.StringArray(cleanList(in.Helper.Resources)),
			IsAvailable: in.Helper.IsAvailable,
			UpdatedAt:   u.UpdatedAt,
		}
		if err := s.repo.SaveHelperProfile(ctx, &p); err != nil {
			return user.User{}, helpbridge_errors.Internal(err)
		}
	case in.Receiver != nil:
		p := user.ReceiverProfile{
			UserID:    u.ID,
			Needs:     pq.StringArray(cleanList(in.Receiver.Needs)),
			UpdatedAt: u.UpdatedAt,
		}
		if err := s.repo.SaveReceiverProfile(ctx, &p); err != nil {
			return user.User{}, helpbridge_errors.Internal(err)
		}
	}

	return s.Me(ctx, userID)
}

// imageURL signs bucket keys and leaves absolute URLs alone. Signing failures
// degrade to no image rather than failing the read.
func (s *UserService) imageURL(ctx context.Context, ref string) string {
	if ref == "" || storage.IsExternalURL(ref) || s.images == nil {
		return ref
	}
	signed, err := s.images.PresignGet(ctx, ref)
	if err != nil {
		logger.FromContext(ctx).Warn("presign profile image", zap.String("key", ref), zap.Error(err))
		return ""
	}
	return signed
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
