package user

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/binarylab/asset-service/internal/upload"
)

// avatarFolder is the storage folder for profile avatars.
const avatarFolder = "avatars"

// AvatarConstraints is the validation rule set applied to avatar uploads.
var AvatarConstraints = upload.Constraints{
	Required:      true,
	AllowedTypes:  []string{"image/*"},
	MaxFileSizeMB: 5,
}

// ProfileStore is the slice of the repository the service needs.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateFullName(ctx context.Context, id, fullName string) (*User, error)
	SetAvatarURL(ctx context.Context, id, avatarURL string) (*User, error)
}

// AvatarStore is the slice of the storage gateway the service needs.
type AvatarStore interface {
	Put(ctx context.Context, f *upload.IncomingFile, folder string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Service contains business logic for user profiles.
type Service struct {
	repo ProfileStore
	gw   AvatarStore
}

// NewService creates a new user Service.
func NewService(repo ProfileStore, gw AvatarStore) *Service {
	return &Service{repo: repo, gw: gw}
}

// GetByID returns a user by their UUID.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile changes the display name.
func (s *Service) UpdateProfile(ctx context.Context, id, fullName string) (*User, error) {
	u, err := s.repo.UpdateFullName(ctx, id, fullName)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

// UpdateAvatar replaces the user's avatar. Ordering is deliberate: the new
// object is uploaded first, the row is pointed at it, and only then is the
// previous object removed. If the row update fails the fresh upload is
// cleaned up; if the final delete fails the stale object is logged and left
// behind rather than failing the already-committed update.
func (s *Service) UpdateAvatar(ctx context.Context, id string, f *upload.IncomingFile) (*User, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.gw.Put(ctx, f, avatarFolder)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.SetAvatarURL(ctx, id, url)
	if err != nil {
		if delErr := s.gw.Delete(ctx, url); delErr != nil {
			log.Printf("user: cleanup of orphaned avatar %q failed: %v", url, delErr)
		}
		return nil, fmt.Errorf("set avatar: %w", err)
	}

	if current.AvatarURL != nil && *current.AvatarURL != "" {
		if delErr := s.gw.Delete(ctx, *current.AvatarURL); delErr != nil {
			log.Printf("user: previous avatar %q left behind: %v", *current.AvatarURL, delErr)
		}
	}

	return updated, nil
}

// IsNotFound returns true when the error indicates a user was not found.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
