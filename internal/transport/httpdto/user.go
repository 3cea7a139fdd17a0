package httpdto

import (
	"time"

	"helpbridge/internal/domain/user"
)

// UpdateProfileRequest is used for PUT /api/users/profile. At most one of
// the profile variants may be set and it must match the caller's role.
type UpdateProfileRequest struct {
	Name            *string                 `json:"name"`
	Bio             *string                 `json:"bio"`
	City            *string                 `json:"city"`
	ProfileImage    *string                 `json:"profileImage"`
	HelperProfile   *HelperProfileRequest   `json:"helperProfile"`
	ReceiverProfile *ReceiverProfileRequest `json:"receiverProfile"`
}

type HelperProfileRequest struct {
	Skills      []string `json:"skills"`
	Resources   []string `json:"resources"`
	IsAvailable bool     `json:"isAvailable"`
}

type ReceiverProfileRequest struct {
	Needs []string `json:"needs"`
}

// ListUsersRequest holds query parameters for listing helpers
type ListUsersRequest struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

type ListHelpersResponse struct {
	Users []UserDTO `json:"users"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

// UserDTO represents a user in API responses. The profile field is tagged by
// the user's role.
type UserDTO struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Email           string              `json:"email"`
	Role            string              `json:"role"`
	Bio             string              `json:"bio,omitempty"`
	City            string              `json:"city"`
	ProfileImage    string              `json:"profileImage,omitempty"`
	IsVerified      bool                `json:"isVerified"`
	HelperProfile   *HelperProfileDTO   `json:"helperProfile,omitempty"`
	ReceiverProfile *ReceiverProfileDTO `json:"receiverProfile,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
}

type HelperProfileDTO struct {
	Skills      []string `json:"skills"`
	Resources   []string `json:"resources"`
	IsAvailable bool     `json:"isAvailable"`
}

type ReceiverProfileDTO struct {
	Needs []string `json:"needs"`
}

func FromUser(u user.User) UserDTO {
	dto := UserDTO{
		ID:           u.ID.String(),
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		Bio:          u.Bio,
		City:         u.City,
		ProfileImage: u.ProfileImage,
		IsVerified:   u.IsVerified,
		CreatedAt:    u.CreatedAt,
	}
	switch p := u.Profile().(type) {
	case user.HelperProfile:
		dto.HelperProfile = &HelperProfileDTO{
			Skills:      nonNil(p.Skills),
			Resources:   nonNil(p.Resources),
			IsAvailable: p.IsAvailable,
		}
	case user.ReceiverProfile:
		dto.ReceiverProfile = &ReceiverProfileDTO{Needs: nonNil(p.Needs)}
	}
	return dto
}

func FromUsers(in []user.User) []UserDTO {
	out := make([]UserDTO, 0, len(in))
	for _, u := range in {
		out = append(out, FromUser(u))
	}
	return out
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
