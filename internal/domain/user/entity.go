package user

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Role string

const (
	RoleReceiver Role = "receiver"
	RoleHelper   Role = "helper"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleReceiver, RoleHelper, RoleAdmin:
		return true
	}
	return false
}

// User represents the users table. Role specific data lives in exactly one
// of the profile tables, see Profile.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"type:varchar(120);not null"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Role         Role      `gorm:"type:varchar(16);not null;index"`
	Bio          string    `gorm:"type:varchar(500)"`
	City         string    `gorm:"type:varchar(120);not null"`
	ProfileImage string    `gorm:"type:text"`
	IsVerified   bool      `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Relationships
	HelperProfile   *HelperProfile   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ReceiverProfile *ReceiverProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// HelperProfile represents the helper_profiles table
type HelperProfile struct {
	UserID      uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Skills      pq.StringArray `gorm:"type:text[]"`
	Resources   pq.StringArray `gorm:"type:text[]"`
	IsAvailable bool           `gorm:"not null"`
	UpdatedAt   time.Time
}

// ReceiverProfile represents the receiver_profiles table
type ReceiverProfile struct {
	UserID    uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Needs     pq.StringArray `gorm:"type:text[]"`
	UpdatedAt time.Time
}

// Profile is the role-tagged half of a user: HelperProfile for helpers,
// ReceiverProfile for receivers. Admins carry none.
type Profile interface {
	Role() Role
}

func (HelperProfile) Role() Role   { return RoleHelper }
func (ReceiverProfile) Role() Role { return RoleReceiver }

// Profile returns the variant matching the user's role, falling back to an
// empty one when the row has not been created yet.
func (u User) Profile() Profile {
	switch u.Role {
	case RoleHelper:
		if u.HelperProfile != nil {
			return *u.HelperProfile
		}
		return HelperProfile{UserID: u.ID, IsAvailable: true}
	case RoleReceiver:
		if u.ReceiverProfile != nil {
			return *u.ReceiverProfile
		}
		return ReceiverProfile{UserID: u.ID}
	}
	return nil
}

// Summary is the denormalized participant info embedded in match responses.
type Summary struct {
	ID           uuid.UUID
	Name         string
	City         string
	ProfileImage string
}

func (u User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, City: u.City, ProfileImage: u.ProfileImage}
}

func (User) TableName() string {
	return "users"
}

func (HelperProfile) TableName() string {
	return "helper_profiles"
}

func (ReceiverProfile) TableName() string {
	return "receiver_profiles"
}
