package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"helpbridge/internal/domain/request"
	"helpbridge/internal/domain/user"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedConfig holds configuration for seeding the database
type SeedConfig struct {
	AdminEmail      string
	AdminName       string
	CreateDemoUsers bool
}

// DefaultSeedConfig returns default seed configuration
func DefaultSeedConfig() *SeedConfig {
	return &SeedConfig{
		AdminEmail:      "admin@helpbridge.local",
		AdminName:       "Platform Admin",
		CreateDemoUsers: true,
	}
}

// SeedResult holds the result of the seeding operation
type SeedResult struct {
	AdminUser *user.User
	Helpers   []*user.User
	Receivers []*user.User
	Requests  []*request.HelpRequest
}

// Users returns every seeded user, admin first.
func (r *SeedResult) Users() []*user.User {
	out := []*user.User{r.AdminUser}
	out = append(out, r.Helpers...)
	return append(out, r.Receivers...)
}

type demoUser struct {
	name, email, city string
	skills, needs     []string
}

var demoHelpers = []demoUser{
	{name: "Hana Costa", email: "hana@helpbridge.local", city: "Lisbon", skills: []string{"groceries", "driving"}},
	{name: "Hugo Reis", email: "hugo@helpbridge.local", city: "Porto", skills: []string{"tutoring", "paperwork"}},
}

var demoReceivers = []demoUser{
	{name: "Rita Lopes", email: "rita@helpbridge.local", city: "Lisbon", needs: []string{"groceries"}},
	{name: "Rui Matos", email: "rui@helpbridge.local", city: "Porto", needs: []string{"paperwork"}},
}

// Seed creates the admin account and, optionally, demo helpers, receivers and
// one pending request. Users are matched by email so reruns are harmless.
func Seed(ctx context.Context, cfg *SeedConfig) (*SeedResult, error) {
	if cfg == nil {
		cfg = DefaultSeedConfig()
	}
	if DB == nil {
		return nil, errors.New("database not initialized")
	}

	result := &SeedResult{}
	err := DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		admin, err := upsertUser(tx, &user.User{
			Name:       cfg.AdminName,
			Email:      cfg.AdminEmail,
			Role:       user.RoleAdmin,
			City:       "Lisbon",
			IsVerified: true,
		})
		if err != nil {
			return fmt.Errorf("failed to seed admin user: %w", err)
		}
		result.AdminUser = admin

		if !cfg.CreateDemoUsers {
			return nil
		}

		for _, d := range demoHelpers {
			u, err := upsertUser(tx, &user.User{Name: d.name, Email: d.email, Role: user.RoleHelper, City: d.city, IsVerified: true})
			if err != nil {
				return fmt.Errorf("failed to seed helper %s: %w", d.email, err)
			}
			profile := user.HelperProfile{UserID: u.ID, Skills: pq.StringArray(d.skills), Resources: pq.StringArray{}, IsAvailable: true, UpdatedAt: time.Now().UTC()}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&profile).Error; err != nil {
				return fmt.Errorf("failed to seed helper profile: %w", err)
			}
			result.Helpers = append(result.Helpers, u)
		}

		for _, d := range demoReceivers {
			u, err := upsertUser(tx, &user.User{Name: d.name, Email: d.email, Role: user.RoleReceiver, City: d.city, IsVerified: true})
			if err != nil {
				return fmt.Errorf("failed to seed receiver %s: %w", d.email, err)
			}
			profile := user.ReceiverProfile{UserID: u.ID, Needs: pq.StringArray(d.needs), UpdatedAt: time.Now().UTC()}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&profile).Error; err != nil {
				return fmt.Errorf("failed to seed receiver profile: %w", err)
			}
			result.Receivers = append(result.Receivers, u)
		}

		hr, err := seedPendingRequest(tx, result.Receivers[0], result.Helpers[0])
		if err != nil {
			return fmt.Errorf("failed to seed request: %w", err)
		}
		if hr != nil {
			result.Requests = append(result.Requests, hr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Seeded %d users", len(result.Users()))
	return result, nil
}

func upsertUser(tx *gorm.DB, u *user.User) (*user.User, error) {
	var existing user.User
	err := tx.Where("email = ?", u.Email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	u.ID = uuid.New()
	u.CreatedAt = now
	u.UpdatedAt = now
	if err := tx.Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// seedPendingRequest leaves the pair alone when it already has a pending
// request.
func seedPendingRequest(tx *gorm.DB, receiver, helper *user.User) (*request.HelpRequest, error) {
	var count int64
	if err := tx.Model(&request.HelpRequest{}).
		Where("receiver_id = ? AND helper_id = ? AND status = ?", receiver.ID, helper.ID, request.StatusPending).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, nil
	}

	hr, err := request.New(receiver.ID, helper.ID, "groceries", "Weekly grocery run", "Two bags from the market on Saturday.", time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := tx.Create(&hr).Error; err != nil {
		return nil, err
	}
	return &hr, nil
}
