// Package seed bootstraps the default organization and super admin so a
// fresh install is usable out of the box for local and self-hosted setups.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	authdomain "github.com/leadstack/crm/internal/auth/domain"
	"github.com/leadstack/crm/internal/identity"
	orgdomain "github.com/leadstack/crm/internal/organization/domain"
)

const (
	defaultOrgName       = "Main"
	defaultAdminEmail    = "admin@leadstack.local"
	defaultAdminPassword = "changeme123"
	defaultAdminDisplay  = "LeadStack Admin"
)

// EnsureDefaultOrg seeds the default organization for startup bootstrap.
func EnsureDefaultOrg(db *gorm.DB, name string) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := ensureOrgTx(ctx, tx, node, name)
		return err
	})
}

// EnsureDefaultOrgAndAdmin seeds the default organization and a super admin
// account. Credentials fall back to the built-in defaults when unset.
func EnsureDefaultOrgAndAdmin(db *gorm.DB, orgName, adminEmail, adminPassword string) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	if strings.TrimSpace(adminEmail) == "" {
		adminEmail = defaultAdminEmail
	}
	if adminPassword == "" {
		adminPassword = defaultAdminPassword
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := ensureOrgTx(ctx, tx, node, orgName)
		if err != nil {
			return err
		}

		email := strings.ToLower(strings.TrimSpace(adminEmail))
		var user authdomain.User
		err = tx.WithContext(ctx).Where("email = ?", email).First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		user = authdomain.User{
			ID:           node.Generate(),
			OrgID:        org.ID,
			Email:        email,
			PasswordHash: string(hash),
			DisplayName:  defaultAdminDisplay,
			Role:         identity.RoleSuperAdmin,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.WithContext(ctx).Create(&user).Error
	})
}

func ensureOrgTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, name string) (*orgdomain.Organization, error) {
	if strings.TrimSpace(name) == "" {
		name = defaultOrgName
	}
	orgSlug := slug.Make(name)

	var org orgdomain.Organization
	err := tx.WithContext(ctx).Where("slug = ?", orgSlug).First(&org).Error
	if err == nil {
		return &org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	org = orgdomain.Organization{
		ID:        node.Generate(),
		Name:      name,
		Slug:      orgSlug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}
