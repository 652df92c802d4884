package server

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/branchd-dev/adminconsole/internal/auth"
	"github.com/branchd-dev/adminconsole/internal/models"
)

// Seed is the YAML seed file layout
type Seed struct {
	Users     []SeedUser     `yaml:"users"`
	Customers []SeedCustomer `yaml:"customers"`
}

// SeedUser is a user account created by the seed
type SeedUser struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

func (s *Server) validateSeedUser(u SeedUser) error {
	checks := []struct {
		value, tag string
	}{
		{u.Email, "required,email"},
		{u.Password, "required"},
		{u.Role, "omitempty,oneof=admin staff"},
	}
	for _, check := range checks {
		if err := s.validator.Var(check.value, check.tag); err != nil {
			return err
		}
	}
	return nil
}

// SeedCustomer is a customer created by the seed
type SeedCustomer struct {
	Name   string  `yaml:"name"`
	Email  *string `yaml:"email"`
	Phone  *string `yaml:"phone"`
	Status string  `yaml:"status"`
	Gender *string `yaml:"gender"`
}

// LoadSeed applies the seed file at path. Users are matched by email and
// never overwritten; customers are only seeded into an empty table.
func (s *Server) LoadSeed(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, u := range seed.Users {
			if err := s.validateSeedUser(u); err != nil {
				return fmt.Errorf("invalid seed user %q: %w", u.Email, err)
			}
			if _, err := ensureUser(tx, u.Email, u.Name, u.Password, u.Role); err != nil {
				return err
			}
		}

		var count int64
		if err := tx.Model(&models.Customer{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count customers: %w", err)
		}
		if count > 0 {
			s.logger.Debug().Int64("existing", count).Msg("Skipping customer seed")
			return nil
		}

		for _, sc := range seed.Customers {
			req := CustomerRequest{
				Name:   sc.Name,
				Email:  sc.Email,
				Phone:  sc.Phone,
				Status: sc.Status,
				Gender: sc.Gender,
			}
			req.normalize()
			if err := s.validator.Struct(&req); err != nil {
				return fmt.Errorf("invalid seed customer %q: %w", sc.Name, err)
			}

			var customer models.Customer
			req.apply(&customer)
			if err := tx.Create(&customer).Error; err != nil {
				return fmt.Errorf("failed to seed customer %q: %w", sc.Name, err)
			}
		}

		s.logger.Info().
			Int("users", len(seed.Users)).
			Int("customers", len(seed.Customers)).
			Str("file", path).
			Msg("Seed applied")
		return nil
	})
}

// bootstrapAdmin creates the configured admin account if it does not exist
func (s *Server) bootstrapAdmin() error {
	email := s.config.Server.BootstrapEmail
	if email == "" {
		return nil
	}

	created, err := ensureUser(s.db, email, "Administrator", s.config.Server.BootstrapPassword, models.RoleAdmin)
	if err != nil {
		return err
	}
	if created {
		s.logger.Info().Str("email", email).Msg("Bootstrap admin user created")
	}
	return nil
}

// ensureUser creates the user unless one with the same email exists
func ensureUser(db *gorm.DB, email, name, password, role string) (bool, error) {
	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to look up user %s: %w", email, err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	if role == "" {
		role = models.RoleStaff
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		return false, fmt.Errorf("failed to create user %s: %w", email, err)
	}
	return true, nil
}
