package credential

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kbukum/authgate/auth/password"
	"github.com/kbukum/authgate/database"
	"github.com/kbukum/authgate/logger"
)

// GormStore is a Store backed by the users, roles and user_roles tables.
type GormStore struct {
	db     *database.DB
	hasher password.Hasher
	policy password.Policy
	log    *logger.Logger

	dummyOnce sync.Once
	dummyHash string
}

var _ Store = (*GormStore)(nil)

// NewGormStore creates a store. policy is applied to every new password.
func NewGormStore(db *database.DB, hasher password.Hasher, policy password.Policy, log *logger.Logger) *GormStore {
	policy.ApplyDefaults()
	return &GormStore{
		db:     db,
		hasher: hasher,
		policy: policy,
		log:    log.WithComponent("credential"),
	}
}

// FindByUsername looks a user up case-insensitively.
func (s *GormStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	if username == "" {
		return nil, ErrNotFound
	}
	return s.first(s.db.WithContext(ctx), "normalized_username = ?", Normalize(username))
}

// FindByID looks a user up by id.
func (s *GormStore) FindByID(ctx context.Context, id string) (*User, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	return s.first(s.db.WithContext(ctx), "id = ?", id)
}

func (s *GormStore) first(db *gorm.DB, query string, arg interface{}) (*User, error) {
	var u User
	err := db.Preload("Roles", func(db *gorm.DB) *gorm.DB { return db.Order("roles.name") }).
		Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("credential: find user: %w", err)
	}
	return &u, nil
}

// VerifyPassword checks plaintext against u's stored hash.
func (s *GormStore) VerifyPassword(u *User, plaintext string) bool {
	if u == nil {
		s.hasher.Verify(plaintext, s.dummy())
		return false
	}
	return s.hasher.Verify(plaintext, u.PasswordHash)
}

// dummy is a real hash of a random value, so verifying against it costs the
// same as verifying a stored password.
func (s *GormStore) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.log.Error("Failed to prepare dummy hash", logger.ErrorFields("dummy_hash", err))
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

// CreateUser validates and inserts a new user with roles. Missing roles are
// created. A case-insensitive username collision returns ErrUsernameTaken.
func (s *GormStore) CreateUser(ctx context.Context, username, plaintext string, roles []string) (*User, error) {
	if !ValidUsername(username) {
		return nil, ErrInvalidUsername
	}
	if appErr := s.policy.Check(plaintext); appErr != nil {
		return nil, appErr
	}
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username:           username,
		NormalizedUsername: Normalize(username),
		PasswordHash:       hash,
		SecurityStamp:      uuid.NewString(),
	}

	err = s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(u).Error; err != nil {
			if database.IsDuplicateError(err) {
				return ErrUsernameTaken
			}
			return fmt.Errorf("credential: insert user: %w", err)
		}
		assigned, err := s.assignRoles(tx, u.ID, roles)
		if err != nil {
			return err
		}
		u.Roles = assigned
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("User created", map[string]interface{}{
		logger.FieldUserID:   u.ID,
		logger.FieldUsername: u.Username,
		"roles":              u.RoleNames(),
	})
	return u, nil
}

// ChangePassword sets a new password if u's stamp is still current.
func (s *GormStore) ChangePassword(ctx context.Context, u *User, newPlaintext string) (*User, error) {
	if appErr := s.policy.Check(newPlaintext); appErr != nil {
		return nil, appErr
	}
	hash, err := s.hasher.Hash(newPlaintext)
	if err != nil {
		return nil, err
	}

	err = s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		return s.swapStamp(tx, u, map[string]interface{}{"password_hash": hash})
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Password changed", map[string]interface{}{
		logger.FieldUserID: u.ID,
	})
	return s.FindByID(ctx, u.ID)
}

// SetRoles replaces u's roles if u's stamp is still current.
func (s *GormStore) SetRoles(ctx context.Context, u *User, roles []string) (*User, error) {
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.swapStamp(tx, u, nil); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", u.ID).Delete(&UserRole{}).Error; err != nil {
			return fmt.Errorf("credential: clear roles: %w", err)
		}
		_, err := s.assignRoles(tx, u.ID, roles)
		return err
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.FindByID(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Info("Roles updated", map[string]interface{}{
		logger.FieldUserID: u.ID,
		"roles":            updated.RoleNames(),
	})
	return updated, nil
}

// swapStamp writes fields plus a fresh security stamp, guarded by u's
// current stamp. Zero rows affected is ErrNotFound or ErrStampMismatch.
func (s *GormStore) swapStamp(tx *gorm.DB, u *User, fields map[string]interface{}) error {
	updates := map[string]interface{}{
		"security_stamp": uuid.NewString(),
		"updated_at":     time.Now().UTC(),
	}
	for k, v := range fields {
		updates[k] = v
	}

	res := tx.Model(&User{}).
		Where("id = ? AND security_stamp = ?", u.ID, u.SecurityStamp).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("credential: update user: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := tx.Model(&User{}).Where("id = ?", u.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("credential: check user: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrStampMismatch
}

// assignRoles makes sure every role exists and links it to userID.
func (s *GormStore) assignRoles(tx *gorm.DB, userID string, roles []string) ([]Role, error) {
	names := normalizeRoles(roles)
	if len(names) == 0 {
		return []Role{}, nil
	}

	missing := make([]Role, 0, len(names))
	for _, n := range names {
		missing = append(missing, Role{Name: n})
	}
	err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&missing).Error
	if err != nil {
		return nil, fmt.Errorf("credential: ensure roles: %w", err)
	}

	var found []Role
	if err := tx.Where("name IN ?", names).Order("name").Find(&found).Error; err != nil {
		return nil, fmt.Errorf("credential: load roles: %w", err)
	}

	links := make([]UserRole, 0, len(found))
	for _, r := range found {
		links = append(links, UserRole{UserID: userID, RoleID: r.ID})
	}
	if err := tx.Create(&links).Error; err != nil {
		return nil, fmt.Errorf("credential: link roles: %w", err)
	}
	return found, nil
}

// Ping checks that the backing database answers.
func (s *GormStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Reachable is the "credential store reachable" health check.
func (s *GormStore) Reachable(ctx context.Context) bool {
	if err := s.Ping(ctx); err != nil {
		s.log.Warn("Credential store unreachable", logger.ErrorFields("ping", err))
		return false
	}
	return true
}
