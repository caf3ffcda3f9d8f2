package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/greenstay/hotelenergy/internal/hash"
	"github.com/greenstay/hotelenergy/internal/models"
	"github.com/greenstay/hotelenergy/internal/rbac"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateUsername  = errors.New("username already registered")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password does not meet complexity requirements")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidRole        = errors.New("invalid role")
	ErrSelfRoleChange     = errors.New("cannot change own role")
	ErrSelfDelete         = errors.New("cannot delete own account")
	ErrLastAdminProtected = errors.New("cannot remove the last admin")
)

type UserService struct {
	DB *gorm.DB

	// adminMu serializes the admin-count read-then-write on role changes
	// and deletes. Two concurrent demotions must not both observe two
	// admins and proceed to zero.
	adminMu sync.Mutex
}

type CreateUserInput struct {
	Username string
	Password string
	Email    *string
	Role     rbac.Role
}

type UpdateUserInput struct {
	Email    *string
	Password *string
	Role     *rbac.Role
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if in.Role == "" {
		in.Role = rbac.RoleUser
	}
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateUsername
	}

	if in.Email != nil {
		if err := s.DB.WithContext(ctx).Model(&models.User{}).
			Where("email = ?", *in.Email).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrDuplicateEmail
		}
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: pwHash,
		Role:         in.Role,
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate verifies a username/password pair. Unknown usernames and
// wrong passwords produce the same error so callers cannot enumerate
// accounts. Successful logins update last_login.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := s.DB.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	if err := s.DB.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Update patches email, password or role of the target user. The admin
// count check and the write run under adminMu inside one transaction so
// a concurrent demotion or delete cannot interleave.
func (s *UserService) Update(ctx context.Context, actorID, targetID uint, patch UpdateUserInput) (*models.User, error) {
	s.adminMu.Lock()
	defer s.adminMu.Unlock()

	var updated models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("id = ?", targetID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if patch.Email != nil {
			var count int64
			if err := tx.Model(&models.User{}).
				Where("email = ? AND id <> ?", *patch.Email, targetID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrDuplicateEmail
			}
			user.Email = patch.Email
		}

		if patch.Password != nil {
			if err := ValidatePassword(*patch.Password); err != nil {
				return err
			}
			pwHash, err := hash.HashPassword(*patch.Password)
			if err != nil {
				return err
			}
			user.PasswordHash = pwHash
		}

		if patch.Role != nil && *patch.Role != user.Role {
			if !patch.Role.Valid() {
				return ErrInvalidRole
			}
			if targetID == actorID {
				return ErrSelfRoleChange
			}
			if user.Role == rbac.RoleAdmin {
				admins, err := adminCount(tx)
				if err != nil {
					return err
				}
				if admins <= 1 {
					return ErrLastAdminProtected
				}
			}
			user.Role = *patch.Role
		}

		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the target user. Deleting yourself or the sole
// remaining admin is rejected; the admin count is read under the same
// lock and transaction as the delete.
func (s *UserService) Delete(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return ErrSelfDelete
	}

	s.adminMu.Lock()
	defer s.adminMu.Unlock()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("id = ?", targetID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if user.Role == rbac.RoleAdmin {
			admins, err := adminCount(tx)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdminProtected
			}
		}

		return tx.Delete(&models.User{}, targetID).Error
	})
}

func adminCount(tx *gorm.DB) (int64, error) {
	var count int64
	err := tx.Model(&models.User{}).Where("role = ?", rbac.RoleAdmin).Count(&count).Error
	return count, err
}
