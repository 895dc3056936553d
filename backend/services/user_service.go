package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"learnhub/backend/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserInput struct {
	FullName string `json:"full_name" form:"full_name" validate:"max=255"`
	Username string `json:"username" form:"username" validate:"required,min=3,max=100"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Phone    string `json:"phone" form:"phone" validate:"max=30"`
	Address  string `json:"address" form:"address"`
	Password string `json:"password,omitempty" form:"password" validate:"omitempty,min=6"`
	Role     string `json:"role" form:"role" validate:"omitempty,oneof=Admin User"`
}

func (in *UserInput) clean() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
}

// echo is the input as it may be sent back to the client.
func (in UserInput) echo() UserInput {
	in.Password = ""
	return in
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Role").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "user", ID: id}
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context, search string) ([]models.User, error) {
	query := s.db.WithContext(ctx).Preload("Role").Order("id ASC")
	if search = strings.TrimSpace(search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", pattern, pattern, pattern)
	}
	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *UserService) Create(ctx context.Context, input UserInput) (*models.User, error) {
	input.clean()
	fields, err := structFields(&input)
	if err != nil {
		return nil, err
	}
	if input.Password == "" {
		fields = append(fields, FieldError{Field: "password", Error: "is required", Kind: ErrInvalidInput})
	}
	more, err := s.checkUnique(ctx, &input, 0)
	if err != nil {
		return nil, err
	}
	if fields = append(fields, more...); len(fields) > 0 {
		return nil, NewValidationError(input.echo(), fields...)
	}

	role, err := s.role(ctx, defaultString(input.Role, models.RoleUser))
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		FullName:     input.FullName,
		Username:     input.Username,
		Email:        input.Email,
		Phone:        input.Phone,
		Address:      input.Address,
		PasswordHash: string(hash),
		RoleID:       role.ID,
		Role:         role,
	}
	if err := s.db.WithContext(ctx).Omit("Role").Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.duplicateError(ctx, input, 0)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Update overwrites the profile. The password changes only when one is supplied.
func (s *UserService) Update(ctx context.Context, id uint, input UserInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	input.clean()
	fields, err := structFields(&input)
	if err != nil {
		return nil, err
	}
	more, err := s.checkUnique(ctx, &input, user.ID)
	if err != nil {
		return nil, err
	}
	if fields = append(fields, more...); len(fields) > 0 {
		return nil, NewValidationError(input.echo(), fields...)
	}

	user.FullName = input.FullName
	user.Username = input.Username
	user.Email = input.Email
	user.Phone = input.Phone
	user.Address = input.Address
	if input.Role != "" {
		role, err := s.role(ctx, input.Role)
		if err != nil {
			return nil, err
		}
		user.RoleID = role.ID
		user.Role = role
	}
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.db.WithContext(ctx).Omit("Role").Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.duplicateError(ctx, input, user.ID)
		}
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return user, nil
}

// Delete removes an account. Users cannot delete themselves, and accounts
// still referenced by courses or enrollments are kept.
func (s *UserService) Delete(ctx context.Context, identity Identity, id uint) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if identity.Matches(user) {
		return NewValidationError(nil, fieldError("", ErrSelfDelete))
	}

	if err := s.db.WithContext(ctx).Delete(&models.User{}, id).Error; err != nil {
		return &ConstraintError{Err: fmt.Errorf("user %s has related data: %w", user.Username, err)}
	}
	return nil
}

// Authenticate accepts either the username or the email as login.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).Preload("Role").
		Where("username = ? OR email = ?", login, strings.ToLower(login)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// checkUnique looks for other accounts holding the username or email.
func (s *UserService) checkUnique(ctx context.Context, input *UserInput, excludeID uint) ([]FieldError, error) {
	var fields []FieldError
	checks := []struct {
		column string
		value  string
		field  string
		kind   error
	}{
		{"username", input.Username, "username", ErrDuplicateUsername},
		{"email", input.Email, "email", ErrDuplicateEmail},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		query := s.db.WithContext(ctx).Model(&models.User{}).Where(c.column+" = ?", c.value)
		if excludeID != 0 {
			query = query.Where("id <> ?", excludeID)
		}
		var n int64
		if err := query.Count(&n).Error; err != nil {
			return nil, err
		}
		if n > 0 {
			fields = append(fields, fieldError(c.field, c.kind))
		}
	}
	return fields, nil
}

// duplicateError names the field behind a unique-key violation that slipped
// past checkUnique, typically a concurrent write of the same username or email.
func (s *UserService) duplicateError(ctx context.Context, input UserInput, excludeID uint) error {
	fields, err := s.checkUnique(ctx, &input, excludeID)
	if err != nil || len(fields) == 0 {
		fields = []FieldError{fieldError("username", ErrDuplicateUsername)}
	}
	return NewValidationError(input.echo(), fields...)
}

func (s *UserService) role(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, fmt.Errorf("role %s: %w", name, err)
	}
	return &role, nil
}
