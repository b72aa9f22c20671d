package service

import (
	"errors"
	"fmt"

	"go-stockcount-ws/internal/model"
	"go-stockcount-ws/internal/repository"
	"go-stockcount-ws/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrEmailExists = errors.New("email already exists")
)

type UserService interface {
	CreateUser(tenantID uuid.UUID, req *CreateUserRequest, creatorID string) (*model.User, error)
	UpdateUserPrivileges(tenantID, userID uuid.UUID, privilegeCodes []string, updaterID string) (*model.User, error)
	GetAllUsers(tenantID uuid.UUID) ([]model.UserResponse, error)
	GetUserByID(tenantID, id uuid.UUID) (*model.UserResponse, error)
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
	RoleID   uint   `json:"role_id" validate:"required"`
}

type userService struct {
	userRepo      repository.UserRepository
	privilegeRepo repository.PrivilegeRepository
	roleRepo      repository.RoleRepository
}

func NewUserService(userRepo repository.UserRepository, privilegeRepo repository.PrivilegeRepository, roleRepo repository.RoleRepository) UserService {
	return &userService{
		userRepo:      userRepo,
		privilegeRepo: privilegeRepo,
		roleRepo:      roleRepo,
	}
}

func (s *userService) CreateUser(tenantID uuid.UUID, req *CreateUserRequest, creatorID string) (*model.User, error) {
	// 1. Validate request
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	// 2. Check if email already exists
	existing, _ := s.userRepo.FindByEmail(req.Email)
	if existing != nil {
		return nil, ErrEmailExists
	}

	// 3. Validate role exists
	role, err := s.roleRepo.FindByID(req.RoleID)
	if err != nil {
		return nil, errors.New("role not found")
	}

	// 4. Create user
	user := &model.User{
		TenantID: tenantID,
		Email:    req.Email,
		FullName: req.FullName,
		RoleID:   &req.RoleID,
		IsActive: true,
	}
	user.CreatedBy = creatorID
	user.UpdatedBy = creatorID

	// 5. Set password
	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}

	// 6. Auto-assign privileges based on role
	user.Privileges = role.Privileges

	// 7. Save to database
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *userService) UpdateUserPrivileges(tenantID, userID uuid.UUID, privilegeCodes []string, updaterID string) (*model.User, error) {
	// 1. Find user, scoped to the caller's tenant
	user, err := s.userRepo.FindByID(userID)
	if err != nil || user.TenantID != tenantID {
		return nil, ErrUserNotFound
	}

	// 2. Get privileges
	privileges, err := s.privilegeRepo.FindByCodes(privilegeCodes)
	if err != nil {
		return nil, errors.New("failed to find privileges")
	}

	// 3. Update privileges
	if err := s.userRepo.UpdatePrivileges(userID, privileges); err != nil {
		return nil, err
	}

	// 4. Update audit field
	user.UpdatedBy = updaterID
	s.userRepo.Update(user)

	// 5. Reload user with updated privileges
	return s.userRepo.FindByID(userID)
}

func (s *userService) GetAllUsers(tenantID uuid.UUID) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAllByTenant(tenantID)
	if err != nil {
		return nil, err
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(tenantID, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil || user.TenantID != tenantID {
		return nil, ErrUserNotFound
	}
	response := user.ToResponse()
	return &response, nil
}
