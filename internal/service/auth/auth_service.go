// Package auth 提供注册、登录与个人资料服务
package auth

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tatchunari/neatly-backend/internal/common/errors"
	"github.com/tatchunari/neatly-backend/internal/common/jwt"
	"github.com/tatchunari/neatly-backend/internal/common/logger"
	"github.com/tatchunari/neatly-backend/internal/common/utils"
	"github.com/tatchunari/neatly-backend/internal/models"
	"github.com/tatchunari/neatly-backend/internal/repository"
)

// Service 认证服务
type Service struct {
	userRepo   *repository.UserRepository
	jwtManager *jwt.Manager
}

// NewService 创建认证服务
func NewService(userRepo *repository.UserRepository, jwtManager *jwt.Manager) *Service {
	return &Service{userRepo: userRepo, jwtManager: jwtManager}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email       string  `json:"email" binding:"required,email"`
	Username    string  `json:"username" binding:"required,min=3,max=50"`
	Password    string  `json:"password" binding:"required,min=8,max=72"`
	FullName    string  `json:"full_name" binding:"required,max=100"`
	Phone       *string `json:"phone"`
	DateOfBirth *string `json:"date_of_birth"`
	Country     *string `json:"country"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	User  *models.User   `json:"user"`
	Token *jwt.TokenPair `json:"token"`
}

// Register 注册新用户
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrEmailExists
	}

	exists, err = s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        req.Phone,
		Country:      req.Country,
		Role:         models.RoleCustomer,
		Status:       models.UserStatusActive,
	}
	if req.DateOfBirth != nil && *req.DateOfBirth != "" {
		dob, err := utils.ParseDate(*req.DateOfBirth)
		if err != nil {
			return nil, errors.ErrInvalidParams.WithMessage("无效的出生日期格式")
		}
		user.DateOfBirth = &dob
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	logger.Info("用户注册成功", logger.UserID(user.ID), logger.String("email", user.Email))

	return s.issueTokens(user)
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login 邮箱密码登录
// 邮箱不存在与密码错误返回同一错误，避免账号枚举
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPasswordError
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.ErrPasswordError
	}
	if user.Status != models.UserStatusActive {
		return nil, errors.ErrAccountDisabled
	}

	now := time.Now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		logger.Warn("更新最近登录时间失败", logger.UserID(user.ID), logger.Err(err))
	}
	user.LastLoginAt = &now

	logger.Info("用户登录", logger.UserID(user.ID))

	return s.issueTokens(user)
}

// issueTokens 签发令牌对
func (s *Service) issueTokens(user *models.User) (*LoginResponse, error) {
	userType := jwt.UserTypeUser
	if user.IsAdmin() {
		userType = jwt.UserTypeAdmin
	}

	pair, err := s.jwtManager.GenerateTokenPair(user.ID, userType, user.Role)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	return &LoginResponse{User: user, Token: pair}, nil
}

// RefreshToken 刷新令牌对
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	pair, err := s.jwtManager.RefreshToken(refreshToken)
	if err != nil {
		return nil, errors.ErrTokenInvalid.WithError(err)
	}
	return pair, nil
}

// GetProfile 获取个人资料
func (s *Service) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return user, nil
}

// UpdateProfileRequest 更新个人资料请求
type UpdateProfileRequest struct {
	FullName    *string `json:"full_name"`
	Phone       *string `json:"phone"`
	DateOfBirth *string `json:"date_of_birth"`
	Country     *string `json:"country"`
	AvatarURL   *string `json:"avatar_url"`
}

// UpdateProfile 更新个人资料
func (s *Service) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*models.User, error) {
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.FullName != nil && *req.FullName != "" {
		fields["full_name"] = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.DateOfBirth != nil && *req.DateOfBirth != "" {
		dob, err := utils.ParseDate(*req.DateOfBirth)
		if err != nil {
			return nil, errors.ErrInvalidParams.WithMessage("无效的出生日期格式")
		}
		fields["date_of_birth"] = dob
	}
	if req.Country != nil {
		fields["country"] = *req.Country
	}
	if req.AvatarURL != nil {
		fields["avatar_url"] = *req.AvatarURL
	}

	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	}

	return s.GetProfile(ctx, userID)
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// ChangePassword 修改密码
func (s *Service) ChangePassword(ctx context.Context, userID int64, req *ChangePasswordRequest) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return errors.ErrPasswordError.WithMessage("原密码错误")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.ErrInternalError.WithError(err)
	}

	return s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"password_hash": string(hash),
	})
}
