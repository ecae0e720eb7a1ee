package service

import (
	"crypto/subtle"

	"qa-platform/internal/dto"
	"qa-platform/internal/pkg/config"
	"qa-platform/internal/pkg/crypto"
	"qa-platform/internal/pkg/jwt"
	"qa-platform/internal/repository"
	"qa-platform/pkg/constants"
	pkgErrors "qa-platform/pkg/errors"
)

type AuthService interface {
	Login(req *dto.LoginRequest) (*dto.LoginResponse, error)
	RefreshToken(refreshToken string) (*dto.LoginResponse, error)
	VerifyToken(token string) (*dto.UserInfo, error)
	VerifyAPIToken(token string) bool
}

type authService struct {
	cfg      *config.AuthConfig
	userRepo repository.UserRepository
}

func NewAuthService(
	cfg *config.AuthConfig,
	userRepo repository.UserRepository,
) AuthService {
	return &authService{
		cfg:      cfg,
		userRepo: userRepo,
	}
}

func (s *authService) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	userInfo, err := s.authenticateLocal(req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	// 生成Token
	accessToken, err := jwt.GenerateAccessToken(
		userInfo.Username,
		userInfo.Email,
		userInfo.DisplayName,
		userInfo.AuthType,
	)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "生成AccessToken失败", err)
	}

	refreshToken, err := jwt.GenerateRefreshToken(
		userInfo.Username,
		userInfo.Email,
		userInfo.DisplayName,
		userInfo.AuthType,
	)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "生成RefreshToken失败", err)
	}

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.cfg.JWT.AccessTokenExpire,
		User:         userInfo,
	}, nil
}

func (s *authService) authenticateLocal(username, password string) (*dto.UserInfo, error) {
	// 查询用户
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if pkgErrors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, pkgErrors.ErrInvalidCredentials
		}
		return nil, err
	}

	// 检查状态
	if user.Status != constants.StatusEnabled {
		return nil, pkgErrors.ErrUserDisabled
	}

	// 验证密码
	if !crypto.CheckPassword(password, user.Password) {
		return nil, pkgErrors.ErrInvalidCredentials
	}

	// 更新最后登录时间
	_ = s.userRepo.UpdateLastLogin(user.ID)

	// 构建用户信息
	email := ""
	if user.Email != nil {
		email = *user.Email
	}
	displayName := username
	if user.DisplayName != nil {
		displayName = *user.DisplayName
	}

	return &dto.UserInfo{
		Username:    user.Username,
		Email:       email,
		DisplayName: displayName,
		AuthType:    constants.AuthTypeLocal,
	}, nil
}

func (s *authService) RefreshToken(refreshToken string) (*dto.LoginResponse, error) {
	// 验证RefreshToken
	claims, err := jwt.ParseToken(refreshToken)
	if err != nil {
		return nil, err
	}

	// 检查Token类型
	if claims.Type != constants.JWTTypeRefresh {
		return nil, pkgErrors.New(pkgErrors.CodeUnauthorized, "无效的RefreshToken")
	}

	// 生成新的AccessToken
	accessToken, err := jwt.GenerateAccessToken(
		claims.Username,
		claims.Email,
		claims.DisplayName,
		claims.AuthType,
	)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "生成AccessToken失败", err)
	}

	// 生成新的RefreshToken
	newRefreshToken, err := jwt.GenerateRefreshToken(
		claims.Username,
		claims.Email,
		claims.DisplayName,
		claims.AuthType,
	)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "生成RefreshToken失败", err)
	}

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    s.cfg.JWT.AccessTokenExpire,
		User: &dto.UserInfo{
			Username:    claims.Username,
			Email:       claims.Email,
			DisplayName: claims.DisplayName,
			AuthType:    claims.AuthType,
		},
	}, nil
}

func (s *authService) VerifyToken(token string) (*dto.UserInfo, error) {
	claims, err := jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	return &dto.UserInfo{
		Username:    claims.Username,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		AuthType:    claims.AuthType,
	}, nil
}

// VerifyAPIToken 校验CI回调使用的静态令牌
func (s *authService) VerifyAPIToken(token string) bool {
	if s.cfg.APIToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.APIToken)) == 1
}
