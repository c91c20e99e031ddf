package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/entity"
	search "github.com/studyloop/backend/internal/modules/search/service"
	"github.com/studyloop/backend/internal/modules/user/dto"
	"github.com/studyloop/backend/internal/modules/user/repository"
	"github.com/studyloop/backend/pkg/apperror"
)

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	GoogleLogin() string
	GoogleCallback(ctx context.Context, code string) (*dto.AuthResponse, error)
	GetMe(ctx context.Context, userID uuid.UUID) (*entity.User, error)

	// Admin operations.
	ListUsers(ctx context.Context, page, limit int) ([]entity.User, int64, error)
	UpdateUserRole(ctx context.Context, userID uuid.UUID, roleName string) (*entity.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type authService struct {
	repo         repository.UserRepository
	secret       string
	tokenTTL     time.Duration
	defaultRole  string
	meili        search.SearchService
	googleConfig *oauth2.Config
}

func NewAuthService(repo repository.UserRepository, meili search.SearchService) AuthService {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "change-me"
	}

	ttl := time.Hour
	if ttlStr := os.Getenv("JWT_TTL_MINUTES"); ttlStr != "" {
		if minutes, err := strconv.Atoi(ttlStr); err == nil {
			ttl = time.Duration(minutes) * time.Minute
		}
	}

	defaultRole := os.Getenv("DEFAULT_ROLE")
	if defaultRole == "" {
		defaultRole = entity.RoleStudent
	}

	googleConfig := &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &authService{
		repo:         repo,
		secret:       secret,
		tokenTTL:     ttl,
		defaultRole:  defaultRole,
		meili:        meili,
		googleConfig: googleConfig,
	}
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error) {
	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return nil, errors.New("email already registered")
	}
	if _, err := s.repo.FindByUsername(ctx, input.Username); err == nil {
		return nil, errors.New("username already taken")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role, err := s.repo.FindRoleByName(ctx, s.defaultRole)
	if err != nil {
		return nil, errors.New("default role not found")
	}

	user := &entity.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		RoleID:       &role.ID,
		Role:         *role,
	}
	profile := &entity.Profile{
		FullName: input.FullName,
	}

	if err := s.repo.Create(ctx, user, profile); err != nil {
		return nil, errors.New("failed to create user: " + err.Error())
	}

	return s.buildAuthResponse(user)
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	return s.buildAuthResponse(user)
}

func (s *authService) GoogleLogin() string {
	return s.googleConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
}

func (s *authService) GoogleCallback(ctx context.Context, code string) (*dto.AuthResponse, error) {
	token, err := s.googleConfig.Exchange(ctx, code)
	if err != nil {
		return nil, errors.New("failed to exchange token: " + err.Error())
	}

	client := s.googleConfig.Client(ctx, token)
	userInfoResp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, errors.New("failed to get user info: " + err.Error())
	}
	defer userInfoResp.Body.Close()

	var googleUser struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		GivenName     string `json:"given_name"`
		Picture       string `json:"picture"`
	}

	if err := json.NewDecoder(userInfoResp.Body).Decode(&googleUser); err != nil {
		return nil, errors.New("failed to decode user info: " + err.Error())
	}

	user, err := s.repo.FindByEmail(ctx, googleUser.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			randomPassword := uuid.New().String()
			hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(randomPassword), bcrypt.DefaultCost)

			role, err := s.repo.FindRoleByName(ctx, s.defaultRole)
			if err != nil {
				return nil, errors.New("default role not found")
			}

			username := strings.Split(googleUser.Email, "@")[0]
			username = strings.ReplaceAll(username, " ", "_")
			if _, err := s.repo.FindByUsername(ctx, username); err == nil {
				username = username + "_" + uuid.New().String()[:4]
			}

			newUser := &entity.User{
				Username:     username,
				Email:        googleUser.Email,
				PasswordHash: string(hashedPassword),
				RoleID:       &role.ID,
				Role:         *role,
				AvatarURL:    &googleUser.Picture,
				GoogleID:     &googleUser.ID,
			}
			newProfile := &entity.Profile{
				FullName: googleUser.Name,
			}

			if err := s.repo.Create(ctx, newUser, newProfile); err != nil {
				return nil, errors.New("failed to create user: " + err.Error())
			}

			user = newUser
		} else {
			return nil, err
		}
	} else {
		if user.GoogleID == nil || *user.GoogleID != googleUser.ID {
			user.GoogleID = &googleUser.ID
			if err := s.repo.Update(ctx, user); err != nil {
				log.Printf("Failed to update GoogleID for user %s: %v", user.Email, err)
			}
		}
	}

	return s.buildAuthResponse(user)
}

func (s *authService) GetMe(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context, page, limit int) ([]entity.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	users, total, err := s.repo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, total, nil
}

func (s *authService) UpdateUserRole(ctx context.Context, userID uuid.UUID, roleName string) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	role, err := s.repo.FindRoleByName(ctx, roleName)
	if err != nil {
		return nil, apperror.ErrBadRequest
	}

	user.RoleID = &role.ID
	user.Role = *role
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Delete(ctx, userID)
}

func (s *authService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	var searchToken string
	if s.meili != nil {
		roleName := entity.RoleStudent
		if user.RoleID != nil {
			roleName = user.Role.Name
		}
		st, err := s.meili.GenerateSearchToken(roleName)
		if err != nil {
			log.Printf("Failed to generate search token for user %s (role %s): %v", user.Username, roleName, err)
		} else {
			searchToken = st
		}
	}

	user.PasswordHash = ""

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt,
		User:        user,
		Role:        &user.Role,
		Profile:     user.Profile,
		SearchToken: searchToken,
	}, nil
}

func (s *authService) generateToken(user *entity.User) (string, int64, error) {
	expiresAt := time.Now().Add(s.tokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", 0, err
	}

	return signed, expiresAt.Unix(), nil
}
