package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/models"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ledger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MinPasswordLen is the password policy.
const MinPasswordLen = 6

// ErrInvalidCredentials is returned for unknown users, wrong passwords,
// inactive users and unusable refresh tokens alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserInput creates an operator account.
type UserInput struct {
	Username string   `json:"username" binding:"required,min=3,max=64"`
	Nome     string   `json:"nome" binding:"omitempty,max=255"`
	Senha    string   `json:"senha" binding:"required"`
	Role     string   `json:"role"`
	Modulos  []string `json:"modulos"`
}

// UserUpdate holds the editable fields of a user. Nil fields are kept.
type UserUpdate struct {
	Nome    *string   `json:"nome"`
	Role    *string   `json:"role"`
	Modulos *[]string `json:"modulos"`
	Ativo   *bool     `json:"ativo"`
}

// UserService manages accounts and refresh-token sessions.
type UserService struct {
	db  *gorm.DB
	log *slog.Logger
}

func hashPassword(pw string) ([]byte, error) {
	if len(pw) < MinPasswordLen {
		return nil, validationf("password too short (min %d)", MinPasswordLen)
	}
	return bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
}

func (s *UserService) roleByName(tx *gorm.DB, name string) (*models.Role, error) {
	var r models.Role
	if err := tx.Where("name = ?", name).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationf("unknown role %q", name)
		}
		return nil, translate(err, "role")
	}
	return &r, nil
}

func checkModules(mods []string) ([]string, error) {
	if mods == nil {
		return []string{}, nil
	}
	if err := models.ValidateModules(mods); err != nil {
		return nil, fmt.Errorf("%w: %s", ledger.ErrValidation, err.Error())
	}
	return mods, nil
}

// Authenticate checks username and password of an active user.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Preload("Role").
		Where("username = ?", strings.TrimSpace(username)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, translate(err, "user")
	}
	if !u.Ativo {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.HashedPassword, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

func hashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// IssueRefreshToken stores a new refresh token for userID and returns the
// raw value. Only its hash is persisted.
func (s *UserService) IssueRefreshToken(ctx context.Context, userID uint, ttl time.Duration) (string, error) {
	return s.issueRefresh(s.db.WithContext(ctx), userID, ttl)
}

func (s *UserService) issueRefresh(tx *gorm.DB, userID uint, ttl time.Duration) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	raw := hex.EncodeToString(b)
	rt := models.RefreshToken{UserID: userID, TokenHash: hashToken(raw), ExpiresAt: time.Now().Add(ttl)}
	if err := tx.Create(&rt).Error; err != nil {
		return "", translate(err, "refresh token")
	}
	return raw, nil
}

// RotateRefreshToken revokes raw and issues a replacement in one
// transaction, returning the owning user and the new raw token.
func (s *UserService) RotateRefreshToken(ctx context.Context, raw string, ttl time.Duration) (*models.User, string, error) {
	var u models.User
	var next string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rt models.RefreshToken
		if err := tx.Scopes(forUpdate).Where("token_hash = ?", hashToken(raw)).First(&rt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidCredentials
			}
			return translate(err, "refresh token")
		}
		if !rt.Usable(time.Now()) {
			return ErrInvalidCredentials
		}
		if err := tx.Preload("Role").First(&u, rt.UserID).Error; err != nil {
			return ErrInvalidCredentials
		}
		if !u.Ativo {
			return ErrInvalidCredentials
		}
		if err := tx.Model(&rt).Update("revoked", true).Error; err != nil {
			return translate(err, "refresh token")
		}
		var err error
		next, err = s.issueRefresh(tx, u.ID, ttl)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return &u, next, nil
}

// RevokeRefreshToken marks raw as revoked.
func (s *UserService) RevokeRefreshToken(ctx context.Context, raw string) error {
	res := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", hashToken(raw)).Update("revoked", true)
	if res.Error != nil {
		return translate(res.Error, "refresh token")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("refresh token: %w", ledger.ErrNotFound)
	}
	return nil
}

func (s *UserService) List(ctx context.Context, search string, p ledger.Page) ([]models.User, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	if search != "" {
		pat := likePattern(search)
		q = q.Where("LOWER(username) LIKE ? OR LOWER(nome) LIKE ?", pat, pat)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "users")
	}
	items := []models.User{}
	if err := q.Preload("Role").Scopes(paginate(p)).Order("username asc").Find(&items).Error; err != nil {
		return nil, 0, translate(err, "users")
	}
	return items, total, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Preload("Role").First(&u, id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

// Create adds a user. The role defaults to operador.
func (s *UserService) Create(ctx context.Context, in UserInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, validationf("username required")
	}
	hash, err := hashPassword(in.Senha)
	if err != nil {
		return nil, err
	}
	mods, err := checkModules(in.Modulos)
	if err != nil {
		return nil, err
	}
	roleName := in.Role
	if roleName == "" {
		roleName = models.RoleOperador
	}
	var u models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, err := s.roleByName(tx, roleName)
		if err != nil {
			return err
		}
		u = models.User{
			Username:       username,
			Nome:           strings.TrimSpace(in.Nome),
			HashedPassword: hash,
			RoleID:         &role.ID,
			Modulos:        mods,
			Ativo:          true,
		}
		if err := tx.Create(&u).Error; err != nil {
			return translate(err, "user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("user created", "id", u.ID, "username", u.Username, "role", roleName)
	return s.Get(ctx, u.ID)
}

// Update changes profile, role, modules or the active flag. actorID may not
// deactivate itself.
func (s *UserService) Update(ctx context.Context, actorID, id uint, in UserUpdate) (*models.User, error) {
	if in.Ativo != nil && !*in.Ativo && actorID == id {
		return nil, validationf("you cannot deactivate your own account")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.Scopes(forUpdate).First(&u, id).Error; err != nil {
			return translate(err, "user")
		}
		if in.Nome != nil {
			u.Nome = strings.TrimSpace(*in.Nome)
		}
		if in.Role != nil {
			role, err := s.roleByName(tx, *in.Role)
			if err != nil {
				return err
			}
			u.RoleID = &role.ID
		}
		if in.Modulos != nil {
			mods, err := checkModules(*in.Modulos)
			if err != nil {
				return err
			}
			u.Modulos = mods
		}
		if in.Ativo != nil {
			u.Ativo = *in.Ativo
		}
		u.Role = models.Role{}
		if err := tx.Omit("Role").Save(&u).Error; err != nil {
			return translate(err, "user")
		}
		if in.Ativo != nil && !u.Ativo {
			return revokeAll(tx, u.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Deactivate sets ativo=false and revokes the user's sessions.
func (s *UserService) Deactivate(ctx context.Context, actorID, id uint) error {
	f := false
	_, err := s.Update(ctx, actorID, id, UserUpdate{Ativo: &f})
	if err == nil {
		s.log.Info("user deactivated", "id", id, "by", actorID)
	}
	return err
}

func revokeAll(tx *gorm.DB, userID uint) error {
	return translate(tx.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).Update("revoked", true).Error, "refresh tokens")
}

// ResetPassword sets a new password and revokes every session of the user.
func (s *UserService) ResetPassword(ctx context.Context, id uint, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", id).Update("hashed_password", hash)
		if res.Error != nil {
			return translate(res.Error, "user")
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user %d: %w", id, ledger.ErrNotFound)
		}
		return revokeAll(tx, id)
	})
}

// ResetPasswordByUsername is the CLI variant of ResetPassword.
func (s *UserService) ResetPasswordByUsername(ctx context.Context, username, password string) error {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&u).Error; err != nil {
		return translate(err, "user")
	}
	return s.ResetPassword(ctx, u.ID, password)
}

// ChangePassword lets a user replace their own password after proving the
// current one.
func (s *UserService) ChangePassword(ctx context.Context, id uint, current, next string) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword(u.HashedPassword, []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	return s.ResetPassword(ctx, id, next)
}

// Seed makes sure the default roles and the admin account exist. It is
// idempotent.
func (s *UserService) Seed(ctx context.Context, adminPassword string) error {
	db := s.db.WithContext(ctx)
	for _, r := range models.DefaultRoles() {
		r := r
		if err := db.Where("name = ?", r.Name).FirstOrCreate(&r).Error; err != nil {
			return translate(err, "role "+r.Name)
		}
	}
	var n int64
	if err := db.Model(&models.User{}).Where("username = ?", "admin").Count(&n).Error; err != nil {
		return translate(err, "users")
	}
	if n > 0 {
		return nil
	}
	_, err := s.Create(ctx, UserInput{
		Username: "admin",
		Nome:     "Administrador",
		Senha:    adminPassword,
		Role:     models.RoleAdministrador,
		Modulos:  models.AllModules,
	})
	if err != nil {
		return err
	}
	s.log.Warn("seeded admin user, change its password", "username", "admin")
	return nil
}
