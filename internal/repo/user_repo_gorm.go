package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"user-account-service/internal/domain"
	"user-account-service/internal/feature/user"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	m := user.FromDomain(u)
	m.ID = 0
	m.Version = 0
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isDupKey(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = m.ID
	u.Version = m.Version
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id uint64) (*domain.User, error) {
	var m user.UserModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return m.ToDomain(), nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m user.UserModel
	err := r.db.WithContext(ctx).First(&m, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return m.ToDomain(), nil
}

// UpdateVersioned 单条 UPDATE ... WHERE id = ? AND version = ?，
// 影响行数为 0 即版本不匹配（或记录已被删除）。
func (r *UserRepo) UpdateVersioned(ctx context.Context, u *domain.User, expected int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&user.UserModel{}).
		Where("id = ? AND version = ?", u.ID, expected).
		Updates(map[string]any{
			"name":          u.Name,
			"email":         u.Email,
			"password_hash": u.PasswordDigest,
			"version":       gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		if isDupKey(res.Error) {
			return false, domain.ErrDuplicateEmail
		}
		return false, fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	u.Version = expected + 1
	return true, nil
}

func (r *UserRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&user.UserModel{})
	if res.Error != nil {
		return false, fmt.Errorf("delete user: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// List 按插入顺序（id 升序）分页；total 为全表计数
func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]domain.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&user.UserModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	var ms []user.UserModel
	if err := r.db.WithContext(ctx).Order("id asc").Offset(offset).Limit(limit).Find(&ms).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	users := make([]domain.User, 0, len(ms))
	for i := range ms {
		users = append(users, *ms[i].ToDomain())
	}
	return users, total, nil
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// 驱动未做错误翻译时兜底
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
