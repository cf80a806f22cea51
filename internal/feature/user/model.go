package user

import (
	"time"

	"user-account-service/internal/domain"
)

// UserModel users 表（物理删除，不做软删）
type UserModel struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Name         string `gorm:"size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `gorm:"size:100;not null"`
	Version      int    `gorm:"not null;default:0"` // 乐观锁

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string { return "users" }

func (m *UserModel) ToDomain() *domain.User {
	return &domain.User{
		ID:             m.ID,
		Name:           m.Name,
		Email:          m.Email,
		PasswordDigest: m.PasswordHash,
		Version:        m.Version,
	}
}

func FromDomain(u *domain.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordDigest,
		Version:      u.Version,
	}
}
