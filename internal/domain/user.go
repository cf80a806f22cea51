package domain

import (
	"context"
	"errors"
)

// User 领域对象（服务层返回给边界层）
type User struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	PasswordDigest string `json:"passwordDigest"`
	Version        int    `json:"version"`
}

// ErrDuplicateEmail 存储层唯一约束冲突
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository 记录存储能力。
// FindByID / FindByEmail 查不到时返回 (nil, nil)。
// UpdateVersioned 在当前 version != expected 时返回 (false, nil)，不报错。
type UserRepository interface {
	FindByID(ctx context.Context, id uint64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	UpdateVersioned(ctx context.Context, u *User, expected int) (bool, error)
	Delete(ctx context.Context, id uint64) (bool, error)
	List(ctx context.Context, offset, limit int) ([]User, int64, error)
}

// Hasher 单向加盐哈希
type Hasher interface {
	Hash(plain string) (string, error)
}
