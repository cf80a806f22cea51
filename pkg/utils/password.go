package utils

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost 与线上部署保持一致
const DefaultBcryptCost = 5

// MaxPasswordBytes bcrypt 只接受 72 字节以内的明文
const MaxPasswordBytes = 72

// BcryptHasher 每次调用随机盐，同一明文两次结果不同
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
