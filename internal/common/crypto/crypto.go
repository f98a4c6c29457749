// Package crypto 提供密码哈希与脱敏工具
package crypto

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong bcrypt 仅支持 72 字节以内的密码
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// Hasher bcrypt 密码哈希器
type Hasher struct {
	cost int
}

// NewHasher 创建哈希器，cost 超出范围时使用默认值
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Cost 返回哈希成本
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash 对密码进行哈希
func (h *Hasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", err
	}
	return string(bytes), nil
}

// Verify 验证密码
func (h *Hasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// MaskEmail 邮箱脱敏，用于日志
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at < 1 {
		return "***"
	}
	if at <= 2 {
		return email[:1] + "***" + email[at:]
	}
	return email[:2] + "***" + email[at:]
}
