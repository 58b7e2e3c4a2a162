package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MaxLength bcrypt 只使用前 72 字节
const MaxLength = 72

// ErrPasswordTooLong 密码超过 MaxLength 字节
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// Hasher 无状态的密码哈希服务，启动时创建一次后注入各调用方
type Hasher struct {
	cost int
}

// NewHasher 创建哈希服务，cost 非法时使用 bcrypt.DefaultCost
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash 生成密码哈希，盐值内嵌在结果中
// 超过 MaxLength 字节的输入返回 ErrPasswordTooLong，其余错误只可能来自随机数源
func (h *Hasher) Hash(plain string) (string, error) {
	if len(plain) > MaxLength {
		return "", ErrPasswordTooLong
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify 校验密码
func (h *Hasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
