package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Validator 基于国际号码规划的可行性校验（只判断号码结构是否可能存在，不校验是否在用）
type Validator struct {
	defaultRegion string
}

// NewValidator defaultRegion 为空时号码必须带 + 国家码
func NewValidator(defaultRegion string) *Validator {
	return &Validator{defaultRegion: strings.ToUpper(defaultRegion)}
}

// IsFeasible 无法解析的号码视为不可行
func (v *Validator) IsFeasible(number string) bool {
	number = strings.TrimSpace(number)
	if number == "" {
		return false
	}
	parsed, err := phonenumbers.Parse(number, v.defaultRegion)
	if err != nil {
		return false
	}
	return phonenumbers.IsPossibleNumber(parsed)
}
