package validation

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// Register 将自定义规则注册到 gin 的默认校验器 (cpf, luhn, card_expiry, br_mobile)
func Register() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			RegisterOn(v)
		}
	})
}

// RegisterOn 注册到指定校验器
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return ValidCPF(fl.Field().String())
	})
	_ = v.RegisterValidation("luhn", func(fl validator.FieldLevel) bool {
		return ValidLuhn(fl.Field().String())
	})
	_ = v.RegisterValidation("card_expiry", func(fl validator.FieldLevel) bool {
		return ValidExpiry(fl.Field().String(), time.Now())
	})
	_ = v.RegisterValidation("br_mobile", func(fl validator.FieldLevel) bool {
		return ValidMobile(fl.Field().String())
	})
}

// Digits 去掉所有非数字字符
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCPF 校验巴西个人税号 (11 位，两位校验码)
func ValidCPF(s string) bool {
	d := Digits(s)
	if len(d) != 11 {
		return false
	}
	if strings.Count(d, d[:1]) == 11 {
		return false
	}
	for check := 9; check <= 10; check++ {
		sum := 0
		for i := 0; i < check; i++ {
			sum += int(d[i]-'0') * (check + 1 - i)
		}
		rem := (sum * 10) % 11
		if rem == 10 {
			rem = 0
		}
		if rem != int(d[check]-'0') {
			return false
		}
	}
	return true
}

// ValidLuhn 卡号 Luhn 校验，长度 12-19
func ValidLuhn(s string) bool {
	d := Digits(s)
	if len(d) < 12 || len(d) > 19 || len(d) != len(strings.ReplaceAll(s, " ", "")) {
		return false
	}
	sum := 0
	double := false
	for i := len(d) - 1; i >= 0; i-- {
		n := int(d[i] - '0')
		if double {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		double = !double
	}
	return sum%10 == 0
}

// ValidExpiry 校验 MM/YY 或 MM/YYYY，当月仍然有效
func ValidExpiry(s string, now time.Time) bool {
	month, year, ok := ParseExpiry(s)
	if !ok {
		return false
	}
	cy, cm := now.Year(), int(now.Month())
	return year > cy || (year == cy && month >= cm)
}

// ParseExpiry 解析有效期
func ParseExpiry(s string) (month, year int, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[0])
	if err != nil || m < 1 || m > 12 {
		return 0, 0, false
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	switch len(parts[1]) {
	case 2:
		y += 2000
	case 4:
	default:
		return 0, 0, false
	}
	return m, y, true
}

// ValidMobile 巴西手机号: 国家码可选，DDD 两位 + 9 位号码
func ValidMobile(s string) bool {
	d := Digits(s)
	if strings.HasPrefix(d, "55") && len(d) == 13 {
		d = d[2:]
	}
	return len(d) == 11 && d[2] == '9' && d[0] != '0'
}
