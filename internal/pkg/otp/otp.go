package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"food_delivery/pkg/logger"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	codeTTL      = 5 * time.Minute
	resendWindow = time.Minute
	maxAttempts  = 5
)

var (
	ErrTooFrequent = errors.New("please wait before sending again")
	ErrInvalidCode = errors.New("invalid or expired code")
)

type OTPService interface {
	Send(ctx context.Context, mobile string) (string, error)
	Verify(ctx context.Context, mobile, code string) error
}

type otpService struct {
	rdb      *redis.Client
	testCode string
}

// NewOTPService testCode 非空时固定下发该验证码 (仅开发/测试环境)
func NewOTPService(rdb *redis.Client, testCode string) OTPService {
	return &otpService{rdb: rdb, testCode: testCode}
}

func codeKey(mobile string) string     { return fmt.Sprintf("otp:%s", mobile) }
func attemptsKey(mobile string) string { return fmt.Sprintf("otp:attempts:%s", mobile) }

// Send 生成验证码，Redis 中只保存 bcrypt 哈希
// 真实场景下应调用短信服务商接口，这里只打印到日志
func (s *otpService) Send(ctx context.Context, mobile string) (string, error) {
	key := codeKey(mobile)
	ttl, err := s.rdb.TTL(ctx, key).Result()
	if err == nil && ttl > codeTTL-resendWindow {
		return "", ErrTooFrequent
	}

	code := s.testCode
	if code == "" {
		if code, err = GenerateCode(6); err != nil {
			return "", err
		}
	}

	hash, err := HashCode(code)
	if err != nil {
		return "", err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key, hash, codeTTL)
	pipe.Del(ctx, attemptsKey(mobile))
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}

	logger.Log.Info("otp sent", zap.String("mobile", mobile))
	return code, nil
}

// Verify 验证成功后立即删除，防止重放；连续失败超过上限后作废
func (s *otpService) Verify(ctx context.Context, mobile, code string) error {
	key := codeKey(mobile)
	hash, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		return ErrInvalidCode
	}

	if !CompareCode(hash, code) {
		n, _ := s.rdb.Incr(ctx, attemptsKey(mobile)).Result()
		s.rdb.Expire(ctx, attemptsKey(mobile), codeTTL)
		if n >= maxAttempts {
			s.rdb.Del(ctx, key, attemptsKey(mobile))
		}
		return ErrInvalidCode
	}

	s.rdb.Del(ctx, key, attemptsKey(mobile))
	return nil
}

// GenerateCode 生成 n 位数字验证码
func GenerateCode(n int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, v), nil
}

func HashCode(code string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	return string(b), err
}

func CompareCode(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
