package service

import (
	"context"
	"errors"
	"fmt"
	"food_delivery/internal/domain/ai/client"
	dashservice "food_delivery/internal/domain/dashboard/service"
	storemodel "food_delivery/internal/domain/store/model"
	usermodel "food_delivery/internal/domain/user/model"
	"food_delivery/pkg/logger"
	"food_delivery/pkg/money"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrUnavailable  = errors.New("ai assistant unavailable")
	ErrRateLimited  = errors.New("too many ai requests, try again later")
	ErrInvalidInput = errors.New("invalid ai request")
)

const (
	hourlyLimit  = 30
	systemPrompt = "Você é um assistente de um aplicativo de delivery de comida no Brasil. " +
		"Responda sempre em português do Brasil, de forma objetiva."
)

type Streamer interface {
	Stream(ctx context.Context, messages []client.Message, onDelta func(string) error) error
}

type StoreAuthorizer interface {
	Authorize(ctx context.Context, actor usermodel.Actor, storeID string) (*storemodel.Store, error)
}

type DescribeInput struct {
	Name       string   `json:"name" binding:"required,max=128"`
	Category   string   `json:"category" binding:"max=64"`
	Highlights []string `json:"highlights" binding:"max=10,dive,max=80"`
}

type AIService interface {
	// DescribeProduct 生成商品描述
	DescribeProduct(ctx context.Context, actor usermodel.Actor, storeID string, in DescribeInput, onDelta func(string) error) error
	// Insights 根据报表数据生成经营建议
	Insights(ctx context.Context, actor usermodel.Actor, storeID string, q dashservice.RangeQuery, onDelta func(string) error) error
}

type aiService struct {
	llm       Streamer
	stores    StoreAuthorizer
	dashboard dashservice.DashboardService
	rdb       *redis.Client
}

// NewAIService llm 为 nil 时所有请求返回 ErrUnavailable；dashboard 为 nil 时不提供经营建议
func NewAIService(llm Streamer, stores StoreAuthorizer, dashboard dashservice.DashboardService, rdb *redis.Client) AIService {
	return &aiService{llm: llm, stores: stores, dashboard: dashboard, rdb: rdb}
}

func (s *aiService) DescribeProduct(ctx context.Context, actor usermodel.Actor, storeID string, in DescribeInput, onDelta func(string) error) error {
	if s.llm == nil {
		return ErrUnavailable
	}
	if strings.TrimSpace(in.Name) == "" {
		return ErrInvalidInput
	}
	store, err := s.stores.Authorize(ctx, actor, storeID)
	if err != nil {
		return err
	}
	if err := s.allow(ctx, actor.UserID); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Escreva uma descrição curta (até 300 caracteres) e apetitosa para o produto %q do restaurante %q.", in.Name, store.Name)
	if in.Category != "" {
		fmt.Fprintf(&b, " Categoria: %s.", in.Category)
	}
	if len(in.Highlights) > 0 {
		fmt.Fprintf(&b, " Destaques: %s.", strings.Join(in.Highlights, ", "))
	}
	b.WriteString(" Não invente ingredientes que não foram mencionados.")

	return s.stream(ctx, b.String(), onDelta)
}

func (s *aiService) Insights(ctx context.Context, actor usermodel.Actor, storeID string, q dashservice.RangeQuery, onDelta func(string) error) error {
	if s.llm == nil || s.dashboard == nil {
		return ErrUnavailable
	}
	overview, err := s.dashboard.Overview(ctx, actor, storeID, q)
	if err != nil {
		return err
	}
	if err := s.allow(ctx, actor.UserID); err != nil {
		return err
	}
	return s.stream(ctx, insightsPrompt(overview), onDelta)
}

func insightsPrompt(o *dashservice.Overview) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dados de vendas de %s a %s:\n", o.From, o.To)
	if o.Summary != nil {
		fmt.Fprintf(&b, "- Pedidos: %d (pagos: %d, cancelados: %d)\n", o.Summary.Orders, o.Summary.PaidOrders, o.Summary.Cancelled)
		fmt.Fprintf(&b, "- Faturamento: %s, ticket médio: %s\n", money.Format(o.Summary.Revenue), money.Format(o.Summary.AverageTicket))
	}
	for _, sc := range o.ByStatus {
		fmt.Fprintf(&b, "- %s: %d\n", sc.Label, sc.Count)
	}
	if len(o.TopProducts) > 0 {
		b.WriteString("Produtos mais vendidos:\n")
		for _, p := range o.TopProducts {
			fmt.Fprintf(&b, "- %s: %d unidades, %s\n", p.Name, p.Quantity, money.Format(p.Revenue))
		}
	}
	b.WriteString("Com base nesses números, sugira três ações práticas para aumentar as vendas e reduzir cancelamentos.")
	return b.String()
}

func (s *aiService) stream(ctx context.Context, prompt string, onDelta func(string) error) error {
	start := time.Now()
	err := s.llm.Stream(ctx, []client.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}, onDelta)
	if err != nil {
		logger.Log.Warn("ai stream failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// allow 每用户每小时限额，Redis 不可用时放行
func (s *aiService) allow(ctx context.Context, userID string) error {
	if s.rdb == nil {
		return nil
	}
	key := fmt.Sprintf("ai:quota:%s:%s", userID, time.Now().UTC().Format("2006010215"))
	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Log.Warn("ai quota check failed", zap.Error(err))
		return nil
	}
	if incr.Val() > hourlyLimit {
		return ErrRateLimited
	}
	return nil
}
