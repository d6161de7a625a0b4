package service

import (
	"context"
	"errors"
	"food_delivery/internal/domain/ai/client"
	"food_delivery/internal/domain/dashboard/repository"
	dashservice "food_delivery/internal/domain/dashboard/service"
	storemodel "food_delivery/internal/domain/store/model"
	usermodel "food_delivery/internal/domain/user/model"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var owner = usermodel.Actor{UserID: "o1", Role: usermodel.RoleStoreOwner}

var errForbidden = errors.New("forbidden")

type fakeLLM struct {
	messages []client.Message
	err      error
}

func (f *fakeLLM) Stream(ctx context.Context, messages []client.Message, onDelta func(string) error) error {
	f.messages = messages
	if f.err != nil {
		return f.err
	}
	for _, d := range []string{"Suculento ", "e crocante."} {
		if err := onDelta(d); err != nil {
			return err
		}
	}
	return nil
}

type fakeStores struct{}

func (fakeStores) Authorize(ctx context.Context, actor usermodel.Actor, storeID string) (*storemodel.Store, error) {
	if storeID != "s1" {
		return nil, errForbidden
	}
	return &storemodel.Store{Name: "Burger House"}, nil
}

type fakeDashboard struct{}

func (fakeDashboard) Overview(ctx context.Context, actor usermodel.Actor, storeID string, q dashservice.RangeQuery) (*dashservice.Overview, error) {
	return &dashservice.Overview{
		From: "2026-05-01",
		To:   "2026-05-31",
		Summary: &repository.Summary{
			Orders: 40, PaidOrders: 35, Cancelled: 5,
			Revenue: decimal.RequireFromString("1575"), AverageTicket: decimal.RequireFromString("45"),
		},
		TopProducts: []repository.ProductSales{{Name: "X-Burger", Quantity: 50, Revenue: decimal.RequireFromString("925")}},
	}, nil
}

func collect(out *strings.Builder) func(string) error {
	return func(d string) error {
		out.WriteString(d)
		return nil
	}
}

func TestDescribeProduct(t *testing.T) {
	llm := &fakeLLM{}
	s := NewAIService(llm, fakeStores{}, nil, nil)

	var out strings.Builder
	err := s.DescribeProduct(context.Background(), owner, "s1", DescribeInput{Name: "X-Burger", Highlights: []string{"pão brioche"}}, collect(&out))
	require.NoError(t, err)
	assert.Equal(t, "Suculento e crocante.", out.String())
	require.Len(t, llm.messages, 2)
	assert.Equal(t, "system", llm.messages[0].Role)
	assert.Contains(t, llm.messages[1].Content, `"X-Burger"`)
	assert.Contains(t, llm.messages[1].Content, "Burger House")
	assert.Contains(t, llm.messages[1].Content, "pão brioche")

	err = s.DescribeProduct(context.Background(), owner, "s2", DescribeInput{Name: "X"}, collect(&out))
	assert.ErrorIs(t, err, errForbidden)
}

func TestInsightsPromptCarriesFigures(t *testing.T) {
	llm := &fakeLLM{}
	s := NewAIService(llm, fakeStores{}, fakeDashboard{}, nil)

	var out strings.Builder
	require.NoError(t, s.Insights(context.Background(), owner, "s1", dashservice.RangeQuery{}, collect(&out)))
	prompt := llm.messages[1].Content
	assert.Contains(t, prompt, "Pedidos: 40")
	assert.Contains(t, prompt, "R$ 1575,00")
	assert.Contains(t, prompt, "X-Burger: 50 unidades")
}

func TestUnavailable(t *testing.T) {
	s := NewAIService(nil, fakeStores{}, nil, nil)
	err := s.DescribeProduct(context.Background(), owner, "s1", DescribeInput{Name: "X"}, func(string) error { return nil })
	assert.ErrorIs(t, err, ErrUnavailable)

	s = NewAIService(&fakeLLM{err: errors.New("boom")}, fakeStores{}, nil, nil)
	err = s.DescribeProduct(context.Background(), owner, "s1", DescribeInput{Name: "X"}, func(string) error { return nil })
	assert.ErrorIs(t, err, ErrUnavailable)

	err = s.Insights(context.Background(), owner, "s1", dashservice.RangeQuery{}, func(string) error { return nil })
	assert.ErrorIs(t, err, ErrUnavailable)
}
