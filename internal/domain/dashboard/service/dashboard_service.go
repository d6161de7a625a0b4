package service

import (
	"context"
	"errors"
	"fmt"
	"food_delivery/internal/domain/dashboard/repository"
	storemodel "food_delivery/internal/domain/store/model"
	usermodel "food_delivery/internal/domain/user/model"
	"food_delivery/pkg/cache"
	"food_delivery/pkg/logger"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidRange = errors.New("invalid date range")
	ErrForbidden    = errors.New("no permission for this dashboard")
)

const (
	dateLayout      = "2006-01-02"
	defaultDays     = 30
	maxRange        = 366 * 24 * time.Hour
	topProductLimit = 10
	overviewTTL     = time.Minute
)

// StoreAuthorizer 校验门店管理权限
type StoreAuthorizer interface {
	Authorize(ctx context.Context, actor usermodel.Actor, storeID string) (*storemodel.Store, error)
}

// RangeQuery 日期为 YYYY-MM-DD，To 当天包含在内
type RangeQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

type Overview struct {
	StoreID     string                    `json:"storeId,omitempty"`
	From        string                    `json:"from"`
	To          string                    `json:"to"`
	Summary     *repository.Summary       `json:"summary"`
	ByStatus    []repository.StatusCount  `json:"byStatus"`
	TopProducts []repository.ProductSales `json:"topProducts"`
	Daily       []repository.DailySales   `json:"daily"`
}

type DashboardService interface {
	// Overview storeID 为空时仅管理员可查看全平台数据
	Overview(ctx context.Context, actor usermodel.Actor, storeID string, q RangeQuery) (*Overview, error)
}

type dashboardService struct {
	repo   repository.DashboardRepository
	stores StoreAuthorizer
	cache  cache.CacheService
	now    func() time.Time
}

func NewDashboardService(repo repository.DashboardRepository, stores StoreAuthorizer, c cache.CacheService) DashboardService {
	return &dashboardService{repo: repo, stores: stores, cache: c, now: time.Now}
}

func (s *dashboardService) Overview(ctx context.Context, actor usermodel.Actor, storeID string, q RangeQuery) (*Overview, error) {
	if storeID == "" && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if storeID != "" {
		if _, err := s.stores.Authorize(ctx, actor, storeID); err != nil {
			return nil, err
		}
	}
	r, err := s.parseRange(q)
	if err != nil {
		return nil, err
	}
	r.StoreID = storeID

	key := fmt.Sprintf("dashboard:%s:%s:%s", storeID, r.From.Format(dateLayout), r.To.Format(dateLayout))
	var cached Overview
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Log.Warn("dashboard cache get failed", zap.Error(err))
		}
	}

	out := &Overview{
		StoreID: storeID,
		From:    r.From.Format(dateLayout),
		To:      r.To.AddDate(0, 0, -1).Format(dateLayout),
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Summary, err = s.repo.Summary(gctx, r)
		return err
	})
	g.Go(func() (err error) {
		out.ByStatus, err = s.repo.OrdersByStatus(gctx, r)
		return err
	})
	g.Go(func() (err error) {
		out.TopProducts, err = s.repo.TopProducts(gctx, r, topProductLimit)
		return err
	})
	g.Go(func() (err error) {
		out.Daily, err = s.repo.DailySales(gctx, r)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, out, overviewTTL); err != nil {
			logger.Log.Warn("dashboard cache set failed", zap.Error(err))
		}
	}
	return out, nil
}

// parseRange 默认最近 30 天
func (s *dashboardService) parseRange(q RangeQuery) (repository.Range, error) {
	today := truncateDay(s.now())
	to := today.AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -defaultDays)

	if q.To != "" {
		t, err := time.ParseInLocation(dateLayout, q.To, time.UTC)
		if err != nil {
			return repository.Range{}, fmt.Errorf("%w: to", ErrInvalidRange)
		}
		to = t.AddDate(0, 0, 1)
		if q.From == "" {
			from = to.AddDate(0, 0, -defaultDays)
		}
	}
	if q.From != "" {
		f, err := time.ParseInLocation(dateLayout, q.From, time.UTC)
		if err != nil {
			return repository.Range{}, fmt.Errorf("%w: from", ErrInvalidRange)
		}
		from = f
	}
	if !from.Before(to) || to.Sub(from) > maxRange {
		return repository.Range{}, ErrInvalidRange
	}
	return repository.Range{From: from, To: to}, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
