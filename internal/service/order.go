package service

import (
	"checkout-builder/internal/model"
	"checkout-builder/internal/repository"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// statsDays is how many of the most recent days with orders Stats reports.
const statsDays = 7

type OrderService interface {
	// Create records a paid checkout. It assigns the id, order number,
	// creation time and payment status.
	Create(ctx context.Context, order *model.Order) (*model.Order, error)
	List(ctx context.Context, merchantID string) ([]*model.Order, error)
	ListSince(ctx context.Context, merchantID string, since time.Time) ([]*model.Order, error)
	Stats(ctx context.Context, merchantID string) (*model.OrderStats, error)
}

type orderServiceImpl struct {
	orderRepo repository.OrderRepository
	logger    *slog.Logger
	now       func() time.Time
}

func NewOrderService(orderRepo repository.OrderRepository, logger *slog.Logger) OrderService {
	return &orderServiceImpl{
		orderRepo: orderRepo,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *orderServiceImpl) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	now := s.now()

	order.ID = uuid.NewString()
	order.OrderNumber = orderNumber(now)
	order.CreatedAt = now
	order.PaymentStatus = model.PaymentPaid

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"merchant_id", order.MerchantID,
		"total", order.TotalAmount.String(),
	)
	return order, nil
}

// orderNumber is ORD- followed by the last six digits of the unix millis.
func orderNumber(t time.Time) string {
	return fmt.Sprintf("ORD-%06d", t.UnixMilli()%1_000_000)
}

func (s *orderServiceImpl) List(ctx context.Context, merchantID string) ([]*model.Order, error) {
	orders, err := s.orderRepo.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *orderServiceImpl) ListSince(ctx context.Context, merchantID string, since time.Time) ([]*model.Order, error) {
	orders, err := s.orderRepo.ListSince(ctx, merchantID, since)
	if err != nil {
		return nil, fmt.Errorf("list orders since %s: %w", since.Format(time.RFC3339), err)
	}
	return orders, nil
}

func (s *orderServiceImpl) Stats(ctx context.Context, merchantID string) (*model.OrderStats, error) {
	orders, err := s.List(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	return ComputeStats(orders), nil
}

// ComputeStats totals orders and groups revenue per calendar day, keeping the
// latest days that had orders.
func ComputeStats(orders []*model.Order) *model.OrderStats {
	stats := &model.OrderStats{
		Revenue:      decimal.Zero,
		AverageValue: decimal.Zero,
		Daily:        []model.DailyRevenue{},
	}

	perDay := map[string]decimal.Decimal{}
	for _, o := range orders {
		stats.Revenue = stats.Revenue.Add(o.TotalAmount)
		stats.OrderCount++

		day := o.CreatedAt.Format(time.DateOnly)
		perDay[day] = perDay[day].Add(o.TotalAmount)
	}

	if stats.OrderCount > 0 {
		stats.AverageValue = stats.Revenue.DivRound(decimal.NewFromInt(stats.OrderCount), 2)
	}

	days := make([]string, 0, len(perDay))
	for day := range perDay {
		days = append(days, day)
	}
	sort.Strings(days)
	if len(days) > statsDays {
		days = days[len(days)-statsDays:]
	}
	for _, day := range days {
		stats.Daily = append(stats.Daily, model.DailyRevenue{Date: day, Amount: perDay[day]})
	}

	return stats
}
