// Package dashboard assembles the back-office landing summary.
package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/expertpos/expert-pos/internal/auth"
	"github.com/expertpos/expert-pos/internal/rbac"
	"github.com/expertpos/expert-pos/internal/sales"
	"github.com/expertpos/expert-pos/internal/shared"
)

// RecentLimit bounds the recent sales and session lists.
const RecentLimit = 5

// Totals is a count and sum over one ledger.
type Totals struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// Overview is the dashboard payload.
type Overview struct {
	Sales          Totals                `json:"sales"`
	Purchases      Totals                `json:"purchases"`
	ProductCount   int                   `json:"productCount"`
	RecentSales    []sales.Sale          `json:"recentSales"`
	RecentSessions []auth.SessionSummary `json:"recentSessions"`
	GeneratedAt    time.Time             `json:"generatedAt"`
}

// Store provides the aggregate queries.
type Store interface {
	SalesTotals(ctx context.Context) (Totals, error)
	PurchaseTotals(ctx context.Context) (Totals, error)
	ProductCount(ctx context.Context) (int, error)
}

// SalesFeed lists the newest sales.
type SalesFeed interface {
	RecentSales(ctx context.Context, limit int) ([]sales.Sale, error)
}

// SessionFeed lists the newest login sessions.
type SessionFeed interface {
	RecentSessions(ctx context.Context, limit int) ([]auth.SessionSummary, error)
}

// Service builds the overview.
type Service struct {
	store    Store
	sales    SalesFeed
	sessions SessionFeed
	now      func() time.Time
}

// NewService constructs Service.
func NewService(store Store, sales SalesFeed, sessions SessionFeed) *Service {
	return &Service{store: store, sales: sales, sessions: sessions, now: time.Now}
}

// Overview runs every query concurrently and fails if any of them fails. Recent
// sales are only loaded for actors allowed to view sales.
func (s *Service) Overview(ctx context.Context, actor *rbac.Principal) (Overview, error) {
	if actor == nil {
		return Overview{}, shared.ErrUnauthenticated
	}
	var out Overview
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		totals, err := s.store.SalesTotals(ctx)
		if err != nil {
			return err
		}
		out.Sales = totals
		return nil
	})

	g.Go(func() error {
		totals, err := s.store.PurchaseTotals(ctx)
		if err != nil {
			return err
		}
		out.Purchases = totals
		return nil
	})

	g.Go(func() error {
		count, err := s.store.ProductCount(ctx)
		if err != nil {
			return err
		}
		out.ProductCount = count
		return nil
	})

	if actor.Can(rbac.PermViewSales) {
		g.Go(func() error {
			recent, err := s.sales.RecentSales(ctx, RecentLimit)
			if err != nil {
				return err
			}
			out.RecentSales = recent
			return nil
		})
	}

	g.Go(func() error {
		recent, err := s.sessions.RecentSessions(ctx, RecentLimit)
		if err != nil {
			return err
		}
		out.RecentSessions = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	if out.RecentSales == nil {
		out.RecentSales = []sales.Sale{}
	}
	if out.RecentSessions == nil {
		out.RecentSessions = []auth.SessionSummary{}
	}
	out.GeneratedAt = s.now().UTC()
	return out, nil
}
