package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luvbricks/backend-store/internal/pricing"
)

// ErrProductNotFound indicates no product matched the lookup.
var ErrProductNotFound = errors.New("product not found")

// Product is a sellable set. The tier is derived from the price at read
// time so it can never drift from the classifier.
type Product struct {
	ID         string    `json:"id"`
	Slug       string    `json:"slug"`
	SetNumber  string    `json:"setNumber"`
	Name       string    `json:"name"`
	Theme      string    `json:"theme"`
	ImageURL   string    `json:"imageUrl"`
	PriceCents int64     `json:"priceCents"`
	WeightLb   float64   `json:"weightLb"`
	Tier       int       `json:"tier"`
	Stock      int       `json:"stock"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ListParams filters and pages the product listing.
type ListParams struct {
	Limit  int
	Offset int
	Tier   int
	Theme  string
}

// Service reads the product catalog from Postgres behind a Redis cache.
type Service struct {
	Pool         *pgxpool.Pool
	Cache        Cache
	Tiers        pricing.TierTable
	DefaultLimit int
	MaxLimit     int
}

// NewService constructs a catalog service with the production tier table.
func NewService(pool *pgxpool.Pool, cache Cache, defaultLimit, maxLimit int) *Service {
	return &Service{
		Pool:         pool,
		Cache:        cache,
		Tiers:        pricing.DefaultTierTable(),
		DefaultLimit: defaultLimit,
		MaxLimit:     maxLimit,
	}
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		if s.DefaultLimit > 0 {
			return s.DefaultLimit
		}
		return 24
	}
	if s.MaxLimit > 0 && limit > s.MaxLimit {
		return s.MaxLimit
	}
	return limit
}

// List pages the catalog. Results are cached per parameter combination.
func (s *Service) List(ctx context.Context, p ListParams) ([]Product, error) {
	p.Limit = s.clampLimit(p.Limit)
	if p.Offset < 0 {
		p.Offset = 0
	}

	key := listKey(p)
	var cached []Product
	if s.Cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	query := strings.Builder{}
	query.WriteString(
		`SELECT id, slug, set_number, name, COALESCE(theme, ''), COALESCE(image_url, ''),
			price_cents, weight_lb, stock, created_at
		 FROM products WHERE 1=1`)
	args := []any{}
	if p.Theme != "" {
		args = append(args, p.Theme)
		fmt.Fprintf(&query, " AND theme = $%d", len(args))
	}
	args = append(args, p.Limit, p.Offset)
	fmt.Fprintf(&query, " ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.Pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		prod, err := s.scanProduct(rows)
		if err != nil {
			return nil, err
		}
		if p.Tier > 0 && prod.Tier != p.Tier {
			continue
		}
		products = append(products, prod)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.Cache.SetJSON(ctx, key, products)
	return products, nil
}

// GetBySlug loads one product.
func (s *Service) GetBySlug(ctx context.Context, slug string) (Product, error) {
	key := "catalog:product:" + slug
	var cached Product
	if s.Cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	row := s.Pool.QueryRow(ctx,
		`SELECT id, slug, set_number, name, COALESCE(theme, ''), COALESCE(image_url, ''),
			price_cents, weight_lb, stock, created_at
		 FROM products WHERE slug = $1`, slug)
	prod, err := s.scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("slug %q: %w", slug, ErrProductNotFound)
	}
	if err != nil {
		return Product{}, err
	}

	s.Cache.SetJSON(ctx, key, prod)
	return prod, nil
}

// GetByID loads one product by identifier. Used when rebuilding carts
// from order history, so misses map to ErrProductNotFound rather than a
// scan error.
func (s *Service) GetByID(ctx context.Context, id string) (Product, error) {
	key := "catalog:product:id:" + id
	var cached Product
	if s.Cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	row := s.Pool.QueryRow(ctx,
		`SELECT id, slug, set_number, name, COALESCE(theme, ''), COALESCE(image_url, ''),
			price_cents, weight_lb, stock, created_at
		 FROM products WHERE id = $1`, id)
	prod, err := s.scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("id %q: %w", id, ErrProductNotFound)
	}
	if err != nil {
		return Product{}, err
	}

	s.Cache.SetJSON(ctx, key, prod)
	return prod, nil
}

type productScanner interface {
	Scan(dest ...any) error
}

func (s *Service) scanProduct(row productScanner) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Slug, &p.SetNumber, &p.Name, &p.Theme, &p.ImageURL,
		&p.PriceCents, &p.WeightLb, &p.Stock, &p.CreatedAt)
	if err != nil {
		return Product{}, err
	}
	tier, terr := s.Tiers.Classify(p.PriceCents)
	if terr == nil {
		p.Tier = int(tier)
	}
	return p, nil
}

func listKey(p ListParams) string {
	return "catalog:list:" + strconv.Itoa(p.Limit) + ":" + strconv.Itoa(p.Offset) +
		":" + strconv.Itoa(p.Tier) + ":" + p.Theme
}
