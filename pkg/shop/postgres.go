package shop

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pgRepository implements Repository backed by PostgreSQL.
type pgRepository struct {
	dbPool *pgxpool.Pool
	log    *zap.SugaredLogger
}

// NewPostgresRepository constructs a PostgreSQL-backed shop repository.
func NewPostgresRepository(dbPool *pgxpool.Pool, log *zap.SugaredLogger) Repository {
	return &pgRepository{dbPool: dbPool, log: log}
}

// EnsureSchema creates the shops table if it does not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS shops (
  id text PRIMARY KEY,
  url text NOT NULL,
  secret text NOT NULL,
  client_id text,
  client_secret text,
  active boolean NOT NULL DEFAULT false,
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
ALTER TABLE shops ADD COLUMN IF NOT EXISTS active boolean NOT NULL DEFAULT false;
ALTER TABLE shops ADD COLUMN IF NOT EXISTS updated_at timestamptz NOT NULL DEFAULT NOW();
`)
	return err
}

func (r *pgRepository) CreateShop(ctx context.Context, id, url, secret string) error {
	_, err := r.dbPool.Exec(ctx, `INSERT INTO shops(id,url,secret,active)
	  VALUES ($1,$2,$3,false)
	  ON CONFLICT (id) DO UPDATE SET url=EXCLUDED.url,secret=EXCLUDED.secret,active=false,client_id=NULL,client_secret=NULL,updated_at=NOW()`,
		id, url, secret)
	return err
}

func (r *pgRepository) GetShopByID(ctx context.Context, id string) (Shop, error) {
	row := r.dbPool.QueryRow(ctx, `SELECT id,url,secret,COALESCE(client_id,''),COALESCE(client_secret,''),active FROM shops WHERE id=$1`, id)
	var s SimpleShop
	if err := row.Scan(&s.ID, &s.URL, &s.Secret, &s.OAuthID, &s.OAuthSecret, &s.IsActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *pgRepository) UpdateShop(ctx context.Context, s Shop) error {
	_, err := r.dbPool.Exec(ctx, `UPDATE shops SET url=$2,secret=$3,client_id=NULLIF($4,''),client_secret=NULLIF($5,''),active=$6,updated_at=NOW() WHERE id=$1`,
		s.ShopID(), s.ShopURL(), s.ShopSecret(), s.ClientID(), s.ClientSecret(), s.Active())
	return err
}

func (r *pgRepository) DeleteShop(ctx context.Context, id string) error {
	_, err := r.dbPool.Exec(ctx, `DELETE FROM shops WHERE id=$1`, id)
	return err
}
