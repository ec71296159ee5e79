package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lpScope/internal/model"
)

//go:embed schema.sql
var schema string

// Addresses are stored lower-case so lookups hit the primary key regardless
// of the checksum casing callers use.
const (
	upsertPoolSQL = `
		INSERT INTO pools (
			chain_id, pool_address, token0, token1, fee, tick_spacing, first_seen_block, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, to_timestamp($8), now())
		ON CONFLICT (chain_id, pool_address)
		DO UPDATE SET
			token0 = EXCLUDED.token0,
			token1 = EXCLUDED.token1,
			fee = EXCLUDED.fee,
			tick_spacing = EXCLUDED.tick_spacing,
			first_seen_block = LEAST(pools.first_seen_block, EXCLUDED.first_seen_block),
			created_at = LEAST(pools.created_at, EXCLUDED.created_at),
			updated_at = now()`

	findPoolSQL = `
		SELECT token0, token1, fee, tick_spacing, first_seen_block, extract(epoch FROM created_at)::bigint
		FROM pools
		WHERE chain_id = $1 AND pool_address = $2
		  AND ($3::bigint IS NULL OR first_seen_block <= $3)`

	loadStateSQL = `SELECT last_processed_block FROM indexer_state WHERE name = $1`

	saveStateSQL = `
		INSERT INTO indexer_state (name, last_processed_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_block = EXCLUDED.last_processed_block, updated_at = now()`
)

// Store keeps the pool registry and populate progress in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects and pings the database.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the registry tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// PutPoolBatch implements storage.Storage.
func (s *Store) PutPoolBatch(ctx context.Context, pools []model.Pool) error {
	return s.UpsertPools(ctx, pools)
}

// UpsertPools writes pool rows in one round trip. A pool seen again keeps its
// earliest first_seen_block.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(upsertPoolSQL,
			int64(pool.ChainID),
			strings.ToLower(pool.Address),
			strings.ToLower(pool.Token0),
			strings.ToLower(pool.Token1),
			int32(pool.Fee),
			pool.TickSpacing,
			int64(pool.FirstSeenBlock),
			int64(pool.CreatedAt),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	for _, pool := range pools {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("upsert pool %s: %w", pool.Address, err)
		}
	}
	return br.Close()
}

// FindPool returns the stored row for a pool. Pools first seen after block
// are treated as absent; a nil block means no bound.
func (s *Store) FindPool(ctx context.Context, chainID uint64, address common.Address, block *big.Int) (model.Pool, error) {
	var maxBlock *int64
	if block != nil && block.IsInt64() {
		b := block.Int64()
		maxBlock = &b
	}

	var (
		token0, token1 string
		fee            int32
		tickSpacing    int32
		firstSeen      int64
		createdAt      int64
	)
	err := s.pool.QueryRow(ctx, findPoolSQL, int64(chainID), strings.ToLower(address.Hex()), maxBlock).
		Scan(&token0, &token1, &fee, &tickSpacing, &firstSeen, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Pool{}, fmt.Errorf("pool %s: %w", address.Hex(), model.ErrNotFound)
	}
	if err != nil {
		return model.Pool{}, fmt.Errorf("query pool %s: %w", address.Hex(), err)
	}

	return model.Pool{
		ChainID:        chainID,
		Address:        address.Hex(),
		Token0:         common.HexToAddress(token0).Hex(),
		Token1:         common.HexToAddress(token1).Hex(),
		Fee:            uint32(fee),
		TickSpacing:    tickSpacing,
		FirstSeenBlock: uint64(firstSeen),
		CreatedAt:      uint64(createdAt),
	}, nil
}

// LoadState returns the last processed block saved under name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, errors.New("state name required")
	}
	var block int64
	err := s.pool.QueryRow(ctx, loadStateSQL, name).Scan(&block)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load state %s: %w", name, err)
	}
	return uint64(block), true, nil
}

// SaveState records block as the last processed block for name.
func (s *Store) SaveState(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return errors.New("state name required")
	}
	if _, err := s.pool.Exec(ctx, saveStateSQL, name, int64(block)); err != nil {
		return fmt.Errorf("save state %s: %w", name, err)
	}
	return nil
}
