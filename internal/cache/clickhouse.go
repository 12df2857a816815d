package cache

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/a2a-swap/internal/models"
)

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

// ClickHouseStore is the conversion audit sink.
type ClickHouseStore struct {
	conn driver.Conn
}

const createConversionsTable = `
	CREATE TABLE IF NOT EXISTS conversions (
		request_id     String,
		timestamp      DateTime64(3),
		agent          String,
		pool           String,
		mint_in        String,
		mint_out       String,
		amount_in      UInt64,
		estimated_out  UInt64,
		min_amount_out UInt64,
		a_to_b         Bool,
		payment_tx     String
	) ENGINE = MergeTree ORDER BY (timestamp, pool)
`

func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig, logger *logrus.Logger) (*ClickHouseStore, error) {
	if cfg.Database == "" {
		cfg.Database = "a2a"
	}
	if cfg.Username == "" {
		cfg.Username = "default"
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	if err := conn.Exec(ctx, createConversionsTable); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create conversions table: %w", err)
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{"addr": cfg.Addr, "database": cfg.Database}).Info("connected to ClickHouse")
	}
	return &ClickHouseStore{conn: conn}, nil
}

func (c *ClickHouseStore) InsertConversion(ctx context.Context, a *models.ConversionAudit) error {
	query := `
		INSERT INTO conversions (
			request_id, timestamp, agent, pool, mint_in, mint_out,
			amount_in, estimated_out, min_amount_out, a_to_b, payment_tx
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		a.RequestID,
		a.Timestamp,
		a.Agent,
		a.Pool,
		a.MintIn,
		a.MintOut,
		a.AmountIn,
		a.EstimatedOut,
		a.MinAmountOut,
		a.AToB,
		a.PaymentTx,
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversion: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
