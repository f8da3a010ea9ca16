package graphdb

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// NewNeo4jClient establishes a Bolt connection using the official Neo4j driver.
// Neptune's openCypher endpoint speaks Bolt too, so the same client serves
// both.
func NewNeo4jClient(ctx context.Context, opts Options, logger *zap.Logger) (Client, error) {
	if opts.URI == "" {
		return nil, ErrMissingURI
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, auth, func(c *neo4j.Config) {
		if opts.MaxConnections > 0 {
			c.MaxConnectionPoolSize = opts.MaxConnections
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}

	logger.Info("connected to graph database", zap.String("uri", opts.URI), zap.String("database", opts.Database))
	return &neo4jClient{
		driver: driver,
		opts:   opts,
		logger: logger.Named("graphdb"),
	}, nil
}

type neo4jClient struct {
	driver neo4j.DriverWithContext
	opts   Options
	logger *zap.Logger
}

// Query runs cypher inside a managed read transaction so transient cluster
// errors are retried by the driver.
func (c *neo4jClient) Query(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	if c.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.QueryTimeout)
		defer cancel()
	}

	sessionCfg := neo4j.SessionConfig{
		DatabaseName: c.opts.Database,
		AccessMode:   neo4j.AccessModeRead,
	}
	if c.opts.FetchSize > 0 {
		sessionCfg.FetchSize = c.opts.FetchSize
	}
	session := c.driver.NewSession(ctx, sessionCfg)
	defer session.Close(ctx)

	records, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) ([]Record, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return consumeResult(ctx, res)
	})
	if err != nil {
		return Result{}, err
	}
	c.logger.Debug("graph query", zap.Int("records", len(records)))
	return Result{Records: records}, nil
}

func (c *neo4jClient) VerifyConnectivity(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

func (c *neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func consumeResult(ctx context.Context, res neo4j.ResultWithContext) ([]Record, error) {
	var records []Record
	for res.Next(ctx) {
		rec := res.Record()
		record := make(Record, len(rec.Keys))
		for _, key := range rec.Keys {
			value, _ := rec.Get(key)
			record[key] = value
		}
		records = append(records, record)
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
