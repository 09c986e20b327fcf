package store

import (
	"context"
	"fmt"
	"log"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverDynamo   = "dynamodb"
)

// Options selects and configures a Backend.
type Options struct {
	Driver      string
	DatabaseURL string
	DynamoTable string
}

// Open connects the configured backend. The returned close func is never nil.
func Open(ctx context.Context, opts Options) (Backend, func() error, error) {
	noop := func() error { return nil }

	switch opts.Driver {
	case DriverPostgres:
		db, err := ConnectPostgres(opts.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		ps, err := NewPostgresStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, noop, err
		}
		log.Println("[Store] Using PostgreSQL backend")
		return ps, db.Close, nil

	case DriverDynamo:
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to load AWS config: %w", err)
		}
		log.Printf("[Store] Using DynamoDB backend (table %s)", opts.DynamoTable)
		return NewDynamoStore(dynamodb.NewFromConfig(cfg), opts.DynamoTable), noop, nil

	case DriverMemory, "":
		log.Println("[Store] Using in-memory backend")
		return NewMemoryStore(), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown store driver %q", opts.Driver)
}
