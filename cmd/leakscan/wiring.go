package main

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/bryanwahyu/leakscan/internal/config"
	"github.com/bryanwahyu/leakscan/internal/domain/ai"
	"github.com/bryanwahyu/leakscan/internal/domain/scanerrors"
	domain "github.com/bryanwahyu/leakscan/internal/domain/scans"
	"github.com/bryanwahyu/leakscan/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/leakscan/internal/infra/db/mysql"
	"github.com/bryanwahyu/leakscan/internal/infra/db/postgres"
	minioStore "github.com/bryanwahyu/leakscan/internal/infra/storage"
)

// integrations holds the optional collaborators enabled by config.
type integrations struct {
	db     *sql.DB
	scans  domain.Repository
	errors scanerrors.Repository
	store  domain.ArtifactStore
	triage ai.Client
}

func (i *integrations) Close() {
	if i.db != nil {
		i.db.Close()
	}
}

// connect opens every configured integration. With strict unset a failing
// integration is logged and left disabled.
func connect(ctx context.Context, cfg *config.Config, log *zap.Logger, strict bool) (*integrations, error) {
	in := &integrations{}

	fail := func(what string, err error) error {
		if strict {
			return fmt.Errorf("%s: %w", what, err)
		}
		log.Warn(what+" disabled", zap.Error(err))
		return nil
	}

	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err == nil {
			err = mysqlp.Migrate(ctx, db)
		}
		if err != nil {
			if db != nil {
				db.Close()
			}
			if ferr := fail("scan history", err); ferr != nil {
				return nil, ferr
			}
			break
		}
		in.db = db
		in.scans = mysqlp.NewScanRepository(db)
		in.errors = mysqlp.NewScanErrorRepository(db)
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err == nil {
			err = postgres.Migrate(ctx, db)
		}
		if err != nil {
			if db != nil {
				db.Close()
			}
			if ferr := fail("scan history", err); ferr != nil {
				return nil, ferr
			}
			break
		}
		in.db = db
		in.scans = postgres.NewScanRepository(db)
		in.errors = postgres.NewScanErrorRepository(db)
	}

	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			if ferr := fail("artifact upload", err); ferr != nil {
				in.Close()
				return nil, ferr
			}
		} else {
			in.store = store
		}
	}

	if cfg.OpenAI.APIKey != "" {
		if cfg.OpenAI.BaseURL != "" {
			in.triage = openai.NewClientWithBaseURL(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
		} else {
			in.triage = openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
		}
	}

	return in, nil
}
