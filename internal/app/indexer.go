package app

import (
	"context"

	config "github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/internal/infrastructure/downloader"
	"github.com/DRSN-tech/visual-search/internal/infrastructure/imaging"
	"github.com/DRSN-tech/visual-search/internal/repository/artifact"
	"github.com/DRSN-tech/visual-search/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/visual-search/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/visual-search/internal/usecase"
	"github.com/DRSN-tech/visual-search/pkg/closer"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/DRSN-tech/visual-search/pkg/postgres"
	"github.com/jimlawless/whereami"
)

// Indexer: офлайн-сборщик поколений индекса с подключёнными интеграциями.
type Indexer struct {
	UC     *usecase.IndexerUseCase
	closer *closer.Closer
}

// NewIndexer собирает индексатор. Для verify каталог и энкодер не нужны, но подключаются
// одинаково: команда должна падать на той же конфигурации, что и build.
func NewIndexer(ctx context.Context, cfg *config.Config, logger logger.Logger) (*Indexer, error) {
	cl := closer.NewCloser(0)

	uc, err := newIndexerUC(ctx, cfg, cl, logger)
	if err != nil {
		if cerr := cl.Close(context.Background()); cerr != nil {
			logger.Warnf("cleanup after failed init: %v", cerr)
		}
		return nil, err
	}

	return &Indexer{UC: uc, closer: cl}, nil
}

func newIndexerUC(ctx context.Context, cfg *config.Config, cl *closer.Closer, logger logger.Logger) (*usecase.IndexerUseCase, error) {
	var db *postgres.PgDatabase
	if cfg.Db.Enabled {
		var err error
		if db, err = initPGDB(ctx, cfg, cl, logger); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	catalog, err := initCatalog(ctx, cfg, db, cl)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	enc, err := initEncoder(cfg, cl, logger)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	uc := usecase.NewIndexerUC(
		catalog,
		downloader.NewDownloader(cfg.Indexer, logger),
		imaging.NewNormalizer(cfg.Search.TargetSize),
		enc,
		artifact.NewFSRepository(cfg.Index, logger),
		cfg.Indexer,
		cfg.Index.Backend,
		logger,
	)

	remote, err := initRemote(ctx, cfg, logger)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if remote != nil {
		uc.WithRemote(remote)
	}

	mirror, err := initMirror(ctx, cfg, cl)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if mirror != nil {
		uc.WithEmbeddingMirror(mirror, cfg.Qdrant.BatchSize)
	}

	if producer := initProducer(cfg, cl, logger); producer != nil {
		uc.WithPublisher(producer)
	}

	if cfg.Indexer.RecordHistory {
		if db == nil {
			return nil, e.Wrap("BUILD_HISTORY_ENABLED requires PostgreSQL", e.ErrIncorrectEnvVariable)
		}
		uc.WithHistory(pgdb.NewBuildHistoryRepo(db.Pool, pgdbConv.BuildConverter{}))
	}

	return uc, nil
}

func (i *Indexer) Close(ctx context.Context) error {
	return i.closer.Close(ctx)
}
