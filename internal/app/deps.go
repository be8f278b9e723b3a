package app

import (
	"context"
	"time"

	config "github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/internal/infrastructure/encoder"
	"github.com/DRSN-tech/visual-search/internal/infrastructure/kafka"
	minioInfra "github.com/DRSN-tech/visual-search/internal/infrastructure/minio"
	mongoRepo "github.com/DRSN-tech/visual-search/internal/repository/mongo"
	mongoConv "github.com/DRSN-tech/visual-search/internal/repository/mongo/converter"
	"github.com/DRSN-tech/visual-search/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/visual-search/internal/repository/pgdb/converter"
	qdrantRepo "github.com/DRSN-tech/visual-search/internal/repository/qdrant"
	"github.com/DRSN-tech/visual-search/internal/repository/redis"
	redisConv "github.com/DRSN-tech/visual-search/internal/repository/redis/converter"
	"github.com/DRSN-tech/visual-search/internal/usecase"
	"github.com/DRSN-tech/visual-search/pkg/clients"
	"github.com/DRSN-tech/visual-search/pkg/closer"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/DRSN-tech/visual-search/pkg/postgres"
	"github.com/jimlawless/whereami"
)

const (
	initTimeout       = 10 * time.Second
	topicEnsureTimeout = 10 * time.Second
)

// Инициализаторы общих зависимостей сервиса и индексатора.
// Каждый регистрирует освобождение ресурса в closer.

func initEncoder(cfg *config.Config, cl *closer.Closer, logger logger.Logger) (*encoder.Encoder, error) {
	conn, err := clients.NewEncoderConn(cfg.Ml)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(context.Context) error { return conn.Close() })

	logger.Infof("encoder: %s (max concurrent %d)", cfg.Ml.Addr, cfg.Ml.MaxConcurrent)
	return encoder.NewEncoder(conn, cfg.Ml, logger), nil
}

func initCategories(cfg *config.Config, logger logger.Logger) (*usecase.CategoryTable, error) {
	if cfg.Search.CategoriesFile == "" {
		return usecase.DefaultCategoryTable(), nil
	}

	table, err := usecase.LoadCategoryTable(cfg.Search.CategoriesFile)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	logger.Infof("category table loaded from %s: %d rules", cfg.Search.CategoriesFile, len(table.Rules))
	return table, nil
}

// initRemote возвращает nil, если MinIO выключен.
func initRemote(ctx context.Context, cfg *config.Config, logger logger.Logger) (usecase.ArtifactRemote, error) {
	if !cfg.Minio.Enabled {
		return nil, nil
	}

	client, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ctx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()
	if err := clients.EnsureBucket(ctx, client, cfg.Minio.BucketName); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	logger.Infof("artifact remote: %s/%s", cfg.Minio.MinioEndpoint, cfg.Minio.BucketName)
	return minioInfra.NewArtifactRemote(client, cfg.Minio, logger), nil
}

// initCache возвращает nil, если Redis выключен или недоступен: поиск работает без кэша.
func initCache(ctx context.Context, cfg *config.Config, cl *closer.Closer, logger logger.Logger) usecase.SearchCacheRepository {
	if !cfg.Redis.Enabled {
		return nil
	}

	client := clients.NewRedisClient(cfg.Redis)
	ctx, cancel := context.WithTimeout(ctx, cfg.Redis.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		logger.Warnf("redis unavailable, search cache disabled: %v", err)
		_ = client.Close()
		return nil
	}
	cl.Add(func(context.Context) error { return client.Close() })

	return redis.NewSearchCacheRepo(client, redisConv.SearchResultConverter{}, cfg.Redis, logger)
}

func initPGDB(ctx context.Context, cfg *config.Config, cl *closer.Closer, logger logger.Logger) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(db.Close)

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}

// initCatalog выбирает источник каталога по CATALOG_DRIVER. db может быть nil для mongo.
func initCatalog(ctx context.Context, cfg *config.Config, db *postgres.PgDatabase, cl *closer.Closer) (usecase.CatalogRepository, error) {
	switch cfg.Catalog.Driver {
	case config.CatalogDriverPostgres:
		if db == nil {
			return nil, e.Wrap("postgres catalog requires POSTGRES_USER and POSTGRES_DB", e.ErrIncorrectEnvVariable)
		}
		return pgdb.NewCatalogRepo(db.Pool, pgdbConv.ProductConverter{}), nil
	case config.CatalogDriverMongo:
		ctx, cancel := context.WithTimeout(ctx, cfg.Mongo.Timeout)
		defer cancel()

		client, err := clients.NewMongoClient(ctx, cfg.Mongo)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		cl.Add(client.Disconnect)
		return mongoRepo.NewCatalogRepo(client, cfg.Mongo, mongoConv.ProductConverter{}), nil
	default:
		return nil, e.Wrap(cfg.Catalog.Driver, e.ErrUnsupportedDatabase)
	}
}

// initMirror возвращает nil, если Qdrant выключен.
func initMirror(ctx context.Context, cfg *config.Config, cl *closer.Closer) (usecase.EmbeddingRepository, error) {
	if !cfg.Qdrant.Enabled {
		return nil, nil
	}

	client, err := clients.NewQdrantClient(cfg.Qdrant)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(context.Context) error { return client.Close() })

	ctx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()
	if err := clients.EnsureCollection(ctx, client); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return qdrantRepo.NewEmbeddingRepo(client.Client, cfg.Qdrant), nil
}

// initProducer возвращает nil, если Kafka выключена.
func initProducer(cfg *config.Config, cl *closer.Closer, logger logger.Logger) *kafka.Producer {
	if !cfg.Kafka.Enabled {
		return nil
	}

	producer := kafka.NewProducer(logger, cfg.Kafka)
	if err := producer.EnsureTopic(topicEnsureTimeout); err != nil {
		logger.Warnf("kafka topic check failed: %v", err)
	}
	cl.Add(func(context.Context) error { return producer.Close() })
	return producer
}
