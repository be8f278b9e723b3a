package cfg

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/joho/godotenv"
)

const (
	CatalogDriverPostgres = "postgres"
	CatalogDriverMongo    = "mongo"
)

type Config struct {
	Http    *HTTPConfig
	Grpc    *GRPCConfig
	Search  *SearchCfg
	Index   *IndexCfg
	Indexer *IndexerCfg
	Catalog *CatalogCfg
	Db      *PGDBCfg
	Mongo   *MongoCfg
	Ml      *MLServiceCfg
	Minio   *MinIOCfg
	Qdrant  *QdrantCfg
	Redis   *RedisCfg
	Kafka   *KafkaCfg
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type GRPCConfig struct {
	Port        string
	NetworkMode string
}

// SearchCfg: пороги и параметры двухуровневого поиска.
type SearchCfg struct {
	ExactMatchHashThreshold int     // макс. расстояние Хэмминга для точного совпадения
	NearExactHashThreshold  int     // справочный порог «почти точного» совпадения
	HighThreshold           float64 // нижняя граница полосы HIGH
	MediumThreshold         float64 // нижняя граница полосы MEDIUM
	LowThreshold            float64 // ниже: no_match
	CategoryFloor           float64 // минимальное сходство для определения категории
	KWithCategory           int
	KWithoutCategory        int
	TopN                    int
	MaxImageSize            int64 // байт
	TargetSize              int   // сторона канонического изображения
	CategoriesFile          string
}

type IndexCfg struct {
	ArtifactDir     string
	Backend         string // flat | hnsw
	KeepGenerations int
}

type IndexerCfg struct {
	Workers         int
	DownloadRetries int
	RetryDelay      time.Duration
	DownloadTimeout time.Duration
	UserAgent       string
	MaxImageSize    int64
	Schedule        time.Duration // период пересборки в режиме schedule
	RecordHistory   bool
}

type CatalogCfg struct {
	Driver string
}

type PGDBCfg struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MigrationsURL string // источник golang-migrate, например file://db/migrations
}

type MongoCfg struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type MLServiceCfg struct {
	Addr          string
	MaxConcurrent int
	MaxRetries    int
	Timeout       time.Duration
}

type MinIOCfg struct {
	Enabled           bool
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Бакет с поколениями индекса
	MinioRootUser     string // Имя пользователя для доступа к Minio
	MinioRootPassword string // Пароль для доступа к Minio
	MinioUseSSL       bool
	Prefix            string // Префикс ключей поколений
}

type QdrantCfg struct {
	Enabled              bool
	Port                 int
	Host                 string
	ApiKey               string
	QdrantCollectionName string // имя коллекции в Qdrant
	UseTLS               bool
	VectorSize           uint64
	BatchSize            int
}

type RedisCfg struct {
	Enabled     bool
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	SearchTTL   time.Duration
}

type KafkaCfg struct {
	Enabled           bool
	Topic             string
	GroupID           string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
// Перед чтением окружения подхватывается .env (путь можно переопределить через ENV_FILE).
func Load(log logger.Logger) (*Config, error) {
	envFile := getEnvOrDefault("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("failed to read %s: %v", envFile, err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	search, err := loadSearchCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	index, err := loadIndexCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	indexer, err := loadIndexerCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	catalog, err := loadCatalogCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	mongo, err := loadMongoCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ml, err := loadMLServiceCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	qdrant, err := loadQdrantCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Http:    http,
		Grpc:    loadGRPCConfig(),
		Search:  search,
		Index:   index,
		Indexer: indexer,
		Catalog: catalog,
		Db:      loadPGDBCfg(),
		Mongo:   mongo,
		Ml:      ml,
		Minio:   minio,
		Qdrant:  qdrant,
		Redis:   redis,
		Kafka:   kafka,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 15 * time.Second
		defaultWriteTimeout = 30 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadGRPCConfig() *GRPCConfig {
	const (
		defaultPort        = "8091"
		defaultNetworkMode = "tcp"
	)

	return &GRPCConfig{
		Port:        getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode: getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
	}
}

func loadSearchCfg(log logger.Logger) (*SearchCfg, error) {
	const (
		defaultExactMatchHash   = 5
		defaultNearExactHash    = 10
		defaultHigh             = 0.82
		defaultMedium           = 0.72
		defaultLow              = 0.62
		defaultCategoryFloor    = 0.35
		defaultKWithCategory    = 100
		defaultKWithoutCategory = 150
		defaultTopN             = 5
		defaultMaxImageSize     = 10 << 20
		defaultTargetSize       = 224
	)

	exact, err := parseIntEnv("EXACT_MATCH_HASH_THRESHOLD", defaultExactMatchHash)
	if err != nil {
		return nil, e.Wrap("EXACT_MATCH_HASH_THRESHOLD", err)
	}
	nearExact, err := parseIntEnv("NEAR_EXACT_HASH_THRESHOLD", defaultNearExactHash)
	if err != nil {
		return nil, e.Wrap("NEAR_EXACT_HASH_THRESHOLD", err)
	}

	high, err := parseFloatEnv("SIMILARITY_THRESHOLD_HIGH", defaultHigh)
	if err != nil {
		return nil, e.Wrap("SIMILARITY_THRESHOLD_HIGH", err)
	}
	medium, err := parseFloatEnv("SIMILARITY_THRESHOLD_MEDIUM", defaultMedium)
	if err != nil {
		return nil, e.Wrap("SIMILARITY_THRESHOLD_MEDIUM", err)
	}
	low, err := parseFloatEnv("SIMILARITY_THRESHOLD_LOW", defaultLow)
	if err != nil {
		return nil, e.Wrap("SIMILARITY_THRESHOLD_LOW", err)
	}
	if !(high >= medium && medium >= low) {
		err := fmt.Errorf("thresholds must satisfy high >= medium >= low, got %v/%v/%v", high, medium, low)
		log.Errorf(err, "invalid similarity thresholds")
		return nil, e.Wrap(err.Error(), e.ErrIncorrectEnvVariable)
	}

	floor, err := parseFloatEnv("CATEGORY_CONFIDENCE_FLOOR", defaultCategoryFloor)
	if err != nil {
		return nil, e.Wrap("CATEGORY_CONFIDENCE_FLOOR", err)
	}

	kWith, err := parseIntEnv("SEARCH_K_WITH_CATEGORY", defaultKWithCategory)
	if err != nil {
		return nil, e.Wrap("SEARCH_K_WITH_CATEGORY", err)
	}
	kWithout, err := parseIntEnv("SEARCH_K_WITHOUT_CATEGORY", defaultKWithoutCategory)
	if err != nil {
		return nil, e.Wrap("SEARCH_K_WITHOUT_CATEGORY", err)
	}

	maxSize, err := parseIntEnv("MAX_IMAGE_SIZE", defaultMaxImageSize)
	if err != nil {
		return nil, e.Wrap("MAX_IMAGE_SIZE", err)
	}
	targetSize, err := parseIntEnv("TARGET_IMAGE_SIZE", defaultTargetSize)
	if err != nil {
		return nil, e.Wrap("TARGET_IMAGE_SIZE", err)
	}

	return &SearchCfg{
		ExactMatchHashThreshold: exact,
		NearExactHashThreshold:  nearExact,
		HighThreshold:           high,
		MediumThreshold:         medium,
		LowThreshold:            low,
		CategoryFloor:           floor,
		KWithCategory:           kWith,
		KWithoutCategory:        kWithout,
		TopN:                    defaultTopN,
		MaxImageSize:            int64(maxSize),
		TargetSize:              targetSize,
		CategoriesFile:          getEnv("CATEGORIES_FILE"),
	}, nil
}

func loadIndexCfg() (*IndexCfg, error) {
	const (
		defaultArtifactDir     = "data/index"
		defaultBackend         = "flat"
		defaultKeepGenerations = 3
	)

	keep, err := parseIntEnv("ARTIFACT_KEEP_GENERATIONS", defaultKeepGenerations)
	if err != nil {
		return nil, e.Wrap("ARTIFACT_KEEP_GENERATIONS", err)
	}

	backend := getEnvOrDefault("INDEX_BACKEND", defaultBackend)
	if backend != "flat" && backend != "hnsw" {
		return nil, e.Wrap("INDEX_BACKEND="+backend, e.ErrIncorrectEnvVariable)
	}

	return &IndexCfg{
		ArtifactDir:     getEnvOrDefault("ARTIFACT_DIR", defaultArtifactDir),
		Backend:         backend,
		KeepGenerations: keep,
	}, nil
}

func loadIndexerCfg(log logger.Logger) (*IndexerCfg, error) {
	const (
		defaultWorkers         = 5
		defaultRetries         = 3
		defaultRetryDelay      = 2 * time.Second
		defaultDownloadTimeout = 30 * time.Second
		defaultUserAgent       = "Mozilla/5.0"
		defaultMaxImageSize    = 10 << 20
		defaultSchedule        = 24 * time.Hour
	)

	workers, err := parseIntEnv("INDEXER_WORKERS", defaultWorkers)
	if err != nil {
		return nil, e.Wrap("INDEXER_WORKERS", err)
	}
	if workers < 1 {
		workers = 1
	}

	retries, err := parseIntEnv("DOWNLOAD_RETRIES", defaultRetries)
	if err != nil {
		return nil, e.Wrap("DOWNLOAD_RETRIES", err)
	}

	retryDelay, err := parseDurationEnv("DOWNLOAD_RETRY_DELAY", defaultRetryDelay)
	if err != nil {
		log.Errorf(err, "invalid DOWNLOAD_RETRY_DELAY")
		return nil, err
	}

	timeout, err := parseDurationEnv("DOWNLOAD_TIMEOUT", defaultDownloadTimeout)
	if err != nil {
		log.Errorf(err, "invalid DOWNLOAD_TIMEOUT")
		return nil, err
	}

	schedule, err := parseDurationEnv("REINDEX_INTERVAL", defaultSchedule)
	if err != nil {
		log.Errorf(err, "invalid REINDEX_INTERVAL")
		return nil, err
	}

	maxSize, err := parseIntEnv("MAX_IMAGE_SIZE", defaultMaxImageSize)
	if err != nil {
		return nil, e.Wrap("MAX_IMAGE_SIZE", err)
	}

	history, err := parseBoolEnv("BUILD_HISTORY_ENABLED", false)
	if err != nil {
		return nil, e.Wrap("BUILD_HISTORY_ENABLED", err)
	}

	return &IndexerCfg{
		Workers:         workers,
		DownloadRetries: retries,
		RetryDelay:      retryDelay,
		DownloadTimeout: timeout,
		UserAgent:       getEnvOrDefault("DOWNLOAD_USER_AGENT", defaultUserAgent),
		MaxImageSize:    int64(maxSize),
		Schedule:        schedule,
		RecordHistory:   history,
	}, nil
}

func loadCatalogCfg() (*CatalogCfg, error) {
	driver := getEnvOrDefault("CATALOG_DRIVER", CatalogDriverPostgres)
	if driver != CatalogDriverPostgres && driver != CatalogDriverMongo {
		return nil, e.Wrap("CATALOG_DRIVER="+driver, e.ErrUnsupportedDatabase)
	}
	return &CatalogCfg{Driver: driver}, nil
}

// loadPGDBCfg читает параметры PostgreSQL. База нужна каталогу (CATALOG_DRIVER=postgres)
// и истории сборок; сервис поиска без неё обходится, поэтому отсутствие переменных не ошибка.
func loadPGDBCfg() *PGDBCfg {
	const (
		defaultHost       = "localhost"
		defaultPort       = "5432"
		defaultSSLMode    = "disable"
		defaultMigrations = "file://db/migrations"
	)

	user := getEnv("POSTGRES_USER")
	dbName := getEnv("POSTGRES_DB")

	return &PGDBCfg{
		Enabled:  user != "" && dbName != "",
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     user,
		Password: getEnv("POSTGRES_PASSWORD"),
		DBName:   dbName,
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),

		MigrationsURL: getEnvOrDefault("MIGRATIONS_URL", defaultMigrations),
	}
}

func loadMongoCfg() (*MongoCfg, error) {
	const (
		defaultURI        = "mongodb://localhost:27017"
		defaultDatabase   = "watchvine_refined"
		defaultCollection = "products"
		defaultTimeout    = 10 * time.Second
	)

	timeout, err := parseDurationEnv("MONGODB_TIMEOUT", defaultTimeout)
	if err != nil {
		return nil, e.Wrap("MONGODB_TIMEOUT", err)
	}

	return &MongoCfg{
		URI:        getEnvOrDefault("MONGODB_URI", defaultURI),
		Database:   getEnvOrDefault("MONGODB_DATABASE", defaultDatabase),
		Collection: getEnvOrDefault("MONGODB_COLLECTION", defaultCollection),
		Timeout:    timeout,
	}, nil
}

func loadMLServiceCfg() (*MLServiceCfg, error) {
	const (
		defaultHost          = "ml-service"
		defaultPort          = "50051"
		defaultMaxConcurrent = 8
		defaultMaxRetries    = 3
		defaultTimeout       = 10 * time.Second
	)

	maxConcurrent, err := parseIntEnv("ML_MAX_CONCURRENT", defaultMaxConcurrent)
	if err != nil {
		return nil, e.Wrap("ML_MAX_CONCURRENT", err)
	}
	maxRetries, err := parseIntEnv("ML_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		return nil, e.Wrap("ML_MAX_RETRIES", err)
	}
	timeout, err := parseDurationEnv("ML_TIMEOUT", defaultTimeout)
	if err != nil {
		return nil, e.Wrap("ML_TIMEOUT", err)
	}

	host := getEnvOrDefault("ML_HOST", defaultHost)
	port := getEnvOrDefault("ML_PORT", defaultPort)

	return &MLServiceCfg{
		Addr:          host + ":" + port,
		MaxConcurrent: maxConcurrent,
		MaxRetries:    maxRetries,
		Timeout:       timeout,
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL   = false
		defaultEndpoint = "minio:9000"
		defaultBucket   = "visual-search-index"
		defaultPrefix   = "generations"
	)

	enabled, err := parseBoolEnv("MINIO_ENABLED", false)
	if err != nil {
		log.Errorf(err, "invalid MINIO_ENABLED")
		return nil, err
	}

	useSSL, err := parseBoolEnv("MINIO_USE_SSL", defaultUseSSL)
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	return &MinIOCfg{
		Enabled:           enabled,
		MinioEndpoint:     getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:        getEnvOrDefault("BUCKET_NAME", defaultBucket),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
		Prefix:            getEnvOrDefault("MINIO_PREFIX", defaultPrefix),
	}, nil
}

func loadQdrantCfg(logger logger.Logger) (*QdrantCfg, error) {
	const (
		defaultQdrantGRPCPort = 6334
		defaultVectorSize     = 512
		defaultBatchSize      = 256
		defaultCollection     = "catalog_images"
	)

	enabled, err := parseBoolEnv("QDRANT_ENABLED", false)
	if err != nil {
		logger.Errorf(err, "invalid QDRANT_ENABLED")
		return nil, err
	}

	port, err := parseIntEnv("QDRANT_GRPC_PORT", defaultQdrantGRPCPort)
	if err != nil {
		logger.Errorf(err, "invalid QDRANT_GRPC_PORT")
		return nil, err
	}

	useTLS, err := parseBoolEnv("QDRANT_USE_TLS", false)
	if err != nil {
		logger.Errorf(err, "invalid QDRANT_USE_TLS")
		return nil, err
	}

	vectorSize, err := parseIntEnv("VECTOR_SIZE", defaultVectorSize)
	if err != nil {
		logger.Errorf(err, "invalid VECTOR_SIZE")
		return nil, err
	}

	batchSize, err := parseIntEnv("QDRANT_BATCH_SIZE", defaultBatchSize)
	if err != nil {
		logger.Errorf(err, "invalid QDRANT_BATCH_SIZE")
		return nil, err
	}

	return &QdrantCfg{
		Enabled:              enabled,
		Host:                 getEnvOrDefault("QDRANT_HOST", "localhost"),
		Port:                 port,
		ApiKey:               getEnv("QDRANT__SERVICE__API_KEY"),
		QdrantCollectionName: getEnvOrDefault("COLLECTION_NAME", defaultCollection),
		UseTLS:               useTLS,
		VectorSize:           uint64(vectorSize),
		BatchSize:            batchSize,
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultSearchTTL    = 10 * time.Minute
	)

	enabled, err := parseBoolEnv("REDIS_ENABLED", false)
	if err != nil {
		log.Errorf(err, "invalid REDIS_ENABLED")
		return nil, err
	}

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	searchTTL, err := parseDurationEnv("SEARCH_CACHE_TTL", defaultSearchTTL)
	if err != nil {
		log.Errorf(err, "invalid SEARCH_CACHE_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Enabled:     enabled,
		Addr:        getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		SearchTTL:   searchTTL,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 1
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultTopic             = "visual-search.index"
		defaultGroupID           = "visual-search"
	)

	enabled, err := parseBoolEnv("KAFKA_ENABLED", false)
	if err != nil {
		return nil, e.Wrap("KAFKA_ENABLED", err)
	}

	var brokers []string
	if brokerStr := getEnv("KAFKA_BROKERS"); brokerStr != "" {
		brokers = strings.Split(brokerStr, ",")
	}
	if enabled && len(brokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Enabled:           enabled,
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		GroupID:           getEnvOrDefault("KAFKA_GROUP_ID", defaultGroupID),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return f, nil
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return b, nil
}
