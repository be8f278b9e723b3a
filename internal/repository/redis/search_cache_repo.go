package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/internal/repository/redis/converter"
	"github.com/DRSN-tech/visual-search/pkg/clients"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

const searchKeyPrefix = "search:"

// SearchCacheRepo кэширует результаты поиска по ключу «поколение + дайджест изображения».
// Смена поколения автоматически делает старые записи недостижимыми, они истекают по TTL.
type SearchCacheRepo struct {
	client *clients.RedisClient
	conv   converter.SearchResultConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewSearchCacheRepo(client *clients.RedisClient, conv converter.SearchResultConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *SearchCacheRepo {
	return &SearchCacheRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// Get возвращает закэшированный результат. Промах и повреждённая запись: (nil, nil).
func (s *SearchCacheRepo) Get(ctx context.Context, key string) (domain.SearchResult, error) {
	redisKey := s.searchKey(key)

	val, err := s.client.Client.Get(ctx, redisKey).Result()
	if errors.Is(err, r.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	data, err := redisValueToBytes(val, redisKey)
	if err != nil || data == nil {
		return nil, err
	}

	var model converter.SearchResultRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		s.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		s.drop(redisKey)
		return nil, nil
	}

	result, err := s.conv.ToEntity(&model)
	if err != nil {
		s.logger.Warnf("%v", e.Wrap(whereami.WhereAmI(), err))
		s.drop(redisKey)
		return nil, nil
	}

	return result, nil
}

// Set сохраняет результат с TTL из конфигурации.
func (s *SearchCacheRepo) Set(ctx context.Context, key string, result domain.SearchResult) error {
	model, err := s.conv.ToRedisModel(result)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	data, err := json.Marshal(model)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := s.client.Client.Set(ctx, s.searchKey(key), data, s.cfg.SearchTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (s *SearchCacheRepo) drop(key string) {
	if err := s.client.Client.Del(context.Background(), key).Err(); err != nil {
		s.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}
}

func (s *SearchCacheRepo) searchKey(key string) string {
	return searchKeyPrefix + key
}

// redisValueToBytes конвертирует значение из Redis в []byte.
// Поддерживает string и []byte, возвращает ошибку для неизвестных типов.
func redisValueToBytes(val interface{}, key string) ([]byte, error) {
	switch v := val.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case nil:
		return nil, nil // cache miss
	default:
		return nil, fmt.Errorf("unexpected Redis value type for key %s: %T", key, val)
	}
}
