package mongo

import (
	"context"

	"github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/internal/repository/mongo/converter"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/jimlawless/whereami"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CatalogRepo читает каталог товаров из коллекции MongoDB.
type CatalogRepo struct {
	coll *mongo.Collection
	conv converter.ProductConverter
}

func NewCatalogRepo(client *mongo.Client, cfg *cfg.MongoCfg, conv converter.ProductConverter) *CatalogRepo {
	return &CatalogRepo{
		coll: client.Database(cfg.Database).Collection(cfg.Collection),
		conv: conv,
	}
}

// ListProducts возвращает все документы коллекции в порядке _id.
// Документ, который не удалось разобрать, прерывает чтение: частичный каталог сдвинул бы слоты.
func (c *CatalogRepo) ListProducts(ctx context.Context) ([]domain.CatalogProduct, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cur, err := c.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer cur.Close(ctx)

	models := make([]converter.ProductModel, 0)
	for cur.Next(ctx) {
		var model converter.ProductModel
		if err := cur.Decode(&model); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		models = append(models, model)
	}
	if err := cur.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return c.conv.ToArrEntity(models), nil
}
