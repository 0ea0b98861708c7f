package repository

import (
	"context"
	"errors"
	"fmt"

	"catalog-webflux/internal/domain"
	"catalog-webflux/internal/stream"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoProductRepository struct {
	coll *mongo.Collection
}

// NewMongoProductRepository creates a ProductRepository over the productos
// collection. Ids are ObjectID hex strings.
func NewMongoProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{coll: db.Collection(ProductsCollection)}
}

func (r *mongoProductRepository) FindAll(ctx context.Context) stream.Seq[*domain.Product] {
	return findMany[domain.Product](ctx, r.coll, bson.D{}, "products")
}

func (r *mongoProductRepository) FindByCategory(ctx context.Context, categoryID string) stream.Seq[*domain.Product] {
	return findMany[domain.Product](ctx, r.coll, bson.D{{Key: "categoria._id", Value: categoryID}}, "products")
}

func (r *mongoProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	product := &domain.Product{}
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

func (r *mongoProductRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	saved := product.Clone()
	if saved.ID == "" {
		saved.ID = primitive.NewObjectID().Hex()
	}

	_, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: saved.ID}}, saved, options.Replace().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	return saved, nil
}

func (r *mongoProductRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}

	result, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *mongoProductRepository) DeleteAll(ctx context.Context) error {
	if err := r.coll.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop products: %w", err)
	}
	return nil
}

type mongoCategoryRepository struct {
	coll *mongo.Collection
}

// NewMongoCategoryRepository creates a CategoryRepository over the
// categorias collection.
func NewMongoCategoryRepository(db *mongo.Database) CategoryRepository {
	return &mongoCategoryRepository{coll: db.Collection(CategoriesCollection)}
}

func (r *mongoCategoryRepository) FindAll(ctx context.Context) stream.Seq[*domain.Category] {
	return findMany[domain.Category](ctx, r.coll, bson.D{}, "categories")
}

func (r *mongoCategoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	category := &domain.Category{}
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(category)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}
	return category, nil
}

func (r *mongoCategoryRepository) Save(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	saved := *category
	if saved.ID == "" {
		saved.ID = primitive.NewObjectID().Hex()
	}

	_, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: saved.ID}}, saved, options.Replace().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("failed to save category: %w", err)
	}
	return &saved, nil
}

func (r *mongoCategoryRepository) DeleteAll(ctx context.Context) error {
	if err := r.coll.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop categories: %w", err)
	}
	return nil
}

// findMany opens a cursor when ranged over and decodes one document per
// pull, in natural order.
func findMany[T any](ctx context.Context, coll *mongo.Collection, filter bson.D, what string) stream.Seq[*T] {
	return func(yield func(*T, error) bool) {
		cursor, err := coll.Find(ctx, filter)
		if err != nil {
			yield(nil, fmt.Errorf("failed to list %s: %w", what, err))
			return
		}
		defer cursor.Close(ctx)

		for cursor.Next(ctx) {
			item := new(T)
			if err := cursor.Decode(item); err != nil {
				yield(nil, fmt.Errorf("failed to decode %s: %w", what, err))
				return
			}
			if !yield(item, nil) {
				return
			}
		}

		if err := cursor.Err(); err != nil {
			yield(nil, fmt.Errorf("error iterating %s: %w", what, err))
		}
	}
}
