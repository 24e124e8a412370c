package draw

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"matisse/internal/model/draw"
)

const generationCollection = "generations"

// GenerationRepo 生成记录仓储
type GenerationRepo interface {
	// Insert 保存一条生成记录
	Insert(ctx context.Context, g *draw.Generation) error

	// ListRecent 按创建时间倒序列出最近的生成记录
	ListRecent(ctx context.Context, limit int64) ([]*draw.Generation, error)
}

type generationRepo struct {
	coll *mongo.Collection
}

// NewGenerationRepo 创建生成记录仓储
func NewGenerationRepo(db *mongo.Database) GenerationRepo {
	return &generationRepo{
		coll: db.Collection(generationCollection),
	}
}

// Insert 保存一条生成记录
func (r *generationRepo) Insert(ctx context.Context, g *draw.Generation) error {
	if _, err := r.coll.InsertOne(ctx, g); err != nil {
		return fmt.Errorf("insert generation: %w", err)
	}
	return nil
}

// ListRecent 按创建时间倒序列出最近的生成记录
func (r *generationRepo) ListRecent(ctx context.Context, limit int64) ([]*draw.Generation, error) {
	if limit <= 0 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find generations: %w", err)
	}
	defer cursor.Close(ctx)

	var generations []*draw.Generation
	if err := cursor.All(ctx, &generations); err != nil {
		return nil, fmt.Errorf("decode generations: %w", err)
	}

	return generations, nil
}
