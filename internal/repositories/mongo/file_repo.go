package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/chainfly/tenderapi/internal/models"
	"github.com/chainfly/tenderapi/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FileRepository interface {
	// Available reports whether the metadata store is reachable. Callers
	// use it to pick the degraded upload path instead of catching errors.
	Available() bool
	Insert(ctx context.Context, f *models.FileRecord) error
	GetByID(ctx context.Context, fileID string) (*models.FileRecord, error)
	List(ctx context.Context) ([]models.FileRecord, error)
	ListByTender(ctx context.Context, tenderID string) ([]models.FileRecord, error)
	Delete(ctx context.Context, fileID string) error
}

type fileRepo struct {
	col *mongo.Collection
}

// NewFileRepo accepts a nil database: every operation then reports
// utils.ErrUnavailable, which keeps degraded mode explicit at call sites.
func NewFileRepo(db *mongo.Database) FileRepository {
	if db == nil {
		return unavailableFileRepo{}
	}
	return &fileRepo{col: db.Collection("files")}
}

func (r *fileRepo) Available() bool { return true }

func (r *fileRepo) Insert(ctx context.Context, f *models.FileRecord) error {
	if f.UploadedAt.IsZero() {
		f.UploadedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, f)
	return err
}

func (r *fileRepo) GetByID(ctx context.Context, fileID string) (*models.FileRecord, error) {
	var f models.FileRecord
	err := r.col.FindOne(ctx, bson.M{"_id": fileID}).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *fileRepo) List(ctx context.Context) ([]models.FileRecord, error) {
	return r.find(ctx, bson.M{})
}

func (r *fileRepo) ListByTender(ctx context.Context, tenderID string) ([]models.FileRecord, error) {
	return r.find(ctx, bson.M{"tender_id": tenderID})
}

func (r *fileRepo) find(ctx context.Context, filter bson.M) ([]models.FileRecord, error) {
	cur, err := r.col.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	files := []models.FileRecord{}
	if err := cur.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (r *fileRepo) Delete(ctx context.Context, fileID string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": fileID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

type unavailableFileRepo struct{}

func (unavailableFileRepo) Available() bool { return false }

func (unavailableFileRepo) Insert(context.Context, *models.FileRecord) error {
	return utils.ErrUnavailable
}

func (unavailableFileRepo) GetByID(context.Context, string) (*models.FileRecord, error) {
	return nil, utils.ErrUnavailable
}

func (unavailableFileRepo) List(context.Context) ([]models.FileRecord, error) {
	return nil, utils.ErrUnavailable
}

func (unavailableFileRepo) ListByTender(context.Context, string) ([]models.FileRecord, error) {
	return nil, utils.ErrUnavailable
}

func (unavailableFileRepo) Delete(context.Context, string) error {
	return utils.ErrUnavailable
}
