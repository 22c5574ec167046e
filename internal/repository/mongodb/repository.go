package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/husk/internal/domain/models"
)

// Repository defines the interface for digest storage.
type Repository interface {
	SaveDigest(ctx context.Context, digest models.Digest) error
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "weekly_digests",
	}, nil
}

// digestDocument stores amounts as Decimal128 so they keep full precision.
type digestDocument struct {
	PeriodStart       time.Time            `bson:"period_start"`
	PeriodEnd         time.Time            `bson:"period_end"`
	Purchases         int                  `bson:"purchases"`
	CoconutsPurchased int                  `bson:"coconuts_purchased"`
	InputCosts        primitive.Decimal128 `bson:"input_costs"`
	LabourCosts       primitive.Decimal128 `bson:"labour_costs"`
	LabourDays        primitive.Decimal128 `bson:"labour_days"`
	TotalCosts        primitive.Decimal128 `bson:"total_costs"`
	CreatedAt         time.Time            `bson:"created_at"`
}

func newDigestDocument(d models.Digest) (digestDocument, error) {
	doc := digestDocument{
		PeriodStart:       d.PeriodStart,
		PeriodEnd:         d.PeriodEnd,
		Purchases:         d.Purchases,
		CoconutsPurchased: d.CoconutsPurchased,
		CreatedAt:         d.CreatedAt,
	}
	for _, f := range []struct {
		dst *primitive.Decimal128
		src decimal.Decimal
	}{
		{&doc.InputCosts, d.InputCosts},
		{&doc.LabourCosts, d.LabourCosts},
		{&doc.LabourDays, d.LabourDays},
		{&doc.TotalCosts, d.TotalCosts},
	} {
		v, err := primitive.ParseDecimal128(f.src.String())
		if err != nil {
			return digestDocument{}, fmt.Errorf("convert %s: %w", f.src, err)
		}
		*f.dst = v
	}
	return doc, nil
}

// SaveDigest saves a weekly digest to the database.
func (r *MongoDBRepository) SaveDigest(ctx context.Context, digest models.Digest) error {
	doc, err := newDigestDocument(digest)
	if err != nil {
		return err
	}

	collection := r.client.Database(r.dbName).Collection(r.collName)
	if _, err := collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert weekly digest: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
