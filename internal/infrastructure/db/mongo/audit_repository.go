package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/routedesk/logistics-api/internal/core/domain"
)

const statusEventsCollection = "order_status_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	coll *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(statusEventsCollection)}
}

// EnsureIndexes creates the per-order lookup index on the audit collection.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "order_id", Value: 1}, {Key: "at", Value: 1}},
		Options: options.Index().SetName("order_id_at"),
	})
	return err
}

// InsertStatusChange persists a status change to the order_status_events collection.
func (r *AuditRepository) InsertStatusChange(ctx context.Context, change domain.StatusChange) error {
	doc := bson.M{
		"order_id":    change.OrderID,
		"from":        string(change.From),
		"to":          string(change.To),
		"at":          change.At.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if change.DriverID != "" {
		doc["driver_id"] = change.DriverID
	}

	_, err := r.coll.InsertOne(ctx, doc)
	return err
}
