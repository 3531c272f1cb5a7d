package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/bizkit-fr/entitlements/pkg/plans"
)

// subscriptionDocument is the BSON shape of a subscription. IDs are stored as
// strings so documents stay readable from the shell and other services.
type subscriptionDocument struct {
	ID              string     `bson:"_id"`
	UserID          string     `bson:"user_id"`
	PlanName        string     `bson:"plan_name"`
	Status          string     `bson:"status"`
	BillingCycle    string     `bson:"billing_cycle"`
	StartDate       time.Time  `bson:"start_date"`
	EndDate         *time.Time `bson:"end_date,omitempty"`
	NextBillingDate *time.Time `bson:"next_billing_date,omitempty"`
	CreatedAt       time.Time  `bson:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at"`
}

func toDocument(s Subscription) subscriptionDocument {
	return subscriptionDocument{
		ID:              s.ID.String(),
		UserID:          s.UserID.String(),
		PlanName:        s.PlanName,
		Status:          string(s.Status),
		BillingCycle:    string(s.BillingCycle),
		StartDate:       s.StartDate,
		EndDate:         s.EndDate,
		NextBillingDate: s.NextBillingDate,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func (d subscriptionDocument) subscription() (Subscription, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return Subscription{}, fmt.Errorf("subscription id %q: %w", d.ID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return Subscription{}, fmt.Errorf("subscription %s user id: %w", d.ID, err)
	}
	return Subscription{
		ID:              id,
		UserID:          userID,
		PlanName:        d.PlanName,
		Status:          Status(d.Status),
		BillingCycle:    BillingCycle(d.BillingCycle),
		StartDate:       d.StartDate,
		EndDate:         d.EndDate,
		NextBillingDate: d.NextBillingDate,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}, nil
}

// MongoStore reads subscriptions from a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore returns a store over coll. Panics if coll is nil.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	if coll == nil {
		panic("entitlement: mongo collection is required")
	}
	return &MongoStore{coll: coll}
}

// ListByUser returns the user's subscriptions, newest first.
func (s *MongoStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Subscription, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.M{"user_id": userID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("find subscriptions: %w", err)
	}

	var docs []subscriptionDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode subscriptions: %w", err)
	}

	subs := make([]Subscription, 0, len(docs))
	for _, d := range docs {
		sub, err := d.subscription()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// Save upserts sub by ID.
func (s *MongoStore) Save(ctx context.Context, sub Subscription) error {
	doc := toDocument(sub)
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	return nil
}

// EnsureIndexes creates the index backing ListByUser.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

// Collections holding the countable documents, keyed by resource.
var mongoCollections = map[plans.Resource]string{
	plans.ResourceClients:       "clients",
	plans.ResourceQuotes:        "quotes",
	plans.ResourceInvoices:      "invoices",
	plans.ResourceShowcaseSites: "showcase_sites",
}

// MongoCounters returns exact counters over the application collections.
// Documents carry the owner in user_id as a string.
func MongoCounters(db *mongo.Database) map[plans.Resource]CounterFunc {
	if db == nil {
		panic("entitlement: mongo database is required")
	}
	out := make(map[plans.Resource]CounterFunc, len(plans.Resources))
	for res, name := range mongoCollections {
		coll := db.Collection(name)
		out[res] = func(ctx context.Context, userID uuid.UUID) (int64, error) {
			n, err := coll.CountDocuments(ctx, bson.M{"user_id": userID.String()})
			if err != nil {
				return 0, fmt.Errorf("count %s: %w", name, err)
			}
			return n, nil
		}
	}

	docs := db.Collection("documents")
	out[plans.ResourceStorageMB] = func(ctx context.Context, userID uuid.UUID) (int64, error) {
		cur, err := docs.Aggregate(ctx, mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"user_id": userID.String()}}},
			{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$size_bytes"}}}},
		})
		if err != nil {
			return 0, fmt.Errorf("sum documents: %w", err)
		}
		defer cur.Close(ctx)

		if !cur.Next(ctx) {
			if err := cur.Err(); err != nil {
				return 0, fmt.Errorf("sum documents: %w", err)
			}
			return 0, nil
		}
		var row struct {
			Total int64 `bson:"total"`
		}
		if err := cur.Decode(&row); err != nil {
			return 0, fmt.Errorf("decode document total: %w", err)
		}
		return megabytes(row.Total), nil
	}
	return out
}
