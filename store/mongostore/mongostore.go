// Package mongostore backs the store interfaces with MongoDB. Change
// notification rides the collection change streams, normalized into the
// three-kind model the fan-out expects.
package mongostore

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"thangd/models"
	"thangd/store"
)

type Mongo struct {
	thangs   *mongo.Collection
	bookings *mongo.Collection
	users    *mongo.Collection
}

func New(db *mongo.Database) *Mongo {
	return &Mongo{
		thangs:   db.Collection("thangs"),
		bookings: db.Collection("bookings"),
		users:    db.Collection("users"),
	}
}

func (m *Mongo) Thangs() store.ThangStore     { return thangStore{m.thangs} }
func (m *Mongo) Bookings() store.BookingStore { return bookingStore{m.bookings} }
func (m *Mongo) Users() store.UserStore       { return userStore{m.users} }

// --- change streams ---

type streamEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID primitive.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
	FullDocument bson.Raw `bson:"fullDocument"`
}

func (m *Mongo) Watch(ctx context.Context, coll store.Collection) (<-chan store.Change, error) {
	var c *mongo.Collection
	switch coll {
	case store.CollThangs:
		c = m.thangs
	case store.CollBookings:
		c = m.bookings
	default:
		return nil, store.ErrNotFound
	}

	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	cs, err := c.Watch(ctx, mongo.Pipeline{}, opts)
	if err != nil {
		return nil, err
	}

	out := make(chan store.Change)
	go func() {
		defer close(out)
		defer cs.Close(context.Background())
		for cs.Next(ctx) {
			var ev streamEvent
			if err := cs.Decode(&ev); err != nil {
				log.Printf("mongostore: decode %s stream event: %v", coll, err)
				continue
			}
			ch, ok := normalize(coll, ev)
			if !ok {
				continue
			}
			select {
			case out <- ch:
			case <-ctx.Done():
				return
			}
		}
		if err := cs.Err(); err != nil && ctx.Err() == nil {
			log.Printf("mongostore: %s change stream failed: %v", coll, err)
		}
	}()
	return out, nil
}

// normalize maps a raw stream event onto add/update/remove. Soft deletes
// arrive as updates with the deleted flag set and keep their full document;
// hard removals carry only the storage key.
func normalize(coll store.Collection, ev streamEvent) (store.Change, bool) {
	switch ev.OperationType {
	case "insert", "update", "replace":
	case "delete":
		return store.Change{Kind: store.ChangeRemove, ID: ev.DocumentKey.ID.Hex()}, true
	default:
		return store.Change{}, false
	}

	if coll == store.CollThangs {
		var t models.Thang
		if err := bson.Unmarshal(ev.FullDocument, &t); err != nil {
			log.Printf("mongostore: decode thang document: %v", err)
			return store.Change{}, false
		}
		c := store.Change{ID: t.ID, Thang: &t}
		c.Kind = kindFor(ev.OperationType, t.Deleted)
		return c, true
	}

	var b models.Booking
	if err := bson.Unmarshal(ev.FullDocument, &b); err != nil {
		log.Printf("mongostore: decode booking document: %v", err)
		return store.Change{}, false
	}
	c := store.Change{ID: b.ID, Booking: &b}
	c.Kind = kindFor(ev.OperationType, b.Deleted)
	return c, true
}

func kindFor(op string, deleted bool) store.ChangeKind {
	if op == "insert" {
		return store.ChangeAdd
	}
	if deleted {
		return store.ChangeRemove
	}
	return store.ChangeUpdate
}

// --- thangs ---

type thangStore struct{ c *mongo.Collection }

func (s thangStore) Get(ctx context.Context, id string) (*models.Thang, error) {
	var t models.Thang
	err := s.c.FindOne(ctx, bson.M{"id": id}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s thangStore) Insert(ctx context.Context, t *models.Thang) error {
	_, err := s.c.InsertOne(ctx, t)
	return err
}

func (s thangStore) Replace(ctx context.Context, t *models.Thang) error {
	res, err := s.c.ReplaceOne(ctx, bson.M{"id": t.ID}, t)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s thangStore) AddUser(ctx context.Context, thangID, userID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"id": thangID},
		bson.M{"$addToSet": bson.M{"users": userID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s thangStore) SoftDelete(ctx context.Context, id string) (int64, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"id": id, "deleted": false},
		bson.M{"$set": bson.M{"deleted": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s thangStore) ByOwner(ctx context.Context, userID string) ([]models.Thang, error) {
	cur, err := s.c.Find(ctx, bson.M{"owners": userID, "deleted": false})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Thang
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- bookings ---

type bookingStore struct{ c *mongo.Collection }

func (s bookingStore) Get(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	err := s.c.FindOne(ctx, bson.M{"id": id}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s bookingStore) Insert(ctx context.Context, b *models.Booking) error {
	_, err := s.c.InsertOne(ctx, b)
	return err
}

func (s bookingStore) SoftDelete(ctx context.Context, id string) (int64, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"id": id, "deleted": false},
		bson.M{"$set": bson.M{"deleted": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s bookingStore) InInterval(ctx context.Context, thangID string, from, to int64) ([]models.Booking, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"thang":   thangID,
		"deleted": false,
		"from":    bson.M{"$lt": to},
		"to":      bson.M{"$gt": from},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Booking
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s bookingStore) ForUserFrom(ctx context.Context, thangID, userID string, from int64) ([]models.Booking, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"thang":   thangID,
		"owner":   userID,
		"deleted": false,
		"from":    bson.M{"$gte": from},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Booking
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- users ---

type userStore struct{ c *mongo.Collection }

func (s userStore) Get(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"userid": userID}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s userStore) ByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"username": username}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s userStore) Insert(ctx context.Context, u *models.User) error {
	_, err := s.c.InsertOne(ctx, u)
	return err
}

func (s userStore) Update(ctx context.Context, u *models.User) error {
	res, err := s.c.ReplaceOne(ctx, bson.M{"userid": u.UserID}, u)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
