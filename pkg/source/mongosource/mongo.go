// Package mongosource serves pages from a MongoDB collection.
//
// Each document carries a monotonically increasing seq field assigned by
// [Source.Seed]; pages are keyset-paginated on it, with the cursor holding
// the seq of the previous page's last item.
package mongosource

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	ferrors "github.com/matzehuels/flashlight/pkg/errors"
	"github.com/matzehuels/flashlight/pkg/grid/tile"
	"github.com/matzehuels/flashlight/pkg/source"
)

// Config configures [Connect].
type Config struct {
	URI        string
	Database   string
	Collection string
}

// SetDefaults fills in the database and collection names.
func (c *Config) SetDefaults() {
	if c.Database == "" {
		c.Database = "flashlight"
	}
	if c.Collection == "" {
		c.Collection = "items"
	}
}

// Source is a [source.Source] backed by MongoDB.
type Source struct {
	client *mongo.Client
	coll   *mongo.Collection
	name   string
}

var _ source.Source = (*Source)(nil)

type itemDoc struct {
	Seq         int64   `bson:"seq"`
	ID          string  `bson:"id"`
	AspectRatio float64 `bson:"aspect_ratio"`
	Kind        string  `bson:"kind"`
	Payload     string  `bson:"payload,omitempty"`
}

func toDoc(seq int64, it tile.Item) itemDoc {
	it = it.Normalize()
	return itemDoc{Seq: seq, ID: it.ID, AspectRatio: it.AspectRatio, Kind: string(it.Kind), Payload: string(it.Payload)}
}

func (d itemDoc) item() tile.Item {
	it := tile.Item{ID: d.ID, AspectRatio: d.AspectRatio, Kind: tile.Kind(d.Kind)}
	if d.Payload != "" {
		it.Payload = []byte(d.Payload)
	}
	return it
}

// Connect dials MongoDB and ensures the collection's indexes.
func Connect(ctx context.Context, cfg Config) (*Source, error) {
	cfg.SetDefaults()
	if cfg.URI == "" {
		return nil, ferrors.New(ferrors.ErrCodeInvalidSource, "mongo: uri is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "seq", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: create indexes: %w", err)
	}
	return &Source{
		client: client,
		coll:   coll,
		name:   "mongo:" + cfg.Database + "." + cfg.Collection,
	}, nil
}

// Name implements [source.Source].
func (s *Source) Name() string { return s.name }

// Close disconnects the client.
func (s *Source) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

// Drop removes the collection.
func (s *Source) Drop(ctx context.Context) error { return s.coll.Drop(ctx) }

// Seed appends items after the current highest seq.
func (s *Source) Seed(ctx context.Context, items []tile.Item) (int, error) {
	if err := tile.ValidateItems(items); err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}

	var last itemDoc
	err := s.coll.FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}})).Decode(&last)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("mongo: find last seq: %w", err)
	}

	docs := make([]any, len(items))
	for i, it := range items {
		docs[i] = toDoc(last.Seq+int64(i)+1, it)
	}
	res, err := s.coll.InsertMany(ctx, docs)
	if err != nil {
		n := 0
		if res != nil {
			n = len(res.InsertedIDs)
		}
		return n, fmt.Errorf("mongo: insert: %w", err)
	}
	return len(res.InsertedIDs), nil
}

// Page implements [source.Source].
func (s *Source) Page(ctx context.Context, cursor string, limit int) (source.Page, error) {
	limit, err := source.ValidateLimit(limit)
	if err != nil {
		return source.Page{}, err
	}
	after, err := parseSeq(cursor)
	if err != nil {
		return source.Page{}, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "seq", Value: 1}}).
		SetLimit(int64(limit + 1))
	cur, err := s.coll.Find(ctx, bson.M{"seq": bson.M{"$gt": after}}, opts)
	if err != nil {
		return source.Page{}, ferrors.Wrap(ferrors.ErrCodeFetchFailed, err, "mongo: find")
	}
	var docs []itemDoc
	if err := cur.All(ctx, &docs); err != nil {
		return source.Page{}, ferrors.Wrap(ferrors.ErrCodeFetchFailed, err, "mongo: decode")
	}
	return pageOf(docs, limit), nil
}

// pageOf turns up to limit+1 documents into a page.
func pageOf(docs []itemDoc, limit int) source.Page {
	var page source.Page
	more := len(docs) > limit
	if more {
		docs = docs[:limit]
	}
	for _, d := range docs {
		page.Items = append(page.Items, d.item())
	}
	if more {
		page.Next = source.Next(strconv.FormatInt(docs[len(docs)-1].Seq, 10))
	}
	return page
}

func parseSeq(cursor string) (int64, error) {
	if cursor == "" {
		return 0, nil
	}
	seq, err := strconv.ParseInt(cursor, 10, 64)
	if err != nil || seq < 0 {
		return 0, ferrors.New(ferrors.ErrCodeInvalidCursor, "invalid cursor %q", cursor)
	}
	return seq, nil
}
