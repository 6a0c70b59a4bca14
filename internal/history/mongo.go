package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/contextcli/context-cli/internal/types"
)

// MongoStore keeps audit history in MongoDB for teams sharing one archive
// across machines or CI runners. Ids stay monotonic through a counters
// document updated atomically with $inc.
type MongoStore struct {
	client   *mongo.Client
	audits   *mongo.Collection
	counters *mongo.Collection
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
}

type mongoAudit struct {
	ID           int64     `bson:"_id"`
	URL          string    `bson:"url"`
	Timestamp    time.Time `bson:"timestamp"`
	Overall      float64   `bson:"overall_score"`
	RobotsScore  float64   `bson:"robots_score"`
	LlmsScore    float64   `bson:"llms_score"`
	SchemaScore  float64   `bson:"schema_score"`
	ContentScore float64   `bson:"content_score"`
	ReportBlob   string    `bson:"report_blob"`
}

// NewMongoStore connects to uri and prepares the audit collections in the
// given database.
func NewMongoStore(ctx context.Context, uri, database string, logger *slog.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &types.StoreError{Backend: "mongo", Err: fmt.Errorf("connect: %w", err)}
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, &types.StoreError{Backend: "mongo", Err: fmt.Errorf("ping: %w", err)}
	}

	db := client.Database(database)
	audits := db.Collection("audits")

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "url", Value: 1}}},
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
	}
	if _, err := audits.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warn("index creation failed, continuing", "error", err)
	}

	return &MongoStore{
		client:   client,
		audits:   audits,
		counters: db.Collection("counters"),
		logger:   logger.With("component", "history", "backend", "mongo"),
	}, nil
}

// nextID atomically increments the audit id counter.
func (s *MongoStore) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "audits"},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next id: %w", err)
	}
	return counter.Seq, nil
}

func (s *MongoStore) Save(ctx context.Context, report *types.AuditReport) (int64, error) {
	if s.isClosed() {
		return 0, types.ErrStoreClosed
	}

	blob, err := json.Marshal(report)
	if err != nil {
		return 0, &types.StoreError{Backend: "mongo", Err: fmt.Errorf("encode report: %w", err)}
	}

	id, err := s.nextID(ctx)
	if err != nil {
		return 0, &types.StoreError{Backend: "mongo", Err: err}
	}

	scores := report.Scores()
	doc := mongoAudit{
		ID:           id,
		URL:          report.URL,
		Timestamp:    time.Now().UTC(),
		Overall:      scores.Overall,
		RobotsScore:  scores.Robots,
		LlmsScore:    scores.LlmsTxt,
		SchemaScore:  scores.SchemaOrg,
		ContentScore: scores.Content,
		ReportBlob:   string(blob),
	}
	if _, err := s.audits.InsertOne(ctx, doc); err != nil {
		return 0, &types.StoreError{Backend: "mongo", Err: fmt.Errorf("insert audit: %w", err)}
	}

	s.logger.Debug("audit saved", "id", id, "url", report.URL)
	return id, nil
}

func (s *MongoStore) ListEntries(ctx context.Context, url string, limit int) ([]types.HistoryEntry, error) {
	if s.isClosed() {
		return nil, types.ErrStoreClosed
	}

	filter := bson.M{}
	if url != "" {
		filter["url"] = url
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.audits.Find(ctx, filter, opts)
	if err != nil {
		return nil, &types.StoreError{Backend: "mongo", Err: fmt.Errorf("list entries: %w", err)}
	}
	defer cursor.Close(ctx)

	var entries []types.HistoryEntry
	for cursor.Next(ctx) {
		var doc mongoAudit
		if err := cursor.Decode(&doc); err != nil {
			return nil, &types.StoreError{Backend: "mongo", Err: err}
		}
		entries = append(entries, doc.entry())
	}
	return entries, cursor.Err()
}

func (s *MongoStore) GetReport(ctx context.Context, id int64) (*types.AuditReport, error) {
	if s.isClosed() {
		return nil, types.ErrStoreClosed
	}

	var doc mongoAudit
	err := s.audits.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, &types.StoreError{Backend: "mongo", Err: fmt.Errorf("get report %d: %w", id, err)}
	}
	return decodeReport(doc.ReportBlob)
}

func (s *MongoStore) GetLatest(ctx context.Context, url string) (*types.HistoryEntry, error) {
	doc, err := s.latestDoc(ctx, url)
	if err != nil {
		return nil, err
	}
	entry := doc.entry()
	return &entry, nil
}

func (s *MongoStore) GetLatestReport(ctx context.Context, url string) (*types.AuditReport, error) {
	doc, err := s.latestDoc(ctx, url)
	if err != nil {
		return nil, err
	}
	return decodeReport(doc.ReportBlob)
}

func (s *MongoStore) latestDoc(ctx context.Context, url string) (*mongoAudit, error) {
	if s.isClosed() {
		return nil, types.ErrStoreClosed
	}

	var doc mongoAudit
	err := s.audits.FindOne(ctx, bson.M{"url": url},
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrNoHistory
	}
	if err != nil {
		return nil, &types.StoreError{Backend: "mongo", Err: fmt.Errorf("latest for %s: %w", url, err)}
	}
	return &doc, nil
}

func (s *MongoStore) DeleteURL(ctx context.Context, url string) (int64, error) {
	if s.isClosed() {
		return 0, types.ErrStoreClosed
	}

	res, err := s.audits.DeleteMany(ctx, bson.M{"url": url})
	if err != nil {
		return 0, &types.StoreError{Backend: "mongo", Err: fmt.Errorf("delete %s: %w", url, err)}
	}
	return res.DeletedCount, nil
}

// Close disconnects from MongoDB. Calling it twice is a no-op.
func (s *MongoStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (d *mongoAudit) entry() types.HistoryEntry {
	return types.HistoryEntry{
		ID:             d.ID,
		URL:            d.URL,
		Timestamp:      d.Timestamp.UTC(),
		OverallScore:   d.Overall,
		RobotsScore:    d.RobotsScore,
		LlmsTxtScore:   d.LlmsScore,
		SchemaOrgScore: d.SchemaScore,
		ContentScore:   d.ContentScore,
	}
}
