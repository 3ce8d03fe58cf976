// Package db implements the Persistence collaborator (§6): a Mongo-backed
// relational-shaped store (Graphs / kmers_<id> / edges_<id>) fronted by a
// Redis read-through cache for the two operations the CLI calls most often
// on a cold path, exists and list — the same cache-in-front-of-a-slow-
// backend shape the teacher uses in pkg/cache, applied here to a remote
// store instead of local files.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sbp-tools/sbp/pkg/core/graph"
	"github.com/sbp-tools/sbp/pkg/core/index"
	sbperrors "github.com/sbp-tools/sbp/pkg/errors"
)

// existsCacheTTL and listCacheKey bound how stale the Redis-fronted
// exists/list views may be; a write always invalidates both explicitly, so
// this only matters if a Redis restart loses the invalidation.
const (
	existsCacheTTL = 5 * time.Minute
	listCacheKey   = "sbp:graphs:list"
)

// graphDoc backs the Graphs(id, name unique) table. RunID records which
// pipeline run produced the graph, so rows from concurrent CLI invocations
// against the same database don't collide in logs or audits.
type graphDoc struct {
	Name  string `bson:"name"`
	RunID string `bson:"run_id,omitempty"`
}

// kmerDoc backs one row of kmers_<id>(node_id, kmer).
type kmerDoc struct {
	NodeID int    `bson:"node_id"`
	Kmer   string `bson:"kmer"`
}

// edgeDoc backs one row of edges_<id>(from, to, weight).
type edgeDoc struct {
	From   int    `bson:"from"`
	To     int    `bson:"to"`
	Weight uint64 `bson:"weight"`
}

// Store is the Persistence collaborator: Mongo is the system of record,
// Redis caches exists/list lookups.
type Store struct {
	mongo  *mongo.Client
	db     *mongo.Database
	redis  *redis.Client
	logger *log.Logger
}

// Config holds the two backend addresses. MongoURI is required; RedisAddr
// may be empty, in which case Redis is left unconnected.
type Config struct {
	MongoURI  string
	Database  string
	RedisAddr string
}

// Open connects to Mongo (required) and Redis (optional; a read-through
// cache degrades to always-miss without it).
func Open(ctx context.Context, cfg Config, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, sbperrors.Wrap(sbperrors.CodeIOError, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, sbperrors.Wrap(sbperrors.CodeIOError, err, "ping mongo")
	}

	s := &Store{mongo: client, db: client.Database(cfg.Database), logger: logger}
	if cfg.RedisAddr != "" {
		s.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	return s, nil
}

// Close releases the Mongo and Redis connections.
func (s *Store) Close(ctx context.Context) error {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			return err
		}
	}
	return s.mongo.Disconnect(ctx)
}

func (s *Store) graphs() *mongo.Collection { return s.db.Collection("graphs") }
func kmersCollection(id string) string     { return "kmers_" + id }
func edgesCollection(id string) string     { return "edges_" + id }

// Create inserts a new Graphs row and returns its generated id. Fails with
// bad-input if name is already taken. runID is the pipeline run that
// produced the graph, recorded alongside the row for audit purposes; pass
// "" when the caller has no run in progress.
func (s *Store) Create(ctx context.Context, name, runID string) (string, error) {
	exists, err := s.Exists(ctx, name)
	if err != nil {
		return "", err
	}
	if exists {
		return "", sbperrors.New(sbperrors.CodeBadInput, "graph %q already exists", name)
	}

	res, err := s.graphs().InsertOne(ctx, graphDoc{Name: name, RunID: runID})
	if err != nil {
		return "", sbperrors.Wrap(sbperrors.CodeIOError, err, "create graph %q", name)
	}
	id := res.InsertedID.(fmt.Stringer)
	idStr := fmt.Sprint(id)
	s.invalidateListCache(ctx)
	if s.redis != nil {
		s.redis.Del(ctx, existsCacheKey(name))
	}
	return idStr, nil
}

// Remove deletes a Graphs row and its kmers_<id>/edges_<id> collections.
func (s *Store) Remove(ctx context.Context, name string) error {
	id, err := s.idOf(ctx, name)
	if err != nil {
		return err
	}

	if _, err := s.graphs().DeleteOne(ctx, bson.M{"name": name}); err != nil {
		return sbperrors.Wrap(sbperrors.CodeIOError, err, "remove graph %q", name)
	}
	if err := s.db.Collection(kmersCollection(id)).Drop(ctx); err != nil {
		return sbperrors.Wrap(sbperrors.CodeIOError, err, "drop kmers for %q", name)
	}
	if err := s.db.Collection(edgesCollection(id)).Drop(ctx); err != nil {
		return sbperrors.Wrap(sbperrors.CodeIOError, err, "drop edges for %q", name)
	}

	s.invalidateListCache(ctx)
	if s.redis != nil {
		s.redis.Del(ctx, existsCacheKey(name))
	}
	return nil
}

// Exists reports whether a graph named name is persisted, consulting Redis
// before Mongo.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	key := existsCacheKey(name)
	if s.redis != nil {
		if v, err := s.redis.Get(ctx, key).Result(); err == nil {
			return v == "1", nil
		}
	}

	count, err := s.graphs().CountDocuments(ctx, bson.M{"name": name})
	if err != nil {
		return false, sbperrors.Wrap(sbperrors.CodeIOError, err, "check existence of %q", name)
	}
	exists := count > 0

	if s.redis != nil {
		val := "0"
		if exists {
			val = "1"
		}
		s.redis.Set(ctx, key, val, existsCacheTTL)
	}
	return exists, nil
}

// List returns every persisted graph name, consulting Redis before Mongo.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if s.redis != nil {
		if v, err := s.redis.LRange(ctx, listCacheKey, 0, -1).Result(); err == nil && len(v) > 0 {
			return v, nil
		}
	}

	cur, err := s.graphs().Find(ctx, bson.M{})
	if err != nil {
		return nil, sbperrors.Wrap(sbperrors.CodeIOError, err, "list graphs")
	}
	defer cur.Close(ctx)

	var names []string
	for cur.Next(ctx) {
		var doc graphDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, sbperrors.Wrap(sbperrors.CodeIOError, err, "decode graph document")
		}
		names = append(names, doc.Name)
	}

	if s.redis != nil && len(names) > 0 {
		s.redis.Del(ctx, listCacheKey)
		s.redis.RPush(ctx, listCacheKey, toAny(names)...)
	}
	return names, nil
}

// WriteGraph persists an indexed id-graph as a new named graph in one Mongo
// transaction: the Graphs row, every kmers_<id> row, and every edges_<id>
// row commit together or not at all, matching §6's "all writes in one
// stage are wrapped in a single transaction" rule. runID is the producing
// pipeline run's trace id (see pipeline.Runner.Execute); it is stamped onto
// the Graphs row so rows from concurrent CLI invocations against the same
// database stay attributable in logs.
func (s *Store) WriteGraph(ctx context.Context, name, runID string, ix *index.Index, g *graph.MultiDigraph[int]) (id string, err error) {
	session, err := s.mongo.StartSession()
	if err != nil {
		return "", sbperrors.Wrap(sbperrors.CodeIOError, err, "start mongo session")
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		newID, err := s.Create(sc, name, runID)
		if err != nil {
			return nil, err
		}

		kmers := s.db.Collection(kmersCollection(newID))
		for nid := 0; nid < ix.Len(); nid++ {
			label, _ := ix.LabelOf(nid)
			if _, err := kmers.InsertOne(sc, kmerDoc{NodeID: nid, Kmer: label}); err != nil {
				return nil, sbperrors.Wrap(sbperrors.CodeIOError, err, "insert kmer row")
			}
		}

		edges := s.db.Collection(edgesCollection(newID))
		for _, u := range g.Vertices() {
			children, _ := g.Children(u)
			for _, v := range children {
				w, _ := g.WeightOf(u, v)
				if _, err := edges.InsertOne(sc, edgeDoc{From: u, To: v, Weight: w}); err != nil {
					return nil, sbperrors.Wrap(sbperrors.CodeIOError, err, "insert edge row")
				}
			}
		}

		return newID, nil
	})
	if err != nil {
		return "", err
	}

	id = result.(string)
	s.logger.Info("persisted graph", "name", name, "id", id, "run_id", runID, "kmers", ix.Len(), "vertices", g.VertexCount())
	return id, nil
}

// LoadGraph rebuilds the id-graph (and its index, if the graph was built
// from k-mers) named name from Mongo.
func (s *Store) LoadGraph(ctx context.Context, name string) (*index.Index, *graph.MultiDigraph[int], error) {
	id, err := s.idOf(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	ix := index.NewIndex()
	kmerCur, err := s.db.Collection(kmersCollection(id)).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "node_id", Value: 1}}))
	if err != nil {
		return nil, nil, sbperrors.Wrap(sbperrors.CodeIOError, err, "load kmers for %q", name)
	}
	defer kmerCur.Close(ctx)
	for kmerCur.Next(ctx) {
		var doc kmerDoc
		if err := kmerCur.Decode(&doc); err != nil {
			return nil, nil, sbperrors.Wrap(sbperrors.CodeIOError, err, "decode kmer row")
		}
		ix.Insert(doc.Kmer)
	}

	g := graph.New[int]()
	for i := 0; i < ix.Len(); i++ {
		g.AddVertex(i)
	}

	edgeCur, err := s.db.Collection(edgesCollection(id)).Find(ctx, bson.M{})
	if err != nil {
		return nil, nil, sbperrors.Wrap(sbperrors.CodeIOError, err, "load edges for %q", name)
	}
	defer edgeCur.Close(ctx)
	for edgeCur.Next(ctx) {
		var doc edgeDoc
		if err := edgeCur.Decode(&doc); err != nil {
			return nil, nil, sbperrors.Wrap(sbperrors.CodeIOError, err, "decode edge row")
		}
		if err := g.AddEdgeWeighted(doc.From, doc.To, doc.Weight); err != nil {
			return nil, nil, err
		}
	}

	return ix, g, nil
}

func (s *Store) idOf(ctx context.Context, name string) (string, error) {
	var doc struct {
		ID interface{} `bson:"_id"`
	}
	if err := s.graphs().FindOne(ctx, bson.M{"name": name}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return "", sbperrors.New(sbperrors.CodeBadInput, "graph %q not found", name)
		}
		return "", sbperrors.Wrap(sbperrors.CodeIOError, err, "look up graph %q", name)
	}
	return fmt.Sprint(doc.ID), nil
}

func (s *Store) invalidateListCache(ctx context.Context) {
	if s.redis != nil {
		s.redis.Del(ctx, listCacheKey)
	}
}

func existsCacheKey(name string) string { return "sbp:graphs:exists:" + name }

func toAny(names []string) []interface{} {
	out := make([]interface{}, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}
