package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	defaultCollection = "document_embeddings"
	upsertBatchSize   = 100

	payloadText       = "text"
	payloadChunkID    = "chunk_id"
	payloadDocumentID = "document_id"
	payloadIndex      = "chunk_index"
	payloadStart      = "start"
	payloadEnd        = "end"
	payloadMetadata   = "metadata"
)

// Store implements storage.VectorStore on a Qdrant collection using
// cosine distance.
type Store struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	collection  string
	dimension   uint64
	logger      *slog.Logger
}

var _ storage.VectorStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

// WithCollection sets the collection name. Default is "document_embeddings".
func WithCollection(name string) Option {
	return func(s *Store) error {
		if name == "" {
			return fmt.Errorf("qdrant: collection name required")
		}
		s.collection = name
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "qdrant-store")
		return nil
	}
}

// Dial connects to the Qdrant gRPC endpoint at addr (host:port) and makes
// sure the collection exists with the given vector dimension.
func Dial(ctx context.Context, addr string, dimension int, opts ...Option) (*Store, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant: connect %s: %w", addr, err)
	}
	s, err := New(qdrantclient.NewCollectionsClient(conn), qdrantclient.NewPointsClient(conn), dimension, opts...)
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.conn = conn
	if err := s.EnsureCollection(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// New creates a Store from existing gRPC clients.
func New(collections qdrantclient.CollectionsClient, points qdrantclient.PointsClient, dimension int, opts ...Option) (*Store, error) {
	if collections == nil || points == nil {
		return nil, fmt.Errorf("qdrant: clients required")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("qdrant: dimension must be positive, got %d", dimension)
	}
	s := &Store{
		collections: collections,
		points:      points,
		collection:  defaultCollection,
		dimension:   uint64(dimension),
		logger:      slog.Default().With("component", "qdrant-store"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// EnsureCollection creates the collection if it does not exist yet.
func (s *Store) EnsureCollection(ctx context.Context) error {
	resp, err := s.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("qdrant: list collections: %w", err)
	}
	for _, col := range resp.GetCollections() {
		if col.GetName() == s.collection {
			return nil
		}
	}

	s.logger.Info("creating collection", "collection", s.collection, "dimension", s.dimension)
	_, err = s.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     s.dimension,
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant: create collection: %w", err)
	}
	return nil
}

// UpsertAll writes embedded chunks in batches. Point ids are derived from
// chunk ids so re-ingesting a document overwrites its previous points.
func (s *Store) UpsertAll(ctx context.Context, chunks []*core.Chunk) error {
	wait := true
	for batch := range slices.Chunk(chunks, upsertBatchSize) {
		points := make([]*qdrantclient.PointStruct, 0, len(batch))
		for _, chunk := range batch {
			if len(chunk.Vector) == 0 {
				return storage.ErrMissingVector
			}
			if uint64(len(chunk.Vector)) != s.dimension {
				return fmt.Errorf("%w: chunk %s has %d, collection has %d",
					storage.ErrDimensionMismatch, chunk.ID, len(chunk.Vector), s.dimension)
			}
			points = append(points, toPoint(chunk))
		}

		s.logger.Debug("upserting points", "count", len(points))
		_, err := s.points.Upsert(ctx, &qdrantclient.UpsertPoints{
			CollectionName: s.collection,
			Wait:           &wait,
			Points:         points,
		})
		if err != nil {
			return fmt.Errorf("qdrant: upsert: %w", err)
		}
	}
	return nil
}

// Search runs a similarity query with a score threshold.
func (s *Store) Search(ctx context.Context, vector []float32, topK int, minScore float32) ([]*core.ScoredChunk, error) {
	if len(vector) == 0 || topK <= 0 {
		return nil, storage.ErrInvalidQuery
	}
	threshold := minScore
	resp, err := s.points.Search(ctx, &qdrantclient.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(topK),
		ScoreThreshold: &threshold,
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search: %w", err)
	}

	results := make([]*core.ScoredChunk, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		results = append(results, &core.ScoredChunk{
			Chunk: fromPayload(point.GetPayload()),
			Score: point.GetScore(),
		})
	}
	return results, nil
}

// DeleteDocumentChunks deletes the points of documentID whose chunk index
// is fromIndex or greater.
func (s *Store) DeleteDocumentChunks(ctx context.Context, documentID string, fromIndex int) error {
	wait := true
	from := float64(fromIndex)
	_, err := s.points.Delete(ctx, &qdrantclient.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: &qdrantclient.PointsSelector{
			PointsSelectorOneOf: &qdrantclient.PointsSelector_Filter{
				Filter: &qdrantclient.Filter{
					Must: []*qdrantclient.Condition{
						fieldCondition(&qdrantclient.FieldCondition{
							Key: payloadDocumentID,
							Match: &qdrantclient.Match{
								MatchValue: &qdrantclient.Match_Keyword{Keyword: documentID},
							},
						}),
						fieldCondition(&qdrantclient.FieldCondition{
							Key:   payloadIndex,
							Range: &qdrantclient.Range{Gte: &from},
						}),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete chunks of %s: %w", documentID, err)
	}
	return nil
}

// Close closes the gRPC connection if the store owns one.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func toPoint(chunk *core.Chunk) *qdrantclient.PointStruct {
	meta := make(map[string]*qdrantclient.Value, len(chunk.Metadata))
	for k, v := range chunk.Metadata {
		meta[k] = stringValue(v)
	}
	return &qdrantclient.PointStruct{
		Id: &qdrantclient.PointId{
			PointIdOptions: &qdrantclient.PointId_Num{Num: uint64(core.IDFromContent(chunk.ID))},
		},
		Vectors: &qdrantclient.Vectors{
			VectorsOptions: &qdrantclient.Vectors_Vector{
				Vector: &qdrantclient.Vector{Data: chunk.Vector},
			},
		},
		Payload: map[string]*qdrantclient.Value{
			payloadText:       stringValue(chunk.Text),
			payloadChunkID:    stringValue(chunk.ID),
			payloadDocumentID: stringValue(chunk.DocumentID),
			payloadIndex:      intValue(chunk.Index),
			payloadStart:      intValue(chunk.Start),
			payloadEnd:        intValue(chunk.End),
			payloadMetadata: {Kind: &qdrantclient.Value_StructValue{
				StructValue: &qdrantclient.Struct{Fields: meta},
			}},
		},
	}
}

func fromPayload(payload map[string]*qdrantclient.Value) *core.Chunk {
	chunk := &core.Chunk{
		ID:         payload[payloadChunkID].GetStringValue(),
		DocumentID: payload[payloadDocumentID].GetStringValue(),
		Index:      int(payload[payloadIndex].GetIntegerValue()),
		Text:       payload[payloadText].GetStringValue(),
		Start:      int(payload[payloadStart].GetIntegerValue()),
		End:        int(payload[payloadEnd].GetIntegerValue()),
		Metadata:   map[string]string{},
	}
	for k, v := range payload[payloadMetadata].GetStructValue().GetFields() {
		chunk.Metadata[k] = v.GetStringValue()
	}
	return chunk
}

func fieldCondition(field *qdrantclient.FieldCondition) *qdrantclient.Condition {
	return &qdrantclient.Condition{ConditionOneOf: &qdrantclient.Condition_Field{Field: field}}
}

func stringValue(s string) *qdrantclient.Value {
	return &qdrantclient.Value{Kind: &qdrantclient.Value_StringValue{StringValue: s}}
}

func intValue(i int) *qdrantclient.Value {
	return &qdrantclient.Value{Kind: &qdrantclient.Value_IntegerValue{IntegerValue: int64(i)}}
}
