// Package qdrant provides a vector store on a Qdrant server, reached over gRPC.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// payloadText holds the chunk text; every other payload key is a record attribute.
const payloadText = "text"

// payloadIndexes are the fields Delete and DeleteFrom filter on.
var payloadIndexes = []struct {
	field string
	kind  pb.FieldType
}{
	{domain.MetaDocumentID, pb.FieldType_FieldTypeKeyword},
	{domain.MetaSequenceIndex, pb.FieldType_FieldTypeInteger},
}

// Config configures the qdrant store.
type Config struct {
	// Addr is the gRPC host:port, usually port 6334.
	Addr string

	// Collection is the collection name.
	Collection string
}

// VectorStore implements driven.VectorStore on a qdrant collection.
// The collection is created on first upsert with cosine distance and the
// dimension of the first vector.
type VectorStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string

	mu    sync.Mutex
	ready bool
}

// NewVectorStore connects to qdrant. The connection is established lazily.
func NewVectorStore(cfg Config) (*VectorStore, error) {
	if cfg.Addr == "" || cfg.Collection == "" {
		return nil, fmt.Errorf("%w: qdrant needs an address and a collection", domain.ErrInvalidConfig)
	}
	conn, err := grpc.NewClient(cfg.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant connect: %w", domain.ErrVectorStore, err)
	}
	s := newVectorStore(pb.NewPointsClient(conn), pb.NewCollectionsClient(conn), cfg.Collection)
	s.conn = conn
	return s, nil
}

func newVectorStore(points pb.PointsClient, collections pb.CollectionsClient, collection string) *VectorStore {
	return &VectorStore{
		points:      points,
		collections: collections,
		collection:  collection,
	}
}

// Upsert stores or replaces records by ID.
func (s *VectorStore) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, len(records[0].Vector)); err != nil {
		return err
	}

	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		points[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: r.Vector}}},
			Payload: toPayload(r),
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return classify("upsert", err)
	}
	return nil
}

// Query returns the topK most similar records that match filter.
func (s *VectorStore) Query(ctx context.Context, vector []float32, topK int, filter domain.Filter) ([]domain.ScoredRecord, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidArgument, topK)
	}
	exists, err := s.collectionExists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	qf, err := buildFilter(filter)
	if err != nil {
		return nil, err
	}
	// Equal scores come back in no fixed order, so the ranking over-fetches
	// until the cutoff tie is fully included.
	return domain.RankWithTies(topK, 0, func(n int) ([]domain.ScoredRecord, error) {
		resp, err := s.points.Search(ctx, &pb.SearchPoints{
			CollectionName: s.collection,
			Vector:         vector,
			Limit:          uint64(n),
			Filter:         qf,
			WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		})
		if err != nil {
			return nil, classify("search", err)
		}

		results := make([]domain.ScoredRecord, 0, len(resp.GetResult()))
		for _, pt := range resp.GetResult() {
			results = append(results, domain.ScoredRecord{
				Record: fromPayload(pt.GetId().GetUuid(), pt.GetPayload()),
				Score:  pt.GetScore(),
			})
		}
		return results, nil
	})
}

// Delete removes every record of a document.
func (s *VectorStore) Delete(ctx context.Context, documentID string) error {
	return s.deleteWhere(ctx, &pb.Filter{Must: []*pb.Condition{keywordCondition(domain.MetaDocumentID, documentID)}})
}

// DeleteFrom removes the records of a document at or after fromIndex.
func (s *VectorStore) DeleteFrom(ctx context.Context, documentID string, fromIndex int) error {
	gte := float64(fromIndex)
	return s.deleteWhere(ctx, &pb.Filter{Must: []*pb.Condition{
		keywordCondition(domain.MetaDocumentID, documentID),
		{ConditionOneOf: &pb.Condition_Field{Field: &pb.FieldCondition{
			Key:   domain.MetaSequenceIndex,
			Range: &pb.Range{Gte: &gte},
		}}},
	}})
}

// Close closes the gRPC connection.
func (s *VectorStore) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *VectorStore) deleteWhere(ctx context.Context, f *pb.Filter) error {
	exists, err := s.collectionExists(ctx)
	if err != nil || !exists {
		return err
	}
	wait := true
	_, err = s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         &pb.PointsSelector{PointsSelectorOneOf: &pb.PointsSelector_Filter{Filter: f}},
	})
	if err != nil {
		return classify("delete", err)
	}
	return nil
}

func (s *VectorStore) collectionExists(ctx context.Context) (bool, error) {
	s.mu.Lock()
	ready := s.ready
	s.mu.Unlock()
	if ready {
		return true, nil
	}

	resp, err := s.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{CollectionName: s.collection})
	if err != nil {
		return false, classify("collection exists", err)
	}
	exists := resp.GetResult().GetExists()
	if exists {
		s.mu.Lock()
		s.ready = true
		s.mu.Unlock()
	}
	return exists, nil
}

func (s *VectorStore) ensureCollection(ctx context.Context, dims int) error {
	exists, err := s.collectionExists(ctx)
	if err != nil || exists {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	logger.Debug("qdrant: creating collection %s with %d dimensions", s.collection, dims)
	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{Config: &pb.VectorsConfig_Params{Params: &pb.VectorParams{
			Size:     uint64(dims),
			Distance: pb.Distance_Cosine,
		}}},
	})
	switch {
	case err == nil:
		s.createIndexes(ctx)
	case status.Code(err) != codes.AlreadyExists:
		return classify("create collection", err)
	}
	s.ready = true
	return nil
}

// createIndexes indexes the filter fields of a new collection. A failure
// only costs filter speed, so it is logged rather than returned.
func (s *VectorStore) createIndexes(ctx context.Context) {
	wait := true
	for _, idx := range payloadIndexes {
		kind := idx.kind
		_, err := s.points.CreateFieldIndex(ctx, &pb.CreateFieldIndexCollection{
			CollectionName: s.collection,
			Wait:           &wait,
			FieldName:      idx.field,
			FieldType:      &kind,
		})
		if err != nil {
			logger.Warn("qdrant: indexing %s on %s: %v", idx.field, s.collection, err)
		}
	}
}

// toPayload stores every attribute as a keyword, except sequence_index which
// is an integer so DeleteFrom can range over it.
func toPayload(r domain.VectorRecord) map[string]*pb.Value {
	attrs := r.Attributes()
	payload := make(map[string]*pb.Value, len(attrs)+1)
	for k, v := range attrs {
		payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
	}
	payload[domain.MetaSequenceIndex] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(r.SequenceIndex)}}
	payload[payloadText] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: r.Text}}
	return payload
}

func fromPayload(id string, payload map[string]*pb.Value) domain.VectorRecord {
	rec := domain.VectorRecord{ID: id, Metadata: make(map[string]string)}
	for k, v := range payload {
		switch k {
		case payloadText:
			rec.Text = v.GetStringValue()
		case domain.MetaDocumentID:
			rec.DocumentID = v.GetStringValue()
		case domain.MetaSequenceIndex:
			rec.SequenceIndex = int(v.GetIntegerValue())
		case domain.MetaExtractedAt:
			rec.ExtractedAt, _ = time.Parse(time.RFC3339Nano, v.GetStringValue())
		default:
			rec.Metadata[k] = v.GetStringValue()
		}
	}
	return rec
}

// buildFilter turns an equality filter into qdrant must-conditions.
func buildFilter(f domain.Filter) (*pb.Filter, error) {
	if len(f) == 0 {
		return nil, nil
	}
	conds := make([]*pb.Condition, 0, len(f))
	for k, v := range f {
		if k != domain.MetaSequenceIndex {
			conds = append(conds, keywordCondition(k, v))
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s filter must be an integer, got %q", domain.ErrInvalidArgument, k, v)
		}
		conds = append(conds, &pb.Condition{ConditionOneOf: &pb.Condition_Field{Field: &pb.FieldCondition{
			Key:   k,
			Match: &pb.Match{MatchValue: &pb.Match_Integer{Integer: n}},
		}}})
	}
	return &pb.Filter{Must: conds}, nil
}

func keywordCondition(key, value string) *pb.Condition {
	return &pb.Condition{ConditionOneOf: &pb.Condition_Field{Field: &pb.FieldCondition{
		Key:   key,
		Match: &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: value}},
	}}}
}

// classify wraps a gRPC error as a vector store failure, marking
// unavailability and exhaustion as transient.
func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	wrapped := fmt.Errorf("%w: qdrant %s: %w", domain.ErrVectorStore, op, err)
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Aborted:
		return domain.Transient(wrapped)
	case codes.InvalidArgument:
		if strings.Contains(err.Error(), "dimension") {
			return fmt.Errorf("%w: %w", wrapped, domain.ErrDimensionMismatch)
		}
	}
	return wrapped
}
