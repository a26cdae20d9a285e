package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/arqlabs/voice-rag-be/config"
	"github.com/arqlabs/voice-rag-be/types"
)

const BATCH_SIZE = 200

var (
	PASSAGE_CLASS        = "Passage"
	PASSAGE_CLASS_OBJECT = &models.Class{
		Class: PASSAGE_CLASS,
		Properties: []*models.Property{
			{Name: "passageId", DataType: []string{"text"}},
			{Name: "documentId", DataType: []string{"text"}},
			{Name: "pageIndex", DataType: []string{"int"}},
			{Name: "content", DataType: []string{"text"}},
			{Name: "charStart", DataType: []string{"int"}},
			{Name: "charEnd", DataType: []string{"int"}},
			{Name: "embedModel", DataType: []string{"text"}},
			{Name: "dimensions", DataType: []string{"int"}},
		},
		Vectorizer:      "none",
		VectorIndexType: "hnsw",
	}
)

// WeaviateStore keeps the passage index in a remote Weaviate instance.
// Vectors are computed by our own embedder and pushed with each object, so
// the class runs with vectorizer "none". Build drops and recreates the
// class, mirroring the full-rebuild contract of the local store.
type WeaviateStore struct {
	client *weaviate.Client

	mu    sync.RWMutex
	meta  IndexMeta
	count int
	ready bool
}

func NewWeaviateStore(cfg config.WeaviateConfig) (*WeaviateStore, error) {
	var scheme string
	if strings.Contains(cfg.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(cfg.Host, scheme+"://")
	wcfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{
			Value: cfg.APIKey,
		}
	}
	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %v", err)
	}

	return &WeaviateStore{client: client}, nil
}

func (s *WeaviateStore) ensureClass(ctx context.Context) error {
	schema, err := s.client.Schema().Getter().Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema: %v", err)
	}
	for _, class := range schema.Classes {
		if class.Class == PASSAGE_CLASS {
			return nil
		}
	}
	if err := s.client.Schema().ClassCreator().WithClass(PASSAGE_CLASS_OBJECT).Do(ctx); err != nil {
		return fmt.Errorf("failed to create Passage class: %v", err)
	}
	return nil
}

// Build drops the Passage class, recreates it, and batch-inserts all
// passages with their vectors.
func (s *WeaviateStore) Build(ctx context.Context, meta IndexMeta, passages []types.Passage, vectors [][]float32) error {
	if len(passages) != len(vectors) {
		return fmt.Errorf("passage/vector count mismatch: %d vs %d", len(passages), len(vectors))
	}

	// ClassDeleter succeeds when the class is absent, so this is safe on
	// first build.
	if err := s.client.Schema().ClassDeleter().WithClassName(PASSAGE_CLASS).Do(ctx); err != nil {
		return fmt.Errorf("failed to delete Passage class: %v", err)
	}
	if err := s.client.Schema().ClassCreator().WithClass(PASSAGE_CLASS_OBJECT).Do(ctx); err != nil {
		return fmt.Errorf("failed to create Passage class: %v", err)
	}

	total := len(passages)
	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}

		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			batcher = batcher.WithObjects(&models.Object{
				Class:      PASSAGE_CLASS,
				Properties: passageProperties(passages[j], meta),
				Vector:     vectors[j],
			})
		}
		if _, err := batcher.Do(ctx); err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %v", i, end, err)
		}
		log.Printf("INDEX: inserted batch %d-%d of %d passages", i, end, total)
	}

	s.mu.Lock()
	s.meta = meta
	s.count = total
	s.ready = true
	s.mu.Unlock()
	return nil
}

// Load verifies the remote class exists and was populated with the expected
// embedding space by sampling one object.
func (s *WeaviateStore) Load(ctx context.Context, expect IndexMeta) error {
	if err := s.ensureClass(ctx); err != nil {
		return fmt.Errorf("%w: %v", types.ErrIndexNotFound, err)
	}

	result, err := s.client.GraphQL().Get().
		WithClassName(PASSAGE_CLASS).
		WithFields(graphql.Field{Name: "embedModel"}, graphql.Field{Name: "dimensions"}).
		WithLimit(1).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrIndexNotFound, err)
	}
	data, ok := result.Data["Get"].(map[string]interface{})[PASSAGE_CLASS].([]interface{})
	if !ok || len(data) == 0 {
		return fmt.Errorf("%w: Passage class is empty", types.ErrIndexNotFound)
	}
	sample := data[0].(map[string]interface{})
	model, _ := sample["embedModel"].(string)
	dims := 0
	if d, ok := sample["dimensions"].(float64); ok {
		dims = int(d)
	}
	if model != expect.Model || dims != expect.Dimensions {
		return fmt.Errorf("%w: index built with %s/%d, configured %s/%d",
			types.ErrIndexConfigMismatch, model, dims, expect.Model, expect.Dimensions)
	}

	count, err := s.countObjects(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrIndexNotFound, err)
	}

	s.mu.Lock()
	s.meta = expect
	s.count = count
	s.ready = true
	s.mu.Unlock()
	return nil
}

// Query runs a nearVector search against the Passage class.
func (s *WeaviateStore) Query(ctx context.Context, vector []float32, k int) ([]types.ScoredPassage, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", types.ErrInvalidQuery)
	}
	s.mu.RLock()
	ready := s.ready
	count := s.count
	s.mu.RUnlock()
	if !ready {
		return nil, types.ErrNotReady
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: index is empty", types.ErrInvalidQuery)
	}

	fields := []graphql.Field{
		{Name: "passageId"},
		{Name: "documentId"},
		{Name: "pageIndex"},
		{Name: "content"},
		{Name: "charStart"},
		{Name: "charEnd"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}, {Name: "distance"}}},
	}
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector)

	result, err := s.client.GraphQL().Get().
		WithClassName(PASSAGE_CLASS).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(k).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %v", err)
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("search failed: %v", result.Errors[0].Message)
	}

	var scored []types.ScoredPassage
	if data, ok := result.Data["Get"].(map[string]interface{})[PASSAGE_CLASS].([]interface{}); ok {
		for _, item := range data {
			doc, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			sp := types.ScoredPassage{
				Passage: types.Passage{
					ID:         asString(doc["passageId"]),
					DocumentID: asString(doc["documentId"]),
					PageIndex:  asInt(doc["pageIndex"]),
					Text:       asString(doc["content"]),
					CharStart:  asInt(doc["charStart"]),
					CharEnd:    asInt(doc["charEnd"]),
				},
			}
			if additional, ok := doc["_additional"].(map[string]interface{}); ok {
				sp.Score = scoreFromAdditional(additional)
			}
			scored = append(scored, sp)
		}
	}
	return scored, nil
}

func (s *WeaviateStore) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *WeaviateStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

func (s *WeaviateStore) countObjects(ctx context.Context) (int, error) {
	result, err := s.client.GraphQL().Aggregate().
		WithClassName(PASSAGE_CLASS).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if result.Errors != nil {
		return 0, fmt.Errorf("aggregate failed: %v", result.Errors[0].Message)
	}
	data, ok := result.Data["Aggregate"].(map[string]interface{})[PASSAGE_CLASS].([]interface{})
	if !ok || len(data) == 0 {
		return 0, nil
	}
	meta, ok := data[0].(map[string]interface{})["meta"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	count, _ := meta["count"].(float64)
	return int(count), nil
}

func passageProperties(p types.Passage, meta IndexMeta) map[string]interface{} {
	return map[string]interface{}{
		"passageId":  p.ID,
		"documentId": p.DocumentID,
		"pageIndex":  p.PageIndex,
		"content":    p.Text,
		"charStart":  p.CharStart,
		"charEnd":    p.CharEnd,
		"embedModel": meta.Model,
		"dimensions": meta.Dimensions,
	}
}

// scoreFromAdditional converts Weaviate's certainty, or its cosine distance
// when certainty is absent, back to cosine similarity so scores are
// comparable with the local store.
func scoreFromAdditional(additional map[string]interface{}) float64 {
	if certainty, ok := additional["certainty"].(float64); ok {
		return certainty*2 - 1
	}
	if distance, ok := additional["distance"].(float64); ok {
		return 1 - distance
	}
	return 0
}

// Helper functions
func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt(v interface{}) int {
	f, _ := v.(float64)
	return int(f)
}
