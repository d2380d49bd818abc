package vectorstore

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"

	"betterresume/internal/config"
	"betterresume/internal/logging"
)

// Document is a single record to be stored for similarity search
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Result is a single similarity search hit
type Result struct {
	ID         string
	Content    string
	Similarity float32
	Metadata   map[string]string
}

// Store holds user experience records in an embedded vector database. Every
// user gets an isolated collection; queries never cross user boundaries.
type Store struct {
	db          *chromem.DB
	embedFunc   chromem.EmbeddingFunc
	topK        int
	maxDocChars int

	mu          sync.RWMutex
	collections map[string]*chromem.Collection
}

// NewStore creates a vector store from configuration. With a persist path the
// database survives restarts; otherwise it lives in memory.
func NewStore(cfg *config.Config) (*Store, error) {
	return newStore(cfg, NewEmbeddingFunc(cfg))
}

// NewStoreWithEmbedding creates a vector store with a custom embedding
// function.
func NewStoreWithEmbedding(cfg *config.Config, embedFunc chromem.EmbeddingFunc) (*Store, error) {
	return newStore(cfg, embedFunc)
}

func newStore(cfg *config.Config, embedFunc chromem.EmbeddingFunc) (*Store, error) {
	logger := logging.GetGlobalLogger()

	var db *chromem.DB
	var err error

	if cfg.VectorStore.PersistPath != "" {
		if err := os.MkdirAll(cfg.VectorStore.PersistPath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create vector store directory: %w", err)
		}

		db, err = chromem.NewPersistentDB(cfg.VectorStore.PersistPath, cfg.VectorStore.Compress)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector database: %w", err)
		}
		logger.Info("Opened persistent vector database", map[string]interface{}{
			"path": cfg.VectorStore.PersistPath,
		})
	} else {
		db = chromem.NewDB()
		logger.Info("Created in-memory vector database")
	}

	topK := cfg.VectorStore.TopK
	if topK <= 0 {
		topK = 2
	}

	return &Store{
		db:          db,
		embedFunc:   embedFunc,
		topK:        topK,
		maxDocChars: cfg.Embeddings.MaxDocChars,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

// collectionName maps a user ID to its collection. User IDs are validated at
// the API boundary, so the name is safe to use directly.
func collectionName(userID string) string {
	return "user_" + userID
}

func (s *Store) getCollection(userID string) (*chromem.Collection, error) {
	name := collectionName(userID)

	s.mu.RLock()
	if col, ok := s.collections[name]; ok {
		s.mu.RUnlock()
		return col, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if col, ok := s.collections[name]; ok {
		return col, nil
	}

	col, err := s.db.GetOrCreateCollection(name, nil, s.embedFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection for user %s: %w", userID, err)
	}

	s.collections[name] = col
	return col, nil
}

// UpsertRecords stores the given documents in the user's collection. Content
// is truncated before embedding.
func (s *Store) UpsertRecords(ctx context.Context, userID string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	col, err := s.getCollection(userID)
	if err != nil {
		return err
	}

	chromemDocs := make([]chromem.Document, 0, len(docs))
	for _, doc := range docs {
		chromemDocs = append(chromemDocs, chromem.Document{
			ID:       doc.ID,
			Content:  TruncateForEmbedding(doc.Content, s.maxDocChars),
			Metadata: doc.Metadata,
		})
	}

	if err := col.AddDocuments(ctx, chromemDocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to store records for user %s: %w", userID, err)
	}

	return nil
}

// Query returns the most similar records for the query text within the user's
// collection. topK <= 0 uses the configured default. An empty collection
// yields no results, not an error.
func (s *Store) Query(ctx context.Context, userID, query string, topK int) ([]Result, error) {
	col, err := s.getCollection(userID)
	if err != nil {
		return nil, err
	}

	if topK <= 0 {
		topK = s.topK
	}
	if count := col.Count(); count < topK {
		topK = count
	}
	if topK == 0 {
		return nil, nil
	}

	hits, err := col.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed for user %s: %w", userID, err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{
			ID:         hit.ID,
			Content:    hit.Content,
			Similarity: hit.Similarity,
			Metadata:   hit.Metadata,
		})
	}

	return results, nil
}

// Count returns the number of records stored for a user
func (s *Store) Count(userID string) (int, error) {
	col, err := s.getCollection(userID)
	if err != nil {
		return 0, err
	}
	return col.Count(), nil
}

// DeleteUser removes a user's collection and all its records
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	name := collectionName(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("failed to delete records for user %s: %w", userID, err)
	}

	delete(s.collections, name)
	return nil
}
