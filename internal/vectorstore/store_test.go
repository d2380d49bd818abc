package vectorstore

import (
	"context"
	"math"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterresume/internal/config"
)

// hashEmbedding is a deterministic local embedding function so tests never
// need an embedding service. Similar byte content lands close together, which
// is all the similarity assertions rely on.
func hashEmbedding(ctx context.Context, text string) ([]float32, error) {
	const dims = 16
	vec := make([]float32, dims)
	for i := 0; i < len(text); i++ {
		vec[i%dims] += float32(text[i])
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := &config.Config{}
	cfg.VectorStore.TopK = 2
	cfg.Embeddings.MaxDocChars = 1000

	store, err := NewStoreWithEmbedding(cfg, chromem.EmbeddingFunc(hashEmbedding))
	require.NoError(t, err)
	return store
}

func seedUser(t *testing.T, store *Store, userID string, docs []Document) {
	t.Helper()
	require.NoError(t, store.UpsertRecords(context.Background(), userID, docs))
}

func TestUpsertAndQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "user1", []Document{
		{ID: "user1_0", Content: "role: Backend Engineer\ndescription: Built Go services", Metadata: map[string]string{"user_id": "user1"}},
		{ID: "user1_1", Content: "role: Data Analyst\ndescription: SQL dashboards", Metadata: map[string]string{"user_id": "user1"}},
	})

	count, err := store.Count("user1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	results, err := store.Query(ctx, "user1", "Go backend services", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, result := range results {
		assert.Equal(t, "user1", result.Metadata["user_id"])
	}
}

func TestQueriesNeverCrossUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Both users hold identical content, so any leak across collections
	// would rank just as high as the owner's own records.
	content := "role: Backend Engineer\ndescription: Built Go services"
	seedUser(t, store, "user1", []Document{
		{ID: "user1_0", Content: content, Metadata: map[string]string{"user_id": "user1"}},
	})
	seedUser(t, store, "user2", []Document{
		{ID: "user2_0", Content: content, Metadata: map[string]string{"user_id": "user2"}},
	})

	results, err := store.Query(ctx, "user1", "Go backend services", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "user1_0", results[0].ID)
	assert.Equal(t, "user1", results[0].Metadata["user_id"])

	results, err = store.Query(ctx, "user2", "Go backend services", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "user2_0", results[0].ID)
}

func TestQueryEmptyUser(t *testing.T) {
	store := newTestStore(t)

	results, err := store.Query(context.Background(), "user1", "anything", 2)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDeleteUserDropsOnlyThatUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "user1", []Document{
		{ID: "user1_0", Content: "role: Engineer", Metadata: map[string]string{"user_id": "user1"}},
	})
	seedUser(t, store, "user2", []Document{
		{ID: "user2_0", Content: "role: Engineer", Metadata: map[string]string{"user_id": "user2"}},
	})

	require.NoError(t, store.DeleteUser(ctx, "user1"))

	count, err := store.Count("user1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = store.Count("user2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
