package vectorstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cerebrumlux/cognition/internal/model"
)

func unitVec(fill float32) [model.EmbeddingDim]float32 {
	var v [model.EmbeddingDim]float32
	v[0] = fill
	v[1] = 1
	return v
}

func TestPutGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	s, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	c := model.Capsule{
		ID:               "cap-1",
		Topic:            "CerebrumLux",
		Source:           "local",
		Content:          "hello",
		PlainTextSummary: "hello summary",
		Confidence:       0.82,
		TimestampUTC:     time.Now().UTC(),
		Embedding:        unitVec(0.5),
	}
	require.NoError(t, s.Put(c))

	got, ok, err := s.Get("cap-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, c.ID, got.ID)
	require.Equal(t, c.Topic, got.Topic)
	require.InDelta(t, c.Confidence, got.Confidence, 1e-6)
}

func TestSearchKNNOrdersByCosine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	s, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	near := unitVec(0.9)
	far := [model.EmbeddingDim]float32{}
	far[2] = 1

	require.NoError(t, s.Put(model.Capsule{ID: "near", Embedding: near, TimestampUTC: time.Now()}))
	require.NoError(t, s.Put(model.Capsule{ID: "far", Embedding: far, TimestampUTC: time.Now()}))

	ids := s.SearchKNN(unitVec(0.9), 2)
	require.Equal(t, []string{"near", "far"}, ids)
}

func TestDeleteRemovesFromKVAndIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	s, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(model.Capsule{ID: "cap-1", Embedding: unitVec(0.5), TimestampUTC: time.Now()}))
	require.NoError(t, s.Delete("cap-1"))

	_, ok, err := s.Get("cap-1")
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, s.SearchKNN(unitVec(0.5), 5))
}

func TestTopicIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	s, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(model.Capsule{ID: "cap-1", Topic: "CerebrumLux", Embedding: unitVec(0.5), TimestampUTC: time.Now()}))
	require.NoError(t, s.Put(model.Capsule{ID: "cap-2", Topic: "Other", Embedding: unitVec(0.3), TimestampUTC: time.Now()}))

	ids := s.IterateTopic("CerebrumLux")
	require.Equal(t, []string{"cap-1"}, ids)
}

func TestQSubStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	s, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.PutQ("state-1", `{"LaunchApplication":0.1}`))
	v, ok := s.GetQ("state-1")
	require.True(t, ok)
	require.Equal(t, `{"LaunchApplication":0.1}`, v)
	require.Equal(t, []string{"state-1"}, s.IterateQKeys())
}

func TestReconcileRebuildsIndexFromKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	s, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Put(model.Capsule{ID: "cap-1", Embedding: unitVec(0.5), TimestampUTC: time.Now()}))
	require.NoError(t, s.Close())

	s2, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer s2.Close()
	_, ok, err := s2.Get("cap-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"cap-1"}, s2.SearchKNN(unitVec(0.5), 1))
}
