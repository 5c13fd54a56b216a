// Package vectorstore implements C11: a durable key/value map (backed by
// SQLite through mattn/go-sqlite3) plus an in-memory ANN index over
// 128-D L2-normalized embeddings, grounded on the original
// hnswlib_wrapper's add_item/search_knn/label shape (spec.md §4.11).
package vectorstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/cerebrumlux/cognition/internal/cerr"
	"github.com/cerebrumlux/cognition/internal/model"
)

// label is the ANN index's internal integer handle for a capsule id,
// mirroring hnswlib's labeltype (spec §4.11 "next_label counter").
type label uint64

// Store is the durable KV + in-memory ANN index. The SQLite connection is
// the authority; the ANN index and label maps are rebuilt from it on open
// if missing or inconsistent (spec §4.11).
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	log  zerolog.Logger

	idToLabel map[string]label
	labelToID map[label]string
	vectors   map[label][model.EmbeddingDim]float32
	topicIdx  map[string]map[string]struct{} // topic -> set of ids
	nextLabel label

	qDB map[string]string // state_key -> json blob, C9's sub-store
}

// Open opens (creating if absent) the SQLite-backed store at path and
// reconciles the in-memory ANN index against it.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, cerr.Wrap(cerr.Fatal, "vectorstore.Open", "open sqlite database", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, cerr.Wrap(cerr.Fatal, "vectorstore.Open", "apply schema", err)
	}

	s := &Store{
		db:        db,
		log:       log,
		idToLabel: make(map[string]label),
		labelToID: make(map[label]string),
		vectors:   make(map[label][model.EmbeddingDim]float32),
		topicIdx:  make(map[string]map[string]struct{}),
		qDB:       make(map[string]string),
	}
	if err := s.reconcile(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS capsules (
	id TEXT PRIMARY KEY,
	topic TEXT NOT NULL,
	source TEXT NOT NULL,
	content TEXT NOT NULL,
	plain_text_summary TEXT NOT NULL,
	confidence REAL NOT NULL,
	timestamp_utc INTEGER NOT NULL,
	embedding BLOB NOT NULL,
	cryptofig_blob TEXT,
	encrypted_content BLOB,
	encryption_iv TEXT,
	signature TEXT
);
CREATE TABLE IF NOT EXISTS q_table (
	state_key TEXT PRIMARY KEY,
	json_blob TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS meta (
	k TEXT PRIMARY KEY,
	v TEXT NOT NULL
);
`

// reconcile rebuilds the in-memory ANN index and label maps from the KV
// table, as spec §4.11 requires on every open: "any ANN index is rebuilt
// from KV if missing or inconsistent".
func (s *Store) reconcile() error {
	rows, err := s.db.Query(`SELECT id, topic, embedding FROM capsules ORDER BY rowid`)
	if err != nil {
		return cerr.Wrap(cerr.StorageFailure, "vectorstore.reconcile", "query capsules", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, topic string
		var blob []byte
		if err := rows.Scan(&id, &topic, &blob); err != nil {
			return cerr.Wrap(cerr.StorageFailure, "vectorstore.reconcile", "scan capsule row", err)
		}
		emb, err := decodeEmbedding(blob)
		if err != nil {
			return err
		}
		s.indexLocked(id, topic, emb)
	}

	qrows, err := s.db.Query(`SELECT state_key, json_blob FROM q_table`)
	if err != nil {
		return cerr.Wrap(cerr.StorageFailure, "vectorstore.reconcile", "query q_table", err)
	}
	defer qrows.Close()
	for qrows.Next() {
		var k, v string
		if err := qrows.Scan(&k, &v); err != nil {
			return cerr.Wrap(cerr.StorageFailure, "vectorstore.reconcile", "scan q_table row", err)
		}
		s.qDB[k] = v
	}

	var nextStr string
	if err := s.db.QueryRow(`SELECT v FROM meta WHERE k = 'next_label'`).Scan(&nextStr); err == nil {
		var n uint64
		fmt.Sscanf(nextStr, "%d", &n)
		if label(n) > s.nextLabel {
			s.nextLabel = label(n)
		}
	}
	return nil
}

func (s *Store) indexLocked(id, topic string, emb [model.EmbeddingDim]float32) {
	if _, ok := s.idToLabel[id]; ok {
		return
	}
	lbl := s.nextLabel
	s.nextLabel++
	s.idToLabel[id] = lbl
	s.labelToID[lbl] = id
	s.vectors[lbl] = emb
	if topic != "" {
		set, ok := s.topicIdx[topic]
		if !ok {
			set = make(map[string]struct{})
			s.topicIdx[topic] = set
		}
		set[id] = struct{}{}
	}
}

func encodeEmbedding(e [model.EmbeddingDim]float32) []byte {
	b, _ := json.Marshal(e)
	return b
}

func decodeEmbedding(blob []byte) ([model.EmbeddingDim]float32, error) {
	var e [model.EmbeddingDim]float32
	if err := json.Unmarshal(blob, &e); err != nil {
		return e, cerr.Wrap(cerr.StorageFailure, "vectorstore.decodeEmbedding", "unmarshal embedding", err)
	}
	return e, nil
}

// Put writes a capsule transactionally: the KV row, the ANN label
// mapping, and the reverse mapping all land together or none do (spec
// §4.11 durability contract).
func (s *Store) Put(c model.Capsule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return cerr.Wrap(cerr.StorageFailure, "vectorstore.Put", "begin transaction", err)
	}

	_, err = tx.Exec(`INSERT INTO capsules
		(id, topic, source, content, plain_text_summary, confidence, timestamp_utc, embedding, cryptofig_blob, encrypted_content, encryption_iv, signature)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			topic=excluded.topic, source=excluded.source, content=excluded.content,
			plain_text_summary=excluded.plain_text_summary, confidence=excluded.confidence,
			timestamp_utc=excluded.timestamp_utc, embedding=excluded.embedding,
			cryptofig_blob=excluded.cryptofig_blob, encrypted_content=excluded.encrypted_content,
			encryption_iv=excluded.encryption_iv, signature=excluded.signature`,
		c.ID, c.Topic, c.Source, c.Content, c.PlainTextSummary, c.Confidence, c.TimestampUTC.UnixMicro(),
		encodeEmbedding(c.Embedding), c.CryptofigBlobBase64, c.EncryptedContent, c.EncryptionIVBase64, c.SignatureBase64)
	if err != nil {
		tx.Rollback()
		return cerr.Wrap(cerr.StorageFailure, "vectorstore.Put", "insert capsule", err)
	}

	wasNew := false
	if _, ok := s.idToLabel[c.ID]; !ok {
		wasNew = true
	}
	if _, err := tx.Exec(`INSERT INTO meta (k, v) VALUES ('next_label', ?)
		ON CONFLICT(k) DO UPDATE SET v=excluded.v`, fmt.Sprintf("%d", s.nextLabel+1)); err != nil {
		tx.Rollback()
		return cerr.Wrap(cerr.StorageFailure, "vectorstore.Put", "persist next_label", err)
	}
	if err := tx.Commit(); err != nil {
		return cerr.Wrap(cerr.StorageFailure, "vectorstore.Put", "commit transaction", err)
	}

	if wasNew {
		s.indexLocked(c.ID, c.Topic, c.Embedding)
	} else {
		lbl := s.idToLabel[c.ID]
		s.vectors[lbl] = c.Embedding
	}
	return nil
}

// Get returns the capsule stored under id, or ok=false if absent.
func (s *Store) Get(id string) (model.Capsule, bool, error) {
	row := s.db.QueryRow(`SELECT id, topic, source, content, plain_text_summary, confidence, timestamp_utc, embedding, cryptofig_blob, encrypted_content, encryption_iv, signature FROM capsules WHERE id = ?`, id)
	c, err := scanCapsule(row)
	if err == sql.ErrNoRows {
		return model.Capsule{}, false, nil
	}
	if err != nil {
		return model.Capsule{}, false, cerr.Wrap(cerr.StorageFailure, "vectorstore.Get", "scan capsule", err)
	}
	return c, true, nil
}

func scanCapsule(row *sql.Row) (model.Capsule, error) {
	var c model.Capsule
	var tsMicro int64
	var embBlob []byte
	var cryptofig, encIV, sig sql.NullString
	var encContent []byte
	if err := row.Scan(&c.ID, &c.Topic, &c.Source, &c.Content, &c.PlainTextSummary, &c.Confidence, &tsMicro, &embBlob, &cryptofig, &encContent, &encIV, &sig); err != nil {
		return c, err
	}
	emb, err := decodeEmbedding(embBlob)
	if err != nil {
		return c, err
	}
	c.Embedding = emb
	c.TimestampUTC = microToTime(tsMicro)
	c.CryptofigBlobBase64 = cryptofig.String
	c.EncryptedContent = encContent
	c.EncryptionIVBase64 = encIV.String
	c.SignatureBase64 = sig.String
	return c, nil
}

// Delete removes id's KV row and both ANN mappings; the in-memory vector
// slot and topic entries are dropped at once, with no tombstone left
// behind (spec §4.11).
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM capsules WHERE id = ?`, id); err != nil {
		return cerr.Wrap(cerr.StorageFailure, "vectorstore.Delete", "delete capsule row", err)
	}
	lbl, ok := s.idToLabel[id]
	if !ok {
		return nil
	}
	delete(s.idToLabel, id)
	delete(s.labelToID, lbl)
	delete(s.vectors, lbl)
	for _, set := range s.topicIdx {
		delete(set, id)
	}
	return nil
}

type scored struct {
	id    string
	score float64
}

// SearchKNN returns up to k ids ordered by descending cosine similarity
// against query (spec §4.11). The index is a flat in-memory scan over
// L2-normalized vectors; exact cosine search stands in for hnswlib's
// approximate graph traversal at this module's scale (low thousands of
// capsules, per spec.md §1's personal/single-host scope).
func (s *Store) SearchKNN(query [model.EmbeddingDim]float32, k int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]scored, 0, len(s.vectors))
	for lbl, v := range s.vectors {
		id, ok := s.labelToID[lbl]
		if !ok {
			continue
		}
		results = append(results, scored{id: id, score: cosine(query, v)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
	if k > len(results) {
		k = len(results)
	}
	ids := make([]string, k)
	for i := 0; i < k; i++ {
		ids[i] = results[i].id
	}
	return ids
}

func cosine(a, b [model.EmbeddingDim]float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// IterateTopic returns every capsule id indexed under topic.
func (s *Store) IterateTopic(topic string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.topicIdx[topic]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PutQ writes one Q-table row to the dedicated sub-store (spec §4.11).
func (s *Store) PutQ(stateKey, jsonBlob string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`INSERT INTO q_table (state_key, json_blob) VALUES (?, ?)
		ON CONFLICT(state_key) DO UPDATE SET json_blob=excluded.json_blob`, stateKey, jsonBlob); err != nil {
		return cerr.Wrap(cerr.StorageFailure, "vectorstore.PutQ", "upsert q_table row", err)
	}
	s.qDB[stateKey] = jsonBlob
	return nil
}

// GetQ reads one Q-table row, or ok=false if absent.
func (s *Store) GetQ(stateKey string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.qDB[stateKey]
	return v, ok
}

// IterateQKeys returns every persisted Q-table state key.
func (s *Store) IterateQKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.qDB))
	for k := range s.qDB {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	return s.db.Close()
}
