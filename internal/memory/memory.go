// Package memory implements the embedding-indexed persistent key/value
// store: a durable sqlite table plus a full-scan cosine-similarity search,
// exactly as much index as the scale this system targets needs.
package memory

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	_ "modernc.org/sqlite"
)

// Store is a durable keyed memory table backed by sqlite.
type Store struct {
	db       *sql.DB
	embedder Embedder
}

const schema = `
CREATE TABLE IF NOT EXISTS memory (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	embedding  BLOB,
	embed_dim  INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);`

// Open opens (creating if absent) the sqlite database at path and ensures
// the memory table exists. embedder may be nil, in which case Remember
// stores entries without vectors and Recall returns no matches; Search
// still scores any vectors passed to Store directly.
func Open(path string, embedder Embedder) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create memory schema: %w", err)
	}
	return &Store{db: db, embedder: embedder}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Store upserts key, replacing value and embedding and bumping updated_at.
// A nil embedding is stored with embed_dim 0.
func (s *Store) Store(key, value string, embedding []float32, now int64) (bool, error) {
	blob := encodeVector(embedding)
	_, err := s.db.Exec(`
		INSERT INTO memory (key, value, embedding, embed_dim, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, embedding=excluded.embedding,
			embed_dim=excluded.embed_dim, updated_at=excluded.updated_at`,
		key, value, blob, len(embedding), now, now)
	if err != nil {
		return false, fmt.Errorf("store memory entry %q: %w", key, err)
	}
	return true, nil
}

// Get returns the value stored under key, and whether it was found.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM memory WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get memory entry %q: %w", key, err)
	}
	return value, true, nil
}

// Delete removes key, reporting whether a row was actually removed.
func (s *Store) Delete(key string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM memory WHERE key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("delete memory entry %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SearchResult is one ranked match from Search.
type SearchResult struct {
	Key   string
	Value string
	Score float64
}

// Search full-scans rows whose stored dimension matches len(queryVec),
// scores them by cosine similarity, and returns the top-k by descending
// score with ties broken by first-seen (insertion) order.
func (s *Store) Search(queryVec []float32, topK int) ([]SearchResult, error) {
	dim := len(queryVec)
	rows, err := s.db.Query(`SELECT key, value, embedding FROM memory WHERE embed_dim = ? ORDER BY created_at ASC`, dim)
	if err != nil {
		return nil, fmt.Errorf("search memory: %w", err)
	}
	defer rows.Close()

	var candidates []SearchResult
	for rows.Next() {
		var key, value string
		var blob []byte
		if err := rows.Scan(&key, &value, &blob); err != nil {
			return nil, fmt.Errorf("scan memory row: %w", err)
		}
		vec := decodeVector(blob)
		if len(vec) != dim {
			continue
		}
		candidates = append(candidates, SearchResult{Key: key, Value: value, Score: CosineSimilarity(queryVec, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

// CosineSimilarity computes dot(a,b) / (||a|| * ||b||), returning 0.0 when
// either vector's norm is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(blob []byte) []float32 {
	if len(blob) == 0 || len(blob)%4 != 0 {
		return nil
	}
	out := make([]float32, len(blob)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out
}
