package memory

import (
	"fmt"
	"time"
)

// Remember satisfies tool.MemoryBackend: embeds value (if an embedder is
// configured) and upserts the key/value/vector triple.
func (s *Store) Remember(key, value string) error {
	var vec []float32
	if s.embedder != nil {
		v, err := s.embedder.Embed(value)
		if err != nil {
			return fmt.Errorf("embed value for %q: %w", key, err)
		}
		vec = v
	}
	_, err := s.Store(key, value, vec, time.Now().Unix())
	return err
}

// Recall satisfies tool.MemoryBackend: embeds query and returns the top
// matches formatted as "key: value" lines. With no embedder configured,
// Recall returns no matches rather than erroring.
func (s *Store) Recall(query string, limit int) ([]string, error) {
	if s.embedder == nil {
		return nil, nil
	}
	vec, err := s.embedder.Embed(query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := s.Search(vec, limit)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, fmt.Sprintf("%s: %s", r.Key, r.Value))
	}
	return out, nil
}
