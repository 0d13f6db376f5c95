// Package index implements the in-memory similarity index. Vectors live in
// two disjoint namespaces (image and text); a vector is only ever compared
// within its own namespace.
package index

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	platformerrors "trulogo-server-go/internal/platform/errors"
)

// Namespace scopes vector comparability.
type Namespace string

const (
	NamespaceImage Namespace = "image"
	NamespaceText  Namespace = "text"
)

// Match is one similarity result. Distance is cosine distance in [0,2],
// lower meaning more similar. Similarity is annotated later by the risk
// scorer for display.
type Match struct {
	Key        string            `json:"key"`
	Distance   float64           `json:"distance"`
	Similarity float64           `json:"similarity"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type entry struct {
	key      string
	vector   []float32
	metadata map[string]string
}

// Index holds the reference corpus. Reads work against an immutable
// snapshot; Add swaps in a fresh copy under a writer lock, so a search can
// never observe a partially updated namespace.
type Index struct {
	writeMu sync.Mutex
	snap    atomic.Value // map[Namespace][]entry
}

// New creates an empty index.
func New() *Index {
	ix := &Index{}
	ix.snap.Store(map[Namespace][]entry{})
	return ix
}

func (ix *Index) snapshot() map[Namespace][]entry {
	return ix.snap.Load().(map[Namespace][]entry)
}

// Add ingests one corpus vector. Administrative path, outside the request
// flow; writers are serialized.
func (ix *Index) Add(ns Namespace, key string, vector []float32, metadata map[string]string) error {
	if len(vector) == 0 {
		return platformerrors.New(platformerrors.KindIndex, "index.add",
			fmt.Sprintf("empty vector for key %q", key))
	}

	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()

	old := ix.snapshot()
	next := make(map[Namespace][]entry, len(old))
	for n, entries := range old {
		next[n] = entries
	}
	next[ns] = append(append([]entry(nil), old[ns]...), entry{
		key:      key,
		vector:   append([]float32(nil), vector...),
		metadata: metadata,
	})
	ix.snap.Store(next)
	return nil
}

// Search returns the k nearest entries in the namespace, ascending by
// distance. An empty namespace yields an empty result, not an error.
func (ix *Index) Search(ns Namespace, vector []float32, k int) ([]Match, error) {
	if len(vector) == 0 {
		return nil, platformerrors.New(platformerrors.KindIndex, "index.search", "empty query vector")
	}
	if k <= 0 {
		k = 5
	}

	entries := ix.snapshot()[ns]
	matches := make([]Match, 0, len(entries))
	for _, e := range entries {
		if len(e.vector) != len(vector) {
			return nil, platformerrors.New(platformerrors.KindIndex, "index.search",
				fmt.Sprintf("dimension mismatch: query %d vs corpus %d", len(vector), len(e.vector)))
		}
		matches = append(matches, Match{
			Key:      e.key,
			Distance: cosineDistance(vector, e.vector),
			Metadata: e.metadata,
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Len reports the number of entries in a namespace.
func (ix *Index) Len(ns Namespace) int {
	return len(ix.snapshot()[ns])
}

// cosineDistance is 1 - cosine similarity, bounded to [0,2]. Zero vectors
// are treated as maximally dissimilar.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
