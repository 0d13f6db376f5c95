package index

import (
	"sync"
	"testing"
)

func TestSearchOrderedAscending(t *testing.T) {
	ix := New()

	// Unit vectors at increasing angles from the query.
	mustAdd(t, ix, NamespaceImage, "identical", []float32{1, 0}, nil)
	mustAdd(t, ix, NamespaceImage, "close", []float32{0.9, 0.1}, nil)
	mustAdd(t, ix, NamespaceImage, "orthogonal", []float32{0, 1}, nil)
	mustAdd(t, ix, NamespaceImage, "opposite", []float32{-1, 0}, nil)

	matches, err := ix.Search(NamespaceImage, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(matches) != 4 {
		t.Fatalf("expected 4 matches, got %d", len(matches))
	}

	wantOrder := []string{"identical", "close", "orthogonal", "opposite"}
	for i, key := range wantOrder {
		if matches[i].Key != key {
			t.Fatalf("position %d: got %q, want %q", i, matches[i].Key, key)
		}
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Distance < matches[i-1].Distance {
			t.Fatalf("matches not ascending by distance: %+v", matches)
		}
	}
	if matches[0].Distance > 1e-9 {
		t.Fatalf("identical vector should have distance 0, got %v", matches[0].Distance)
	}
	if d := matches[3].Distance; d < 1.99 || d > 2.01 {
		t.Fatalf("opposite vector should have distance 2, got %v", d)
	}
}

func TestSearchRespectsK(t *testing.T) {
	ix := New()
	mustAdd(t, ix, NamespaceText, "a", []float32{1, 0}, nil)
	mustAdd(t, ix, NamespaceText, "b", []float32{0.5, 0.5}, nil)
	mustAdd(t, ix, NamespaceText, "c", []float32{0, 1}, nil)

	matches, err := ix.Search(NamespaceText, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected k=2 matches, got %d", len(matches))
	}
}

func TestNamespacesAreDisjoint(t *testing.T) {
	ix := New()
	mustAdd(t, ix, NamespaceImage, "img-only", []float32{1, 0}, nil)

	matches, err := ix.Search(NamespaceText, []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("text namespace must not see image entries, got %+v", matches)
	}
}

func TestSearchEmptyNamespace(t *testing.T) {
	ix := New()
	matches, err := ix.Search(NamespaceImage, []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("empty namespace is not an error, got %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %+v", matches)
	}
}

func TestSearchDimensionMismatch(t *testing.T) {
	ix := New()
	mustAdd(t, ix, NamespaceImage, "a", []float32{1, 0, 0}, nil)

	if _, err := ix.Search(NamespaceImage, []float32{1, 0}, 5); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}

func TestAddMetadataCarriedThrough(t *testing.T) {
	ix := New()
	mustAdd(t, ix, NamespaceText, "Starbeans", []float32{1, 0}, map[string]string{"name": "Starbeans", "type": "text"})

	matches, err := ix.Search(NamespaceText, []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if matches[0].Metadata["name"] != "Starbeans" {
		t.Fatalf("metadata lost: %+v", matches[0])
	}
}

func TestConcurrentAddAndSearch(t *testing.T) {
	ix := New()
	mustAdd(t, ix, NamespaceImage, "seed", []float32{1, 0}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = ix.Add(NamespaceImage, "w", []float32{0, 1}, nil)
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				matches, err := ix.Search(NamespaceImage, []float32{1, 0}, 3)
				if err != nil {
					t.Errorf("Search returned error: %v", err)
					return
				}
				if len(matches) == 0 {
					t.Errorf("search observed empty index")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func mustAdd(t *testing.T, ix *Index, ns Namespace, key string, vec []float32, meta map[string]string) {
	t.Helper()
	if err := ix.Add(ns, key, vec, meta); err != nil {
		t.Fatalf("Add(%s, %s): %v", ns, key, err)
	}
}
