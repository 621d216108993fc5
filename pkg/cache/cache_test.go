package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestFileCache_GetSet(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() failed: %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name string
		key  string
		data []byte
	}{
		{"simple", "graph:abc", []byte("hello")},
		{"binary", "artifact:def", []byte{0x89, 0x50, 0x4e, 0x47}},
		{"empty value", "layout:ghi", []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Set(ctx, tt.key, tt.data, 0); err != nil {
				t.Fatalf("Set() failed: %v", err)
			}
			got, hit, err := c.Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("Get() failed: %v", err)
			}
			if !hit {
				t.Fatal("Get() missed a stored key")
			}
			if string(got) != string(tt.data) {
				t.Errorf("Get() = %q, want %q", got, tt.data)
			}
		})
	}
}

func TestFileCache_Miss(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() failed: %v", err)
	}

	_, hit, err := c.Get(context.Background(), "never-set")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if hit {
		t.Error("Get() hit on a missing key")
	}
}

func TestFileCache_TTLExpiry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() failed: %v", err)
	}
	ctx := context.Background()

	if err := c.Set(ctx, "short-lived", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	_, hit, err := c.Get(ctx, "short-lived")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if hit {
		t.Error("Get() returned an expired entry")
	}
}

func TestFileCache_Delete(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() failed: %v", err)
	}
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get() hit after Delete")
	}
	// Deleting a missing key is not an error.
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete(missing) failed: %v", err)
	}
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get() = hit=%v err=%v, want miss", hit, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// Identical inputs produce identical keys.
	if k.GraphKey("h1") != k.GraphKey("h1") {
		t.Error("GraphKey not deterministic")
	}
	if k.GraphKey("h1") == k.GraphKey("h2") {
		t.Error("GraphKey collides across source hashes")
	}

	base := LayoutKeyOpts{Mode: "force", Root: 0, Params: map[string]int{"max": 300}}
	if k.LayoutKey("g", base) != k.LayoutKey("g", base) {
		t.Error("LayoutKey not deterministic")
	}

	// Any option change must change the key.
	variants := []LayoutKeyOpts{
		{Mode: "tree", Root: 0, Params: base.Params},
		{Mode: "force", Root: 7, Params: base.Params},
		{Mode: "force", Root: 0, Params: map[string]int{"max": 500}},
	}
	for i, v := range variants {
		if k.LayoutKey("g", v) == k.LayoutKey("g", base) {
			t.Errorf("variant %d produced the same layout key", i)
		}
	}

	aOpts := ArtifactKeyOpts{Format: "png", Scale: 2, Labels: true}
	if k.ArtifactKey("l", aOpts) == k.ArtifactKey("l", ArtifactKeyOpts{Format: "svg", Scale: 2, Labels: true}) {
		t.Error("ArtifactKey ignores format")
	}
	if k.ArtifactKey("l", aOpts) == k.ArtifactKey("l", ArtifactKeyOpts{Format: "png", Scale: 1, Labels: true}) {
		t.Error("ArtifactKey ignores scale")
	}

	// Keys carry their stage prefix.
	if !strings.HasPrefix(k.GraphKey("h"), "graph:") {
		t.Errorf("GraphKey = %q, want graph: prefix", k.GraphKey("h"))
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "db:campaign1:")

	got := scoped.GraphKey("h")
	if !strings.HasPrefix(got, "db:campaign1:") {
		t.Errorf("scoped key %q missing prefix", got)
	}
	if strings.TrimPrefix(got, "db:campaign1:") != inner.GraphKey("h") {
		t.Error("scoped key does not wrap the inner key")
	}

	// Nil inner falls back to the default keyer.
	fallback := NewScopedKeyer(nil, "p:")
	if !strings.HasPrefix(fallback.GraphKey("h"), "p:") {
		t.Error("nil-inner scoped keyer broken")
	}
}

func TestHash(t *testing.T) {
	a := Hash([]byte("data"))
	if len(a) != 64 {
		t.Errorf("Hash() length = %d, want 64 hex chars", len(a))
	}
	if a != Hash([]byte("data")) {
		t.Error("Hash not deterministic")
	}
	if a == Hash([]byte("other")) {
		t.Error("Hash collides on different inputs")
	}
}
