package scene

import (
	"context"
	"testing"
)

func TestBuildMany(t *testing.T) {
	good := sampleOptions()
	missing := sampleOptions()
	missing.Layout = DefaultLayout("nowhere")

	results, err := BuildMany(context.Background(), []BuildOptions{good, missing, good}, 2)
	if err != nil {
		t.Fatalf("build many: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Err != nil || results[0].Level == nil || len(results[0].Level.Layers) != 2 {
		t.Fatalf("first result = %+v", results[0])
	}
	if results[1].Err == nil || results[1].Level != nil {
		t.Fatalf("second result should fail, got %+v", results[1])
	}
	if results[2].Level == results[0].Level {
		t.Fatalf("independent builds must not share a tree")
	}
}

func TestBuildManyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := BuildMany(ctx, []BuildOptions{sampleOptions()}, 0); err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func BenchmarkBuild(b *testing.B) {
	opts := sampleOptions()
	for i := 0; i < b.N; i++ {
		if _, _, err := Build(opts); err != nil {
			b.Fatal(err)
		}
	}
}
