package deckgen

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
)

func requireIntegration(t *testing.T) {
	t.Helper()

	_ = godotenv.Load()

	if os.Getenv("DECKGEN_INTEGRATION") == "" {
		t.Skip("set DECKGEN_INTEGRATION=1 to run integration tests")
	}
	if os.Getenv(EnvAPIKey) == "" {
		t.Skip("set " + EnvAPIKey + " to run integration tests")
	}
}

func TestIntegration_GenerateSlide(t *testing.T) {
	requireIntegration(t)

	c := NewClient(Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	out := filepath.Join(t.TempDir(), "title.png")
	res := c.GenerateSlide(ctx, GenerationRequest{
		Prompt:     "A minimalist title slide that reads 'Quarterly Review', dark navy background, 16:9.",
		OutputPath: out,
	})
	if !res.OK {
		t.Fatalf("generation failed: %v (attempts: %+v)", res.Err, res.Attempts)
	}
	fi, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() <= MinArtifactSize {
		t.Fatalf("artifact too small: %d bytes", fi.Size())
	}
}

func TestIntegration_GenerateReference(t *testing.T) {
	requireIntegration(t)

	c := NewClient(Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	out := filepath.Join(t.TempDir(), "hero.png")
	res := c.GenerateReference(ctx, GenerationRequest{
		Prompt:     "Character reference: a cheerful robot mascot, front view, plain white background.",
		OutputPath: out,
	})
	if !res.OK {
		t.Fatalf("generation failed: %v", res.Err)
	}
}
