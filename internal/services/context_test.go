package services_test

import (
	"context"
	"testing"

	"creatorsync/internal/services"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := services.WithCreator(context.Background(), "somecreator")
	ctx = services.WithRunID(ctx, "run-123")

	if name, ok := services.CreatorFromContext(ctx); !ok || name != "somecreator" {
		t.Fatalf("creator round trip failed: %q %v", name, ok)
	}
	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("run id round trip failed: %q %v", id, ok)
	}
}

func TestContextMissingValues(t *testing.T) {
	if _, ok := services.CreatorFromContext(context.Background()); ok {
		t.Fatal("expected no creator on empty context")
	}
	if _, ok := services.RunIDFromContext(context.Background()); ok {
		t.Fatal("expected no run id on empty context")
	}
}
