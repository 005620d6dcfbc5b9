package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/store"
)

func TestProfileService(t *testing.T) {
	svc := NewProfileService(store.NewMemoryStore(), zerolog.Nop())
	ctx := context.Background()

	p, err := svc.Get(ctx, "cand-1")
	if err != nil || p.CandidateID != "cand-1" || p.Name != "" {
		t.Fatalf("empty profile = %+v, %v", p, err)
	}

	p, err = svc.UpdateName(ctx, "cand-1", "  Ada  ")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Ada" {
		t.Fatalf("name = %q", p.Name)
	}

	if _, err := svc.UpdateName(ctx, "cand-1", "   "); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("blank name: %v", err)
	}
}
