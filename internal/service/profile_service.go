package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/model"
	"github.com/stemsi/exstem-cbt/internal/store"
)

// ProfileService wraps the profile store with the defaults the UI expects.
type ProfileService struct {
	profiles store.ProfileStore
	log      zerolog.Logger
}

func NewProfileService(profiles store.ProfileStore, log zerolog.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		log:      log.With().Str("component", "profile_service").Logger(),
	}
}

// Get returns the candidate's profile. A candidate with no stored profile
// gets an empty one rather than an error.
func (s *ProfileService) Get(ctx context.Context, candidateID string) (model.CandidateProfile, error) {
	p, err := s.profiles.Load(ctx, candidateID)
	if errors.Is(err, store.ErrProfileNotFound) {
		return model.CandidateProfile{CandidateID: candidateID}, nil
	}
	return p, err
}

// UpdateName stores a trimmed candidate name.
func (s *ProfileService) UpdateName(ctx context.Context, candidateID, name string) (model.CandidateProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.CandidateProfile{}, ErrNameRequired
	}
	if err := s.profiles.SaveName(ctx, candidateID, name); err != nil {
		return model.CandidateProfile{}, err
	}
	return s.Get(ctx, candidateID)
}
