package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CandidateProfileKey returns the hash key holding a candidate's profile.
func (r *CacheKeyStruct) CandidateProfileKey(candidateID string) string {
	return fmt.Sprintf("candidate:%s:profile", candidateID)
}

// CandidateResultsKey returns the list key holding a candidate's recent results, newest first.
func (r *CacheKeyStruct) CandidateResultsKey(candidateID string) string {
	return fmt.Sprintf("candidate:%s:results", candidateID)
}

var CacheKey = NewCacheKeyStruct()
