package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMaintenance_PrunesOlderThanRetention(t *testing.T) {
	repo := &fakeEventRepo{pruneN: 3}
	m := NewMaintenance(repo, 24*time.Hour, nil)

	now := time.Date(2025, 5, 2, 12, 0, 0, 0, time.UTC)
	m.Housekeep(context.Background(), now)

	if want := now.Add(-24 * time.Hour); !repo.prunedBefore.Equal(want) {
		t.Fatalf("pruned before %v, want %v", repo.prunedBefore, want)
	}
}

func TestMaintenance_ZeroRetentionKeepsHistory(t *testing.T) {
	repo := &fakeEventRepo{}
	NewMaintenance(repo, 0, nil).Housekeep(context.Background(), time.Now())

	if !repo.prunedBefore.IsZero() {
		t.Fatal("prune should not run with zero retention")
	}
}

func TestMaintenance_PruneErrorIsSwallowed(t *testing.T) {
	repo := &fakeEventRepo{pruneErr: errors.New("locked")}
	NewMaintenance(repo, time.Hour, nil).Housekeep(context.Background(), time.Now())
}

func TestMaintenance_NilRepo(t *testing.T) {
	NewMaintenance(nil, time.Hour, nil).Housekeep(context.Background(), time.Now())
}
