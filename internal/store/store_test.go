package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobradar-engine/internal/domain"
	"jobradar-engine/internal/rank"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func assessment(url, title, company string, fit int) rank.Assessment {
	return rank.Assessment{
		Posting: domain.Posting{
			Source:  "test",
			URL:     url,
			Title:   title,
			Company: company,
			IsOpen:  true,
		},
		FitScore: fit,
		Priority: "medium",
		Pass:     true,
	}
}

func TestUpsertInsertsAndCountsOnce(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	a := assessment("https://a.com/1", "Robot Engineer", "Acme", 6)
	require.NoError(t, db.UpsertAssessments(ctx, []rank.Assessment{a}))
	require.NoError(t, db.UpsertAssessments(ctx, []rank.Assessment{a}))

	n, err := db.CountJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpsertSamePostingNewURLUpdatesRow(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	old := assessment("https://a.com/1", "Robot Engineer", "Acme", 5)
	require.NoError(t, db.UpsertAssessments(ctx, []rank.Assessment{old}))

	// Same title+company reposted under a fresh URL: the tc_hash update
	// path must rewrite the existing row, not add a second one.
	renewed := assessment("https://a.com/1-repost", "Robot Engineer", "Acme", 8)
	require.NoError(t, db.UpsertAssessments(ctx, []rank.Assessment{renewed}))

	n, err := db.CountJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := db.TopJobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "https://a.com/1-repost", rows[0].Posting.URL)
	assert.Equal(t, 8, rows[0].FitScore)
}

func TestPruneClosedDeletesByBothHashes(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertAssessments(ctx, []rank.Assessment{
		assessment("https://a.com/1", "Robot Engineer", "Acme", 6),
		assessment("https://b.com/2", "SLAM Researcher", "Beta", 7),
	}))

	closed := domain.Posting{
		URL: "https://a.com/1", Title: "Robot Engineer", Company: "Acme", IsOpen: false,
	}
	stillOpen := domain.Posting{
		URL: "https://b.com/2", Title: "SLAM Researcher", Company: "Beta", IsOpen: true,
	}
	deleted, err := db.PruneClosed(ctx, []domain.Posting{closed, stillOpen})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	n, err := db.CountJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPruneClosedNoClosedInput(t *testing.T) {
	db := openTestDB(t)
	deleted, err := db.PruneClosed(context.Background(), []domain.Posting{
		{URL: "https://a.com/1", Title: "t", Company: "c", IsOpen: true},
	})
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestTopJobsOrdersByFitScore(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertAssessments(ctx, []rank.Assessment{
		assessment("https://a.com/1", "Low", "A", 2),
		assessment("https://b.com/2", "High", "B", 9),
		assessment("https://c.com/3", "Mid", "C", 5),
	}))

	rows, err := db.TopJobs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "High", rows[0].Posting.Title)
	assert.Equal(t, "Mid", rows[1].Posting.Title)
}
