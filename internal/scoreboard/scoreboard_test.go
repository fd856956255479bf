package scoreboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRecordAndRank(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.RecordResult(ctx, "Ann", "Bo"))
	require.NoError(t, s.RecordResult(ctx, "Ann", "Cal"))
	require.NoError(t, s.RecordResult(ctx, "Cal", "Bo"))

	entries, err := s.Rankings(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Ann: 2-0, Cal: 1-1, Bo: 0-2, ordered by fewest losses.
	assert.Equal(t, Entry{Player: "Ann", Wins: 2}, entries[0])
	assert.Equal(t, Entry{Player: "Cal", Wins: 1, Losses: 1}, entries[1])
	assert.Equal(t, Entry{Player: "Bo", Losses: 2}, entries[2])
}

func TestMemoryEmptyRankings(t *testing.T) {
	entries, err := NewMemory().Rankings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSortEntriesTieBreaks(t *testing.T) {
	entries := []Entry{
		{Player: "Zoe", Wins: 1, Losses: 1},
		{Player: "Ann", Wins: 1, Losses: 1},
		{Player: "Bo", Wins: 3, Losses: 1},
	}
	sortEntries(entries)

	assert.Equal(t, "Bo", entries[0].Player, "more wins ranks higher at equal losses")
	assert.Equal(t, "Ann", entries[1].Player, "name breaks the final tie")
	assert.Equal(t, "Zoe", entries[2].Player)
}
