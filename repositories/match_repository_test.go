package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/prediction-pool/models"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (sqlmock.Sqlmock, MatchRepository) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, NewPostgresMatchRepository(db)
}

func TestMatchRepository_GetByID(t *testing.T) {
	mock, repo := newMockDB(t)

	kickoff := time.Date(2026, 6, 11, 18, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "tournament_id", "home_team", "away_team", "home_score", "away_score",
		"penalty_winner", "stage", "status", "kickoff_at", "created_at", "updated_at",
	}).AddRow(1, 1, "Brazil", "France", 2, 1, nil, "group", "finished", kickoff, kickoff, kickoff)

	mock.ExpectQuery(`SELECT (.+) FROM matches`).WithArgs(1).WillReturnRows(rows)

	match, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "Brazil", match.HomeTeam)
	require.Equal(t, 2, *match.HomeScore)
	require.True(t, match.Scored())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_GetByID_NotFound(t *testing.T) {
	mock, repo := newMockDB(t)

	mock.ExpectQuery(`SELECT (.+) FROM matches`).WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 99)
	require.ErrorIs(t, err, ErrMatchNotFound)
}

func TestMatchRepository_UpdateScore(t *testing.T) {
	mock, repo := newMockDB(t)

	mock.ExpectExec(`UPDATE matches`).
		WithArgs(2, 1, nil, "finished", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateScore(context.Background(), nil, 1, 2, 1, nil, models.MatchStatusFinished)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_UpdateScore_NotFound(t *testing.T) {
	mock, repo := newMockDB(t)

	mock.ExpectExec(`UPDATE matches`).
		WithArgs(0, 0, nil, "finished", 99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateScore(context.Background(), nil, 99, 0, 0, nil, models.MatchStatusFinished)
	require.ErrorIs(t, err, ErrMatchNotFound)
}

func TestMatchRepository_Exists(t *testing.T) {
	mock, repo := newMockDB(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(1, "Brazil", "France").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), 1, "Brazil", "France")
	require.NoError(t, err)
	require.True(t, exists)
}
