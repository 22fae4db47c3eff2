package services

import (
	"context"
	"testing"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/scoring"
	"github.com/stretchr/testify/require"
)

type recomputeFixture struct {
	svc               RecomputeService
	matchRepo         *fakeMatchRepo
	matchPredRepo     *fakeMatchPredRepo
	standingRepo      *fakeStandingRepo
	groupPredRepo     *fakeGroupPredRepo
	topscorerPredRepo *fakeTopscorerPredRepo
	winnerPredRepo    *fakeWinnerPredRepo
	resultRepo        *fakeResultRepo
	auditRepo         *fakeAuditRepo
	ranking           *fakeRankingService
	notifier          *fakeNotifier
}

func newRecomputeFixture(t *testing.T) *recomputeFixture {
	t.Helper()
	f := &recomputeFixture{
		matchRepo:         newFakeMatchRepo(),
		matchPredRepo:     newFakeMatchPredRepo(),
		standingRepo:      newFakeStandingRepo(),
		groupPredRepo:     newFakeGroupPredRepo(),
		topscorerPredRepo: newFakeTopscorerPredRepo(),
		winnerPredRepo:    newFakeWinnerPredRepo(),
		resultRepo:        newFakeResultRepo(),
		auditRepo:         &fakeAuditRepo{},
		ranking:           newFakeRankingService(),
		notifier:          &fakeNotifier{},
	}
	f.svc = NewRecomputeService(
		f.matchRepo,
		f.matchPredRepo,
		f.standingRepo,
		f.groupPredRepo,
		f.topscorerPredRepo,
		f.winnerPredRepo,
		f.resultRepo,
		f.auditRepo,
		f.ranking,
		f.notifier,
		scoring.DefaultPolicy,
		newTestLogger(),
	)
	return f
}

func finishedMatch(id, tournamentID int, home, away int) *models.Match {
	return &models.Match{
		ID:           id,
		TournamentID: tournamentID,
		HomeTeam:     "Brazil",
		AwayTeam:     "France",
		HomeScore:    intPtr(home),
		AwayScore:    intPtr(away),
		Stage:        models.StageGroup,
		Status:       models.MatchStatusFinished,
	}
}

func TestCalculateMatchPoints_ScoresAllCategories(t *testing.T) {
	f := newRecomputeFixture(t)
	f.matchRepo = newFakeMatchRepo(finishedMatch(1, 1, 2, 1))
	f.matchPredRepo = newFakeMatchPredRepo(
		&models.MatchPrediction{ID: 1, PoolID: 5, UserID: 1, MatchID: 1, PredictedHome: 2, PredictedAway: 1},
		&models.MatchPrediction{ID: 2, PoolID: 5, UserID: 2, MatchID: 1, PredictedHome: 3, PredictedAway: 0},
		&models.MatchPrediction{ID: 3, PoolID: 5, UserID: 3, MatchID: 1, PredictedHome: 1, PredictedAway: 1},
	)
	f.svc = NewRecomputeService(f.matchRepo, f.matchPredRepo, f.standingRepo, f.groupPredRepo,
		f.topscorerPredRepo, f.winnerPredRepo, f.resultRepo, f.auditRepo, f.ranking, f.notifier,
		scoring.DefaultPolicy, newTestLogger())

	summary, err := f.svc.CalculateMatchPoints(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Updated)
	require.Equal(t, 0, summary.Skipped)
	require.Empty(t, summary.Errors)

	require.Equal(t, 5, *f.matchPredRepo.predictions[1].PointsEarned)
	require.Equal(t, models.OutcomeKindExact, *f.matchPredRepo.predictions[1].OutcomeKind)
	require.Equal(t, 2, *f.matchPredRepo.predictions[2].PointsEarned)
	require.Equal(t, models.OutcomeKindResult, *f.matchPredRepo.predictions[2].OutcomeKind)
	require.Equal(t, 0, *f.matchPredRepo.predictions[3].PointsEarned)
	require.Equal(t, models.OutcomeKindMiss, *f.matchPredRepo.predictions[3].OutcomeKind)

	require.Equal(t, []int{5}, f.ranking.rebuiltPools())
	require.Equal(t, []int{5}, f.notifier.notified())
}

func TestCalculateMatchPoints_Idempotent(t *testing.T) {
	f := newRecomputeFixture(t)
	f.matchRepo = newFakeMatchRepo(finishedMatch(1, 1, 2, 1))
	f.matchPredRepo = newFakeMatchPredRepo(
		&models.MatchPrediction{ID: 1, PoolID: 5, UserID: 1, MatchID: 1, PredictedHome: 2, PredictedAway: 1},
	)
	f.svc = NewRecomputeService(f.matchRepo, f.matchPredRepo, f.standingRepo, f.groupPredRepo,
		f.topscorerPredRepo, f.winnerPredRepo, f.resultRepo, f.auditRepo, f.ranking, f.notifier,
		scoring.DefaultPolicy, newTestLogger())

	first, err := f.svc.CalculateMatchPoints(context.Background(), 1, 10)
	require.NoError(t, err)
	second, err := f.svc.CalculateMatchPoints(context.Background(), 1, 10)
	require.NoError(t, err)

	require.Equal(t, first.Updated, second.Updated)
	require.Equal(t, 5, *f.matchPredRepo.predictions[1].PointsEarned)
}

func TestCalculateMatchPoints_RowErrorDoesNotAbortBatch(t *testing.T) {
	f := newRecomputeFixture(t)
	f.matchRepo = newFakeMatchRepo(finishedMatch(1, 1, 2, 1))
	f.matchPredRepo = newFakeMatchPredRepo(
		&models.MatchPrediction{ID: 1, PoolID: 5, UserID: 1, MatchID: 1, PredictedHome: 2, PredictedAway: 1},
		&models.MatchPrediction{ID: 2, PoolID: 5, UserID: 2, MatchID: 1, PredictedHome: 0, PredictedAway: 0},
	)
	f.matchPredRepo.failIDs[1] = true
	f.svc = NewRecomputeService(f.matchRepo, f.matchPredRepo, f.standingRepo, f.groupPredRepo,
		f.topscorerPredRepo, f.winnerPredRepo, f.resultRepo, f.auditRepo, f.ranking, f.notifier,
		scoring.DefaultPolicy, newTestLogger())

	summary, err := f.svc.CalculateMatchPoints(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Updated)
	require.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Errors, 1)
	require.NotNil(t, f.matchPredRepo.predictions[2].PointsEarned)
}

func TestCalculateMatchPoints_UnscoredFinishedMatchIgnored(t *testing.T) {
	f := newRecomputeFixture(t)
	f.matchRepo = newFakeMatchRepo(&models.Match{
		ID: 1, TournamentID: 1, HomeTeam: "Brazil", AwayTeam: "France",
		Stage: models.StageGroup, Status: models.MatchStatusFinished,
	})
	f.svc = NewRecomputeService(f.matchRepo, f.matchPredRepo, f.standingRepo, f.groupPredRepo,
		f.topscorerPredRepo, f.winnerPredRepo, f.resultRepo, f.auditRepo, f.ranking, f.notifier,
		scoring.DefaultPolicy, newTestLogger())

	summary, err := f.svc.CalculateMatchPoints(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, 0, summary.Updated)
	require.Empty(t, f.ranking.rebuiltPools())
}

func TestCalculateGroupPoints_SkipsIncompleteStanding(t *testing.T) {
	f := newRecomputeFixture(t)
	f.standingRepo = newFakeStandingRepo(&models.GroupStanding{
		TournamentID: 1, GroupName: "A", Teams: []string{"A1", "A2"},
	})
	f.svc = NewRecomputeService(f.matchRepo, f.matchPredRepo, f.standingRepo, f.groupPredRepo,
		f.topscorerPredRepo, f.winnerPredRepo, f.resultRepo, f.auditRepo, f.ranking, f.notifier,
		scoring.DefaultPolicy, newTestLogger())

	summary, err := f.svc.CalculateGroupPoints(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, 0, summary.Updated)
	require.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Errors, 1)
}

func TestCalculateGroupPoints_MalformedPredictionIsRowError(t *testing.T) {
	f := newRecomputeFixture(t)
	f.standingRepo = newFakeStandingRepo(&models.GroupStanding{
		TournamentID: 1, GroupName: "A", Teams: []string{"A1", "A2", "A3", "A4"},
	})
	f.groupPredRepo = newFakeGroupPredRepo(
		&models.GroupStandingPrediction{ID: 1, PoolID: 5, UserID: 1, TournamentID: 1, GroupName: "A", Teams: []string{"A1", "A2", "A4", "A3"}},
		&models.GroupStandingPrediction{ID: 2, PoolID: 5, UserID: 2, TournamentID: 1, GroupName: "A", Teams: []string{"A1", "A2"}},
	)
	f.svc = NewRecomputeService(f.matchRepo, f.matchPredRepo, f.standingRepo, f.groupPredRepo,
		f.topscorerPredRepo, f.winnerPredRepo, f.resultRepo, f.auditRepo, f.ranking, f.notifier,
		scoring.DefaultPolicy, newTestLogger())

	summary, err := f.svc.CalculateGroupPoints(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Updated)
	require.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Errors, 1)

	// Два верных места, без бонуса: 2 * 3 = 6.
	require.Equal(t, 6, *f.groupPredRepo.predictions[1].PointsEarned)
	require.Nil(t, f.groupPredRepo.predictions[2].PointsEarned)

	require.Equal(t, models.AuditActionPointsCalculated, f.auditRepo.lastAction())
}

func TestCalculateWinnerPoints_RequiresWinner(t *testing.T) {
	f := newRecomputeFixture(t)
	_, err := f.resultRepo.GetOrCreate(context.Background(), nil, 1)
	require.NoError(t, err)

	_, err = f.svc.CalculateWinnerPoints(context.Background(), 1, 10)
	require.ErrorIs(t, err, ErrWinnerNotSet)
}

func TestCalculateWinnerPoints_ScoresPredictions(t *testing.T) {
	f := newRecomputeFixture(t)
	_, err := f.resultRepo.GetOrCreate(context.Background(), nil, 1)
	require.NoError(t, err)
	require.NoError(t, f.resultRepo.UpdateWinnerFinalist(context.Background(), nil, 1, "Brazil", "France"))

	f.winnerPredRepo = newFakeWinnerPredRepo(
		&models.WinnerPrediction{ID: 1, PoolID: 5, UserID: 1, TournamentID: 1, Country: "Brazil"},
		&models.WinnerPrediction{ID: 2, PoolID: 5, UserID: 2, TournamentID: 1, Country: "France"},
		&models.WinnerPrediction{ID: 3, PoolID: 6, UserID: 3, TournamentID: 1, Country: "Germany"},
	)
	f.svc = NewRecomputeService(f.matchRepo, f.matchPredRepo, f.standingRepo, f.groupPredRepo,
		f.topscorerPredRepo, f.winnerPredRepo, f.resultRepo, f.auditRepo, f.ranking, f.notifier,
		scoring.DefaultPolicy, newTestLogger())

	summary, err := f.svc.CalculateWinnerPoints(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Updated)

	require.Equal(t, 25, *f.winnerPredRepo.predictions[1].PointsEarned)
	require.Equal(t, 5, *f.winnerPredRepo.predictions[2].PointsEarned)
	require.Equal(t, 0, *f.winnerPredRepo.predictions[3].PointsEarned)

	require.Equal(t, []int{5, 6}, f.ranking.rebuiltPools())
	require.Equal(t, []int{5, 6}, f.notifier.notified())
	require.Equal(t, models.AuditActionPointsCalculated, f.auditRepo.lastAction())
}

func TestCalculateWinnerPoints_RebuildFailureIsCollected(t *testing.T) {
	f := newRecomputeFixture(t)
	_, err := f.resultRepo.GetOrCreate(context.Background(), nil, 1)
	require.NoError(t, err)
	require.NoError(t, f.resultRepo.UpdateWinnerFinalist(context.Background(), nil, 1, "Brazil", "France"))

	f.winnerPredRepo = newFakeWinnerPredRepo(
		&models.WinnerPrediction{ID: 1, PoolID: 5, UserID: 1, TournamentID: 1, Country: "Brazil"},
		&models.WinnerPrediction{ID: 2, PoolID: 6, UserID: 2, TournamentID: 1, Country: "France"},
	)
	f.ranking.fail[5] = true
	f.svc = NewRecomputeService(f.matchRepo, f.matchPredRepo, f.standingRepo, f.groupPredRepo,
		f.topscorerPredRepo, f.winnerPredRepo, f.resultRepo, f.auditRepo, f.ranking, f.notifier,
		scoring.DefaultPolicy, newTestLogger())

	summary, err := f.svc.CalculateWinnerPoints(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Updated)
	require.Len(t, summary.Errors, 1)
	require.Equal(t, []int{6}, f.ranking.rebuiltPools())
	require.Equal(t, []int{6}, f.notifier.notified())
}

func TestCalculateTopscorerPoints_RequiresTopscorer(t *testing.T) {
	f := newRecomputeFixture(t)
	_, err := f.resultRepo.GetOrCreate(context.Background(), nil, 1)
	require.NoError(t, err)

	_, err = f.svc.CalculateTopscorerPoints(context.Background(), 1, 10)
	require.ErrorIs(t, err, ErrTopscorerRequired)
}

func TestCalculateTopscorerPoints_ScoresPredictions(t *testing.T) {
	f := newRecomputeFixture(t)
	_, err := f.resultRepo.GetOrCreate(context.Background(), nil, 1)
	require.NoError(t, err)
	require.NoError(t, f.resultRepo.UpdateTopscorer(context.Background(), nil, 1, "Ronaldo", []string{"Ronaldo", "Henry", "Klose"}))

	f.topscorerPredRepo = newFakeTopscorerPredRepo(
		&models.TopscorerPrediction{ID: 1, PoolID: 5, UserID: 1, TournamentID: 1, PlayerName: "Ronaldo"},
		&models.TopscorerPrediction{ID: 2, PoolID: 5, UserID: 2, TournamentID: 1, PlayerName: "Henry"},
		&models.TopscorerPrediction{ID: 3, PoolID: 5, UserID: 3, TournamentID: 1, PlayerName: "Zidane"},
	)
	f.svc = NewRecomputeService(f.matchRepo, f.matchPredRepo, f.standingRepo, f.groupPredRepo,
		f.topscorerPredRepo, f.winnerPredRepo, f.resultRepo, f.auditRepo, f.ranking, f.notifier,
		scoring.DefaultPolicy, newTestLogger())

	summary, err := f.svc.CalculateTopscorerPoints(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Updated)

	require.Equal(t, 15, *f.topscorerPredRepo.predictions[1].PointsEarned)
	require.Equal(t, 3, *f.topscorerPredRepo.predictions[2].PointsEarned)
	require.Equal(t, 0, *f.topscorerPredRepo.predictions[3].PointsEarned)
}

func TestCalculateWinnerPoints_ResultMissing(t *testing.T) {
	f := newRecomputeFixture(t)
	_, err := f.svc.CalculateWinnerPoints(context.Background(), 1, 10)
	require.ErrorIs(t, err, ErrResultNotFound)
}
