package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTxDB возвращает sqlmock-хендл для сервисов, работающих через
// транзакции. Ожидания Begin/Commit/Rollback задаёт сам тест.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func expectTx(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectCommit()
}

func expectTxRollback(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectRollback()
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// --- fakes ---

type fakeResultRepo struct {
	results map[int]*models.TournamentResult
	nextID  int
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{results: make(map[int]*models.TournamentResult), nextID: 1}
}

func (f *fakeResultRepo) GetOrCreate(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (*models.TournamentResult, error) {
	if res, ok := f.results[tournamentID]; ok {
		cp := *res
		return &cp, nil
	}
	res := &models.TournamentResult{
		ID:           f.nextID,
		TournamentID: tournamentID,
		Status:       models.ResultStatusDraft,
	}
	f.nextID++
	f.results[tournamentID] = res
	cp := *res
	return &cp, nil
}

func (f *fakeResultRepo) GetByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (*models.TournamentResult, error) {
	res, ok := f.results[tournamentID]
	if !ok {
		return nil, repositories.ErrTournamentResultNotFound
	}
	cp := *res
	return &cp, nil
}

func (f *fakeResultRepo) UpdateWinnerFinalist(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, winner, finalist string) error {
	res, ok := f.results[tournamentID]
	if !ok {
		return repositories.ErrTournamentResultNotFound
	}
	res.Winner = &winner
	res.Finalist = &finalist
	return nil
}

func (f *fakeResultRepo) UpdateTopscorer(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, topScorer string, topThree []string) error {
	res, ok := f.results[tournamentID]
	if !ok {
		return repositories.ErrTournamentResultNotFound
	}
	res.TopScorer = &topScorer
	res.TopThree = topThree
	return nil
}

func (f *fakeResultRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, status models.ResultStatus, lockedAt *time.Time, lockedBy *int) error {
	res, ok := f.results[tournamentID]
	if !ok {
		return repositories.ErrTournamentResultNotFound
	}
	res.Status = status
	res.LockedAt = lockedAt
	res.LockedBy = lockedBy
	return nil
}

type fakeAuditRepo struct {
	entries []*models.AuditLogEntry
}

func (f *fakeAuditRepo) Append(ctx context.Context, exec repositories.SQLExecutor, entry *models.AuditLogEntry) error {
	entry.ID = len(f.entries) + 1
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditRepo) List(ctx context.Context, filter repositories.AuditLogFilter) ([]*models.AuditLogEntry, error) {
	return f.entries, nil
}

func (f *fakeAuditRepo) lastAction() models.AuditAction {
	if len(f.entries) == 0 {
		return ""
	}
	return f.entries[len(f.entries)-1].Action
}

type fakeMatchRepo struct {
	matches map[int]*models.Match
	nextID  int
}

func newFakeMatchRepo(matches ...*models.Match) *fakeMatchRepo {
	f := &fakeMatchRepo{matches: make(map[int]*models.Match), nextID: 1}
	for _, m := range matches {
		if m.ID == 0 {
			m.ID = f.nextID
		}
		if m.ID >= f.nextID {
			f.nextID = m.ID + 1
		}
		f.matches[m.ID] = m
	}
	return f
}

func (f *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	for _, m := range f.matches {
		if m.TournamentID == match.TournamentID && m.HomeTeam == match.HomeTeam && m.AwayTeam == match.AwayTeam {
			return repositories.ErrMatchDuplicate
		}
	}
	match.ID = f.nextID
	f.nextID++
	f.matches[match.ID] = match
	return nil
}

func (f *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID int, status *models.MatchStatus) ([]*models.Match, error) {
	out := make([]*models.Match, 0)
	for _, m := range f.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if status != nil && m.Status != *status {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMatchRepo) UpdateScore(ctx context.Context, exec repositories.SQLExecutor, id int, home, away int, penaltyWinner *string, status models.MatchStatus) error {
	m, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.HomeScore = &home
	m.AwayScore = &away
	m.PenaltyWinner = penaltyWinner
	m.Status = status
	return nil
}

func (f *fakeMatchRepo) Exists(ctx context.Context, tournamentID int, homeTeam, awayTeam string) (bool, error) {
	for _, m := range f.matches {
		if m.TournamentID == tournamentID && m.HomeTeam == homeTeam && m.AwayTeam == awayTeam {
			return true, nil
		}
	}
	return false, nil
}

type fakeStandingRepo struct {
	standings map[string]*models.GroupStanding
}

func newFakeStandingRepo(standings ...*models.GroupStanding) *fakeStandingRepo {
	f := &fakeStandingRepo{standings: make(map[string]*models.GroupStanding)}
	for _, s := range standings {
		f.standings[standingKey(s.TournamentID, s.GroupName)] = s
	}
	return f
}

func standingKey(tournamentID int, group string) string {
	return fmt.Sprintf("%d/%s", tournamentID, group)
}

func (f *fakeStandingRepo) Upsert(ctx context.Context, exec repositories.SQLExecutor, standing *models.GroupStanding) error {
	key := standingKey(standing.TournamentID, standing.GroupName)
	if prev, ok := f.standings[key]; ok {
		standing.ID = prev.ID
	} else {
		standing.ID = len(f.standings) + 1
	}
	f.standings[key] = standing
	return nil
}

func (f *fakeStandingRepo) GetByGroup(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, groupName string) (*models.GroupStanding, error) {
	s, ok := f.standings[standingKey(tournamentID, groupName)]
	if !ok {
		return nil, repositories.ErrGroupStandingNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStandingRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.GroupStanding, error) {
	out := make([]*models.GroupStanding, 0)
	for _, s := range f.standings {
		if s.TournamentID == tournamentID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupName < out[j].GroupName })
	return out, nil
}

type fakeMatchPredRepo struct {
	predictions map[int]*models.MatchPrediction
	failIDs     map[int]bool
}

func newFakeMatchPredRepo(preds ...*models.MatchPrediction) *fakeMatchPredRepo {
	f := &fakeMatchPredRepo{predictions: make(map[int]*models.MatchPrediction), failIDs: make(map[int]bool)}
	for _, p := range preds {
		f.predictions[p.ID] = p
	}
	return f
}

func (f *fakeMatchPredRepo) GetByID(ctx context.Context, id int) (*models.MatchPrediction, error) {
	p, ok := f.predictions[id]
	if !ok {
		return nil, repositories.ErrMatchPredictionNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeMatchPredRepo) ListByMatch(ctx context.Context, matchID int) ([]*models.MatchPrediction, error) {
	out := make([]*models.MatchPrediction, 0)
	for _, p := range f.predictions {
		if p.MatchID == matchID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMatchPredRepo) UpdatePoints(ctx context.Context, exec repositories.SQLExecutor, id int, points int, kind models.MatchOutcomeKind) error {
	if f.failIDs[id] {
		return fmt.Errorf("simulated write failure for prediction %d", id)
	}
	p, ok := f.predictions[id]
	if !ok {
		return repositories.ErrMatchPredictionNotFound
	}
	p.PointsEarned = &points
	p.OutcomeKind = &kind
	return nil
}

type fakeGroupPredRepo struct {
	predictions map[int]*models.GroupStandingPrediction
	failIDs     map[int]bool
}

func newFakeGroupPredRepo(preds ...*models.GroupStandingPrediction) *fakeGroupPredRepo {
	f := &fakeGroupPredRepo{predictions: make(map[int]*models.GroupStandingPrediction), failIDs: make(map[int]bool)}
	for _, p := range preds {
		f.predictions[p.ID] = p
	}
	return f
}

func (f *fakeGroupPredRepo) ListByGroup(ctx context.Context, tournamentID int, groupName string) ([]*models.GroupStandingPrediction, error) {
	out := make([]*models.GroupStandingPrediction, 0)
	for _, p := range f.predictions {
		if p.TournamentID == tournamentID && p.GroupName == groupName {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeGroupPredRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.GroupStandingPrediction, error) {
	out := make([]*models.GroupStandingPrediction, 0)
	for _, p := range f.predictions {
		if p.TournamentID == tournamentID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeGroupPredRepo) UpdatePoints(ctx context.Context, exec repositories.SQLExecutor, id int, points int) error {
	if f.failIDs[id] {
		return fmt.Errorf("simulated write failure for prediction %d", id)
	}
	p, ok := f.predictions[id]
	if !ok {
		return repositories.ErrGroupPredictionNotFound
	}
	p.PointsEarned = &points
	return nil
}

type fakeTopscorerPredRepo struct {
	predictions map[int]*models.TopscorerPrediction
}

func newFakeTopscorerPredRepo(preds ...*models.TopscorerPrediction) *fakeTopscorerPredRepo {
	f := &fakeTopscorerPredRepo{predictions: make(map[int]*models.TopscorerPrediction)}
	for _, p := range preds {
		f.predictions[p.ID] = p
	}
	return f
}

func (f *fakeTopscorerPredRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.TopscorerPrediction, error) {
	out := make([]*models.TopscorerPrediction, 0)
	for _, p := range f.predictions {
		if p.TournamentID == tournamentID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTopscorerPredRepo) UpdatePoints(ctx context.Context, exec repositories.SQLExecutor, id int, points int) error {
	p, ok := f.predictions[id]
	if !ok {
		return repositories.ErrTopscorerPredictionNotFound
	}
	p.PointsEarned = &points
	return nil
}

type fakeWinnerPredRepo struct {
	predictions map[int]*models.WinnerPrediction
}

func newFakeWinnerPredRepo(preds ...*models.WinnerPrediction) *fakeWinnerPredRepo {
	f := &fakeWinnerPredRepo{predictions: make(map[int]*models.WinnerPrediction)}
	for _, p := range preds {
		f.predictions[p.ID] = p
	}
	return f
}

func (f *fakeWinnerPredRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.WinnerPrediction, error) {
	out := make([]*models.WinnerPrediction, 0)
	for _, p := range f.predictions {
		if p.TournamentID == tournamentID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeWinnerPredRepo) UpdatePoints(ctx context.Context, exec repositories.SQLExecutor, id int, points int) error {
	p, ok := f.predictions[id]
	if !ok {
		return repositories.ErrWinnerPredictionNotFound
	}
	p.PointsEarned = &points
	return nil
}

type fakePoolRepo struct {
	pools   map[int]*models.Pool
	members map[int][]*models.PoolMember
	totals  map[int][]repositories.MemberTotalRow
}

func newFakePoolRepo() *fakePoolRepo {
	return &fakePoolRepo{
		pools:   make(map[int]*models.Pool),
		members: make(map[int][]*models.PoolMember),
		totals:  make(map[int][]repositories.MemberTotalRow),
	}
}

func (f *fakePoolRepo) GetByID(ctx context.Context, id int) (*models.Pool, error) {
	p, ok := f.pools[id]
	if !ok {
		return nil, repositories.ErrPoolNotFound
	}
	return p, nil
}

func (f *fakePoolRepo) ListIDsByTournament(ctx context.Context, tournamentID int) ([]int, error) {
	ids := make([]int, 0)
	for id, p := range f.pools {
		if p.TournamentID == tournamentID {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (f *fakePoolRepo) ListMembers(ctx context.Context, poolID int) ([]*models.PoolMember, error) {
	return f.members[poolID], nil
}

func (f *fakePoolRepo) MemberTotals(ctx context.Context, poolID int) ([]repositories.MemberTotalRow, error) {
	return f.totals[poolID], nil
}

func (f *fakePoolRepo) UpdateMemberPointsRank(ctx context.Context, exec repositories.SQLExecutor, memberID int, points int, rank int) error {
	for _, members := range f.members {
		for _, m := range members {
			if m.ID == memberID {
				m.Points = points
				m.Rank = intPtr(rank)
				return nil
			}
		}
	}
	return repositories.ErrPoolMemberNotFound
}

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo(tournaments ...*models.Tournament) *fakeTournamentRepo {
	f := &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament)}
	for _, t := range tournaments {
		f.tournaments[t.ID] = t
	}
	return f
}

func (f *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, ok := f.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (f *fakeTournamentRepo) MarkStatsFinalized(ctx context.Context, exec repositories.SQLExecutor, id int) (bool, error) {
	t, ok := f.tournaments[id]
	if !ok {
		return false, repositories.ErrTournamentNotFound
	}
	if t.StatsFinalizedAt != nil {
		return false, nil
	}
	now := time.Now()
	t.StatsFinalizedAt = &now
	return true, nil
}

type statsCall struct {
	userID int
	points int
	won    bool
	podium bool
}

type fakeStatsRepo struct {
	calls []statsCall
}

func (f *fakeStatsRepo) Accumulate(ctx context.Context, exec repositories.SQLExecutor, userID, points int, won, podium bool) error {
	f.calls = append(f.calls, statsCall{userID: userID, points: points, won: won, podium: podium})
	return nil
}

func (f *fakeStatsRepo) GetByUser(ctx context.Context, userID int) (*models.MemberStats, error) {
	return nil, repositories.ErrMemberStatsNotFound
}

type rankingCall struct {
	poolID int
}

type fakeRankingService struct {
	mu    sync.Mutex
	calls []rankingCall
	fail  map[int]bool
}

func newFakeRankingService() *fakeRankingService {
	return &fakeRankingService{fail: make(map[int]bool)}
}

func (f *fakeRankingService) RebuildPoolStandings(ctx context.Context, poolID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[poolID] {
		return fmt.Errorf("simulated rebuild failure for pool %d", poolID)
	}
	f.calls = append(f.calls, rankingCall{poolID: poolID})
	return nil
}

func (f *fakeRankingService) GetLeaderboard(ctx context.Context, poolID int) ([]*models.PoolMember, error) {
	return nil, nil
}

func (f *fakeRankingService) rebuiltPools() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int, 0, len(f.calls))
	for _, c := range f.calls {
		ids = append(ids, c.poolID)
	}
	sort.Ints(ids)
	return ids
}

type fakeNotifier struct {
	mu    sync.Mutex
	pools []int
}

func (f *fakeNotifier) NotifyLeaderboardUpdated(poolID int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pools = append(f.pools, poolID)
}

func (f *fakeNotifier) notified() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := append([]int(nil), f.pools...)
	sort.Ints(ids)
	return ids
}
