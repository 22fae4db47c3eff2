package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/prediction-pool/models"
)

var (
	ErrPoolNotFound       = errors.New("pool not found")
	ErrPoolMemberNotFound = errors.New("pool member not found")
)

// MemberTotalRow - сырой агрегат участника пула для движка рейтинга:
// сумма points_earned по всем четырём категориям и число точных попаданий.
type MemberTotalRow struct {
	MemberID  int
	UserID    int
	Points    int
	ExactHits int
}

type PoolRepository interface {
	GetByID(ctx context.Context, id int) (*models.Pool, error)
	ListIDsByTournament(ctx context.Context, tournamentID int) ([]int, error)
	ListMembers(ctx context.Context, poolID int) ([]*models.PoolMember, error)
	// MemberTotals пересчитывает суммы из текущих points_earned -
	// всегда полная сумма, никогда инкремент.
	MemberTotals(ctx context.Context, poolID int) ([]MemberTotalRow, error)
	UpdateMemberPointsRank(ctx context.Context, exec SQLExecutor, memberID int, points int, rank int) error
}

type postgresPoolRepository struct {
	db *sql.DB
}

func NewPostgresPoolRepository(db *sql.DB) PoolRepository {
	return &postgresPoolRepository{db: db}
}

func (r *postgresPoolRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPoolRepository) GetByID(ctx context.Context, id int) (*models.Pool, error) {
	query := `SELECT id, tournament_id, name, invite_code, created_at FROM pools WHERE id = $1`

	pool := &models.Pool{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&pool.ID, &pool.TournamentID, &pool.Name, &pool.InviteCode, &pool.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to scan pool %d: %w", id, err)
	}
	return pool, nil
}

func (r *postgresPoolRepository) ListIDsByTournament(ctx context.Context, tournamentID int) ([]int, error) {
	query := `SELECT id FROM pools WHERE tournament_id = $1 ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pools for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan pool id: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during pool id rows iteration: %w", err)
	}
	return ids, nil
}

func (r *postgresPoolRepository) ListMembers(ctx context.Context, poolID int) ([]*models.PoolMember, error) {
	query := `
		SELECT pm.id, pm.pool_id, pm.user_id, pm.points, pm.rank, pm.updated_at,
		       u.id, u.first_name, u.last_name, u.email, u.role, u.created_at
		FROM pool_members pm
		JOIN users u ON u.id = pm.user_id
		WHERE pm.pool_id = $1
		ORDER BY pm.rank ASC NULLS LAST, pm.points DESC, pm.user_id ASC`

	rows, err := r.db.QueryContext(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members for pool %d: %w", poolID, err)
	}
	defer rows.Close()

	members := make([]*models.PoolMember, 0)
	for rows.Next() {
		var m models.PoolMember
		var u models.User
		if scanErr := rows.Scan(
			&m.ID, &m.PoolID, &m.UserID, &m.Points, &m.Rank, &m.UpdatedAt,
			&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Role, &u.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan pool member row: %w", scanErr)
		}
		m.User = &u
		members = append(members, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during pool member rows iteration: %w", err)
	}
	return members, nil
}

func (r *postgresPoolRepository) MemberTotals(ctx context.Context, poolID int) ([]MemberTotalRow, error) {
	// Сумма считается только по уже начисленным строкам (points_earned NOT NULL):
	// непосчитанный прогноз не даёт вклада до первого пересчёта.
	query := `
		SELECT pm.id, pm.user_id,
		       COALESCE(mp.points, 0) + COALESCE(gp.points, 0) + COALESCE(tp.points, 0) + COALESCE(wp.points, 0) AS total,
		       COALESCE(mp.exact_hits, 0) AS exact_hits
		FROM pool_members pm
		LEFT JOIN (
			SELECT user_id,
			       SUM(COALESCE(points_earned, 0)) AS points,
			       COUNT(*) FILTER (WHERE outcome_kind = 'exact') AS exact_hits
			FROM match_predictions WHERE pool_id = $1 GROUP BY user_id
		) mp ON mp.user_id = pm.user_id
		LEFT JOIN (
			SELECT user_id, SUM(COALESCE(points_earned, 0)) AS points
			FROM group_standing_predictions WHERE pool_id = $1 GROUP BY user_id
		) gp ON gp.user_id = pm.user_id
		LEFT JOIN (
			SELECT user_id, SUM(COALESCE(points_earned, 0)) AS points
			FROM topscorer_predictions WHERE pool_id = $1 GROUP BY user_id
		) tp ON tp.user_id = pm.user_id
		LEFT JOIN (
			SELECT user_id, SUM(COALESCE(points_earned, 0)) AS points
			FROM winner_predictions WHERE pool_id = $1 GROUP BY user_id
		) wp ON wp.user_id = pm.user_id
		WHERE pm.pool_id = $1
		ORDER BY pm.user_id ASC`

	rows, err := r.db.QueryContext(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to query member totals for pool %d: %w", poolID, err)
	}
	defer rows.Close()

	totals := make([]MemberTotalRow, 0)
	for rows.Next() {
		var row MemberTotalRow
		if scanErr := rows.Scan(&row.MemberID, &row.UserID, &row.Points, &row.ExactHits); scanErr != nil {
			return nil, fmt.Errorf("failed to scan member total row: %w", scanErr)
		}
		totals = append(totals, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during member total rows iteration: %w", err)
	}
	return totals, nil
}

func (r *postgresPoolRepository) UpdateMemberPointsRank(ctx context.Context, exec SQLExecutor, memberID int, points int, rank int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE pool_members SET points = $1, rank = $2, updated_at = NOW() WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, points, rank, memberID)
	if err != nil {
		return fmt.Errorf("failed to update points/rank for pool member %d: %w", memberID, err)
	}
	return checkAffectedRows(result, ErrPoolMemberNotFound)
}
