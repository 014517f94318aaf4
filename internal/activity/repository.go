package activity

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/elitefit-gym/trainer-portal/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the activity log.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func buildFilter(trainerID int64, criteria Criteria) *shared.Filter {
	f := shared.NewFilter("a.trainer_id", trainerID)
	f.EqualsIf("a.category", string(criteria.Category))
	f.EqualsIfID("a.member_id", criteria.MemberID)
	f.OnDay("a.created_at", criteria.Day)
	f.Search(criteria.Search, "a.title", "a.note")
	return f
}

// Insert appends a new entry to the log.
func (r *Repository) Insert(ctx context.Context, input RecordInput) (int64, error) {
	const query = `
		INSERT INTO activity_log (trainer_id, member_id, category, title, note, related_kind, related_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id`

	var memberID, relatedID pgtype.Int8
	if input.MemberID > 0 {
		memberID = pgtype.Int8{Int64: input.MemberID, Valid: true}
	}
	var relatedKind pgtype.Text
	if input.RelatedKind != "" && input.RelatedID > 0 {
		relatedKind = pgtype.Text{String: string(input.RelatedKind), Valid: true}
		relatedID = pgtype.Int8{Int64: input.RelatedID, Valid: true}
	}

	var id int64
	err := r.pool.QueryRow(ctx, query,
		input.TrainerID, memberID, string(input.Category), input.Title, input.Note, relatedKind, relatedID,
	).Scan(&id)
	return id, err
}

// List returns one page of entries matching the criteria, most recent first.
// Ordering ties on created_at break on id so paging is deterministic.
func (r *Repository) List(ctx context.Context, trainerID int64, criteria Criteria, page shared.Pagination) ([]Entry, error) {
	f := buildFilter(trainerID, criteria)
	limit, args := f.WithPage(page)
	query := `
		SELECT a.id, a.trainer_id, a.member_id, a.category, a.title, a.note,
			a.related_kind, a.related_id, a.created_at,
			COALESCE(m.name, ''), COALESCE(m.image_url, '')
		FROM activity_log a
		LEFT JOIN members m ON m.id = a.member_id` +
		f.Where() + `
		ORDER BY a.created_at DESC, a.id DESC` + limit

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	var refs []relatedRef
	for rows.Next() {
		var e Entry
		var memberID, relatedID pgtype.Int8
		var relatedKind pgtype.Text
		err := rows.Scan(
			&e.ID, &e.TrainerID, &memberID, &e.Category, &e.Title, &e.Note,
			&relatedKind, &relatedID, &e.CreatedAt,
			&e.MemberName, &e.MemberImage,
		)
		if err != nil {
			return nil, err
		}
		e.MemberID = memberID.Int64
		entries = append(entries, e)
		if relatedKind.Valid && relatedID.Valid {
			refs = append(refs, relatedRef{index: len(entries) - 1, kind: RelatedKind(relatedKind.String), id: relatedID.Int64})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.resolveRelated(ctx, entries, refs); err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns the number of entries matching the criteria. It mirrors the
// predicate construction of List exactly.
func (r *Repository) Count(ctx context.Context, trainerID int64, criteria Criteria) (int, error) {
	f := buildFilter(trainerID, criteria)
	query := `SELECT COUNT(*) FROM activity_log a` + f.Where()

	var count int
	err := r.pool.QueryRow(ctx, query, f.Args()...).Scan(&count)
	return count, err
}

// Stats aggregates the trainer's whole log; the list filter never applies.
// Day and week boundaries follow the supplied IANA timezone.
func (r *Repository) Stats(ctx context.Context, trainerID int64, tz string) (StatsSnapshot, error) {
	snapshot := StatsSnapshot{ByCategory: map[string]int{}}

	const totalsQuery = `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE (created_at AT TIME ZONE $2)::date = (NOW() AT TIME ZONE $2)::date),
			COUNT(*) FILTER (WHERE date_trunc('week', created_at AT TIME ZONE $2) = date_trunc('week', NOW() AT TIME ZONE $2))
		FROM activity_log
		WHERE trainer_id = $1`
	if err := r.pool.QueryRow(ctx, totalsQuery, trainerID, tz).Scan(&snapshot.Total, &snapshot.Today, &snapshot.ThisWeek); err != nil {
		return StatsSnapshot{ByCategory: map[string]int{}}, err
	}

	const byCategoryQuery = `
		SELECT category, COUNT(*)
		FROM activity_log
		WHERE trainer_id = $1
		GROUP BY category`
	rows, err := r.pool.Query(ctx, byCategoryQuery, trainerID)
	if err != nil {
		return StatsSnapshot{ByCategory: map[string]int{}}, err
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return StatsSnapshot{ByCategory: map[string]int{}}, err
		}
		snapshot.ByCategory[category] = count
	}
	if err := rows.Err(); err != nil {
		return StatsSnapshot{ByCategory: map[string]int{}}, err
	}

	// Tie-break: highest count first, then lowest member id.
	const topMemberQuery = `
		SELECT m.id, m.name, COUNT(*) AS entries
		FROM activity_log a
		JOIN members m ON m.id = a.member_id
		WHERE a.trainer_id = $1
		GROUP BY m.id, m.name
		ORDER BY entries DESC, m.id ASC
		LIMIT 1`
	var top TopMember
	err = r.pool.QueryRow(ctx, topMemberQuery, trainerID).Scan(&top.MemberID, &top.Name, &top.Count)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// No member-scoped entries yet.
	case err != nil:
		return StatsSnapshot{ByCategory: map[string]int{}}, err
	default:
		snapshot.TopMember = &top
	}

	return snapshot, nil
}

type relatedRef struct {
	index int
	kind  RelatedKind
	id    int64
}

// resolveRelated fills the Related variant per entry with one lookup per
// variant kind, batched across the page.
func (r *Repository) resolveRelated(ctx context.Context, entries []Entry, refs []relatedRef) error {
	byKind := map[RelatedKind][]relatedRef{}
	for _, ref := range refs {
		byKind[ref.kind] = append(byKind[ref.kind], ref)
	}

	for kind, kindRefs := range byKind {
		ids := make([]int64, len(kindRefs))
		for i, ref := range kindRefs {
			ids[i] = ref.id
		}

		var query string
		switch kind {
		case RelatedSession:
			query = `SELECT id, COALESCE(notes, ''), starts_at FROM gym_sessions WHERE id = ANY($1)`
		case RelatedWorkoutPlan:
			query = `SELECT id, title, created_at FROM workout_plans WHERE id = ANY($1)`
		case RelatedNutritionPlan:
			query = `SELECT id, title, created_at FROM nutrition_plans WHERE id = ANY($1)`
		default:
			continue
		}

		rows, err := r.pool.Query(ctx, query, ids)
		if err != nil {
			return err
		}
		resolved := map[int64]Related{}
		for rows.Next() {
			var id int64
			var title string
			var date time.Time
			if err := rows.Scan(&id, &title, &date); err != nil {
				rows.Close()
				return err
			}
			resolved[id] = Related{Kind: kind, Title: title, Date: date}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, ref := range kindRefs {
			if rel, ok := resolved[ref.id]; ok {
				entries[ref.index].Related = &rel
			} else {
				// Referenced row is gone; fall back to the entry's own fields.
				entries[ref.index].Related = &Related{Kind: kind, Title: entries[ref.index].Title, Date: entries[ref.index].CreatedAt}
			}
		}
	}
	return nil
}
