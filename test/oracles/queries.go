package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

// All returns the SQL invariants checked while the stress actors run. Each
// query must return zero rows in a healthy database.
func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_single_match_per_meeting",
			SQL: `SELECT meeting_id, COUNT(*) FROM matches
                  GROUP BY meeting_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O2_finalized_fields_complete",
			SQL: `SELECT id FROM meetings
                  WHERE finalized_at IS NOT NULL
                    AND (outcome IS NULL OR fault IS NULL OR finalized_by IS NULL
                         OR status <> 'completed'
                         OR charge_status NOT IN ('captured','refunded','pending_review'))`,
		},
		{
			Name: "O3_used_credits_nonnegative",
			SQL:  `SELECT id, used_credits FROM users WHERE used_credits < 0`,
		},
		{
			Name: "O4_match_notice_volley",
			SQL: `SELECT payload->>'meeting_id', COUNT(*) FROM notifications
                  WHERE kind = 'match_formed'
                  GROUP BY payload->>'meeting_id' HAVING COUNT(*) > 2`,
		},
		{
			Name: "O5_decision_notice_exactly_once",
			SQL: `SELECT payload->>'meeting_id', COUNT(*) FROM notifications
                  WHERE kind = 'responses_complete'
                  GROUP BY payload->>'meeting_id' HAVING COUNT(*) > 2`,
		},
		{
			Name: "O6_participant_cardinality",
			SQL: `SELECT meeting_id, COUNT(*) FROM meeting_participants
                  GROUP BY meeting_id HAVING COUNT(*) <> 2`,
		},
		{
			Name: "O7_single_review_case",
			SQL: `SELECT meeting_id, COUNT(*) FROM review_cases
                  GROUP BY meeting_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O8_refund_matches_charge_status",
			SQL: `SELECT id FROM meetings
                  WHERE charge_status = 'refunded' AND finalized_at IS NULL`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		if rows.Next() {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
