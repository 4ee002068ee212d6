package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"claimflow/internal/domain"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) CreateClaim(ctx context.Context, claimID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO claims (id, state, completed_steps, snapshot)
		VALUES ($1, $2, $3, '{}'::jsonb)
		ON CONFLICT (id) DO NOTHING
	`, claimID, domain.StateIntake, pq.Array([]int64{}))
	return err
}

func (s *PostgresStore) GetClaim(ctx context.Context, claimID string) (domain.ClaimRecord, error) {
	var rec domain.ClaimRecord
	var steps []int64
	row := s.db.QueryRowContext(ctx, `
		SELECT id, state, completed_steps, snapshot, created_at, updated_at
		FROM claims
		WHERE id = $1
	`, claimID)
	if err := row.Scan(&rec.ID, &rec.State, pq.Array(&steps), &rec.Snapshot, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return domain.ClaimRecord{}, err
	}
	rec.CompletedSteps = toInts(steps)
	return rec, nil
}

// GetClaimSnapshot unpacks the stored snapshot and overlays the
// authoritative state and step columns.
func (s *PostgresStore) GetClaimSnapshot(ctx context.Context, claimID string) (domain.ClaimSnapshot, error) {
	rec, err := s.GetClaim(ctx, claimID)
	if err != nil {
		return domain.ClaimSnapshot{}, err
	}
	var snapshot domain.ClaimSnapshot
	if len(rec.Snapshot) > 0 {
		if err := json.Unmarshal(rec.Snapshot, &snapshot); err != nil {
			return domain.ClaimSnapshot{}, fmt.Errorf("unpack snapshot for claim %s: %w", claimID, err)
		}
	}
	snapshot.ClaimID = rec.ID
	snapshot.State = rec.State
	snapshot.CompletedSteps = rec.CompletedSteps
	return snapshot, nil
}

func (s *PostgresStore) SaveClaimSnapshot(ctx context.Context, claimID string, snapshot domain.ClaimSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE claims
		SET snapshot = $2::jsonb, updated_at = NOW()
		WHERE id = $1
	`, claimID, string(payload))
	return err
}

// ApplyTransition records the attempt in the append-only audit log and,
// only when it succeeded, moves the claim row. Both writes share one
// transaction so the audit trail never disagrees with the claim state.
func (s *PostgresStore) ApplyTransition(ctx context.Context, record domain.TransitionRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO claim_transitions (claim_id, from_state, to_state, user_id, reason, completed_steps, succeeded, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, record.ClaimID, record.FromState, record.ToState, record.UserID, record.Reason,
		pq.Array(toInt64s(record.CompletedSteps)), record.Succeeded, record.Timestamp)
	if err != nil {
		return err
	}

	if record.Succeeded {
		_, err = tx.ExecContext(ctx, `
			UPDATE claims
			SET state = $2, updated_at = NOW()
			WHERE id = $1
		`, record.ClaimID, record.ToState)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) ListTransitions(ctx context.Context, claimID string) ([]domain.TransitionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT claim_id, from_state, to_state, user_id, reason, completed_steps, succeeded, occurred_at
		FROM claim_transitions
		WHERE claim_id = $1
		ORDER BY occurred_at ASC, id ASC
	`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.TransitionRecord, 0)
	for rows.Next() {
		var rec domain.TransitionRecord
		var steps []int64
		if err := rows.Scan(&rec.ClaimID, &rec.FromState, &rec.ToState, &rec.UserID, &rec.Reason,
			pq.Array(&steps), &rec.Succeeded, &rec.Timestamp); err != nil {
			return nil, err
		}
		rec.CompletedSteps = toInts(steps)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *PostgresStore) CompleteStep(ctx context.Context, claimID string, step int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE claims
		SET completed_steps = (
			SELECT ARRAY(SELECT DISTINCT s FROM unnest(completed_steps || $2::int) AS s ORDER BY s)
		),
		updated_at = NOW()
		WHERE id = $1
	`, claimID, step)
	return err
}

func (s *PostgresStore) SaveCarrierResponse(ctx context.Context, rec domain.CarrierResponseRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO carrier_responses (id, claim_id, object_key, raw_text, response_type, confidence, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			response_type = EXCLUDED.response_type,
			confidence = EXCLUDED.confidence
	`, rec.ID, rec.ClaimID, rec.ObjectKey, rec.RawText, rec.ResponseType, rec.Confidence, rec.ReceivedAt)
	return err
}

func (s *PostgresStore) UpdateResponseClassification(ctx context.Context, responseID string, classification domain.ResponseClassification) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE carrier_responses
		SET response_type = $2,
		    confidence = $3,
		    indicators = $4,
		    limitations = $5
		WHERE id = $1
	`, responseID, classification.ResponseType, classification.Confidence,
		pq.Array(classification.Indicators), pq.Array(classification.Limitations))
	return err
}

func (s *PostgresStore) InsertAudit(ctx context.Context, claimID string, event string, detail any) error {
	var payload []byte
	switch v := detail.(type) {
	case nil:
		payload = []byte("{}")
	case []byte:
		payload = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		payload = b
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (claim_id, event, detail)
		VALUES ($1, $2, $3::jsonb)
	`, claimID, event, string(payload))
	return err
}

func (s *PostgresStore) EnqueueAction(ctx context.Context, item domain.ActionQueueItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO action_queue (id, claim_id, response_id, action_type, status, reason)
		VALUES ($1, $2, $3, $4, 'PENDING', $5)
		ON CONFLICT (id) DO NOTHING
	`, item.ID, item.ClaimID, item.ResponseID, item.ActionType, item.Reason)
	return err
}

func (s *PostgresStore) ResolveAction(ctx context.Context, actionID string, status domain.ActionStatus) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE action_queue
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`, actionID, status)
	return err
}

func (s *PostgresStore) ListPendingActions(ctx context.Context, claimID string) ([]domain.ActionQueueItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, claim_id, COALESCE(response_id, ''), action_type, status, reason, created_at
		FROM action_queue
		WHERE claim_id = $1 AND status = 'PENDING'
		ORDER BY created_at ASC
	`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.ActionQueueItem, 0)
	for rows.Next() {
		var item domain.ActionQueueItem
		if err := rows.Scan(&item.ID, &item.ClaimID, &item.ResponseID, &item.ActionType, &item.Status, &item.Reason, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *PostgresStore) ListCarrierResponses(ctx context.Context, claimID string) ([]domain.CarrierResponseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, claim_id, object_key, raw_text, response_type, confidence, received_at
		FROM carrier_responses
		WHERE claim_id = $1
		ORDER BY received_at ASC, id ASC
	`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.CarrierResponseRecord, 0)
	for rows.Next() {
		var rec domain.CarrierResponseRecord
		if err := rows.Scan(&rec.ID, &rec.ClaimID, &rec.ObjectKey, &rec.RawText, &rec.ResponseType, &rec.Confidence, &rec.ReceivedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *PostgresStore) SaveSubmission(ctx context.Context, rec domain.SubmissionRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, claim_id, submission_type, packet_json, object_key, submitted_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6)
	`, rec.ID, rec.ClaimID, rec.SubmissionType, string(rec.PacketJSON), rec.ObjectKey, rec.SubmittedAt)
	return err
}

func (s *PostgresStore) CountClaims(ctx context.Context) (int64, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM claims`)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count claims: %w", err)
	}
	return count, nil
}

func toInts(in []int64) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}

func toInt64s(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}
