// Package store persists the settlement ledger and records in Postgres.
// Every balance-moving operation runs inside one transaction: record rows are
// locked FOR UPDATE, engine math runs against the in-memory copies, and the
// updated rows, balance moves, and event row commit together or not at all.
package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/occydefi/solagent-economy/pkg/domain"

	_ "embed"
)

//go:embed schema.sql
var schemaSQL string

var ErrNotFound = errors.New("record not found")

// DBTX is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx, so
// loaders and savers run identically inside and outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct{ DB *pgxpool.Pool }

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, schemaSQL)
	return err
}

// WithTx runs fn inside a transaction, committing only if fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// --- protocol ---

// InitProtocol inserts the singleton protocol row. The second return is
// false when the row already existed; initialization is first-writer-wins.
func InitProtocol(ctx context.Context, db DBTX, authority domain.AuthorityKey) (*domain.Protocol, bool, error) {
	p := domain.NewProtocol(authority)
	tag, err := db.Exec(ctx, `
INSERT INTO protocol(id, authority, treasury, fee_bps)
VALUES (1, $1, $2, $3)
ON CONFLICT (id) DO NOTHING
`, string(p.Authority), string(p.Treasury), int32(p.FeeBps))
	if err != nil {
		return nil, false, err
	}
	if tag.RowsAffected() == 0 {
		existing, err := GetProtocol(ctx, db)
		return existing, false, err
	}
	return p, true, nil
}

func scanProtocol(row pgx.Row) (*domain.Protocol, error) {
	var p domain.Protocol
	var feeBps int32
	var agents, services, payments, volume, staked int64
	err := row.Scan(&p.Authority, &p.Treasury, &feeBps, &agents, &services, &payments, &volume, &staked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.FeeBps = uint16(feeBps)
	p.TotalAgents = uint64(agents)
	p.TotalServices = uint64(services)
	p.TotalPayments = uint64(payments)
	p.TotalVolume = uint64(volume)
	p.TotalStaked = uint64(staked)
	return &p, nil
}

const protocolCols = `authority, treasury, fee_bps, total_agents, total_services, total_payments, total_volume, total_staked`

func GetProtocol(ctx context.Context, db DBTX) (*domain.Protocol, error) {
	return scanProtocol(db.QueryRow(ctx, `SELECT `+protocolCols+` FROM protocol WHERE id=1`))
}

func GetProtocolForUpdate(ctx context.Context, tx pgx.Tx) (*domain.Protocol, error) {
	return scanProtocol(tx.QueryRow(ctx, `SELECT `+protocolCols+` FROM protocol WHERE id=1 FOR UPDATE`))
}

func SaveProtocol(ctx context.Context, db DBTX, p *domain.Protocol) error {
	_, err := db.Exec(ctx, `
UPDATE protocol SET
  total_agents=$1, total_services=$2, total_payments=$3, total_volume=$4, total_staked=$5
WHERE id=1
`, int64(p.TotalAgents), int64(p.TotalServices), int64(p.TotalPayments), int64(p.TotalVolume), int64(p.TotalStaked))
	return err
}

// --- agents ---

func CreateAgent(ctx context.Context, db DBTX, a *domain.Agent) error {
	_, err := db.Exec(ctx, `
INSERT INTO agents(agent_id, authority, name, description, capabilities, endpoint, registered_at, is_active)
VALUES($1,$2,$3,$4,$5,$6,$7,$8)
`, string(a.ID), string(a.Authority), a.Name, a.Description, a.Capabilities, a.Endpoint, a.RegisteredAt, a.IsActive)
	return err
}

func CreateAgentToken(ctx context.Context, db DBTX, id domain.AgentID, tokenHash string) error {
	_, err := db.Exec(ctx, `INSERT INTO agent_tokens(token_hash, agent_id) VALUES($1,$2)`, tokenHash, string(id))
	return err
}

const agentCols = `agent_id, authority, name, description, capabilities, endpoint,
  reputation_score, total_staked, total_earned, total_spent,
  services_completed, services_requested, feedbacks_received, registered_at, is_active`

func scanAgent(row pgx.Row) (*domain.Agent, error) {
	var a domain.Agent
	var score, staked, earned, spent, completed, requested, feedbacks int64
	err := row.Scan(&a.ID, &a.Authority, &a.Name, &a.Description, &a.Capabilities, &a.Endpoint,
		&score, &staked, &earned, &spent, &completed, &requested, &feedbacks,
		&a.RegisteredAt, &a.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.ReputationScore = uint64(score)
	a.TotalStaked = uint64(staked)
	a.TotalEarned = uint64(earned)
	a.TotalSpent = uint64(spent)
	a.ServicesCompleted = uint64(completed)
	a.ServicesRequested = uint64(requested)
	a.FeedbacksReceived = uint64(feedbacks)
	return &a, nil
}

func GetAgent(ctx context.Context, db DBTX, id domain.AgentID) (*domain.Agent, error) {
	return scanAgent(db.QueryRow(ctx, `SELECT `+agentCols+` FROM agents WHERE agent_id=$1`, string(id)))
}

func GetAgentForUpdate(ctx context.Context, tx pgx.Tx, id domain.AgentID) (*domain.Agent, error) {
	return scanAgent(tx.QueryRow(ctx, `SELECT `+agentCols+` FROM agents WHERE agent_id=$1 FOR UPDATE`, string(id)))
}

// SaveAgent writes back the mutable counters. Identity fields never change.
func SaveAgent(ctx context.Context, db DBTX, a *domain.Agent) error {
	_, err := db.Exec(ctx, `
UPDATE agents SET
  reputation_score=$2, total_staked=$3, total_earned=$4, total_spent=$5,
  services_completed=$6, services_requested=$7, feedbacks_received=$8, is_active=$9
WHERE agent_id=$1
`, string(a.ID), int64(a.ReputationScore), int64(a.TotalStaked), int64(a.TotalEarned), int64(a.TotalSpent),
		int64(a.ServicesCompleted), int64(a.ServicesRequested), int64(a.FeedbacksReceived), a.IsActive)
	return err
}

// --- services ---

func CreateService(ctx context.Context, db DBTX, sv *domain.Service) error {
	_, err := db.Exec(ctx, `
INSERT INTO services(service_id, provider_id, authority, title, description, price_lamports, price_model, tags, is_active, created_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`, string(sv.ID), string(sv.Provider), string(sv.Authority), sv.Title, sv.Description,
		int64(sv.PriceLamports), string(sv.PriceModel), sv.Tags, sv.IsActive, sv.CreatedAt)
	return err
}

const serviceCols = `service_id, provider_id, authority, title, description, price_lamports, price_model, tags,
  total_orders, total_revenue, avg_rating, is_active, created_at`

func scanService(row pgx.Row) (*domain.Service, error) {
	var sv domain.Service
	var price, orders, revenue int64
	var rating int16
	err := row.Scan(&sv.ID, &sv.Provider, &sv.Authority, &sv.Title, &sv.Description, &price, &sv.PriceModel, &sv.Tags,
		&orders, &revenue, &rating, &sv.IsActive, &sv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	sv.PriceLamports = uint64(price)
	sv.TotalOrders = uint64(orders)
	sv.TotalRevenue = uint64(revenue)
	sv.AvgRating = uint8(rating)
	return &sv, nil
}

func GetService(ctx context.Context, db DBTX, id domain.ServiceID) (*domain.Service, error) {
	return scanService(db.QueryRow(ctx, `SELECT `+serviceCols+` FROM services WHERE service_id=$1`, string(id)))
}

func GetServiceForUpdate(ctx context.Context, tx pgx.Tx, id domain.ServiceID) (*domain.Service, error) {
	return scanService(tx.QueryRow(ctx, `SELECT `+serviceCols+` FROM services WHERE service_id=$1 FOR UPDATE`, string(id)))
}

func SaveService(ctx context.Context, db DBTX, sv *domain.Service) error {
	_, err := db.Exec(ctx, `
UPDATE services SET total_orders=$2, total_revenue=$3, avg_rating=$4, is_active=$5
WHERE service_id=$1
`, string(sv.ID), int64(sv.TotalOrders), int64(sv.TotalRevenue), int16(sv.AvgRating), sv.IsActive)
	return err
}

// ListServices returns active listings, optionally filtered by tag.
func ListServices(ctx context.Context, db DBTX, tag string, limit int) ([]*domain.Service, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := `SELECT ` + serviceCols + ` FROM services WHERE is_active ORDER BY created_at DESC LIMIT $1`
	args := []any{limit}
	if tag != "" {
		q = `SELECT ` + serviceCols + ` FROM services WHERE is_active AND $2 = ANY(tags) ORDER BY created_at DESC LIMIT $1`
		args = append(args, tag)
	}
	rows, err := db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Service
	for rows.Next() {
		sv, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

// --- payments ---

func CreatePayment(ctx context.Context, db DBTX, p *domain.Payment) error {
	_, err := db.Exec(ctx, `
INSERT INTO payments(payment_id, payer_id, receiver_id, service_id, amount, intent, conditions, status, created_at, timeout_at, completed_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`, string(p.ID), string(p.Payer), string(p.Receiver), string(p.Service), int64(p.Amount),
		p.Intent, p.Conditions, string(p.Status), p.CreatedAt, p.TimeoutAt, p.CompletedAt)
	return err
}

const paymentCols = `payment_id, payer_id, receiver_id, service_id, amount, intent, conditions, status, created_at, timeout_at, completed_at`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	var amount int64
	err := row.Scan(&p.ID, &p.Payer, &p.Receiver, &p.Service, &amount, &p.Intent, &p.Conditions,
		&p.Status, &p.CreatedAt, &p.TimeoutAt, &p.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Amount = uint64(amount)
	return &p, nil
}

func GetPayment(ctx context.Context, db DBTX, id domain.PaymentID) (*domain.Payment, error) {
	return scanPayment(db.QueryRow(ctx, `SELECT `+paymentCols+` FROM payments WHERE payment_id=$1`, string(id)))
}

func GetPaymentForUpdate(ctx context.Context, tx pgx.Tx, id domain.PaymentID) (*domain.Payment, error) {
	return scanPayment(tx.QueryRow(ctx, `SELECT `+paymentCols+` FROM payments WHERE payment_id=$1 FOR UPDATE`, string(id)))
}

func SavePayment(ctx context.Context, db DBTX, p *domain.Payment) error {
	_, err := db.Exec(ctx, `
UPDATE payments SET status=$2, completed_at=$3 WHERE payment_id=$1
`, string(p.ID), string(p.Status), p.CompletedAt)
	return err
}

// --- streams ---

func CreateStream(ctx context.Context, db DBTX, st *domain.Stream) error {
	_, err := db.Exec(ctx, `
INSERT INTO streams(stream_id, payer_id, receiver_id, rate_per_second, deposited, withdrawn, started_at, max_end_at, last_withdrawn_at, is_active)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`, string(st.ID), string(st.Payer), string(st.Receiver), int64(st.RatePerSecond), int64(st.Deposited),
		int64(st.Withdrawn), st.StartedAt, st.MaxEndAt, st.LastWithdrawnAt, st.IsActive)
	return err
}

const streamCols = `stream_id, payer_id, receiver_id, rate_per_second, deposited, withdrawn, started_at, max_end_at, last_withdrawn_at, is_active`

func scanStream(row pgx.Row) (*domain.Stream, error) {
	var st domain.Stream
	var rate, deposited, withdrawn int64
	err := row.Scan(&st.ID, &st.Payer, &st.Receiver, &rate, &deposited, &withdrawn,
		&st.StartedAt, &st.MaxEndAt, &st.LastWithdrawnAt, &st.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	st.RatePerSecond = uint64(rate)
	st.Deposited = uint64(deposited)
	st.Withdrawn = uint64(withdrawn)
	return &st, nil
}

func GetStream(ctx context.Context, db DBTX, id domain.StreamID) (*domain.Stream, error) {
	return scanStream(db.QueryRow(ctx, `SELECT `+streamCols+` FROM streams WHERE stream_id=$1`, string(id)))
}

func GetStreamForUpdate(ctx context.Context, tx pgx.Tx, id domain.StreamID) (*domain.Stream, error) {
	return scanStream(tx.QueryRow(ctx, `SELECT `+streamCols+` FROM streams WHERE stream_id=$1 FOR UPDATE`, string(id)))
}

func SaveStream(ctx context.Context, db DBTX, st *domain.Stream) error {
	_, err := db.Exec(ctx, `
UPDATE streams SET withdrawn=$2, last_withdrawn_at=$3, is_active=$4 WHERE stream_id=$1
`, string(st.ID), int64(st.Withdrawn), st.LastWithdrawnAt, st.IsActive)
	return err
}

// --- feedback ---

// CreateFeedback inserts the record. A second feedback for the same
// (rater, ratee) pair hits the primary key and maps to ErrDuplicateFeedback.
func CreateFeedback(ctx context.Context, db DBTX, f *domain.Feedback) error {
	_, err := db.Exec(ctx, `
INSERT INTO feedbacks(rater_id, ratee_id, rating, comment, ts)
VALUES($1,$2,$3,$4,$5)
`, string(f.Rater), string(f.Ratee), int16(f.Rating), f.Comment, f.Timestamp)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrDuplicateFeedback
	}
	return err
}

func ListFeedbacks(ctx context.Context, db DBTX, ratee domain.AgentID) ([]*domain.Feedback, error) {
	rows, err := db.Query(ctx, `
SELECT rater_id, ratee_id, rating, comment, ts FROM feedbacks WHERE ratee_id=$1 ORDER BY ts DESC
`, string(ratee))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Feedback
	for rows.Next() {
		var f domain.Feedback
		var rating int16
		if err := rows.Scan(&f.Rater, &f.Ratee, &rating, &f.Comment, &f.Timestamp); err != nil {
			return nil, err
		}
		f.Rating = uint8(rating)
		out = append(out, &f)
	}
	return out, rows.Err()
}

// --- balances ---

// CreditBalance mints into an account. Only the dev faucet uses this; real
// funds enter through the substrate.
func CreditBalance(ctx context.Context, db DBTX, account string, amount uint64) error {
	_, err := db.Exec(ctx, `
INSERT INTO balances(account, balance) VALUES($1,$2)
ON CONFLICT (account) DO UPDATE SET balance = balances.balance + EXCLUDED.balance
`, account, int64(amount))
	return err
}

func GetBalance(ctx context.Context, db DBTX, account string) (uint64, error) {
	var bal int64
	err := db.QueryRow(ctx, `SELECT balance FROM balances WHERE account=$1`, account).Scan(&bal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return uint64(bal), nil
}

// --- events ---

func AddEvent(ctx context.Context, db DBTX, eventID, subject, eventType string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `
INSERT INTO settlement_events(event_id, subject, event_type, payload)
VALUES($1,$2,$3,$4::jsonb)
`, eventID, subject, eventType, string(b))
	return err
}

type EventRow struct {
	EventID   string          `json:"event_id"`
	Subject   string          `json:"subject"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

func ListEvents(ctx context.Context, db DBTX, subject string, limit int) ([]EventRow, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := db.Query(ctx, `
SELECT event_id, subject, event_type, payload
FROM settlement_events WHERE subject=$1 ORDER BY created_at DESC LIMIT $2
`, subject, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []EventRow
	for rows.Next() {
		var e EventRow
		if err := rows.Scan(&e.EventID, &e.Subject, &e.EventType, &e.Payload); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- idempotency ---

func (s *Store) GetIdempotencyRecord(ctx context.Context, agentID, idempotencyKey, endpoint string) (int, map[string]any, bool, error) {
	var status int
	var raw []byte
	err := s.DB.QueryRow(ctx, `
SELECT response_status, response_body
FROM settlement_idempotency_records
WHERE agent_id=$1 AND idempotency_key=$2 AND endpoint=$3
`, agentID, idempotencyKey, endpoint).Scan(&status, &raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil, false, nil
		}
		return 0, nil, false, err
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return 0, nil, false, err
	}
	return status, body, true, nil
}

func (s *Store) SaveIdempotencyRecord(ctx context.Context, agentID, idempotencyKey, endpoint string, responseStatus int, responseBody map[string]any) error {
	b, err := json.Marshal(responseBody)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
INSERT INTO settlement_idempotency_records(agent_id, idempotency_key, endpoint, response_status, response_body)
VALUES($1,$2,$3,$4,$5::jsonb)
ON CONFLICT (agent_id, idempotency_key, endpoint) DO NOTHING
`, agentID, idempotencyKey, endpoint, responseStatus, string(b))
	return err
}
