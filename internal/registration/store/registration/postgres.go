package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"clubreg/internal/registration/models"
	id "clubreg/pkg/domain"
	dErrors "clubreg/pkg/domain-errors"
	"clubreg/pkg/platform/sentinel"
)

// Schema creates the registrations table and the privileged update function.
// The application role writes through row-level security; the definer
// function is the elevated path the fallback chain uses when the direct
// write is rejected on authorization grounds.
const Schema = `
CREATE TABLE IF NOT EXISTS registrations (
    id                   BIGSERIAL PRIMARY KEY,
    first_name           TEXT NOT NULL,
    last_name            TEXT NOT NULL,
    email                TEXT NOT NULL,
    category             TEXT NOT NULL,
    comment              TEXT NOT NULL DEFAULT '',
    status               TEXT NOT NULL DEFAULT 'pending',
    processed            BOOLEAN NOT NULL DEFAULT FALSE,
    payment_method       TEXT,
    payment_status       TEXT,
    payment_amount_cents BIGINT,
    payment_paid_at      TIMESTAMPTZ,
    payment_ref          TEXT,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE OR REPLACE FUNCTION registrations_admin_update(
    p_id BIGINT, p_status TEXT, p_processed BOOLEAN,
    p_payment_method TEXT, p_payment_status TEXT,
    p_payment_amount_cents BIGINT, p_payment_paid_at TIMESTAMPTZ,
    p_payment_ref TEXT, p_comment TEXT
) RETURNS SETOF registrations
LANGUAGE sql SECURITY DEFINER AS $$
    UPDATE registrations SET
        status               = p_status,
        processed            = p_processed,
        payment_method       = COALESCE(p_payment_method, payment_method),
        payment_status       = COALESCE(p_payment_status, payment_status),
        payment_amount_cents = COALESCE(p_payment_amount_cents, payment_amount_cents),
        payment_paid_at      = COALESCE(p_payment_paid_at, payment_paid_at),
        payment_ref          = COALESCE(p_payment_ref, payment_ref),
        comment              = COALESCE(p_comment, comment),
        updated_at           = now()
    WHERE id = p_id
      AND NOT (processed AND NOT p_processed)
      AND NOT (processed AND status = 'accepted' AND p_status <> 'accepted')
    RETURNING *;
$$;
`

const registrationColumns = `id, first_name, last_name, email, category, comment,
	status, processed, payment_method, payment_status, payment_amount_cents,
	payment_paid_at, payment_ref, created_at, updated_at`

// Postgres is the production store. It classifies driver errors into the
// sentinel taxonomy so the fallback chain can decide whether to fall through.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Get(ctx context.Context, regID id.RegistrationID) (*models.Registration, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, int64(regID))
	return scanRegistration(row)
}

func (s *Postgres) Insert(ctx context.Context, r *models.Registration) (*models.Registration, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO registrations (first_name, last_name, email, category, comment, status, processed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING `+registrationColumns,
		r.FirstName, r.LastName, r.Email, r.Category, r.Comment,
		string(r.Status), r.Processed, r.CreatedAt)
	return scanRegistration(row)
}

func (s *Postgres) Update(ctx context.Context, regID id.RegistrationID, t models.Transition) (*models.Registration, error) {
	current, err := s.Get(ctx, regID)
	if err != nil {
		return nil, err
	}
	if err := current.CanApply(t); err != nil {
		return nil, err
	}

	pm, ps, pa, pp, pr := paymentArgs(t.Payment)
	row := s.pool.QueryRow(ctx, `
		UPDATE registrations SET
			status = $2, processed = $3,
			payment_method = COALESCE($4, payment_method),
			payment_status = COALESCE($5, payment_status),
			payment_amount_cents = COALESCE($6, payment_amount_cents),
			payment_paid_at = COALESCE($7, payment_paid_at),
			payment_ref = COALESCE($8, payment_ref),
			comment = COALESCE($9, comment),
			updated_at = now()
		WHERE id = $1
		  AND NOT (processed AND NOT $3)
		  AND NOT (processed AND status = 'accepted' AND $2 <> 'accepted')
		RETURNING `+registrationColumns,
		int64(regID), string(t.Status), t.Processed, pm, ps, pa, pp, pr, t.Comment)
	reg, err := scanRegistration(row)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, s.explainNoRows(ctx, regID, t)
	}
	return reg, err
}

// PrivilegedUpdate routes the same transition through the security-definer
// function, bypassing the ordinary access-control path. Callers only reach
// for this after a direct write failed with an authorization-class error.
// The function body carries the same invariant guard as Update, so elevation
// never buys the right to revert a processed registration.
func (s *Postgres) PrivilegedUpdate(ctx context.Context, regID id.RegistrationID, t models.Transition) (*models.Registration, error) {
	pm, ps, pa, pp, pr := paymentArgs(t.Payment)
	row := s.pool.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations_admin_update($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		int64(regID), string(t.Status), t.Processed, pm, ps, pa, pp, pr, t.Comment)
	reg, err := scanRegistration(row)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, s.explainNoRows(ctx, regID, t)
	}
	return reg, err
}

// UpdateStatus writes only the columns that define the transition
// unambiguously. Older backend schemas without the payment columns can still
// serve this statement.
func (s *Postgres) UpdateStatus(ctx context.Context, regID id.RegistrationID, status models.Status, processed bool) (*models.Registration, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE registrations SET status = $2, processed = $3, updated_at = now()
		WHERE id = $1
		  AND NOT (processed AND NOT $3)
		  AND NOT (processed AND status = 'accepted' AND $2 <> 'accepted')
		RETURNING `+registrationColumns,
		int64(regID), string(status), processed)
	reg, err := scanRegistration(row)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, s.explainNoRows(ctx, regID, models.Transition{Status: status, Processed: processed})
	}
	return reg, err
}

// explainNoRows disambiguates a zero-row guarded UPDATE: either the row is
// gone or the transition trips the processed invariant. The statement guard
// is what makes the invariant hold under concurrent writers; this re-read
// only recovers the precise error for the caller.
func (s *Postgres) explainNoRows(ctx context.Context, regID id.RegistrationID, t models.Transition) error {
	current, err := s.Get(ctx, regID)
	if err != nil {
		return err
	}
	if err := current.CanApply(t); err != nil {
		return err
	}
	return dErrors.Newf(dErrors.CodeConflict, "registration %d changed concurrently", regID)
}

func (s *Postgres) Delete(ctx context.Context, regID id.RegistrationID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, int64(regID))
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func paymentArgs(p *models.Payment) (method, status *string, amount *int64, paidAt *time.Time, ref *string) {
	if p == nil {
		return nil, nil, nil, nil, nil
	}
	st := string(p.Status)
	return &p.Method, &st, &p.AmountCents, &p.PaidAt, &p.ProviderRef
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*models.Registration, error) {
	var (
		r       models.Registration
		regID   int64
		status  string
		method  *string
		pStatus *string
		amount  *int64
		paidAt  *time.Time
		ref     *string
	)
	err := row.Scan(&regID, &r.FirstName, &r.LastName, &r.Email, &r.Category,
		&r.Comment, &status, &r.Processed, &method, &pStatus, &amount, &paidAt,
		&ref, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	r.ID = id.RegistrationID(regID)
	r.Status = models.Status(status)
	if pStatus != nil {
		r.Payment = &models.Payment{Status: models.PaymentStatus(*pStatus)}
		if method != nil {
			r.Payment.Method = *method
		}
		if amount != nil {
			r.Payment.AmountCents = *amount
		}
		if paidAt != nil {
			r.Payment.PaidAt = *paidAt
		}
		if ref != nil {
			r.Payment.ProviderRef = *ref
		}
	}
	return &r, nil
}

// classify maps driver errors onto the sentinel taxonomy. The fallback chain
// falls through on ErrPermissionDenied and timeouts only; everything else
// surfaces as-is.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42501" || pgErr.Code == "28000":
			return fmt.Errorf("%w: %s", sentinel.ErrPermissionDenied, pgErr.Message)
		case strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23"):
			return dErrors.Wrap(err, dErrors.CodeValidation, "record store rejected the data")
		case strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "53") || pgErr.Code == "57014":
			return fmt.Errorf("%w: %s", sentinel.ErrUnavailable, pgErr.Message)
		}
		return fmt.Errorf("record store: %w", err)
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	return fmt.Errorf("record store: %w", err)
}
