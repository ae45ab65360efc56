//go:build integration

package registration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clubreg/internal/registration/models"
	dErrors "clubreg/pkg/domain-errors"
	"clubreg/pkg/platform/sentinel"
	"clubreg/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Postgres
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.pg.Exec(s.T(), Schema)
	s.store = NewPostgres(s.pg.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.pg.Exec(s.T(), "TRUNCATE registrations RESTART IDENTITY")
}

func (s *PostgresStoreSuite) insertPending() *models.Registration {
	r, err := models.NewSubmission("Simone", "Weil", "simone@example.org", "senior", time.Now())
	s.Require().NoError(err)
	stored, err := s.store.Insert(s.ctx, r)
	s.Require().NoError(err)
	return stored
}

func (s *PostgresStoreSuite) TestInsertAndGet() {
	stored := s.insertPending()
	s.Require().False(stored.ID.IsZero())

	got, err := s.store.Get(s.ctx, stored.ID)
	s.Require().NoError(err)
	s.Equal("simone@example.org", got.Email)
	s.Equal(models.StatusPending, got.Status)
	s.Nil(got.Payment)
	s.False(got.CreatedAt.IsZero())
}

func (s *PostgresStoreSuite) TestGetUnknownID() {
	_, err := s.store.Get(s.ctx, 9999)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateAppliesTransition() {
	stored := s.insertPending()

	comment := "dossier complete"
	updated, err := s.store.Update(s.ctx, stored.ID, models.Transition{
		Status:  models.StatusAccepted,
		Comment: &comment,
	})
	s.Require().NoError(err)
	s.Equal(models.StatusAccepted, updated.Status)
	s.Equal("dossier complete", updated.Comment)
	s.True(updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))
}

func (s *PostgresStoreSuite) TestUpdateRejectsProcessedReversion() {
	stored := s.insertPending()

	_, err := s.store.Update(s.ctx, stored.ID, models.Transition{
		Status:    models.StatusAccepted,
		Processed: true,
	})
	s.Require().NoError(err)

	_, err = s.store.Update(s.ctx, stored.ID, models.Transition{
		Status: models.StatusAccepted,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *PostgresStoreSuite) TestPrivilegedUpdateRejectsProcessedReversion() {
	stored := s.insertPending()

	_, err := s.store.PrivilegedUpdate(s.ctx, stored.ID, models.Transition{
		Status:    models.StatusAccepted,
		Processed: true,
	})
	s.Require().NoError(err)

	// The definer function carries the guard in its WHERE clause; no Go
	// pre-check stands in front of this path.
	_, err = s.store.PrivilegedUpdate(s.ctx, stored.ID, models.Transition{
		Status: models.StatusRejected,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	got, err := s.store.Get(s.ctx, stored.ID)
	s.Require().NoError(err)
	s.True(got.Processed)
	s.Equal(models.StatusAccepted, got.Status)
}

func (s *PostgresStoreSuite) TestUpdateStatusRejectsProcessedReversion() {
	stored := s.insertPending()

	_, err := s.store.UpdateStatus(s.ctx, stored.ID, models.StatusAccepted, true)
	s.Require().NoError(err)

	_, err = s.store.UpdateStatus(s.ctx, stored.ID, models.StatusRejected, false)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	got, err := s.store.Get(s.ctx, stored.ID)
	s.Require().NoError(err)
	s.True(got.Processed)
	s.Equal(models.StatusAccepted, got.Status)
}

func (s *PostgresStoreSuite) TestUpdatePersistsPayment() {
	stored := s.insertPending()

	paidAt := time.Now().Truncate(time.Second)
	updated, err := s.store.Update(s.ctx, stored.ID, models.Transition{
		Status: models.StatusAccepted,
		Payment: &models.Payment{
			Method:      "card",
			Status:      models.PaymentCompleted,
			AmountCents: 12000,
			PaidAt:      paidAt,
			ProviderRef: "sess_abc",
		},
	})
	s.Require().NoError(err)
	s.Require().NotNil(updated.Payment)
	s.Equal(int64(12000), updated.Payment.AmountCents)
	s.Equal("sess_abc", updated.Payment.ProviderRef)

	// The payment must survive later transitions that do not carry one.
	got, err := s.store.Update(s.ctx, stored.ID, models.Transition{Status: models.StatusAccepted, Processed: true})
	s.Require().NoError(err)
	s.Require().NotNil(got.Payment)
	s.Equal("sess_abc", got.Payment.ProviderRef)
}

func (s *PostgresStoreSuite) TestPrivilegedUpdateGoesThroughDefinerFunction() {
	stored := s.insertPending()

	updated, err := s.store.PrivilegedUpdate(s.ctx, stored.ID, models.Transition{
		Status: models.StatusRejected,
	})
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, updated.Status)

	got, err := s.store.Get(s.ctx, stored.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, got.Status)
}

func (s *PostgresStoreSuite) TestUpdateStatusTouchesOnlyStatusColumns() {
	stored := s.insertPending()

	comment := "kept"
	_, err := s.store.Update(s.ctx, stored.ID, models.Transition{
		Status:  models.StatusPending,
		Comment: &comment,
	})
	s.Require().NoError(err)

	updated, err := s.store.UpdateStatus(s.ctx, stored.ID, models.StatusAccepted, false)
	s.Require().NoError(err)
	s.Equal(models.StatusAccepted, updated.Status)
	s.Equal("kept", updated.Comment)
}

func (s *PostgresStoreSuite) TestDelete() {
	stored := s.insertPending()
	s.Require().NoError(s.store.Delete(s.ctx, stored.ID))

	_, err := s.store.Get(s.ctx, stored.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().ErrorIs(s.store.Delete(s.ctx, stored.ID), sentinel.ErrNotFound)
}
