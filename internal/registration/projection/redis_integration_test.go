//go:build integration

package projection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clubreg/internal/registration/models"
	id "clubreg/pkg/domain"
	"clubreg/pkg/testutil/containers"
)

type RedisProjectionSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *Redis
	ctx   context.Context
}

func TestRedisProjectionSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisProjectionSuite))
}

func (s *RedisProjectionSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.NewRedisContainer(s.T())
	s.store = NewRedis(s.redis.Client, "test-session", time.Hour)
}

func (s *RedisProjectionSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisProjectionSuite) reg(regID int64, status models.Status) *models.Registration {
	return &models.Registration{
		ID:        id.RegistrationID(regID),
		FirstName: "Nadia",
		LastName:  "Boulanger",
		Email:     "nadia@example.org",
		Category:  "senior",
		Status:    status,
	}
}

func (s *RedisProjectionSuite) TestMissReturnsNoEntry() {
	_, ok, err := s.store.Get(s.ctx, 42)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisProjectionSuite) TestRoundTripAndSyncStates() {
	r := s.reg(1, models.StatusRejected)

	s.Require().NoError(s.store.MarkLocallyAhead(s.ctx, r))
	entry, ok, err := s.store.Get(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(SyncLocallyAhead, entry.SyncState)
	s.Equal(models.StatusRejected, entry.Registration.Status)

	ahead, err := s.store.LocallyAhead(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(ahead, 1)
	s.Equal(r.ID, ahead[0].Registration.ID)

	s.Require().NoError(s.store.MarkConfirmed(s.ctx, r))
	entry, ok, err = s.store.Get(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(SyncConfirmed, entry.SyncState)

	ahead, err = s.store.LocallyAhead(s.ctx)
	s.Require().NoError(err)
	s.Empty(ahead)
}

func (s *RedisProjectionSuite) TestDiscardAndClear() {
	s.Require().NoError(s.store.MarkLocallyAhead(s.ctx, s.reg(1, models.StatusAccepted)))
	s.Require().NoError(s.store.MarkLocallyAhead(s.ctx, s.reg(2, models.StatusRejected)))

	s.Require().NoError(s.store.Discard(s.ctx, 1))
	_, ok, err := s.store.Get(s.ctx, 1)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.store.Clear(s.ctx))
	ahead, err := s.store.LocallyAhead(s.ctx)
	s.Require().NoError(err)
	s.Empty(ahead)
}
