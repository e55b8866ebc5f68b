package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/nature-catalyst/impact-intake/constants"
	"github.com/nature-catalyst/impact-intake/internal/common"
	"github.com/nature-catalyst/impact-intake/internal/entity"
)

type MemoryRepositorySuite struct {
	suite.Suite
	repo *MemoryRepository
	ctx  context.Context
}

func (s *MemoryRepositorySuite) SetupTest() {
	s.repo = NewMemoryRepository(nil)
	s.ctx = context.Background()
}

func TestMemoryRepositorySuite(t *testing.T) {
	suite.Run(t, new(MemoryRepositorySuite))
}

func newSubmission(name string) *entity.Project {
	return &entity.Project{
		ProjectName:       name,
		IncorporationDate: "2021-06-01",
		Sector:            "Clean Energy",
		Country:           "Kenya",
		Email:             "founder@example.com",
		BusinessModel:     "B2B energy-as-a-service",
		MaturityStage:     "Growth",
		Region:            "Africa",
		SDGs:              []string{"Affordable and clean energy (SDG 7)"},
	}
}

func (s *MemoryRepositorySuite) TestAddInitializesWorkflowState() {
	created, err := s.repo.Add(s.ctx, newSubmission("Solar Coop"))
	s.Require().NoError(err)

	s.NotEmpty(created.ID)
	s.True(strings.HasPrefix(created.ID, "proj_"))
	s.Len(created.PIN, 4)

	got, err := s.repo.Get(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(constants.StatusIdentified, got.Status)
	s.Empty(got.Portfolio)
	s.Empty(got.Rejected)
	s.False(got.EntrepreneurPending)
	s.False(got.LastUpdate.IsZero())
}

func (s *MemoryRepositorySuite) TestGetUnknownID() {
	_, err := s.repo.Get(s.ctx, "proj_missing")
	s.Require().ErrorIs(err, common.ErrNotFound)
}

func (s *MemoryRepositorySuite) TestUpdateMarksPending() {
	created, err := s.repo.Add(s.ctx, newSubmission("Solar Coop"))
	s.Require().NoError(err)
	before := created.LastUpdate

	sector := "Energy"
	time.Sleep(time.Millisecond)
	updated, err := s.repo.Update(s.ctx, created.ID, Patch{Sector: &sector})
	s.Require().NoError(err)

	s.Equal("Energy", updated.Sector)
	s.True(updated.EntrepreneurPending)
	s.True(updated.LastUpdate.After(before))

	s.Run("explicit pending override wins", func() {
		reviewed := false
		updated, err := s.repo.Update(s.ctx, created.ID, Patch{EntrepreneurPending: &reviewed})
		s.Require().NoError(err)
		s.False(updated.EntrepreneurPending)
	})

	s.Run("untouched fields survive a partial update", func() {
		got, err := s.repo.Get(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal("Kenya", got.Country)
		s.Equal("B2B energy-as-a-service", got.BusinessModel)
	})
}

func (s *MemoryRepositorySuite) TestStatusUpdateLeavesPendingAlone() {
	created, err := s.repo.Add(s.ctx, newSubmission("Solar Coop"))
	s.Require().NoError(err)

	sector := "Energy"
	_, err = s.repo.Update(s.ctx, created.ID, Patch{Sector: &sector})
	s.Require().NoError(err)

	updated, err := s.repo.UpdateStatus(s.ctx, created.ID, constants.StatusRaised)
	s.Require().NoError(err)
	s.Equal(constants.StatusRaised, updated.Status)
	s.True(updated.EntrepreneurPending, "status change must not clear the pending flag")
}

func (s *MemoryRepositorySuite) TestFindByCredentials() {
	created, err := s.repo.Add(s.ctx, newSubmission("Solar Coop"))
	s.Require().NoError(err)

	got, err := s.repo.FindByCredentials(s.ctx, created.ID, created.PIN)
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)

	_, err = s.repo.FindByCredentials(s.ctx, created.ID, "0000")
	s.Require().ErrorIs(err, common.ErrUnauthorized)

	_, err = s.repo.FindByCredentials(s.ctx, "proj_other", created.PIN)
	s.Require().ErrorIs(err, common.ErrUnauthorized)
}

func (s *MemoryRepositorySuite) TestMembershipMutualExclusion() {
	created, err := s.repo.Add(s.ctx, newSubmission("Solar Coop"))
	s.Require().NoError(err)

	p, err := s.repo.SetMembership(s.ctx, created.ID, constants.RoleNCGE, constants.MembershipAdd)
	s.Require().NoError(err)
	s.Contains(p.Portfolio, "NCGE")
	s.NotContains(p.Rejected, "NCGE")

	p, err = s.repo.SetMembership(s.ctx, created.ID, constants.RoleNCGE, constants.MembershipReject)
	s.Require().NoError(err)
	s.Contains(p.Rejected, "NCGE")
	s.NotContains(p.Portfolio, "NCGE")

	s.Run("other roles are untouched", func() {
		p, err := s.repo.SetMembership(s.ctx, created.ID, constants.RoleNCGD, constants.MembershipAdd)
		s.Require().NoError(err)
		s.Contains(p.Portfolio, "NCGD")
		s.Contains(p.Rejected, "NCGE")
	})

	s.Run("reconsider clears rejection only", func() {
		p, err := s.repo.SetMembership(s.ctx, created.ID, constants.RoleNCGE, constants.MembershipReconsider)
		s.Require().NoError(err)
		s.NotContains(p.Rejected, "NCGE")
		s.NotContains(p.Portfolio, "NCGE")
	})

	s.Run("add is idempotent", func() {
		_, err := s.repo.SetMembership(s.ctx, created.ID, constants.RoleNCGD, constants.MembershipAdd)
		s.Require().NoError(err)
		p, err := s.repo.Get(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal([]string{"NCGD"}, p.Portfolio)
	})

	s.Run("unknown action is rejected", func() {
		_, err := s.repo.SetMembership(s.ctx, created.ID, constants.RoleNCGE, constants.MembershipAction("promote"))
		s.Require().ErrorIs(err, common.ErrInvalidInput)
	})
}

func (s *MemoryRepositorySuite) TestDeleteIsPermanent() {
	created, err := s.repo.Add(s.ctx, newSubmission("Solar Coop"))
	s.Require().NoError(err)

	s.Require().NoError(s.repo.Delete(s.ctx, created.ID))
	_, err = s.repo.Get(s.ctx, created.ID)
	s.Require().ErrorIs(err, common.ErrNotFound)

	s.Require().ErrorIs(s.repo.Delete(s.ctx, created.ID), common.ErrNotFound)
}

func (s *MemoryRepositorySuite) TestListPreservesInsertionOrder() {
	first, err := s.repo.Add(s.ctx, newSubmission("Alpha"))
	s.Require().NoError(err)
	second, err := s.repo.Add(s.ctx, newSubmission("Beta"))
	s.Require().NoError(err)

	all, err := s.repo.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(first.ID, all[0].ID)
	s.Equal(second.ID, all[1].ID)

	s.Run("returned copies do not alias store internals", func() {
		all[0].Portfolio = append(all[0].Portfolio, "NCGE")
		got, err := s.repo.Get(s.ctx, first.ID)
		s.Require().NoError(err)
		s.Empty(got.Portfolio)
	})
}

func TestNewProjectIDShape(t *testing.T) {
	now := time.Now()
	id := NewProjectID(now)
	if !strings.HasPrefix(id, "proj_") {
		t.Fatalf("unexpected id prefix: %s", id)
	}
	parts := strings.SplitN(id, "_", 3)
	if len(parts) != 3 || len(parts[2]) != 9 {
		t.Fatalf("unexpected id shape: %s", id)
	}
}

func TestNewPINRange(t *testing.T) {
	for range 100 {
		pin := NewPIN()
		if len(pin) != 4 || pin[0] == '0' {
			t.Fatalf("pin outside 1000-9999: %s", pin)
		}
	}
}
