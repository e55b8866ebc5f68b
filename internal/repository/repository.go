package repository

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/nature-catalyst/impact-intake/constants"
	"github.com/nature-catalyst/impact-intake/internal/common"
	"github.com/nature-catalyst/impact-intake/internal/entity"
)

// ProjectRepository is the storage contract for project records. All methods
// return defensive copies; callers never see store internals.
type ProjectRepository interface {
	// Add mints a fresh id and 4-digit PIN, initializes workflow fields
	// (status Identified, empty membership sets, pending false) and persists
	// the record. The returned copy carries the minted credentials.
	Add(ctx context.Context, p *entity.Project) (*entity.Project, error)

	// Get returns the record or common.ErrNotFound.
	Get(ctx context.Context, id string) (*entity.Project, error)

	// List returns all records in insertion order.
	List(ctx context.Context) ([]*entity.Project, error)

	// Update merges the patch into the named record and stamps lastUpdate.
	// Unless the patch sets EntrepreneurPending explicitly, the flag is
	// forced true to mark an edit awaiting reviewer attention.
	Update(ctx context.Context, id string, patch Patch) (*entity.Project, error)

	// UpdateStatus overwrites the review status and stamps lastUpdate.
	// EntrepreneurPending is left untouched.
	UpdateStatus(ctx context.Context, id string, status constants.Status) (*entity.Project, error)

	// Delete removes the record entirely. Irreversible.
	Delete(ctx context.Context, id string) error

	// FindByCredentials returns the record only when both id and pin match.
	// A mismatch on either reports common.ErrUnauthorized.
	FindByCredentials(ctx context.Context, id, pin string) (*entity.Project, error)

	// SetMembership applies a classification action for one reviewer role,
	// keeping portfolio and rejected mutually exclusive for that role.
	SetMembership(ctx context.Context, id string, role constants.Role, action constants.MembershipAction) (*entity.Project, error)

	// Close releases backend resources.
	Close() error
}

// Patch is a partial update: nil fields are left unchanged. The identity
// pair and membership sets are deliberately absent, they have dedicated
// operations.
type Patch struct {
	ProjectName       *string
	IncorporationDate *string
	Sector            *string
	Country           *string
	Email             *string

	BusinessModel *string
	MaturityStage *string
	Region        *string
	MainCountry   *string
	Instrument    *string
	CoreTeam      *string
	ImpactArea    *string
	KeyRisks      *string
	Barriers      *string
	Revenues      *float64
	Breakeven     *float64
	MarketSize    *float64
	ExpectedIRR   *float64
	FinancingNeed *float64
	UseOfProceeds *string
	SDGs          *[]string
	Problem       *string
	Solution      *string

	Status              *constants.Status
	EntrepreneurPending *bool
}

// apply merges the patch into p and stamps workflow state. Shared by every
// backend so merge semantics cannot drift between them.
func (patch Patch) apply(p *entity.Project, now time.Time) {
	setS := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setF := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}

	setS(&p.ProjectName, patch.ProjectName)
	setS(&p.IncorporationDate, patch.IncorporationDate)
	setS(&p.Sector, patch.Sector)
	setS(&p.Country, patch.Country)
	setS(&p.Email, patch.Email)
	setS(&p.BusinessModel, patch.BusinessModel)
	setS(&p.MaturityStage, patch.MaturityStage)
	setS(&p.Region, patch.Region)
	setS(&p.MainCountry, patch.MainCountry)
	setS(&p.Instrument, patch.Instrument)
	setS(&p.CoreTeam, patch.CoreTeam)
	setS(&p.ImpactArea, patch.ImpactArea)
	setS(&p.KeyRisks, patch.KeyRisks)
	setS(&p.Barriers, patch.Barriers)
	setF(&p.Revenues, patch.Revenues)
	setF(&p.Breakeven, patch.Breakeven)
	setF(&p.MarketSize, patch.MarketSize)
	setF(&p.ExpectedIRR, patch.ExpectedIRR)
	setF(&p.FinancingNeed, patch.FinancingNeed)
	setS(&p.UseOfProceeds, patch.UseOfProceeds)
	if patch.SDGs != nil {
		p.SDGs = slices.Clone(*patch.SDGs)
	}
	setS(&p.Problem, patch.Problem)
	setS(&p.Solution, patch.Solution)
	if patch.Status != nil {
		p.Status = *patch.Status
	}

	if patch.EntrepreneurPending != nil {
		p.EntrepreneurPending = *patch.EntrepreneurPending
	} else {
		p.EntrepreneurPending = true
	}
	p.LastUpdate = now
}

// applyMembership enforces the mutual-exclusion invariant for one role tag.
func applyMembership(p *entity.Project, role constants.Role, action constants.MembershipAction, now time.Time) error {
	tag := string(role)
	switch action {
	case constants.MembershipAdd:
		p.Rejected = removeTag(p.Rejected, tag)
		p.Portfolio = appendTag(p.Portfolio, tag)
	case constants.MembershipReject:
		p.Portfolio = removeTag(p.Portfolio, tag)
		p.Rejected = appendTag(p.Rejected, tag)
	case constants.MembershipReconsider:
		p.Rejected = removeTag(p.Rejected, tag)
	default:
		return common.NewAppError("INVALID_INPUT",
			fmt.Sprintf("unknown membership action %q", action), common.ErrInvalidInput)
	}
	p.LastUpdate = now
	return nil
}

func appendTag(tags []string, tag string) []string {
	if slices.Contains(tags, tag) {
		return tags
	}
	return append(tags, tag)
}

func removeTag(tags []string, tag string) []string {
	return slices.DeleteFunc(tags, func(t string) bool { return t == tag })
}

// mintCredentials fills in the id and PIN plus initial workflow state. PINs
// are 4 digits with no collision check, the record id carries the entropy.
func mintCredentials(p *entity.Project, now time.Time) {
	p.ID = NewProjectID(now)
	p.PIN = NewPIN()
	p.Status = constants.StatusIdentified
	p.LastUpdate = now
	p.EntrepreneurPending = false
	p.Portfolio = []string{}
	p.Rejected = []string{}
	if p.SDGs == nil {
		p.SDGs = []string{}
	}
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewProjectID builds "proj_<epoch-millis>_<9 base36 chars>".
func NewProjectID(now time.Time) string {
	var b strings.Builder
	for range 9 {
		b.WriteByte(idAlphabet[rand.IntN(len(idAlphabet))])
	}
	return fmt.Sprintf("proj_%d_%s", now.UnixMilli(), b.String())
}

// NewPIN returns a 4-digit numeric credential, 1000 to 9999.
func NewPIN() string {
	return fmt.Sprintf("%04d", 1000+rand.IntN(9000))
}

func notFound(id string) error {
	return common.NewAppError("NOT_FOUND", fmt.Sprintf("project %s not found", id), common.ErrNotFound)
}

func badCredentials() error {
	return common.NewAppError("UNAUTHORIZED", "project ID or PIN is incorrect", common.ErrUnauthorized)
}
