package entity

import (
	"slices"
	"time"

	"github.com/nature-catalyst/impact-intake/constants"
)

// Project is a submitted project record as it moves through review.
// ID and PIN are minted once at creation and never regenerated; the pair is
// the only credential for entrepreneur self-service edits.
type Project struct {
	ID  string `json:"id"`
	PIN string `json:"pin,omitempty"`

	// Entrepreneur-supplied at submission.
	ProjectName       string `json:"projectName"`
	IncorporationDate string `json:"incorporationDate"`
	Sector            string `json:"sector"`
	Country           string `json:"country"`
	Email             string `json:"email"`

	// Enriched by AI extraction or manual entry.
	BusinessModel string   `json:"businessModel"`
	MaturityStage string   `json:"maturityStage"`
	Region        string   `json:"region"`
	MainCountry   string   `json:"mainCountry"`
	Instrument    string   `json:"instrument"`
	CoreTeam      string   `json:"coreTeam"`
	ImpactArea    string   `json:"impactArea"`
	KeyRisks      string   `json:"keyRisks"`
	Barriers      string   `json:"barriers"`
	Revenues      float64  `json:"revenues"`
	Breakeven     float64  `json:"breakeven"`
	MarketSize    float64  `json:"marketSize"`
	ExpectedIRR   float64  `json:"expectedIRR"`
	FinancingNeed float64  `json:"financingNeed"`
	UseOfProceeds string   `json:"useOfProceeds"`
	SDGs          []string `json:"sdgs"`
	Problem       string   `json:"problem"`
	Solution      string   `json:"solution"`

	// Workflow state.
	Status              constants.Status `json:"status"`
	LastUpdate          time.Time        `json:"lastUpdate"`
	EntrepreneurPending bool             `json:"entrepreneurPending"`
	Portfolio           []string         `json:"portfolio"`
	Rejected            []string         `json:"rejected"`
}

// InPortfolio reports whether the given reviewer role has accepted the project.
func (p *Project) InPortfolio(role constants.Role) bool {
	return slices.Contains(p.Portfolio, string(role))
}

// IsRejected reports whether the given reviewer role has rejected the project.
func (p *Project) IsRejected(role constants.Role) bool {
	return slices.Contains(p.Rejected, string(role))
}

// Clone returns a deep copy so store internals never leak shared slices.
func (p *Project) Clone() *Project {
	cp := *p
	cp.SDGs = slices.Clone(p.SDGs)
	cp.Portfolio = slices.Clone(p.Portfolio)
	cp.Rejected = slices.Clone(p.Rejected)
	return &cp
}
