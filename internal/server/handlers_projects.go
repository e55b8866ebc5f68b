package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nature-catalyst/impact-intake/constants"
	"github.com/nature-catalyst/impact-intake/internal/common"
	"github.com/nature-catalyst/impact-intake/internal/entity"
	"github.com/nature-catalyst/impact-intake/internal/export"
	"github.com/nature-catalyst/impact-intake/internal/repository"
)

type createProjectRequest struct {
	ProjectName       string `json:"projectName"`
	IncorporationDate string `json:"incorporationDate"`
	Sector            string `json:"sector"`
	Country           string `json:"country"`
	Email             string `json:"email"`

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
}

func (req createProjectRequest) validate() error {
	v := common.NewValidator()
	v.Field("projectName", req.ProjectName, common.Required, common.MaxLength(200))
	v.Field("sector", req.Sector, common.Required, common.OneOf(constants.Sectors))
	v.Field("country", req.Country, common.Required, common.MaxLength(100))
	v.Field("email", req.Email, common.Required, common.Email)
	v.Field("maturityStage", req.MaturityStage, common.OneOf(constants.MaturityStages))
	v.Field("region", req.Region, common.OneOf(constants.Regions))
	v.Field("instrument", req.Instrument, common.OneOf(constants.Instruments))
	return v.Error()
}

// handleCreateProject persists a confirmed submission. The response carries
// the minted id and PIN; this is the only time the PIN is shown.
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	p := &entity.Project{
		ProjectName:       req.ProjectName,
		IncorporationDate: req.IncorporationDate,
		Sector:            req.Sector,
		Country:           req.Country,
		Email:             req.Email,
		BusinessModel:     req.BusinessModel,
		MaturityStage:     req.MaturityStage,
		Region:            req.Region,
		MainCountry:       req.MainCountry,
		Instrument:        req.Instrument,
		CoreTeam:          req.CoreTeam,
		ImpactArea:        req.ImpactArea,
		KeyRisks:          req.KeyRisks,
		Barriers:          req.Barriers,
		Revenues:          req.Revenues,
		Breakeven:         req.Breakeven,
		MarketSize:        req.MarketSize,
		ExpectedIRR:       req.ExpectedIRR,
		FinancingNeed:     req.FinancingNeed,
		UseOfProceeds:     req.UseOfProceeds,
		SDGs:              req.SDGs,
		Problem:           req.Problem,
		Solution:          req.Solution,
	}
	created, err := s.repo.Add(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":  created.ID,
		"pin": created.PIN,
	})
}

type lookupRequest struct {
	ID  string `json:"id"`
	PIN string `json:"pin"`
}

// handleCredentialLookup is the entrepreneur self-service entry point: the
// record comes back only when both id and PIN match.
func (s *Server) handleCredentialLookup(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	p, err := s.repo.FindByCredentials(r.Context(), req.ID, req.PIN)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sanitize(p))
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	if _, err := s.requireRole(r); err != nil {
		writeError(w, err)
		return
	}
	projects, err := s.repo.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": sanitizeAll(projects)})
}

type bucketsResponse struct {
	Pending   []*entity.Project `json:"pending"`
	Portfolio []*entity.Project `json:"portfolio"`
	Rejected  []*entity.Project `json:"rejected"`
}

// handleBuckets partitions the collection into the reviewer dashboard's
// three views for the caller's role: unclassified, accepted, rejected.
func (s *Server) handleBuckets(w http.ResponseWriter, r *http.Request) {
	role, err := s.requireRole(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if role == constants.RoleAdmin {
		badRequest(w, "buckets are per reviewer role; admin uses the full listing")
		return
	}
	projects, err := s.repo.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var out bucketsResponse
	for _, p := range sanitizeAll(projects) {
		switch {
		case p.InPortfolio(role):
			out.Portfolio = append(out.Portfolio, p)
		case p.IsRejected(role):
			out.Rejected = append(out.Rejected, p)
		default:
			out.Pending = append(out.Pending, p)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	if _, err := s.requireRole(r); err != nil {
		writeError(w, err)
		return
	}
	p, err := s.repo.Get(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sanitize(p))
}

type updateProjectRequest struct {
	PIN string `json:"pin,omitempty"` // entrepreneur credential when no access code

	ProjectName       *string `json:"projectName,omitempty"`
	IncorporationDate *string `json:"incorporationDate,omitempty"`
	Sector            *string `json:"sector,omitempty"`
	Country           *string `json:"country,omitempty"`
	Email             *string `json:"email,omitempty"`

	BusinessModel *string   `json:"businessModel,omitempty"`
	MaturityStage *string   `json:"maturityStage,omitempty"`
	Region        *string   `json:"region,omitempty"`
	MainCountry   *string   `json:"mainCountry,omitempty"`
	Instrument    *string   `json:"instrument,omitempty"`
	CoreTeam      *string   `json:"coreTeam,omitempty"`
	ImpactArea    *string   `json:"impactArea,omitempty"`
	KeyRisks      *string   `json:"keyRisks,omitempty"`
	Barriers      *string   `json:"barriers,omitempty"`
	Revenues      *float64  `json:"revenues,omitempty"`
	Breakeven     *float64  `json:"breakeven,omitempty"`
	MarketSize    *float64  `json:"marketSize,omitempty"`
	ExpectedIRR   *float64  `json:"expectedIRR,omitempty"`
	FinancingNeed *float64  `json:"financingNeed,omitempty"`
	UseOfProceeds *string   `json:"useOfProceeds,omitempty"`
	SDGs          *[]string `json:"sdgs,omitempty"`
	Problem       *string   `json:"problem,omitempty"`
	Solution      *string   `json:"solution,omitempty"`

	EntrepreneurPending *bool `json:"entrepreneurPending,omitempty"`
}

func (req updateProjectRequest) patch() repository.Patch {
	return repository.Patch{
		ProjectName:         req.ProjectName,
		IncorporationDate:   req.IncorporationDate,
		Sector:              req.Sector,
		Country:             req.Country,
		Email:               req.Email,
		BusinessModel:       req.BusinessModel,
		MaturityStage:       req.MaturityStage,
		Region:              req.Region,
		MainCountry:         req.MainCountry,
		Instrument:          req.Instrument,
		CoreTeam:            req.CoreTeam,
		ImpactArea:          req.ImpactArea,
		KeyRisks:            req.KeyRisks,
		Barriers:            req.Barriers,
		Revenues:            req.Revenues,
		Breakeven:           req.Breakeven,
		MarketSize:          req.MarketSize,
		ExpectedIRR:         req.ExpectedIRR,
		FinancingNeed:       req.FinancingNeed,
		UseOfProceeds:       req.UseOfProceeds,
		SDGs:                req.SDGs,
		Problem:             req.Problem,
		Solution:            req.Solution,
		EntrepreneurPending: req.EntrepreneurPending,
	}
}

// handleUpdateProject merges a partial edit. Two callers are allowed: a
// credentialed entrepreneur (id+PIN, edit flags the record pending) or an
// admin (access code; the pending flag clears unless the payload says
// otherwise, modeling "admin reviewed this edit").
func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")

	var req updateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	patch := req.patch()
	if role, err := s.requireRole(r); err == nil && role == constants.RoleAdmin {
		if patch.EntrepreneurPending == nil {
			reviewed := false
			patch.EntrepreneurPending = &reviewed
		}
	} else {
		if _, err := s.repo.FindByCredentials(r.Context(), id, req.PIN); err != nil {
			writeError(w, err)
			return
		}
	}

	p, err := s.repo.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sanitize(p))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "projectID")
	if err := s.repo.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if err := s.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if !constants.IsStatus(req.Status) {
		badRequest(w, "unknown status "+req.Status)
		return
	}
	p, err := s.repo.UpdateStatus(r.Context(), chi.URLParam(r, "projectID"), constants.Status(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sanitize(p))
}

type membershipRequest struct {
	Action constants.MembershipAction `json:"action"`
	Role   constants.Role             `json:"role,omitempty"` // admin may act for a role
}

// handleMembership classifies a project for the caller's reviewer role.
// Admin may classify on behalf of a named role.
func (s *Server) handleMembership(w http.ResponseWriter, r *http.Request) {
	role, err := s.requireRole(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req membershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if role == constants.RoleAdmin {
		if !constants.IsReviewerRole(string(req.Role)) {
			badRequest(w, "admin must name a reviewer role")
			return
		}
		role = req.Role
	}
	p, err := s.repo.SetMembership(r.Context(), chi.URLParam(r, "projectID"), role, req.Action)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sanitize(p))
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if err := s.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	data, err := s.exporter.ExportProjectsCSV(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.ExportFilename("csv")+`"`)
	_, _ = w.Write(data)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	if err := s.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	data, err := s.exporter.ExportProjectsXLSX(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.ExportFilename("xlsx")+`"`)
	_, _ = w.Write(data)
}

// sanitize strips the PIN before a record leaves the API.
func sanitize(p *entity.Project) *entity.Project {
	cp := p.Clone()
	cp.PIN = ""
	return cp
}

func sanitizeAll(projects []*entity.Project) []*entity.Project {
	out := make([]*entity.Project, len(projects))
	for i, p := range projects {
		out[i] = sanitize(p)
	}
	return out
}
