package server

import (
	"encoding/json"
	"net/http"

	"github.com/nature-catalyst/impact-intake/constants"
	"github.com/nature-catalyst/impact-intake/internal/common"
)

// accessCodeHeader carries the reviewer's access code on authenticated
// requests. The login endpoint only verifies a code and echoes the role;
// there are no sessions or tokens.
const accessCodeHeader = "X-Access-Code"

type loginRequest struct {
	AccessCode string `json:"accessCode"`
}

type loginResponse struct {
	Role constants.Role `json:"role"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	role, err := s.codes.Resolve(req.AccessCode)
	if err != nil {
		s.log.Warn("auth.login.denied")
		writeError(w, err)
		return
	}
	s.log.Info("auth.login.ok", "role", role)
	writeJSON(w, http.StatusOK, loginResponse{Role: role})
}

// requireRole resolves the access-code header into a reviewer role.
func (s *Server) requireRole(r *http.Request) (constants.Role, error) {
	return s.codes.Resolve(r.Header.Get(accessCodeHeader))
}

// requireAdmin additionally demands the admin role.
func (s *Server) requireAdmin(r *http.Request) error {
	role, err := s.requireRole(r)
	if err != nil {
		return err
	}
	if role != constants.RoleAdmin {
		return common.NewAppError("UNAUTHORIZED", "admin access required", common.ErrUnauthorized)
	}
	return nil
}
