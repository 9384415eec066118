package api

import (
	"net/http"
	"strconv"

	"github.com/internhub/internhub/pkg/models"
)

func (s *Server) handleActivePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.svc.ActivePositions(r.Context(), fresh(r))
	if err != nil {
		writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleStartups(w http.ResponseWriter, r *http.Request) {
	startups, err := s.svc.Startups(r.Context(), fresh(r))
	if err != nil {
		writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, startups)
}

func (s *Server) handleUserProfile(w http.ResponseWriter, r *http.Request) {
	t := models.ProfileType(r.URL.Query().Get("type"))
	if t == "" {
		t = models.ProfileStudent
	}
	profile, err := s.svc.UserProfile(r.Context(), r.PathValue("userID"), t, fresh(r))
	if err != nil {
		writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleStartupApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.svc.StartupApplications(r.Context(), r.PathValue("ownerID"), fresh(r))
	if err != nil {
		writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (s *Server) handleStartupPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.svc.StartupPositions(r.Context(), r.PathValue("startupID"), fresh(r))
	if err != nil {
		writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleStudentApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.svc.StudentApplications(r.Context(), r.PathValue("studentID"), fresh(r))
	if err != nil {
		writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (s *Server) handleStartupActivity(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := s.svc.StartupActivity(r.Context(), r.PathValue("startupID"), limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "activity query failed")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleRegisterStartup(w http.ResponseWriter, r *http.Request) {
	var st models.Startup
	if !decodeBody(w, r, &st) {
		return
	}
	if err := s.svc.RegisterStartup(r.Context(), &st); err != nil {
		writeWriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleCreatePosition(w http.ResponseWriter, r *http.Request) {
	var p models.Position
	if !decodeBody(w, r, &p) {
		return
	}
	if err := s.svc.CreatePosition(r.Context(), &p); err != nil {
		writeWriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type applyRequest struct {
	StudentID   string `json:"student_id"`
	CoverLetter string `json:"cover_letter"`
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	app, err := s.svc.ApplyForPosition(r.Context(), r.PathValue("positionID"), req.StudentID, req.CoverLetter)
	if err != nil {
		writeWriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	app, err := s.svc.UpdateApplicationStatus(r.Context(), r.PathValue("applicationID"), models.ApplicationStatus(req.Status))
	if err != nil {
		writeWriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (s *Server) handleUpdatePositionStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	pos, err := s.svc.UpdatePositionStatus(r.Context(), r.PathValue("positionID"), models.PositionStatus(req.Status))
	if err != nil {
		writeWriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

type profileResponse struct {
	Profile  *models.StudentProfile `json:"profile"`
	Complete bool                   `json:"complete"`
}

func (s *Server) handleSaveStudentProfile(w http.ResponseWriter, r *http.Request) {
	var p models.StudentProfile
	if !decodeBody(w, r, &p) {
		return
	}
	p.ID = r.PathValue("studentID")
	if err := s.svc.SaveStudentProfile(r.Context(), &p); err != nil {
		writeWriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{Profile: &p, Complete: p.Complete()})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Cache().Stats())
}

// InvalidateRequest selects cache entries to drop. At most one field should
// be set; an empty request clears the whole cache.
type InvalidateRequest struct {
	Key    string `json:"key,omitempty"`
	Prefix string `json:"prefix,omitempty"`
	Tag    string `json:"tag,omitempty"`
}

// InvalidateResponse reports how many entries were dropped.
type InvalidateResponse struct {
	Removed int `json:"removed"`
}

func (s *Server) handleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	// An empty body clears everything.
	var req InvalidateRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}

	c := s.svc.Cache()
	var removed int
	switch {
	case req.Key != "":
		if c.Contains(req.Key) {
			removed = 1
		}
		c.Invalidate(req.Key)
	case req.Prefix != "":
		removed = c.InvalidatePrefix(req.Prefix)
	case req.Tag != "":
		removed = c.InvalidateTag(req.Tag)
	default:
		removed = c.Len()
		c.InvalidateAll()
	}
	writeJSON(w, http.StatusOK, InvalidateResponse{Removed: removed})
}
