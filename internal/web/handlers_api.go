package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/tabclean/internal/core"
	"github.com/JonMunkholm/tabclean/internal/table"
)

// OptionsRequest is the body of PUT /api/files/{fileID}/options. A null
// or absent columns list selects every column; an empty list selects none.
type OptionsRequest struct {
	RemoveDuplicates bool     `json:"remove_duplicates"`
	FillMissing      bool     `json:"fill_missing"`
	Columns          []string `json:"columns" validate:"omitempty,unique,dive,required,max=1024"`
	ShowChart        bool     `json:"show_chart"`
	Format           string   `json:"format" validate:"omitempty,tabformat"`
}

func (req OptionsRequest) options() core.Options {
	opts := core.Options{
		RemoveDuplicates: req.RemoveDuplicates,
		FillMissing:      req.FillMissing,
		Columns:          req.Columns,
		ShowChart:        req.ShowChart,
	}
	if req.Format != "" {
		// Already checked by the tabformat validation.
		opts.Format, _ = table.ParseFormat(req.Format)
	}
	return opts
}

// FilesResponse lists a session's files.
type FilesResponse struct {
	Files []core.FileInfo `json:"files"`
}

func (s *Server) handleAPIUpload(w http.ResponseWriter, r *http.Request) {
	report, err := s.upload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, report)
}

func (s *Server) handleAPIListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.service.Files(sessionID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if files == nil {
		files = []core.FileInfo{}
	}
	render.JSON(w, r, FilesResponse{Files: files})
}

func (s *Server) handleAPIGetFile(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.View(r.Context(), sessionID(r), chi.URLParam(r, "fileID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

func (s *Server) handleAPISetOptions(w http.ResponseWriter, r *http.Request) {
	var req OptionsRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, 1<<20), &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{
			Error:   err.Error(),
			Message: "The request body is not valid JSON",
			Action:  "Send a JSON object with the file options",
			Code:    "VAL002",
		})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondValidation(w, r, err)
		return
	}

	fid := chi.URLParam(r, "fileID")
	if _, err := s.service.SetOptions(sessionID(r), fid, req.options()); err != nil {
		s.respondError(w, r, err)
		return
	}

	view, err := s.service.View(r.Context(), sessionID(r), fid)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

func (s *Server) handleAPIRemoveFile(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Remove(sessionID(r), chi.URLParam(r, "fileID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPIEndSession(w http.ResponseWriter, r *http.Request) {
	s.service.EndSession(sessionID(r))
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}
