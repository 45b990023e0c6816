package web

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/tabclean/internal/core"
	"github.com/JonMunkholm/tabclean/internal/table"
	"github.com/JonMunkholm/tabclean/internal/web/templates"
)

// multipartMemory is how much of an upload is held in memory before the
// rest spills to temporary files.
const multipartMemory = 32 << 20

// handleIndex renders every file of the session with its pipeline stages.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)

	views, err := s.service.Views(r.Context(), sid)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	data := templates.PageData{
		Files:    views,
		Notices:  s.service.TakeNotices(sid),
		MaxFiles: s.cfg.Upload.MaxFiles,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := templates.Page(data).Render(r.Context(), w); err != nil {
		slog.Error("render page", "error", err)
	}
}

// handleUploadForm accepts the multi-file form field "files".
func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	report, err := s.upload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.service.AddNotices(sessionID(r), report.Notices...)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// upload reads the "files" multipart field and hands the files to the
// service.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) (*core.UploadReport, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxRequestSize())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, core.ErrNoFiles
		}
		return nil, fmt.Errorf("read upload: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		return nil, core.ErrNoFiles
	}

	files := make([]core.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll(files)
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		files = append(files, core.UploadedFile{Name: fh.Filename, Size: fh.Size, Reader: f})
	}
	defer closeAll(files)

	ctx := WithRequestMetadata(r.Context(), r)
	return s.service.Upload(ctx, sessionID(r), files)
}

func closeAll(files []core.UploadedFile) {
	for _, f := range files {
		if c, ok := f.Reader.(multipart.File); ok {
			_ = c.Close()
		}
	}
}

// handleOptionsForm stores the panel's checkboxes and radio buttons.
func (s *Server) handleOptionsForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, err)
		return
	}

	opts := core.Options{
		RemoveDuplicates: r.PostForm.Get("remove_duplicates") != "",
		FillMissing:      r.PostForm.Get("fill_missing") != "",
		ShowChart:        r.PostForm.Get("show_chart") != "",
	}
	// Unchecked boxes are not submitted, so the hidden marker tells an
	// empty selection apart from a form without column controls.
	if r.PostForm.Get("columns_submitted") != "" {
		opts.Columns = selectedColumns(r.PostForm)
	}
	if v := r.PostForm.Get("format"); v != "" {
		f, err := table.ParseFormat(v)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		opts.Format = f
	}

	fid := chi.URLParam(r, "fileID")
	if _, err := s.service.SetOptions(sessionID(r), fid, opts); err != nil {
		s.respondError(w, r, err)
		return
	}
	http.Redirect(w, r, "/#file-"+fid, http.StatusSeeOther)
}

// selectedColumns returns the checked columns in the order given by their
// position inputs. Each column row posts column_name and column_position
// side by side; equal or unparsable positions keep the listed order.
// Without position inputs the checkbox order is used as is.
func selectedColumns(form url.Values) []string {
	checked := form["columns"]
	names, positions := form["column_name"], form["column_position"]
	if len(names) == 0 || len(names) != len(positions) {
		return append([]string{}, checked...)
	}

	type entry struct {
		name string
		pos  int
	}
	entries := make([]entry, 0, len(checked))
	for i, name := range names {
		if !slices.Contains(checked, name) {
			continue
		}
		pos, err := strconv.Atoi(strings.TrimSpace(positions[i]))
		if err != nil {
			pos = i + 1
		}
		entries = append(entries, entry{name: name, pos: pos})
	}
	slices.SortStableFunc(entries, func(a, b entry) int { return cmp.Compare(a.pos, b.pos) })

	out := make([]string, 0, len(checked))
	for _, e := range entries {
		out = append(out, e.name)
	}
	// Checked names without a row still reach validation.
	for _, name := range checked {
		if !slices.Contains(names, name) {
			out = append(out, name)
		}
	}
	return out
}

func (s *Server) handleRemoveForm(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Remove(sessionID(r), chi.URLParam(r, "fileID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleChart serves the bar chart PNG. Shared by the page and the API.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	png, err := s.service.Chart(r.Context(), sessionID(r), chi.URLParam(r, "fileID"))
	if err != nil {
		if wantsJSON(r) {
			s.respondError(w, r, err)
			return
		}
		msg := core.MapError(err)
		http.Error(w, msg.Message, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	_, _ = w.Write(png)
}

// handleDownload serves the cleaned table. The optional format query
// parameter overrides the format saved in the file's options.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var format table.Format
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := table.ParseFormat(v)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		format = f
	}

	buf, err := s.service.Export(r.Context(), sessionID(r), chi.URLParam(r, "fileID"), format)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", buf.MediaType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": buf.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(buf.Data)))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Data)
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status         string                   `json:"status"`
	ActiveSessions int                      `json:"active_sessions"`
	Uploads        core.UploadLimiterStatus `json:"uploads"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:         "ok",
		ActiveSessions: s.service.ActiveSessions(),
		Uploads:        s.service.UploadStatus(),
	})
}
