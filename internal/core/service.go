package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/tabclean/internal/chart"
	"github.com/JonMunkholm/tabclean/internal/config"
	"github.com/JonMunkholm/tabclean/internal/export"
	"github.com/JonMunkholm/tabclean/internal/ingest"
	"github.com/JonMunkholm/tabclean/internal/logging"
	"github.com/JonMunkholm/tabclean/internal/metrics"
	"github.com/JonMunkholm/tabclean/internal/table"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrFileNotFound    = errors.New("file not found")
	ErrNoFiles         = errors.New("no file provided")
	ErrTooManyFiles    = errors.New("too many files in one upload")
)

// ServiceConfig holds the knobs the service needs from the app config.
type ServiceConfig struct {
	SessionTTL  time.Duration
	PreviewRows int
	MaxFiles    int
	MaxFileSize int64

	MaxConcurrentUploads int
	MaxUploadWait        time.Duration

	Chart  chart.Options
	Export export.Options
}

// ServiceConfigFrom maps the application config onto the service knobs.
func ServiceConfigFrom(cfg *config.Config) ServiceConfig {
	return ServiceConfig{
		SessionTTL:           cfg.Session.TTL,
		PreviewRows:          cfg.PreviewRows,
		MaxFiles:             cfg.Upload.MaxFiles,
		MaxFileSize:          cfg.Upload.MaxFileSize,
		MaxConcurrentUploads: cfg.Upload.MaxConcurrent,
		MaxUploadWait:        cfg.Upload.MaxWaitTime,
		Chart: chart.Options{
			MaxBars: cfg.Chart.MaxBars,
			Height:  cfg.Chart.Height,
		},
		Export: export.Options{
			CSVBOM:    cfg.Export.CSVBOM,
			SheetName: cfg.Export.SheetName,
		},
	}
}

// Service holds every session and runs the cleanup pipeline for them.
type Service struct {
	cfg     ServiceConfig
	parser  ingest.Parser
	limiter *UploadLimiter
	metrics *metrics.Metrics
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	id       string
	created  time.Time
	lastSeen time.Time
	files    []*storedFile
	notices  []string
}

type storedFile struct {
	id         string
	name       string
	format     table.Format
	size       int64
	uploadedAt time.Time
	original   *table.Table
	options    Options
}

// NewService creates a Service. m may be nil.
func NewService(cfg ServiceConfig, m *metrics.Metrics) *Service {
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = 5
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	return &Service{
		cfg:      cfg,
		parser:   ingest.Parser{MaxBytes: cfg.MaxFileSize},
		limiter:  NewUploadLimiter(cfg.MaxConcurrentUploads, cfg.MaxUploadWait),
		metrics:  m,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// NewSession creates an empty session and returns its id.
func (s *Service) NewSession() string {
	now := s.now()
	sess := &session{id: uuid.NewString(), created: now, lastSeen: now}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(n)
	return sess.id
}

// Touch marks the session as used. It fails with ErrSessionNotFound for
// unknown or expired sessions.
func (s *Service) Touch(sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.lookup(sid)
	return err
}

// lookup returns a live session and refreshes its idle timer. Callers hold
// s.mu for writing.
func (s *Service) lookup(sid string) (*session, error) {
	sess, ok := s.sessions[sid]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := s.now()
	if now.Sub(sess.lastSeen) > s.cfg.SessionTTL {
		delete(s.sessions, sid)
		s.metrics.SetActiveSessions(len(s.sessions))
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = now
	return sess, nil
}

// lookupFile returns the file along with a snapshot of its info taken under
// the lock, since SetOptions may replace the options concurrently.
func (s *Service) lookupFile(sid, fid string) (*storedFile, FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sid)
	if err != nil {
		return nil, FileInfo{}, err
	}
	for _, f := range sess.files {
		if f.id == fid {
			return f, f.info(), nil
		}
	}
	return nil, FileInfo{}, fmt.Errorf("%w: %s", ErrFileNotFound, fid)
}

// Upload parses files and adds them to the session in order. Files with an
// unsupported extension are skipped and reported in the returned notices;
// callers that show them later queue them with AddNotices. Any other
// failure rejects the whole request and leaves the session unchanged.
func (s *Service) Upload(ctx context.Context, sid string, files []UploadedFile) (*UploadReport, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if s.cfg.MaxFiles > 0 && len(files) > s.cfg.MaxFiles {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyFiles, len(files), s.cfg.MaxFiles)
	}
	if err := s.Touch(sid); err != nil {
		return nil, err
	}

	client := ClientFromContext(ctx)
	log := logging.WithFields(ctx, "files", len(files), "ip", client.IP, "user_agent", client.UserAgent)

	if err := s.limiter.Acquire(ctx); err != nil {
		log.Warn("upload rejected", "error", err)
		return nil, err
	}
	defer s.limiter.Release()

	batch := make([]ingest.File, len(files))
	for i, f := range files {
		batch[i] = ingest.File{Name: f.Name, Size: f.Size, Reader: f.Reader}
	}

	start := time.Now()
	res, err := s.parser.ParseBatch(ctx, batch)
	if err != nil {
		s.metrics.FileRejected(MapError(err).Code)
		log.Warn("upload failed", "error", err)
		return nil, err
	}

	report := &UploadReport{}
	now := s.now()
	stored := make([]*storedFile, len(res.Parsed))
	for i, p := range res.Parsed {
		stored[i] = &storedFile{
			id:         uuid.NewString(),
			name:       p.Name,
			format:     p.Format,
			size:       p.Size,
			uploadedAt: now,
			original:   p.Table,
			options:    DefaultOptions(),
		}
		report.Files = append(report.Files, stored[i].info())
		s.metrics.FileIngested(string(p.Format))
	}
	for _, sk := range res.Skipped {
		report.Notices = append(report.Notices, sk.Message())
		s.metrics.FileRejected("unsupported_format")
	}

	s.mu.Lock()
	sess, err := s.lookup(sid)
	if err == nil {
		sess.files = append(sess.files, stored...)
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	log.Info("upload processed",
		"parsed", len(res.Parsed),
		"skipped", len(res.Skipped),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

// Files lists the session's files in upload order.
func (s *Service) Files(sid string) ([]FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sid)
	if err != nil {
		return nil, err
	}
	out := make([]FileInfo, len(sess.files))
	for i, f := range sess.files {
		out[i] = f.info()
	}
	return out, nil
}

// View runs the pipeline for one file and returns what its panel shows.
func (s *Service) View(ctx context.Context, sid, fid string) (*FileView, error) {
	f, info, err := s.lookupFile(sid, fid)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, f, info)
}

// Views returns the panel of every file in the session, in upload order.
func (s *Service) Views(ctx context.Context, sid string) ([]*FileView, error) {
	s.mu.Lock()
	sess, err := s.lookup(sid)
	var (
		files []*storedFile
		infos []FileInfo
	)
	if err == nil {
		for _, f := range sess.files {
			files = append(files, f)
			infos = append(infos, f.info())
		}
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	views := make([]*FileView, 0, len(files))
	for i, f := range files {
		v, err := s.view(ctx, f, infos[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *Service) view(ctx context.Context, f *storedFile, info FileInfo) (*FileView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := RunPipeline(f.original, info.Options, s.cfg.PreviewRows)
	if err != nil {
		return nil, err
	}

	return &FileView{
		File:         info,
		Stages:       res.Stages,
		ChartColumns: res.ChartColumns,
		DownloadName: export.FileName(f.name, info.Options.Format),
	}, nil
}

// SetOptions replaces the file's options after checking the column
// selection against the uploaded table. An empty Format means csv.
func (s *Service) SetOptions(sid, fid string, opts Options) (Options, error) {
	f, _, err := s.lookupFile(sid, fid)
	if err != nil {
		return Options{}, err
	}

	if opts.Format == "" {
		opts.Format = table.FormatCSV
	}
	if _, err := table.ParseFormat(string(opts.Format)); err != nil {
		return Options{}, err
	}
	if opts.Columns != nil {
		if err := checkColumns(f.original, opts.Columns); err != nil {
			return Options{}, err
		}
		opts.Columns = append([]string{}, opts.Columns...)
	}

	s.mu.Lock()
	prev := f.options
	f.options = opts
	s.mu.Unlock()

	s.countEnabled(prev, opts)
	return opts, nil
}

// countEnabled counts the cleaning steps switched on by an options change.
// Re-submitting an unchanged panel counts nothing.
func (s *Service) countEnabled(prev, next Options) {
	if next.RemoveDuplicates && !prev.RemoveDuplicates {
		s.metrics.CleaningApplied("drop_duplicates")
	}
	if next.FillMissing && !prev.FillMissing {
		s.metrics.CleaningApplied("fill_missing_mean")
	}
	if next.Columns != nil && !slices.Equal(prev.Columns, next.Columns) {
		s.metrics.CleaningApplied("select_columns")
	}
}

func checkColumns(t *table.Table, cols []string) error {
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if !t.HasColumn(c) {
			return fmt.Errorf("%w: %s", table.ErrColumnNotFound, c)
		}
		if seen[c] {
			return fmt.Errorf("%w: %s", table.ErrDuplicateColumn, c)
		}
		seen[c] = true
	}
	return nil
}

// Chart renders the bar chart of the file's current state.
func (s *Service) Chart(ctx context.Context, sid, fid string) ([]byte, error) {
	f, info, err := s.lookupFile(sid, fid)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := RunPipeline(f.original, info.Options, 0)
	if err != nil {
		return nil, err
	}
	return chart.RenderBar(res.Final, s.cfg.Chart)
}

// Export serializes the file's current state. An empty format uses the
// one saved in the file's options.
func (s *Service) Export(ctx context.Context, sid, fid string, format table.Format) (*export.Buffer, error) {
	f, info, err := s.lookupFile(sid, fid)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := info.Options
	if format == "" {
		format = opts.Format
	}

	res, err := RunPipeline(f.original, opts, 0)
	if err != nil {
		return nil, err
	}

	buf, err := export.Export(res.Final, format, f.name, s.cfg.Export)
	if err != nil {
		return nil, err
	}
	s.metrics.Exported(string(format))

	logging.WithFields(ctx, "file_id", fid, "file", f.name).Info("export served",
		"format", format,
		"rows", res.Final.NumRows(),
		"bytes", len(buf.Data),
	)
	return buf, nil
}

// Remove drops a file from the session.
func (s *Service) Remove(sid, fid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sid)
	if err != nil {
		return err
	}
	for i, f := range sess.files {
		if f.id == fid {
			sess.files = append(sess.files[:i], sess.files[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrFileNotFound, fid)
}

// AddNotices queues notices for the next page render.
func (s *Service) AddNotices(sid string, notices ...string) {
	if len(notices) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, err := s.lookup(sid); err == nil {
		sess.notices = append(sess.notices, notices...)
	}
}

// TakeNotices returns and clears the session's pending notices.
func (s *Service) TakeNotices(sid string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sid)
	if err != nil {
		return nil
	}
	out := sess.notices
	sess.notices = nil
	return out
}

// EndSession discards the session and everything it holds.
func (s *Service) EndSession(sid string) {
	s.mu.Lock()
	delete(s.sessions, sid)
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(n)
}

// ActiveSessions returns the number of sessions held.
func (s *Service) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// UploadStatus reports the parse limiter's state.
func (s *Service) UploadStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight uploads finish or ctx ends.
func (s *Service) WaitForUploads(ctx context.Context) error {
	if err := s.limiter.WaitForDrain(ctx); err != nil {
		slog.Warn("uploads still running at shutdown", "active", s.limiter.ActiveCount())
		return err
	}
	return nil
}

// info snapshots the file. Callers hold s.mu.
func (f *storedFile) info() FileInfo {
	return FileInfo{
		ID:         f.id,
		Name:       f.name,
		Format:     f.format,
		Size:       f.size,
		Rows:       f.original.NumRows(),
		Columns:    f.original.Columns(),
		UploadedAt: f.uploadedAt,
		Options:    f.options,
	}
}
