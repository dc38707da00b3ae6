package mirror

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"soapmirror/internal/download"
	"soapmirror/internal/redirector"
)

const maxBody = 1 << 20

// cachedPrefix is what GetPlayer answers carry before the library path.
const cachedPrefix = redirector.CacheToken + "/CachedVideo::"

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "Pong!")
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page string `json:"page"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		s.logger.Warn("/GetPlayer: bad body", "error", err)
		writeText(w, http.StatusBadRequest, msgInternal)
		return
	}
	page := strings.TrimSpace(req.Page)
	if page == "" {
		writeText(w, http.StatusBadRequest, msgInternal)
		return
	}
	ctx := r.Context()
	origin := s.origin(page)

	if path, ok, err := s.opts.Index.Lookup(ctx, origin); err != nil {
		s.logger.Error("/GetPlayer: index lookup failed", "origin", origin, "error", err)
	} else if ok && s.opts.Library.Exists(path) {
		s.logger.Info("serving cached video", "origin", origin, "path", path)
		writeText(w, http.StatusOK, cachedPrefix+path)
		return
	}

	videoURL, err := s.opts.Extractor.Extract(ctx, page)
	if err != nil || videoURL == "" {
		s.logger.Error("failed to extract video URL", "page", page, "error", err)
		writeText(w, http.StatusInternalServerError, msgInternal)
		return
	}

	path, err := s.opts.Downloads.Start(ctx, videoURL, origin)
	if err != nil {
		s.logger.Error("failed to start download", "url", videoURL, "error", err)
		writeText(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeText(w, http.StatusOK, cachedPrefix+path)
}

// origin normalises a page URL to the site base so mirrors of the site share
// one index entry. Unparseable pages are used as given.
func (s *Server) origin(page string) string {
	u, err := url.Parse(page)
	if err != nil {
		return page
	}
	return strings.TrimRight(s.opts.SiteBase, "/") + u.EscapedPath()
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	p := strings.TrimSpace(r.URL.Query().Get("p"))
	if p == "" {
		writeText(w, http.StatusBadRequest, "Missing video path")
		return
	}
	s.renderPlayer(w, r, p)
}

func (s *Server) handleGetVideoPlayer(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		s.logger.Warn("/GetVideoPlayer: failed to read body", "error", err)
		writeText(w, http.StatusInternalServerError, msgInternal)
		return
	}
	p := strings.TrimSpace(string(body))
	if p == "" {
		writeText(w, http.StatusBadRequest, "Missing video path")
		return
	}
	s.renderPlayer(w, r, p)
}

func (s *Server) renderPlayer(w http.ResponseWriter, r *http.Request, libPath string) {
	libPath = download.Normalize(libPath)
	if _, err := s.opts.Library.Resolve(libPath); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid video path")
		return
	}

	data := playerData{VideoPath: libPath, Title: download.TitleOf(libPath)}
	switch {
	case s.opts.Library.Exists(libPath):
		data.VideoURL = download.URLPath(libPath)
	default:
		if remote, ok := s.opts.Downloads.RemoteURL(libPath); ok {
			data.VideoURL = remote
		}
	}

	start, err := s.opts.Index.Position(r.Context(), libPath)
	if err != nil {
		s.logger.Warn("reading playback position failed", "path", libPath, "error", err)
	}
	data.Start = start

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := playerTemplate.Execute(w, data); err != nil {
		s.logger.Error("rendering player failed", "path", libPath, "error", err)
	}
}

func (s *Server) handleCachedVideo(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("p")
	if r.Method == http.MethodPost {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
		if err != nil {
			s.logger.Warn("/CachedVideo: failed to read body", "error", err)
			writeText(w, http.StatusInternalServerError, msgInternal)
			return
		}
		p = string(body)
	}
	p = strings.TrimSpace(p)
	if p == "" {
		writeText(w, http.StatusBadRequest, "Missing video path")
		return
	}

	file, err := s.opts.Library.Resolve(p)
	if err != nil {
		writeText(w, http.StatusBadRequest, "Invalid video path")
		return
	}
	if !s.opts.Library.Exists(p) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, file)
}

func (s *Server) handleSetCurrentTime(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VideoPath string  `json:"videoPath"`
		Time      float64 `json:"time"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		s.logger.Warn("/SetCurrentTime: bad body", "error", err)
		writeText(w, http.StatusBadRequest, msgInternal)
		return
	}
	if strings.TrimSpace(req.VideoPath) == "" || req.Time < 0 {
		writeText(w, http.StatusBadRequest, msgInternal)
		return
	}

	path := download.Normalize(strings.TrimSpace(req.VideoPath))
	if err := s.opts.Index.SetPosition(r.Context(), path, req.Time); err != nil {
		s.logger.Error("storing playback position failed", "path", path, "error", err)
		writeText(w, http.StatusInternalServerError, msgInternal)
		return
	}
	s.logger.Debug("playback position stored", "path", path, "time", req.Time)
	writeText(w, http.StatusOK, "OK")
}

func (s *Server) handleDownloads(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.opts.Downloads.Snapshot()); err != nil {
		s.logger.Warn("/downloads: encoding failed", "error", err)
	}
}
