// Package handlers exposes the track pipeline over HTTP: uploads, batch
// generation, lyric edits, bulk LRC matching, and archive export.
package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	sentry "github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"lrcforge/config"
	"lrcforge/controller"
	"lrcforge/database"
	"lrcforge/id3"
	"lrcforge/lrc"
	"lrcforge/lyrics"
	"lrcforge/metadata"
	"lrcforge/models"
	"lrcforge/session"
)

var logger = log.WithFields(log.Fields{
	"module": "handlers",
})

// mimeByExt covers the formats the decoder is expected to handle.
var mimeByExt = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
}

type Manager struct {
	Session    *session.Session
	Controller *controller.Controller
	DB         *database.Database
	Lyrics     *lyrics.Client
}

func NewManager(s *session.Session, c *controller.Controller, db *database.Database) *Manager {
	return &Manager{
		Session:    s,
		Controller: c,
		DB:         db,
		Lyrics:     lyrics.New(),
	}
}

func (m *Manager) Register(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.POST("/tracks", m.uploadTracks)
	api.GET("/tracks", m.listTracks)
	api.DELETE("/tracks/:id", m.deleteTrack)
	api.POST("/tracks/:id/retry", m.retryTrack)
	api.PUT("/tracks/:id/lyrics", m.setLyrics)
	api.PUT("/tracks/:id/reference", m.setReference)
	api.POST("/tracks/:id/reference/search", m.searchReference)
	api.GET("/tracks/:id/preview", m.preview)
	api.POST("/generate", m.generate)
	api.POST("/lyrics/match", m.matchLyrics)
	api.GET("/export", m.exportArchive)
	api.GET("/history", m.history)
	api.POST("/reset", m.reset)
}

// GlobalErrors converts an unexpected panic during request handling into a
// session-level error response with a reset affordance.
func GlobalErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("panic in %s: %v", c.Request.URL.Path, r)
				sentry.CurrentHub().Recover(r)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "unexpected failure, reset the session and try again",
					"reset": true,
				})
			}
		}()
		c.Next()
	}
}

type fileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// uploadTracks ingests multipart audio files. Bad files are rejected
// individually and never abort ingestion of the rest.
func (m *Manager) uploadTracks(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected multipart form upload"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	isolate := c.PostForm("isolate") == "true"
	maxBytes := int64(config.Config.Options.MaxUploadMB) << 20

	var added []*models.Track
	var errors []fileError

	for _, fh := range files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		mimeType, ok := mimeByExt[ext]
		if !ok {
			errors = append(errors, fileError{fh.Filename, "unsupported file type"})
			continue
		}
		if fh.Size > maxBytes {
			errors = append(errors, fileError{fh.Filename, "file too large"})
			continue
		}

		data, err := readUpload(fh)
		if err != nil {
			errors = append(errors, fileError{fh.Filename, "failed to read file"})
			continue
		}

		var tagData id3.Result
		if id3.HasTag(data) {
			head := data
			if len(head) > id3.ScanLimit {
				head = head[:id3.ScanLimit]
			}
			tagData = id3.Parse(head)
		}
		meta := metadata.Resolve(tagData, fh.Filename)

		track := m.Session.Add(&models.Track{
			Filename: fh.Filename,
			MimeType: mimeType,
			Data:     data,
			Title:    meta.Title,
			Artist:   meta.Artist,
			Isolate:  isolate,
		})
		added = append(added, track)
	}

	logger.Infof("ingested %d track(s), rejected %d", len(added), len(errors))
	c.JSON(http.StatusOK, gin.H{
		"added":  added,
		"errors": errors,
	})
}

func (m *Manager) listTracks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tracks": m.Session.Snapshot()})
}

func (m *Manager) deleteTrack(c *gin.Context) {
	if !m.Session.Remove(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (m *Manager) generate(c *gin.Context) {
	if !config.Config.Gemini.IsConfigured() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "GEMINI_API_KEY is not configured"})
		return
	}

	go m.Controller.ProcessBatch(context.Background())
	c.JSON(http.StatusAccepted, gin.H{"started": true})
}

func (m *Manager) retryTrack(c *gin.Context) {
	if !config.Config.Gemini.IsConfigured() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "GEMINI_API_KEY is not configured"})
		return
	}

	id := c.Param("id")
	if _, ok := m.Session.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
		return
	}

	go m.Controller.ProcessTrack(context.Background(), id)
	c.JSON(http.StatusAccepted, gin.H{"started": true})
}

type lyricsBody struct {
	LrcContent string `json:"lrcContent" binding:"required"`
}

// setLyrics replaces a track's LRC content verbatim, as when the editor
// saves or the user drops in a finished .lrc file.
func (m *Manager) setLyrics(c *gin.Context) {
	var body lyricsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lrcContent is required"})
		return
	}

	if err := m.Session.SetLyrics(c.Param("id"), body.LrcContent); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type referenceBody struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

// setReference stores reference lyric text for generation. LRC input gets
// its timestamps stripped; only the wording matters here.
func (m *Manager) setReference(c *gin.Context) {
	var body referenceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	text := body.Text
	if strings.EqualFold(filepath.Ext(body.Filename), ".lrc") {
		text = lrc.StripTimestamps(text)
	}

	ok := m.Session.Update(c.Param("id"), func(t *models.Track) {
		t.ReferenceLyrics = text
	})
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// searchReference pulls reference lyrics from lrclib using the track's
// resolved metadata and stores them on the track.
func (m *Manager) searchReference(c *gin.Context) {
	id := c.Param("id")
	track, ok := m.Session.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
		return
	}

	text, err := m.Lyrics.Search(c.Request.Context(), track.Title, track.Artist)
	if err != nil {
		logger.Warnf("lyrics search for %s: %v", id, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "lyrics lookup failed"})
		return
	}
	if text == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no lyrics found"})
		return
	}

	m.Session.Update(id, func(t *models.Track) {
		t.ReferenceLyrics = text
	})
	c.JSON(http.StatusOK, gin.H{"referenceLyrics": text})
}

func (m *Manager) preview(c *gin.Context) {
	track, ok := m.Session.Get(c.Param("id"))
	if !ok || track.PreviewPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no preview available"})
		return
	}
	c.File(track.PreviewPath)
}

// matchLyrics assigns uploaded .lrc files to tracks by filename stem, then
// embedded title, then embedded artist. Unmatched files are only counted.
func (m *Manager) matchLyrics(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected multipart form upload"})
		return
	}

	var files []lrc.File
	for _, fh := range form.File["files"] {
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".lrc") {
			continue
		}
		data, err := readUpload(fh)
		if err != nil {
			continue
		}
		files = append(files, lrc.File{Name: fh.Filename, Content: string(data)})
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no .lrc files provided"})
		return
	}

	var refs []lrc.TrackRef
	for _, t := range m.Session.Snapshot() {
		refs = append(refs, lrc.TrackRef{ID: t.ID, Filename: t.Filename})
	}

	matches, unmatched := lrc.MatchFiles(files, refs)
	for _, match := range matches {
		if err := m.Session.SetLyrics(match.TrackID, match.Content); err != nil {
			logger.Warnf("applying %s: %v", match.FileName, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"matched":   len(matches),
		"unmatched": unmatched,
	})
}

func (m *Manager) history(c *gin.Context) {
	if m.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
		return
	}

	records, err := m.DB.RecentGenerations(50)
	if err != nil {
		logger.Errorf("loading history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"generations": records})
}

func (m *Manager) reset(c *gin.Context) {
	m.Session.Reset()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
