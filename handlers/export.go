package handlers

import (
	"archive/zip"
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"lrcforge/models"
)

// exportArchive bundles every completed track's lyrics into one zip, one
// .lrc entry per track.
func (m *Manager) exportArchive(c *gin.Context) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	used := make(map[string]bool)
	count := 0
	for _, t := range m.Session.Snapshot() {
		if t.Status != models.StatusCompleted || t.LrcContent == "" {
			continue
		}

		name := exportName(t.Filename, used)
		w, err := zw.Create(name)
		if err != nil {
			logger.Errorf("creating zip entry %s: %v", name, err)
			continue
		}
		if _, err := w.Write([]byte(t.LrcContent)); err != nil {
			logger.Errorf("writing zip entry %s: %v", name, err)
			continue
		}
		count++
	}

	if err := zw.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build archive"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no completed tracks to export"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="lyrics.zip"`)
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

// exportName turns an audio filename into a unique .lrc entry name.
func exportName(filename string, used map[string]bool) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if stem == "" {
		stem = "lyrics"
	}

	name := stem + ".lrc"
	for n := 2; used[name]; n++ {
		name = fmt.Sprintf("%s (%d).lrc", stem, n)
	}
	used[name] = true
	return name
}
