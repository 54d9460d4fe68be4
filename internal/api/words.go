package api

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/example/wordquest/internal/ai"
	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/internal/quest"
	"github.com/example/wordquest/pkg/models"
)

// maxUploadSize caps uploaded documents and spreadsheets
const maxUploadSize = 10 << 20

type generateEntryReq struct {
	Word string `json:"word"`
}

type themedListReq struct {
	YearGroup string `json:"year_group"`
}

type saveDraftsReq struct {
	Drafts []models.WordDraft `json:"drafts"`
}

// GET /api/words?year_group=&learning_point=
func (h *Handler) ListWords(c *gin.Context) {
	var filter quest.WordFilter
	if raw := c.Query("year_group"); raw != "" {
		yg, ok := models.ParseYearGroup(raw)
		if !ok {
			respondError(c, apperr.Validation("unknown year group %q", raw))
			return
		}
		filter.YearGroup = yg
	}
	filter.LearningPoint = strings.TrimSpace(c.Query("learning_point"))

	words, err := h.teacher.ListWords(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, words)
}

// POST /api/words
func (h *Handler) CreateWord(c *gin.Context) {
	var word models.Word
	if !bindJSON(c, &word) {
		return
	}
	word.ID = ""
	if err := h.teacher.CreateWord(c.Request.Context(), &word); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, word)
}

// GET /api/words/:id
func (h *Handler) GetWord(c *gin.Context) {
	word, err := h.teacher.Word(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, word)
}

// PUT /api/words/:id
func (h *Handler) UpdateWord(c *gin.Context) {
	var word models.Word
	if !bindJSON(c, &word) {
		return
	}
	word.ID = c.Param("id")
	if err := h.teacher.UpdateWord(c.Request.Context(), &word); err != nil {
		respondError(c, err)
		return
	}
	updated, err := h.teacher.Word(c.Request.Context(), word.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, updated)
}

// DELETE /api/words/:id
func (h *Handler) DeleteWord(c *gin.Context) {
	if err := h.teacher.DeleteWord(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/learning-points
func (h *Handler) LearningPoints(c *gin.Context) {
	points, err := h.teacher.LearningPoints(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, points)
}

// POST /api/words/generate
func (h *Handler) GenerateEntry(c *gin.Context) {
	var req generateEntryReq
	if !bindJSON(c, &req) {
		return
	}
	draft, err := h.teacher.GenerateEntry(c.Request.Context(), req.Word)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, draft)
}

// POST /api/words/themed
func (h *Handler) GenerateThemedList(c *gin.Context) {
	var req themedListReq
	if !bindJSON(c, &req) {
		return
	}
	yg, ok := models.ParseYearGroup(req.YearGroup)
	if !ok {
		respondError(c, apperr.Validation("unknown year group %q", req.YearGroup))
		return
	}
	drafts, err := h.teacher.GenerateThemedList(c.Request.Context(), yg)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, drafts)
}

// POST /api/words/extract (multipart "file")
func (h *Handler) ExtractEntries(c *gin.Context) {
	data, mimeType, ok := h.readUpload(c)
	if !ok {
		return
	}
	drafts, err := h.teacher.ExtractEntries(c.Request.Context(), data, mimeType)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, drafts)
}

// POST /api/words/drafts
func (h *Handler) SaveDrafts(c *gin.Context) {
	var req saveDraftsReq
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.teacher.SaveDrafts(c.Request.Context(), req.Drafts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// POST /api/words/import (multipart "file")
func (h *Handler) ImportSpreadsheet(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, apperr.Validation("a spreadsheet is required in the \"file\" field"))
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		respondError(c, apperr.Validation("failed to read upload: %v", err))
		return
	}
	defer f.Close()

	result, err := h.teacher.ImportSpreadsheet(c.Request.Context(), io.LimitReader(f, maxUploadSize), fileHeader.Filename)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// readUpload returns the bytes and MIME type of the "file" field
func (h *Handler) readUpload(c *gin.Context) ([]byte, string, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, apperr.Validation("a document is required in the \"file\" field"))
		return nil, "", false
	}
	if fileHeader.Size > maxUploadSize {
		respondError(c, apperr.Validation("file is larger than %d MB", maxUploadSize>>20))
		return nil, "", false
	}
	f, err := fileHeader.Open()
	if err != nil {
		respondError(c, apperr.Validation("failed to read upload: %v", err))
		return nil, "", false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		respondError(c, apperr.Validation("failed to read upload: %v", err))
		return nil, "", false
	}
	return data, uploadMime(fileHeader.Header.Get("Content-Type"), fileHeader.Filename, data), true
}

// uploadMime prefers the declared type, then the extension, then sniffing
func uploadMime(declared, filename string, data []byte) string {
	if i := strings.Index(declared, ";"); i >= 0 {
		declared = declared[:i]
	}
	declared = strings.TrimSpace(strings.ToLower(declared))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return "text/plain"
	case ".csv":
		return "text/csv"
	case ".md":
		return "text/markdown"
	case ".xlsx":
		return ai.MimeXLSX
	}
	return strings.SplitN(http.DetectContentType(data), ";", 2)[0]
}
