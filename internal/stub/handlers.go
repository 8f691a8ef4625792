// Package stub implements the analysis service wire contract for local
// development and tests. Payloads are canned; only the contract matters.
package stub

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Horizontal-Labs/ArminApp/internal/infrastructure/logging"
)

// Handlers serves POST /api/analyze/text and /api/analyze/file.
type Handlers struct {
	log *logging.Logger
}

// New creates the stub handlers.
func New(log *logging.Logger) *Handlers {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handlers{log: log}
}

// Register mounts the routes on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.POST("/api/analyze/text", h.AnalyzeText)
	r.POST("/api/analyze/file", h.AnalyzeFile)
}

// AnalyzeText handles the JSON text-analysis request.
func (h *Handlers) AnalyzeText(c *gin.Context) {
	var req struct {
		Text   string `json:"text" binding:"required"`
		ChatID string `json:"chatId" binding:"required"`
		Mode   string `json:"analysisMode" binding:"required,oneof=comprehensive quick detailed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.log.Info("stub_text_analysis",
		zap.String("chat", req.ChatID),
		zap.String("mode", req.Mode),
	)

	c.JSON(http.StatusOK, gin.H{
		"mode":       req.Mode,
		"summary":    summarize(req.Text),
		"wordCount":  len(strings.Fields(req.Text)),
		"analyzedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

// AnalyzeFile handles the multipart file-analysis request.
func (h *Handlers) AnalyzeFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	chatID := c.PostForm("chatId")
	if chatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chatId is required"})
		return
	}
	mode := c.PostForm("analysisMode")
	switch mode {
	case "comprehensive", "quick", "detailed":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "analysisMode must be one of: comprehensive quick detailed"})
		return
	}

	h.log.Info("stub_file_analysis",
		zap.String("chat", chatID),
		zap.String("file", file.Filename),
		zap.Int64("size", file.Size),
	)

	resp := gin.H{
		"mode":       mode,
		"fileName":   file.Filename,
		"sizeBytes":  file.Size,
		"summary":    "Analysis of " + file.Filename,
		"analyzedAt": time.Now().UTC().Format(time.RFC3339),
	}
	if extra := c.PostForm("additionalText"); extra != "" {
		resp["additionalText"] = extra
	}
	c.JSON(http.StatusOK, resp)
}

func summarize(text string) string {
	const limit = 80
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}
