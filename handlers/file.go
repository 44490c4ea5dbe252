package handlers

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"foodieconnect/utils"
)

func (h *Handler) UploadFile(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequest(c, "No file uploaded")
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		utils.BadRequest(c, "File too large (max 50MB)")
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		slog.Error("create upload dir failed", "error", err, "dir", h.uploadDir)
		utils.InternalError(c, "Server error")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	filename := uuid.New().String() + ext
	out, err := os.Create(filepath.Join(h.uploadDir, filename))
	if err != nil {
		slog.Error("save upload failed", "error", err)
		utils.InternalError(c, "Server error")
		return
	}
	defer out.Close()

	size, err := io.Copy(out, io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		slog.Error("save upload failed", "error", err)
		utils.InternalError(c, "Server error")
		return
	}
	if size > maxUploadSize {
		out.Close()
		os.Remove(out.Name())
		utils.BadRequest(c, "File too large (max 50MB)")
		return
	}

	utils.Created(c, FileResponse{
		URL:      "/api/files/" + filename,
		Name:     header.Filename,
		Size:     size,
		MimeType: header.Header.Get("Content-Type"),
	})
}

func (h *Handler) ServeFile(c *gin.Context) {
	name := filepath.Clean(c.Param("filename"))
	if name != filepath.Base(name) || name == "." || name == ".." {
		utils.BadRequest(c, "Invalid filename")
		return
	}

	absDir, err := filepath.Abs(h.uploadDir)
	if err != nil {
		utils.InternalError(c, "Server error")
		return
	}
	path := filepath.Join(absDir, name)
	if !strings.HasPrefix(path, absDir+string(filepath.Separator)) {
		utils.BadRequest(c, "Invalid filename")
		return
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		utils.NotFound(c, "File not found")
		return
	}
	c.File(path)
}
