package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/commonapp/common-backend/internal/http/handlers/common"
	"github.com/commonapp/common-backend/internal/service"
	"github.com/commonapp/common-backend/internal/storage"
)

// Accepted avatar formats.
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// MediaHandler handles avatar upload. Files are sniffed by magic
// bytes, not trusted by extension alone.
type MediaHandler struct {
	storage  *storage.PhotoStorage
	profiles *service.ProfileService
}

func NewMediaHandler(storage *storage.PhotoStorage, profiles *service.ProfileService) *MediaHandler {
	return &MediaHandler{storage: storage, profiles: profiles}
}

// UploadAvatar handles POST /media/avatar.
func (h *MediaHandler) UploadAvatar(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "field file is required")
		return
	}
	if file.Size == 0 {
		common.RespondBadRequest(c, "file cannot be empty")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		common.RespondBadRequest(c, fmt.Sprintf("unsupported file format, allowed: %s", strings.Join(extensionList(), ", ")))
		return
	}

	src, err := file.Open()
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		common.RespondBadRequest(c, "file cannot be read")
		return
	}
	kind, _ := filetype.Match(head[:n])
	if kind == filetype.Unknown || !allowedMimeTypes[kind.MIME.Value] {
		common.RespondBadRequest(c, "file content does not match an allowed image format")
		return
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		common.RespondAppError(c, err)
		return
	}

	relPath, _, err := h.storage.Save(c.Request.Context(), userID, file.Filename, src)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	prof, err := h.profiles.UpdateProfile(c.Request.Context(), userID, service.ProfileUpdate{
		AvatarPath: &relPath,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, prof)
}

func extensionList() []string {
	exts := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		exts = append(exts, ext)
	}
	return exts
}
