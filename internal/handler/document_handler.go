package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docchat/internal/pkg/errcode"
	"github.com/xxxsen/docchat/internal/pkg/response"
	"github.com/xxxsen/docchat/internal/service"
)

const maxUploadBytes = 32 << 20

type DocumentHandler struct {
	documents *service.DocumentService
}

func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "file is required")
		return
	}
	defer file.Close()
	if header.Size > maxUploadBytes {
		response.Error(c, errcode.ErrInvalidFile, "file too large")
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "read upload failed")
		return
	}
	stored, err := h.documents.IngestFile(c.Request.Context(), getUserID(c), header.Filename, data)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"source": header.Filename, "chunks": stored})
}

func (h *DocumentHandler) List(c *gin.Context) {
	sources, err := h.documents.ListSources(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"sources": sources})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	source := c.Param("source")
	count, err := h.documents.DeleteSource(c.Request.Context(), getUserID(c), source)
	if err != nil {
		handleError(c, err)
		return
	}
	if count == 0 {
		response.Error(c, errcode.ErrNotFound, "no documents found for this source")
		return
	}
	response.Success(c, gin.H{"deleted": count})
}
