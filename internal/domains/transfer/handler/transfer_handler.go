package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bookcatalog-backend/internal/domains/transfer"
	"bookcatalog-backend/internal/shared/middleware"
	"bookcatalog-backend/internal/shared/response"
)

// multipartOverhead leaves room for boundaries and part headers on top of
// the file itself.
const multipartOverhead = 1 << 20

type TransferHandler struct {
	service        transfer.Service
	maxUploadBytes int64
}

func NewTransferHandler(service transfer.Service, maxUploadBytes int64) *TransferHandler {
	return &TransferHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// ImportCSV - POST /v1/imports/csv
func (h *TransferHandler) ImportCSV(c *gin.Context) {
	h.handleImport(c, transfer.FormatCSV)
}

// ImportJSON - POST /v1/imports/json
func (h *TransferHandler) ImportJSON(c *gin.Context) {
	h.handleImport(c, transfer.FormatJSON)
}

func (h *TransferHandler) handleImport(c *gin.Context, format transfer.Format) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	async, err := strconv.ParseBool(c.DefaultQuery("async", "false"))
	if err != nil {
		response.BadRequest(c, "async must be a boolean")
		return
	}

	up, err := h.readUpload(c, format)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	up.UserID = userID

	log.Info().
		Int64("user_id", userID).
		Str("username", middleware.GetUsername(c)).
		Str("file_name", up.FileName).
		Int("file_size", len(up.Data)).
		Bool("async", async).
		Msg("[TransferHandler] received import request")

	if async {
		job, err := h.service.ImportAsync(c.Request.Context(), up)
		if err != nil {
			response.HandleError(c, err)
			return
		}
		response.Success(c, http.StatusAccepted, job)
		return
	}

	summary, err := h.service.Import(c.Request.Context(), up)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// readUpload reads the multipart "file" part, bounded by maxUploadBytes.
func (h *TransferHandler) readUpload(c *gin.Context, format transfer.Format) (transfer.Upload, error) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return transfer.Upload{}, transfer.ErrFileTooLarge
		}
		log.Debug().Err(err).Msg("missing import file part")
		return transfer.Upload{}, transfer.ErrMissingFile
	}
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		return transfer.Upload{}, transfer.ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return transfer.Upload{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return transfer.Upload{}, fmt.Errorf("read upload: %w", err)
	}

	return transfer.Upload{FileName: fh.Filename, Format: format, Data: data}, nil
}

// GetJob - GET /v1/imports/jobs/:id
func (h *TransferHandler) GetJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.HandleError(c, transfer.ErrInvalidJobID)
		return
	}

	job, err := h.service.GetJob(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, job)
}

// ExportCSV - GET /v1/exports/csv
func (h *TransferHandler) ExportCSV(c *gin.Context) {
	h.handleExport(c, transfer.FormatCSV)
}

// ExportJSON - GET /v1/exports/json
func (h *TransferHandler) ExportJSON(c *gin.Context) {
	h.handleExport(c, transfer.FormatJSON)
}

// ExportXLSX - GET /v1/exports/xlsx
func (h *TransferHandler) ExportXLSX(c *gin.Context) {
	h.handleExport(c, transfer.FormatXLSX)
}

func (h *TransferHandler) handleExport(c *gin.Context, format transfer.Format) {
	c.Header("Content-Type", format.ContentType())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="catalog.%s"`, format))
	c.Status(http.StatusOK)

	if err := h.service.Export(c.Request.Context(), format, c.Writer); err != nil {
		if !c.Writer.Written() {
			c.Header("Content-Type", "")
			c.Header("Content-Disposition", "")
			response.HandleError(c, err)
			return
		}
		// headers are already out; the client sees a truncated body
		log.Error().Err(err).Str("format", string(format)).Msg("export aborted mid-stream")
		_ = c.Error(err)
	}
}
