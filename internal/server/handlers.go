package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Zuo-Peng/trainlog/internal/render"
	"github.com/Zuo-Peng/trainlog/internal/report"
)

var (
	errNoFile   = errors.New("no file uploaded")
	errNotTxt   = errors.New("only .txt WhatsApp exports are accepted")
	errTooLarge = errors.New("file is too large")
)

type uploadError struct {
	status int
	err    error
}

func (e *uploadError) Error() string { return e.err.Error() }
func (e *uploadError) Unwrap() error { return e.err }

// Index renders the empty dashboard with the upload form.
func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", pageData{
		Info:     "Upload a .txt WhatsApp export to analyse the team's training sessions.",
		MaxBytes: h.maxUpload,
	})
}

// Upload parses the uploaded export and renders the dashboard.
func (h *Handler) Upload(c *gin.Context) {
	uploadID := uuid.NewString()

	rm, filename, err := h.process(c, uploadID)
	if err != nil {
		c.HTML(statusOf(err), "index.html", pageData{
			UploadID: uploadID,
			Filename: filename,
			Error:    err.Error(),
			MaxBytes: h.maxUpload,
		})
		return
	}

	c.HTML(http.StatusOK, "index.html", newPageData(uploadID, filename, h.maxUpload, rm))
}

// Report parses the uploaded export and returns the report as JSON.
func (h *Handler) Report(c *gin.Context) {
	uploadID := uuid.NewString()
	c.Header("X-Upload-ID", uploadID)

	rm, _, err := h.process(c, uploadID)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error(), "upload_id": uploadID})
		return
	}

	c.JSON(http.StatusOK, render.NewView(rm))
}

// HealthCheck reports liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) process(c *gin.Context, uploadID string) (report.RenderModel, string, error) {
	data, filename, err := h.readUpload(c)
	if err != nil {
		h.logger.Warn("Rejected upload",
			zap.String("upload_id", uploadID),
			zap.String("filename", filename),
			zap.Error(err))
		return report.RenderModel{}, filename, err
	}

	rm, err := report.ProcessUpload(data)
	if err != nil {
		h.logger.Warn("Failed to process upload",
			zap.String("upload_id", uploadID),
			zap.String("filename", filename),
			zap.Error(err))
		return report.RenderModel{}, filename, &uploadError{status: http.StatusBadRequest, err: err}
	}

	h.logger.Info("Processed upload",
		zap.String("upload_id", uploadID),
		zap.String("filename", filename),
		zap.Int("bytes", len(data)),
		zap.Int("records", rm.Total),
		zap.Int("members", rm.Members))
	return rm, filename, nil
}

// readUpload returns the content of the multipart field "file".
func (h *Handler) readUpload(c *gin.Context) ([]byte, string, error) {
	// leave room for the multipart envelope
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, "", &uploadError{status: http.StatusRequestEntityTooLarge, err: errTooLarge}
		}
		return nil, "", &uploadError{status: http.StatusBadRequest, err: errNoFile}
	}

	filename := filepath.Base(fh.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".txt") {
		return nil, filename, &uploadError{status: http.StatusBadRequest, err: errNotTxt}
	}
	if fh.Size > h.maxUpload {
		return nil, filename, &uploadError{
			status: http.StatusRequestEntityTooLarge,
			err:    fmt.Errorf("%w (max %d MB)", errTooLarge, h.maxUpload>>20),
		}
	}

	f, err := fh.Open()
	if err != nil {
		return nil, filename, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, filename, fmt.Errorf("read upload: %w", err)
	}
	return data, filename, nil
}

func statusOf(err error) int {
	var ue *uploadError
	if errors.As(err, &ue) {
		return ue.status
	}
	return http.StatusInternalServerError
}
