package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/poiesic/ragchat/ingestion"
)

type reindexResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
}

type uploadResponse struct {
	Success  bool   `json:"success"`
	Uploaded int    `json:"uploaded"`
	Message  string `json:"message"`
}

func (s *Server) status(c echo.Context) error {
	return c.JSON(http.StatusOK, s.indexer.Status())
}

// reindex starts a run in the background. A run that is already active
// makes the request a no-op.
func (s *Server) reindex(c echo.Context) error {
	future := s.indexer.Trigger(c.Request().Context())
	select {
	case <-future.Done():
		res, err := future.Wait(c.Request().Context())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if res.Skipped {
			return c.JSON(http.StatusOK, reindexResponse{Accepted: false, Message: "document indexing is already running"})
		}
	default:
	}
	return c.JSON(http.StatusAccepted, reindexResponse{Accepted: true, Message: "document reindexing started"})
}

// upload saves the multipart "files" field. The whole batch is rejected
// when any file breaks the upload limits.
func (s *Server) upload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return c.JSON(http.StatusBadRequest, uploadResponse{Message: err.Error()})
	}
	var headers []*multipart.FileHeader
	if form != nil {
		headers = form.File["files"]
	}

	files := make([]ingestion.UploadFile, len(headers))
	for i, h := range headers {
		files[i] = ingestion.UploadFile{Name: h.Filename, Size: h.Size}
	}
	if err := ingestion.ValidateUpload(files); err != nil {
		return c.JSON(http.StatusBadRequest, uploadResponse{Message: err.Error()})
	}

	for i, h := range headers {
		f, err := h.Open()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, uploadResponse{Message: fmt.Sprintf("open %s: %v", h.Filename, err)})
		}
		defer closeQuietly(f)
		files[i].Content = f
	}

	n, err := s.uploader.Save(files)
	if errors.Is(err, ingestion.ErrFileTooLarge) {
		return c.JSON(http.StatusBadRequest, uploadResponse{Uploaded: n, Message: err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, uploadResponse{Uploaded: n, Message: err.Error()})
	}
	s.logger.Info("documents uploaded", "files", n)
	return c.JSON(http.StatusOK, uploadResponse{Success: true, Uploaded: n, Message: fmt.Sprintf("%d files uploaded", n)})
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
