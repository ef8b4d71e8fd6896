package api

import (
	"bytes"
	stderrors "errors"
	"image/png"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"qrmaster/internal/errors"
	"qrmaster/internal/helpers"
	"qrmaster/internal/models"
	"qrmaster/internal/services"
	"qrmaster/internal/validation"
)

// GenerateRequest is the body of POST /api/generate
type GenerateRequest struct {
	Text string `json:"text"`
}

// ScanURLRequest is the JSON body of POST /api/scan
type ScanURLRequest struct {
	URL string `json:"url" binding:"required"`
}

// ScanResponse describes a scan outcome. A miss has Found false.
type ScanResponse struct {
	Found  bool           `json:"found"`
	Text   string         `json:"text,omitempty"`
	IsURL  bool           `json:"is_url"`
	URL    string         `json:"url,omitempty"`
	Points []models.Point `json:"points,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	text, err := validation.ValidateText(req.Text)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	encoded, err := s.encoder.Generate(text)
	if err != nil {
		var encodingErr *errors.EncodingError
		if stderrors.As(err, &encodingErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	img := encoded.Image
	if _, ok := c.GetQuery("preview"); ok {
		img = encoded.Thumbnail(s.previewSize)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		s.logger.Errorf("Failed to encode PNG: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode image"})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) scan(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	var (
		data []byte
		ok   bool
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		data, ok = s.readUpload(c)
	} else {
		data, ok = s.readRemote(c)
	}
	if !ok {
		return
	}

	img, err := services.ReadImage(bytes.NewReader(data))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	detection, err := s.decoder.Decode(img)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, newScanResponse(detection))
}

func (s *Server) readUpload(c *gin.Context) ([]byte, bool) {
	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"image\" is required"})
		return nil, false
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(file); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return buf.Bytes(), true
}

func (s *Server) readRemote(c *gin.Context) ([]byte, bool) {
	var req ScanURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON body with \"url\" or multipart \"image\" is required"})
		return nil, false
	}

	data, err := s.fetcher.Fetch(c.Request.Context(), req.URL)
	if err != nil {
		var inputErr *errors.InputError
		if stderrors.As(err, &inputErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, false
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return nil, false
	}
	return data, true
}

func newScanResponse(detection models.Detection) ScanResponse {
	if !detection.Found() {
		return ScanResponse{}
	}

	resp := ScanResponse{
		Found:  true,
		Text:   detection.Text,
		Points: detection.Corners,
	}
	if helpers.LooksLikeURL(detection.Text) {
		resp.IsURL = true
		resp.URL = helpers.NormalizeURL(detection.Text)
	}
	return resp
}
