// Package analyze exposes the assessment pipeline over HTTP.
package analyze

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"trulogo-server-go/internal/domain/assess"
	"trulogo-server-go/internal/domain/mark"
	"trulogo-server-go/internal/domain/variants"
	platformerrors "trulogo-server-go/internal/platform/errors"
	httptransport "trulogo-server-go/internal/transport/http"
	"trulogo-server-go/internal/utils"
)

// Assessor runs one assessment. Satisfied by *assess.Service.
type Assessor interface {
	Assess(ctx context.Context, m mark.Mark) (*assess.Report, error)
}

// Service is the HTTP transport for logo and text analysis.
type Service struct {
	assessor  Assessor
	generator *variants.Generator
	logger    *utils.Logger
}

func NewService(assessor Assessor, logger *utils.Logger) (*Service, error) {
	if assessor == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "analyze.new",
			"assessor is required")
	}
	if logger == nil {
		logger = utils.DefaultLogger
	}
	return &Service{
		assessor:  assessor,
		generator: variants.NewGenerator(),
		logger:    logger,
	}, nil
}

// Register mounts the analysis routes on the API group.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.POST("/analyze/logo", s.handleAnalyzeLogo)
	router.POST("/analyze/text", s.handleAnalyzeText)
	router.POST("/generate/logo", s.handleGenerateLogo)

	s.logger.InfoTag("HTTP", "analysis routes registered")
	return nil
}

func (s *Service) handleAnalyzeLogo(c *gin.Context) {
	filename, data, ok := s.readUpload(c)
	if !ok {
		return
	}

	report, err := s.assessor.Assess(c.Request.Context(), mark.NewImageMark(filename, data))
	if err != nil {
		s.logger.WarnTag("HTTP", "logo analysis failed for %s: %v", filename, err)
		httptransport.RespondError(c, http.StatusInternalServerError,
			"logo analysis failed; the uploaded file could not be processed")
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Service) handleAnalyzeText(c *gin.Context) {
	text := c.PostForm("text")
	if text == "" {
		httptransport.RespondError(c, http.StatusBadRequest, "text field is required")
		return
	}

	report, err := s.assessor.Assess(c.Request.Context(), mark.NewTextMark(text))
	if err != nil {
		s.logger.WarnTag("HTTP", "text analysis failed: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError,
			"text analysis failed")
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Service) handleGenerateLogo(c *gin.Context) {
	_, data, ok := s.readUpload(c)
	if !ok {
		return
	}

	riskScore, err := strconv.ParseFloat(c.PostForm("risk_score"), 64)
	if err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "risk_score field is required")
		return
	}

	generated, err := s.generator.Generate(data, riskScore)
	if err != nil {
		s.logger.WarnTag("HTTP", "variant generation failed: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError,
			"variant generation failed; the uploaded file could not be processed")
		return
	}

	c.JSON(http.StatusOK, VariantsResponse{Variants: generated})
}

// readUpload pulls the multipart "file" field, bounding its size. On failure
// it writes the error response and reports ok=false.
func (s *Service) readUpload(c *gin.Context) (filename string, data []byte, ok bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "file field is required")
		return "", nil, false
	}
	defer file.Close()

	if header.Size > MaxFileSize {
		httptransport.RespondError(c, http.StatusBadRequest, "file exceeds the 5MB upload limit")
		return "", nil, false
	}

	data, err = io.ReadAll(io.LimitReader(file, MaxFileSize+1))
	if err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "failed to read uploaded file")
		return "", nil, false
	}
	if len(data) > MaxFileSize {
		httptransport.RespondError(c, http.StatusBadRequest, "file exceeds the 5MB upload limit")
		return "", nil, false
	}

	return header.Filename, data, true
}
