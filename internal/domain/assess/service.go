// Package assess orchestrates one trademark assessment: feature extraction,
// similarity search, safety checks, risk scoring and remedy selection.
package assess

import (
	"context"

	"trulogo-server-go/internal/core/providers/extractor"
	"trulogo-server-go/internal/domain/index"
	"trulogo-server-go/internal/domain/mark"
	"trulogo-server-go/internal/domain/remedy"
	"trulogo-server-go/internal/domain/risk"
	"trulogo-server-go/internal/domain/safety"
	platformerrors "trulogo-server-go/internal/platform/errors"
	"trulogo-server-go/internal/utils"
)

const defaultTopK = 5

// searchUnavailableNote is attached to reports produced while the
// similarity index could not be queried.
const searchUnavailableNote = "Similarity search was unavailable; risk was scored without corpus matches."

// Searcher is the similarity index query contract.
type Searcher interface {
	Search(ns index.Namespace, vector []float32, k int) ([]index.Match, error)
}

// Recorder persists one record per completed assessment. Failures are
// logged, never surfaced to the caller.
type Recorder interface {
	Save(ctx context.Context, identity string, level mark.RiskLevel, score float64, payload any) error
}

// HeatmapFunc renders the presentational overlay for image marks.
type HeatmapFunc func(data []byte) (string, error)

// Report is the assembled assessment returned to the caller.
type Report struct {
	Filename  string                  `json:"filename,omitempty"`
	Text      string                  `json:"text,omitempty"`
	RiskScore float64                 `json:"risk_score"`
	RiskLevel mark.RiskLevel          `json:"risk_level"`
	PHash     string                  `json:"phash,omitempty"`
	Heatmap   string                  `json:"heatmap,omitempty"`
	Matches   []index.Match           `json:"similar_marks"`
	Metadata  mark.StructuralMetadata `json:"metadata"`
	Safety    mark.SafetyResult       `json:"safety"`
	Remedy    mark.Remedy             `json:"remedy"`
	Notes     []string                `json:"notes,omitempty"`
}

// Deps wires the service's collaborators. Extractor and Searcher are
// required; the rest are optional.
type Deps struct {
	Extractor extractor.Provider
	Searcher  Searcher
	Recorder  Recorder
	Heatmap   HeatmapFunc
	Logger    *utils.Logger
	TopK      int
}

// Service runs the assessment pipeline. It holds no per-request state; one
// instance serves all requests concurrently.
type Service struct {
	extractor extractor.Provider
	searcher  Searcher
	recorder  Recorder
	heatmap   HeatmapFunc
	checker   *safety.Checker
	scorer    *risk.Scorer
	selector  *remedy.Selector
	logger    *utils.Logger
	topK      int
}

// NewService builds the orchestrator.
func NewService(deps Deps) (*Service, error) {
	if deps.Extractor == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "assess.new", "extractor is required")
	}
	if deps.Searcher == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "assess.new", "searcher is required")
	}
	topK := deps.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	logger := deps.Logger
	if logger == nil {
		logger = utils.DefaultLogger
	}
	return &Service{
		extractor: deps.Extractor,
		searcher:  deps.Searcher,
		recorder:  deps.Recorder,
		heatmap:   deps.Heatmap,
		checker:   safety.NewChecker(),
		scorer:    risk.NewScorer(),
		selector:  remedy.NewSelector(),
		logger:    logger,
		topK:      topK,
	}, nil
}

// Assess runs the full pipeline for one mark. Extraction failure is fatal
// and propagated; index and metadata failures degrade per their taxonomy.
func (s *Service) Assess(ctx context.Context, m mark.Mark) (*Report, error) {
	if m.Kind == mark.KindText {
		return s.assessText(ctx, m)
	}
	return s.assessImage(ctx, m)
}

func (s *Service) assessImage(ctx context.Context, m mark.Mark) (*Report, error) {
	vector, err := s.extractor.EmbedImage(ctx, m.Image)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindExtraction, "assess.image",
			"feature extraction failed", err)
	}
	phash, err := s.extractor.PerceptualHash(m.Image)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindExtraction, "assess.image",
			"perceptual hash failed", err)
	}

	report := &Report{Filename: m.Filename, PHash: phash}

	if s.heatmap != nil {
		if encoded, err := s.heatmap(m.Image); err != nil {
			s.warn("ASSESS", "heatmap rendering failed for %s: %v", m.Filename, err)
		} else {
			report.Heatmap = encoded
		}
	}

	matches := s.search(index.NamespaceImage, vector, report)

	metadata, err := mark.ExtractMetadata(m.Image, m.Filename)
	if err != nil {
		// Degrade to the default record; the safety checker still runs.
		s.warn("ASSESS", "metadata extraction failed for %s: %v", m.Filename, err)
		metadata = mark.StructuralMetadata{}
	}
	report.Metadata = metadata

	s.finish(ctx, report, m, matches, s.checker.Check(metadata))
	return report, nil
}

func (s *Service) assessText(ctx context.Context, m mark.Mark) (*Report, error) {
	vector, err := s.extractor.EmbedText(ctx, m.Text)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindExtraction, "assess.text",
			"feature extraction failed", err)
	}

	report := &Report{Text: m.Text}
	matches := s.search(index.NamespaceText, vector, report)

	// Text marks have no structural metadata; safety rules have nothing to
	// evaluate and the result stays empty (and safe).
	s.finish(ctx, report, m, matches, mark.SafetyResult{})
	return report, nil
}

// search queries one namespace, degrading to zero matches with a report
// note when the index is unavailable.
func (s *Service) search(ns index.Namespace, vector []float32, report *Report) []index.Match {
	matches, err := s.searcher.Search(ns, vector, s.topK)
	if err != nil {
		s.warn("INDEX", "search unavailable in %s namespace: %v", ns, err)
		report.Notes = append(report.Notes, searchUnavailableNote)
		return nil
	}
	return matches
}

// finish runs scoring, remedy selection, report assembly and the durable
// record emit shared by both mark kinds.
func (s *Service) finish(ctx context.Context, report *Report, m mark.Mark, matches []index.Match, safetyResult mark.SafetyResult) {
	assessment, annotated := s.scorer.Score(matches, safetyResult)
	level, selected := s.selector.Select(assessment.Score, safetyResult)

	if annotated == nil {
		annotated = []index.Match{}
	}
	report.RiskScore = assessment.Score
	report.RiskLevel = level
	report.Matches = annotated
	report.Safety = safetyResult
	report.Remedy = selected

	if s.recorder != nil {
		if err := s.recorder.Save(ctx, m.Identity(), level, assessment.Score, report); err != nil {
			s.warn("STORE", "failed to record assessment for %s: %v", m.Identity(), err)
		}
	}
}

func (s *Service) warn(tag, msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.WarnTag(tag, msg, args...)
	}
}
