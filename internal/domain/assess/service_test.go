package assess

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"reflect"
	"testing"

	"trulogo-server-go/internal/core/providers/extractor"
	"trulogo-server-go/internal/domain/index"
	"trulogo-server-go/internal/domain/mark"
	platformerrors "trulogo-server-go/internal/platform/errors"
)

// fakeExtractor returns fixed vectors and a fixed hash.
type fakeExtractor struct {
	failImage bool
}

func (f *fakeExtractor) EmbedImage(ctx context.Context, data []byte) (extractor.Vector, error) {
	if f.failImage {
		return nil, platformerrors.New(platformerrors.KindExtraction, "extractor.embed_image", "undecodable input")
	}
	return extractor.Vector{1, 0}, nil
}

func (f *fakeExtractor) EmbedText(ctx context.Context, text string) (extractor.Vector, error) {
	return extractor.Vector{0, 1}, nil
}

func (f *fakeExtractor) EmbedTextAsVisualConcept(ctx context.Context, text string) (extractor.Vector, error) {
	return extractor.Vector{0.5, 0.5}, nil
}

func (f *fakeExtractor) PerceptualHash(data []byte) (string, error) { return "00000000deadbeef", nil }
func (f *fakeExtractor) Initialize() error                          { return nil }
func (f *fakeExtractor) Cleanup() error                             { return nil }

// fakeSearcher returns canned matches or a configured error.
type fakeSearcher struct {
	matches []index.Match
	err     error
}

func (f *fakeSearcher) Search(ns index.Namespace, vector []float32, k int) ([]index.Match, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

// captureRecorder remembers the last emitted record.
type captureRecorder struct {
	identity string
	level    mark.RiskLevel
	score    float64
	calls    int
}

func (r *captureRecorder) Save(ctx context.Context, identity string, level mark.RiskLevel, score float64, payload any) error {
	r.identity = identity
	r.level = level
	r.score = score
	r.calls++
	return nil
}

func smallPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 30, G: 60, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newService(t *testing.T, deps Deps) *Service {
	t.Helper()
	if deps.Extractor == nil {
		deps.Extractor = &fakeExtractor{}
	}
	if deps.Searcher == nil {
		deps.Searcher = &fakeSearcher{}
	}
	svc, err := NewService(deps)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestAssessImageEndToEnd(t *testing.T) {
	recorder := &captureRecorder{}
	svc := newService(t, Deps{
		Searcher: &fakeSearcher{matches: []index.Match{
			{Key: "Starbeans", Distance: 0.3},
			{Key: "Nikey", Distance: 1.2},
		}},
		Recorder: recorder,
	})

	report, err := svc.Assess(context.Background(), mark.NewImageMark("logo.png", smallPNG(t)))
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}

	// distance 0.3 -> s=0.85 -> 50 + ((0.85-0.20)/0.80)*50 = 90.625 -> 90.63.
	if report.RiskScore != 90.63 {
		t.Fatalf("risk score = %v, want 90.63", report.RiskScore)
	}
	if report.RiskLevel != mark.RiskHigh {
		t.Fatalf("risk level = %s, want High", report.RiskLevel)
	}
	if report.Remedy.Status != "High Risk - Do Not Use" {
		t.Fatalf("remedy status = %q", report.Remedy.Status)
	}
	if report.PHash != "00000000deadbeef" {
		t.Fatalf("phash = %q", report.PHash)
	}
	if len(report.Matches) != 2 || report.Matches[0].Similarity != 0.85 {
		t.Fatalf("matches not annotated: %+v", report.Matches)
	}
	if report.Metadata.Width != 32 || report.Metadata.Format != "PNG" {
		t.Fatalf("metadata missing: %+v", report.Metadata)
	}

	if recorder.calls != 1 || recorder.identity != "logo.png" ||
		recorder.level != mark.RiskHigh || recorder.score != 90.63 {
		t.Fatalf("scan record wrong: %+v", recorder)
	}
}

func TestAssessImageExtractionFailureIsFatal(t *testing.T) {
	recorder := &captureRecorder{}
	svc := newService(t, Deps{
		Extractor: &fakeExtractor{failImage: true},
		Recorder:  recorder,
	})

	_, err := svc.Assess(context.Background(), mark.NewImageMark("bad.png", []byte("junk")))
	if err == nil {
		t.Fatalf("expected fatal extraction failure")
	}
	if !platformerrors.IsKind(err, platformerrors.KindExtraction) {
		t.Fatalf("expected extraction kind, got %v", err)
	}
	if recorder.calls != 0 {
		t.Fatalf("no record must be emitted for a failed assessment")
	}
}

func TestAssessImageIndexUnavailableDegrades(t *testing.T) {
	svc := newService(t, Deps{
		Searcher: &fakeSearcher{err: platformerrors.New(platformerrors.KindIndex, "index.search", "index down")},
	})

	report, err := svc.Assess(context.Background(), mark.NewImageMark("logo.png", smallPNG(t)))
	if err != nil {
		t.Fatalf("index outage must not fail the assessment: %v", err)
	}

	if report.RiskScore != 0 {
		t.Fatalf("zero matches must score 0, got %v", report.RiskScore)
	}
	if report.RiskLevel != mark.RiskLow {
		t.Fatalf("expected Low, got %s", report.RiskLevel)
	}
	if len(report.Notes) != 1 || report.Notes[0] != searchUnavailableNote {
		t.Fatalf("expected degraded note, got %v", report.Notes)
	}
	if len(report.Matches) != 0 {
		t.Fatalf("expected no matches, got %+v", report.Matches)
	}
}

func TestAssessImageSafetyEscalation(t *testing.T) {
	svc := newService(t, Deps{
		Searcher: &fakeSearcher{matches: []index.Match{{Key: "far", Distance: 1.9}}},
	})

	report, err := svc.Assess(context.Background(), mark.NewImageMark("emblem_logo.png", smallPNG(t)))
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}

	if report.Safety.IsSafe() {
		t.Fatalf("emblem filename must raise a High content flag")
	}
	if report.RiskScore < 85 {
		t.Fatalf("unsafe mark must score at least 85, got %v", report.RiskScore)
	}
	found := false
	for _, w := range report.Remedy.SpecificWarnings {
		if len(w) > 9 && w[:9] == "CRITICAL:" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected CRITICAL warning, got %v", report.Remedy.SpecificWarnings)
	}
}

func TestAssessTextPath(t *testing.T) {
	recorder := &captureRecorder{}
	svc := newService(t, Deps{
		Searcher: &fakeSearcher{matches: []index.Match{{Key: "Starbeans", Distance: 0.4}}},
		Recorder: recorder,
	})

	report, err := svc.Assess(context.Background(), mark.NewTextMark("Starbeans Coffee"))
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}

	if report.Text != "Starbeans Coffee" || report.Filename != "" {
		t.Fatalf("text identity wrong: %+v", report)
	}
	if report.PHash != "" || report.Heatmap != "" {
		t.Fatalf("text marks carry no image artifacts")
	}
	// distance 0.4 -> s=0.8 -> 50 + ((0.8-0.2)/0.8)*50 = 87.5.
	if report.RiskScore != 87.5 {
		t.Fatalf("risk score = %v, want 87.5", report.RiskScore)
	}
	if !report.Safety.IsSafe() || len(report.Safety.Flags) != 0 {
		t.Fatalf("text marks have an empty safety result: %+v", report.Safety)
	}
	if recorder.identity != "Starbeans Coffee" {
		t.Fatalf("record identity = %q", recorder.identity)
	}
}

func TestAssessDeterministic(t *testing.T) {
	svc := newService(t, Deps{
		Searcher: &fakeSearcher{matches: []index.Match{{Key: "Starbeans", Distance: 0.3}}},
	})
	m := mark.NewImageMark("logo.png", smallPNG(t))

	first, err := svc.Assess(context.Background(), m)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	second, err := svc.Assess(context.Background(), m)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical mark against unchanged corpus must yield identical report")
	}
}

func TestAssessHeatmapFailureNonFatal(t *testing.T) {
	svc := newService(t, Deps{
		Heatmap: func(data []byte) (string, error) {
			return "", platformerrors.New(platformerrors.KindUnknown, "heatmap.render", "boom")
		},
	})

	report, err := svc.Assess(context.Background(), mark.NewImageMark("logo.png", smallPNG(t)))
	if err != nil {
		t.Fatalf("heatmap failure must not abort: %v", err)
	}
	if report.Heatmap != "" {
		t.Fatalf("expected empty heatmap on failure")
	}
}
