package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"github.com/Kobaiko/carbculator/metrics"
	"github.com/Kobaiko/carbculator/models"
	"github.com/Kobaiko/carbculator/nutrition"
)

// MaxImageBytes caps uploaded meal photos.
const MaxImageBytes = 8 << 20

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/heic", "image/heif"}

type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, image []byte, contentType, hint string) (*MealAnalysis, error)
}

type FoodDetector interface {
	IsFood(ctx context.Context, image []byte) (bool, []string, error)
}

type ImageUploader interface {
	Upload(ctx context.Context, prefix string, data []byte, contentType string) (string, error)
}

type entryRecorder interface {
	Preview(ctx context.Context, userID uint, in FoodEntryInput) (*models.FoodEntry, []nutrition.Warning, error)
	Create(ctx context.Context, userID uint, in FoodEntryInput) (*models.FoodEntry, []nutrition.Warning, error)
}

type AnalysisService struct {
	vision   ImageAnalyzer
	detector FoodDetector
	store    ImageUploader
	cache    AnalysisCache
	entries  entryRecorder
	log      *logrus.Entry
}

type AnalysisOption func(*AnalysisService)

func WithFoodDetector(d FoodDetector) AnalysisOption {
	return func(s *AnalysisService) { s.detector = d }
}
func WithImageUploader(u ImageUploader) AnalysisOption {
	return func(s *AnalysisService) { s.store = u }
}
func WithAnalysisCache(c AnalysisCache) AnalysisOption {
	return func(s *AnalysisService) { s.cache = c }
}

func NewAnalysisService(vision ImageAnalyzer, entries entryRecorder, log *logrus.Logger, opts ...AnalysisOption) *AnalysisService {
	s := &AnalysisService{vision: vision, entries: entries, log: log.WithField("component", "analysis")}
	for _, o := range opts {
		o(s)
	}
	return s
}

type AnalyzeRequest struct {
	UserID   uint
	Image    []byte
	MealType string
	EatenAt  *time.Time
	Save     bool
}

type AnalyzeResult struct {
	Analysis *MealAnalysis       `json:"analysis"`
	ImageURL string              `json:"image_url,omitempty"`
	Cached   bool                `json:"cached"`
	Warnings []nutrition.Warning `json:"warnings"`
	Flagged  bool                `json:"flagged"`
	MealType string              `json:"meal_type"`
	Entry    *models.FoodEntry   `json:"entry,omitempty"`
}

// SniffImage checks size and content type of an uploaded photo.
func SniffImage(image []byte) (string, error) {
	if len(image) == 0 {
		return "", invalidf("image is required")
	}
	if len(image) > MaxImageBytes {
		return "", ErrImageTooLarge
	}
	mt := mimetype.Detect(image)
	for _, t := range allowedImageTypes {
		if mt.Is(t) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w (got %s)", ErrUnsupportedImage, mt.String())
}

func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (res *AnalyzeResult, err error) {
	start := time.Now()
	defer func() { metrics.RecordAnalysis(analysisOutcome(err), time.Since(start)) }()

	log := s.log.WithField("user_id", req.UserID)

	contentType, err := SniffImage(req.Image)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(req.Image)
	hash := hex.EncodeToString(sum[:])

	res = &AnalyzeResult{}
	if s.cache != nil {
		res.Analysis, res.Cached = s.cache.Get(ctx, hash)
		metrics.RecordCacheLookup(res.Cached)
	}

	if !res.Cached {
		if s.detector != nil {
			ok, labels, derr := s.detector.IsFood(ctx, req.Image)
			switch {
			case derr != nil:
				log.WithError(derr).Warn("food pre-check failed, continuing")
			case !ok:
				log.WithField("labels", labels).Info("image rejected by food pre-check")
				return nil, ErrNotFood
			}
		}

		hint := ""
		if req.MealType != "" {
			hint = "this is a " + req.MealType
		}
		res.Analysis, err = s.vision.AnalyzeImage(ctx, req.Image, contentType, hint)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cache.Set(ctx, hash, res.Analysis)
		}
	}

	if s.store != nil {
		url, uerr := s.store.Upload(ctx, fmt.Sprintf("meals/%d", req.UserID), req.Image, contentType)
		if uerr != nil {
			log.WithError(uerr).Warn("meal photo upload failed")
		}
		res.ImageURL = url
	}

	in := entryInput(res.Analysis, req, res.ImageURL)
	if req.Save {
		res.Entry, res.Warnings, err = s.entries.Create(ctx, req.UserID, in)
		if err != nil {
			return nil, err
		}
		res.MealType = res.Entry.MealType
	} else {
		draft, ws, perr := s.entries.Preview(ctx, req.UserID, in)
		if perr != nil {
			return nil, perr
		}
		res.MealType, res.Warnings = draft.MealType, ws
	}
	if res.Warnings == nil {
		res.Warnings = []nutrition.Warning{}
	}
	res.Flagged = nutrition.Flagged(res.Warnings)

	log.WithFields(logrus.Fields{
		"cached":   res.Cached,
		"saved":    req.Save,
		"calories": res.Analysis.Calories,
	}).Info("meal analyzed")
	return res, nil
}

func entryInput(a *MealAnalysis, req AnalyzeRequest, imageURL string) FoodEntryInput {
	return FoodEntryInput{
		Name:        a.FoodName,
		Description: a.Description,
		MealType:    req.MealType,
		EatenAt:     req.EatenAt,
		Calories:    a.Calories,
		Protein:     a.Protein,
		Carbs:       a.Carbs,
		Fat:         a.Fat,
		Fiber:       a.Fiber,
		Sugar:       a.Sugar,
		Sodium:      a.Sodium,
		ImageURL:    imageURL,
		Source:      models.SourceAI,
		Confidence:  a.Confidence,
	}
}

func analysisOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFood), errors.Is(err, ErrNoFoodDetected):
		return "not_food"
	case errors.Is(err, ErrImageTooLarge), errors.Is(err, ErrUnsupportedImage), errors.Is(err, ErrInvalidInput):
		return "rejected"
	case errors.Is(err, ErrVisionUnavailable):
		return "vision_error"
	default:
		return "error"
	}
}
