package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/sign-gateway/internal/domain"
)

// Classifier produces a verdict for an image on disk
type Classifier interface {
	Classify(ctx context.Context, imagePath string) domain.ClassificationResult
}

// PredictionService turns words into sign image sequences and images into letters
type PredictionService struct {
	classifier Classifier
	baseURL    string
	remove     func(string) error
}

// NewPredictionService creates a prediction service. baseURL prefixes sign image links.
func NewPredictionService(classifier Classifier, baseURL string) *PredictionService {
	return &PredictionService{
		classifier: classifier,
		baseURL:    strings.TrimRight(baseURL, "/"),
		remove:     os.Remove,
	}
}

// TextToSigns maps every character of word to its sign image
func (s *PredictionService) TextToSigns(word string) (*domain.SignSequence, error) {
	if word == "" {
		return nil, domain.Validationf("Word is required and must be a string")
	}

	upper := strings.ToUpper(word)
	letters := make([]string, 0, len(upper))
	images := make([]string, 0, len(upper))
	for _, r := range upper {
		letter := string(r)
		letters = append(letters, letter)
		images = append(images, fmt.Sprintf("%s/signs/%s.gif", s.baseURL, letter))
	}

	return &domain.SignSequence{Word: upper, Letters: letters, Images: images}, nil
}

// PredictFromImage classifies a staged image and shapes the verdict for mode.
// The staged file is removed afterwards whatever the outcome.
func (s *PredictionService) PredictFromImage(ctx context.Context, imagePath string, mode domain.PredictionMode) (any, error) {
	switch mode {
	case domain.ModePhoto:
		return s.PredictPhoto(ctx, imagePath)
	case domain.ModeCamera:
		return s.PredictCamera(ctx, imagePath)
	default:
		s.discard(ctx, imagePath)
		return nil, domain.Validationf("unknown prediction mode %q", mode)
	}
}

// PredictPhoto returns every prediction with its confidence
func (s *PredictionService) PredictPhoto(ctx context.Context, imagePath string) (*domain.PhotoPrediction, error) {
	res, err := s.classify(ctx, imagePath)
	if err != nil {
		return nil, err
	}
	return &domain.PhotoPrediction{
		PredictedLetters: res.Predictions,
		Confidences:      res.Confidences,
	}, nil
}

// PredictCamera returns only the top prediction
func (s *PredictionService) PredictCamera(ctx context.Context, imagePath string) (*domain.CameraPrediction, error) {
	res, err := s.classify(ctx, imagePath)
	if err != nil {
		return nil, err
	}

	if len(res.Predictions) == 0 {
		return &domain.CameraPrediction{Letter: nil, Confidence: 0}, nil
	}

	letter := res.Predictions[0]
	var confidence float64
	if len(res.Confidences) > 0 {
		confidence = res.Confidences[0]
	}
	return &domain.CameraPrediction{Letter: &letter, Confidence: confidence}, nil
}

func (s *PredictionService) classify(ctx context.Context, imagePath string) (domain.ClassificationResult, error) {
	defer s.discard(ctx, imagePath)

	res := s.classifier.Classify(ctx, imagePath)
	if err := res.Err(); err != nil {
		log.Ctx(ctx).Warn().Str("kind", string(res.Kind)).Str("detail", res.Error).Msg("prediction failed")
		return res, err
	}
	return res, nil
}

func (s *PredictionService) discard(ctx context.Context, imagePath string) {
	if err := s.remove(imagePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Ctx(ctx).Warn().Err(err).Str("path", imagePath).Msg("could not delete staged image")
	}
}
