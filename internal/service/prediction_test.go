package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/sign-gateway/internal/domain"
)

func stageImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image-test.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG"), 0o600))
	return path
}

func success(preds []string, confs []float64) domain.ClassificationResult {
	return domain.ClassificationResult{Success: true, Predictions: preds, Confidences: confs}
}

func TestPredictionService_TextToSigns(t *testing.T) {
	svc := NewPredictionService(nil, "http://localhost:5000/")

	res, err := svc.TextToSigns("hi")
	require.NoError(t, err)
	assert.Equal(t, "HI", res.Word)
	assert.Equal(t, []string{"H", "I"}, res.Letters)
	assert.Equal(t, []string{"http://localhost:5000/signs/H.gif", "http://localhost:5000/signs/I.gif"}, res.Images)

	_, err = svc.TextToSigns("")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPredictionService_TextToSigns_Properties(t *testing.T) {
	svc := NewPredictionService(nil, "https://signs.example.com")

	words := []string{"a", "Hello", "abc123", "mixed Case", "zz", "éa"}
	for _, word := range words {
		res, err := svc.TextToSigns(word)
		require.NoError(t, err)

		assert.Len(t, res.Letters, len([]rune(word)), word)
		require.Len(t, res.Images, len(res.Letters))
		for i, letter := range res.Letters {
			assert.Equal(t, strings.ToUpper(letter), letter)
			assert.True(t, strings.HasSuffix(res.Images[i], "/signs/"+letter+".gif"), res.Images[i])
		}
	}
}

func TestPredictionService_PredictPhoto(t *testing.T) {
	ctx := context.Background()

	t.Run("success returns full sequences and deletes the image", func(t *testing.T) {
		path := stageImage(t)
		classifier := new(MockClassifier)
		classifier.On("Classify", mock.Anything, path).Return(success([]string{"B", "C"}, []float64{0.8, 0.1}))
		svc := NewPredictionService(classifier, "http://x")

		res, err := svc.PredictPhoto(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "C"}, res.PredictedLetters)
		assert.Equal(t, []float64{0.8, 0.1}, res.Confidences)
		assert.NoFileExists(t, path)
		classifier.AssertExpectations(t)
	})

	t.Run("failure carries detail and still deletes the image", func(t *testing.T) {
		path := stageImage(t)
		classifier := new(MockClassifier)
		classifier.On("Classify", mock.Anything, path).Return(domain.ClassificationResult{
			Error: "prediction timeout (>60s)",
			Kind:  domain.FailureTimeout,
		})
		svc := NewPredictionService(classifier, "http://x")

		_, err := svc.PredictPhoto(ctx, path)

		var cerr *domain.ClassificationError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, domain.FailureTimeout, cerr.Kind)
		assert.Equal(t, "prediction timeout (>60s)", cerr.Detail)
		assert.NoFileExists(t, path)
	})
}

func TestPredictionService_PredictCamera(t *testing.T) {
	ctx := context.Background()

	t.Run("first prediction only", func(t *testing.T) {
		path := stageImage(t)
		classifier := new(MockClassifier)
		classifier.On("Classify", mock.Anything, path).Return(success([]string{"B", "C"}, []float64{0.7, 0.2}))
		svc := NewPredictionService(classifier, "http://x")

		res, err := svc.PredictCamera(ctx, path)
		require.NoError(t, err)
		require.NotNil(t, res.Letter)
		assert.Equal(t, "B", *res.Letter)
		assert.Equal(t, 0.7, res.Confidence)
		assert.NoFileExists(t, path)
	})

	t.Run("empty predictions yield null letter", func(t *testing.T) {
		path := stageImage(t)
		classifier := new(MockClassifier)
		classifier.On("Classify", mock.Anything, path).Return(success([]string{}, []float64{}))
		svc := NewPredictionService(classifier, "http://x")

		res, err := svc.PredictCamera(ctx, path)
		require.NoError(t, err)
		assert.Nil(t, res.Letter)
		assert.Zero(t, res.Confidence)
	})
}

func TestPredictionService_PredictFromImage(t *testing.T) {
	ctx := context.Background()
	classifier := new(MockClassifier)
	classifier.On("Classify", mock.Anything, mock.Anything).Return(success([]string{"A"}, []float64{0.9}))
	svc := NewPredictionService(classifier, "http://x")

	photo, err := svc.PredictFromImage(ctx, stageImage(t), domain.ModePhoto)
	require.NoError(t, err)
	assert.IsType(t, &domain.PhotoPrediction{}, photo)

	camera, err := svc.PredictFromImage(ctx, stageImage(t), domain.ModeCamera)
	require.NoError(t, err)
	assert.IsType(t, &domain.CameraPrediction{}, camera)

	path := stageImage(t)
	_, err = svc.PredictFromImage(ctx, path, domain.PredictionMode("video"))
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.NoFileExists(t, path)
}

func TestPredictionService_DeletionFailureIsNotFatal(t *testing.T) {
	classifier := new(MockClassifier)
	classifier.On("Classify", mock.Anything, "/staged/image.png").Return(success([]string{"A"}, []float64{0.9}))
	svc := NewPredictionService(classifier, "http://x")
	svc.remove = func(string) error { return errors.New("read-only file system") }

	res, err := svc.PredictPhoto(context.Background(), "/staged/image.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, res.PredictedLetters)
}
