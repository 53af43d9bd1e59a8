package domain

// ClassificationResult is the verdict of one classifier invocation.
// When Success is true, Predictions and Confidences have equal length.
type ClassificationResult struct {
	Success     bool        `json:"success"`
	Predictions []string    `json:"predictions"`
	Confidences []float64   `json:"confidences"`
	Error       string      `json:"error,omitempty"`
	Kind        FailureKind `json:"-"`
}

// Err returns nil on success, otherwise a *ClassificationError
func (r ClassificationResult) Err() error {
	if r.Success {
		return nil
	}
	return &ClassificationError{Kind: r.Kind, Detail: r.Error}
}

// PredictionMode selects the response shape of an image prediction
type PredictionMode string

const (
	ModePhoto  PredictionMode = "photo"
	ModeCamera PredictionMode = "camera"
)

// TextRequest is the body of a text-to-signs request
type TextRequest struct {
	Word string `json:"word" validate:"required"`
}

// SignSequence maps a word onto sign images, one per character
type SignSequence struct {
	Word    string   `json:"word"`
	Letters []string `json:"letters"`
	Images  []string `json:"images"`
}

// PhotoPrediction is the full verdict returned for photo mode
type PhotoPrediction struct {
	PredictedLetters []string  `json:"predicted_letters"`
	Confidences      []float64 `json:"confidences"`
}

// CameraPrediction is the single-letter verdict returned for camera mode.
// Letter is nil when the classifier produced no prediction.
type CameraPrediction struct {
	Letter     *string `json:"letter"`
	Confidence float64 `json:"confidence"`
}
