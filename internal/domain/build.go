package domain

import "time"

// BuildStatus: статус сборки индекса.
type BuildStatus string

const (
	BuildRunning   BuildStatus = "running"
	BuildSucceeded BuildStatus = "succeeded"
	BuildFailed    BuildStatus = "failed"
)

// SkippedImage: изображение, не попавшее в индекс.
type SkippedImage struct {
	ProductURL string
	ImageURL   string
	Reason     string
}

// BuildReport описывает результат одной сборки.
type BuildReport struct {
	Generation    string
	Status        BuildStatus
	Products      int
	ImagesTotal   int
	ImagesIndexed int
	Skipped       []SkippedImage
	StartedAt     time.Time
	FinishedAt    time.Time
	Error         string
}

func NewBuildReport(generation string, startedAt time.Time) *BuildReport {
	return &BuildReport{
		Generation: generation,
		Status:     BuildRunning,
		StartedAt:  startedAt,
	}
}

func (r *BuildReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Manifest описывает опубликованное поколение артефактов.
type Manifest struct {
	Generation   string            `json:"generation"`
	BuiltAt      time.Time         `json:"built_at"`
	Images       int               `json:"images"`
	Products     int               `json:"products"`
	Dimension    int               `json:"dimension"`
	HashBits     int               `json:"hash_bits"`
	ModelVersion string            `json:"model_version"`
	Checksums    map[string]string `json:"checksums"`
}

// IndexPublishedEvent отправляется в Kafka после публикации нового поколения.
type IndexPublishedEvent struct {
	EventID    string    `json:"event_id"`
	Generation string    `json:"generation"`
	Images     int       `json:"images"`
	Remote     bool      `json:"remote"`
	CreatedAt  time.Time `json:"created_at"`
}
