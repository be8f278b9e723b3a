package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Ошибки конфигурации
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")

	// Ошибки индекса и артефактов
	ErrIndexInconsistent   = fmt.Errorf("index artifacts are inconsistent")
	ErrArtifactCorrupted   = fmt.Errorf("artifact is corrupted")
	ErrNoGeneration        = fmt.Errorf("no index generation published")
	ErrDimensionMismatch   = fmt.Errorf("embedding dimension mismatch")
	ErrSlotOutOfOrder      = fmt.Errorf("slot must be appended sequentially")
	ErrInvalidHash         = fmt.Errorf("invalid perceptual hash")
	ErrUnsupportedBackend  = fmt.Errorf("unsupported index backend")
	ErrNoImagesIndexed     = fmt.Errorf("no images were indexed")
	ErrEmptyVectors        = fmt.Errorf("empty vectors")
	ErrUnsupportedDatabase = fmt.Errorf("unsupported catalog driver")

	// 400 Bad Request
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")
	ErrMissingFile          = fmt.Errorf("image file is required")
	ErrUndecodableImage     = fmt.Errorf("image could not be decoded")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")

	// 413 Request Entity Too Large
	ErrImageTooLarge = fmt.Errorf("image exceeds size limit")

	// 503 Service Unavailable
	ErrServiceNotReady    = fmt.Errorf("search index is not loaded")
	ErrEncoderUnavailable = fmt.Errorf("embedding encoder is unavailable")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")

	// Ошибки загрузки изображений каталога
	ErrDownloadFailed = fmt.Errorf("image download failed")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
