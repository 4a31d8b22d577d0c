package service

import (
	"fmt"

	apperrors "github.com/glushul/SmartGuysSmartGirls/internal/pkg/errors"
)

// validationError оборачивает ErrValidation сообщением для клиента
func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), apperrors.ErrValidation)
}
