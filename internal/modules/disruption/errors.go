package disruption

import (
	"errors"
	"fmt"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/models"
)

var (
	ErrNotFound     = errors.New("disruption not found")
	ErrForbidden    = errors.New("action not allowed for this user")
	ErrInvalidState = errors.New("action not allowed in the current state")

	ErrSocialMediaPostLimit = fmt.Errorf("max social media post limit of %d has been reached", models.MaxSocialMediaPosts)
)

// TooManyConsequencesError is returned when adding a consequence would exceed
// the per-disruption limit. Nothing is written when it is returned.
type TooManyConsequencesError struct {
	Limit int
}

func (e *TooManyConsequencesError) Error() string {
	return fmt.Sprintf("max consequence limit of %d has been reached", e.Limit)
}

// IsTooManyConsequences reports whether err is a TooManyConsequencesError.
func IsTooManyConsequences(err error) bool {
	var tm *TooManyConsequencesError
	return errors.As(err, &tm)
}
