// Package notegen turns a visit transcript into a structured clinical
// record through an external text-generation model. The rest of the
// system only sees the Generator interface; any failure is treated
// uniformly as "generation failed, retry".
package notegen

import (
	"context"

	"github.com/clinote/clinote-backend/internal/models"
	"gorm.io/datatypes"
)

// Generator produces a structured clinical record from a transcript
type Generator interface {
	Generate(ctx context.Context, transcript string, visitType models.VisitType) (datatypes.JSON, error)
}
