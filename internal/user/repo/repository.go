package repo

import (
	"context"
	"errors"

	"github.com/ovaphlow/pitchfork/service-registration/internal/user/entity"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user already exists")
)

// Repository persists profiles keyed by subject id. Implementations must
// reject a second Insert for the same subject with ErrDuplicate at the storage
// layer, not by a prior read.
type Repository interface {
	Get(ctx context.Context, subjectID string) (*entity.Profile, error)
	Insert(ctx context.Context, p *entity.Profile) error
}
