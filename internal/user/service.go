package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-registration/internal/identity"
	"github.com/ovaphlow/pitchfork/service-registration/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-registration/internal/user/repo"
)

// maxNameLen matches the VARCHAR(50) name columns.
const maxNameLen = 50

var (
	ErrConflict     = errors.New("user already exists")
	ErrNotFound     = errors.New("user does not exist")
	ErrInvalidGroup = errors.New("group is not valid")
)

// ValidationError is a missing or malformed request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: "is required"}
	}
	return nil
}

type Config struct {
	EnforceGroups bool `env:"REGISTRATION_ENFORCE_GROUPS" envDefault:"true"`
}

// Service registers and looks up profiles for verified identities.
type Service struct {
	repo     userrepo.Repository
	verifier identity.Verifier
	cfg      Config
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewService(r userrepo.Repository, v identity.Verifier, cfg Config, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{repo: r, verifier: v, cfg: cfg, logger: logger, now: time.Now}
}

// CreateInput carries client-supplied signup fields. Subject and email are
// never taken from the client.
type CreateInput struct {
	Token     string
	FirstName string
	LastName  string
	Group     string
}

func (in CreateInput) validate() error {
	for _, f := range []struct{ name, value string }{
		{"token", in.Token},
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"group", in.Group},
	} {
		if err := required(f.name, f.value); err != nil {
			return err
		}
	}
	if utf8.RuneCountInString(in.FirstName) > maxNameLen {
		return &ValidationError{Field: "first_name", Reason: fmt.Sprintf("must be at most %d characters", maxNameLen)}
	}
	if utf8.RuneCountInString(in.LastName) > maxNameLen {
		return &ValidationError{Field: "last_name", Reason: fmt.Sprintf("must be at most %d characters", maxNameLen)}
	}
	return nil
}

// Create verifies the token and stores a new profile for its subject.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Profile, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Group = strings.TrimSpace(in.Group)
	if err := in.validate(); err != nil {
		return nil, err
	}

	id, err := s.verifier.Verify(ctx, strings.TrimSpace(in.Token))
	if err != nil {
		return nil, err
	}

	_, err = s.repo.Get(ctx, id.Subject)
	switch {
	case err == nil:
		return nil, ErrConflict
	case !errors.Is(err, userrepo.ErrNotFound):
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if s.cfg.EnforceGroups && !IsValidGroup(in.Group) {
		return nil, ErrInvalidGroup
	}

	p := &entity.Profile{
		SubjectID: id.Subject,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     id.Email,
		Group:     in.Group,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		if errors.Is(err, userrepo.ErrDuplicate) {
			// lost a race with a concurrent create for the same subject
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	s.logger.Infow("user registered", "subject_id", p.SubjectID, "group", p.Group)
	return p, nil
}

// Get returns the stored profile of the token's subject.
func (s *Service) Get(ctx context.Context, token string) (*entity.Profile, error) {
	if err := required("token", token); err != nil {
		return nil, err
	}
	id, err := s.verifier.Verify(ctx, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	p, err := s.repo.Get(ctx, id.Subject)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return p, nil
}
