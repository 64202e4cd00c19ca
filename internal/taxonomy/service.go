package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sugicreations/sugi-backend/pkg/db"
	pkgerrors "github.com/sugicreations/sugi-backend/pkg/errors"
)

const maxNameLength = 100

// Service exposes catalog reads and admin writes for one Kind.
type Service interface {
	List(ctx context.Context) ([]TermSummary, error)
	Get(ctx context.Context, id uuid.UUID) (*Term, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, name string) (*Term, error)
	Rename(ctx context.Context, id uuid.UUID, name string) (*Term, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
	kind Kind
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("taxonomy repository required")
	}
	return &service{repo: repo, kind: repo.kind}, nil
}

func (s *service) List(ctx context.Context) ([]TermSummary, error) {
	rows, err := s.repo.ListWithCounts(ctx)
	if err != nil {
		return nil, pkgerrors.Storage(err, "list "+s.kind.Table)
	}
	if rows == nil {
		rows = []TermSummary{}
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Term, error) {
	term, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, s.notFound()
	}
	if err != nil {
		return nil, pkgerrors.Storage(err, "load "+s.kind.Label)
	}
	return term, nil
}

func (s *service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, pkgerrors.Storage(err, "load "+s.kind.Label)
	}
	return true, nil
}

func (s *service) Create(ctx context.Context, name string) (*Term, error) {
	name, err := s.normalizeName(name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}

	term := &Term{Name: name}
	if err := s.repo.Create(ctx, term); err != nil {
		if db.IsUniqueViolation(err, s.kind.UniqueIndex) {
			return nil, s.duplicate(name)
		}
		return nil, pkgerrors.Storage(err, "create "+s.kind.Label)
	}
	return term, nil
}

func (s *service) Rename(ctx context.Context, id uuid.UUID, name string) (*Term, error) {
	name, err := s.normalizeName(name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, id); err != nil {
		return nil, err
	}

	affected, err := s.repo.Rename(ctx, id, name)
	if err != nil {
		if db.IsUniqueViolation(err, s.kind.UniqueIndex) {
			return nil, s.duplicate(name)
		}
		return nil, pkgerrors.Storage(err, "rename "+s.kind.Label)
	}
	if affected == 0 {
		return nil, s.notFound()
	}
	return s.Get(ctx, id)
}

// Delete refuses to remove a term that products still reference.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	count, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return pkgerrors.Storage(err, "count products")
	}
	if count > 0 {
		return s.inUse(id, count)
	}

	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return s.inUse(id, count)
		}
		return pkgerrors.Storage(err, "delete "+s.kind.Label)
	}
	if affected == 0 {
		return s.notFound()
	}
	return nil
}

func (s *service) normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, s.kind.Label+" name is required").
			WithDetails(map[string]string{"name": "required"})
	}
	if len([]rune(name)) > maxNameLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s name must be at most %d characters", s.kind.Label, maxNameLength)).
			WithDetails(map[string]string{"name": "max"})
	}
	return name, nil
}

func (s *service) ensureNameFree(ctx context.Context, name string, self uuid.UUID) error {
	existing, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return pkgerrors.Storage(err, "lookup "+s.kind.Label)
	}
	if existing != nil && existing.ID != self {
		return s.duplicate(name)
	}
	return nil
}

func (s *service) notFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, s.kind.Label+" not found")
}

func (s *service) duplicate(name string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("%s %q already exists", s.kind.Label, name))
}

func (s *service) inUse(id uuid.UUID, count int64) error {
	return pkgerrors.New(pkgerrors.CodeConflict, s.kind.Label+" is used by existing products").
		WithDetails(map[string]any{s.kind.Label + "_id": id, "product_count": count})
}
