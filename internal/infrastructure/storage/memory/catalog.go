package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/entity"
	"tillbook/internal/core/id"
	"tillbook/internal/domain"
)

// catalogEntity constrains T to pointer types embedding entity.Catalog.
type catalogEntity[E any] interface {
	*E
	entity.Validatable
	GetID() id.ID
	GetCode() string
	GetName() string
	GetVersion() int
	SetVersion(int)
	IsDeleted() bool
	MarkDeleted()
}

// CatalogRepo is a generic in-memory catalog repository with its own lock.
type CatalogRepo[E any, PE catalogEntity[E]] struct {
	mu         sync.RWMutex
	byID       map[id.ID]*E
	codeIdx    map[string]id.ID
	entityName string
}

// NewCatalogRepo creates an empty catalog repository.
func NewCatalogRepo[E any, PE catalogEntity[E]](entityName string) *CatalogRepo[E, PE] {
	return &CatalogRepo[E, PE]{
		byID:       make(map[id.ID]*E),
		codeIdx:    make(map[string]id.ID),
		entityName: entityName,
	}
}

func (r *CatalogRepo[E, PE]) Create(ctx context.Context, e PE) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.codeIdx[e.GetCode()]; exists {
		return apperror.NewDuplicate(r.entityName, "code", e.GetCode())
	}
	if _, exists := r.byID[e.GetID()]; exists {
		return apperror.NewConflict(r.entityName + " already exists")
	}

	cp := *(*E)(e)
	r.byID[e.GetID()] = &cp
	r.codeIdx[e.GetCode()] = e.GetID()
	return nil
}

func (r *CatalogRepo[E, PE]) GetByID(ctx context.Context, entityID id.ID) (PE, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[entityID]
	if !ok {
		var zero PE
		return zero, apperror.NewNotFound(r.entityName, entityID)
	}
	cp := *stored
	return PE(&cp), nil
}

func (r *CatalogRepo[E, PE]) GetByCode(ctx context.Context, code string) (PE, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entityID, ok := r.codeIdx[code]
	if !ok {
		var zero PE
		return zero, apperror.NewNotFound(r.entityName, code)
	}
	cp := *r.byID[entityID]
	return PE(&cp), nil
}

func (r *CatalogRepo[E, PE]) Update(ctx context.Context, e PE) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[e.GetID()]
	if !ok {
		return apperror.NewNotFound(r.entityName, e.GetID())
	}
	cur := PE(stored)
	if cur.GetVersion() != e.GetVersion() {
		return apperror.NewConcurrentModification(r.entityName, e.GetID())
	}
	if cur.GetCode() != e.GetCode() {
		if otherID, exists := r.codeIdx[e.GetCode()]; exists && otherID != e.GetID() {
			return apperror.NewDuplicate(r.entityName, "code", e.GetCode())
		}
		delete(r.codeIdx, cur.GetCode())
		r.codeIdx[e.GetCode()] = e.GetID()
	}

	e.SetVersion(e.GetVersion() + 1)
	cp := *(*E)(e)
	r.byID[e.GetID()] = &cp
	return nil
}

func (r *CatalogRepo[E, PE]) Delete(ctx context.Context, entityID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[entityID]
	if !ok {
		return apperror.NewNotFound(r.entityName, entityID)
	}
	cp := *stored
	pe := PE(&cp)
	pe.MarkDeleted()
	pe.SetVersion(pe.GetVersion() + 1)
	r.byID[entityID] = &cp
	return nil
}

func (r *CatalogRepo[E, PE]) List(ctx context.Context, filter domain.CatalogFilter) (domain.ListResult[PE], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	var matched []PE
	for _, stored := range r.byID {
		cp := *stored
		pe := PE(&cp)
		if pe.IsDeleted() && !filter.IncludeDeleted {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(pe.GetCode()), search) &&
			!strings.Contains(strings.ToLower(pe.GetName()), search) {
			continue
		}
		matched = append(matched, pe)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "name"
	}
	desc := strings.HasPrefix(orderBy, "-")
	field := strings.TrimPrefix(orderBy, "-")
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if desc {
			a, b = b, a
		}
		if field == "code" {
			return a.GetCode() < b.GetCode()
		}
		return a.GetName() < b.GetName()
	})

	total := int64(len(matched))
	limit := domain.ClampLimit(filter.Limit, 50, 500)
	matched = paginate(matched, filter.Offset, limit)

	return domain.ListResult[PE]{
		Items:      matched,
		TotalCount: total,
		Limit:      limit,
		Offset:     filter.Offset,
	}, nil
}

func (r *CatalogRepo[E, PE]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[entityID]
	if !ok {
		return false, nil
	}
	return !PE(stored).IsDeleted(), nil
}

func (r *CatalogRepo[E, PE]) ExistsByCode(ctx context.Context, code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entityID, ok := r.codeIdx[code]
	if !ok {
		return false, nil
	}
	return !PE(r.byID[entityID]).IsDeleted(), nil
}
