package canonical

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	materialrepos "github.com/yungbote/neurobridge-backend/internal/data/repos/materials"
)

// repoOntology adapts the relational ontology repo to the Ontology lookup
// surface the canonicalizer consumes.
type repoOntology struct {
	db   *gorm.DB
	repo materialrepos.OntologyRepo
}

func NewRepoOntology(db *gorm.DB, repo materialrepos.OntologyRepo) Ontology {
	return &repoOntology{db: db, repo: repo}
}

func (o *repoOntology) Lookup(ctx context.Context, tenantID uuid.UUID, normalized, typeHint string) (*OntologyHit, error) {
	alias, err := o.repo.LookupAlias(ctx, o.db, tenantID, normalized, typeHint)
	if err != nil {
		return nil, err
	}
	if alias == nil {
		return nil, nil
	}
	entity, err := o.repo.GetEntityByEntityID(ctx, o.db, tenantID, alias.EntityID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, fmt.Errorf("ontology alias %q points at missing entity %q", normalized, alias.EntityID)
	}
	return &OntologyHit{
		CanonicalID:   entity.EntityID,
		CanonicalName: entity.CanonicalName,
		EntityType:    entity.EntityType,
	}, nil
}
