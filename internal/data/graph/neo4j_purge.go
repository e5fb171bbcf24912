package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
	"github.com/yungbote/neurobridge-backend/internal/platform/neo4jdb"
)

// purgePreservedLabels survive every tenant purge: the ontology catalog
// and domain profiles are configuration, not derived state, and deleting
// them would destroy the canonicalization fast path.
var purgePreservedLabels = map[string]struct{}{
	"OntologyEntity":       {},
	"OntologyAlias":        {},
	"DomainContextProfile": {},
}

const purgeBatchSize = 1000

// PurgePreserved reports whether a label survives every tenant purge.
func PurgePreserved(label string) bool {
	_, ok := purgePreservedLabels[label]
	return ok
}

// purgeableLabels filters the requested labels down to the deletable set,
// logging each preserved skip.
func purgeableLabels(log *logger.Logger, tenantID uuid.UUID, labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if PurgePreserved(label) {
			if log != nil {
				log.Warn("purge skipped preserved label", "label", label, "tenant_id", tenantID)
			}
			continue
		}
		out = append(out, label)
	}
	return out
}

// PurgeTenant deletes a tenant's derived graph nodes label by label,
// batched, skipping the preserved configuration labels. Returns the total
// nodes removed.
func PurgeTenant(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, tenantID uuid.UUID, labels []string) (int, error) {
	if tenantID == uuid.Nil {
		return 0, fmt.Errorf("graph purge: missing tenant id")
	}
	if client == nil || client.Driver == nil {
		return 0, nil
	}

	total := 0
	for _, label := range purgeableLabels(log, tenantID, labels) {
		n, err := purgeLabel(ctx, client, tenantID, label)
		if err != nil {
			return total, fmt.Errorf("graph purge: label %s: %w", label, err)
		}
		total += n
	}
	return total, nil
}

func purgeLabel(ctx context.Context, client *neo4jdb.Client, tenantID uuid.UUID, label string) (int, error) {
	total := 0
	for {
		session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
			AccessMode:   neo4j.AccessModeWrite,
			DatabaseName: client.Database,
		})
		deleted, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, fmt.Sprintf(`
MATCH (n:%s {tenant_id: $tenant_id})
WITH n LIMIT $batch
DETACH DELETE n
RETURN count(*) AS deleted
`, label), map[string]any{"tenant_id": tenantID.String(), "batch": purgeBatchSize})
			if err != nil {
				return 0, err
			}
			rec, err := res.Single(ctx)
			if err != nil {
				return 0, err
			}
			v, _ := rec.Get("deleted")
			n, _ := v.(int64)
			return int(n), nil
		})
		closeErr := session.Close(ctx)
		if err != nil {
			return total, err
		}
		if closeErr != nil {
			return total, closeErr
		}
		n := deleted.(int)
		total += n
		if n < purgeBatchSize {
			return total, nil
		}
	}
}
