package relations

import (
	"context"

	"github.com/caseward/caseward/pkg/observability"
)

// LifecycleHooks writes the grant-on-create and revoke-on-delete tuples
// for resource lifecycle events. Hooks run after the resource write is
// durably committed, and a hook failure never rolls that write back: it is
// logged and the resource is left without granted relations, still
// protected by the owning scope filter until a repair job reconciles it.
type LifecycleHooks struct {
	store  Store
	logger *observability.Logger
}

// NewLifecycleHooks creates hooks over a tuple store.
func NewLifecycleHooks(store Store, logger *observability.Logger) *LifecycleHooks {
	return &LifecycleHooks{store: store, logger: logger}
}

// ResourceCreated grants the creator the owner relation on the new
// resource, plus any extra relations the route wants written (no relation
// implies another, so broader grants need explicit tuples).
func (h *LifecycleHooks) ResourceCreated(ctx context.Context, firmID string, ns Namespace, objectID, creatorID string, extraRelations ...string) {
	subject := Principal(creatorID)
	relationNames := append([]string{RelationOwner}, extraRelations...)

	for _, rel := range relationNames {
		if err := h.store.Grant(ctx, firmID, ns, objectID, rel, subject, nil); err != nil {
			h.logger.WithError(err).WithFields(map[string]interface{}{
				"firm_id":   firmID,
				"namespace": string(ns),
				"object_id": objectID,
				"relation":  rel,
			}).Error("grant-on-create failed; resource left without relation")
		}
	}
}

// ResourceDeleted revokes every tuple on the deleted resource.
func (h *LifecycleHooks) ResourceDeleted(ctx context.Context, firmID string, ns Namespace, objectID string) {
	if err := h.store.RevokeAllForObject(ctx, firmID, ns, objectID); err != nil {
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"firm_id":   firmID,
			"namespace": string(ns),
			"object_id": objectID,
		}).Error("revoke-on-delete failed; orphaned tuples remain")
	}
}
