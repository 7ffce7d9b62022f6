package relations

import "context"

// Evaluator answers relation questions for the decision point. It does not
// interpret relation names: a check for "viewer" is satisfied only by a
// "viewer" tuple. Routes that accept several relations use CheckAny.
type Evaluator struct {
	store Store
}

// NewEvaluator creates an evaluator over a tuple store.
func NewEvaluator(store Store) *Evaluator {
	return &Evaluator{store: store}
}

// Check reports whether the subject holds the relation on the object
// within the firm.
func (e *Evaluator) Check(ctx context.Context, firmID string, ns Namespace, objectID, relation string, subject Subject) (bool, error) {
	return e.store.Check(ctx, firmID, ns, objectID, relation, subject)
}

// CheckAny reports whether the subject holds any of the given relations on
// the object. Used by routes where, say, owner or editor both qualify,
// since no relation implies another.
func (e *Evaluator) CheckAny(ctx context.Context, firmID string, ns Namespace, objectID string, relationNames []string, subject Subject) (bool, error) {
	for _, rel := range relationNames {
		ok, err := e.store.Check(ctx, firmID, ns, objectID, rel, subject)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Expand lists the subjects holding a relation on an object within the firm.
func (e *Evaluator) Expand(ctx context.Context, firmID string, ns Namespace, objectID, relation string) ([]Subject, error) {
	return e.store.Expand(ctx, firmID, ns, objectID, relation)
}
