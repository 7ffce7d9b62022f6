package relations

import "time"

// Namespace groups a kind of resource ("cases", "documents"). Relation
// names are firm- and namespace-specific strings; the evaluator never
// interprets them beyond exact match.
type Namespace string

const (
	NamespaceCases     Namespace = "cases"
	NamespaceDocuments Namespace = "documents"
	NamespaceInvoices  Namespace = "invoices"
)

// Common relation names written by resource-lifecycle hooks. Nothing here
// implies a hierarchy: "owner" does not satisfy a check for "viewer".
const (
	RelationOwner  = "owner"
	RelationEditor = "editor"
	RelationViewer = "viewer"
)

// SubjectNamespacePrincipal is the subject namespace for user principals.
const SubjectNamespacePrincipal = "principals"

// Subject identifies who holds a relation.
type Subject struct {
	Namespace string `json:"namespace"`
	ID        string `json:"id"`
}

// Principal returns a subject in the principal namespace.
func Principal(id string) Subject {
	return Subject{Namespace: SubjectNamespacePrincipal, ID: id}
}

// String returns the canonical "namespace:id" form.
func (s Subject) String() string {
	return s.Namespace + ":" + s.ID
}

// Tuple is a stored fact: within firm FirmID, subject Subject holds
// Relation on the object (Namespace, ObjectID). Tuples are opaque facts
// scoped structurally by firm; a tuple written under one firm can never
// satisfy a check issued under another.
type Tuple struct {
	FirmID    string            `json:"firm_id"`
	Namespace Namespace         `json:"namespace"`
	ObjectID  string            `json:"object_id"`
	Relation  string            `json:"relation"`
	Subject   Subject           `json:"subject"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
