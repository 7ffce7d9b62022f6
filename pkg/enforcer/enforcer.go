// Package enforcer is the decision point: every guarded route funnels
// through Enforce, which evaluates the ordered policy checks and returns a
// single Decision. Checks short-circuit on the first definitive outcome,
// so the reason code always names the rule that decided the call.
package enforcer

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/caseward/caseward/pkg/audit"
	"github.com/caseward/caseward/pkg/authz"
	"github.com/caseward/caseward/pkg/contextkeys"
	"github.com/caseward/caseward/pkg/observability"
	"github.com/caseward/caseward/pkg/relations"
	"github.com/caseward/caseward/pkg/resolver"
)

// Reason codes returned in Decision.ReasonCode and echoed to clients on
// denial. Allow codes name the rule that granted; deny codes name the rule
// that refused.
const (
	ReasonAdminBypass          = "ADMIN_BYPASS"
	ReasonDepartedReadOnly     = "DEPARTED_READ_ONLY"
	ReasonRoleBypass           = "ROLE_BYPASS"
	ReasonPermissionDenied     = "PERMISSION_DENIED"
	ReasonRelationNotFound     = "RELATION_NOT_FOUND"
	ReasonPolicyPass           = "POLICY_PASS"
	ReasonMissingTenantContext = "MISSING_TENANT_CONTEXT"
	ReasonTenantMismatch       = "TENANT_MISMATCH"
	ReasonRelationUnavailable  = "RELATION_UNAVAILABLE"
)

// Decision is the outcome of a single enforcement call.
type Decision struct {
	Allowed        bool
	ReasonCode     string
	EvaluationTime time.Duration
}

// Resource identifies what the request acts on.
type Resource struct {
	Namespace string
	ID        string
}

// Request describes one enforcement question.
type Request struct {
	Resource Resource

	// Action is the route action name, recorded in the decision log.
	Action string

	// Level is the module level the action needs. Levels above view are
	// state-changing and are refused outright for departed members.
	Level authz.Level

	// Relations, when non-empty, additionally requires the subject to
	// hold at least one of the named relations on the resource.
	Relations []string

	// Grant, when set, additionally requires the special grant.
	Grant authz.Grant

	// SkipAudit suppresses decision recording for this call. Reserved
	// for high-volume read paths; denials are recorded regardless.
	SkipAudit bool
}

// Enforcer evaluates requests against a resolved authorization context.
type Enforcer struct {
	relations *relations.Evaluator
	recorder  audit.Recorder
	logger    *observability.Logger
	metrics   *observability.Metrics

	// sampleRate is the fraction of allowed decisions recorded. Denials
	// are always recorded.
	sampleRate float64
}

// Option configures an Enforcer.
type Option func(*Enforcer)

// WithRelations wires the relation evaluator. Without it, requests that
// name relations deny with RELATION_NOT_FOUND.
func WithRelations(eval *relations.Evaluator) Option {
	return func(e *Enforcer) { e.relations = eval }
}

// WithRecorder wires the decision audit sink.
func WithRecorder(rec audit.Recorder) Option {
	return func(e *Enforcer) { e.recorder = rec }
}

// WithSampleRate sets the fraction of allowed decisions recorded, in
// [0, 1]. Defaults to 1 (record everything).
func WithSampleRate(rate float64) Option {
	return func(e *Enforcer) { e.sampleRate = rate }
}

// WithMetrics wires Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Enforcer) { e.metrics = m }
}

// New creates an Enforcer.
func New(logger *observability.Logger, opts ...Option) *Enforcer {
	e := &Enforcer{
		recorder:   audit.NopRecorder{},
		logger:     logger,
		sampleRate: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enforce evaluates the ordered policy checks for the subject against the
// request and returns the decision. The tenant id names the firm the route
// believes it is operating in; a subject resolved into a different firm
// denies with TENANT_MISMATCH (callers map that to 404, never 403).
func (e *Enforcer) Enforce(ctx context.Context, subject *resolver.AuthorizationContext, tenantID string, req Request) Decision {
	start := time.Now()
	decision := e.evaluate(ctx, subject, tenantID, req)
	decision.EvaluationTime = time.Since(start)

	if e.metrics != nil {
		allowed := "false"
		if decision.Allowed {
			allowed = "true"
		}
		e.metrics.DecisionsTotal.WithLabelValues(allowed, decision.ReasonCode).Inc()
		e.metrics.DecisionDuration.WithLabelValues(decision.ReasonCode).Observe(decision.EvaluationTime.Seconds())
	}

	e.record(ctx, subject, tenantID, req, decision)
	return decision
}

func (e *Enforcer) evaluate(ctx context.Context, subject *resolver.AuthorizationContext, tenantID string, req Request) Decision {
	if subject.Mode == resolver.ModeAdmin {
		return Decision{Allowed: true, ReasonCode: ReasonAdminBypass}
	}

	// Tenant-scoped modes must agree with the route's tenant before any
	// permission is consulted.
	switch subject.Mode {
	case resolver.ModeMember, resolver.ModeDeparted:
		if tenantID == "" {
			return Decision{ReasonCode: ReasonMissingTenantContext}
		}
		if subject.Scope.FirmID() != tenantID {
			return Decision{ReasonCode: ReasonTenantMismatch}
		}
	}

	if subject.Mode == resolver.ModeDeparted && req.Level > authz.LevelView {
		return Decision{ReasonCode: ReasonDepartedReadOnly}
	}

	if subject.BypassesModules() {
		return Decision{Allowed: true, ReasonCode: ReasonRoleBypass}
	}

	module := authz.Module(req.Resource.Namespace)
	if !authz.Evaluate(subject.Permissions, module, req.Level) {
		return Decision{ReasonCode: ReasonPermissionDenied}
	}
	if req.Grant != "" && !authz.EvaluateSpecial(subject.Permissions, req.Grant) {
		return Decision{ReasonCode: ReasonPermissionDenied}
	}

	if len(req.Relations) > 0 {
		if e.relations == nil {
			return Decision{ReasonCode: ReasonRelationNotFound}
		}
		ok, err := e.relations.CheckAny(ctx,
			tenantID,
			relations.Namespace(req.Resource.Namespace),
			req.Resource.ID,
			req.Relations,
			relations.Principal(subject.PrincipalID),
		)
		if err != nil {
			// A tuple-store failure denies; an authorization grant is
			// never assumed.
			e.logger.WithError(err).WithFields(map[string]interface{}{
				"namespace": req.Resource.Namespace,
				"object_id": req.Resource.ID,
			}).Error("relation check failed; denying")
			return Decision{ReasonCode: ReasonRelationUnavailable}
		}
		if !ok {
			return Decision{ReasonCode: ReasonRelationNotFound}
		}
	}

	return Decision{Allowed: true, ReasonCode: ReasonPolicyPass}
}

// record writes the decision to the audit sink, best effort. Recorder
// failures are logged and never affect the decision already made.
func (e *Enforcer) record(ctx context.Context, subject *resolver.AuthorizationContext, tenantID string, req Request, decision Decision) {
	if decision.Allowed && req.SkipAudit {
		return
	}
	if decision.Allowed && e.sampleRate < 1 && rand.Float64() >= e.sampleRate {
		return
	}

	rec := &audit.PolicyDecision{
		ID:                uuid.New().String(),
		Timestamp:         time.Now().UTC(),
		PrincipalID:       subject.PrincipalID,
		Mode:              subject.Mode.String(),
		FirmID:            tenantID,
		ResourceNamespace: req.Resource.Namespace,
		ResourceID:        req.Resource.ID,
		Action:            req.Action,
		Allowed:           decision.Allowed,
		ReasonCode:        decision.ReasonCode,
		RequestID:         contextkeys.GetRequestID(ctx),
		EvalTime:          decision.EvaluationTime,
	}
	if err := e.recorder.Record(ctx, rec); err != nil {
		if e.metrics != nil {
			e.metrics.DecisionRecordFailures.Inc()
		}
		e.logger.WithError(err).Warn("decision record failed")
		return
	}
	if e.metrics != nil {
		e.metrics.DecisionRecordsTotal.Inc()
	}
}
