// Package engine implements the analysis orchestrator: the fallback chain
// over the AI providers, the deterministic escalation check, and the cache
// and offline-queue plumbing around each scan.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safebite/safebite/internal/ai"
	"github.com/safebite/safebite/internal/cache"
	"github.com/safebite/safebite/internal/matcher"
	"github.com/safebite/safebite/internal/model"
)

// ruleBasedConfidence is the fixed confidence of deterministic verdicts.
// The matcher is ground truth, not a guess.
const ruleBasedConfidence = 1.0

// Config holds the orchestrator's timeouts and cache policy.
type Config struct {
	// PrimaryTimeout and SecondaryTimeout bound each provider attempt.
	PrimaryTimeout   time.Duration
	SecondaryTimeout time.Duration
	// ChainDeadline bounds the whole run; blowing it skips any remaining
	// provider tier and goes straight to the rule-based path.
	ChainDeadline time.Duration
	// AnalysisTTL is how long an analysis stays cached.
	AnalysisTTL time.Duration
	// StrictMode is passed through to the providers.
	StrictMode bool
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		PrimaryTimeout:   3 * time.Second,
		SecondaryTimeout: 3 * time.Second,
		ChainDeadline:    8 * time.Second,
		AnalysisTTL:      cache.DefaultTTL,
		StrictMode:       true,
	}
}

// Orchestrator runs one analysis per scan. All collaborators arrive via the
// constructor; process lifetime is owned by the entry point.
type Orchestrator struct {
	primary   ai.Client
	secondary ai.Client
	matcher   *matcher.Matcher
	analyses  cache.Store[model.DietaryAnalysis]
	history   HistoryStore
	queue     Enqueuer
	logger    *slog.Logger
	cfg       Config
}

// New wires an orchestrator. primary and secondary may be nil (that tier is
// then skipped); the matcher is required since it is the terminal fallback.
func New(primary, secondary ai.Client, m *matcher.Matcher, analyses cache.Store[model.DietaryAnalysis], history HistoryStore, q Enqueuer, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		primary:   primary,
		secondary: secondary,
		matcher:   m,
		analyses:  analyses,
		history:   history,
		queue:     q,
		logger:    logger,
		cfg:       cfg,
	}
}

// Analyze produces the verdict for one (product, profile) pair. It cannot
// fail except when the context is already done on entry: every provider
// error is absorbed by the next fallback tier, cancellation mid-chain just
// skips the remaining provider attempts, and the rule-based tier has no
// failure mode.
func (o *Orchestrator) Analyze(ctx context.Context, product *model.Product, profile model.UserProfile) (model.DietaryAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return model.DietaryAnalysis{}, err
	}

	outer, cancel := context.WithTimeout(ctx, o.cfg.ChainDeadline)
	defer cancel()

	key := cache.AnalysisKey(product.Barcode, profile.Fingerprint())

	analysis, hit := o.cacheCheck(outer, key)
	if !hit {
		analysis = o.runChain(ctx, outer, product, profile)
	}

	// The matcher's verdict always gets the last word, whichever path
	// produced the result; severity can only be escalated, never lowered.
	analysis, escalated := o.escalate(product, profile, analysis)

	// Writes already issued complete even if the caller has navigated
	// away mid-scan, so caches and history stay consistent.
	writeCtx := context.WithoutCancel(ctx)
	if !hit || escalated {
		// An unchanged cache hit is not rewritten, so the entry expires
		// relative to its creation instead of sliding on every scan.
		if err := o.analyses.Put(writeCtx, key, analysis, o.cfg.AnalysisTTL); err != nil {
			o.logger.Warn("analysis cache write failed", "barcode", product.Barcode, "error", err)
		}
	}
	o.recordHistory(writeCtx, product, profile, analysis)

	return analysis, nil
}

func (o *Orchestrator) cacheCheck(ctx context.Context, key string) (model.DietaryAnalysis, bool) {
	cached, ok, err := o.analyses.Get(ctx, key)
	if err != nil {
		o.logger.Warn("analysis cache read failed, treating as miss", "error", err)
		return model.DietaryAnalysis{}, false
	}
	return cached, ok
}

// runChain tries primary, then secondary, then the rule-based tier. Each
// provider is attempted at most once per run; advancing to the next tier IS
// the retry strategy, which bounds total latency.
func (o *Orchestrator) runChain(caller, outer context.Context, product *model.Product, profile model.UserProfile) model.DietaryAnalysis {
	req := model.AnalysisRequest{
		ProductName:  product.Name,
		Ingredients:  product.Ingredients,
		Restrictions: profile.Restrictions,
		StrictMode:   o.cfg.StrictMode,
	}

	tiers := []struct {
		client  ai.Client
		timeout time.Duration
		method  model.AnalysisMethod
	}{
		{o.primary, o.cfg.PrimaryTimeout, model.MethodPrimaryAI},
		{o.secondary, o.cfg.SecondaryTimeout, model.MethodFallbackAI},
	}

	for _, tier := range tiers {
		if tier.client == nil {
			continue
		}
		if outer.Err() != nil {
			// Chain deadline blown or caller gone: no more paid calls.
			break
		}

		result, err := o.callProvider(outer, tier.client, tier.timeout, req)
		if err == nil {
			return o.fromProvider(result, tier.method, profile)
		}

		o.logger.Warn("provider tier failed, advancing",
			"provider", tier.client.Name(),
			"method", tier.method,
			"error", err)

		if caller.Err() != nil {
			// User cancelled; the rule-based tier below still answers
			// instantly and never suspends.
			break
		}
	}

	return o.ruleBased(product, profile)
}

func (o *Orchestrator) callProvider(ctx context.Context, client ai.Client, timeout time.Duration, req model.AnalysisRequest) (model.ProviderResult, error) {
	attempt, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return client.Analyze(attempt, req)
}

// fromProvider converts a validated provider result into an analysis. The
// provider names violated restriction keys; severities come from the profile
// because AI output never gets to invent severity.
func (o *Orchestrator) fromProvider(result model.ProviderResult, method model.AnalysisMethod, profile model.UserProfile) model.DietaryAnalysis {
	var violations []model.Violation
	for _, key := range result.Violations {
		severity := model.SeveritySevere
		for _, r := range profile.Restrictions {
			if strings.EqualFold(r.Key, key) {
				severity = r.Severity
				break
			}
		}
		violations = append(violations, model.Violation{
			RestrictionKey:    key,
			MatchedIngredient: "",
			Severity:          severity,
			MatchType:         model.MatchDirectIngredient,
		})
	}

	level := model.ComplianceSafe
	if !result.Safe {
		level = matcher.ComplianceFor(violations)
		// An unsafe verdict without mappable violations is still at
		// least a caution.
		level = model.MaxCompliance(level, model.ComplianceCaution)
	}

	return model.DietaryAnalysis{
		ComplianceLevel: level,
		Violations:      violations,
		Warnings:        result.Warnings,
		Confidence:      result.Confidence,
		Method:          method,
		Explanation:     result.Explanation,
		AnalyzedAt:      time.Now().UTC(),
	}
}

// ruleBased synthesizes an analysis from the deterministic matcher. This
// tier never suspends and has no failure mode, so the chain always produces
// a verdict.
func (o *Orchestrator) ruleBased(product *model.Product, profile model.UserProfile) model.DietaryAnalysis {
	violations := o.matcher.Evaluate(product.Ingredients, product.DeclaredAllergens, profile.Restrictions)
	return model.DietaryAnalysis{
		ComplianceLevel: matcher.ComplianceFor(violations),
		Violations:      violations,
		Warnings:        []string{"AI analysis unavailable; verdict from deterministic ingredient matching"},
		Confidence:      ruleBasedConfidence,
		Method:          model.MethodRuleBased,
		Explanation:     fmt.Sprintf("Deterministic keyword match against the declared ingredient list (keyword table v%d).", matcher.KeywordTableVersion),
		AnalyzedAt:      time.Now().UTC(),
	}
}

// escalate re-runs the matcher over the same inputs and merges: violations
// the AI missed are appended and the compliance level is recomputed from the
// union, so it can only move toward Violation, never away from it. The
// second return reports whether anything actually changed.
func (o *Orchestrator) escalate(product *model.Product, profile model.UserProfile, analysis model.DietaryAnalysis) (model.DietaryAnalysis, bool) {
	found := o.matcher.Evaluate(product.Ingredients, product.DeclaredAllergens, profile.Restrictions)

	present := make(map[string]struct{}, len(analysis.Violations))
	for _, v := range analysis.Violations {
		present[violationFingerprint(v)] = struct{}{}
		// AI-reported violations are also indexed by key alone so the
		// matcher's richer duplicate (with matched ingredient) doesn't
		// double-report the same restriction.
		present[strings.ToLower(v.RestrictionKey)] = struct{}{}
	}

	var added []string
	merged := analysis.Violations
	for _, v := range found {
		if _, ok := present[violationFingerprint(v)]; ok {
			continue
		}
		if _, ok := present[strings.ToLower(v.RestrictionKey)]; ok {
			continue
		}
		present[violationFingerprint(v)] = struct{}{}
		merged = append(merged, v)
		added = append(added, v.RestrictionKey)
	}

	level := model.MaxCompliance(analysis.ComplianceLevel, matcher.ComplianceFor(merged))
	// The matcher verdict alone can also force escalation when the AI
	// reported the same violations at a softer level.
	level = model.MaxCompliance(level, matcher.ComplianceFor(found))

	if len(added) > 0 {
		analysis.Warnings = append(analysis.Warnings,
			"safety check found additional matches: "+strings.Join(added, ", "))
		o.logger.Warn("escalated analysis with matcher findings",
			"barcode", product.Barcode,
			"method", analysis.Method,
			"added", added)
	}

	changed := len(added) > 0 || level != analysis.ComplianceLevel
	analysis.Violations = merged
	analysis.ComplianceLevel = level
	return analysis, changed
}

func violationFingerprint(v model.Violation) string {
	return strings.ToLower(v.RestrictionKey) + "\x00" + strings.ToLower(v.MatchedIngredient) + "\x00" + string(v.MatchType)
}

// recordHistory hands the final result to the history store, or defers it
// onto the offline queue when the store is unreachable.
func (o *Orchestrator) recordHistory(ctx context.Context, product *model.Product, profile model.UserProfile, analysis model.DietaryAnalysis) {
	record := model.ScanRecord{
		ID:        uuid.NewString(),
		ProfileID: profile.ID,
		Barcode:   product.Barcode,
		Product:   product.Name,
		Analysis:  analysis,
		ScannedAt: time.Now().UTC(),
	}

	if o.history != nil && o.history.Available(ctx) {
		err := o.history.SaveScanHistory(ctx, record)
		if err == nil {
			return
		}
		o.logger.Warn("history write failed, deferring", "scan_id", record.ID, "error", err)
	}

	if o.queue == nil {
		return
	}
	if _, err := o.queue.Enqueue(ctx, model.OpSaveScanHistory, model.SaveScanHistoryPayload{Record: record}); err != nil {
		o.logger.Error("failed to defer scan history write", "scan_id", record.ID, "error", err)
	}
}
