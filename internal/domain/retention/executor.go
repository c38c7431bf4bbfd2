package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"lifecycle/internal/domain/notify"
	"lifecycle/internal/domain/policy"
	"lifecycle/internal/domain/scan"
)

type EligibilitySource interface {
	FindEligible(ctx context.Context, pol policy.RetentionPolicy, maxItems int) ([]scan.Item, error)
}

// Deleter removes one eligible record through its type-specific path.
type Deleter interface {
	DeleteRecord(ctx context.Context, item scan.Item) error
}

type LogStore interface {
	Append(ctx context.Context, entry CleanupLog) error
	List(ctx context.Context, limit int) ([]CleanupLog, error)
}

type Counters interface {
	RecordScan(dataType string)
	RecordCleanup(dryRun bool, deleted, failed int)
}

// Executor runs retention cleanup over every auto-delete policy.
//
// Legal holds are not checked here: callers selecting subject-keyed data
// types into PolicyIDs must consult the hold registry first. The account
// deletion path has its own enforcement.
type Executor struct {
	catalog  policy.Catalog
	scanner  EligibilitySource
	deleter  Deleter
	notifier notify.Dispatcher
	logs     LogStore
	counters Counters
	now      func() time.Time
}

func NewExecutor(catalog policy.Catalog, scanner EligibilitySource, deleter Deleter, notifier notify.Dispatcher, logs LogStore, counters Counters) *Executor {
	return &Executor{
		catalog:  catalog,
		scanner:  scanner,
		deleter:  deleter,
		notifier: notifier,
		logs:     logs,
		counters: counters,
		now:      time.Now,
	}
}

// FindEligibleForDeletion scans every auto-delete policy and groups results
// by category with a capped preview plus full counts.
func (e *Executor) FindEligibleForDeletion(ctx context.Context) (EligibilitySummary, error) {
	summary := EligibilitySummary{ByCategory: map[string]CategorySummary{}}

	for _, pol := range e.sortedPolicies(nil) {
		if !pol.AutoDelete {
			continue
		}
		items, err := e.scanner.FindEligible(ctx, pol, scan.DefaultMaxItems)
		e.countScan(pol.DataType)
		if err != nil {
			slog.Warn("eligibility scan failed", "dataType", pol.DataType, "err", err)
			continue
		}
		if len(items) == 0 {
			continue
		}
		preview := items
		if len(preview) > PreviewLimit {
			preview = preview[:PreviewLimit]
		}
		summary.ByCategory[pol.Category] = CategorySummary{
			DataType: pol.DataType,
			Category: pol.Category,
			Count:    len(items),
			Preview:  preview,
		}
		summary.TotalItems += len(items)
	}
	return summary, nil
}

// Execute cleans up each eligible policy, optionally filtered to PolicyIDs.
// Data types run one at a time so per-policy notification counts stay
// accurate. Per-item failures are counted and never abort the batch. The
// execution log is persisted for dry-runs as well; only a log persistence
// failure is returned as an error.
func (e *Executor) Execute(ctx context.Context, opts CleanupOptions) (CleanupResult, error) {
	result := CleanupResult{DryRun: opts.DryRun, ExecutedAt: e.now().UTC()}

	for _, pol := range e.sortedPolicies(opts.PolicyIDs) {
		if !pol.AutoDelete {
			// Reporting-only policies (consent logs, billing) never reach
			// the delete path, even when named explicitly.
			continue
		}

		detail := CategoryDetail{DataType: pol.DataType, Category: pol.Category}
		items, err := e.scanner.FindEligible(ctx, pol, scan.DefaultMaxItems)
		e.countScan(pol.DataType)
		if err != nil {
			detail.Error = err.Error()
			result.Details = append(result.Details, detail)
			continue
		}
		detail.Eligible = len(items)

		if pol.NotifyBeforeDays > 0 {
			detail.Notified = e.notifyOwners(ctx, pol, items)
			result.Notified += detail.Notified
		}

		if !opts.DryRun {
			for _, item := range items {
				if err := e.deleter.DeleteRecord(ctx, item); err != nil {
					slog.Warn("record deletion failed", "dataType", pol.DataType, "id", item.ID, "err", err)
					detail.Failed++
					continue
				}
				detail.Deleted++
			}
			result.Deleted += detail.Deleted
			result.Failed += detail.Failed
		}
		result.Details = append(result.Details, detail)
	}

	if e.counters != nil {
		e.counters.RecordCleanup(opts.DryRun, result.Deleted, result.Failed)
	}

	entry := CleanupLog{
		DryRun:     result.DryRun,
		Deleted:    result.Deleted,
		Notified:   result.Notified,
		Failed:     result.Failed,
		Details:    result.Details,
		ExecutedAt: result.ExecutedAt,
	}
	if err := e.logs.Append(ctx, entry); err != nil {
		return result, fmt.Errorf("cleanup log persist failed: %w", err)
	}
	return result, nil
}

func (e *Executor) notifyOwners(ctx context.Context, pol policy.RetentionPolicy, items []scan.Item) int {
	notified := 0
	for _, item := range items {
		if item.OwnerEmail == "" {
			continue
		}
		payload := map[string]any{
			"userId":   item.OwnerID,
			"label":    item.Label,
			"dataType": pol.DataType,
		}
		if err := e.notifier.Send(ctx, notify.TemplateRetentionNotice, item.OwnerEmail, payload); err != nil {
			slog.Warn("retention notice failed", "dataType", pol.DataType, "recipient", item.OwnerEmail, "err", err)
			continue
		}
		notified++
	}
	return notified
}

func (e *Executor) sortedPolicies(only []string) []policy.RetentionPolicy {
	wanted := map[string]bool{}
	for _, id := range only {
		wanted[id] = true
	}

	var out []policy.RetentionPolicy
	for dataType, pol := range e.catalog.Get() {
		if len(wanted) > 0 && !wanted[dataType] {
			continue
		}
		out = append(out, pol)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DataType < out[j].DataType })
	return out
}

func (e *Executor) countScan(dataType string) {
	if e.counters != nil {
		e.counters.RecordScan(dataType)
	}
}
