package audit

import (
	"strings"
	"time"

	"github.com/username/creditfolio/src/models"
	"github.com/username/creditfolio/src/normalize"
)

// Source tags every violation this engine produces.
const Source = "basic_rule_audit"

const defaultCategory = "Basic"

// Engine evaluates the loaded rule set against merged tradelines. It is
// stateless across tradelines; each one is audited independently so one
// account's malformed data cannot suppress findings on another.
type Engine struct {
	rules []Rule
	now   func() time.Time
}

// NewEngine builds an engine over an already-validated rule set.
func NewEngine(rules []Rule) *Engine {
	return &Engine{rules: rules, now: time.Now}
}

// NewEngineWithClock is NewEngine with an injected clock, used by the
// age-based rules and their tests.
func NewEngineWithClock(rules []Rule, now func() time.Time) *Engine {
	return &Engine{rules: rules, now: now}
}

// AuditReport runs every rule against every tradeline in the aggregate.
func (e *Engine) AuditReport(aggregate *models.ReportAggregate) {
	for _, tl := range aggregate.Tradelines {
		e.Audit(tl)
	}
}

// Audit evaluates rules in declaration order and attaches violations in
// firing order. Re-running Audit on the same tradeline is idempotent:
// AttachViolation reuses the existing object for an already-present id.
func (e *Engine) Audit(tl *models.Tradeline) {
	for _, rule := range e.rules {
		fired, details := e.evaluate(rule, tl)
		if !fired {
			continue
		}
		category := rule.Category
		if category == "" {
			category = defaultCategory
		}
		tl.AttachViolation(&models.Violation{
			ID:      rule.ID,
			Title:   rule.Title,
			Source:  Source,
			Details: details,
		}, category)
	}
}

// evaluate dispatches on the rule kind. A rule whose inputs are entirely
// absent simply does not fire.
func (e *Engine) evaluate(rule Rule, tl *models.Tradeline) (bool, map[string]string) {
	switch rule.Kind {
	case KindStatusRequiresField:
		return evalStatusRequiresField(rule, tl)
	case KindCrossBureauNumericMismatch:
		return evalCrossBureauNumericMismatch(rule, tl)
	case KindCrossBureauValueMismatch:
		return evalCrossBureauValueMismatch(rule, tl)
	case KindNonzeroFieldForStatus:
		return evalNonzeroFieldForStatus(rule, tl)
	case KindObsoleteDate:
		return e.evalObsoleteDate(rule, tl)
	}
	return false, nil
}

// evalStatusRequiresField fires when any bureau reports one of the
// trigger statuses but that same bureau omits the required field (absent
// key or empty value).
func evalStatusRequiresField(rule Rule, tl *models.Tradeline) (bool, map[string]string) {
	for _, bureau := range models.AllBureaus {
		record, ok := tl.PerBureau[bureau]
		if !ok {
			continue
		}
		status, ok := record.Get(models.FieldAccountStatus)
		if !ok || !statusMatches(status, rule.Statuses) {
			continue
		}
		value, present := record.Get(rule.Field)
		if !present || strings.TrimSpace(value) == "" {
			return true, map[string]string{
				"bureau": string(bureau),
				"status": status,
				"field":  rule.Field,
			}
		}
	}
	return false, nil
}

// evalCrossBureauNumericMismatch fires when two or more bureaus report
// the field and the normalized numeric values differ.
func evalCrossBureauNumericMismatch(rule Rule, tl *models.Tradeline) (bool, map[string]string) {
	details := make(map[string]string)
	var values []float64
	for _, bureau := range models.AllBureaus {
		record, ok := tl.PerBureau[bureau]
		if !ok {
			continue
		}
		raw, present := record.Get(rule.Field)
		if !present {
			continue
		}
		values = append(values, normalize.Currency(raw))
		details[string(bureau)] = raw
	}
	if len(values) < 2 {
		return false, nil
	}
	for _, v := range values[1:] {
		if v != values[0] {
			details["field"] = rule.Field
			return true, details
		}
	}
	return false, nil
}

// evalCrossBureauValueMismatch is the string-compare variant, used for
// fields like date_opened where bureaus should agree verbatim.
func evalCrossBureauValueMismatch(rule Rule, tl *models.Tradeline) (bool, map[string]string) {
	details := make(map[string]string)
	var values []string
	for _, bureau := range models.AllBureaus {
		record, ok := tl.PerBureau[bureau]
		if !ok {
			continue
		}
		raw, present := record.Get(rule.Field)
		if !present || strings.TrimSpace(raw) == "" {
			continue
		}
		values = append(values, strings.ToLower(strings.TrimSpace(raw)))
		details[string(bureau)] = raw
	}
	if len(values) < 2 {
		return false, nil
	}
	for _, v := range values[1:] {
		if v != values[0] {
			details["field"] = rule.Field
			return true, details
		}
	}
	return false, nil
}

// evalNonzeroFieldForStatus fires when a bureau reports one of the
// trigger statuses alongside a non-zero numeric value for the field,
// e.g. a balance still owed on an account reported as paid.
func evalNonzeroFieldForStatus(rule Rule, tl *models.Tradeline) (bool, map[string]string) {
	for _, bureau := range models.AllBureaus {
		record, ok := tl.PerBureau[bureau]
		if !ok {
			continue
		}
		status, ok := record.Get(models.FieldAccountStatus)
		if !ok || !statusMatches(status, rule.Statuses) {
			continue
		}
		raw, present := record.Get(rule.Field)
		if !present {
			continue
		}
		if normalize.Currency(raw) != 0 {
			return true, map[string]string{
				"bureau": string(bureau),
				"status": status,
				"field":  rule.Field,
				"value":  raw,
			}
		}
	}
	return false, nil
}

// evalObsoleteDate fires when any bureau's value for the field is a
// parseable date older than the rule's year window. Used for the 7-year
// reporting limit on the date of first delinquency.
func (e *Engine) evalObsoleteDate(rule Rule, tl *models.Tradeline) (bool, map[string]string) {
	years := rule.Years
	if years <= 0 {
		years = 7
	}
	cutoff := e.now().AddDate(-years, 0, 0)
	for _, bureau := range models.AllBureaus {
		record, ok := tl.PerBureau[bureau]
		if !ok {
			continue
		}
		raw, present := record.Get(rule.Field)
		if !present || strings.TrimSpace(raw) == "" {
			continue
		}
		t, err := time.Parse(normalize.OutputDateFormat, strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		if t.Before(cutoff) {
			return true, map[string]string{
				"bureau": string(bureau),
				"field":  rule.Field,
				"value":  raw,
			}
		}
	}
	return false, nil
}

func statusMatches(status string, triggers []string) bool {
	normalized := normalizeStatus(status)
	for _, trigger := range triggers {
		if normalized == normalizeStatus(trigger) {
			return true
		}
	}
	return false
}

// normalizeStatus collapses case, spacing and hyphenation so
// "Charge-off", "charge off" and "CHARGEOFF" all compare equal.
func normalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}
