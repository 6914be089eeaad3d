package models

import "time"

// Bureau identifies one of the three consumer credit bureaus.
type Bureau string

const (
	BureauTransUnion Bureau = "TransUnion"
	BureauExperian   Bureau = "Experian"
	BureauEquifax    Bureau = "Equifax"
)

// AllBureaus is the fixed evaluation order used everywhere a deterministic
// bureau order matters (merging, rule evaluation, letter generation).
var AllBureaus = []Bureau{BureauTransUnion, BureauExperian, BureauEquifax}

// Canonical field keys produced by the field normalizer. Unmapped report
// labels are preserved under their raw label alongside these.
const (
	FieldAccountNumber        = "account_number"
	FieldAccountType          = "account_type"
	FieldAccountStatus        = "account_status"
	FieldBalance              = "balance"
	FieldPastDue              = "past_due"
	FieldDateOpened           = "date_opened"
	FieldLastReported         = "last_reported"
	FieldDateFirstDelinquency = "date_first_delinquency"
	FieldCreditLimit          = "credit_limit"
	FieldHighBalance          = "high_balance"
	FieldPaymentStatus        = "payment_status"
)

// BureauAccountRecord is one account as reported by a single bureau.
// Fields holds normalized values keyed by canonical key; a label the
// document never reported is simply absent from the map (absence and
// empty string are distinct states, and some rules care).
type BureauAccountRecord struct {
	Bureau Bureau            `json:"bureau"`
	Fields map[string]string `json:"fields"`
}

// Get returns the value for a canonical key and whether the bureau
// reported it at all.
func (r *BureauAccountRecord) Get(key string) (string, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// AccountNumber returns the reported account number, possibly masked,
// or "" when the bureau omitted it.
func (r *BureauAccountRecord) AccountNumber() string {
	return r.Fields[FieldAccountNumber]
}

// AccountGroup is one positional account section from the document: up to
// one record per bureau that the report laid out as "the same" account.
// Position is the zero-based order the section appeared in the document.
type AccountGroup struct {
	Position int                   `json:"position"`
	Creditor string                `json:"creditor"`
	Records  []BureauAccountRecord `json:"records"`
}

// TradelineMeta carries the merged identity of a tradeline.
type TradelineMeta struct {
	CreditorName  string `json:"creditor_name"`
	AccountNumber string `json:"account_number"` // representative; "" when no bureau reported one
}

// Violation is a single audit finding. ID is the stable rule identifier;
// a tradeline never holds two violations with the same ID.
type Violation struct {
	ID      string            `json:"id"`
	Title   string            `json:"title"`
	Source  string            `json:"source"`
	Details map[string]string `json:"details,omitempty"`
}

// Tradeline is the merged cross-bureau view of one account. Violations
// and ViolationsGrouped expose the same owned set of *Violation objects:
// the flat list is append-ordered by first firing, the grouped map slices
// them by rule category. Entries are shared pointers, never copies, so a
// mutation through one view is visible through the other.
type Tradeline struct {
	Meta              TradelineMeta                   `json:"meta"`
	PerBureau         map[Bureau]*BureauAccountRecord `json:"per_bureau"`
	Violations        []*Violation                    `json:"violations"`
	ViolationsGrouped map[string][]*Violation         `json:"violations_grouped"`

	violationByID map[string]*Violation
}

// NewTradeline creates an empty merged tradeline.
func NewTradeline(meta TradelineMeta) *Tradeline {
	return &Tradeline{
		Meta:              meta,
		PerBureau:         make(map[Bureau]*BureauAccountRecord),
		Violations:        []*Violation{},
		ViolationsGrouped: make(map[string][]*Violation),
		violationByID:     make(map[string]*Violation),
	}
}

// FindViolation returns the existing violation with the given id, or nil.
func (t *Tradeline) FindViolation(id string) *Violation {
	t.reindexViolations()
	return t.violationByID[id]
}

// AttachViolation is the single mutation point for violations. If a
// violation with the same ID is already attached (from a prior pass or a
// different source) the existing object is reused; otherwise v is added
// to the flat list. Either way the returned object is placed in the
// category group exactly once, as the same pointer held by Violations.
func (t *Tradeline) AttachViolation(v *Violation, category string) *Violation {
	t.reindexViolations()

	existing, ok := t.violationByID[v.ID]
	if !ok {
		t.Violations = append(t.Violations, v)
		t.violationByID[v.ID] = v
		existing = v
	}

	// Dedup by ID rather than pointer: a deserialized tradeline holds
	// distinct objects for the same finding across its two views.
	for _, grouped := range t.ViolationsGrouped[category] {
		if grouped.ID == existing.ID {
			return existing
		}
	}
	t.ViolationsGrouped[category] = append(t.ViolationsGrouped[category], existing)
	return existing
}

// reindexViolations rebuilds the id index when the tradeline was
// deserialized or hand-built with pre-existing violations.
func (t *Tradeline) reindexViolations() {
	if t.violationByID == nil {
		t.violationByID = make(map[string]*Violation)
	}
	if t.ViolationsGrouped == nil {
		t.ViolationsGrouped = make(map[string][]*Violation)
	}
	if len(t.violationByID) == len(t.Violations) {
		return
	}
	for _, v := range t.Violations {
		if _, ok := t.violationByID[v.ID]; !ok {
			t.violationByID[v.ID] = v
		}
	}
}

// ViolationCount returns the number of distinct violations attached.
func (t *Tradeline) ViolationCount() int {
	return len(t.Violations)
}

// ReportMetadata describes one parsed upload.
type ReportMetadata struct {
	ParsedAt     time.Time `json:"parsed_at"`
	SourceFormat string    `json:"source_format"`
}

// ReportAggregate is the container produced by one audit run. A fresh
// aggregate is allocated per upload; nothing in it is shared across runs.
type ReportAggregate struct {
	Tradelines []*Tradeline   `json:"tradelines"`
	Metadata   ReportMetadata `json:"metadata"`
}

// TotalViolations sums distinct violations across all tradelines.
func (a *ReportAggregate) TotalViolations() int {
	total := 0
	for _, tl := range a.Tradelines {
		total += tl.ViolationCount()
	}
	return total
}

// ViolationCountsByCategory aggregates grouped violation counts for the
// whole report, keyed by rule category.
func (a *ReportAggregate) ViolationCountsByCategory() map[string]int {
	counts := make(map[string]int)
	for _, tl := range a.Tradelines {
		for category, violations := range tl.ViolationsGrouped {
			counts[category] += len(violations)
		}
	}
	return counts
}
