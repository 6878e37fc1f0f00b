package catalog

import (
	"context"
	"fmt"

	"sdagate/pkg/domain"
)

// Seed populates the reference catalog with the baseline data set: the six
// independence threat types, the three safeguard levels with example
// safeguards, a representative service list with permission matrices, and the
// display-only legal rules. Upserts keep it idempotent, so it runs on every
// startup.
func Seed(ctx context.Context, store Store) error {
	categories := []Category{
		{Code: "AUDIT_ADJACENT", Name: "Audit-adjacent services", Parent: "AUDITORS"},
		{Code: "TAX", Name: "Tax services", Parent: "ADVISORS"},
		{Code: "ACCOUNTING", Name: "Accounting and bookkeeping", Parent: "ADVISORS"},
		{Code: "ADVISORY", Name: "Financial advisory", Parent: "FINANCIAL ADVISORY"},
		{Code: "LEGAL", Name: "Legal services", Parent: "ADVISORS"},
		{Code: "TECHNOLOGY", Name: "Technology and systems", Parent: "ADVISORS"},
	}
	categoryIDs := make(map[string]int64, len(categories))
	for i := range categories {
		if err := store.UpsertCategory(ctx, &categories[i]); err != nil {
			return fmt.Errorf("seed category %s: %w", categories[i].Code, err)
		}
		categoryIDs[categories[i].Code] = categories[i].ID
	}

	threats := []Threat{
		{Code: "ADVOCACY", Name: "Advocacy", DisplayName: "Abogacía", Description: "Advocacy threat"},
		{Code: "SELF_REVIEW", Name: "Self-review", DisplayName: "Autorrevisión", Description: "Self-review threat"},
		{Code: "FAMILIARITY", Name: "Familiarity", DisplayName: "Familiaridad", Description: "Familiarity threat"},
		{Code: "SELF_INTEREST", Name: "Self-interest", DisplayName: "Interés propio", Description: "Self-interest threat"},
		{Code: "INTIMIDATION", Name: "Intimidation", DisplayName: "Intimidación", Description: "Intimidation threat"},
		{Code: "MANAGEMENT", Name: "Management participation", DisplayName: "Participación en la dirección", Description: "Management participation threat"},
	}
	threatIDs := make(map[string]int64, len(threats))
	for i := range threats {
		if err := store.UpsertThreat(ctx, &threats[i]); err != nil {
			return fmt.Errorf("seed threat %s: %w", threats[i].Code, err)
		}
		threatIDs[threats[i].Code] = threats[i].ID
	}

	levels := []SafeguardLevel{
		{Code: "FIRM", Name: "Firm level", DisplayName: "Nivel de firma"},
		{Code: "SITUATION", Name: "Situation level", DisplayName: "Nivel de situación"},
		{Code: "ENTITY", Name: "Entity level", DisplayName: "Nivel de entidad auditada"},
	}
	levelIDs := make(map[string]int64, len(levels))
	for i := range levels {
		if err := store.UpsertSafeguardLevel(ctx, &levels[i]); err != nil {
			return fmt.Errorf("seed safeguard level %s: %w", levels[i].Code, err)
		}
		levelIDs[levels[i].Code] = levels[i].ID
	}

	type seedSafeguard struct {
		threat      string
		level       string
		description string
	}
	safeguards := []seedSafeguard{
		{"SELF_REVIEW", "FIRM", "Separate engagement teams for audit and non-audit work"},
		{"SELF_REVIEW", "SITUATION", "Independent partner review of the non-audit deliverable"},
		{"SELF_REVIEW", "ENTITY", "Client management takes documented responsibility for all judgments"},
		{"SELF_INTEREST", "FIRM", "Fee monitoring so non-audit fees stay immaterial to the firm"},
		{"SELF_INTEREST", "SITUATION", "Fixed-fee engagement agreed before audit fieldwork"},
		{"FAMILIARITY", "FIRM", "Rotation of senior engagement personnel"},
		{"FAMILIARITY", "ENTITY", "Audit committee pre-approval of the engagement"},
		{"ADVOCACY", "SITUATION", "Restrict work to factual analysis, no representation before third parties"},
		{"INTIMIDATION", "FIRM", "Escalation channel to ethics partner outside the engagement line"},
		{"MANAGEMENT", "ENTITY", "Entity designates a competent employee to own all decisions"},
	}
	for _, sg := range safeguards {
		record := Safeguard{
			ThreatID:    threatIDs[sg.threat],
			LevelID:     levelIDs[sg.level],
			Description: sg.description,
		}
		if err := store.UpsertSafeguard(ctx, &record); err != nil {
			return fmt.Errorf("seed safeguard for %s: %w", sg.threat, err)
		}
	}

	// Matrix shorthand: one code per cell in domain.Cells order
	// (EIP audited/chain/affiliated, then NO_EIP audited/chain/affiliated).
	matrix := func(cells ...domain.PermissionCode) domain.PermissionMatrix {
		m := make(domain.PermissionMatrix, len(cells))
		for i, key := range domain.Cells() {
			if i < len(cells) && cells[i] != domain.PermissionUnset {
				m[key] = cells[i]
			}
		}
		return m
	}
	const (
		yes = domain.PermissionAllowed
		lim = domain.PermissionLimited
		no  = domain.PermissionProhibited
		un  = domain.PermissionUnset
	)

	services := []Service{
		{Code: "SVC-ACC-01", Name: "Bookkeeping and preparation of accounting records", CategoryID: categoryIDs["ACCOUNTING"],
			Matrix: matrix(no, no, no, no, lim, lim)},
		{Code: "SVC-ACC-02", Name: "Payroll processing", CategoryID: categoryIDs["ACCOUNTING"],
			Matrix: matrix(no, no, lim, lim, yes, yes)},
		{Code: "SVC-TAX-01", Name: "Preparation of tax returns", CategoryID: categoryIDs["TAX"],
			Matrix: matrix(lim, lim, lim, yes, yes, yes)},
		{Code: "SVC-TAX-02", Name: "Tax advice on the application of regulation", CategoryID: categoryIDs["TAX"],
			Matrix: matrix(lim, lim, yes, yes, yes, yes)},
		{Code: "SVC-ADV-01", Name: "Valuation services with direct effect on the financial statements", CategoryID: categoryIDs["ADVISORY"],
			Matrix: matrix(no, no, no, lim, lim, lim)},
		{Code: "SVC-ADV-02", Name: "Due diligence on acquisition targets", CategoryID: categoryIDs["ADVISORY"],
			Matrix: matrix(yes, yes, yes, yes, yes, yes)},
		{Code: "SVC-ADV-03", Name: "Corporate finance support on third-party transactions", CategoryID: categoryIDs["ADVISORY"],
			Matrix: matrix(lim, lim, lim, lim, yes, yes)},
		{Code: "SVC-AUD-01", Name: "Internal audit outsourcing", CategoryID: categoryIDs["AUDIT_ADJACENT"],
			Matrix: matrix(no, no, no, no, no, lim)},
		{Code: "SVC-AUD-02", Name: "Agreed-upon procedures on regulatory returns", CategoryID: categoryIDs["AUDIT_ADJACENT"],
			Matrix: matrix(yes, yes, yes, yes, yes, yes)},
		{Code: "SVC-LEG-01", Name: "Legal representation in disputes", CategoryID: categoryIDs["LEGAL"],
			Matrix: matrix(no, no, no, no, lim, lim)},
		{Code: "SVC-TEC-01", Name: "Design and implementation of financial reporting systems", CategoryID: categoryIDs["TECHNOLOGY"],
			Matrix: matrix(no, no, lim, lim, lim, yes)},
		// Matrix deliberately sparse: the regulation never addressed this
		// combination, so EIP cells stay UNSET and route to manual analysis.
		{Code: "SVC-TEC-02", Name: "General IT infrastructure support", CategoryID: categoryIDs["TECHNOLOGY"],
			Matrix: matrix(un, un, un, yes, yes, yes)},
	}
	for i := range services {
		if err := store.UpsertService(ctx, &services[i]); err != nil {
			return fmt.Errorf("seed service %s: %w", services[i].Code, err)
		}
	}

	// Default applicability mapping: every service carries at least the
	// self-review and self-interest threats.
	for i := range services {
		for _, code := range []string{"SELF_REVIEW", "SELF_INTEREST"} {
			if err := store.LinkServiceThreat(ctx, services[i].ID, threatIDs[code]); err != nil {
				return fmt.Errorf("link service threat: %w", err)
			}
		}
	}

	rules := []LegalRule{
		{RuleType: "LAC16", Article: "16.1.b",
			Description:   "Services beyond audit may only be provided under conditions that preserve independence; conditional permissions require the 16.1.b 3rd-paragraph requirements to be met.",
			AppliesToEIP:  true,
			AppliesNonEIP: true},
		{RuleType: "EIP_PROHIBITION", Article: "5.1",
			Description:  "Public-interest entities are subject to the prohibited-services list; any service on it may not be provided to the audited entity, its parent or its controlled undertakings.",
			AppliesToEIP: true},
		{RuleType: "SAFEGUARD", Article: "14.2",
			Description:   "Where threats to independence are identified, safeguards must be applied and documented before the service is accepted.",
			AppliesToEIP:  true,
			AppliesNonEIP: true,
			SafeguardText: "Document the threat analysis, the safeguards applied, and the conclusion reached."},
	}
	for i := range rules {
		if err := store.UpsertLegalRule(ctx, &rules[i]); err != nil {
			return fmt.Errorf("seed legal rule %s: %w", rules[i].RuleType, err)
		}
	}

	return nil
}
