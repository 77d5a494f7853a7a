package config

import (
	"sort"
	"strings"
)

// =============================================================================
// DEFAULT PROFILE
// =============================================================================

// DefaultTargetID identifies the fallback profile used when the caller's
// target identifier resolves to nothing.
const DefaultTargetID = "DEFAULT"

// DefaultProfile returns the baseline federal-agency profile. Built-in
// profiles start from this and override signal lists and units.
func DefaultProfile() *DistillationProfile {
	return &DistillationProfile{
		TargetID:    DefaultTargetID,
		DisplayName: "Default Agency Profile",

		MaxCards:       120,
		MinPerTheme:    2,
		MaxPerTheme:    12,
		MaxPerDocument: 25,

		HighSignalTarget:    40,
		HighSignalTolerance: 8,
		ContextTarget:       60,
		ContextTolerance:    20,

		MandatePhrases: []string{
			"zero trust architecture",
			"executive order 14028",
			"continuous diagnostics and mitigation",
			"binding operational directive",
		},

		Weights: ScoringWeights{
			Specificity: 0.40,
			Compliance:  0.35,
			Budget:      0.25,
		},

		// Empirically tuned starting points; calibrate per deployment.
		Dedup: DedupThresholds{
			WithinTheme:  0.83,
			Global:       0.86,
			SameDocRelax: 0.10,
		},

		Themes: defaultThemes(),
	}
}

// defaultThemes returns the baseline theme dictionaries. The first five are
// mandatory: quota enforcement tracks their coverage and reports gaps.
func defaultThemes() []ThemeDictionary {
	return []ThemeDictionary{
		{
			Name:      "Identity & Access",
			Mandatory: true,
			Phrases:   []string{"identity management", "multi-factor authentication", "privileged access", "single sign-on"},
			Acronyms:  []string{"ICAM", "MFA", "PIV", "SSO"},
			Anchors:   []string{"zero trust"},
			Synonyms:  []string{"authentication", "credential", "authorization"},
			Partials:  []string{"identit", "access control"},
			Excludes:  []string{"physical access badge"},
		},
		{
			Name:      "Incident Response",
			Mandatory: true,
			Phrases:   []string{"incident response", "security operations center", "threat hunting", "endpoint detection"},
			Acronyms:  []string{"SOC", "EDR", "SIEM", "IR"},
			Anchors:   []string{"incident response plan"},
			Synonyms:  []string{"breach", "intrusion", "ransomware", "malware"},
			Partials:  []string{"detect", "respond"},
			Excludes:  []string{"medical incident"},
		},
		{
			Name:      "Cloud & Infrastructure",
			Mandatory: true,
			Phrases:   []string{"cloud migration", "cloud adoption", "infrastructure modernization", "data center consolidation"},
			Acronyms:  []string{"IAAS", "PAAS", "SAAS", "FEDRAMP"},
			Anchors:   []string{"cloud smart"},
			Synonyms:  []string{"hybrid cloud", "workload", "virtualization"},
			Partials:  []string{"cloud"},
			Excludes:  []string{"weather", "cloud cover"},
		},
		{
			Name:      "Governance & Compliance",
			Mandatory: true,
			Phrases:   []string{"risk management framework", "authority to operate", "continuous monitoring", "security assessment"},
			Acronyms:  []string{"RMF", "ATO", "FISMA", "POAM", "NIST"},
			Anchors:   []string{"fisma compliance"},
			Synonyms:  []string{"audit", "oversight", "accreditation", "policy"},
			Partials:  []string{"complian", "govern"},
		},
		{
			Name:      "Budget & Procurement",
			Mandatory: true,
			Phrases:   []string{"working capital fund", "technology modernization fund", "capital planning", "contract award"},
			Acronyms:  []string{"TMF", "CPIC", "IDIQ", "BPA"},
			Anchors:   []string{"appropriation"},
			Synonyms:  []string{"funding", "investment", "acquisition", "obligation"},
			Partials:  []string{"budget", "procure"},
		},
		{
			Name:     "Workforce & Skills",
			Phrases:  []string{"cyber workforce", "skills gap", "talent pipeline"},
			Acronyms: []string{"NICE"},
			Synonyms: []string{"hiring", "training", "retention", "upskilling"},
			Partials: []string{"workforce"},
		},
		{
			Name:     "Data & Analytics",
			Phrases:  []string{"data governance", "data strategy", "artificial intelligence"},
			Acronyms: []string{"CDO", "AI", "ML"},
			Synonyms: []string{"analytics", "data sharing", "open data"},
			Partials: []string{"data-driven"},
		},
	}
}

// =============================================================================
// BUILT-IN REGISTRY
// =============================================================================

// builtinProfiles returns the profiles shipped with the binary. Deployments
// extend or replace these with YAML files via Load.
func builtinProfiles() []*DistillationProfile {
	dhs := DefaultProfile()
	dhs.TargetID = "DHS"
	dhs.DisplayName = "Department of Homeland Security"
	dhs.Aliases = []string{"HOMELAND SECURITY", "DEPARTMENT OF HOMELAND SECURITY"}
	dhs.HighPrioritySignals = []string{
		"continuous diagnostics and mitigation", "CDM", "einstein",
		"cybersecurity and infrastructure security agency",
	}
	dhs.MediumPrioritySignals = []string{"border technology", "screening systems"}
	dhs.OrganizationalUnits = []string{"CISA", "CBP", "TSA", "USCIS", "FEMA", "Secret Service"}

	va := DefaultProfile()
	va.TargetID = "VA"
	va.DisplayName = "Department of Veterans Affairs"
	va.Aliases = []string{"VETERANS AFFAIRS", "DEPARTMENT OF VETERANS AFFAIRS"}
	va.HighPrioritySignals = []string{
		"electronic health record modernization", "EHRM", "supply chain modernization",
	}
	va.MediumPrioritySignals = []string{"telehealth", "claims automation"}
	va.OrganizationalUnits = []string{"VHA", "VBA", "NCA", "OIT"}

	dot := DefaultProfile()
	dot.TargetID = "DOT"
	dot.DisplayName = "Department of Transportation"
	dot.Aliases = []string{"TRANSPORTATION", "DEPARTMENT OF TRANSPORTATION"}
	dot.HighPrioritySignals = []string{"national airspace system", "NextGen"}
	dot.MediumPrioritySignals = []string{"vehicle safety data", "grants modernization"}
	dot.OrganizationalUnits = []string{"FAA", "FHWA", "FMCSA", "NHTSA", "FTA"}

	return []*DistillationProfile{dhs, va, dot}
}

// Registry resolves target identifiers to profiles. Immutable after
// construction; safe for concurrent readers.
type Registry struct {
	profiles map[string]*DistillationProfile
	aliases  map[string]string // normalized alias -> target ID
}

// NewRegistry builds a registry over the built-in profiles.
func NewRegistry() *Registry {
	r := &Registry{
		profiles: make(map[string]*DistillationProfile),
		aliases:  make(map[string]string),
	}
	for _, p := range builtinProfiles() {
		r.register(p)
	}
	return r
}

// NewRegistryWith builds a registry over the built-ins plus extra profiles;
// extras override built-ins on target ID collision.
func NewRegistryWith(extra ...*DistillationProfile) *Registry {
	r := NewRegistry()
	for _, p := range extra {
		r.register(p)
	}
	return r
}

func (r *Registry) register(p *DistillationProfile) {
	r.profiles[p.TargetID] = p
	r.aliases[p.TargetID] = p.TargetID
	for _, a := range p.Aliases {
		r.aliases[collapseUpper(a)] = p.TargetID
	}
}

// TargetIDs lists registered target identifiers, sorted.
func (r *Registry) TargetIDs() []string {
	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NormalizeTargetID canonicalizes a raw identifier: trim, collapse internal
// whitespace, uppercase, then longest-alias match. Unknown identifiers map
// to DefaultTargetID.
func (r *Registry) NormalizeTargetID(raw string) string {
	norm := collapseUpper(raw)
	if norm == "" {
		return DefaultTargetID
	}
	if id, ok := r.aliases[norm]; ok {
		return id
	}

	// Longest alias contained in the normalized input wins. Deterministic:
	// ties broken by lexical order of the alias.
	best, bestID := "", ""
	for alias, id := range r.aliases {
		if !strings.Contains(norm, alias) {
			continue
		}
		if len(alias) > len(best) || (len(alias) == len(best) && alias < best) {
			best, bestID = alias, id
		}
	}
	if bestID != "" {
		return bestID
	}
	return DefaultTargetID
}

// Resolve returns the profile for a raw target identifier. Unknown targets
// fall back to the default profile; the second return reports whether the
// lookup was exact so the caller can log a warning.
func (r *Registry) Resolve(raw string) (*DistillationProfile, bool) {
	id := r.NormalizeTargetID(raw)
	if p, ok := r.profiles[id]; ok {
		return p, true
	}
	return DefaultProfile(), false
}

// collapseUpper trims, collapses runs of whitespace to single spaces, and
// uppercases.
func collapseUpper(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
