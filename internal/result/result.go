package result

// Issue kinds, matching the compiler's error taxonomy.
const (
	KindStructural = "structural_error"
	KindConflict   = "resource_conflict"
	KindRender     = "render_error"
	KindImage      = "image_unresolvable"
	KindCapability = "capability_unavailable"
)

// Issue severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue is a single validation, allocation, or generation finding. Entity
// names the offending node, instance, or link when one is identifiable.
type Issue struct {
	Kind       string `json:"kind"`
	Severity   string `json:"severity"`
	Entity     string `json:"entity,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ImageEntry records the gate decision for one container-backed instance:
// either the bound image reference or a skip reason.
type ImageEntry struct {
	Node     string `json:"node"`
	Instance string `json:"instance"`
	Image    string `json:"image,omitempty"`
	Skipped  bool   `json:"skipped,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// GuardEntry records one capability-guard decision made while emitting the
// deployment script.
type GuardEntry struct {
	Step     string `json:"step"`
	Entity   string `json:"entity,omitempty"`
	Requires string `json:"requires"`
	Granted  bool   `json:"granted"`
	Notice   string `json:"notice,omitempty"`
}

// CompileResult is the outcome of one compilation run.
type CompileResult struct {
	Success   bool              `json:"success"`
	Partial   bool              `json:"partial,omitempty"`
	Backend   string            `json:"backend,omitempty"`
	Artifacts map[string][]byte `json:"-"` // filename -> content
	Errors    []Issue           `json:"errors,omitempty"`
	Warnings  []Issue           `json:"warnings,omitempty"`
	Images    []ImageEntry      `json:"images,omitempty"`
	Guards    []GuardEntry      `json:"guards,omitempty"`
}

// Process exit codes for the compile command.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitStructural = 2
	ExitNoBackend  = 3
	ExitPartial    = 4
)

// HasKind reports whether any error issue has the given kind.
func (r *CompileResult) HasKind(kind string) bool {
	for _, e := range r.Errors {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// ExitCode maps the result onto the compile command's exit code contract.
// Node-scoped failures (skipped images, per-node render errors) leave the
// run successful but partial; only structural and global conflicts fail it.
func (r *CompileResult) ExitCode() int {
	if !r.Success {
		if r.HasKind(KindStructural) {
			return ExitStructural
		}
		return ExitFailure
	}
	if r.Partial {
		return ExitPartial
	}
	return ExitOK
}
