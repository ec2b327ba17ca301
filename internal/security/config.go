// Package security loads the per-file execution limits (rule/security
// configuration) that the pipeline and memsem packages enforce: the
// per-file timeout wrapped as a rules.SecurityConfig, and the heap
// budget memsem.NewMemoryReservationManager sizes its permit pool from.
//
// Grounded on the teacher's internal/config/kdl_config.go: KDL
// (github.com/sblinch/kdl-go) is the primary format, parsed with the
// same nodeName/firstIntArg/firstStringArg/parseSize/parseBool
// traversal idiom, and "file absent means nil, nil — use defaults"
// load semantics. A TOML layer (github.com/pelletier/go-toml/v2) is
// layered on top as a CI/CLI-friendly override, matching SPEC_FULL.md's
// "KDL primary, TOML fallback/override" ambient-stack description.
//
// Discovering *which* rules apply and merging their individual option
// sets stays out of scope (spec.md §1's "TOML configuration discovery
// and merging" non-goal); this package only produces the two
// process-wide limits above.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
	"github.com/pelletier/go-toml/v2"

	"github.com/standardbeagle/javafmt/internal/errs"
	"github.com/standardbeagle/javafmt/internal/rules"
)

const (
	kdlFileName  = ".javafmt.kdl"
	tomlFileName = ".javafmt.toml"

	// defaultMaxHeapBytes matches spec.md §5's example default heap
	// budget used to size the memory reservation pool.
	defaultMaxHeapBytes = 2 * 1024 * 1024 * 1024 // 2 GiB
)

// Limits is the process-wide set of execution limits a caller feeds
// into rules.SecurityConfig and memsem.NewMemoryReservationManager.
type Limits struct {
	// Timeout becomes rules.SecurityConfig.Timeout: the per-file
	// wall-clock budget check_deadline() enforces.
	Timeout time.Duration
	// MaxHeapBytes sizes memsem's permit pool: (MaxHeapBytes × 0.7) / 1 MiB.
	MaxHeapBytes int64
}

// Security projects Limits into the rules package's config shape.
func (l Limits) Security() rules.SecurityConfig {
	return rules.SecurityConfig{Timeout: l.Timeout}
}

// DefaultLimits matches spec.md §5's example defaults: a 30s per-file
// deadline and a 2 GiB heap budget.
func DefaultLimits() Limits {
	return Limits{Timeout: 30 * time.Second, MaxHeapBytes: defaultMaxHeapBytes}
}

// overrides is the TOML override layer's shape. Every field is a
// pointer so an absent key in the TOML file leaves the KDL/default
// value untouched — TOML here is strictly additive, CI/CLI-friendly
// overrides, not an independent source of truth.
type overrides struct {
	Security struct {
		TimeoutMS    *int64 `toml:"timeout_ms"`
		MaxHeapBytes *int64 `toml:"max_heap_bytes"`
		MaxHeapMB    *int64 `toml:"max_heap_mb"`
	} `toml:"security"`
}

// Load resolves Limits for projectRoot: defaults, then a .javafmt.kdl
// file if present, then a .javafmt.toml file if present overriding
// individual fields. Neither file existing is not an error — Load
// returns DefaultLimits() unchanged, exactly as the teacher's LoadKDL
// treats a missing .lci.kdl as "use defaults."
func Load(projectRoot string) (Limits, error) {
	limits := DefaultLimits()

	kdlLimits, err := loadKDL(projectRoot)
	if err != nil {
		return Limits{}, err
	}
	if kdlLimits != nil {
		limits = *kdlLimits
	}

	ov, err := loadTOMLOverrides(projectRoot)
	if err != nil {
		return Limits{}, err
	}
	if ov != nil {
		applyOverrides(&limits, ov)
	}

	if limits.Timeout <= 0 || limits.MaxHeapBytes <= 0 {
		return Limits{}, errs.NewEngineError(errs.KindInvalidConfiguration, "security",
			fmt.Errorf("security limits must be positive: timeout=%s max_heap_bytes=%d", limits.Timeout, limits.MaxHeapBytes))
	}

	return limits, nil
}

// loadKDL mirrors the teacher's LoadKDL: missing file returns (nil,
// nil), a present file is read and parsed.
func loadKDL(projectRoot string) (*Limits, error) {
	path := filepath.Join(projectRoot, kdlFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", kdlFileName, err)
	}

	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return nil, errs.NewEngineError(errs.KindInvalidConfiguration, "security", fmt.Errorf("parsing %s: %w", kdlFileName, err))
	}

	limits := DefaultLimits()
	for _, n := range doc.Nodes {
		if nodeName(n) != "security" {
			continue
		}
		for _, cn := range n.Children {
			switch nodeName(cn) {
			case "timeout_ms":
				if v, ok := firstIntArg(cn); ok {
					limits.Timeout = time.Duration(v) * time.Millisecond
				}
			case "timeout":
				if s, ok := firstStringArg(cn); ok {
					if d, err := time.ParseDuration(s); err == nil {
						limits.Timeout = d
					}
				}
			case "max_heap":
				if s, ok := firstStringArg(cn); ok {
					if sz, err := parseSize(s); err == nil {
						limits.MaxHeapBytes = sz
					}
				}
			case "max_heap_mb":
				if v, ok := firstIntArg(cn); ok {
					limits.MaxHeapBytes = int64(v) * 1024 * 1024
				}
			}
		}
	}

	return &limits, nil
}

// loadTOMLOverrides mirrors loadKDL's "absent file means nil, nil"
// shape for the override layer.
func loadTOMLOverrides(projectRoot string) (*overrides, error) {
	path := filepath.Join(projectRoot, tomlFileName)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", tomlFileName, err)
	}

	var ov overrides
	if err := toml.Unmarshal(content, &ov); err != nil {
		return nil, errs.NewEngineError(errs.KindInvalidConfiguration, "security", fmt.Errorf("parsing %s: %w", tomlFileName, err))
	}
	return &ov, nil
}

func applyOverrides(limits *Limits, ov *overrides) {
	if ov.Security.TimeoutMS != nil {
		limits.Timeout = time.Duration(*ov.Security.TimeoutMS) * time.Millisecond
	}
	if ov.Security.MaxHeapBytes != nil {
		limits.MaxHeapBytes = *ov.Security.MaxHeapBytes
	}
	if ov.Security.MaxHeapMB != nil {
		limits.MaxHeapBytes = *ov.Security.MaxHeapMB * 1024 * 1024
	}
}

// --- KDL node helpers, copied from the teacher's kdl_config.go traversal idiom ---

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

// parseSize handles size strings like "10MB", "500KB", "1GB", "1024B".
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		multiplier = 1
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}
	return num * multiplier, nil
}
