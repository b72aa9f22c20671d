package anomaly

import (
	"fmt"
	"math"
)

// Severity of a finding. Only critical findings block submission.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// FindingType identifies which rule fired.
type FindingType string

const (
	TypeTareWeightError  FindingType = "tare_weight_error"
	TypeNegativeWeight   FindingType = "negative_weight"
	TypeEmptyContainer   FindingType = "empty_container"
	TypeOutlierWeight    FindingType = "outlier_weight"
	TypeImpossibleWeight FindingType = "impossible_weight"
)

// Finding is one detected anomaly. Findings are data, never errors: a
// reading that trips every rule still evaluates cleanly.
type Finding struct {
	Type            FindingType `json:"type"`
	Severity        Severity    `json:"severity"`
	Message         string      `json:"message"`
	SuggestedAction string      `json:"suggested_action"`
	Confidence      float64     `json:"confidence"`
}

// Verdict is derived from a finding set.
type Verdict struct {
	CanProceed          bool `json:"can_proceed"`
	RequireConfirmation bool `json:"require_confirmation"`
}

// Container describes the identified physical container, if any.
type Container struct {
	TareWeightG float64
	CapacityML  float64 // 0 = capacity unknown, impossible-weight rule skipped
}

// Reading is one weight measurement under evaluation.
type Reading struct {
	MeasuredWeightG float64
	// FallbackTareG applies only when no container is identified.
	FallbackTareG float64
}

// Config holds the detection thresholds. Defaults match observed behavior;
// override via environment in main rather than per-tenant policy.
type Config struct {
	EmptyThresholdG  float64 // net weight below this counts as an empty container
	OutlierZScore    float64 // |z| above this flags a statistical outlier
	HistoryWindow    int     // most recent weight readings consulted
	MinHistory       int     // minimum samples before the outlier rule runs
	MaxDensityGPerML float64 // density ceiling for the impossible-weight rule
}

func DefaultConfig() Config {
	return Config{
		EmptyThresholdG:  10,
		OutlierZScore:    3.0,
		HistoryWindow:    20,
		MinHistory:       5,
		MaxDensityGPerML: 1.2,
	}
}

// Detector evaluates weight readings against the rule set. It is pure:
// all state (the historical sample) is passed in by the caller.
type Detector struct {
	cfg Config
}

func NewDetector(cfg Config) *Detector {
	if cfg.HistoryWindow <= 0 {
		cfg = DefaultConfig()
	}
	return &Detector{cfg: cfg}
}

// Window returns the configured history window size so callers know how
// much history to fetch.
func (d *Detector) Window() int { return d.cfg.HistoryWindow }

// Evaluate runs every rule independently and returns all findings.
// history holds prior measured weights for the same item, newest last.
func (d *Detector) Evaluate(r Reading, c *Container, history []float64) []Finding {
	var findings []Finding

	tare := r.FallbackTareG
	if c != nil {
		tare = c.TareWeightG
	}
	net := r.MeasuredWeightG - tare

	// Rule 1: measured weight below the effective tare.
	if r.MeasuredWeightG < tare {
		findings = append(findings, Finding{
			Type:            TypeTareWeightError,
			Severity:        SeverityCritical,
			Message:         fmt.Sprintf("measured weight %.1fg is below the container tare %.1fg", r.MeasuredWeightG, tare),
			SuggestedAction: "re-weigh with the correct container selected",
			Confidence:      1.0,
		})
	}

	// Rule 2: physically impossible negative measurement.
	if r.MeasuredWeightG < 0 {
		findings = append(findings, Finding{
			Type:            TypeNegativeWeight,
			Severity:        SeverityCritical,
			Message:         fmt.Sprintf("measured weight %.1fg is negative", r.MeasuredWeightG),
			SuggestedAction: "zero the scale and recount",
			Confidence:      1.0,
		})
	}

	// Rule 3: container identified and effectively empty.
	if c != nil && net >= 0 && net < d.cfg.EmptyThresholdG {
		findings = append(findings, Finding{
			Type:            TypeEmptyContainer,
			Severity:        SeverityWarning,
			Message:         fmt.Sprintf("net weight %.1fg suggests an empty container", net),
			SuggestedAction: "confirm the container is meant to be empty",
			Confidence:      0.9,
		})
	}

	// Rule 4: statistical outlier against item history.
	if len(history) >= d.cfg.MinHistory {
		sample := history
		if len(sample) > d.cfg.HistoryWindow {
			sample = sample[len(sample)-d.cfg.HistoryWindow:]
		}
		mean, stdDev := meanStdDev(sample)
		z := 0.0
		if stdDev > 0 {
			z = (r.MeasuredWeightG - mean) / stdDev
		}
		if math.Abs(z) > d.cfg.OutlierZScore {
			findings = append(findings, Finding{
				Type:            TypeOutlierWeight,
				Severity:        SeverityWarning,
				Message:         fmt.Sprintf("weight %.1fg is %.1f standard deviations from the historical mean %.1fg", r.MeasuredWeightG, z, mean),
				SuggestedAction: "verify the reading against recent counts",
				Confidence:      0.85,
			})
		}
	}

	// Rule 5: net weight exceeds what the container could possibly hold.
	if c != nil && c.CapacityML > 0 {
		maxNet := c.CapacityML * d.cfg.MaxDensityGPerML
		if net > maxNet {
			findings = append(findings, Finding{
				Type:            TypeImpossibleWeight,
				Severity:        SeverityError,
				Message:         fmt.Sprintf("net weight %.1fg exceeds the %.0fml container ceiling of %.1fg", net, c.CapacityML, maxNet),
				SuggestedAction: "check the container type assignment",
				Confidence:      0.95,
			})
		}
	}

	return findings
}

// Assess derives the verdict: critical blocks, error or warning requires
// confirmation, a clean reading requires neither.
func Assess(findings []Finding) Verdict {
	v := Verdict{CanProceed: true}
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			v.CanProceed = false
		case SeverityError, SeverityWarning:
			v.RequireConfirmation = true
		}
	}
	return v
}

// meanStdDev returns the population mean and standard deviation.
func meanStdDev(sample []float64) (float64, float64) {
	if len(sample) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range sample {
		sum += v
	}
	mean := sum / float64(len(sample))

	var sq float64
	for _, v := range sample {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(sample)))
}
