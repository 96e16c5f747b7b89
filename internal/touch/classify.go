package touch

// Outcome is how a finished episode was classified.
type Outcome uint8

const (
	Ignore Outcome = iota
	Long
	Short
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case Ignore:
		return "ignore"
	case Long:
		return "long"
	case Short:
		return "short"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Thresholds are the episode length boundaries in milliseconds. Ordering is
// not enforced; see Warnings.
type Thresholds struct {
	Min   uint32 // shorter than this is noise
	Short uint32 // up to and including this is a short touch
	Long  uint32 // from this on is a long touch
	Pads  uint8  // pads scanned for per-pad edges
}

// MaxPads is the widest mask a Sensor can report.
const MaxPads = 16

// DefaultThresholds matches a 13-electrode MPR121.
func DefaultThresholds() Thresholds {
	return Thresholds{Min: 90, Short: 500, Long: 3100, Pads: 13}
}

// Classify maps an episode length onto an Outcome. The Long check runs
// before Short, so overlapping thresholds favor Long.
func Classify(length uint32, t Thresholds) Outcome {
	switch {
	case length < t.Min:
		return Ignore
	case length >= t.Long:
		return Long
	case length <= t.Short:
		return Short
	default:
		return Invalid
	}
}

// Warnings describes threshold combinations that make an outcome
// unreachable. An empty result means the thresholds are well ordered.
func (t Thresholds) Warnings() []string {
	var out []string
	if t.Min > t.Short {
		out = append(out, "min_ms is above short_ms: short touches can never be classified")
	}
	if t.Short >= t.Long {
		out = append(out, "short_ms is not below long_ms: invalid touches can never be classified")
	}
	if t.Min > t.Long {
		out = append(out, "min_ms is above long_ms: every touch shorter than min_ms is ignored")
	}
	if t.Pads == 0 || t.Pads > MaxPads {
		out = append(out, "pads must be between 1 and 16")
	}
	return out
}
