// Package evaluator turns a chat response payload into the values shown on the
// latency dashboard: which mode badge to show, formatted latencies, and the
// relative overhead of the primary backend against each comparator.
package evaluator

// Mode is the retrieval mode that produced a reply.
type Mode string

const (
	// ModeUnknown marks a payload whose mode was absent or unrecognized.
	ModeUnknown Mode = ""
	// ModeSearch means the reply came from a vector search.
	ModeSearch Mode = "SEARCH"
	// ModeChat means the reply was conversational and no search ran.
	ModeChat Mode = "CHAT"
)

// Backend names a measured vector backend.
type Backend string

const (
	// BackendCyborg is the primary (encrypted) backend under evaluation.
	BackendCyborg Backend = "cyborg"
	// BackendFaiss is the in-memory comparator.
	BackendFaiss Backend = "faiss"
	// BackendChroma is the disk-backed comparator.
	BackendChroma Backend = "chroma"
)

// Backends lists every measured backend, primary first.
var Backends = []Backend{BackendCyborg, BackendFaiss, BackendChroma}

// Comparators lists the backends the primary is compared against.
var Comparators = []Backend{BackendFaiss, BackendChroma}

// Qualifier labels an overhead result.
type Qualifier string

const (
	Faster       Qualifier = "faster"
	Slower       Qualifier = "slower"
	NotAvailable Qualifier = "not_available"
)

// Measurement is an elapsed time in seconds. Present is false when the server
// did not report the backend.
type Measurement struct {
	Seconds float64
	Present bool
}

// Measured returns a present measurement of s seconds.
func Measured(s float64) Measurement {
	return Measurement{Seconds: s, Present: true}
}

// Metrics holds the per-backend measurements of one response.
type Metrics struct {
	Cyborg Measurement
	Faiss  Measurement
	Chroma Measurement
}

// Get returns the measurement for b. Unknown backends are absent.
func (m Metrics) Get(b Backend) Measurement {
	switch b {
	case BackendCyborg:
		return m.Cyborg
	case BackendFaiss:
		return m.Faiss
	case BackendChroma:
		return m.Chroma
	default:
		return Measurement{}
	}
}

// Payload is a validated server response.
type Payload struct {
	ReplyText string
	ModeUsed  Mode
	Metrics   Metrics
	// MetricsPresent reports whether the response carried a metrics object,
	// even an empty one.
	MetricsPresent bool
}

// Overhead is the display value for one comparator.
type Overhead struct {
	Text      string    `json:"text"`
	Qualifier Qualifier `json:"qualifier"`
}

// DisplayModel is everything a renderer needs to draw the dashboard.
type DisplayModel struct {
	Mode     Mode                 `json:"mode"`
	Latency  map[Backend]string   `json:"latency"`
	Overhead map[Backend]Overhead `json:"overhead"`
	// MetricsUpdated is false when Latency and Overhead were intentionally
	// left empty so that the previous values stay on screen.
	MetricsUpdated bool `json:"metrics_updated"`
}

// Clone returns a deep copy of d.
func (d DisplayModel) Clone() DisplayModel {
	out := DisplayModel{
		Mode:           d.Mode,
		Latency:        make(map[Backend]string, len(d.Latency)),
		Overhead:       make(map[Backend]Overhead, len(d.Overhead)),
		MetricsUpdated: d.MetricsUpdated,
	}
	for k, v := range d.Latency {
		out.Latency[k] = v
	}
	for k, v := range d.Overhead {
		out.Overhead[k] = v
	}
	return out
}

func newDisplayModel(mode Mode) DisplayModel {
	return DisplayModel{
		Mode:     mode,
		Latency:  make(map[Backend]string, len(Backends)),
		Overhead: make(map[Backend]Overhead, len(Comparators)),
	}
}
