package models

// TrackKind identifies what a track composites
type TrackKind string

const (
	TrackKindVideo TrackKind = "video"
	TrackKindAudio TrackKind = "audio"
)

// Track represents an ordered lane of clips composited together
type Track struct {
	ID         string                   `json:"id"`
	Kind       TrackKind                `json:"kind"`
	Name       string                   `json:"name"`
	Color      string                   `json:"color"`
	Muted      bool                     `json:"muted"`
	Soloed     bool                     `json:"soloed"`
	Opacity    float64                  `json:"opacity"`   // 0.0 to 1.0
	BlendMode  string                   `json:"blendMode"` // see BlendModes
	Clips      []Clip                   `json:"clips"`
	Effects    []map[string]interface{} `json:"effects"`    // opaque effect chain, owned by the render side
	Automation []map[string]interface{} `json:"automation"` // opaque automation lanes
}

// Clip represents a bounded placement of a source asset's sub-interval onto a
// track. It occupies the half-open on-track interval [Position, Position+Duration).
type Clip struct {
	ID       string  `json:"id"`
	AssetID  string  `json:"assetId"` // weak reference, no ownership
	TrackID  string  `json:"trackId"`
	Position float64 `json:"position"` // on-track start, seconds
	Duration float64 `json:"duration"` // seconds
	InPoint  float64 `json:"inPoint"`  // source time, seconds
	OutPoint float64 `json:"outPoint"` // source time, seconds
	Speed    float64 `json:"speed"`    // playback rate multiplier
}

// End returns the exclusive on-track end time of the clip.
func (c *Clip) End() float64 {
	return c.Position + c.Duration
}

// Contains reports whether t falls inside the clip's half-open interval.
func (c *Clip) Contains(t float64) bool {
	return t >= c.Position && t < c.End()
}

// Marker represents an independent timeline annotation
type Marker struct {
	ID    string  `json:"id"`
	Time  float64 `json:"time"` // seconds
	Label string  `json:"label"`
	Color string  `json:"color"`
}

// LoopRegion is an in/out time pair causing playback to wrap instead of stop.
// Validity (In < Out) is the caller's responsibility.
type LoopRegion struct {
	In  float64 `json:"in"`
	Out float64 `json:"out"`
}

// BlendModes lists the compositing modes the render side understands,
// bottom-to-top alpha compositing with per-track opacity.
var BlendModes = []string{
	"normal",
	"add",
	"multiply",
	"screen",
	"overlay",
	"difference",
	"exclusion",
	"darken",
	"lighten",
}

// IsValidBlendMode checks if a blend mode name is known
func IsValidBlendMode(mode string) bool {
	for _, m := range BlendModes {
		if m == mode {
			return true
		}
	}
	return false
}
