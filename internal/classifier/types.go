package classifier

// ItemCode identifies one invader, e.g. "PA_1138".
type ItemCode = string

// UpdateKind is the action a news entry reports for a set of invaders.
type UpdateKind string

const (
	KindAddition     UpdateKind = "addition"
	KindDegradation  UpdateKind = "degradation"
	KindDestruction  UpdateKind = "destruction"
	KindReactivation UpdateKind = "reactivation"
	KindRestoration  UpdateKind = "restoration"
	KindStatusUpdate UpdateKind = "status_update"
	KindAlert        UpdateKind = "alert"
	KindOther        UpdateKind = "other"
)

const (
	ColorYellow = "#ffff00"
	ColorRed    = "#ff0000"
	ColorGreen  = "#00ff00"
)

// Color returns the display color for the kind, or "" when the device default applies.
func (k UpdateKind) Color() string {
	switch k {
	case KindDegradation:
		return ColorYellow
	case KindDestruction:
		return ColorRed
	case KindAddition, KindReactivation:
		return ColorGreen
	default:
		return ""
	}
}

// Update ties one action to the invaders it applies to. Codes is never empty.
type Update struct {
	Kind  UpdateKind `json:"type" yaml:"type"`
	Codes []ItemCode `json:"invaders" yaml:"invaders"`
}
