package model

// Settings are the learner preferences persisted under the "settings" key.
type Settings struct {
	FunMode       bool    `json:"funMode"`
	ReducedMotion bool    `json:"reducedMotion"`
	FontScale     float64 `json:"fontScale"`
	DefaultTimer  int     `json:"defaultTimer"`
	PassThreshold int     `json:"passThreshold"`
	AuthorMode    bool    `json:"authorMode"`
	CloudMode     bool    `json:"cloudMode"`
}

// DefaultSettings returns the settings used when none are stored.
func DefaultSettings() Settings {
	return Settings{
		FontScale:     1,
		DefaultTimer:  60,
		PassThreshold: 70,
	}
}

// UpdateSettingsRequest is a partial settings update; nil fields are left unchanged.
type UpdateSettingsRequest struct {
	FunMode       *bool    `json:"funMode"`
	ReducedMotion *bool    `json:"reducedMotion"`
	FontScale     *float64 `json:"fontScale" binding:"omitempty,gte=0.75,lte=1.5"`
	DefaultTimer  *int     `json:"defaultTimer" binding:"omitempty,min=5,max=240"`
	PassThreshold *int     `json:"passThreshold" binding:"omitempty,min=0,max=100"`
	AuthorMode    *bool    `json:"authorMode"`
	CloudMode     *bool    `json:"cloudMode"`
}

// Apply returns s with the non-nil fields of req applied.
func (req UpdateSettingsRequest) Apply(s Settings) Settings {
	if req.FunMode != nil {
		s.FunMode = *req.FunMode
	}
	if req.ReducedMotion != nil {
		s.ReducedMotion = *req.ReducedMotion
	}
	if req.FontScale != nil {
		s.FontScale = *req.FontScale
	}
	if req.DefaultTimer != nil {
		s.DefaultTimer = *req.DefaultTimer
	}
	if req.PassThreshold != nil {
		s.PassThreshold = *req.PassThreshold
	}
	if req.AuthorMode != nil {
		s.AuthorMode = *req.AuthorMode
	}
	if req.CloudMode != nil {
		s.CloudMode = *req.CloudMode
	}
	return s
}
