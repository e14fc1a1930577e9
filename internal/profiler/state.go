package profiler

import "github.com/samvad-hq/samvad-name-profiler/internal/domain"

// Phase is the coarse lifecycle position of an orchestrator.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseLoading    Phase = "loading"
	PhaseDisplaying Phase = "displaying"
	PhaseErrorShown Phase = "error_shown"
)

// ProgressText is shown while a submission is in flight.
const ProgressText = "Getting Data..."

// State is a point-in-time copy of everything the page renders.
type State struct {
	Phase       Phase          `json:"phase"`
	Name        string         `json:"name"`
	QueryName   string         `json:"query_name"`
	NameChanged bool           `json:"name_changed"`
	Loading     bool           `json:"loading"`
	Profile     domain.Profile `json:"profile"`
	Message     string         `json:"message"`
}

// View is the display decision derived from a State.
type View struct {
	Sentence string `json:"sentence,omitempty"`
	Progress string `json:"progress,omitempty"`
	Message  string `json:"message,omitempty"`
}

// View decides what the page shows. The sentence needs a settled, unedited, complete profile
// and names the trimmed name the profile was fetched for.
func (s State) View() View {
	v := View{Message: s.Message}
	switch {
	case !s.Loading && !s.NameChanged && s.Profile.Complete():
		v.Sentence = s.Profile.Sentence(s.QueryName)
	case s.Loading:
		v.Progress = ProgressText
	}
	return v
}

func initialState() State {
	return State{Phase: PhaseIdle, Profile: domain.NewProfile()}
}
