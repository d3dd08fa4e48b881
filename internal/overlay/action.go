package overlay

// ActionKind is what happens when the user interacts with an overlay.
type ActionKind string

const (
	ActionNone     ActionKind = "none"
	ActionNavigate ActionKind = "navigate"
	ActionPopup    ActionKind = "popup"
)

// Action is the resolved interaction of one overlay.
type Action struct {
	Kind ActionKind `json:"kind" enum:"none,navigate,popup" doc:"Interaction type"`
	URL  string     `json:"url,omitempty" doc:"Target opened in the same window (navigate)"`
	Text string     `json:"text,omitempty" doc:"Popup content (popup)"`
}

// ResolveAction picks the interaction for an overlay. A non-empty link
// always wins over the description.
func ResolveAction(baseURL, link, description string) Action {
	switch {
	case link != "":
		return Action{Kind: ActionNavigate, URL: baseURL + link}
	case description != "":
		return Action{Kind: ActionPopup, Text: description}
	default:
		return Action{Kind: ActionNone}
	}
}

// Apply binds the action to an overlay on a surface.
func (a Action) Apply(o Overlay) {
	switch a.Kind {
	case ActionNavigate:
		o.OnClickNavigate(a.URL)
	case ActionPopup:
		o.BindPopup(a.Text)
	}
}
