package session

// FlashKind selects how a flash message is styled.
type FlashKind string

const (
	FlashError   FlashKind = "error"
	FlashSuccess FlashKind = "success"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    FlashKind
	Message string
}

// ResetStep is the stage of the forgot-password flow.
type ResetStep int

const (
	ResetRequestCode ResetStep = iota
	ResetVerifyCode
	ResetNewPassword
	ResetDone
)

// ResetState carries the forgot-password flow between requests.
type ResetState struct {
	Step  ResetStep
	Email string
	Code  string
}

// Visitor is what the server remembers about a browser, signed into its
// own cookie. It never holds backend credentials.
type Visitor struct {
	ID    string
	Saved []string
	Reset *ResetState
}

// IsSaved reports whether workspaceID is in the visitor's saved list.
func (v *Visitor) IsSaved(workspaceID string) bool {
	for _, id := range v.Saved {
		if id == workspaceID {
			return true
		}
	}
	return false
}

// ToggleSaved adds or removes workspaceID and reports whether it is now saved.
func (v *Visitor) ToggleSaved(workspaceID string) bool {
	for i, id := range v.Saved {
		if id == workspaceID {
			v.Saved = append(v.Saved[:i], v.Saved[i+1:]...)
			return false
		}
	}
	v.Saved = append(v.Saved, workspaceID)
	return true
}
