package auth

// Context holds authentication data to be passed to templates
type Context struct {
	IsAuthenticated bool
	IsAdmin         bool
	Landing         string
	User            *UserData
}

// UserData contains user information for templates
type UserData struct {
	ID       string
	Name     string
	Email    string
	ImageURL string
	HasImage bool
	Role     string
	UserType string
	Initials string
}

// NewContext converts a session into the template auth context.
func NewContext(s Session, assetURL func(string) string) *Context {
	if s.IsAbsent() {
		return &Context{}
	}

	p := s.Profile()
	imageURL := p.Image
	if assetURL != nil {
		imageURL = assetURL(p.Image)
	}

	return &Context{
		IsAuthenticated: true,
		IsAdmin:         s.Kind() == KindAdmin,
		Landing:         LandingPath(s),
		User: &UserData{
			ID:       p.ID,
			Name:     displayName(p),
			Email:    p.Email,
			ImageURL: imageURL,
			HasImage: imageURL != "",
			Role:     string(s.Role()),
			UserType: string(s.UserType()),
			Initials: initials(displayName(p)),
		},
	}
}

func displayName(p Profile) string {
	if p.Name != "" {
		return p.Name
	}
	if p.Email != "" {
		return p.Email
	}
	return "User"
}

func initials(name string) string {
	out := make([]rune, 0, 2)
	startOfWord := true
	for _, r := range name {
		if r == ' ' {
			startOfWord = true
			continue
		}
		if startOfWord {
			out = append(out, r)
			if len(out) == 2 {
				break
			}
		}
		startOfWord = false
	}
	return string(out)
}
