package domain

// Institution is a school whose compliance office uses the dashboard.
type Institution struct {
	ID      string
	Name    string
	LogoURL string
}

// Officer is an authenticated compliance officer and the institution they
// are assigned to.
type Officer struct {
	UserID      string
	Name        string
	Title       string
	Institution Institution
}

// DefaultInstitutionName labels an institution with no recorded name.
const DefaultInstitutionName = "Your Institution"
