package domain

// Alumni is the canonical applicant profile. AlumniID is assigned once at first
// creation and never changes afterwards.
type Alumni struct {
	AlumniID       string `json:"alumni_id"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	SchoolID       int32  `json:"school_id"`
	GraduationYear string `json:"graduation_year"`
	AdmissionYear  string `json:"admission_year"`
	Bio            string `json:"bio"`
	Position       string `json:"position"`
	Company        string `json:"company"`
	LinkedInURL    string `json:"linkedin_url"`
	TwitterURL     string `json:"twitter_url"`
	WebsiteURL     string `json:"website_url"`
	CreatedOn      string `json:"created_on"`
	UpdatedOn      string `json:"updated_on"`
}

// Profile holds the submitted, non-key attributes of an alumni record.
type Profile struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	SchoolID       int32  `json:"school_id"`
	GraduationYear string `json:"graduation_year"`
	AdmissionYear  string `json:"admission_year"`
	Bio            string `json:"bio"`
	Position       string `json:"position"`
	Company        string `json:"company"`
	LinkedInURL    string `json:"linkedin_url"`
	TwitterURL     string `json:"twitter_url"`
	WebsiteURL     string `json:"website_url"`
}

// ApplyProfile replaces every non-key attribute with the submitted values.
func (a *Alumni) ApplyProfile(p Profile) {
	a.FullName = p.FullName
	a.Email = p.Email
	a.Phone = p.Phone
	a.SchoolID = p.SchoolID
	a.GraduationYear = p.GraduationYear
	a.AdmissionYear = p.AdmissionYear
	a.Bio = p.Bio
	a.Position = p.Position
	a.Company = p.Company
	a.LinkedInURL = p.LinkedInURL
	a.TwitterURL = p.TwitterURL
	a.WebsiteURL = p.WebsiteURL
}

// AlumniFilter narrows an alumni scan. Empty fields are ignored.
type AlumniFilter struct {
	Name           string
	Email          string
	SchoolID       int32
	GraduationYear string
	IDs            []string
	Limit          int32
	Offset         int32
}
