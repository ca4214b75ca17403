package domain

type User struct {
	ID           int32  `json:"id"`
	RollNo       string `json:"roll_no"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Semester     string `json:"semester"`
	Department   string `json:"department"`
	PasswordHash string `json:"-"`
	CreatedOn    string `json:"created_on"`
}

// Profile holds the user-editable public profile. It is created lazily with
// defaults the first time it is read.
type Profile struct {
	UserID       int32  `json:"user_id"`
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	Bio          string `json:"bio"`
	Website      string `json:"website"`
	SocialHandle string `json:"social_handle"`
	ProfileImage string `json:"profile_image"`
	CoverImage   string `json:"cover_image"`
	LastActive   string `json:"last_active"`
}
