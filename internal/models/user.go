package models

import "time"

type Gender string

const (
	GenderMan       Gender = "Man"
	GenderWoman     Gender = "Woman"
	GenderNonBinary Gender = "Non-binary"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMan, GenderWoman, GenderNonBinary:
		return true
	}
	return false
}

const (
	MinAge = 15
	MaxAge = 120

	MinFirstNameLength = 2
	MaxNameLength      = 20
)

type ProfileImage struct {
	Key            string
	ContentType    string
	IsUserUploaded bool
	Version        int
}

type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash []byte
	DateOfBirth  *time.Time
	Age          *int
	Gender       Gender
	About        string
	Skills       []string
	ProfileImage ProfileImage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AgeOn returns the age in whole years of someone born on dob, as of now.
func AgeOn(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// DeriveAge sets Age from DateOfBirth. It must be called before every write
// that touches DateOfBirth.
func (u *User) DeriveAge(now time.Time) {
	if u.DateOfBirth == nil {
		u.Age = nil
		return
	}
	age := AgeOn(*u.DateOfBirth, now)
	u.Age = &age
}

// Profile fields checked before a user may send connection requests.
const (
	FieldSkills       = "skills"
	FieldProfileImage = "profileImage"
	FieldDateOfBirth  = "dateOfBirth"
	FieldGender       = "gender"
	FieldAbout        = "about"
)

// MissingProfileFields lists the profile fields a user still has to fill in.
func (u User) MissingProfileFields() []string {
	var missing []string
	if len(u.Skills) == 0 {
		missing = append(missing, FieldSkills)
	}
	if !u.ProfileImage.IsUserUploaded || u.ProfileImage.Key == "" {
		missing = append(missing, FieldProfileImage)
	}
	if u.DateOfBirth == nil {
		missing = append(missing, FieldDateOfBirth)
	}
	if u.Gender == "" {
		missing = append(missing, FieldGender)
	}
	if u.About == "" {
		missing = append(missing, FieldAbout)
	}
	return missing
}

// Identity is the subset of a user attached to authenticated sessions.
type Identity struct {
	ID        string
	FirstName string
	LastName  string
}

func (u User) Identity() Identity {
	return Identity{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
}
