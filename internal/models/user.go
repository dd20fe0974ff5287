package models

// User types as stored in the login directory. The column is free text and
// compared case-insensitively, so these constants cover the common values only.
const (
	UserTypeCandidate = "candidate"
	UserTypeEmployer  = "employer"
)

// User is a row in the login directory. Users are identified everywhere by
// the opaque firebase_uid issued by the external auth provider.
type User struct {
	Base
	FirebaseUID string `gorm:"type:varchar(128);uniqueIndex;not null" json:"firebase_uid"`
	UserType    string `gorm:"type:varchar(50)" json:"user_type"`
	Name        string `gorm:"type:varchar(255)" json:"name"`
	Email       string `gorm:"type:varchar(255);index" json:"email"`
	PhoneNumber string `gorm:"type:varchar(20);index" json:"phone_number"`
}

// Organisation is an employer profile. Its ID is what coin history rows
// record as candidate_id for employer-type users.
type Organisation struct {
	Base
	FirebaseUID string `gorm:"type:varchar(128);uniqueIndex;not null" json:"firebase_uid"`
	Name        string `gorm:"type:varchar(255)" json:"name"`
	Email       string `gorm:"type:varchar(255)" json:"email"`
	PhoneNumber string `gorm:"type:varchar(20)" json:"phone_number"`
}
