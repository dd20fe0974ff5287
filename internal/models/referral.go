package models

import "time"

// MaxReferralContacts caps the per-user referral set.
const MaxReferralContacts = 10

// ReferralSet is a user's list of referred phone numbers. The ten slot
// columns mirror the wire shape (contact1..contact10); empty slots hold "".
// RewardGranted is the persisted idempotency key for the one-time reward,
// so a page reload or a second device cannot re-trigger the grant.
type ReferralSet struct {
	Base
	FirebaseUID     string     `gorm:"type:varchar(128);uniqueIndex;not null" json:"firebase_uid"`
	Contact1        string     `gorm:"type:varchar(20)" json:"contact1"`
	Contact2        string     `gorm:"type:varchar(20)" json:"contact2"`
	Contact3        string     `gorm:"type:varchar(20)" json:"contact3"`
	Contact4        string     `gorm:"type:varchar(20)" json:"contact4"`
	Contact5        string     `gorm:"type:varchar(20)" json:"contact5"`
	Contact6        string     `gorm:"type:varchar(20)" json:"contact6"`
	Contact7        string     `gorm:"type:varchar(20)" json:"contact7"`
	Contact8        string     `gorm:"type:varchar(20)" json:"contact8"`
	Contact9        string     `gorm:"type:varchar(20)" json:"contact9"`
	Contact10       string     `gorm:"type:varchar(20)" json:"contact10"`
	IsActive        int        `gorm:"default:1" json:"is_active"`
	RewardGranted   bool       `gorm:"default:false" json:"reward_granted"`
	RewardGrantedAt *time.Time `json:"reward_granted_at,omitempty"`
}

// Contacts returns the non-empty slots in order.
func (s *ReferralSet) Contacts() []string {
	all := []string{
		s.Contact1, s.Contact2, s.Contact3, s.Contact4, s.Contact5,
		s.Contact6, s.Contact7, s.Contact8, s.Contact9, s.Contact10,
	}
	contacts := make([]string, 0, len(all))
	for _, c := range all {
		if c != "" {
			contacts = append(contacts, c)
		}
	}
	return contacts
}

// SetContacts rewrites all ten slots from the given list. Callers must have
// validated the list; extra entries beyond ten are ignored.
func (s *ReferralSet) SetContacts(contacts []string) {
	slots := [MaxReferralContacts]string{}
	for i := 0; i < len(contacts) && i < MaxReferralContacts; i++ {
		slots[i] = contacts[i]
	}
	s.Contact1, s.Contact2, s.Contact3, s.Contact4, s.Contact5 = slots[0], slots[1], slots[2], slots[3], slots[4]
	s.Contact6, s.Contact7, s.Contact8, s.Contact9, s.Contact10 = slots[5], slots[6], slots[7], slots[8], slots[9]
}

// ReferralReward records a granted referral reward. The unique index on
// firebase_uid makes the grant once-ever at the database level.
type ReferralReward struct {
	Base
	FirebaseUID     string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"firebase_uid"`
	CoinValue       int64     `gorm:"not null" json:"coin_value"`
	RegisteredCount int       `json:"registered_count"`
	GrantedAt       time.Time `json:"granted_at"`
}
