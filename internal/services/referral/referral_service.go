package referral

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/jobsetu/backend/internal/models"
	"github.com/jobsetu/backend/internal/queue"
	"github.com/jobsetu/backend/internal/services/ledger"
	"github.com/jobsetu/backend/internal/utils"
	"gorm.io/gorm"
)

var (
	// ErrInvalidContact rejects numbers that do not normalize to a
	// 10-digit mobile number starting with 6-9.
	ErrInvalidContact = errors.New("invalid contact number")

	// ErrDuplicateContact rejects a number appearing twice in one set.
	ErrDuplicateContact = errors.New("contact number already in referral set")

	// ErrContactRegistered rejects adding a number that already belongs to
	// a registered account.
	ErrContactRegistered = errors.New("contact number belongs to a registered account")

	// ErrTooManyContacts rejects sets larger than ten numbers.
	ErrTooManyContacts = errors.New("referral set is limited to 10 contacts")
)

const (
	// RewardThreshold is the registered-contact count that triggers the
	// one-time reward.
	RewardThreshold = 5

	// rewardBalanceFloor: the reward is only given while the user's live
	// balance sits below this, or the record has expired.
	rewardBalanceFloor = 10

	// DefaultRewardCoins is the fallback when no ReferConfig row exists.
	DefaultRewardCoins = 8000

	// rewardValidityDays is the window granted with the reward.
	rewardValidityDays = 365
)

// ContactStatus is one referral slot with its registration state.
type ContactStatus struct {
	Number     string `json:"number"`
	Registered bool   `json:"registered"`
}

// SetView is the referral set as returned to clients.
type SetView struct {
	FirebaseUID     string          `json:"firebase_uid"`
	Contacts        []ContactStatus `json:"contacts"`
	RegisteredCount int             `json:"registered_count"`
	RewardGranted   bool            `json:"reward_granted"`
}

// Service manages referral sets and the registration reward.
type Service struct {
	db     *gorm.DB
	ledger *ledger.Service
	queue  queue.Enqueuer
}

// NewService creates a new referral service.
func NewService(db *gorm.DB, ledgerSvc *ledger.Service, q queue.Enqueuer) *Service {
	return &Service{db: db, ledger: ledgerSvc, queue: q}
}

// GetSet returns a user's referral set with freshly computed registration
// flags, or an empty view when no set exists yet.
func (s *Service) GetSet(firebaseUID string) (*SetView, error) {
	var set models.ReferralSet
	err := s.db.Where("firebase_uid = ?", firebaseUID).First(&set).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &SetView{FirebaseUID: firebaseUID, Contacts: []ContactStatus{}}, nil
		}
		return nil, fmt.Errorf("error finding referral set: %w", err)
	}
	return s.buildView(&set)
}

// SaveSet rewrites a user's full referral set. Every number is validated,
// duplicates are rejected, and numbers not carried over from the previous
// set must not belong to a registered account. After the write the
// registered subset is recomputed and reward eligibility re-run.
func (s *Service) SaveSet(firebaseUID string, rawContacts []string) (*SetView, error) {
	if len(rawContacts) > models.MaxReferralContacts {
		return nil, ErrTooManyContacts
	}

	contacts := make([]string, 0, len(rawContacts))
	seen := make(map[string]struct{})
	for _, raw := range rawContacts {
		if raw == "" {
			continue
		}
		normalized := utils.NormalizePhone(raw)
		if !utils.IsValidContactNumber(normalized) {
			return nil, ErrInvalidContact
		}
		if _, dup := seen[normalized]; dup {
			return nil, ErrDuplicateContact
		}
		seen[normalized] = struct{}{}
		contacts = append(contacts, normalized)
	}

	var set models.ReferralSet
	err := s.db.Where("firebase_uid = ?", firebaseUID).First(&set).Error
	isNew := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !isNew {
		return nil, fmt.Errorf("error finding referral set: %w", err)
	}

	previous := make(map[string]struct{})
	if !isNew {
		for _, c := range set.Contacts() {
			previous[c] = struct{}{}
		}
	}

	// Numbers kept from the previous set may have registered since they
	// were added; only genuinely new numbers are gated.
	var added []string
	for _, c := range contacts {
		if _, kept := previous[c]; !kept {
			added = append(added, c)
		}
	}
	if len(added) > 0 {
		registered, err := s.registeredSubset(added)
		if err != nil {
			return nil, err
		}
		if len(registered) > 0 {
			return nil, ErrContactRegistered
		}
	}

	set.FirebaseUID = firebaseUID
	set.SetContacts(contacts)
	set.IsActive = 1

	if isNew {
		if err := s.db.Create(&set).Error; err != nil {
			return nil, fmt.Errorf("error creating referral set: %w", err)
		}
	} else {
		if err := s.db.Save(&set).Error; err != nil {
			return nil, fmt.Errorf("error updating referral set: %w", err)
		}
	}

	view, err := s.buildView(&set)
	if err != nil {
		return nil, err
	}

	if err := s.evaluateReward(&set, view.RegisteredCount); err != nil {
		log.Printf("Referral reward evaluation failed for %s: %v", firebaseUID, err)
	}

	// Re-read the idempotency flag so the response reflects a grant that
	// just happened.
	view.RewardGranted = set.RewardGranted
	return view, nil
}

// Sweep re-checks registration for every active referral set that has
// contacts and no reward yet. It replaces the frontend's 60-second poll.
func (s *Service) Sweep() error {
	var sets []models.ReferralSet
	err := s.db.
		Where("is_active = ? AND reward_granted = ? AND contact1 <> ''", 1, false).
		Find(&sets).Error
	if err != nil {
		return fmt.Errorf("error loading referral sets: %w", err)
	}

	for i := range sets {
		set := &sets[i]
		registered, err := s.registeredSubset(set.Contacts())
		if err != nil {
			log.Printf("Referral sweep: registration check failed for %s: %v", set.FirebaseUID, err)
			continue
		}
		if err := s.evaluateReward(set, len(registered)); err != nil {
			log.Printf("Referral sweep: reward evaluation failed for %s: %v", set.FirebaseUID, err)
		}
	}
	return nil
}

// CanGiveReward is the eligibility predicate on the ledger side: the user's
// general record is expired or its balance is below the floor.
func (s *Service) CanGiveReward(firebaseUID string) (bool, error) {
	record, err := s.ledger.GetRecord(firebaseUID)
	if err != nil {
		return false, err
	}
	if record == nil {
		return true, nil
	}
	now := time.Now()
	return record.ExpiredAt(now) || record.CoinValue < rewardBalanceFloor, nil
}

// evaluateReward grants the one-time reward when the thresholds pass. The
// persisted reward_granted flag plus the unique reward row make the grant
// idempotent across requests, reloads and instances.
func (s *Service) evaluateReward(set *models.ReferralSet, registeredCount int) error {
	if set.RewardGranted || registeredCount < RewardThreshold {
		return nil
	}

	eligible, err := s.CanGiveReward(set.FirebaseUID)
	if err != nil {
		return err
	}
	if !eligible {
		return nil
	}

	coins := s.ledger.ReferCouponValue(DefaultRewardCoins)
	now := time.Now()

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	reward := models.ReferralReward{
		FirebaseUID:     set.FirebaseUID,
		CoinValue:       coins,
		RegisteredCount: registeredCount,
		GrantedAt:       now,
	}
	if err := tx.Create(&reward).Error; err != nil {
		// unique index: a concurrent grant won the race
		tx.Rollback()
		return nil
	}

	set.RewardGranted = true
	set.RewardGrantedAt = &now
	if err := tx.Save(set).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("error marking reward granted: %w", err)
	}

	if _, err := s.ledger.CreditWithTx(tx, set.FirebaseUID, coins, "refer", rewardValidityDays, true, false); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("error committing reward transaction: %w", err)
	}

	if _, err := s.queue.EnqueueJob(queue.JobTypeAppendCoinHistory, queue.CoinHistoryJobPayload{
		FirebaseUID: set.FirebaseUID,
		CoinValue:   coins,
		Reason:      "10 members registered from refer",
	}); err != nil {
		log.Printf("Failed to enqueue referral reward history: %v", err)
	}

	var user models.User
	if err := s.db.Where("firebase_uid = ?", set.FirebaseUID).First(&user).Error; err == nil && user.PhoneNumber != "" {
		if _, err := s.queue.EnqueueJob(queue.JobTypeSendNotification, queue.NotificationJobPayload{
			Phone:    user.PhoneNumber,
			Channel:  "all",
			Template: "referral_reward",
			Params: map[string]string{
				"name":  user.Name,
				"coins": strconv.FormatInt(coins, 10),
			},
		}); err != nil {
			log.Printf("Failed to enqueue referral reward notification: %v", err)
		}
	}

	return nil
}

// registeredSubset returns the contacts that belong to registered accounts.
// Stored phone numbers may carry a +91/91/0 prefix, so each contact is
// matched against its common variants.
func (s *Service) registeredSubset(contacts []string) ([]string, error) {
	if len(contacts) == 0 {
		return nil, nil
	}

	variants := make([]string, 0, len(contacts)*4)
	for _, c := range contacts {
		variants = append(variants, c, "+91"+c, "91"+c, "0"+c)
	}

	var users []models.User
	if err := s.db.Where("phone_number IN ?", variants).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("error checking registered contacts: %w", err)
	}

	registered := make(map[string]struct{}, len(users))
	for _, u := range users {
		registered[utils.NormalizePhone(u.PhoneNumber)] = struct{}{}
	}

	var matched []string
	for _, c := range contacts {
		if _, ok := registered[c]; ok {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

func (s *Service) buildView(set *models.ReferralSet) (*SetView, error) {
	contacts := set.Contacts()
	registered, err := s.registeredSubset(contacts)
	if err != nil {
		return nil, err
	}

	registeredSet := make(map[string]struct{}, len(registered))
	for _, r := range registered {
		registeredSet[r] = struct{}{}
	}

	statuses := make([]ContactStatus, 0, len(contacts))
	for _, c := range contacts {
		_, ok := registeredSet[c]
		statuses = append(statuses, ContactStatus{Number: c, Registered: ok})
	}

	return &SetView{
		FirebaseUID:     set.FirebaseUID,
		Contacts:        statuses,
		RegisteredCount: len(registered),
		RewardGranted:   set.RewardGranted,
	}, nil
}
