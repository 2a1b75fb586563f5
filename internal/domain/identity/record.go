package identity

import (
	"strings"

	"github.com/BruksfildServices01/massage-booking/internal/models"
)

// Record is what an email resolves to: a unified user, or a customer row
// from before users were unified that has not been migrated yet.
type Record interface {
	isRecord()
}

type UnifiedRecord struct {
	User *models.User
}

type LegacyRecord struct {
	Customer *models.LegacyCustomer
}

func (UnifiedRecord) isRecord() {}
func (LegacyRecord) isRecord()  {}

// Resolution is the outcome of resolving a customer by email.
type Resolution struct {
	User      *models.User
	IsNewUser bool
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
