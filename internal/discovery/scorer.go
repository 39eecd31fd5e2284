package discovery

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/models"
)

// Score weights. The total tops out at 100 today; MaxScore clamps future additions.
const (
	scoreEmail      = 40
	scoreValidEmail = 10
	scoreName       = 20
	scoreCompany    = 15
	scorePhone      = 10
	scoreWebsite    = 5

	MaxScore = 100
)

var emailValidator = validator.New()

// Score rates how complete a candidate is, from 0 to 100.
func Score(c models.Candidate) int {
	score := 0
	if c.HasEmail() {
		score += scoreEmail
		if IsValidEmail(c.Email) {
			score += scoreValidEmail
		}
	}
	if present(c.Name) {
		score += scoreName
	}
	if present(c.Company) {
		score += scoreCompany
	}
	if present(c.Phone) {
		score += scorePhone
	}
	if present(c.Website) {
		score += scoreWebsite
	}
	return min(score, MaxScore)
}

// IsValidEmail applies the strict address check used for scoring and lead validation.
func IsValidEmail(email string) bool {
	return emailValidator.Var(email, "required,email") == nil
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}
