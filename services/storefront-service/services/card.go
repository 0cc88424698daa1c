package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/yashrajoria/E-Commerce-storefront/services/common/errors"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
)

var (
	cardNumberPattern = regexp.MustCompile(`^\d{16}$`)
	expiryPattern     = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{2})$`)
	cvvPattern        = regexp.MustCompile(`^\d{3}$`)
)

// ValidateCard checks card input at now and returns it with spaces stripped
// from the number. Expiry is valid through the end of its month.
func ValidateCard(card models.CardDetails, now time.Time) (models.CardDetails, error) {
	card.CardNumber = strings.ReplaceAll(card.CardNumber, " ", "")
	card.CardHolderName = strings.TrimSpace(card.CardHolderName)
	card.ExpiryDate = strings.TrimSpace(card.ExpiryDate)
	card.CVV = strings.TrimSpace(card.CVV)

	if !cardNumberPattern.MatchString(card.CardNumber) {
		return card, apperrors.FieldValidation("cardNumber", "Card number must be 16 digits")
	}
	if card.CardHolderName == "" {
		return card, apperrors.FieldValidation("cardHolderName", "Card holder name is required")
	}

	m := expiryPattern.FindStringSubmatch(card.ExpiryDate)
	if m == nil {
		return card, apperrors.FieldValidation("expiryDate", "Expiry date must be in MM/YY format")
	}
	month, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])
	year += 2000
	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return card, apperrors.FieldValidation("expiryDate", "Card has expired")
	}

	if !cvvPattern.MatchString(card.CVV) {
		return card, apperrors.FieldValidation("cvv", "CVV must be 3 digits")
	}
	return card, nil
}
