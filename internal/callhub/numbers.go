package callhub

import (
	"context"
	"time"
)

// rentMinInterval throttles number rental, which CallHub bills per call.
const rentMinInterval = time.Minute

// ListRentedNumbers lists rented calling numbers (caller IDs).
func (s *Service) ListRentedNumbers(ctx context.Context, acct string) (Result, error) {
	return s.get(ctx, acct, "v1/numbers/rented_calling_numbers/", nil)
}

// ListValidatedNumbers lists validated personal numbers usable as caller IDs.
func (s *Service) ListValidatedNumbers(ctx context.Context, acct string) (Result, error) {
	return s.get(ctx, acct, "v1/numbers/validated_numbers/", nil)
}

// RentNumber rents a new phone number. countryISO is required; prefix and
// areaCode are optional. Subject to the one-per-minute domain rate limit.
func (s *Service) RentNumber(ctx context.Context, acct, countryISO, areaCode, prefix string, setupFee bool) (Result, error) {
	if countryISO == "" {
		return nil, &MissingFieldError{Field: "countryIso"}
	}
	body := map[string]any{"country_iso": countryISO}
	if areaCode != "" {
		body["phone_number_prefix"] = areaCode
	}
	if prefix != "" {
		body["prefix"] = prefix
	}
	body["setup_fee"] = setupFee
	return s.postJSON(ctx, acct, "v1/numbers/rent/", body, rentMinInterval)
}
