package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gymhub/api/internal/apperr"
	"gymhub/api/internal/models"
	"gymhub/api/internal/repository"
)

// Username candidates are generated from the email local part. When two
// registrations race on the same base the unique constraint rejects the
// loser and it retries with the next counter; the bound guards against
// pathological contention, not normal operation.
const maxUsernameAttempts = 20

const usernameFallback = "medlem"

// Local parts shorter than this make poor usernames; the member's name is
// used instead.
const minUsernameBaseLen = 2

func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// usernameBase picks the base for generated usernames: the sanitized email
// local part, or the sanitized first+last name when the local part is too
// short (an address like a@b.com yields "ab", not "a").
func usernameBase(account models.Account) string {
	local := account.Email
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}

	base := sanitizeUsername(local)
	if len(base) >= minUsernameBaseLen {
		return base
	}
	if names := sanitizeUsername(account.FirstName + account.LastName); len(names) >= minUsernameBaseLen {
		return names
	}
	if base != "" {
		return base
	}
	return usernameFallback
}

// createWithDerivedUsername inserts the account, deriving the username and
// advancing the collision counter on each duplicate-username constraint
// violation.
func createWithDerivedUsername(ctx context.Context, store AccountStore, account models.Account) (models.Account, error) {
	base := usernameBase(account)

	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = base + strconv.Itoa(attempt)
		}
		account.Username = &candidate

		err := store.Create(ctx, account)
		if err == nil {
			return account, nil
		}
		if errors.Is(err, repository.ErrDuplicateUsername) {
			continue
		}
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return models.Account{}, apperr.New(apperr.KindConflict, apperr.MsgEmailTaken)
		}
		return models.Account{}, err
	}

	return models.Account{}, apperr.Internal(errors.New("username candidates exhausted"))
}
