package management

import "time"

// ApiKey is the credential an application presents to consume an API.
// The key value itself is the identity; it is caller-supplied and
// immutable once created. Nullable timestamps are nil when unset.
type ApiKey struct {
	Key          string
	Application  string
	Subscription string
	Plan         string
	CreatedAt    *time.Time
	UpdatedAt    *time.Time
	ExpireAt     *time.Time
	RevokedAt    *time.Time
	Revoked      bool
}

// ApiKeyCriteria filters keys in ApiKeyRepository.FindByCriteria.
//
// Plans is mandatory for a non-empty result: with no plan ids the
// search short-circuits to empty without touching the store. From/To
// bound updatedAt inclusively, both in epoch milliseconds; zero means
// no bound, and the range only applies when both are set.
type ApiKeyCriteria struct {
	Plans          []string
	From           int64
	To             int64
	IncludeRevoked bool
}
