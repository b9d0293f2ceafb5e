package domain

import "fmt"

// CredentialError means the token refresh failed; the whole user cycle
// is aborted and no domain runs.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential refresh failed: %v", e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// FetchError aborts a single domain run; the prior snapshot stays
// authoritative.
type FetchError struct {
	Domain string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed: %v", e.Domain, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NotifyError means one sink failed. Other sinks still run; the save
// step is skipped so the change set is recomputed next cycle.
type NotifyError struct {
	Sink string
	Err  error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify via %s failed: %v", e.Sink, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }
