package services

import "errors"

// Error taxonomy for the billing core. Handlers translate these to HTTP
// statuses; everything else is treated as a persistence failure.
var (
	// ErrNotFound means the referenced project, invoice or log does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrNotAuthorized means the caller is neither client nor freelancer on the resource.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrInvalidSelection means the selected time log set is empty, contains
	// logs from another project, or logs that are already billed.
	ErrInvalidSelection = errors.New("invalid time log selection")

	// ErrInvalidTransition means the requested invoice status change is not in
	// the legal transition table.
	ErrInvalidTransition = errors.New("illegal invoice status transition")

	// ErrPaidInvoiceDelete means deletion of a paid invoice was rejected by policy.
	ErrPaidInvoiceDelete = errors.New("paid invoices cannot be deleted")

	// ErrLogBilled means a billed time log was targeted by an operation that
	// only applies to unbilled logs.
	ErrLogBilled = errors.New("time log is attached to an invoice")

	// ErrEmailTaken means the email address is already registered.
	ErrEmailTaken = errors.New("email address already registered")

	// ErrInvalidCredentials means email/password authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
