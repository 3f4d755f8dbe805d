package sheets

import "errors"

// Export errors. Remote failures are joined with the original API error so the
// service message reaches the caller unchanged.
var (
	// ErrMissingCredentials means neither a service nor a delegated credential is configured.
	ErrMissingCredentials = errors.New("no Google credentials configured")
	// ErrInvalidCredentials means a configured credential file is unreadable or malformed.
	ErrInvalidCredentials = errors.New("invalid Google credentials")
	// ErrDocumentCreationFailed means the remote service refused to create the spreadsheet.
	ErrDocumentCreationFailed = errors.New("spreadsheet creation failed")
	// ErrShareFailed means the delegated owner could not grant writer access to the service identity.
	ErrShareFailed = errors.New("granting writer access failed")
	// ErrWriteFailed means the bulk value write failed after the document was created.
	ErrWriteFailed = errors.New("writing report values failed")
	// ErrFormatFailed means the formatting batch failed after the values were written.
	ErrFormatFailed = errors.New("formatting report failed")
	// ErrInvalidRange means a column index below 1 or a malformed column label was supplied.
	ErrInvalidRange = errors.New("invalid range")
	// ErrUnknownSection means the section tag is not one of clients, deals or tasks.
	ErrUnknownSection = errors.New("unknown section")
)
