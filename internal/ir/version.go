package ir

// Version constants for the term format and the toolkit.
const (
	// TermFormatVersion is the version of the textual term format sent to the backend.
	TermFormatVersion = "1"

	// ToolkitVersion is the zkpy toolkit version.
	ToolkitVersion = "0.1.0"
)
