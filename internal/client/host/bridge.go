// Package host connects the client to whatever embeds it.
//
// A Bridge answers the questions the core cannot answer alone (is leaving
// allowed, what should the session be called). A CommandPort carries
// requests the other way: the host enqueues commands and the client drains
// them between user actions.
package host

// Bridge is implemented by the embedding host. All methods may block on user
// interaction.
type Bridge interface {
	HasActiveSession() bool
	// ConfirmNavigation asks whether the active session may be ended so the
	// user can leave the review.
	ConfirmNavigation() bool
	// EndSession notifies the host that the session was ended by navigation.
	EndSession()
	// PromptForSessionName returns the chosen name, or false when the user
	// cancelled.
	PromptForSessionName(message, def string) (string, bool)
}
