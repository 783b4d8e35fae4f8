// Package cli provides the interactive gophstudy command-line client.
//
// It wires configuration, the local journal, the scheduling service client
// and the study controllers behind a line-oriented REPL. Typical flow: pick a
// deck, start a study session, then show, rate and submit cards until the
// deck is exhausted or the session is ended.
//
// Leaving the review view or quitting while a session is active goes through
// the navigation guard, which asks for confirmation when stdin is a terminal.
// Requests from an embedding host arrive on the command port and are drained
// before every prompt.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
