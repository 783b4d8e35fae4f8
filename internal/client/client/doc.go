// Package client is the boundary to the external scheduling service.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface): sessions,
//     next-card selection, review submission, deck and card CRUD, statistics.
//  2. A concrete HTTP/JSON implementation (see HTTPClient) that bounds every
//     call with a timeout, tags it with an X-Request-ID and classifies every
//     failure into one of the error kinds below.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations, NewRepositories)
//     wiring an SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
//   - ErrUnavailable: no response reached the client.
//   - *ServiceError: the service answered with a structured failure.
//   - ErrProtocol: the service reported success but omitted the payload.
//
// UserMessage turns any of them into text fit for the terminal, IsFatal
// tells whether a review flow must end the session, IsNoMoreCards detects
// the end of a deck.
//
// The client holds no study state; every call is a fresh request.
package client
