// Package reviews is the local journal of submitted ratings.
//
// Every rating the service accepts is appended here so the CLI can show a
// per-session history without another round trip. The journal is
// append-only; the service stays the source of truth for scheduling.
//
//	repo := reviews.NewSQLiteRepository(db)
//	_ = repo.Append(ctx, rec)
//	list, _ := repo.ListBySession(ctx, sessionID)
//	sum, _ := repo.Summarize(ctx, sessionID)
package reviews
