// Package store provides persistent storage for the bot using SQLite.
//
// # Interfaces
//
//   - EventStore: append-only log of inbound chat events written by the
//     audit updater
//   - TodoStore: the shared todo list behind the todo/todos/done/drop
//     commands
//
// SQLiteStore implements both on a single database; MockStore implements
// both in memory for tests.
//
// # Schema
//
// Tables are created on open if missing. Timestamps are stored as RFC3339
// text in UTC and identifiers are UUID v4 strings.
//
// # Usage
//
//	s, err := store.NewSQLiteStore(path)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	err = s.CreateTodo(ctx, &store.Todo{SpaceID: room, Description: "write docs"})
package store
