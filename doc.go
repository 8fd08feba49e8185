// Package ipbauth authenticates host application users against a legacy
// Invision Power Board (IPB) forum database and keeps the host's local user
// records in sync with the forum.
//
// Authentication:
//   - Provider.Authenticate resolves the submitted username against the forum
//     members table (space/underscore tolerant, case-insensitive, matching
//     either name or email), applies the temporary ban filter on IPB 4+
//     schemas and verifies the password with whichever of the three legacy
//     hash generations the stored salt selects.
//   - The verdict is a Result: Pass carries the host canonical username, Fail
//     carries one of the reason codes db-access-error, db-error,
//     no-user-error or unexpected-error.
//
// Profile sync:
//   - Provider.OnLoginCompleted (SynchronizeProfile) copies email, email
//     confirmation state and display name from the forum, then reconciles the
//     configured GroupMap against the member's primary and secondary groups.
//     Every mapped group is recomputed on each call, so memberships are
//     removed as well as granted.
//
// The forum database is only ever read. Each operation acquires a single
// connection from the ForumConnector and releases it before returning.
package ipbauth
