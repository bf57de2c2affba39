// Package scheduler decides when a sync pass runs.
//
// Triggers come from the cron schedule, process launch, the connectivity
// probe noticing the network came back, local database changes and explicit
// requests. At most one sync is in flight; a trigger that arrives meanwhile
// is dropped because the running pass will pick up its work. Failed passes
// are retried with capped exponential backoff until they succeed or fail
// permanently.
package scheduler
