// Package lib holds modules that do not fit strictly into a layer: the
// Asynq background jobs (lib/job) and the spreadsheet export (lib/export).
package lib
