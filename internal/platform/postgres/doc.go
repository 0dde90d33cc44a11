// Package postgres stores the credit ledger behind admission control. It
// opens the database through the pgx stdlib driver, applies the embedded goose
// migrations at startup, and implements admission.Gate.
package postgres
