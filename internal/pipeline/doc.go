// Package pipeline runs the daily sales report.
//
// A run loads the transaction workbook, aggregates it by salesperson and by
// region, renders two bar charts, writes the consolidated workbook and the
// PDF report, and finally e-mails workbook and PDF. Every step before
// delivery aborts the run on failure. Delivery failures are logged and
// recorded in the RunResult only.
package pipeline
