// Package clock is the single source of "now". Goal periods, calendar windows
// and reminder schedules read it in the app timezone (app.tz).
package clock
