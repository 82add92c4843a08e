// Package resolver fills the venue locations table from the venue registry.
//
// Venues are tried against the Untappd checkin page first and the
// Foursquare name search second. The first service that returns usable
// facts supplies the whole row; fields from the two services are never
// mixed. Rows that stay missing are retried on every run, and a service
// that keeps failing transiently is benched for the rest of the run.
package resolver
