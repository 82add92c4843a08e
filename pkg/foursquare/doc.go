// Package foursquare wraps the Foursquare v2 venues API.
//
// Search is the normal-quota lookup: a name query near the configured home
// coordinates, answered from the first result whose name matches and that
// carries usable location data. SearchGlobal and Details are the elevated
// endpoints the weekly sweep uses to fill rows the normal lookup could not.
// All calls share one interval limiter so the client never exceeds the API
// pace regardless of caller.
package foursquare
