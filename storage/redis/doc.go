// Package redis implements storage.RemoteStore on Redis.
//
// A user document is a hash at flofy:doc:<userID>. Storage fields are kept
// under "s:<key>" and the hash's lastUpdated field holds the server time of
// the last write in Unix milliseconds. Every write publishes the changed key
// on flofy:changes:<userID>, which Subscribe listens to.
package redis
