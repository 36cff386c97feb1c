// Package mongo implements storage.RemoteStore on MongoDB.
//
// Each user owns one document in the users collection:
//
//	{_id: <userID>, storage: {<key>: <value>, ...}, lastUpdated: <server time>}
//
// Keys are escaped before they become field names because MongoDB treats
// "." and "$" specially in update paths. Subscribe uses a change stream and
// therefore needs a replica set or sharded cluster.
package mongo
