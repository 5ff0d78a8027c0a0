package common

// AuthorizationHeader carries the bearer credential on requests to the
// processor API.
const AuthorizationHeader = "Authorization"

// BearerPrefix is the scheme prefix expected in AuthorizationHeader.
const BearerPrefix = "Bearer "
