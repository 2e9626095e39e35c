package catalog

import "errors"

// Sentinel errors returned by Catalog methods. Callers (httpapi,
// wsfanout) translate these into the wire-level {code, reason} shape;
// the catalog itself stays free of transport concerns.
var (
	errSessionNotFound  = errors.New("session_not_found")
	errSessionExpiredErr = errors.New("session_expired")
	errRoomFullErr       = errors.New("room_full")
	errRoomNotFoundErr   = errors.New("room_not_found")
	errPlayerNotFound    = errors.New("player_not_found")
)

// Exported so other packages can errors.Is against them without
// depending on unexported identifiers.
var (
	ErrSessionNotFound = errSessionNotFound
	ErrSessionExpired  = errSessionExpiredErr
	ErrRoomFull        = errRoomFullErr
	ErrRoomNotFound    = errRoomNotFoundErr
	ErrPlayerNotFound  = errPlayerNotFound
)
