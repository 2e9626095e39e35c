package httpapi

import (
	"errors"

	"dicehall/internal/apperr"
	"dicehall/internal/catalog"
)

// mapCatalogErrHTTP translates catalog sentinel errors into the wire
// {code, reason} shape for the HTTP surface, mirroring wsfanout's own
// mapCatalogErr for the WebSocket surface.
func mapCatalogErrHTTP(err error) *apperr.Error {
	switch {
	case errors.Is(err, catalog.ErrSessionExpired):
		return apperr.ErrSessionExpired
	case errors.Is(err, catalog.ErrSessionNotFound), errors.Is(err, catalog.ErrRoomNotFound):
		return apperr.ErrRoomNotFound
	case errors.Is(err, catalog.ErrRoomFull):
		return apperr.ErrRoomFull
	case errors.Is(err, catalog.ErrPlayerNotFound):
		return apperr.ErrPlayerNotFound
	default:
		return apperr.From(err)
	}
}
