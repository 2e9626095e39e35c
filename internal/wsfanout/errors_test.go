package wsfanout

import (
	"fmt"
	"testing"

	"dicehall/internal/apperr"
	"dicehall/internal/catalog"
)

func TestMapCatalogErrTranslatesSentinels(t *testing.T) {
	cases := []struct {
		in   error
		want *apperr.Error
	}{
		{catalog.ErrSessionExpired, apperr.ErrSessionExpired},
		{catalog.ErrSessionNotFound, apperr.ErrRoomNotFound},
		{catalog.ErrRoomNotFound, apperr.ErrRoomNotFound},
		{catalog.ErrRoomFull, apperr.ErrRoomFull},
		{catalog.ErrPlayerNotFound, apperr.ErrPlayerNotFound},
	}
	for _, c := range cases {
		if got := mapCatalogErr(c.in); got != c.want {
			t.Errorf("mapCatalogErr(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestMapCatalogErrFallsBackToInternalForUnknownErrors(t *testing.T) {
	got := mapCatalogErr(fmt.Errorf("some unrelated failure"))
	if got == nil || got.HTTPStatus != apperr.ErrInternal.HTTPStatus {
		t.Fatalf("expected an internal-error fallback, got %+v", got)
	}
}
