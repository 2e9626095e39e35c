package catalog

import "sort"

// RoomListing is one row of a public-room listing response.
type RoomListing struct {
	SessionID         string   `json:"sessionId"`
	RoomCode          string   `json:"roomCode"`
	RoomKind          RoomKind `json:"roomKind"`
	GameDifficulty    GameDifficulty `json:"gameDifficulty"`
	HumanCount        int      `json:"humanCount"`
	ConnectedHumans   int      `json:"connectedHumans"`
	LastActivityAt    int64    `json:"lastActivityAt"`
}

// ListPublicRooms returns public, non-complete sessions sorted by
// (type priority, active-human count desc, total-human count desc,
// last-activity desc), clipped to limit. It re-runs
// reconciliation first since listing is one of the pass's triggers.
func (c *Catalog) ListPublicRooms(limit int) []RoomListing {
	c.ReconcilePublicRooms()

	c.mu.Lock()
	defer c.mu.Unlock()

	now := nowMs()
	rows := make([]RoomListing, 0, len(c.sessions))
	for _, s := range c.sessions {
		if s.RoomKind == RoomPrivate {
			continue
		}
		if c.isExpiredLocked(s, now) {
			continue
		}
		if s.IsComplete() {
			continue
		}
		rows = append(rows, RoomListing{
			SessionID:       s.SessionID,
			RoomCode:        s.RoomCode,
			RoomKind:        s.RoomKind,
			GameDifficulty:  s.GameDifficulty,
			HumanCount:      s.HumanCount(),
			ConnectedHumans: s.ConnectedHumanCount(),
			LastActivityAt:  s.LastActivityAt,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		pi, pj := listingPriority(rows[i].RoomKind), listingPriority(rows[j].RoomKind)
		if pi != pj {
			return pi < pj
		}
		if rows[i].ConnectedHumans != rows[j].ConnectedHumans {
			return rows[i].ConnectedHumans > rows[j].ConnectedHumans
		}
		if rows[i].HumanCount != rows[j].HumanCount {
			return rows[i].HumanCount > rows[j].HumanCount
		}
		return rows[i].LastActivityAt > rows[j].LastActivityAt
	})

	if limit <= 0 {
		limit = 24
	}
	if limit > 100 {
		limit = 100
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func listingPriority(k RoomKind) int {
	switch k {
	case RoomPublicDefault:
		return 0
	case RoomPublicOverflow:
		return 1
	default:
		return 2
	}
}
