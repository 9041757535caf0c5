package room

import (
	"chatroom/internal/models"

	"github.com/samber/lo"
)

// Visible reports whether msg may be shown to viewer: broadcasts,
// messages addressed to the viewer, and the viewer's own messages.
func Visible(msg *models.Message, viewer string) bool {
	return msg.To == models.Everyone || msg.To == viewer || msg.From == viewer
}

// FilterMessages returns the subsequence of log visible to viewer,
// preserving insertion order. A limit of 0 means unlimited; otherwise
// the last limit matches are kept, so the caller gets the most recent
// window rather than the oldest one.
func FilterMessages(log []*models.Message, viewer string, limit int) []*models.Message {
	visible := lo.Filter(log, func(msg *models.Message, _ int) bool {
		return Visible(msg, viewer)
	})

	if limit > 0 && len(visible) > limit {
		visible = visible[len(visible)-limit:]
	}
	return visible
}
