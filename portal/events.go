package portal

import (
	"context"

	"github.com/frictionalfables/fable/cache"
	"github.com/frictionalfables/fable/models"
)

/*
	Remote edits arrive as content events over the gateway's event stream.
	Each event maps onto the same invalidation patterns the corresponding
	local mutation declares, so a change made elsewhere refreshes exactly
	the reads a local change would have.
*/

func patternsForEvent(ev models.ContentEvent) []cache.Pattern {
	switch ev.Resource {
	case "book":
		patterns := []cache.Pattern{
			cache.PatternOf(opFeaturedBooks),
			cache.PatternOf(opBook, ev.ID),
		}
		if ev.Action == models.ContentDeleted {
			patterns = append(patterns, cache.PatternOf(opBookAssets, ev.ID))
		}
		return patterns
	case "bookAsset":
		return []cache.Pattern{cache.PatternOf(opBookAssets, ev.ID)}
	case "siteAsset":
		return []cache.Pattern{cache.PatternOf(opSiteAssets)}
	case "blogPost":
		return []cache.Pattern{
			cache.PatternOf(opBlogPosts),
			cache.PatternOf(opBlogPost, ev.ID),
		}
	case "characterNote":
		return []cache.Pattern{
			cache.PatternOf(opCharacterNotes),
			cache.PatternOf(opCharacterNote, ev.ID),
		}
	case "newComing":
		return []cache.Pattern{
			cache.PatternOf(opNewComings),
			cache.PatternOf(opNewComing, ev.ID),
		}
	case "comment":
		return []cache.Pattern{cache.PatternOf(opBookComments, ev.ID)}
	case "rating":
		return []cache.Pattern{
			cache.PatternOf(opBookRatings, ev.ID),
			cache.PatternOf(opBookAverageRating, ev.ID),
		}
	case "thread", "reply":
		return []cache.Pattern{
			cache.PatternOf(opForumThreads),
			cache.PatternOf(opForumThread, ev.ID),
		}
	case "suggestion":
		return []cache.Pattern{cache.PatternOf(opSuggestions)}
	default:
		return nil
	}
}

// WatchContent blocks on the gateway's content-event stream, invalidating
// affected reads as events arrive. It returns when ctx is cancelled or the
// stream fails.
func (p *Portal) WatchContent(ctx context.Context) error {
	return p.client.SubscribeToContentEvents(ctx, func(ev models.ContentEvent) {
		patterns := patternsForEvent(ev)
		if len(patterns) == 0 {
			p.logger.Debug("ignoring content event for unknown resource", "resource", ev.Resource)
			return
		}
		touched := p.store.Invalidate(patterns...)
		p.logger.Debug(
			"content event applied",
			"resource", ev.Resource,
			"id", ev.ID,
			"action", ev.Action,
			"touched", touched,
		)
	})
}
