package portal

/*
	Cache key operations. One name per remote read; identity-scoped reads get
	their own names so a session reset can clear them without touching public
	content.
*/

const (
	opCallerUserProfile     = "callerUserProfile"
	opUserProfile           = "userProfile"
	opCallerUserRole        = "callerUserRole"
	opIsCurrentSessionAdmin = "isCurrentSessionAdmin"

	opFeaturedBooks = "featuredBooks"

	// opBook is the single-book detail key. No read creates it yet, but
	// catalog mutations and content events already invalidate it, so a
	// future detail query inherits the right staleness.
	opBook       = "book"
	opBookAssets = "bookAssets"
	opSiteAssets = "siteAssets"

	opBlogPosts      = "blogPosts"
	opBlogPost       = "blogPost"
	opCharacterNotes = "characterNotes"
	opCharacterNote  = "characterNote"
	opNewComings     = "newComings"
	opNewComing      = "newComing"

	opBookComments      = "bookComments"
	opBookRatings       = "bookRatings"
	opBookAverageRating = "bookAverageRating"

	opForumThreads = "forumThreads"
	opForumThread  = "forumThread"
	opSuggestions  = "suggestions"
)
