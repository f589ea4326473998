package pipeline

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ppiankov/wikitrust/internal/model"
)

// ArticleURL returns the reader URL of a page
func ArticleURL(base, title string) string {
	return base + "/wiki/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

// ProfileURL links to the contributions of user
func ProfileURL(base, user string) string {
	return base + "/wiki/Special:Contributions/" + url.PathEscape(user)
}

// DiffURL links to the change a revision made: a diff against its parent,
// the revision itself when it has no parent, or the article when the
// revision id is unknown
func DiffURL(base, title string, rev model.Revision) string {
	if rev.RevID == nil {
		return ArticleURL(base, title)
	}
	if rev.ParentID != nil && *rev.ParentID > 0 {
		return fmt.Sprintf("%s/w/index.php?diff=%d&oldid=%d", base, *rev.RevID, *rev.ParentID)
	}
	return fmt.Sprintf("%s/w/index.php?oldid=%d", base, *rev.RevID)
}
