package utils

import (
	"github.com/microcosm-cc/bluemonday"
)

// textPolicy strips all markup. Previews and text bodies come straight from
// the mail server and are rendered into fragments, so any embedded HTML is
// removed before display.
var textPolicy = bluemonday.StrictPolicy()

// CleanText removes any HTML markup from server-supplied text.
func CleanText(s string) string {
	return textPolicy.Sanitize(s)
}
