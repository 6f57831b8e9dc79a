package activity

import (
	"net/url"
	"strconv"
)

// ModulePath is the root path of the plugin screens.
const ModulePath = "/mod/icontent/"

// ViewScript is the screen displaying the pages of an instance.
const ViewScript = "view.php"

func viewURL(cmid, pageID int64) *url.URL {
	return &url.URL{
		Path: ModulePath + ViewScript,
		RawQuery: url.Values{
			"id":     {strconv.FormatInt(cmid, 10)},
			"pageid": {strconv.FormatInt(pageID, 10)},
		}.Encode(),
	}
}

// legacyViewURL is relative to ModulePath and keeps the HTML-escaped
// separator the legacy log has always stored.
func legacyViewURL(cmid, pageID int64) string {
	return ViewScript + "?id=" + strconv.FormatInt(cmid, 10) + "&amp;pageid=" + strconv.FormatInt(pageID, 10)
}
