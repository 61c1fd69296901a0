package release

import (
	"fmt"
	"strings"

	"github.com/input-output-hk/catalyst-forge-release/classify"
)

// Notes is the derived title and body for a hosted release.
type Notes struct {
	Title string
	Body  string
}

// buildNotes derives the release title and body. The tag's annotation
// message wins when present; otherwise a default is generated that
// distinguishes stable releases from alpha/beta/rc prereleases using the
// same sub-kind rule classification uses. A changelog, when available, is
// appended to the body either way.
func buildNotes(product, tag, tagMessage, changelog string) Notes {
	title := fmt.Sprintf("%s %s", product, tag)

	var body string
	if tagMessage != "" {
		body = tagMessage
	} else {
		body = defaultBody(product, tag)
	}

	if changelog != "" {
		body = body + "\n\n## Changelog\n\n" + changelog
	}

	return Notes{Title: title, Body: strings.TrimSpace(body)}
}

// defaultBody generates the fallback release description for tags without
// an annotation message.
func defaultBody(product, tag string) string {
	switch classify.TagSubkind(tag) {
	case classify.SubkindAlpha:
		return fmt.Sprintf("Alpha prerelease %s of %s. Expect breaking changes and incomplete features.", tag, product)
	case classify.SubkindBeta:
		return fmt.Sprintf("Beta prerelease %s of %s. Feature-complete but not yet production-ready.", tag, product)
	case classify.SubkindRC:
		return fmt.Sprintf("Release candidate %s of %s. Final testing before the stable release.", tag, product)
	default:
		return fmt.Sprintf("Release %s of %s.", tag, product)
	}
}
