package gitmeta

import (
	"strings"

	"github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"
)

// changelog section headings, in output order.
const (
	sectionFeatures = "Features"
	sectionFixes    = "Fixes"
	sectionOther    = "Other changes"
)

// Changelog renders a markdown changelog from a commit range. Commit
// subjects that parse as conventional commits are grouped into feature and
// fix sections; everything else lands under "Other changes" with its raw
// subject. An empty commit range yields an empty string.
func Changelog(commits []Commit) string {
	if len(commits) == 0 {
		return ""
	}

	machine := parser.NewMachine(conventionalcommits.WithTypes(conventionalcommits.TypesConventional))

	sections := map[string][]string{}
	for _, commit := range commits {
		heading, line := classifyCommit(machine, commit)
		sections[heading] = append(sections[heading], line)
	}

	var b strings.Builder
	for _, heading := range []string{sectionFeatures, sectionFixes, sectionOther} {
		lines := sections[heading]
		if len(lines) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("### ")
		b.WriteString(heading)
		b.WriteString("\n\n")
		for _, line := range lines {
			b.WriteString("- ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// classifyCommit maps one commit onto its changelog section and rendered
// line. Parse failures are expected (not every commit is conventional) and
// fall through to the raw subject.
func classifyCommit(machine conventionalcommits.Machine, commit Commit) (string, string) {
	msg, err := machine.Parse([]byte(commit.Subject))
	if err != nil {
		return sectionOther, commit.Subject + " (" + commit.Hash + ")"
	}

	cc, ok := msg.(*conventionalcommits.ConventionalCommit)
	if !ok {
		return sectionOther, commit.Subject + " (" + commit.Hash + ")"
	}

	line := cc.Description
	if cc.Scope != nil && *cc.Scope != "" {
		line = "**" + *cc.Scope + "**: " + line
	}
	line += " (" + commit.Hash + ")"

	switch cc.Type {
	case "feat":
		return sectionFeatures, line
	case "fix":
		return sectionFixes, line
	default:
		return sectionOther, line
	}
}
