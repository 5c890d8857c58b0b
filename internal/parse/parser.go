// Package parse turns free-form pasted text into classified asset
// references. Parsing is pure: no network calls, no randomness, and the
// same text against the same catalog snapshot always yields the same
// references in the same order.
package parse

import (
	"regexp"
	"strings"

	"github.com/sells-group/stockbatch-cli/internal/catalog"
	"github.com/sells-group/stockbatch-cli/internal/model"
)

// shorthandRe matches the explicit "site:id" form. The site part must look
// like a provider name so URLs (scheme colon) never hit this branch.
var shorthandRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_-]*):(\S+)$`)

// Parser classifies raw input lines against one catalog snapshot.
type Parser struct {
	snap *catalog.Snapshot
}

// New creates a parser bound to a catalog snapshot.
func New(snap *catalog.Snapshot) *Parser {
	return &Parser{snap: snap}
}

// Parse splits rawText into lines and classifies each non-blank line.
// Blank lines are dropped; every non-blank line produces exactly one
// reference, in input order, with Raw preserved byte-for-byte.
func (p *Parser) Parse(rawText string) []model.ParsedReference {
	var refs []model.ParsedReference

	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSuffix(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		ref := p.classify(trimmed)
		ref.Raw = line
		ref.Index = len(refs)
		refs = append(refs, ref)
	}

	return refs
}

// classify attempts, in fixed priority order: provider-prefixed shorthand,
// URL form, bare id.
func (p *Parser) classify(line string) model.ParsedReference {
	if isURL(line) {
		return p.classifyURL(line)
	}

	if m := shorthandRe.FindStringSubmatch(line); m != nil {
		return p.classifyShorthand(m[1], m[2])
	}

	return p.classifyBareID(line)
}

func (p *Parser) classifyShorthand(site, id string) model.ParsedReference {
	provider, ok := p.snap.Get(site)
	if !ok {
		return invalid(model.ReasonUnrecognizedFormat)
	}

	ref := model.ParsedReference{Site: provider.Name}
	if !provider.Active {
		ref.InvalidReason = model.ReasonProviderInactive
		return ref
	}
	if !provider.ValidID(id) {
		ref.InvalidReason = model.ReasonMalformedID
		return ref
	}

	ref.ExternalID = id
	ref.IsValid = true
	return ref
}

func (p *Parser) classifyURL(line string) model.ParsedReference {
	ref := model.ParsedReference{SourceURL: line}

	provider, id, ok := p.snap.MatchURL(line)
	if !ok {
		ref.InvalidReason = model.ReasonUnrecognizedFormat
		return ref
	}

	ref.Site = provider.Name
	if !provider.Active {
		ref.InvalidReason = model.ReasonProviderInactive
		return ref
	}

	ref.ExternalID = id
	ref.IsValid = true
	return ref
}

func (p *Parser) classifyBareID(line string) model.ParsedReference {
	provider, ok, _ := p.snap.MatchBareID(line)
	if !ok {
		// Ambiguous ids are indistinguishable between providers, so they
		// fail the same way as unknown formats.
		return invalid(model.ReasonUnrecognizedFormat)
	}

	ref := model.ParsedReference{Site: provider.Name}
	if !provider.Active {
		ref.InvalidReason = model.ReasonProviderInactive
		return ref
	}

	ref.ExternalID = line
	ref.IsValid = true
	return ref
}

func invalid(reason model.InvalidReason) model.ParsedReference {
	return model.ParsedReference{InvalidReason: reason}
}

// isURL reports whether the line should be treated as a URL. Scheme-prefixed
// lines and bare www hosts both count.
func isURL(line string) bool {
	return strings.Contains(line, "://") || strings.HasPrefix(strings.ToLower(line), "www.")
}
