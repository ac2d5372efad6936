package wikitext

import "strings"

type parseContext int

const (
	contextRoot parseContext = iota
	contextTemplateName
	contextTemplateParam
	contextLink
)

const (
	commentOpen  = "<!--"
	commentClose = "-->"
	nowikiOpen   = "<nowiki>"
	nowikiClose  = "</nowiki>"
	argumentOpen = "{{{"
	argumentEnd  = "}}}"
)

type parser struct {
	source string
	pos    int
	// start offsets already known not to open a template or link
	failed map[int]struct{}
}

// Parse builds a Document from markup. Parsing never fails: constructs that
// are not closed are kept as plain text.
func Parse(source string) *Document {
	p := &parser{source: source, failed: make(map[int]struct{})}
	nodes, _ := p.parseNodes(contextRoot)
	return &Document{nodes: nodes}
}

func (p *parser) hasPrefix(prefix string) bool {
	return strings.HasPrefix(p.source[p.pos:], prefix)
}

func (p *parser) hasPrefixFold(prefix string) bool {
	rest := p.source[p.pos:]
	return len(rest) >= len(prefix) && strings.EqualFold(rest[:len(prefix)], prefix)
}

// parseNodes consumes markup until the terminator of the given context. The
// terminator itself is left unconsumed. The boolean is false when the input
// ended, or an enclosing terminator was hit, before this context closed.
func (p *parser) parseNodes(ctx parseContext) ([]Node, bool) {
	var nodes []Node
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			nodes = append(nodes, &Text{Value: text.String()})
			text.Reset()
		}
	}

	for p.pos < len(p.source) {
		switch ctx {
		case contextTemplateName, contextTemplateParam:
			if p.hasPrefix("}}") || p.hasPrefix("|") {
				flush()
				return nodes, true
			}
		case contextLink:
			if p.hasPrefix("]]") {
				flush()
				return nodes, true
			}
			if p.hasPrefix("}}") {
				flush()
				return nodes, false
			}
		}

		switch {
		case p.hasPrefix(commentOpen):
			flush()
			nodes = append(nodes, &Opaque{Value: p.takeThrough(commentClose, true)})
		case p.hasPrefixFold(nowikiOpen) && p.closes(nowikiClose):
			flush()
			nodes = append(nodes, &Opaque{Value: p.takeThrough(nowikiClose, false)})
		case p.hasPrefix(argumentOpen) && p.closes(argumentEnd):
			flush()
			nodes = append(nodes, &Opaque{Value: p.takeThrough(argumentEnd, false)})
		case p.hasPrefix("{{") && p.mayOpen():
			start := p.pos
			if template, ok := p.parseTemplate(); ok {
				flush()
				nodes = append(nodes, template)
				continue
			}
			p.markFailed(start)
			text.WriteString("{{")
		case p.hasPrefix("[[") && p.mayOpen():
			start := p.pos
			if link, ok := p.parseLink(); ok {
				flush()
				nodes = append(nodes, link)
				continue
			}
			p.markFailed(start)
			text.WriteString("[[")
		case p.hasPrefix("{{") || p.hasPrefix("[["):
			text.WriteString(p.source[p.pos : p.pos+2])
			p.pos += 2
		default:
			text.WriteByte(p.source[p.pos])
			p.pos++
		}
	}

	flush()
	return nodes, ctx == contextRoot
}

func (p *parser) mayOpen() bool {
	_, known := p.failed[p.pos]
	return !known
}

func (p *parser) markFailed(start int) {
	p.failed[start] = struct{}{}
	p.pos = start + 2
}

// closes reports whether the terminator occurs anywhere after the current position.
func (p *parser) closes(terminator string) bool {
	return strings.Contains(p.source[p.pos+1:], terminator)
}

// takeThrough consumes up to and including the terminator. When toEnd is set
// a missing terminator consumes the rest of the input.
func (p *parser) takeThrough(terminator string, toEnd bool) string {
	start := p.pos
	offset := strings.Index(p.source[p.pos+1:], terminator)
	if offset < 0 {
		if !toEnd {
			p.pos++
			return p.source[start:p.pos]
		}
		p.pos = len(p.source)
		return p.source[start:]
	}
	p.pos = p.pos + 1 + offset + len(terminator)
	return p.source[start:p.pos]
}

func (p *parser) parseTemplate() (*Template, bool) {
	p.pos += 2
	name, ok := p.parseNodes(contextTemplateName)
	if !ok || strings.TrimSpace(nodesString(name)) == "" {
		return nil, false
	}

	template := &Template{name: name}
	positional := 0
	for p.pos < len(p.source) {
		if p.hasPrefix("}}") {
			p.pos += 2
			return template, true
		}
		// the only other terminator of a template context is a pipe
		p.pos++
		value, ok := p.parseNodes(contextTemplateParam)
		if !ok {
			return nil, false
		}
		template.params = append(template.params, newParameter(value, &positional))
	}
	return nil, false
}

func (p *parser) parseLink() (*Link, bool) {
	p.pos += 2
	inner, ok := p.parseNodes(contextLink)
	if !ok || p.pos >= len(p.source) {
		return nil, false
	}
	p.pos += 2
	return &Link{Nodes: inner}, true
}
