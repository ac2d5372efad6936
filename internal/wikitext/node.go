// Package wikitext parses MediaWiki markup into a lossless tree of text runs,
// links, opaque spans and templates with named parameters.
package wikitext

import "strings"

// Node is one element of parsed markup.
type Node interface {
	writeTo(builder *strings.Builder)
}

// Text is a run of plain markup.
type Text struct {
	Value string
}

func (t *Text) writeTo(builder *strings.Builder) {
	builder.WriteString(t.Value)
}

// Opaque holds markup that never yields templates or separators: comments,
// nowiki spans and template arguments.
type Opaque struct {
	Value string
}

func (o *Opaque) writeTo(builder *strings.Builder) {
	builder.WriteString(o.Value)
}

// Link is a [[wikilink]]; pipes inside it do not separate template parameters.
type Link struct {
	Nodes []Node
}

func (l *Link) writeTo(builder *strings.Builder) {
	builder.WriteString("[[")
	writeNodes(builder, l.Nodes)
	builder.WriteString("]]")
}

// Document is the parsed markup of one article.
type Document struct {
	nodes []Node
}

// Nodes exposes the top-level nodes.
func (d *Document) Nodes() []Node {
	return d.nodes
}

// String serializes the document; an unmodified document reproduces its source exactly.
func (d *Document) String() string {
	var builder strings.Builder
	writeNodes(&builder, d.nodes)
	return builder.String()
}

// Templates returns every template in the document, nested ones included,
// ordered by their position in the source.
func (d *Document) Templates() []*Template {
	var templates []*Template
	collectTemplates(d.nodes, &templates)
	return templates
}

func collectTemplates(nodes []Node, into *[]*Template) {
	for _, node := range nodes {
		switch typed := node.(type) {
		case *Template:
			*into = append(*into, typed)
			collectTemplates(typed.name, into)
			for _, param := range typed.params {
				collectTemplates(param.value, into)
			}
		case *Link:
			collectTemplates(typed.Nodes, into)
		}
	}
}

func writeNodes(builder *strings.Builder, nodes []Node) {
	for _, node := range nodes {
		node.writeTo(builder)
	}
}

func nodesString(nodes []Node) string {
	var builder strings.Builder
	writeNodes(&builder, nodes)
	return builder.String()
}
