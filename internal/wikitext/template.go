package wikitext

import (
	"strconv"
	"strings"
	"unicode"
)

// Template is a {{name|key=value|...}} transclusion. Mutations happen in place
// on the owning Document.
type Template struct {
	name   []Node
	params []*Parameter
}

// Parameter is one template argument. Positional arguments have no key in the
// source; their key is their 1-based position among positional arguments.
type Parameter struct {
	key     string
	showKey bool
	value   []Node
}

// Key returns the trimmed parameter name.
func (p *Parameter) Key() string {
	return strings.TrimSpace(p.key)
}

// Value returns the raw value markup, whitespace included.
func (p *Parameter) Value() string {
	return nodesString(p.value)
}

func (p *Parameter) writeTo(builder *strings.Builder) {
	builder.WriteByte('|')
	if p.showKey {
		builder.WriteString(p.key)
		builder.WriteByte('=')
	}
	writeNodes(builder, p.value)
}

// Name returns the trimmed template name.
func (t *Template) Name() string {
	return strings.TrimSpace(nodesString(t.name))
}

// Params returns the parameters in source order.
func (t *Template) Params() []*Parameter {
	return t.params
}

// Has reports whether a parameter with the given name is present.
func (t *Template) Has(name string) bool {
	return t.find(name) != nil
}

// Get returns the raw value of the named parameter. When a name repeats the
// last occurrence wins, as MediaWiki renders it.
func (t *Template) Get(name string) (string, bool) {
	param := t.find(name)
	if param == nil {
		return "", false
	}
	return param.Value(), true
}

// Set assigns a value to the named parameter. An existing parameter keeps its
// position and surrounding whitespace; a new one is appended after the last
// parameter, copying the spacing of the last named parameter.
func (t *Template) Set(name, value string) {
	if param := t.find(name); param != nil {
		leading, trailing := padding(param.Value())
		param.value = []Node{&Text{Value: leading + value + trailing}}
		return
	}

	keyLeading, keyTrailing, valueLeading := "", "", ""
	if styled := t.lastNamed(); styled != nil {
		keyLeading, keyTrailing = splitPadding(styled.key)
		valueLeading, _ = splitPadding(styled.Value())
	}
	trailing := ""
	if len(t.params) > 0 {
		last := t.params[len(t.params)-1]
		_, trailing = splitPadding(last.Value())
		if indent, ok := t.pipeIndent(); ok && strings.Contains(trailing, "\n") {
			last.value = withLineIndent(last.value, trailing, indent)
		}
	} else {
		_, trailing = splitPadding(nodesString(t.name))
		t.trimNameTrailing()
	}
	t.params = append(t.params, &Parameter{
		key:     keyLeading + name + keyTrailing,
		showKey: true,
		value:   []Node{&Text{Value: valueLeading + value + trailing}},
	})
}

func (t *Template) writeTo(builder *strings.Builder) {
	builder.WriteString("{{")
	writeNodes(builder, t.name)
	for _, param := range t.params {
		param.writeTo(builder)
	}
	builder.WriteString("}}")
}

func (t *Template) find(name string) *Parameter {
	wanted := strings.TrimSpace(name)
	for index := len(t.params) - 1; index >= 0; index-- {
		if t.params[index].Key() == wanted {
			return t.params[index]
		}
	}
	return nil
}

func (t *Template) lastNamed() *Parameter {
	for index := len(t.params) - 1; index >= 0; index-- {
		if t.params[index].showKey {
			return t.params[index]
		}
	}
	return nil
}

// pipeIndent returns the whitespace that opens the line of the last parameter
// when parameters sit one per line, as in "{{cite\n |a=1\n |b=2\n}}".
func (t *Template) pipeIndent() (string, bool) {
	before := nodesString(t.name)
	if len(t.params) > 1 {
		before = t.params[len(t.params)-2].Value()
	}
	_, trailing := splitPadding(before)
	cut := strings.LastIndexByte(trailing, '\n')
	if cut < 0 {
		return "", false
	}
	return trailing[cut+1:], true
}

// withLineIndent ends a one-per-line value at its last line break followed by
// indent. Whitespace after that line break belongs to the closing braces and
// moves to the appended parameter.
func withLineIndent(value []Node, trailing, indent string) []Node {
	closing := trailing[strings.LastIndexByte(trailing, '\n')+1:]
	if closing != "" {
		last, ok := value[len(value)-1].(*Text)
		if !ok || !strings.HasSuffix(last.Value, closing) {
			return value
		}
		value = append(value[:len(value)-1:len(value)-1], &Text{Value: strings.TrimSuffix(last.Value, closing)})
	}
	if indent == "" {
		return value
	}
	return append(value[:len(value):len(value)], &Text{Value: indent})
}

// trimNameTrailing moves trailing whitespace off the name so that "{{cite\n}}"
// gains its first parameter before the newline.
func (t *Template) trimNameTrailing() {
	if len(t.name) == 0 {
		return
	}
	last, ok := t.name[len(t.name)-1].(*Text)
	if !ok {
		return
	}
	t.name[len(t.name)-1] = &Text{Value: strings.TrimRightFunc(last.Value, unicode.IsSpace)}
}

// padding decides which whitespace of an existing value survives replacement.
// A blank value without a line break is treated as leading padding ("|url= |"),
// one with a line break as trailing padding ("|url=\n").
func padding(value string) (string, string) {
	if strings.TrimSpace(value) != "" {
		return splitPadding(value)
	}
	if strings.Contains(value, "\n") {
		return "", value
	}
	return value, ""
}

func splitPadding(value string) (string, string) {
	trimmedLeft := strings.TrimLeftFunc(value, unicode.IsSpace)
	leading := value[:len(value)-len(trimmedLeft)]
	trimmed := strings.TrimRightFunc(trimmedLeft, unicode.IsSpace)
	trailing := trimmedLeft[len(trimmed):]
	return leading, trailing
}

func newParameter(nodes []Node, positional *int) *Parameter {
	for index, node := range nodes {
		text, ok := node.(*Text)
		if !ok {
			continue
		}
		split := strings.IndexByte(text.Value, '=')
		if split < 0 {
			continue
		}
		key := nodesString(nodes[:index]) + text.Value[:split]
		value := make([]Node, 0, len(nodes)-index)
		if rest := text.Value[split+1:]; rest != "" {
			value = append(value, &Text{Value: rest})
		}
		value = append(value, nodes[index+1:]...)
		return &Parameter{key: key, showKey: true, value: value}
	}
	*positional++
	return &Parameter{key: strconv.Itoa(*positional), value: nodes}
}
