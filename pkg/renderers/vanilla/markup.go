package vanilla

import (
	"html"
	"strconv"
	"strings"
)

// markup is a small HTML writer. All text and attribute values go through
// html.EscapeString.
type markup struct {
	strings.Builder
}

func (m *markup) open(tag string) {
	m.WriteByte('<')
	m.WriteString(tag)
}

// closeOpen finishes a start tag opened with open.
func (m *markup) closeOpen() {
	m.WriteByte('>')
}

func (m *markup) end(tag string) {
	m.WriteString("</")
	m.WriteString(tag)
	m.WriteByte('>')
}

// attr writes name="value", always, even when value is empty.
func (m *markup) attr(name, value string) {
	m.WriteByte(' ')
	m.WriteString(name)
	m.WriteString(`="`)
	m.WriteString(html.EscapeString(value))
	m.WriteByte('"')
}

// optAttr writes the attribute only when value is not empty.
func (m *markup) optAttr(name, value string) {
	if value == "" {
		return
	}
	m.attr(name, value)
}

// flag writes a boolean attribute when on is true.
func (m *markup) flag(name string, on bool) {
	if !on {
		return
	}
	m.WriteByte(' ')
	m.WriteString(name)
}

func (m *markup) text(value string) {
	m.WriteString(html.EscapeString(value))
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
