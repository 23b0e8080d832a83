package vanilla

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-authui/pkg/uinode"
)

const (
	// PasswordPattern is the client-side rule attached to password fields.
	PasswordPattern = `(?=.*\d)(?=.*[a-z])(?=.*[A-Z]).{8,}`

	passwordHintIntro = "Password must be more than 8 characters, and include:"
	emailHint         = "Enter valid email address"
)

var passwordHintRules = []string{
	"At least one number",
	"At least one lowercase letter",
	"At least one uppercase letter",
}

// fieldSpec configures renderField. Only password and email validate.
type fieldSpec struct {
	validate bool
	pattern  string
	hint     func(m *markup, classes classSet)
}

func passwordField() fieldSpec {
	return fieldSpec{
		validate: true,
		pattern:  PasswordPattern,
		hint: func(m *markup, classes classSet) {
			m.text(passwordHintIntro)
			m.open("ul")
			m.optAttr("class", classes.get(ClassHintList))
			m.closeOpen()
			for _, rule := range passwordHintRules {
				m.WriteString("<li>")
				m.text(rule)
				m.WriteString("</li>")
			}
			m.end("ul")
		},
	}
}

func emailField() fieldSpec {
	return fieldSpec{
		validate: true,
		hint: func(m *markup, _ classSet) {
			m.WriteString("<p>")
			m.text(emailHint)
			m.WriteString("</p>")
		},
	}
}

// renderField renders text, password and email inputs inside a floating
// label. The label text doubles as the placeholder.
func renderField(m *markup, classes classSet, meta uinode.Meta, attrs uinode.InputAttributes, kind fieldSpec) {
	label := uinode.Label(meta, attrs.Type)

	m.open("label")
	m.optAttr("class", classes.get(ClassFieldLabel))
	m.closeOpen()

	m.WriteString("<span>")
	m.text(label)
	m.WriteString("</span>")

	m.open("input")
	m.flag("required", attrs.Required)
	m.optAttr("autocomplete", strings.ToLower(attrs.Autocomplete))
	if kind.validate {
		m.optAttr("class", classes.join(ClassInput, ClassValidator))
	} else {
		m.optAttr("class", classes.get(ClassInput))
	}
	m.flag("disabled", attrs.Disabled)
	if meta.Label != nil {
		m.attr("id", formatID(meta.Label.ID))
	}
	m.attr("name", attrs.Name)
	m.attr("placeholder", label)
	m.attr("type", attrs.Type.String())
	m.optAttr("pattern", kind.pattern)
	if attrs.Maxlength > 0 {
		m.attr("maxlength", strconv.Itoa(attrs.Maxlength))
	}
	m.attr("value", uinode.StringValue(attrs.Value))
	m.closeOpen()

	if kind.validate {
		m.open("div")
		m.optAttr("class", classes.get(ClassHint))
		m.closeOpen()
		if kind.hint != nil {
			kind.hint(m, classes)
		}
		m.end("div")
	}

	m.end("label")
}

// renderButton renders submit and button inputs. The label is the visible
// text; without a label the button is empty.
func renderButton(m *markup, classes classSet, meta uinode.Meta, attrs uinode.InputAttributes) {
	m.open("button")
	m.flag("disabled", attrs.Disabled)
	m.optAttr("class", classes.get(ClassButton))
	if meta.Label != nil {
		m.attr("id", formatID(meta.Label.ID))
	}
	m.attr("name", attrs.Name)
	m.attr("type", attrs.Type.String())
	m.attr("value", uinode.StringValue(attrs.Value))
	m.optAttr("data-onclick-trigger", attrs.OnClickTrigger)
	m.closeOpen()
	if meta.Label != nil {
		m.text(meta.Label.Text)
	}
	m.end("button")
}

// renderOther renders number, tel, datetime-local, date and url inputs. The
// value goes through scalar coercion so numbers and arrays keep a textual form.
func renderOther(m *markup, classes classSet, meta uinode.Meta, attrs uinode.InputAttributes) {
	writeInput := func() {
		m.open("input")
		m.flag("disabled", attrs.Disabled)
		m.optAttr("class", classes.get(ClassInput))
		m.attr("name", attrs.Name)
		m.attr("type", attrs.Type.String())
		m.flag("required", attrs.Required)
		m.attr("value", uinode.ScalarString(attrs.Value))
		m.closeOpen()
	}

	if meta.Label == nil {
		writeInput()
		return
	}

	m.open("label")
	m.attr("id", formatID(meta.Label.ID))
	m.optAttr("class", classes.get(ClassOtherLabel))
	m.closeOpen()
	m.text(meta.Label.Text)
	writeInput()
	m.end("label")
}

// renderCheckbox marks the box checked only for a literal boolean true.
func renderCheckbox(m *markup, classes classSet, meta uinode.Meta, attrs uinode.InputAttributes) {
	writeInput := func() {
		m.open("input")
		m.flag("disabled", attrs.Disabled)
		m.optAttr("class", classes.get(ClassInput))
		m.attr("name", attrs.Name)
		m.attr("type", attrs.Type.String())
		m.flag("required", attrs.Required)
		m.flag("checked", uinode.BoolValue(attrs.Value))
		m.closeOpen()
	}

	if meta.Label == nil {
		writeInput()
		return
	}

	m.open("label")
	m.attr("id", formatID(meta.Label.ID))
	m.closeOpen()
	m.text(meta.Label.Text)
	writeInput()
	m.end("label")
}

// renderHidden always renders, with or without a label.
func renderHidden(m *markup, _ classSet, meta uinode.Meta, attrs uinode.InputAttributes) {
	m.open("input")
	m.optAttr("autocomplete", strings.ToLower(attrs.Autocomplete))
	m.flag("disabled", attrs.Disabled)
	m.attr("name", attrs.Name)
	id := ""
	if meta.Label != nil {
		id = formatID(meta.Label.ID)
	}
	m.optAttr("id", id)
	m.attr("type", attrs.Type.String())
	m.attr("value", uinode.StringValue(attrs.Value))
	m.closeOpen()
}

func renderImage(m *markup, classes classSet, meta uinode.Meta, attrs uinode.ImageAttributes) {
	writeImage := func(alt string) {
		m.open("img")
		m.attr("height", strconv.FormatInt(attrs.Height, 10))
		m.attr("id", attrs.ElementID)
		m.attr("src", attrs.Src)
		m.attr("width", strconv.FormatInt(attrs.Width, 10))
		m.optAttr("alt", alt)
		m.closeOpen()
	}

	if meta.Label == nil {
		writeImage("")
		return
	}

	m.open("label")
	m.attr("id", formatID(meta.Label.ID))
	m.optAttr("class", classes.get(ClassImageLabel))
	m.closeOpen()
	m.text(meta.Label.Text)
	writeImage(meta.Label.Text)
	m.end("label")
}

// renderCaption writes the optional standalone label used by text and link
// nodes, associated with the element through for/id.
func renderCaption(m *markup, classes classSet, meta uinode.Meta, target string) {
	if meta.Label == nil {
		return
	}
	m.open("label")
	m.attr("for", target)
	m.attr("id", formatID(meta.Label.ID))
	m.optAttr("class", classes.get(ClassCaption))
	m.closeOpen()
	m.text(meta.Label.Text)
	m.end("label")
}

func renderText(m *markup, classes classSet, meta uinode.Meta, attrs uinode.TextAttributes) {
	renderCaption(m, classes, meta, attrs.ElementID)
	m.open("p")
	m.attr("id", attrs.ElementID)
	m.closeOpen()
	m.text(attrs.Text.Text)
	m.end("p")
}

func renderLink(m *markup, classes classSet, meta uinode.Meta, attrs uinode.AnchorAttributes) {
	renderCaption(m, classes, meta, attrs.ElementID)
	m.open("a")
	m.attr("id", attrs.ElementID)
	m.optAttr("class", classes.get(ClassLink))
	m.attr("href", attrs.Href)
	m.closeOpen()
	m.text(attrs.Title.Text)
	m.end("a")
}

// renderScript passes every attribute through. Scripts never get a label.
func renderScript(m *markup, _ classSet, attrs uinode.ScriptAttributes) {
	m.open("script")
	m.flag("async", attrs.Async)
	m.optAttr("crossorigin", attrs.Crossorigin)
	m.attr("id", attrs.ElementID)
	m.optAttr("integrity", attrs.Integrity)
	m.optAttr("nonce", attrs.Nonce)
	m.optAttr("referrerpolicy", attrs.Referrerpolicy)
	m.attr("src", attrs.Src)
	m.optAttr("type", attrs.Type)
	m.closeOpen()
	m.end("script")
}

// renderNodeMessages writes the messages attached to a single node, such as
// field validation errors, right after the node.
func renderNodeMessages(m *markup, classes classSet, messages []uinode.Text) {
	for _, msg := range messages {
		m.open("p")
		m.attr("id", formatID(msg.ID))
		m.optAttr("class", classes.join(ClassNodeMessage, severityClass(msg.Type, ClassNodeMessageError, ClassNodeMessageInfo, ClassNodeMessageSuccess)))
		m.closeOpen()
		m.text(msg.Text)
		m.end("p")
	}
}

func severityClass(typ uinode.TextType, errClass, infoClass, successClass ChromeClass) ChromeClass {
	switch typ {
	case uinode.TextError:
		return errClass
	case uinode.TextSuccess:
		return successClass
	}
	return infoClass
}

func renderMessage(m *markup, classes classSet, msg uinode.Message) {
	severity := severityClass(msg.Type, ClassAlertError, ClassAlertInfo, ClassAlertSuccess)

	m.open("div")
	m.attr("id", formatID(msg.ID))
	m.attr("role", "alert")
	m.optAttr("class", classes.join(ClassAlert, severity))
	m.closeOpen()
	m.WriteString("<span>")
	m.text(msg.Text)
	m.WriteString("</span>")
	m.end("div")
}
