package entity

import "strings"

type TriggerKey string

const (
	TriggerKeyOTPCode TriggerKey = "otp_code"
)

func (tk TriggerKey) String() string {
	return string(tk)
}

// TemplatePart is one rendered piece of an email.
type TemplatePart int16

const (
	TemplatePartUnknown TemplatePart = 0
	TemplatePartSubject TemplatePart = 1
	TemplatePartText    TemplatePart = 2
	TemplatePartHTML    TemplatePart = 3
)

// EmailTemplateParts lists the parts every email trigger carries.
var EmailTemplateParts = []TemplatePart{TemplatePartSubject, TemplatePartText, TemplatePartHTML}

func TemplatePartFromString(raw string) TemplatePart {
	switch strings.TrimSpace(raw) {
	case "subject":
		return TemplatePartSubject
	case "txt":
		return TemplatePartText
	case "html":
		return TemplatePartHTML
	default:
		return TemplatePartUnknown
	}
}

func (p TemplatePart) String() string {
	switch p {
	case TemplatePartSubject:
		return "subject"
	case TemplatePartText:
		return "txt"
	case TemplatePartHTML:
		return "html"
	default:
		return "unknown"
	}
}

// TemplateFile is the object name of a template part, e.g. otp_code.html.tmpl.
func TemplateFile(tk TriggerKey, p TemplatePart) string {
	return tk.String() + "." + p.String() + ".tmpl"
}

// Email is a rendered message ready for the mail transport.
type Email struct {
	Subject string
	Text    string
	HTML    string
}
