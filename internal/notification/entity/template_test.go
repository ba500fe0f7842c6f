package entity

import "testing"

func TestTemplateFile(t *testing.T) {
	tests := []struct {
		part TemplatePart
		want string
	}{
		{part: TemplatePartSubject, want: "otp_code.subject.tmpl"},
		{part: TemplatePartText, want: "otp_code.txt.tmpl"},
		{part: TemplatePartHTML, want: "otp_code.html.tmpl"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := TemplateFile(TriggerKeyOTPCode, tt.part); got != tt.want {
				t.Errorf("TemplateFile() = %q, want %q", got, tt.want)
			}
			if got := TemplatePartFromString(tt.part.String()); got != tt.part {
				t.Errorf("TemplatePartFromString(%q) = %v, want %v", tt.part.String(), got, tt.part)
			}
		})
	}

	if got := TemplatePartFromString("pdf"); got != TemplatePartUnknown {
		t.Errorf("TemplatePartFromString(pdf) = %v, want unknown", got)
	}
}
