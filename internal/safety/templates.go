package safety

// Template is a safety talk the crew can be briefed on.
type Template struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PDFURL      string `json:"pdfUrl"`
}

const templatePDFURL = "https://www.w3.org/WAI/WCAG21/Techniques/pdf/note.pdf"

var templates = []Template{
	{
		ID:          "aed",
		Name:        "Automated External Defibrillator (AED) Safety Talk",
		Description: "AED use, inspection, and discussion points",
		PDFURL:      templatePDFURL,
	},
	{
		ID:          "slips-trips",
		Name:        "Slips, Trips & Falls",
		Description: "Prevention and awareness",
		PDFURL:      templatePDFURL,
	},
	{
		ID:          "ppe",
		Name:        "Personal Protective Equipment (PPE)",
		Description: "Proper use and inspection of PPE",
		PDFURL:      templatePDFURL,
	},
}

// Templates returns a copy of the template catalog.
func Templates() []Template {
	return append([]Template(nil), templates...)
}

// TemplateByID looks up a catalog entry.
func TemplateByID(id string) (Template, bool) {
	for _, template := range templates {
		if template.ID == id {
			return template, true
		}
	}
	return Template{}, false
}
