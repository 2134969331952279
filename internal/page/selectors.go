package page

// Selectors locate the host application's controls and report content.
type Selectors struct {
	URLInput           string `yaml:"url_input"`
	Form               string `yaml:"form"`
	ScoreCard          string `yaml:"score_card"`
	ScoreValue         string `yaml:"score_value"`
	FindingsSection    string `yaml:"findings_section"`
	SectionHeading     string `yaml:"section_heading"`
	FindingItem        string `yaml:"finding_item"`
	FindingTitle       string `yaml:"finding_title"`
	FindingDescription string `yaml:"finding_description"`
	FixStep            string `yaml:"fix_step"`
}

// DefaultSelectors matches the stock WebAudit templates.
func DefaultSelectors() Selectors {
	return Selectors{
		URLInput:           "#website_url",
		Form:               `form[method="POST"]`,
		ScoreCard:          ".score-card",
		ScoreValue:         ".chart-score",
		FindingsSection:    ".findings-section",
		SectionHeading:     "h2",
		FindingItem:        ".finding-item",
		FindingTitle:       "h4",
		FindingDescription: "p",
		FixStep:            ".fix-steps li",
	}
}

// Missing lists the names of empty selectors.
func (s Selectors) Missing() []string {
	fields := []struct {
		name  string
		value string
	}{
		{"url_input", s.URLInput},
		{"form", s.Form},
		{"score_card", s.ScoreCard},
		{"score_value", s.ScoreValue},
		{"findings_section", s.FindingsSection},
		{"section_heading", s.SectionHeading},
		{"finding_item", s.FindingItem},
		{"finding_title", s.FindingTitle},
		{"finding_description", s.FindingDescription},
		{"fix_step", s.FixStep},
	}

	var missing []string
	for _, field := range fields {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}
