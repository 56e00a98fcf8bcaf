package report

import (
	"gopkg.in/yaml.v3"
)

// YAMLFormatter writes the whole report, summary and stats included.
type YAMLFormatter struct{}

type yamlOutput struct {
	GeneratedAt string         `yaml:"generatedAt"`
	TotalFiles  int            `yaml:"totalFiles"`
	Summary     Summary        `yaml:"summary"`
	Results     []resultDTO    `yaml:"results"`
	FileErrors  []yamlFileErr  `yaml:"fileErrors,omitempty"`
	Ignored     []yamlIgnored  `yaml:"ignored,omitempty"`
	Stats       map[string]any `yaml:"stats,omitempty"`
}

type yamlFileErr struct {
	Path  string `yaml:"path"`
	Error string `yaml:"error"`
}

type yamlIgnored struct {
	URL    string `yaml:"url"`
	File   string `yaml:"file"`
	Line   int    `yaml:"line,omitempty"`
	Reason string `yaml:"reason"`
	Rule   string `yaml:"rule"`
}

// Format implements Formatter.
func (*YAMLFormatter) Format(report *Report) ([]byte, error) {
	out := yamlOutput{
		GeneratedAt: report.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		TotalFiles:  len(report.Files),
		Summary:     report.Summary,
		Results:     toDTOs(report.Results),
		Stats:       report.Stats,
	}
	for _, fe := range report.FileErrors {
		out.FileErrors = append(out.FileErrors, yamlFileErr(fe))
	}
	for _, ig := range report.Ignored {
		out.Ignored = append(out.Ignored, yamlIgnored(ig))
	}
	return yaml.Marshal(out)
}
