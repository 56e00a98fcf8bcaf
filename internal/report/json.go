package report

import (
	"encoding/json"

	"github.com/goobits/docs-engine-sub003/internal/validation"
)

// JSONFormatter writes the full ordered array of results.
type JSONFormatter struct{}

// linkDTO is the serialized form of an extracted link.
type linkDTO struct {
	URL        string `json:"url" yaml:"url"`
	Text       string `json:"text" yaml:"text,omitempty"`
	SourceFile string `json:"sourceFile" yaml:"sourceFile"`
	Line       int    `json:"line" yaml:"line"`
	Column     int    `json:"column,omitempty" yaml:"column,omitempty"`
	Kind       string `json:"kind" yaml:"kind"`
}

// resultDTO is the serialized form of a validation result. StatusCode is
// present only for external links, where 0 means the probe was skipped
// or got no response.
type resultDTO struct {
	Link        linkDTO `json:"link" yaml:"link"`
	IsValid     bool    `json:"isValid" yaml:"isValid"`
	Outcome     string  `json:"outcome" yaml:"outcome"`
	Error       string  `json:"error,omitempty" yaml:"error,omitempty"`
	StatusCode  *int    `json:"statusCode,omitempty" yaml:"statusCode,omitempty"`
	RedirectURL string  `json:"redirectUrl,omitempty" yaml:"redirectUrl,omitempty"`
}

func toDTO(r validation.Result) resultDTO {
	dto := resultDTO{
		Link: linkDTO{
			URL:        r.Link.URL,
			Text:       r.Link.Text,
			SourceFile: r.Link.FilePath,
			Line:       r.Link.Line,
			Column:     r.Link.Column,
			Kind:       r.Link.Kind.String(),
		},
		IsValid:     r.IsValid,
		Outcome:     r.Outcome.String(),
		Error:       r.Error,
		RedirectURL: r.RedirectURL,
	}
	if r.IsExternal() {
		code := r.StatusCode
		dto.StatusCode = &code
	}
	return dto
}

func toDTOs(results []validation.Result) []resultDTO {
	out := make([]resultDTO, 0, len(results))
	for _, r := range results {
		out = append(out, toDTO(r))
	}
	return out
}

// Format implements Formatter.
func (*JSONFormatter) Format(report *Report) ([]byte, error) {
	data, err := json.MarshalIndent(toDTOs(report.Results), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
