package report

import (
	"encoding/xml"
	"fmt"
	"sort"

	"github.com/goobits/docs-engine-sub003/internal/helpers"
	"github.com/goobits/docs-engine-sub003/internal/validation"
)

// JUnitFormatter formats reports as JUnit XML. Each source document is a
// test suite; only broken links appear as test cases.
type JUnitFormatter struct{}

type junitTestSuites struct {
	XMLName   xml.Name         `xml:"testsuites"`
	Name      string           `xml:"name,attr"`
	Tests     int              `xml:"tests,attr"`
	Failures  int              `xml:"failures,attr"`
	Errors    int              `xml:"errors,attr"`
	TestSuite []junitTestSuite `xml:"testsuite"`
}

type junitTestSuite struct {
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	TestCases []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Failure   *junitProblem `xml:"failure,omitempty"`
	Error     *junitProblem `xml:"error,omitempty"`
}

type junitProblem struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Content string `xml:",chardata"`
}

// Format implements Formatter.
func (*JUnitFormatter) Format(report *Report) ([]byte, error) {
	byFile := map[string][]validation.Result{}
	var files []string
	for _, r := range report.Broken() {
		if _, ok := byFile[r.Link.FilePath]; !ok {
			files = append(files, r.Link.FilePath)
		}
		byFile[r.Link.FilePath] = append(byFile[r.Link.FilePath], r)
	}
	sort.Strings(files)

	suites := junitTestSuites{Name: "doclinks"}

	for _, file := range files {
		suite := junitTestSuite{Name: helpers.RelPath(report.Root, file)}

		for _, r := range byFile[file] {
			suite.Tests++
			tc := junitTestCase{
				Name:      r.Link.URL,
				ClassName: helpers.Location(report.Root, r.Link.FilePath, r.Link.Line),
			}
			problem := &junitProblem{
				Message: helpers.TruncateText(r.Error, 200),
				Type:    r.Outcome.String(),
				Content: problemContent(r),
			}
			if r.Outcome == validation.InternalError {
				suite.Errors++
				tc.Error = problem
			} else {
				suite.Failures++
				tc.Failure = problem
			}
			suite.TestCases = append(suite.TestCases, tc)
		}

		suites.Tests += suite.Tests
		suites.Failures += suite.Failures
		suites.Errors += suite.Errors
		suites.TestSuite = append(suites.TestSuite, suite)
	}

	if len(suites.TestSuite) == 0 {
		suites.TestSuite = append(suites.TestSuite, junitTestSuite{Name: "all-links"})
	}

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), data...), nil
}

func problemContent(r validation.Result) string {
	content := ""
	if r.Link.Text != "" {
		content += fmt.Sprintf("Link text: %q\n", helpers.TruncateText(r.Link.Text, 100))
	}
	if r.StatusCode > 0 {
		content += fmt.Sprintf("Status: %d\n", r.StatusCode)
	}
	if r.RedirectURL != "" {
		content += fmt.Sprintf("Final URL: %s\n", r.RedirectURL)
	}
	content += fmt.Sprintf("Error: %s\n", r.Error)
	return content
}
