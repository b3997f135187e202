package report

import "strings"

// Issue is the payload posted to the reporting endpoint.
type Issue struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

// CrashIssue builds a crash report from user notes, one stacktrace and the
// recent log history.
func CrashIssue(notes, stacktrace, log string, env Environment) Issue {
	return Issue{
		Title: Title(notes, DefaultCrashTitle),
		Body: Body(Sections{
			Notes:       notes,
			Environment: env,
			Stacktrace:  stacktrace,
			Log:         log,
		}),
		Labels: labels(DefaultCrashTitle, env.Version),
	}
}

// BugIssue builds a bug report from user notes and the recent log history.
func BugIssue(notes, log string, env Environment) Issue {
	return Issue{
		Title: Title(notes, DefaultBugTitle),
		Body: Body(Sections{
			Notes:       notes,
			Environment: env,
			Log:         log,
		}),
		Labels: labels(DefaultBugTitle, env.Version),
	}
}

func labels(kind, version string) []string {
	out := []string{kind}
	if v := strings.TrimSpace(version); v != "" {
		out = append(out, v)
	}
	return out
}
