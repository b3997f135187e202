// Package report turns diagnostics into issue reports and posts them.
//
// Title and Body build a markdown issue from user notes, an Environment
// table, one stacktrace and the recent log history. Blocks with no content
// are left out. CrashIssue and BugIssue assemble complete payloads with the
// matching labels.
//
// Client is a thin JSON POST to an issues endpoint such as the GitHub issues
// API. It sends "Authorization: token <t>" when a token is configured and
// HTTP basic auth otherwise. Any non-2xx response is an error. There is no
// retry.
package report
