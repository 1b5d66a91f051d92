// Package classify turns a raw tool invocation into the risk-relevant facts
// the monitor accumulates: which sensitive path categories it touches, whether
// it is a shell / web-fetch / file-read tool, whether the command string shows
// structural shell-escape patterns, and which external domain (if any) it
// contacts. Classification is a pure function of the call; failures degrade
// silently to "no match".
package classify

import (
	"regexp"
	"sort"
	"strings"
)

// PathCategory names one class of sensitive filesystem locations.
type PathCategory string

const (
	CategorySSHKey       PathCategory = "SSH_KEY"
	CategoryAWSCreds     PathCategory = "AWS_CREDS"
	CategoryGPGKey       PathCategory = "GPG_KEY"
	CategoryKeychain     PathCategory = "KEYCHAIN"
	CategorySystemAuth   PathCategory = "SYSTEM_AUTH"
	CategoryEnvFile      PathCategory = "ENV_FILE"
	CategoryCloudConfig  PathCategory = "CLOUD_CONFIG"
	CategoryBrowserData  PathCategory = "BROWSER_DATA"
	CategoryShellHistory PathCategory = "SHELL_HISTORY"
)

// credentialGrade marks categories that imply access to reusable secrets.
var credentialGrade = map[PathCategory]bool{
	CategorySSHKey:     true,
	CategoryAWSCreds:   true,
	CategoryGPGKey:     true,
	CategoryKeychain:   true,
	CategorySystemAuth: true,
}

// IsCredentialGrade reports whether the category implies reusable secrets.
func IsCredentialGrade(c PathCategory) bool { return credentialGrade[c] }

// Tool name vocabularies. Extensible but deliberately finite: the classifier
// matches known agent tool names, not arbitrary aliases.
var (
	shellTools = map[string]bool{
		"Bash":              true,
		"bash":              true,
		"shell":             true,
		"run_command":       true,
		"run_shell_command": true,
		"execute_command":   true,
		"terminal":          true,
	}
	webFetchTools = map[string]bool{
		"WebFetch":     true,
		"web_fetch":    true,
		"fetch":        true,
		"http_request": true,
		"open_url":     true,
		"curl":         true,
	}
	fileReadTools = map[string]bool{
		"Read":          true,
		"read":          true,
		"read_file":     true,
		"cat_file":      true,
		"view_file":     true,
		"open_file":     true,
		"NotebookRead":  true,
		"read_document": true,
	}
)

// Ordered sensitive-path rule table. Matches are OR'd and deduplicated in
// rule order.
var sensitivePathRules = []struct {
	category PathCategory
	patterns []*regexp.Regexp
}{
	{CategorySSHKey, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\.ssh/`),
		regexp.MustCompile(`(?i)\bid_(rsa|dsa|ecdsa|ed25519)\b`),
		regexp.MustCompile(`(?i)\bauthorized_keys\b`),
		regexp.MustCompile(`(?i)\bknown_hosts\b`),
	}},
	{CategoryAWSCreds, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\.aws/credentials`),
		regexp.MustCompile(`(?i)\.aws/config`),
		regexp.MustCompile(`(?i)\baws_secret_access_key\b`),
	}},
	{CategoryGPGKey, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\.gnupg/`),
		regexp.MustCompile(`(?i)\bsecring\.(gpg|pgp)\b`),
		regexp.MustCompile(`(?i)private.*\.(asc|pgp)\b`),
	}},
	{CategoryKeychain, []*regexp.Regexp{
		regexp.MustCompile(`(?i)/keychains?/`),
		regexp.MustCompile(`(?i)\.keychain(-db)?\b`),
		regexp.MustCompile(`(?i)login\.keychain`),
	}},
	{CategorySystemAuth, []*regexp.Regexp{
		regexp.MustCompile(`/etc/passwd`),
		regexp.MustCompile(`/etc/shadow`),
		regexp.MustCompile(`/etc/sudoers`),
		regexp.MustCompile(`(?i)/etc/ssh/`),
	}},
	{CategoryEnvFile, []*regexp.Regexp{
		regexp.MustCompile(`(^|/)\.env(\.[A-Za-z0-9_.-]+)?$`),
		regexp.MustCompile(`(?i)\.env\b.*(secret|prod)`),
	}},
	{CategoryCloudConfig, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\.kube/config`),
		regexp.MustCompile(`(?i)\.config/gcloud/`),
		regexp.MustCompile(`(?i)\.npmrc\b`),
		regexp.MustCompile(`(?i)\.docker/config\.json`),
	}},
	{CategoryBrowserData, []*regexp.Regexp{
		regexp.MustCompile(`(?i)/cookies(\.sqlite)?\b`),
		regexp.MustCompile(`(?i)login\s?data\b`),
		regexp.MustCompile(`(?i)/(chrome|chromium|firefox|mozilla)/.*(profile|default)`),
	}},
	{CategoryShellHistory, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\.(bash|zsh|sh)_history\b`),
	}},
}

// Shell-escape structural patterns. Any match on the primary command string
// sets the flag.
var shellEscapePatterns = []*regexp.Regexp{
	regexp.MustCompile(`;`),           // command chaining
	regexp.MustCompile(`&&`),          // conditional chaining
	regexp.MustCompile(`\|\|`),        // conditional chaining
	regexp.MustCompile(`[^|]\|[^|]`),  // single pipe
	regexp.MustCompile("`[^`]*`"),     // backtick substitution
	regexp.MustCompile(`\$\([^)]*\)`), // $() substitution
	regexp.MustCompile(`\n`),          // embedded newline
}

// Param keys checked, in order, for a path-like argument.
var pathParamKeys = []string{"file_path", "path", "filename", "file", "notebook_path", "target_file"}

// Classification is the derived, never-persisted view of one tool call.
type Classification struct {
	ToolName                string
	SensitivePathCategories []PathCategory
	ExternalDomain          string // empty when none
	IsWebFetch              bool
	IsShell                 bool
	IsFileRead              bool
	ShellEscapeDetected     bool
	PathParam               string
}

// HasCredentialCategory reports whether any matched category is
// credential-grade.
func (c *Classification) HasCredentialCategory() bool {
	for _, cat := range c.SensitivePathCategories {
		if credentialGrade[cat] {
			return true
		}
	}
	return false
}

// ToolCall classifies one tool invocation. Parameters are the raw key/value
// arguments of the call; non-string values are ignored except where a string
// rendering is already available.
func ToolCall(toolName string, params map[string]any) *Classification {
	cls := &Classification{
		ToolName:   toolName,
		IsShell:    shellTools[toolName],
		IsWebFetch: webFetchTools[toolName],
		IsFileRead: fileReadTools[toolName],
	}

	cls.PathParam = pathParam(params)

	// Sensitive-path scan target: the path-like parameter always, plus the
	// joined string parameters for shell tools (paths hide inside commands).
	scanTarget := cls.PathParam
	joined := joinStringParams(params)
	if cls.IsShell {
		scanTarget = scanTarget + "\n" + joined
	}
	cls.SensitivePathCategories = matchSensitivePaths(scanTarget)

	if cls.IsShell {
		if cmd, ok := params["command"].(string); ok {
			cls.ShellEscapeDetected = DetectShellEscape(cmd)
		}
		cls.ExternalDomain = domainFromShellText(joined)
	}
	if cls.IsWebFetch {
		cls.ExternalDomain = domainFromURLParam(params)
	}

	return cls
}

// DetectShellEscape tests a command string against the structural escape
// patterns (chaining, pipes, substitution, embedded newlines).
func DetectShellEscape(command string) bool {
	for _, re := range shellEscapePatterns {
		if re.MatchString(command) {
			return true
		}
	}
	return false
}

// matchSensitivePaths runs the ordered rule table, OR-ing and deduplicating
// matches while preserving rule order.
func matchSensitivePaths(text string) []PathCategory {
	if text == "" {
		return nil
	}
	var cats []PathCategory
	for _, rule := range sensitivePathRules {
		for _, re := range rule.patterns {
			if re.MatchString(text) {
				cats = append(cats, rule.category)
				break
			}
		}
	}
	return cats
}

// pathParam returns the first path-like string parameter, if any.
func pathParam(params map[string]any) string {
	for _, key := range pathParamKeys {
		if v, ok := params[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// joinStringParams concatenates all string parameter values in a stable
// (key-sorted) order.
func joinStringParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		if v, ok := params[k].(string); ok {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(v)
		}
	}
	return b.String()
}
