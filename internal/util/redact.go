package util

import (
	"regexp"
	"sort"
)

var (
	keyValuePattern = regexp.MustCompile(`(?i)(api_key|apikey|secret|token|password|access_key|private_key)\s*[:=]\s*([^\s"']+)`)
	privateKeyBlock = regexp.MustCompile(`(?is)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`)
	jwtPattern      = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.?[a-zA-Z0-9_-]*`)
	skPattern       = regexp.MustCompile(`(?i)sk-(proj-)?[a-z0-9_-]{20,}`)
	secretEnvKey    = regexp.MustCompile(`(?i)(key|secret|token|password)`)
)

// RedactSecrets removes likely secrets from text before it reaches the logs.
func RedactSecrets(input string) string {
	out := keyValuePattern.ReplaceAllString(input, `$1=[REDACTED]`)
	out = privateKeyBlock.ReplaceAllString(out, "[REDACTED PRIVATE KEY]")
	out = jwtPattern.ReplaceAllString(out, "[REDACTED JWT]")
	out = skPattern.ReplaceAllString(out, "[REDACTED KEY]")
	return out
}

// RedactEnv returns "KEY=value" pairs sorted by key, with values of
// secret-looking keys replaced and every other value scrubbed and shortened.
func RedactEnv(env map[string]string, maxValueBytes int) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		v := env[k]
		if secretEnvKey.MatchString(k) {
			v = "[REDACTED]"
		} else {
			v = Preview(RedactSecrets(v), maxValueBytes)
		}
		out = append(out, k+"="+v)
	}
	return out
}
