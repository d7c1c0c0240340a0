package normalize

import (
	"regexp"
	"strings"
)

// skillVocabulary is the fixed set of technical skill terms recognized by the
// extractor. Multi-word terms and terms with punctuation are matched as
// substrings; single-word terms are matched as whole tokens so that "go" does
// not fire on "google".
var skillVocabulary = []string{
	"go", "golang", "python", "java", "javascript", "typescript", "rust",
	"c++", "c#", "ruby", "php", "scala", "kotlin", "swift", "elixir",
	"react", "vue", "angular", "node.js", "next.js", "django", "rails",
	"spring boot", "graphql", "rest", "grpc",
	"postgresql", "postgres", "mysql", "mongodb", "redis", "elasticsearch",
	"kafka", "rabbitmq", "cassandra", "dynamodb", "sqlite",
	"aws", "gcp", "azure", "kubernetes", "docker", "terraform", "ansible",
	"ci/cd", "jenkins", "github actions", "gitlab",
	"linux", "bash", "git",
	"machine learning", "deep learning", "nlp", "pytorch", "tensorflow",
	"data engineering", "spark", "airflow", "snowflake", "dbt",
	"microservices", "distributed systems", "observability",
}

var tokenSplitter = regexp.MustCompile(`[^a-z0-9+#./]+`)

// Skills extracts skill terms from free text against the fixed vocabulary.
// Matching is case-insensitive; the result preserves vocabulary order and
// contains no duplicates. Returns nil when nothing matches.
func Skills(text string) []string {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return nil
	}

	tokens := make(map[string]struct{})
	for _, tok := range tokenSplitter.Split(lower, -1) {
		if tok != "" {
			tokens[tok] = struct{}{}
		}
	}

	var found []string
	seen := make(map[string]struct{})
	for _, skill := range skillVocabulary {
		if _, dup := seen[skill]; dup {
			continue
		}
		if matchesSkill(lower, tokens, skill) {
			found = append(found, skill)
			seen[skill] = struct{}{}
		}
	}
	return found
}

func matchesSkill(lowerText string, tokens map[string]struct{}, skill string) bool {
	// Terms with spaces or punctuation are matched as substrings.
	if strings.ContainsAny(skill, " +#./") {
		return strings.Contains(lowerText, skill)
	}
	_, ok := tokens[skill]
	return ok
}
