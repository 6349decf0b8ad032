package archive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

var ErrNoAcceptedFile = errors.New("no zip archive among the selected files")

// Candidate describes a file offered by a picker before its content is read.
type Candidate struct {
	Name        string
	ContentType string
}

// AcceptPolicy restricts what a picker may hand to the workflow. A candidate is
// accepted when its name matches one of Patterns or its content type is listed.
type AcceptPolicy struct {
	Patterns     []string
	ContentTypes []string
	globs        []glob.Glob
}

func NewAcceptPolicy(patterns []string, contentTypes []string) (AcceptPolicy, error) {
	policy := AcceptPolicy{Patterns: patterns, ContentTypes: contentTypes}
	for _, pattern := range patterns {
		g, err := glob.Compile(strings.ToLower(pattern), '/')
		if err != nil {
			return AcceptPolicy{}, fmt.Errorf("invalid accept pattern '%s': %w", pattern, err)
		}
		policy.globs = append(policy.globs, g)
	}
	return policy, nil
}

// ZipPolicy accepts zip archives only.
func ZipPolicy() AcceptPolicy {
	policy, err := NewAcceptPolicy(
		[]string{"*.zip"},
		[]string{"application/zip", "application/x-zip-compressed"},
	)
	if err != nil {
		panic(err)
	}
	return policy
}

func (p AcceptPolicy) Accepts(name string, contentType string) bool {
	base := strings.ToLower(name)
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	for _, g := range p.globs {
		if g.Match(base) {
			return true
		}
	}
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	for _, accepted := range p.ContentTypes {
		if mediaType != "" && mediaType == accepted {
			return true
		}
	}
	return false
}

// Pick returns the index of the first accepted candidate. The rest are ignored.
func (p AcceptPolicy) Pick(candidates []Candidate) (int, error) {
	for i, candidate := range candidates {
		if p.Accepts(candidate.Name, candidate.ContentType) {
			return i, nil
		}
	}
	return -1, ErrNoAcceptedFile
}
