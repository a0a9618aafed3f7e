package prompts

import "sort"

const DefaultKey = "default"

const atsAnalyzerPrompt = `You are an advanced ATS (Applicant Tracking System) analyzer with expertise in technical recruitment.

    TASK:
    Analyze the provided resume against the job description and provide a detailed compatibility assessment.

    ANALYSIS STRUCTURE:
    1. Match Score: Provide a percentage match score (0-100%) based on how well the resume aligns with the job requirements.
    2. Key Matches: List the specific skills, experiences, and qualifications from the resume that directly match the job requirements.
    3. Missing Requirements: Identify critical requirements from the job description that are not evident in the resume.
    4. Improvement Suggestions: Provide actionable recommendations for improving the resume to better match this specific job description.
    5. Keyword Analysis: Highlight important keywords from the job description that should be emphasized in the resume.

    RESPONSE FORMAT:
    - Be concise and direct in your analysis
    - Use bullet points for clarity
    - Prioritize technical accuracy in your assessment
    - Focus on objective matching rather than subjective evaluation
    `

const hiringManagerPrompt = `Act as a senior hiring manager with over 20 years of experience in the Software developement.
    You have firsthand expertise in the Software developement and a deep understanding of what it takes to succeed in this position.
    Your task is to identify the ideal candidate based solely on their resume, ensuring they meet and exceed expectations.

    Review the provided resume and provided blunt criticism and feedback to land a role in the industry.
    `

// Registry maps prompt-type keys to system prompts. It is read-only after
// construction.
type Registry struct {
	prompts    map[string]string
	defaultKey string
}

// NewRegistry builds a registry. defaultKey must be present in prompts.
func NewRegistry(prompts map[string]string, defaultKey string) *Registry {
	copied := make(map[string]string, len(prompts))
	for k, v := range prompts {
		copied[k] = v
	}
	if _, ok := copied[defaultKey]; !ok {
		panic("prompts: default key " + defaultKey + " missing from registry")
	}
	return &Registry{prompts: copied, defaultKey: defaultKey}
}

// Builtin returns the registry shipped with the service.
func Builtin() *Registry {
	return NewRegistry(map[string]string{
		"default123": hiringManagerPrompt,
		DefaultKey:   atsAnalyzerPrompt,
	}, DefaultKey)
}

// Resolve never fails: unknown keys map to the default prompt.
func (r *Registry) Resolve(key string) string {
	if p, ok := r.prompts[key]; ok {
		return p
	}
	return r.prompts[r.defaultKey]
}

func (r *Registry) Has(key string) bool {
	_, ok := r.prompts[key]
	return ok
}

func (r *Registry) DefaultKey() string {
	return r.defaultKey
}

// All returns a copy of every key and prompt.
func (r *Registry) All() map[string]string {
	out := make(map[string]string, len(r.prompts))
	for k, v := range r.prompts {
		out[k] = v
	}
	return out
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.prompts))
	for k := range r.prompts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
