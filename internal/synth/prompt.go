package synth

import (
	"fmt"
	"strings"

	"github.com/skimlab/deepresearch/internal/models"
)

// buildContext renders the selected sources as the model's evidence block.
// Each source is introduced by its citation index so inline [n] markers in
// the answer can be joined back to the source list.
func buildContext(sources []models.SelectedSource) string {
	var sb strings.Builder
	for _, src := range sources {
		fmt.Fprintf(&sb, "Source [%d] (%s):\n%s\n\n---\n\n", src.Index, src.URL, src.Text)
	}
	return sb.String()
}

// fitBudget truncates each source proportionally when the combined text
// exceeds maxChars, so no single source starves the others. Sources at or
// under their proportional share are left untouched.
func fitBudget(sources []models.SelectedSource, maxChars int) []models.SelectedSource {
	total := 0
	for _, src := range sources {
		total += len(src.Text)
	}
	if total <= maxChars || total == 0 {
		return sources
	}

	out := make([]models.SelectedSource, len(sources))
	copy(out, sources)
	for i := range out {
		share := len(out[i].Text) * maxChars / total
		if share < len(out[i].Text) {
			out[i].Text = truncateRuneSafe(out[i].Text, share)
		}
	}
	return out
}

func truncateRuneSafe(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}

const baseInstructions = `User Query: %q

Sources:
--- START OF SOURCES ---
%s
--- END OF SOURCES ---

General Instructions:
1.  Analyze the User Query and ALL provided Sources meticulously. Ignore irrelevant sources.
2.  **Cite (Inline):** Add [N] after information from Source N. Use individual markers [1][4][5] for combined info. Place before punctuation. **Accuracy is critical.**
3.  **Source Reliance:** Base the response *exclusively* on the provided sources. NO outside knowledge.
4.  **Clarity & Structure:** Use clear language and Markdown formatting.
5.  **Handling Gaps:** If sources lack info, state it clearly. Do not invent.
6.  **Tone:** Objective, factual, neutral.
7.  **Output:** Generate ONLY the Markdown answer, starting directly without preamble.
`

const quickInstructions = `
Specific Instructions for Quick Answer:
*   **Goal:** Concise, informative answer synthesizing key points from sources.
*   **Structure:** Use paragraphs, ### Subheadings (optional), * bullet points.

Synthesized Answer (Markdown format):`

// quickPrompt asks for a short synthesized answer with inline markers.
func quickPrompt(query, context string) string {
	return fmt.Sprintf(baseInstructions, query, context) + quickInstructions
}

// Deep runs are generated in three passes to stay inside output-token
// limits: the article frame, the body, and the closing sections. Each pass
// restates the source block and the expectations for its sections.

const deepExpectations = `ARTICLE STRUCTURE AND EXPECTATIONS:
1. Length: a comprehensive research article (2500-3750 words across all sections)
2. Academic Rigor: scholarly, well-researched, critically analyzed
3. Formatting: academic writing conventions with clear structure
4. Citations: numbered markers [1], [2], etc. for every claim and data point
`

func deepStructurePrompt(query, context string) string {
	return fmt.Sprintf(`User Query: %q

Based on the provided sources, generate ONLY the Title, Abstract, and Introduction sections
for a comprehensive academic research article.

%s
Section budgets: Title (concise, informative); Abstract (250-300 words, state the
research query, key findings, significance); Introduction (500-600 words, context,
objectives, theoretical framework, central research questions).

Sources:
--- START OF SOURCES ---
%s
--- END OF SOURCES ---

Generate ONLY those sections, in Markdown, starting directly without preamble.`,
		query, deepExpectations, context)
}

func deepBodyPrompt(query, context string) string {
	return fmt.Sprintf(`User Query: %q

Based on the provided sources, generate ONLY the Literature Review and Analysis sections
for a comprehensive academic research article. The Title, Abstract, and Introduction
have already been generated.

%s
Section budgets: Literature Review (800-1000 words, systematic review, gaps and
controversies, synthesis across sources); Analysis (1200-1500 words, in-depth
discussion, multiple perspectives, counterarguments, broader context).

Sources:
--- START OF SOURCES ---
%s
--- END OF SOURCES ---

Generate ONLY those sections, in Markdown, starting directly without preamble.`,
		query, deepExpectations, context)
}

func deepClosingPrompt(query, context string) string {
	return fmt.Sprintf(`User Query: %q

Based on the provided sources, generate ONLY the Conclusion and References sections
for a comprehensive academic research article. The previous sections have already
been generated.

%s
Section budgets: Conclusion (400-500 words, key findings, implications, future
research directions); References (every cited source, numbered to match the
inline markers).

Sources:
--- START OF SOURCES ---
%s
--- END OF SOURCES ---

Generate ONLY those sections, in Markdown, starting directly without preamble.`,
		query, deepExpectations, context)
}
