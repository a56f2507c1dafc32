package stage

import (
	"fmt"
	"strings"

	"bookforge-api/internal/domain/entity"
)

// 各阶段提示词。产出 JSON 的阶段在系统提示中内嵌格式约定，
// 解析端仍按防御式规则兜底（见 parse.go）。

const brainstormSystemPrompt = `You are a creative brainstorming assistant and academic research specialist.
Your job is to expand a keyword and a detailed description into a multi-angle idea exploration and generate thesis-level research questions.

1. Association Expansion: Related concepts, industries, emotions, and trends based on the provided description.
2. Idea Generation: Business, content, and innovation opportunities.
3. Academic Framing: Define the keyword and description in an academic context and identify relevant disciplines.
4. Research Question Generation: Generate 5-10 rigorous questions (Exploratory, Analytical, Comparative, Applied, and Future-Oriented).

Style: Expansive, formal yet creative, specific and focused.

You MUST respond with valid JSON in this exact format:
{
  "thesis": "A core academic thesis statement",
  "topics": ["topic1", "topic2", ...],
  "researchQuestions": ["question1", "question2", ...]
}`

func buildBrainstormUserPrompt(p *entity.Project) string {
	keyword := TruncateByRunes(p.SeedKeyword, 500)
	description := TruncateByRunes(p.Description, 2000)
	return fmt.Sprintf(`Keyword: %s
Detailed Description: %s
Genre: %s
Audience: %s
Style: %s`, keyword, description, p.Genre, p.TargetAudience, p.WritingStyle)
}

const conceptsSystemPrompt = `You are a hybrid academic synthesis + publishing concept assistant.
Convert research questions, thesis, and the initial description into 3-5 distinct book concepts.
Each concept must bridge academic thinking with commercially viable positioning while honoring the user's original vision.

Requirements:
- Memphis/Memorable Titles
- Value-driven Taglines (5-15 words)
- Clear Style Category (e.g., Popular Science, Thought Leadership, Strategy)
- Specific Audience Segmentation (Education level, reading motivation, knowledge level)

Avoid generic titles. Mix Provocative, Intellectual Prestige, and Commercial Appeal.

You MUST respond with valid JSON as an array of objects:
[
  {
    "title": "...",
    "tagline": "...",
    "description": "Detailed book concept description.",
    "targetMarket": "Target persona and knowledge level."
  }
]`

func buildConceptsUserPrompt(p *entity.Project, set *entity.ConceptSet) string {
	thesis := ""
	var questions []string
	if set != nil {
		thesis = set.ThesisStatement
		if set.Brainstorm != nil {
			questions = set.Brainstorm.ResearchQuestions
		}
	}
	return fmt.Sprintf(`Keyword: %s
Description: %s
Existing Thesis: %s
Research Questions: %s`, p.SeedKeyword, p.Description, thesis, strings.Join(questions, "\n"))
}

const outlineSystemPrompt = `You are an academic synthesis + publishing structure architect.
Generate a professional Table of Contents for the selected book concept, keeping in mind the user's original detailed description.

Structural Integrity Rules:
- 8-12 Chapters total.
- Flow logically: Foundations -> Complexity -> Application -> Future.
- Reflect academic grounding AND reader accessibility.
- Each chapter needs 3-6 specific subsections.
- Show a clear narrative or intellectual progression.
- Avoid generic chapter naming (e.g., 'Introduction' should be thematic).

You MUST respond with valid JSON as an array:
[
  {
    "id": "ch1",
    "title": "Chapter title",
    "summary": "Chapter narrative goal and summary.",
    "sections": ["Subsection 1", "Subsection 2", ...]
  }
]`

func buildOutlineUserPrompt(p *entity.Project, concept entity.BookConcept) string {
	return fmt.Sprintf(`Selected Concept: %s
Tagline: %s
Original Vision: %s
Concept Summary: %s`, concept.Title, concept.Tagline, p.Description, concept.Description)
}

func buildChapterSystemPrompt(targetWordCount int) string {
	return fmt.Sprintf(`You are a professional book-writing AI producing publication-quality chapters.
Incorporate the user's original context and description into the narrative flow where appropriate.

Chapter Generation Rules:
1. Opening: Hook/framing idea, context, and why this chapter matters.
2. Core: Subsections expanded with theory, application, and examples.
3. Insight: Include a deep reflection or contrarian perspective.
4. Close: Summary of insights and bridge to the next chapter.

Standards:
- Word count: Aim for approximately %d words of rich, high-density content.
- Depth: Provide thorough analysis for each subsection to meet the word count target without using filler.
- Continuity: Maintain terminology and argument consistency.
- Formatting: Use Markdown headers (##) and clear paragraphs.
- No fluff: Avoid generic filler phrases.`, targetWordCount)
}

func buildChapterUserPrompt(p *entity.Project, chapter *entity.Chapter, bookTitle, previousSummary string, targetWordCount int) string {
	prompt := fmt.Sprintf(`Book: %s
Original Context: %s
Chapter Title: %s
Subsections: %s
Style: %s
Audience: %s
Target Word Count: %d words`,
		bookTitle, p.Description, chapter.Title,
		strings.Join(chapter.Sections, ", "),
		p.WritingStyle, p.TargetAudience, targetWordCount)
	if previousSummary != "" {
		prompt += fmt.Sprintf("\n\nPrevious Chapter Summary (for continuity): %s", previousSummary)
	}
	return prompt
}

func buildCoverSystemPrompt(coverStyle string) string {
	return fmt.Sprintf(`You are a book cover concept designer and AI image prompt engineer.
Generate a high-detail, production-ready Front Cover image prompt, inspired by the book's core vision, genre, and the user's chosen aesthetic style (%s).

Aesthetic Guidelines for "%s":
- Minimalist: Simple, clean, large whitespace, single powerful icon or symbol, muted colors.
- Vibrant: High saturation, dynamic shapes, energetic colors, eye-catching gradients.
- Classic: Timeless typography, traditional layouts, elegant textures (like paper or canvas), rich but sophisticated palette.
- Dark & Moody: High contrast, deep shadows, atmospheric, dramatic lighting, intense emotional tone.
- High-Tech: Futuristic, digital textures, neon accents, crisp lines, complex technical patterns.

Interpretation:
- Analyze theme, emotional tone, and market shelf category.
- Identify visual symbolism opportunities.
- Style: Ensure it strictly adheres to the requested "%s" aesthetic.
- Composition: Center focus, rule of thirds, specific lighting.

Output ONLY a single, high-quality descriptive prompt for a text-to-image AI model. Do not include book title text in the image generation prompt as it will be overlaid by UI.`, coverStyle, coverStyle, coverStyle)
}

func buildCoverUserPrompt(p *entity.Project, set *entity.ConceptSet) string {
	title := ""
	tagline := ""
	if set != nil {
		title = set.SelectedTitle
		tagline = set.SelectedTagline
	}
	return fmt.Sprintf(`Title: %s
Tagline: %s
Original Vision: %s
Genre: %s
Desired Cover Aesthetic: %s`, title, tagline, p.Description, p.Genre, p.CoverStyle)
}

func buildCoverImagePrompt(coverPrompt string) string {
	return fmt.Sprintf("Generate a professional book cover background based on this concept: %s. The image should be artistic, high-resolution, and suit a professional book. No text.", coverPrompt)
}
